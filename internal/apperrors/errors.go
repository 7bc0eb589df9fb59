package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrNotConnected indicates that no accounting-provider credential is on file
// for the caller. This is a normal, displayable state, not a failure.
var ErrNotConnected = errors.New("accounting provider not connected")

// ErrReauthRequired indicates that the stored provider credential is
// permanently invalid and the user must re-link the external account.
// The stored credential record has already been deleted when this is returned.
var ErrReauthRequired = errors.New("provider reauthorization required")

// ErrUpstreamTransient indicates a retryable failure talking to the
// accounting provider or its identity service. The stored credential is untouched.
var ErrUpstreamTransient = errors.New("transient upstream failure")

// AppError carries an HTTP status and a machine-readable code alongside a message.
type AppError struct {
	Code    int    `json:"-"`
	ErrCode string `json:"code"`
	Message string `json:"error"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewBadRequestError creates a 400 AppError.
func NewBadRequestError(message string) *AppError {
	return &AppError{Code: http.StatusBadRequest, ErrCode: "bad_request", Message: message}
}

// NewReauthRequiredError creates the 401 AppError the UI uses to prompt reconnection.
func NewReauthRequiredError() *AppError {
	return &AppError{
		Code:    http.StatusUnauthorized,
		ErrCode: "reauth_required",
		Message: "Accounting connection expired. Please reconnect your account.",
		cause:   ErrReauthRequired,
	}
}

// NewUpstreamError creates a 502 AppError for retryable provider failures.
func NewUpstreamError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusBadGateway,
		ErrCode: "upstream_unavailable",
		Message: "Accounting provider is temporarily unavailable. Please retry.",
		cause:   cause,
	}
}
