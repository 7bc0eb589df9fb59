package services

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// ConnectionSvcFacade manages the lifecycle of one user's link to the
// accounting provider: authorization, credential refresh and teardown.
type ConnectionSvcFacade interface {
	// AuthorizationURL builds the provider consent URL for linking an account.
	AuthorizationURL(state string) string

	// CompleteAuthorization exchanges a callback code for tokens and persists
	// the resulting credential record for (user, realm).
	CompleteAuthorization(ctx context.Context, userID, code, realmID string) error

	// EnsureValidAccessToken returns a usable access token for the user's
	// realm, refreshing (and persisting rotated credentials) when the stored
	// token is within the safety margin of expiry.
	// Returns apperrors.ErrNotConnected when no credential is on file and
	// apperrors.ErrReauthRequired when the refresh token was permanently
	// rejected, in which case the stored credential has been deleted.
	EnsureValidAccessToken(ctx context.Context, userID string) (accessToken string, realmID string, err error)

	// Disconnect deletes the stored credential record.
	Disconnect(ctx context.Context, userID string) error

	// Status returns the stored connection, or apperrors.ErrNotConnected.
	Status(ctx context.Context, userID string) (*domain.ProviderConnection, error)
}
