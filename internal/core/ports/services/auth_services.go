package services

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// GoogleOAuthSvcFacade handles the Google sign-in code exchange used by the
// dashboard's login screen.
type GoogleOAuthSvcFacade interface {
	// GetAuthURL generates the URL to redirect the user to for Google login.
	GetAuthURL(state string) string

	// ExchangeCodeForToken exchanges an authorization code for Google tokens.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)

	// ValidateGoogleIDToken validates a Google ID token and returns its payload.
	ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error)
}

// TokenSvcFacade issues application JWTs for authenticated users.
type TokenSvcFacade interface {
	GenerateAccessToken(ctx context.Context, userID string) (string, time.Time, error)
}
