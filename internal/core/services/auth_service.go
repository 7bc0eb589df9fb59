package services

import (
	"context"
	"fmt"
	"time"

	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/platform/config"
	"github.com/finlens/finlens_backend/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// googleOAuthService implements the GoogleOAuthSvcFacade interface
type googleOAuthService struct {
	BaseService
	oauthCfg *oauth2.Config
	clientID string
}

// NewGoogleOAuthService creates the Google sign-in service.
func NewGoogleOAuthService(cfg *config.Config) portssvc.GoogleOAuthSvcFacade {
	return &googleOAuthService{
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		clientID: cfg.GoogleClientID,
	}
}

// Ensure googleOAuthService implements the GoogleOAuthSvcFacade interface
var _ portssvc.GoogleOAuthSvcFacade = (*googleOAuthService)(nil)

// GetAuthURL generates the URL to redirect the user to for Google login.
func (s *googleOAuthService) GetAuthURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCodeForToken exchanges an authorization code for Google tokens.
func (s *googleOAuthService) ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		s.LogError(ctx, err, "Failed to exchange Google authorization code")
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return token, nil
}

// ValidateGoogleIDToken validates a Google ID token against this app's client
// ID and returns its payload.
func (s *googleOAuthService) ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error) {
	payload, err := idtoken.Validate(ctx, idTokenString, s.clientID)
	if err != nil {
		s.LogWarn(ctx, "Google ID token failed validation")
		return nil, fmt.Errorf("validating ID token: %w", err)
	}
	return payload, nil
}

// tokenService implements the TokenSvcFacade interface
type tokenService struct {
	BaseService
	secret string
	expiry time.Duration
	issuer string
}

// NewTokenService creates the application JWT issuer.
func NewTokenService(cfg *config.Config) portssvc.TokenSvcFacade {
	return &tokenService{
		secret: cfg.JWTSecret,
		expiry: cfg.JWTExpiryDuration,
		issuer: cfg.JWTIssuer,
	}
}

// Ensure tokenService implements the TokenSvcFacade interface
var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken issues a signed application JWT for the user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := utils.GenerateJWT(userID, s.secret, s.expiry, s.issuer)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign access token")
		return "", time.Time{}, err
	}
	return token, time.Now().Add(s.expiry), nil
}
