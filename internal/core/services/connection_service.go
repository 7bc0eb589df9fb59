package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/platform/config"
	"golang.org/x/oauth2"
)

// refreshFunc exchanges a refresh token for a fresh token set. Extracted so
// tests can simulate the provider's identity service.
type refreshFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

// connectionService implements the ConnectionSvcFacade interface
type connectionService struct {
	BaseService
	connRepo portsrepo.ConnectionRepository
	oauthCfg *oauth2.Config
	margin   time.Duration
	refresh  refreshFunc
	now      func() time.Time
}

// ConnectionServiceOption is a functional option for configuring the connection service
type ConnectionServiceOption func(*connectionService)

// WithConnectionClock overrides the service clock (tests).
func WithConnectionClock(now func() time.Time) ConnectionServiceOption {
	return func(s *connectionService) {
		s.now = now
	}
}

// WithTokenRefresher overrides the refresh-token exchange (tests).
func WithTokenRefresher(refresh refreshFunc) ConnectionServiceOption {
	return func(s *connectionService) {
		s.refresh = refresh
	}
}

// NewConnectionService creates the provider-connection service.
func NewConnectionService(cfg *config.Config, connRepo portsrepo.ConnectionRepository, options ...ConnectionServiceOption) portssvc.ConnectionSvcFacade {
	oauthCfg := &oauth2.Config{
		ClientID:     cfg.BooksClientID,
		ClientSecret: cfg.BooksClientSecret,
		RedirectURL:  cfg.BooksRedirectURL,
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.BooksAuthURL,
			TokenURL: cfg.BooksTokenURL,
		},
		Scopes: []string{"com.intuit.quickbooks.accounting"},
	}

	svc := &connectionService{
		connRepo: connRepo,
		oauthCfg: oauthCfg,
		margin:   cfg.TokenRefreshMargin,
		now:      time.Now,
	}
	svc.refresh = func(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
		source := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
		return source.Token()
	}

	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure connectionService implements the ConnectionSvcFacade interface
var _ portssvc.ConnectionSvcFacade = (*connectionService)(nil)

// AuthorizationURL builds the provider consent URL for linking an account.
func (s *connectionService) AuthorizationURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// CompleteAuthorization exchanges a callback code for tokens and persists the
// credential record for (user, realm).
func (s *connectionService) CompleteAuthorization(ctx context.Context, userID, code, realmID string) error {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		s.LogError(ctx, err, "Failed to exchange authorization code with provider",
			slog.String("realm_id", realmID))
		return fmt.Errorf("%w: authorization code exchange failed: %v", apperrors.ErrUpstreamTransient, err)
	}

	conn := domain.ProviderConnection{
		UserID:          userID,
		RealmID:         realmID,
		AccessToken:     token.AccessToken,
		RefreshToken:    token.RefreshToken,
		AccessExpiresAt: token.Expiry,
	}
	if err := s.connRepo.Save(ctx, conn); err != nil {
		s.LogError(ctx, err, "Failed to persist provider connection", slog.String("realm_id", realmID))
		return err
	}

	s.LogInfo(ctx, "Provider connection established", slog.String("realm_id", realmID))
	return nil
}

// EnsureValidAccessToken returns a usable access token for the user's realm,
// refreshing when the stored token is within the safety margin of expiry.
func (s *connectionService) EnsureValidAccessToken(ctx context.Context, userID string) (string, string, error) {
	conn, err := s.connRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", "", apperrors.ErrNotConnected
		}
		return "", "", err
	}

	if conn.AccessTokenValid(s.now(), s.margin) {
		return conn.AccessToken, conn.RealmID, nil
	}

	token, err := s.refresh(ctx, conn.RefreshToken)
	if err != nil {
		if isTerminalRefreshFailure(err) {
			// The refresh token was revoked or expired; the connection cannot
			// recover without the user re-linking the account.
			s.LogWarn(ctx, "Refresh token permanently rejected, deleting provider connection",
				slog.String("realm_id", conn.RealmID))
			if delErr := s.connRepo.Delete(ctx, conn.UserID, conn.RealmID); delErr != nil {
				s.LogError(ctx, delErr, "Failed to delete revoked provider connection",
					slog.String("realm_id", conn.RealmID))
			}
			return "", "", apperrors.ErrReauthRequired
		}
		s.LogError(ctx, err, "Transient failure refreshing provider access token",
			slog.String("realm_id", conn.RealmID))
		return "", "", fmt.Errorf("%w: token refresh failed: %v", apperrors.ErrUpstreamTransient, err)
	}

	conn.AccessToken = token.AccessToken
	conn.AccessExpiresAt = token.Expiry
	if token.RefreshToken != "" {
		// The provider rotates refresh tokens opportunistically.
		conn.RefreshToken = token.RefreshToken
	}

	// Concurrent refreshes for the same user are not serialized; the most
	// recent successful exchange wins and the provider accepts it.
	if err := s.connRepo.Save(ctx, *conn); err != nil {
		s.LogError(ctx, err, "Failed to persist refreshed provider tokens",
			slog.String("realm_id", conn.RealmID))
		return "", "", err
	}

	s.LogDebug(ctx, "Provider access token refreshed", slog.String("realm_id", conn.RealmID))
	return conn.AccessToken, conn.RealmID, nil
}

// Disconnect deletes the stored credential record.
func (s *connectionService) Disconnect(ctx context.Context, userID string) error {
	conn, err := s.connRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil // already disconnected
		}
		return err
	}
	return s.connRepo.Delete(ctx, conn.UserID, conn.RealmID)
}

// Status returns the stored connection, or apperrors.ErrNotConnected.
func (s *connectionService) Status(ctx context.Context, userID string) (*domain.ProviderConnection, error) {
	conn, err := s.connRepo.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrNotConnected
		}
		return nil, err
	}
	return conn, nil
}

// isTerminalRefreshFailure reports whether a refresh failure means the stored
// refresh token is permanently invalid. The identity service signals this
// with HTTP 400 and an invalid_grant body; anything else is transient.
func isTerminalRefreshFailure(err error) bool {
	var retrieveErr *oauth2.RetrieveError
	if !errors.As(err, &retrieveErr) {
		return false
	}
	if retrieveErr.Response == nil || retrieveErr.Response.StatusCode != http.StatusBadRequest {
		return false
	}
	if retrieveErr.ErrorCode == "invalid_grant" {
		return true
	}
	return strings.Contains(strings.ToLower(string(retrieveErr.Body)), "invalid_grant")
}
