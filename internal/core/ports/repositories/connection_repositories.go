package repositories

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// ConnectionRepository defines persistence operations for provider credentials.
type ConnectionRepository interface {
	// FindByUser retrieves the provider connection for a user.
	// Returns apperrors.ErrNotFound when the user has no connection on file.
	FindByUser(ctx context.Context, userID string) (*domain.ProviderConnection, error)

	// Save upserts a provider connection; the most recent successful token
	// exchange always wins.
	Save(ctx context.Context, conn domain.ProviderConnection) error

	// Delete removes a stored connection, forcing re-authorization.
	Delete(ctx context.Context, userID string, realmID string) error
}
