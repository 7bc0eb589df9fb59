package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	"github.com/finlens/finlens_backend/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// connectionRepository implements the ConnectionRepository interface.
// Refresh tokens are sealed before hitting the database and opened on read.
type connectionRepository struct {
	BaseRepository
	sealBox *utils.SealBox
}

func newConnectionRepository(db *pgxpool.Pool, sealBox *utils.SealBox) portsrepo.ConnectionRepository {
	return &connectionRepository{
		BaseRepository: BaseRepository{Pool: db},
		sealBox:        sealBox,
	}
}

func (r *connectionRepository) FindByUser(ctx context.Context, userID string) (*domain.ProviderConnection, error) {
	query := `
		SELECT user_id, realm_id, access_token, refresh_token, access_expires_at, created_at, updated_at
		FROM provider_connections
		WHERE user_id = $1
	`

	var conn domain.ProviderConnection
	var sealedRefresh string
	var accessExpiresAt *time.Time
	err := r.Pool.QueryRow(ctx, query, userID).Scan(
		&conn.UserID,
		&conn.RealmID,
		&conn.AccessToken,
		&sealedRefresh,
		&accessExpiresAt,
		&conn.AuditFields.CreatedAt,
		&conn.AuditFields.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error querying provider connection: %w", err)
	}

	if accessExpiresAt != nil {
		conn.AccessExpiresAt = *accessExpiresAt
	}

	conn.RefreshToken, err = r.sealBox.Open(sealedRefresh)
	if err != nil {
		return nil, fmt.Errorf("error unsealing refresh token: %w", err)
	}

	return &conn, nil
}

func (r *connectionRepository) Save(ctx context.Context, conn domain.ProviderConnection) error {
	sealedRefresh, err := r.sealBox.Seal(conn.RefreshToken)
	if err != nil {
		return fmt.Errorf("error sealing refresh token: %w", err)
	}

	// Last writer wins: concurrent refreshes for the same (user, realm) are
	// tolerated because the provider accepts the latest valid refresh token.
	query := `
		INSERT INTO provider_connections (user_id, realm_id, access_token, refresh_token, access_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (user_id, realm_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			access_expires_at = EXCLUDED.access_expires_at,
			updated_at = NOW()
	`

	var accessExpiresAt *time.Time
	if !conn.AccessExpiresAt.IsZero() {
		accessExpiresAt = &conn.AccessExpiresAt
	}

	if _, err := r.Pool.Exec(ctx, query, conn.UserID, conn.RealmID, conn.AccessToken, sealedRefresh, accessExpiresAt); err != nil {
		return fmt.Errorf("error saving provider connection: %w", err)
	}
	return nil
}

func (r *connectionRepository) Delete(ctx context.Context, userID string, realmID string) error {
	query := `DELETE FROM provider_connections WHERE user_id = $1 AND realm_id = $2`
	if _, err := r.Pool.Exec(ctx, query, userID, realmID); err != nil {
		return fmt.Errorf("error deleting provider connection: %w", err)
	}
	return nil
}
