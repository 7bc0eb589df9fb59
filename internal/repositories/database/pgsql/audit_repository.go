package pgsql

import (
	"context"
	"fmt"

	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// answerAuditRepository implements the AnswerAuditRepository interface
type answerAuditRepository struct {
	BaseRepository
}

func newAnswerAuditRepository(db *pgxpool.Pool) portsrepo.AnswerAuditRepository {
	return &answerAuditRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func (r *answerAuditRepository) Save(ctx context.Context, audit domain.AnswerAudit) error {
	query := `
		INSERT INTO query_audit_log (id, realm_id, user_id, question, answer, months, tokens_in, tokens_out, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`
	_, err := r.Pool.Exec(ctx, query,
		uuid.NewString(),
		audit.RealmID,
		audit.UserID,
		audit.Question,
		audit.Answer,
		audit.Months,
		audit.TokensIn,
		audit.TokensOut,
	)
	if err != nil {
		return fmt.Errorf("error saving answer audit: %w", err)
	}
	return nil
}
