package repositories

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// AnswerAuditRepository persists the best-effort audit trail of answered
// questions. Writers must tolerate failures; audit writes never gate responses.
type AnswerAuditRepository interface {
	Save(ctx context.Context, audit domain.AnswerAudit) error
}
