package pgsql

import (
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	"github.com/finlens/finlens_backend/internal/utils"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires all pgsql repositories against one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool, sealBox *utils.SealBox) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ConnectionRepo:  newConnectionRepository(dbPool, sealBox),
		SnapshotRepo:    newSnapshotRepository(dbPool),
		AnswerAuditRepo: newAnswerAuditRepository(dbPool),
	}
}
