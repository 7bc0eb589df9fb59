package repositories

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// SnapshotRepository defines operations over the monthly financial snapshots
// that natural-language queries run against.
type SnapshotRepository interface {
	// Upsert writes one snapshot row keyed by (realm, year, month).
	Upsert(ctx context.Context, snapshot domain.MonthlySnapshot) error

	// SelectRange retrieves snapshots inside a validated, bounded selection,
	// ordered chronologically.
	SelectRange(ctx context.Context, selection domain.SnapshotSelection) ([]domain.MonthlySnapshot, error)

	// RunPlannedSelection executes an already-validated generated selection
	// against the snapshot table. The limit is enforced again server-side.
	RunPlannedSelection(ctx context.Context, query string, limit int) ([]domain.MonthlySnapshot, error)

	// LastMonths retrieves the most recent n snapshot months for a realm,
	// ordered chronologically.
	LastMonths(ctx context.Context, realmID string, n int) ([]domain.MonthlySnapshot, error)

	// EmbeddingCoverage returns the fraction of a realm's snapshots carrying
	// a precomputed embedding, zero when the realm has no snapshots.
	EmbeddingCoverage(ctx context.Context, realmID string) (float64, error)

	// ListEmbedded retrieves a realm's embedded snapshots from fromYear onward.
	ListEmbedded(ctx context.Context, realmID string, fromYear int) ([]domain.MonthlySnapshot, error)

	// ListMissingEmbeddings retrieves up to limit snapshots without embeddings.
	ListMissingEmbeddings(ctx context.Context, realmID string, limit int) ([]domain.MonthlySnapshot, error)

	// SaveEmbedding stores the precomputed embedding for one snapshot.
	SaveEmbedding(ctx context.Context, realmID string, year, month int, embedding []float64) error
}
