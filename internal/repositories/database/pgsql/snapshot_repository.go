package pgsql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// snapshotRepository implements the SnapshotRepository interface
type snapshotRepository struct {
	BaseRepository
}

func newSnapshotRepository(db *pgxpool.Pool) portsrepo.SnapshotRepository {
	return &snapshotRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func (r *snapshotRepository) Upsert(ctx context.Context, snapshot domain.MonthlySnapshot) error {
	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		return fmt.Errorf("error encoding snapshot data: %w", err)
	}

	query := `
		INSERT INTO financial_snapshots (realm_id, year, month, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (realm_id, year, month) DO UPDATE SET
			data = EXCLUDED.data,
			embedding = NULL,
			updated_at = NOW()
	`
	if _, err := r.Pool.Exec(ctx, query, snapshot.RealmID, snapshot.Year, snapshot.Month, data); err != nil {
		return fmt.Errorf("error upserting snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) SelectRange(ctx context.Context, selection domain.SnapshotSelection) ([]domain.MonthlySnapshot, error) {
	query := `
		SELECT realm_id, year, month, data
		FROM financial_snapshots
		WHERE realm_id = $1
			AND (year * 100 + month) >= $2
			AND (year * 100 + month) <= $3
		ORDER BY year, month
		LIMIT $4
	`
	from := selection.FromYear*100 + selection.FromMonth
	to := selection.ToYear*100 + selection.ToMonth

	rows, err := r.Pool.Query(ctx, query, selection.RealmID, from, to, selection.Limit)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshot range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// RunPlannedSelection executes a generated selection that has already passed
// structural validation. The limit is enforced again here regardless of the
// LIMIT clause carried by the query text.
func (r *snapshotRepository) RunPlannedSelection(ctx context.Context, query string, limit int) ([]domain.MonthlySnapshot, error) {
	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing planned selection: %w", err)
	}
	defer rows.Close()

	snapshots, err := scanSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(snapshots) > limit {
		snapshots = snapshots[:limit]
	}
	return snapshots, nil
}

func (r *snapshotRepository) LastMonths(ctx context.Context, realmID string, n int) ([]domain.MonthlySnapshot, error) {
	query := `
		SELECT realm_id, year, month, data
		FROM (
			SELECT realm_id, year, month, data
			FROM financial_snapshots
			WHERE realm_id = $1
			ORDER BY year DESC, month DESC
			LIMIT $2
		) recent
		ORDER BY year, month
	`
	rows, err := r.Pool.Query(ctx, query, realmID, n)
	if err != nil {
		return nil, fmt.Errorf("error querying recent snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) EmbeddingCoverage(ctx context.Context, realmID string) (float64, error) {
	query := `
		SELECT COALESCE(AVG((embedding IS NOT NULL)::int), 0)::float8
		FROM financial_snapshots
		WHERE realm_id = $1
	`
	var coverage float64
	if err := r.Pool.QueryRow(ctx, query, realmID).Scan(&coverage); err != nil {
		return 0, fmt.Errorf("error querying embedding coverage: %w", err)
	}
	return coverage, nil
}

func (r *snapshotRepository) ListEmbedded(ctx context.Context, realmID string, fromYear int) ([]domain.MonthlySnapshot, error) {
	query := `
		SELECT realm_id, year, month, data, embedding
		FROM financial_snapshots
		WHERE realm_id = $1
			AND year >= $2
			AND embedding IS NOT NULL
		ORDER BY year, month
	`
	rows, err := r.Pool.Query(ctx, query, realmID, fromYear)
	if err != nil {
		return nil, fmt.Errorf("error querying embedded snapshots: %w", err)
	}
	defer rows.Close()

	var result []domain.MonthlySnapshot
	for rows.Next() {
		var snap domain.MonthlySnapshot
		var data []byte
		if err := rows.Scan(&snap.RealmID, &snap.Year, &snap.Month, &data, &snap.Embedding); err != nil {
			return nil, fmt.Errorf("error scanning embedded snapshot: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Data); err != nil {
			return nil, fmt.Errorf("error decoding snapshot data: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating embedded snapshots: %w", err)
	}
	return result, nil
}

func (r *snapshotRepository) ListMissingEmbeddings(ctx context.Context, realmID string, limit int) ([]domain.MonthlySnapshot, error) {
	query := `
		SELECT realm_id, year, month, data
		FROM financial_snapshots
		WHERE realm_id = $1 AND embedding IS NULL
		ORDER BY year, month
		LIMIT $2
	`
	rows, err := r.Pool.Query(ctx, query, realmID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots missing embeddings: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

func (r *snapshotRepository) SaveEmbedding(ctx context.Context, realmID string, year, month int, embedding []float64) error {
	query := `
		UPDATE financial_snapshots
		SET embedding = $4, updated_at = NOW()
		WHERE realm_id = $1 AND year = $2 AND month = $3
	`
	if _, err := r.Pool.Exec(ctx, query, realmID, year, month, embedding); err != nil {
		return fmt.Errorf("error saving snapshot embedding: %w", err)
	}
	return nil
}

// scanSnapshots reads (realm_id, year, month, data) rows.
func scanSnapshots(rows pgx.Rows) ([]domain.MonthlySnapshot, error) {
	var result []domain.MonthlySnapshot
	for rows.Next() {
		var snap domain.MonthlySnapshot
		var data []byte
		if err := rows.Scan(&snap.RealmID, &snap.Year, &snap.Month, &data); err != nil {
			return nil, fmt.Errorf("error scanning snapshot row: %w", err)
		}
		if err := json.Unmarshal(data, &snap.Data); err != nil {
			return nil, fmt.Errorf("error decoding snapshot data: %w", err)
		}
		result = append(result, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	if len(result) == 0 {
		// Return empty slice instead of nil
		return []domain.MonthlySnapshot{}, nil
	}
	return result, nil
}
