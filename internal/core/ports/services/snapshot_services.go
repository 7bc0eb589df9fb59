package services

import "context"

// SnapshotSvcFacade maintains the monthly-snapshot substrate: syncing months
// from the provider and backfilling semantic embeddings.
type SnapshotSvcFacade interface {
	// SyncYear fetches one report per elapsed calendar month of the given
	// year and upserts snapshot rows. A month that fails to fetch is skipped;
	// the labels of successfully synced months are returned in calendar order.
	SyncYear(ctx context.Context, userID string, year int) ([]string, error)

	// BackfillEmbeddings embeds up to limit snapshots that are missing an
	// embedding and returns the number embedded.
	BackfillEmbeddings(ctx context.Context, userID string, limit int) (int, error)
}
