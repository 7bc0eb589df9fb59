package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlens/finlens_backend/internal/adapters/books"
	"github.com/finlens/finlens_backend/internal/adapters/llm"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/utils/reporttree"
)

// snapshotService implements the SnapshotSvcFacade interface
type snapshotService struct {
	BaseService
	connSvc      portssvc.ConnectionSvcFacade
	books        books.Client
	llm          llm.Client
	snapshotRepo portsrepo.SnapshotRepository
	now          func() time.Time
}

// SnapshotServiceOption is a functional option for configuring the snapshot service
type SnapshotServiceOption func(*snapshotService)

// WithSnapshotClock overrides the service clock (tests).
func WithSnapshotClock(now func() time.Time) SnapshotServiceOption {
	return func(s *snapshotService) {
		s.now = now
	}
}

// NewSnapshotService creates the monthly-snapshot maintenance service.
func NewSnapshotService(connSvc portssvc.ConnectionSvcFacade, booksClient books.Client, llmClient llm.Client, snapshotRepo portsrepo.SnapshotRepository, options ...SnapshotServiceOption) portssvc.SnapshotSvcFacade {
	svc := &snapshotService{
		connSvc:      connSvc,
		books:        booksClient,
		llm:          llmClient,
		snapshotRepo: snapshotRepo,
		now:          time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure snapshotService implements the SnapshotSvcFacade interface
var _ portssvc.SnapshotSvcFacade = (*snapshotService)(nil)

// SyncYear fetches one report per elapsed calendar month of the given year
// and upserts snapshot rows. A month that fails to fetch or persist is
// skipped; the labels of successfully synced months come back in calendar order.
func (s *snapshotService) SyncYear(ctx context.Context, userID string, year int) ([]string, error) {
	accessToken, realmID, err := s.connSvc.EnsureValidAccessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now()
	lastMonth := 12
	if year > today.Year() {
		return []string{}, nil
	}
	if year == today.Year() {
		lastMonth = int(today.Month())
	}

	synced := make([]string, 0, lastMonth)
	for m := 1; m <= lastMonth; m++ {
		start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)

		report, err := s.books.ProfitAndLoss(ctx, accessToken, realmID, start, end)
		if err != nil {
			s.LogWarn(ctx, "Skipping month during snapshot sync",
				slog.Int("year", year), slog.Int("month", m), slog.String("error", err.Error()))
			continue
		}

		snapshot := domain.MonthlySnapshot{
			RealmID: realmID,
			Year:    year,
			Month:   m,
			Data:    buildSnapshotData(report),
		}
		if err := s.snapshotRepo.Upsert(ctx, snapshot); err != nil {
			s.LogError(ctx, err, "Failed to persist monthly snapshot",
				slog.Int("year", year), slog.Int("month", m))
			continue
		}
		synced = append(synced, snapshot.MonthLabel())
	}

	s.LogInfo(ctx, "Snapshot sync finished",
		slog.Int("year", year), slog.Int("synced", len(synced)))
	return synced, nil
}

// BackfillEmbeddings embeds up to limit snapshots missing an embedding.
func (s *snapshotService) BackfillEmbeddings(ctx context.Context, userID string, limit int) (int, error) {
	_, realmID, err := s.connSvc.EnsureValidAccessToken(ctx, userID)
	if err != nil {
		return 0, err
	}

	pending, err := s.snapshotRepo.ListMissingEmbeddings(ctx, realmID, limit)
	if err != nil {
		return 0, err
	}

	embedded := 0
	for _, snapshot := range pending {
		text := EmbeddingText(snapshot)
		vector, err := s.llm.Embed(ctx, text)
		if err != nil {
			s.LogWarn(ctx, "Failed to embed snapshot",
				slog.String("month", snapshot.MonthLabel()), slog.String("error", err.Error()))
			continue
		}
		if err := s.snapshotRepo.SaveEmbedding(ctx, realmID, snapshot.Year, snapshot.Month, vector); err != nil {
			s.LogError(ctx, err, "Failed to save snapshot embedding",
				slog.String("month", snapshot.MonthLabel()))
			continue
		}
		embedded++
	}
	return embedded, nil
}

// buildSnapshotData flattens one P&L report into the stored snapshot shape:
// top-line figures plus a per-account expense map, all amounts as strings so
// no precision is lost in the jsonb round trip.
func buildSnapshotData(report *domain.Report) map[string]any {
	top := reporttree.ExtractTopLine(report)
	breakdown := reporttree.AggregateExpenses(report)

	expenses := make(map[string]any, len(breakdown.Accounts))
	for _, account := range breakdown.Accounts {
		expenses[account.Name] = account.Amount.String()
	}

	return map[string]any{
		"revenue":        top.Revenue.String(),
		"expenses_total": top.Expenses().String(),
		"net_income":     top.NetIncome.String(),
		"expenses":       expenses,
	}
}

// EmbeddingText renders one snapshot as compact prose for the embedding
// model. The month label leads so temporal questions anchor correctly.
func EmbeddingText(snapshot domain.MonthlySnapshot) string {
	data, err := json.Marshal(snapshot.Data)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("Financial summary for %s: %s", snapshot.MonthLabel(), data)
}
