package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/finlens/finlens_backend/internal/adapters/llm"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
)

// plannerBounds are the hard limits every resolution strategy honors.
type plannerBounds struct {
	rowLimit          int
	coverageThreshold float64
	semanticTopK      int
	lookbackYears     int
}

// resolutionStrategy is one way of turning a question into snapshot rows.
// A strategy returns (nil, nil) to pass the question to the next strategy;
// a non-empty result ends the chain.
type resolutionStrategy interface {
	name() string
	tryResolve(ctx context.Context, question domain.Question) ([]domain.MonthlySnapshot, error)
}

// queryPlanner runs the ordered strategy chain. The final strategy always
// yields whatever rows exist, so the chain never fails outright on an empty
// intermediate result.
type queryPlanner struct {
	BaseService
	strategies []resolutionStrategy
}

func newQueryPlanner(llmClient llm.Client, snapshotRepo portsrepo.SnapshotRepository, bounds plannerBounds, now func() time.Time) *queryPlanner {
	return &queryPlanner{
		strategies: []resolutionStrategy{
			&generatedSelectionStrategy{llm: llmClient, snapshotRepo: snapshotRepo, rowLimit: bounds.rowLimit},
			&currentMonthStrategy{snapshotRepo: snapshotRepo, now: now},
			&semanticStrategy{llm: llmClient, snapshotRepo: snapshotRepo, bounds: bounds, now: now},
			&recentMonthsStrategy{snapshotRepo: snapshotRepo},
		},
	}
}

// resolve walks the chain until a strategy yields rows. Strategy errors are
// logged and treated as a pass; only the exhausted chain's empty result
// reaches the caller.
func (p *queryPlanner) resolve(ctx context.Context, question domain.Question) []domain.MonthlySnapshot {
	for _, strategy := range p.strategies {
		rows, err := strategy.tryResolve(ctx, question)
		if err != nil {
			p.LogWarn(ctx, "Query resolution strategy failed, falling through",
				slog.String("strategy", strategy.name()), slog.String("error", err.Error()))
			continue
		}
		if len(rows) > 0 {
			p.LogDebug(ctx, "Query resolved",
				slog.String("strategy", strategy.name()), slog.Int("rows", len(rows)))
			return rows
		}
	}
	return nil
}

// generatedSelectionStrategy asks the model to write a SELECT over the
// snapshot table, then validates it structurally before execution. A
// statement failing any check is discarded, never repaired.
type generatedSelectionStrategy struct {
	llm          llm.Client
	snapshotRepo portsrepo.SnapshotRepository
	rowLimit     int
}

func (s *generatedSelectionStrategy) name() string { return "generated_selection" }

const selectionPrompt = `You translate financial questions into a single PostgreSQL SELECT statement over this table:

  financial_snapshots(realm_id text, year int, month int, data jsonb, created_at timestamptz, updated_at timestamptz)

Rules:
- SELECT realm_id, year, month, data, created_at, updated_at only.
- Always filter realm_id = '%s'.
- Always end with LIMIT %d or lower.
- One statement, no comments, no CTEs, no semicolons.
- If the question has no temporal hint you cannot express, reply exactly: NONE

Question: %s`

func (s *generatedSelectionStrategy) tryResolve(ctx context.Context, question domain.Question) ([]domain.MonthlySnapshot, error) {
	prompt := fmt.Sprintf(selectionPrompt, question.RealmID, s.rowLimit, question.Text)
	response, _, err := s.llm.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return nil, err
	}

	query := strings.TrimSpace(stripCodeFence(response))
	if strings.EqualFold(query, "NONE") {
		return nil, nil
	}
	if err := validateGeneratedSelection(query, question.RealmID, s.rowLimit); err != nil {
		return nil, fmt.Errorf("generated statement rejected: %w", err)
	}
	return s.snapshotRepo.RunPlannedSelection(ctx, query, s.rowLimit)
}

var (
	limitPattern    = regexp.MustCompile(`(?i)\blimit\s+(\d+)\s*$`)
	mutationPattern = regexp.MustCompile(`\b(insert|update|delete|drop|alter|truncate|grant|create)\b`)
)

// validateGeneratedSelection enforces the structural contract on a generated
// statement: single read-only SELECT over the snapshot table, scoped to the
// caller's realm, with an explicit bounded LIMIT.
func validateGeneratedSelection(query, realmID string, rowLimit int) error {
	lowered := strings.ToLower(query)

	if !strings.HasPrefix(lowered, "select ") {
		return fmt.Errorf("not a SELECT statement")
	}
	if strings.Contains(query, ";") {
		return fmt.Errorf("multiple statements")
	}
	if match := mutationPattern.FindString(lowered); match != "" {
		return fmt.Errorf("forbidden keyword %q", match)
	}
	if !strings.Contains(lowered, "financial_snapshots") {
		return fmt.Errorf("does not read the snapshot table")
	}
	if !strings.Contains(query, "'"+realmID+"'") {
		return fmt.Errorf("missing realm scope")
	}

	match := limitPattern.FindStringSubmatch(query)
	if match == nil {
		return fmt.Errorf("missing LIMIT clause")
	}
	limit, err := strconv.Atoi(match[1])
	if err != nil || limit < 1 || limit > rowLimit {
		return fmt.Errorf("LIMIT out of bounds")
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its answer in one.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```sql")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// currentMonthStrategy fetches the calendar month the question was asked in.
type currentMonthStrategy struct {
	snapshotRepo portsrepo.SnapshotRepository
	now          func() time.Time
}

func (s *currentMonthStrategy) name() string { return "current_month" }

func (s *currentMonthStrategy) tryResolve(ctx context.Context, question domain.Question) ([]domain.MonthlySnapshot, error) {
	today := s.now()
	selection := domain.SnapshotSelection{
		RealmID:   question.RealmID,
		FromYear:  today.Year(),
		FromMonth: int(today.Month()),
		ToYear:    today.Year(),
		ToMonth:   int(today.Month()),
		Limit:     1,
	}
	return s.snapshotRepo.SelectRange(ctx, selection)
}

// semanticStrategy ranks embedded snapshots by cosine similarity to the
// question. It only runs when enough of the realm's snapshots carry a
// precomputed embedding; below the threshold the ranking would be skewed
// toward whichever months happen to be embedded.
type semanticStrategy struct {
	llm          llm.Client
	snapshotRepo portsrepo.SnapshotRepository
	bounds       plannerBounds
	now          func() time.Time
}

func (s *semanticStrategy) name() string { return "semantic" }

func (s *semanticStrategy) tryResolve(ctx context.Context, question domain.Question) ([]domain.MonthlySnapshot, error) {
	coverage, err := s.snapshotRepo.EmbeddingCoverage(ctx, question.RealmID)
	if err != nil {
		return nil, err
	}
	if coverage < s.bounds.coverageThreshold {
		return nil, nil
	}

	queryVector, err := s.llm.Embed(ctx, question.Text)
	if err != nil {
		return nil, err
	}

	fromYear := s.now().Year() - s.bounds.lookbackYears
	candidates, err := s.snapshotRepo.ListEmbedded(ctx, question.RealmID, fromYear)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	type scored struct {
		snapshot   domain.MonthlySnapshot
		similarity float64
	}
	ranked := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, scored{
			snapshot:   candidate,
			similarity: cosineSimilarity(queryVector, candidate.Embedding),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	topK := s.bounds.semanticTopK
	if topK > len(ranked) {
		topK = len(ranked)
	}
	selected := make([]domain.MonthlySnapshot, 0, topK)
	for _, entry := range ranked[:topK] {
		selected = append(selected, entry.snapshot)
	}
	// Back to chronological order so the answer model sees a timeline.
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Year != selected[j].Year {
			return selected[i].Year < selected[j].Year
		}
		return selected[i].Month < selected[j].Month
	})
	return selected, nil
}

// recentMonthsStrategy is the terminal fallback: the realm's three most
// recent snapshot months, however few exist.
type recentMonthsStrategy struct {
	snapshotRepo portsrepo.SnapshotRepository
}

func (s *recentMonthsStrategy) name() string { return "recent_months" }

func (s *recentMonthsStrategy) tryResolve(ctx context.Context, question domain.Question) ([]domain.MonthlySnapshot, error) {
	return s.snapshotRepo.LastMonths(ctx, question.RealmID, 3)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-magnitude vectors score zero.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
