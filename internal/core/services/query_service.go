package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/finlens/finlens_backend/internal/adapters/llm"
	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portsrepo "github.com/finlens/finlens_backend/internal/core/ports/repositories"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/platform/config"
)

// queryService implements the QuerySvcFacade interface
type queryService struct {
	BaseService
	connSvc      portssvc.ConnectionSvcFacade
	llm          llm.Client
	planner      *queryPlanner
	snapshotRepo portsrepo.SnapshotRepository
	auditRepo    portsrepo.AnswerAuditRepository
	now          func() time.Time
}

// QueryServiceOption is a functional option for configuring the query service
type QueryServiceOption func(*queryService)

// WithQueryClock overrides the service clock (tests).
func WithQueryClock(now func() time.Time) QueryServiceOption {
	return func(s *queryService) {
		s.now = now
	}
}

// NewQueryService creates the natural-language query service.
func NewQueryService(cfg *config.Config, connSvc portssvc.ConnectionSvcFacade, llmClient llm.Client, snapshotRepo portsrepo.SnapshotRepository, auditRepo portsrepo.AnswerAuditRepository, options ...QueryServiceOption) portssvc.QuerySvcFacade {
	svc := &queryService{
		connSvc:      connSvc,
		llm:          llmClient,
		snapshotRepo: snapshotRepo,
		auditRepo:    auditRepo,
		now:          time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	bounds := plannerBounds{
		rowLimit:          cfg.QueryRowLimit,
		coverageThreshold: cfg.EmbeddingCoverageThreshold,
		semanticTopK:      cfg.SemanticTopK,
		lookbackYears:     cfg.SemanticLookbackYears,
	}
	svc.planner = newQueryPlanner(llmClient, snapshotRepo, bounds, svc.now)
	return svc
}

// Ensure queryService implements the QuerySvcFacade interface
var _ portssvc.QuerySvcFacade = (*queryService)(nil)

const answerSystemPrompt = `You are a bookkeeping assistant. Answer the user's question using only the monthly financial summaries provided. Amounts are in the business's home currency. Be concise and concrete; cite the months you used. If the summaries cannot answer the question, say so plainly.`

const noDataAnswer = "I don't have any financial data synced for your business yet. Connect your accounting provider and run a sync, then ask me again."

const notConnectedAnswer = "Your accounting provider is not connected."

// Answer resolves the question and returns the fully assembled answer.
func (s *queryService) Answer(ctx context.Context, question domain.Question) (*domain.QueryAnswer, error) {
	prepared, err := s.prepare(ctx, question)
	if err != nil {
		// A user without a linked provider is a normal state, answered in
		// plain language rather than surfacing as a failure.
		if errors.Is(err, apperrors.ErrNotConnected) {
			return &domain.QueryAnswer{Response: notConnectedAnswer, Months: []string{}}, nil
		}
		return nil, err
	}
	if prepared.noData {
		return &domain.QueryAnswer{Response: noDataAnswer, Months: []string{}}, nil
	}

	response, usage, err := s.llm.Chat(ctx, prepared.messages)
	if err != nil {
		return nil, fmt.Errorf("%w: answer generation failed: %v", apperrors.ErrUpstreamTransient, err)
	}

	answer := &domain.QueryAnswer{
		Response:     response,
		RowsReturned: len(prepared.rows),
		Months:       prepared.months,
		TokensIn:     usage.PromptTokens,
		TokensOut:    usage.CompletionTokens,
		Coverage:     prepared.coverage,
	}
	s.audit(ctx, prepared.question, answer.Response, answer.Months, usage)
	return answer, nil
}

// StreamAnswer resolves the question and forwards incremental fragments to
// sink. Exactly one done event terminates the stream; failures after
// streaming begins arrive as in-band error events first.
func (s *queryService) StreamAnswer(ctx context.Context, question domain.Question, sink portssvc.AnswerSink) {
	var months []string
	done := func() {
		_ = sink(domain.StreamEvent{Type: domain.StreamEventDone, Months: months})
	}

	prepared, err := s.prepare(ctx, question)
	if err != nil {
		message := "Something went wrong answering your question."
		if errors.Is(err, apperrors.ErrNotConnected) {
			message = notConnectedAnswer
		}
		_ = sink(domain.StreamEvent{Type: domain.StreamEventError, Message: message})
		done()
		return
	}
	months = prepared.months

	if prepared.noData {
		_ = sink(domain.StreamEvent{Type: domain.StreamEventToken, Content: noDataAnswer})
		done()
		return
	}

	response, usage, err := s.llm.StreamChat(ctx, prepared.messages, func(delta string) error {
		return sink(domain.StreamEvent{Type: domain.StreamEventToken, Content: delta})
	})
	if err != nil {
		s.LogError(ctx, err, "Streaming answer generation failed")
		_ = sink(domain.StreamEvent{Type: domain.StreamEventError, Message: "Answer generation failed, please try again."})
		done()
		return
	}

	done()
	s.audit(ctx, prepared.question, response, months, usage)
}

// preparedQuestion is everything resolved before answer generation starts.
type preparedQuestion struct {
	question domain.Question
	rows     []domain.MonthlySnapshot
	months   []string
	messages []llm.Message
	coverage float64
	noData   bool
}

// prepare scopes the question to the caller's realm, resolves snapshot rows
// through the planner chain and assembles the model conversation.
func (s *queryService) prepare(ctx context.Context, question domain.Question) (*preparedQuestion, error) {
	if question.RealmID == "" {
		conn, err := s.connSvc.Status(ctx, question.UserID)
		if err != nil {
			return nil, err
		}
		question.RealmID = conn.RealmID
	}
	if question.AskedAt.IsZero() {
		question.AskedAt = s.now()
	}

	rows := s.planner.resolve(ctx, question)
	if len(rows) == 0 {
		return &preparedQuestion{question: question, months: []string{}, noData: true}, nil
	}

	months := make([]string, 0, len(rows))
	var contextBlock string
	for _, row := range rows {
		months = append(months, row.MonthLabel())
		contextBlock += EmbeddingText(row) + "\n"
	}

	coverage, err := s.snapshotRepo.EmbeddingCoverage(ctx, question.RealmID)
	if err != nil {
		s.LogDebug(ctx, "Embedding coverage unavailable", slog.String("error", err.Error()))
		coverage = 0
	}

	messages := []llm.Message{
		{Role: "system", Content: answerSystemPrompt},
		{Role: "user", Content: fmt.Sprintf("Monthly summaries:\n%s\nQuestion: %s", contextBlock, question.Text)},
	}
	return &preparedQuestion{
		question: question,
		rows:     rows,
		months:   months,
		messages: messages,
		coverage: coverage,
	}, nil
}

// audit records the answered question. Audit writes never gate responses;
// failures are logged and swallowed.
func (s *queryService) audit(ctx context.Context, question domain.Question, answer string, months []string, usage llm.Usage) {
	record := domain.AnswerAudit{
		RealmID:   question.RealmID,
		UserID:    question.UserID,
		Question:  question.Text,
		Answer:    answer,
		Months:    months,
		TokensIn:  usage.PromptTokens,
		TokensOut: usage.CompletionTokens,
	}
	if err := s.auditRepo.Save(ctx, record); err != nil {
		s.LogWarn(ctx, "Failed to write answer audit record", slog.String("error", err.Error()))
	}
}
