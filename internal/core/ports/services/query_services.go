package services

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
)

// AnswerSink receives one wire event of a streaming answer. A non-nil return
// tells the emitter the transport rejected the event (client gone).
type AnswerSink func(domain.StreamEvent) error

// QuerySvcFacade answers natural-language financial questions over the
// monthly-snapshot store.
type QuerySvcFacade interface {
	// Answer resolves the question and returns the fully assembled answer.
	Answer(ctx context.Context, question domain.Question) (*domain.QueryAnswer, error)

	// StreamAnswer resolves the question and forwards incremental answer
	// fragments to sink. The sink receives exactly one terminal done event
	// per call, on success and failure alike; failures after streaming has
	// begun arrive as in-band error events, never as an abrupt close.
	StreamAnswer(ctx context.Context, question domain.Question, sink AnswerSink)
}
