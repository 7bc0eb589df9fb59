package domain

import "time"

// SnapshotSelection is a validated, bounded selection over monthly snapshots.
// Every selection is scoped to one realm and carries a row limit.
type SnapshotSelection struct {
	RealmID   string
	FromYear  int
	FromMonth int
	ToYear    int
	ToMonth   int
	Limit     int
}

// Question is one natural-language financial question in flight.
type Question struct {
	RealmID string
	UserID  string
	Text    string
	AskedAt time.Time
}

// QueryAnswer is the assembled result of answering a question.
type QueryAnswer struct {
	Response     string   `json:"response"`
	RowsReturned int      `json:"rows_returned"`
	Months       []string `json:"months"`
	TokensIn     int      `json:"tokens_in"`
	TokensOut    int      `json:"tokens_out"`
	Coverage     float64  `json:"coverage"`
}

// Stream event types emitted while answering a question. Exactly one done
// event terminates every stream, on success and failure alike.
const (
	StreamEventToken = "token"
	StreamEventError = "error"
	StreamEventDone  = "done"
)

// StreamEvent is one wire event of a streaming answer.
type StreamEvent struct {
	Type    string   `json:"type"`
	Content string   `json:"content,omitempty"`
	Message string   `json:"message,omitempty"`
	Months  []string `json:"months,omitempty"`
}

// AnswerAudit is the best-effort record written after a stream closes.
type AnswerAudit struct {
	RealmID   string
	UserID    string
	Question  string
	Answer    string
	Months    []string
	TokensIn  int
	TokensOut int
}
