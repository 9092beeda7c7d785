package llm

import (
	"context"
	"errors"
)

var (
	// ErrSchemaMismatch means the model answered but not in the requested
	// findings shape.
	ErrSchemaMismatch = errors.New("llm: response does not match findings schema")
	// ErrEmptyResponse means the model returned no candidates at all.
	ErrEmptyResponse = errors.New("llm: empty response from model")
)

// CandidateFinding is the structured output requested from the model for
// one extracted insight. Source linkage (which caption or comment the quote
// came from) is reconciled afterwards by the dispatcher — the model cannot
// know record ids.
type CandidateFinding struct {
	Quote          string  `json:"quote"`
	Sentiment      string  `json:"sentiment"`
	Theme          string  `json:"theme"`
	PurchaseIntent string  `json:"purchase_intent"`
	Confidence     float64 `json:"confidence"`
}

// Request is one extraction call.
type Request struct {
	Model        string // empty means the client's default
	SystemPrompt string
	UserPrompt   string
}

// Client produces structured findings for a prompt. Implementations request
// schema-conforming output from the backing model and surface conformance
// failures as ErrSchemaMismatch-wrapped errors, never a crash.
type Client interface {
	ExtractFindings(ctx context.Context, req Request) ([]CandidateFinding, error)
}
