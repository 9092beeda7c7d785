package pipeline

import (
	"context"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
)

// Request is one analysis run: what to collect and how to analyze it.
// Zero counts mean "use the configured defaults".
type Request struct {
	Query           domain.Query
	ItemCount       int
	CommentsPerItem int
	Instructions    string // analysis goal passed to the model
	Model           string // empty means the configured default
	MaxQuoteLength  int
}

// Service runs the full collect → normalize → analyze → aggregate pipeline
// for one request and returns the report. Partial upstream data degrades the
// report; it fails only when nothing at all could be collected or the run
// was invalid.
type Service interface {
	Run(ctx context.Context, req Request) (*domain.Report, error)
}
