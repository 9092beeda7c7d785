package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
)

// ItemPage is one page of a listing endpoint.
type ItemPage struct {
	Items      []domain.Item
	NextCursor string
	HasMore    bool
}

// CommentPage is one page of an item's comment thread.
type CommentPage struct {
	Comments   []domain.Comment
	NextCursor string
	HasMore    bool
}

// Client is a thin typed client over the external content API. It issues
// single HTTP calls and maps provider failures to *Error; it never retries
// or paginates on its own.
type Client interface {
	ListItems(ctx context.Context, query domain.Query, cursor string) (*ItemPage, error)
	ListComments(ctx context.Context, itemID string, cursor string) (*CommentPage, error)
}

// Error is a typed provider failure carrying the endpoint and HTTP status,
// so callers can tell rate limiting apart from other failures.
type Error struct {
	Endpoint   string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s: %s (status %d)", e.Endpoint, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("provider %s: %s", e.Endpoint, e.Message)
}

// IsRateLimited reports whether err is a provider 429.
func IsRateLimited(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.StatusCode == http.StatusTooManyRequests
}
