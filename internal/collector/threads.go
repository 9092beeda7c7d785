package collector

import (
	"context"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/internal/ratelimit"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

// ThreadCollector fetches comment threads for a batch of items. Items are
// processed sequentially because the provider's rate limit is shared across
// the whole request; one item's failure never aborts the rest of the batch.
type ThreadCollector struct {
	provider    provider.Client
	pacer       *ratelimit.Pacer
	logger      logger.Logger
	maxAttempts int
}

func NewThreadCollector(p provider.Client, pacer *ratelimit.Pacer, log logger.Logger, maxAttempts int) *ThreadCollector {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &ThreadCollector{provider: p, pacer: pacer, logger: log, maxAttempts: maxAttempts}
}

// CollectAll returns a comment list per item id (possibly empty, never
// missing) and the total number of comment API calls made. It stops early
// only on context cancellation.
func (c *ThreadCollector) CollectAll(ctx context.Context, items []domain.Item, maxPerItem int) (map[string][]domain.Comment, int) {
	commentsByItem := make(map[string][]domain.Comment, len(items))
	totalCalls := 0

	for i, item := range items {
		if ctx.Err() != nil {
			// still guarantee a slot for every remaining item
			commentsByItem[item.ID] = nil
			continue
		}

		comments, calls := c.collectThread(ctx, item.ID, maxPerItem)
		commentsByItem[item.ID] = comments
		totalCalls += calls

		c.logger.Debug("Thread collected",
			"item", item.ID, "position", i+1, "of", len(items), "comments", len(comments))
	}

	c.logger.Info("Thread collection finished", "items", len(items), "calls", totalCalls)
	return commentsByItem, totalCalls
}

// collectThread paginates one item's comments up to maxPerItem. A page
// failure ends this item's pagination and keeps what was already fetched.
func (c *ThreadCollector) collectThread(ctx context.Context, itemID string, maxPerItem int) ([]domain.Comment, int) {
	var comments []domain.Comment
	cursor := ""
	calls := 0

	for attempt := 0; attempt < c.maxAttempts && len(comments) < maxPerItem; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return comments, calls
		}

		page, err := c.provider.ListComments(ctx, itemID, cursor)
		calls++
		if err != nil {
			c.logger.Warn("Comment page failed, keeping partial thread",
				"item", itemID, "call", calls, "collected", len(comments), "error", err)
			return comments, calls
		}

		if len(page.Comments) == 0 {
			break
		}

		for _, comment := range page.Comments {
			if len(comments) >= maxPerItem {
				break
			}
			comments = append(comments, comment)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return comments, calls
}
