// Package collector walks the provider's paginated endpoints on behalf of a
// single pipeline run. Collectors share one Pacer per run so the inter-call
// delay holds across listing and comment calls alike.
package collector

import (
	"context"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/internal/ratelimit"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

// ItemCollector pages through one listing endpoint until it has enough
// items, the provider runs out, or a page fails.
type ItemCollector struct {
	provider    provider.Client
	pacer       *ratelimit.Pacer
	logger      logger.Logger
	maxAttempts int
}

func NewItemCollector(p provider.Client, pacer *ratelimit.Pacer, log logger.Logger, maxAttempts int) *ItemCollector {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	return &ItemCollector{provider: p, pacer: pacer, logger: log, maxAttempts: maxAttempts}
}

// Collect returns up to targetCount items plus the number of listing calls
// made. A page failure is not retried: whatever was accumulated is returned
// together with the error and the caller decides whether partial data is
// acceptable.
func (c *ItemCollector) Collect(ctx context.Context, query domain.Query, targetCount int) ([]domain.Item, int, error) {
	var items []domain.Item
	seen := make(map[string]struct{})
	cursor := ""
	calls := 0

	for attempt := 0; attempt < c.maxAttempts && len(items) < targetCount; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return items, calls, err
		}

		page, err := c.provider.ListItems(ctx, query, cursor)
		calls++
		if err != nil {
			c.logger.Error("Listing page failed, returning partial collection",
				"query", query.Tag(), "call", calls, "collected", len(items), "error", err)
			return items, calls, err
		}

		if len(page.Items) == 0 {
			c.logger.Info("Listing returned empty page", "query", query.Tag(), "call", calls)
			break
		}

		for _, item := range page.Items {
			if len(items) >= targetCount {
				break
			}
			if _, dup := seen[item.ID]; dup {
				continue
			}
			seen[item.ID] = struct{}{}
			items = append(items, item)
		}

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	c.logger.Info("Item collection finished",
		"query", query.Tag(), "items", len(items), "calls", calls)
	return items, calls, nil
}
