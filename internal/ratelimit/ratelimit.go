package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed delay between successive calls to the shared
// content provider. Each pipeline run owns its own Pacer so concurrent
// requests never contend on one limiter; the first Wait never blocks.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer creates a pacer with the given inter-call delay.
// A non-positive delay disables pacing.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
