// Package analyzer runs LLM extraction over content units under bounded
// concurrency and reconciles each returned quote back to the caption or
// comment it was taken from.
package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

// Stats reports what happened across one dispatch batch.
type Stats struct {
	FailedUnits   int
	AnalysisCalls int
}

// Dispatcher fans content units out to the LLM client. One unit's failure
// produces an empty finding slice for that unit and never aborts the batch.
type Dispatcher struct {
	llm    llm.Client
	logger logger.Logger

	concurrency       int
	maxQuoteLength    int
	maxPromptComments int
	matchThreshold    float64
	requestTimeout    time.Duration
}

type DispatcherOpts struct {
	LLM    llm.Client
	Logger logger.Logger

	Concurrency       int
	MaxQuoteLength    int
	MaxPromptComments int
	MatchThreshold    float64
	RequestTimeout    time.Duration
}

func NewDispatcher(opts DispatcherOpts) *Dispatcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	if opts.MaxQuoteLength <= 0 {
		opts.MaxQuoteLength = 200
	}
	if opts.MaxPromptComments <= 0 {
		opts.MaxPromptComments = 50
	}
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = 0.3
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	return &Dispatcher{
		llm:               opts.LLM,
		logger:            opts.Logger,
		concurrency:       opts.Concurrency,
		maxQuoteLength:    opts.MaxQuoteLength,
		maxPromptComments: opts.MaxPromptComments,
		matchThreshold:    opts.MatchThreshold,
		requestTimeout:    opts.RequestTimeout,
	}
}

// Analyze extracts findings for every unit. The returned slice is indexed by
// unit position: slot i always holds unit i's findings (empty, non-nil, on
// failure), so downstream aggregation can line results up with units without
// any id bookkeeping.
func (d *Dispatcher) Analyze(ctx context.Context, units []domain.ContentUnit, instructions, model string, maxQuoteLength int) ([][]domain.Finding, Stats) {
	perUnit := make([][]domain.Finding, len(units))
	for i := range perUnit {
		perUnit[i] = []domain.Finding{}
	}
	if len(units) == 0 {
		return perUnit, Stats{}
	}

	quoteLimit := maxQuoteLength
	if quoteLimit <= 0 {
		quoteLimit = d.maxQuoteLength
	}

	systemPrompt := d.buildSystemPrompt(instructions, quoteLimit)

	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, d.concurrency)

	for i, unit := range units {
		if ctx.Err() != nil {
			// remaining units count as failed, their slots stay empty
			mu.Lock()
			stats.FailedUnits += len(units) - i
			mu.Unlock()
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, unit domain.ContentUnit) {
			defer wg.Done()
			defer func() { <-sem }()

			callCtx, cancel := context.WithTimeout(ctx, d.requestTimeout)
			defer cancel()

			candidates, err := d.llm.ExtractFindings(callCtx, llm.Request{
				Model:        model,
				SystemPrompt: systemPrompt,
				UserPrompt:   d.buildUserPrompt(unit),
			})

			mu.Lock()
			stats.AnalysisCalls++
			if err != nil {
				stats.FailedUnits++
			}
			mu.Unlock()

			if err != nil {
				d.logger.Warn("Unit analysis failed",
					"item", unit.Item.ID, "position", i, "error", err)
				return
			}

			perUnit[i] = d.reconcile(unit, candidates, quoteLimit)
		}(i, unit)
	}

	wg.Wait()

	d.logger.Info("Analysis batch finished",
		"units", len(units), "calls", stats.AnalysisCalls, "failed", stats.FailedUnits)
	return perUnit, stats
}
