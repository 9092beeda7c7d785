package pipelineimpl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vuongnp/tiktok-insight-service/internal/aggregator"
	"github.com/vuongnp/tiktok-insight-service/internal/analyzer"
	"github.com/vuongnp/tiktok-insight-service/internal/collector"
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/internal/normalizer"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/internal/ratelimit"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/errors"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Provider provider.Client
	LLM      llm.Client
	Config   *config.Config
	Logger   logger.Logger
}

type Impl struct {
	provider provider.Client
	llm      llm.Client
	config   *config.Config
	logger   logger.Logger
}

func New(opts Opts) *Impl {
	return &Impl{
		provider: opts.Provider,
		llm:      opts.LLM,
		config:   opts.Config,
		logger:   opts.Logger,
	}
}

var _ pipeline.Service = (*Impl)(nil)

// Run executes one full analysis. The stages are strictly sequential;
// concurrency lives inside the analysis dispatcher only. A listing failure
// with zero items fails the run, a listing failure after some items were
// collected degrades it to a partial report.
func (i *Impl) Run(ctx context.Context, req pipeline.Request) (*domain.Report, error) {
	if err := i.validate(&req); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	log := i.logger.With("query", req.Query.Tag(), "kind", string(req.Query.Kind))
	log.Info("Pipeline run started", "items", req.ItemCount, "comments_per_item", req.CommentsPerItem)

	// one pacer per run: listing and comment calls share the delay budget
	pacer := ratelimit.NewPacer(i.config.Provider.RequestDelay)
	itemCollector := collector.NewItemCollector(i.provider, pacer, log, i.config.Provider.MaxPageAttempts)
	threadCollector := collector.NewThreadCollector(i.provider, pacer, log, i.config.Provider.MaxPageAttempts)

	items, listingCalls, err := itemCollector.Collect(ctx, req.Query, req.ItemCount)
	partial := false
	if err != nil {
		if len(items) == 0 {
			return nil, collectionError(err)
		}
		log.Warn("Continuing with partial collection", "items", len(items), "error", err)
		partial = true
	}

	model := req.Model
	if model == "" {
		model = i.config.Analysis.DefaultModel
	}

	if len(items) == 0 {
		log.Info("Listing returned no content, producing empty report")
		agg := aggregator.New(i.config.Analysis.TopThemes)
		return agg.Aggregate(nil, aggregator.Collection{
			Query:        req.Query,
			ListingCalls: listingCalls,
			Model:        model,
			StartedAt:    startedAt,
		})
	}

	commentsByItem, commentCalls := threadCollector.CollectAll(ctx, items, req.CommentsPerItem)

	units := normalizer.New(log).Normalize(items, commentsByItem)

	dispatcher := analyzer.NewDispatcher(analyzer.DispatcherOpts{
		LLM:               i.llm,
		Logger:            log,
		Concurrency:       i.config.Analysis.MaxConcurrent,
		MaxQuoteLength:    i.config.Analysis.MaxQuoteLength,
		MaxPromptComments: i.config.Analysis.MaxPromptComments,
		MatchThreshold:    i.config.Analysis.MatchThreshold,
		RequestTimeout:    i.config.Analysis.RequestTimeout,
	})
	perUnit, stats := dispatcher.Analyze(ctx, units, req.Instructions, model, req.MaxQuoteLength)

	if stats.FailedUnits == len(units) && len(units) > 0 {
		return nil, errors.Wrap(errors.ErrAnalysis, "analysis failed for every collected item")
	}

	agg := aggregator.New(i.config.Analysis.TopThemes)
	report, err := agg.Aggregate(perUnit, aggregator.Collection{
		Query:             req.Query,
		Units:             units,
		ListingCalls:      listingCalls,
		CommentCalls:      commentCalls,
		AnalysisCalls:     stats.AnalysisCalls,
		FailedUnits:       stats.FailedUnits,
		PartialCollection: partial,
		Model:             model,
		StartedAt:         startedAt,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Pipeline run finished",
		"items", len(units),
		"findings", len(report.Findings),
		"failed_units", stats.FailedUnits,
		"seconds", report.Metadata.ProcessingSeconds)
	return report, nil
}

func (i *Impl) validate(req *pipeline.Request) error {
	req.Query.Value = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(req.Query.Value), "#@"))
	if req.Query.Value == "" {
		return errors.Wrap(errors.ErrValidation, "query value is required")
	}
	switch req.Query.Kind {
	case domain.QueryHashtag, domain.QueryAccount, domain.QuerySearch:
	default:
		return errors.Wrap(errors.ErrValidation, fmt.Sprintf("unknown query kind %q", req.Query.Kind))
	}
	if strings.TrimSpace(req.Instructions) == "" {
		return errors.Wrap(errors.ErrValidation, "analysis instructions are required")
	}

	limits := i.config.Limits
	if req.ItemCount <= 0 {
		req.ItemCount = limits.DefaultItems
	}
	if req.ItemCount > limits.MaxItems {
		return errors.Wrap(errors.ErrValidation,
			fmt.Sprintf("item count %d exceeds the maximum of %d", req.ItemCount, limits.MaxItems))
	}
	if req.CommentsPerItem <= 0 {
		req.CommentsPerItem = limits.DefaultCommentsPerItem
	}
	if req.CommentsPerItem > limits.MaxCommentsPerItem {
		return errors.Wrap(errors.ErrValidation,
			fmt.Sprintf("comments per item %d exceeds the maximum of %d", req.CommentsPerItem, limits.MaxCommentsPerItem))
	}
	return nil
}

// collectionError tags err with the collection sentinel while keeping the
// provider error visible for rate-limit detection.
func collectionError(err error) error {
	return errors.Wrap(fmt.Errorf("%w: %w", errors.ErrCollection, err),
		"no content could be collected")
}
