package pipelineimpl

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/internal/pipeline"
	"github.com/vuongnp/tiktok-insight-service/internal/provider"
	"github.com/vuongnp/tiktok-insight-service/pkg/config"
	"github.com/vuongnp/tiktok-insight-service/pkg/errors"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

type fakeProvider struct {
	itemPages   []*provider.ItemPage
	listErr     error
	listErrAt   int // 1-based listing call that fails, 0 = never
	listCalls   int
	comments    map[string][]domain.Comment
	commentErrs map[string]error
}

func (f *fakeProvider) ListItems(_ context.Context, _ domain.Query, _ string) (*provider.ItemPage, error) {
	f.listCalls++
	if f.listErrAt > 0 && f.listCalls == f.listErrAt {
		return nil, f.listErr
	}
	if f.listCalls > len(f.itemPages) {
		return &provider.ItemPage{}, nil
	}
	return f.itemPages[f.listCalls-1], nil
}

func (f *fakeProvider) ListComments(_ context.Context, itemID string, _ string) (*provider.CommentPage, error) {
	if err := f.commentErrs[itemID]; err != nil {
		return nil, err
	}
	return &provider.CommentPage{Comments: f.comments[itemID]}, nil
}

type fakeLLM struct {
	candidates []llm.CandidateFinding
	err        error
	failFirst  bool // only the first call fails
	calls      int
}

func (f *fakeLLM) ExtractFindings(_ context.Context, _ llm.Request) ([]llm.CandidateFinding, error) {
	f.calls++
	if f.err != nil && (!f.failFirst || f.calls == 1) {
		return nil, f.err
	}
	return f.candidates, nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Provider.RequestDelay = 0
	cfg.Provider.MaxPageAttempts = 10
	cfg.Analysis.DefaultModel = "test-model"
	cfg.Analysis.MaxConcurrent = 2
	cfg.Analysis.RequestTimeout = time.Minute
	cfg.Analysis.MaxQuoteLength = 200
	cfg.Analysis.MatchThreshold = 0.3
	cfg.Analysis.MaxPromptComments = 50
	cfg.Analysis.TopThemes = 10
	cfg.Limits.MaxItems = 50
	cfg.Limits.DefaultItems = 20
	cfg.Limits.MaxCommentsPerItem = 200
	cfg.Limits.DefaultCommentsPerItem = 50
	return cfg
}

func newService(p provider.Client, l llm.Client) *Impl {
	return New(Opts{Provider: p, LLM: l, Config: testConfig(), Logger: logger.NewNop()})
}

func listedItem(id, caption string) domain.Item {
	return domain.Item{ID: id, Code: id, Text: caption, AuthorHandle: "creator"}
}

func hashtagRequest() pipeline.Request {
	return pipeline.Request{
		Query:        domain.Query{Kind: domain.QueryHashtag, Value: "bmw"},
		ItemCount:    5,
		Instructions: "find purchase intent around the product",
	}
}

func TestRunHappyPath(t *testing.T) {
	prov := &fakeProvider{
		itemPages: []*provider.ItemPage{{Items: []domain.Item{
			listedItem("1", "loving my new car"),
			listedItem("2", "track day"),
		}}},
		comments: map[string][]domain.Comment{
			"1": {{ID: "c1", ItemID: "1", Text: "where can I buy this", AuthorHandle: "x", ParentID: "0"}},
		},
	}
	cli := &fakeLLM{candidates: []llm.CandidateFinding{{
		Quote: "where can I buy this", Sentiment: "positive",
		Theme: "purchase interest", PurchaseIntent: "high", Confidence: 0.9,
	}}}
	svc := newService(prov, cli)

	report, err := svc.Run(context.Background(), hashtagRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Metadata.TotalItemsProcessed)
	assert.Equal(t, 2, report.Metadata.AnalysisCalls)
	assert.Equal(t, 0, report.Metadata.FailedUnits)
	assert.Equal(t, "test-model", report.Metadata.ModelUsed)
	require.NotEmpty(t, report.Findings)

	// the quote about buying reconciles to the commenter, not the poster
	first := report.Findings[0]
	assert.Equal(t, domain.SourceComment, first.SourceKind)
	assert.Equal(t, "x", first.AuthorHandle)
	assert.Equal(t, domain.IntentHigh, first.IntentLevel)
}

func TestRunEmptyListingProducesEmptyReport(t *testing.T) {
	prov := &fakeProvider{}
	cli := &fakeLLM{}
	svc := newService(prov, cli)

	report, err := svc.Run(context.Background(), hashtagRequest())
	require.NoError(t, err)

	assert.Empty(t, report.Findings)
	assert.Equal(t, 0, report.Metadata.TotalItemsProcessed)
	assert.Equal(t, 0, report.Metadata.AnalysisCalls)
	assert.Equal(t, 1, report.Metadata.ListingAPICalls)
	assert.Equal(t, 0, cli.calls)
}

func TestRunFailsWhenNothingCollected(t *testing.T) {
	prov := &fakeProvider{
		listErr:   &provider.Error{Endpoint: "listing", StatusCode: http.StatusTooManyRequests, Message: "throttled"},
		listErrAt: 1,
	}
	svc := newService(prov, &fakeLLM{})

	_, err := svc.Run(context.Background(), hashtagRequest())
	require.Error(t, err)
	assert.True(t, errors.IsCollection(err))
	assert.True(t, provider.IsRateLimited(err))
}

func TestRunContinuesWithPartialCollection(t *testing.T) {
	prov := &fakeProvider{
		itemPages: []*provider.ItemPage{
			{Items: []domain.Item{listedItem("1", "caption")}, NextCursor: "a", HasMore: true},
		},
		listErr:   &provider.Error{Endpoint: "listing", StatusCode: 500, Message: "boom"},
		listErrAt: 2,
	}
	svc := newService(prov, &fakeLLM{})

	report, err := svc.Run(context.Background(), hashtagRequest())
	require.NoError(t, err)
	assert.True(t, report.Metadata.PartialCollection)
	assert.Equal(t, 1, report.Metadata.TotalItemsProcessed)
}

func TestRunIsolatesAnalysisFailures(t *testing.T) {
	prov := &fakeProvider{
		itemPages: []*provider.ItemPage{{Items: []domain.Item{
			listedItem("1", "first caption"),
			listedItem("2", "second caption"),
		}}},
	}
	cli := &fakeLLM{
		candidates: []llm.CandidateFinding{{
			Quote: "second caption", Sentiment: "neutral", Theme: "t",
			PurchaseIntent: "none", Confidence: 0.6,
		}},
		err:       assertAnError(),
		failFirst: true,
	}
	svc := newService(prov, cli)

	report, err := svc.Run(context.Background(), hashtagRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Metadata.FailedUnits)
	assert.Equal(t, 2, report.Metadata.AnalysisCalls)
	assert.Len(t, report.Findings, 1)
}

func TestRunFailsWhenEveryUnitFails(t *testing.T) {
	prov := &fakeProvider{
		itemPages: []*provider.ItemPage{{Items: []domain.Item{listedItem("1", "caption")}}},
	}
	cli := &fakeLLM{err: assertAnError()}
	svc := newService(prov, cli)

	_, err := svc.Run(context.Background(), hashtagRequest())
	require.Error(t, err)
	assert.True(t, errors.IsAnalysis(err))
}

func TestRunValidation(t *testing.T) {
	svc := newService(&fakeProvider{}, &fakeLLM{})

	tests := []struct {
		name   string
		mutate func(*pipeline.Request)
	}{
		{"empty query", func(r *pipeline.Request) { r.Query.Value = "  " }},
		{"unknown kind", func(r *pipeline.Request) { r.Query.Kind = "feed" }},
		{"missing instructions", func(r *pipeline.Request) { r.Instructions = "" }},
		{"too many items", func(r *pipeline.Request) { r.ItemCount = 999 }},
		{"too many comments", func(r *pipeline.Request) { r.CommentsPerItem = 999 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := hashtagRequest()
			tc.mutate(&req)
			_, err := svc.Run(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestRunAppliesDefaults(t *testing.T) {
	prov := &fakeProvider{}
	svc := newService(prov, &fakeLLM{})

	req := hashtagRequest()
	req.ItemCount = 0
	req.CommentsPerItem = 0

	_, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
}

func TestRunStripsQueryPrefix(t *testing.T) {
	prov := &fakeProvider{}
	svc := newService(prov, &fakeLLM{})

	req := hashtagRequest()
	req.Query.Value = "#bmw"

	report, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "bmw", report.Metadata.Query)
}

func assertAnError() error { return errors.New("model unavailable") }
