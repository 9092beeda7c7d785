package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
)

// fakeLLM answers by looking the unit up in its script, keyed on a marker
// embedded in the caption.
type fakeLLM struct {
	mu      sync.Mutex
	answers map[string][]llm.CandidateFinding
	errors  map[string]error
	calls   int
	inFlight int
	maxSeen int
}

func (f *fakeLLM) ExtractFindings(_ context.Context, req llm.Request) ([]llm.CandidateFinding, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	for key, err := range f.errors {
		if strings.Contains(req.UserPrompt, key) {
			return nil, err
		}
	}
	for key, answer := range f.answers {
		if strings.Contains(req.UserPrompt, key) {
			return answer, nil
		}
	}
	return nil, nil
}

func unitWithCaption(id, caption string) domain.ContentUnit {
	return domain.ContentUnit{
		Item: domain.Item{
			ID:           id,
			Text:         caption,
			AuthorHandle: "poster",
			Engagement:   domain.Engagement{LikeCount: 10, ViewCount: 100},
		},
		MediaKind: domain.MediaVideo,
		Permalink: "https://example.com/" + id,
	}
}

func newTestDispatcher(cli llm.Client) *Dispatcher {
	return NewDispatcher(DispatcherOpts{
		LLM:               cli,
		Logger:            logger.NewNop(),
		Concurrency:       2,
		MaxQuoteLength:    200,
		MaxPromptComments: 50,
		MatchThreshold:    0.3,
	})
}

func TestAnalyzeKeepsSlotOrder(t *testing.T) {
	fake := &fakeLLM{answers: map[string][]llm.CandidateFinding{
		"marker-a": {{Quote: "marker-a", Sentiment: "positive", Theme: "t", PurchaseIntent: "none", Confidence: 0.9}},
		"marker-c": {{Quote: "marker-c", Sentiment: "negative", Theme: "t", PurchaseIntent: "none", Confidence: 0.9}},
	}}
	d := newTestDispatcher(fake)

	units := []domain.ContentUnit{
		unitWithCaption("a", "marker-a"),
		unitWithCaption("b", "marker-b"),
		unitWithCaption("c", "marker-c"),
	}
	perUnit, stats := d.Analyze(context.Background(), units, "goal", "model", 0)

	require.Len(t, perUnit, 3)
	require.Len(t, perUnit[0], 1)
	assert.Equal(t, "a", perUnit[0][0].SourceItemID)
	assert.Empty(t, perUnit[1])
	require.Len(t, perUnit[2], 1)
	assert.Equal(t, "c", perUnit[2][0].SourceItemID)
	assert.Equal(t, 3, stats.AnalysisCalls)
	assert.Equal(t, 0, stats.FailedUnits)
}

func TestAnalyzeIsolatesUnitFailures(t *testing.T) {
	fake := &fakeLLM{
		answers: map[string][]llm.CandidateFinding{
			"marker-ok": {{Quote: "marker-ok", Sentiment: "positive", Theme: "t", PurchaseIntent: "low", Confidence: 0.7}},
		},
		errors: map[string]error{
			"marker-bad": errors.New("model exploded"),
		},
	}
	d := newTestDispatcher(fake)

	units := []domain.ContentUnit{
		unitWithCaption("bad", "marker-bad"),
		unitWithCaption("ok", "marker-ok"),
	}
	perUnit, stats := d.Analyze(context.Background(), units, "goal", "model", 0)

	require.Len(t, perUnit, 2)
	assert.NotNil(t, perUnit[0])
	assert.Empty(t, perUnit[0])
	require.Len(t, perUnit[1], 1)
	assert.Equal(t, 1, stats.FailedUnits)
	assert.Equal(t, 2, stats.AnalysisCalls)
}

func TestAnalyzeBoundsConcurrency(t *testing.T) {
	fake := &fakeLLM{}
	d := newTestDispatcher(fake)

	units := make([]domain.ContentUnit, 10)
	for i := range units {
		units[i] = unitWithCaption(fmt.Sprintf("u%d", i), "caption")
	}
	d.Analyze(context.Background(), units, "goal", "model", 0)

	assert.Equal(t, 10, fake.calls)
	assert.LessOrEqual(t, fake.maxSeen, 2)
}

func TestAnalyzeEmptyBatch(t *testing.T) {
	d := newTestDispatcher(&fakeLLM{})
	perUnit, stats := d.Analyze(context.Background(), nil, "goal", "model", 0)
	assert.Empty(t, perUnit)
	assert.Equal(t, Stats{}, stats)
}

func TestAnalyzeCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeLLM{}
	d := newTestDispatcher(fake)

	units := []domain.ContentUnit{
		unitWithCaption("a", "caption"),
		unitWithCaption("b", "caption"),
	}
	perUnit, stats := d.Analyze(ctx, units, "goal", "model", 0)

	require.Len(t, perUnit, 2)
	for _, slot := range perUnit {
		assert.NotNil(t, slot)
		assert.Empty(t, slot)
	}
	assert.Equal(t, 0, fake.calls)
	assert.Equal(t, 2, stats.FailedUnits)
}

func TestBuildUserPromptCapsComments(t *testing.T) {
	d := newTestDispatcher(&fakeLLM{})
	d.maxPromptComments = 2

	unit := unitWithCaption("a", "caption")
	for i := 0; i < 5; i++ {
		unit.Comments = append(unit.Comments, domain.ThreadedComment{
			Comment: domain.Comment{ID: fmt.Sprintf("c%d", i), Text: fmt.Sprintf("comment %d", i), AuthorHandle: "user"},
		})
	}

	prompt := d.buildUserPrompt(unit)
	assert.Contains(t, prompt, "comment 0")
	assert.Contains(t, prompt, "comment 1")
	assert.NotContains(t, prompt, "comment 2")
	assert.Contains(t, prompt, "3 more comments not shown")
}

func TestBuildUserPromptIndentsReplies(t *testing.T) {
	d := newTestDispatcher(&fakeLLM{})
	unit := unitWithCaption("a", "caption")
	unit.Comments = []domain.ThreadedComment{
		{Comment: domain.Comment{ID: "c1", Text: "root comment", AuthorHandle: "u1"}},
		{Comment: domain.Comment{ID: "c2", Text: "nested reply", AuthorHandle: "u2"}, Depth: 1},
	}

	prompt := d.buildUserPrompt(unit)
	assert.Contains(t, prompt, "- @u1")
	assert.Contains(t, prompt, "  - @u2")
}
