// Package aggregator folds per-unit findings into the final report:
// flattened findings plus distribution, threading and timing metadata.
package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/pkg/errors"
)

// Collection carries everything a run produced before aggregation.
type Collection struct {
	Query             domain.Query
	Units             []domain.ContentUnit
	ListingCalls      int
	CommentCalls      int
	AnalysisCalls     int
	FailedUnits       int
	PartialCollection bool
	Model             string
	StartedAt         time.Time
}

type Aggregator struct {
	topThemes int
}

func New(topThemes int) *Aggregator {
	if topThemes <= 0 {
		topThemes = 10
	}
	return &Aggregator{topThemes: topThemes}
}

// Aggregate flattens per-unit findings (unit order, then extraction order
// within a unit) and computes the run metadata. perUnit must line up with
// col.Units slot for slot; a mismatch means an upstream bug, not bad data.
func (a *Aggregator) Aggregate(perUnit [][]domain.Finding, col Collection) (*domain.Report, error) {
	if len(perUnit) != len(col.Units) {
		return nil, errors.Wrap(errors.ErrAggregation,
			fmt.Sprintf("got %d finding slots for %d units", len(perUnit), len(col.Units)))
	}

	findings := make([]domain.Finding, 0)
	for _, unitFindings := range perUnit {
		findings = append(findings, unitFindings...)
	}

	meta := domain.ReportMetadata{
		Query:     col.Query.Value,
		QueryKind: string(col.Query.Kind),

		TotalItemsProcessed: len(col.Units),
		TotalFindings:       len(findings),
		FailedUnits:         col.FailedUnits,

		SentimentDistribution: make(map[domain.Sentiment]int),
		IntentDistribution:    make(map[domain.IntentLevel]int),

		ListingAPICalls: col.ListingCalls,
		CommentAPICalls: col.CommentCalls,
		AnalysisCalls:   col.AnalysisCalls,

		PartialCollection: col.PartialCollection,
		ModelUsed:         col.Model,
		ProcessingSeconds: time.Since(col.StartedAt).Seconds(),
		CompletedAt:       time.Now().UTC(),
	}

	themeCounts := make(map[string]int)
	themeOrder := make([]string, 0)
	confidenceSum := 0.0

	for _, f := range findings {
		meta.SentimentDistribution[f.Sentiment]++
		meta.IntentDistribution[f.IntentLevel]++
		confidenceSum += f.Confidence
		if f.Confidence >= 0.8 {
			meta.HighConfidenceCount++
		}
		if f.Theme != "" {
			if _, seen := themeCounts[f.Theme]; !seen {
				themeOrder = append(themeOrder, f.Theme)
			}
			themeCounts[f.Theme]++
		}
	}
	if len(findings) > 0 {
		meta.AverageConfidence = confidenceSum / float64(len(findings))
	}
	meta.TopThemes = a.rankThemes(themeCounts, themeOrder)

	engagementSum := 0.0
	for _, unit := range col.Units {
		meta.TotalCommentsCollected += len(unit.Comments)
		meta.TotalLikes += unit.Item.Engagement.LikeCount
		meta.TotalViews += unit.Item.Engagement.ViewCount
		engagementSum += unit.EngagementRate

		for _, c := range unit.Comments {
			if c.Depth == 0 {
				meta.TopLevelComments++
			} else {
				meta.ReplyComments++
			}
			if c.Depth > meta.MaxReplyDepth {
				meta.MaxReplyDepth = c.Depth
			}
		}
	}
	if len(col.Units) > 0 {
		meta.AverageEngagementRate = engagementSum / float64(len(col.Units))
	}

	return &domain.Report{Findings: findings, Metadata: meta}, nil
}

// rankThemes orders themes by count descending; ties keep first-seen order
// so the ranking is stable across runs with the same findings.
func (a *Aggregator) rankThemes(counts map[string]int, order []string) []domain.ThemeCount {
	firstSeen := make(map[string]int, len(order))
	for i, theme := range order {
		firstSeen[theme] = i
	}

	ranked := make([]domain.ThemeCount, 0, len(order))
	for _, theme := range order {
		ranked = append(ranked, domain.ThemeCount{Theme: theme, Count: counts[theme]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Theme] < firstSeen[ranked[j].Theme]
	})

	if len(ranked) > a.topThemes {
		ranked = ranked[:a.topThemes]
	}
	return ranked
}
