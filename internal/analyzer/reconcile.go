package analyzer

import (
	"strings"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/internal/llm"
	"github.com/vuongnp/tiktok-insight-service/pkg/textutil"
)

// reconcile turns the model's candidates into findings bound to real source
// records. Matching checks the caption first, then comments in arrival
// order; the first match wins. Candidates whose quote matches nothing are
// kept and attributed to the caption, because dropping model output over an
// inexact quote loses more signal than a loose attribution does.
func (d *Dispatcher) reconcile(unit domain.ContentUnit, candidates []llm.CandidateFinding, quoteLimit int) []domain.Finding {
	findings := make([]domain.Finding, 0, len(candidates))

	for _, cand := range candidates {
		quote := strings.TrimSpace(cand.Quote)
		if quote == "" {
			continue
		}

		finding := domain.Finding{
			Quote:       textutil.TruncateWithEllipsis(quote, quoteLimit),
			Sentiment:   parseSentiment(cand.Sentiment),
			Theme:       strings.ToLower(strings.TrimSpace(cand.Theme)),
			IntentLevel: parseIntent(cand.PurchaseIntent),
			Confidence:  clampConfidence(cand.Confidence),

			SourceKind:   domain.SourceCaption,
			SourceItemID: unit.Item.ID,
			AuthorHandle: unit.Item.AuthorHandle,
			LikeCount:    unit.Item.Engagement.LikeCount,
			Permalink:    unit.Permalink,
		}

		if comment, ok := d.matchSource(unit, quote); ok {
			finding.SourceKind = domain.SourceComment
			finding.SourceCommentID = comment.ID
			finding.AuthorHandle = comment.AuthorHandle
			finding.LikeCount = comment.LikeCount
			finding.ThreadDepth = comment.Depth
		}

		findings = append(findings, finding)
	}

	return findings
}

// matchSource locates the comment a quote was taken from. The caption is
// checked first; a caption match returns (zero, false) so the caller keeps
// the caption attribution it already filled in.
func (d *Dispatcher) matchSource(unit domain.ContentUnit, quote string) (domain.ThreadedComment, bool) {
	if textsMatch(unit.Item.Text, quote, d.matchThreshold) {
		return domain.ThreadedComment{}, false
	}
	for _, c := range unit.Comments {
		if textsMatch(c.Text, quote, d.matchThreshold) {
			return c, true
		}
	}
	return domain.ThreadedComment{}, false
}

// textsMatch is case-insensitive containment either way, with a length-ratio
// floor so a trivially short fragment cannot claim a long source (or vice
// versa).
func textsMatch(source, quote string, threshold float64) bool {
	if source == "" || quote == "" {
		return false
	}
	s := strings.ToLower(source)
	q := strings.ToLower(quote)

	if !strings.Contains(s, q) && !strings.Contains(q, s) {
		return false
	}

	shorter, longer := len(s), len(q)
	if shorter > longer {
		shorter, longer = longer, shorter
	}
	return float64(shorter) >= threshold*float64(longer)
}

func parseSentiment(s string) domain.Sentiment {
	switch domain.Sentiment(strings.ToLower(strings.TrimSpace(s))) {
	case domain.SentimentPositive:
		return domain.SentimentPositive
	case domain.SentimentNegative:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

func parseIntent(s string) domain.IntentLevel {
	switch domain.IntentLevel(strings.ToLower(strings.TrimSpace(s))) {
	case domain.IntentHigh:
		return domain.IntentHigh
	case domain.IntentMedium:
		return domain.IntentMedium
	case domain.IntentLow:
		return domain.IntentLow
	default:
		return domain.IntentNone
	}
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
