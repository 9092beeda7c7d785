// Package normalizer maps raw provider records into the canonical shape the
// analysis stage consumes: cleaned text, derived media kind, hashtags,
// engagement rate and a reconstructed reply thread.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/pkg/logger"
	"github.com/vuongnp/tiktok-insight-service/pkg/textutil"
)

const (
	maxCaptionLength = 1000
	maxCommentLength = 2000
)

// mediaKinds maps the provider's aweme_type codes to media kinds.
// Unmapped codes are unknown, never an error.
var mediaKinds = map[int]domain.MediaKind{
	0:   domain.MediaVideo,
	51:  domain.MediaVideo,
	55:  domain.MediaVideo,
	61:  domain.MediaVideo,
	68:  domain.MediaMulti,
	150: domain.MediaPhoto,
}

type Normalizer struct {
	logger logger.Logger
}

func New(log logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// Normalize produces one ContentUnit per input item, in input order.
// Comments with no usable text after cleaning are dropped; items are never
// dropped. Normalization is pure: the same inputs always yield the same
// units.
func (n *Normalizer) Normalize(items []domain.Item, commentsByItem map[string][]domain.Comment) []domain.ContentUnit {
	units := make([]domain.ContentUnit, 0, len(items))

	for _, item := range items {
		clean := item
		clean.Text = textutil.Clean(item.Text, maxCaptionLength)
		clean.AuthorHandle = textutil.Clean(item.AuthorHandle, 100)

		unit := domain.ContentUnit{
			Item:           clean,
			MediaKind:      mediaKindOf(item.RawMediaCode),
			Hashtags:       extractHashtags(clean.Text),
			EngagementRate: engagementRate(clean.Engagement),
			Permalink:      permalink(clean),
			Comments:       n.buildThread(item.ID, commentsByItem[item.ID]),
		}
		units = append(units, unit)
	}

	return units
}

func mediaKindOf(code int) domain.MediaKind {
	if kind, ok := mediaKinds[code]; ok {
		return kind
	}
	return domain.MediaUnknown
}

// engagementRate is (likes+comments)/views as a percentage; zero when the
// view count is unknown so we never divide by zero.
func engagementRate(e domain.Engagement) float64 {
	if e.ViewCount <= 0 {
		return 0
	}
	return float64(e.LikeCount+e.CommentCount) / float64(e.ViewCount) * 100
}

func permalink(item domain.Item) string {
	if item.ShareURL != "" {
		return item.ShareURL
	}
	if item.Code == "" {
		return ""
	}
	if item.AuthorHandle != "" {
		return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", item.AuthorHandle, item.Code)
	}
	return "https://www.tiktok.com/video/" + item.Code
}

// extractHashtags scans the caption for #token runs. Tokens keep letters,
// digits and underscores; duplicates are dropped, first occurrence wins.
func extractHashtags(caption string) []string {
	var tags []string
	seen := make(map[string]struct{})

	fields := strings.Fields(caption)
	for _, field := range fields {
		for strings.HasPrefix(field, "#") {
			field = field[1:]
			tag := leadingTagToken(field)
			if tag == "" {
				break
			}
			key := strings.ToLower(tag)
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				tags = append(tags, tag)
			}
			field = field[len(tag):]
		}
	}
	return tags
}

func leadingTagToken(s string) string {
	for i, r := range s {
		ok := r == '_' ||
			(r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z')
		if !ok {
			return s[:i]
		}
	}
	return s
}
