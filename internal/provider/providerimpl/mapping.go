package providerimpl

import (
	"strings"
	"time"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
)

// envelope is the shared {status, data} wrapper on every scraper response.
type envelope interface {
	statusField() string
}

type listingPayload struct {
	Status string `json:"status"`
	Data   struct {
		AwemeList []rawItem `json:"aweme_list"`
		HasMore   bool      `json:"has_more"`
		Cursor    string    `json:"cursor"`
	} `json:"data"`
}

func (p *listingPayload) statusField() string { return p.Status }

type commentsPayload struct {
	Status string `json:"status"`
	Data   struct {
		Comments []rawComment `json:"comments"`
		HasMore  bool         `json:"has_more"`
		Cursor   string       `json:"cursor"`
	} `json:"data"`
}

func (p *commentsPayload) statusField() string { return p.Status }

type rawAuthor struct {
	Nickname string `json:"nickname"`
	UniqueID string `json:"unique_id"`
}

type rawStatistics struct {
	DiggCount    int `json:"digg_count"`
	CommentCount int `json:"comment_count"`
	PlayCount    int `json:"play_count"`
	ShareCount   int `json:"share_count"`
}

type rawItem struct {
	AwemeID    string        `json:"aweme_id"`
	Desc       string        `json:"desc"`
	CreateTime int64         `json:"create_time"`
	AwemeType  int           `json:"aweme_type"`
	Author     rawAuthor     `json:"author"`
	Statistics rawStatistics `json:"statistics"`
	ShareURL   string        `json:"share_url"`
}

func (r rawItem) toDomain(sourceTag string) (domain.Item, bool) {
	if r.AwemeID == "" {
		return domain.Item{}, false
	}

	handle := r.Author.UniqueID
	if handle == "" {
		handle = r.Author.Nickname
	}

	return domain.Item{
		ID:           r.AwemeID,
		Code:         shortCode(r.ShareURL, r.AwemeID),
		Text:         r.Desc,
		AuthorHandle: handle,
		CreatedAt:    time.Unix(r.CreateTime, 0).UTC(),
		Engagement: domain.Engagement{
			LikeCount:    clamp(r.Statistics.DiggCount),
			CommentCount: clamp(r.Statistics.CommentCount),
			ViewCount:    clamp(r.Statistics.PlayCount),
			ShareCount:   clamp(r.Statistics.ShareCount),
		},
		RawMediaCode: r.AwemeType,
		SourceTag:    sourceTag,
		ShareURL:     r.ShareURL,
	}, true
}

type rawComment struct {
	CID        string    `json:"cid"`
	Text       string    `json:"text"`
	CreateTime int64     `json:"create_time"`
	DiggCount  int       `json:"digg_count"`
	ReplyID    string    `json:"reply_id"`
	User       rawAuthor `json:"user"`
}

func (r rawComment) toDomain(itemID string) (domain.Comment, bool) {
	if r.CID == "" {
		return domain.Comment{}, false
	}

	handle := r.User.UniqueID
	if handle == "" {
		handle = r.User.Nickname
	}

	return domain.Comment{
		ID:           r.CID,
		ItemID:       itemID,
		Text:         r.Text,
		AuthorHandle: handle,
		LikeCount:    clamp(r.DiggCount),
		CreatedAt:    time.Unix(r.CreateTime, 0).UTC(),
		ParentID:     r.ReplyID,
	}, true
}

// shortCode extracts the public short identifier from a share URL, falling
// back to the item id when the URL is absent or unparseable.
func shortCode(shareURL, fallback string) string {
	trimmed := strings.TrimRight(shareURL, "/")
	if trimmed == "" {
		return fallback
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx+1 < len(trimmed) {
		return trimmed[idx+1:]
	}
	return fallback
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
