package domain

import "time"

// MediaKind classifies the media attached to an item.
type MediaKind string

const (
	MediaPhoto   MediaKind = "photo"
	MediaVideo   MediaKind = "video"
	MediaMulti   MediaKind = "multi"
	MediaUnknown MediaKind = "unknown"
)

// Engagement holds the provider's public counters for an item.
// All counts are clamped to >= 0 during mapping.
type Engagement struct {
	LikeCount    int `json:"like_count"`
	CommentCount int `json:"comment_count"`
	ViewCount    int `json:"view_count"`
	ShareCount   int `json:"share_count"`
}

// Item is one unit of content (post/clip) returned by the provider.
type Item struct {
	ID           string    // opaque provider key, unique within a run
	Code         string    // public short identifier, used for the permalink
	Text         string    // caption/description, may be empty
	AuthorHandle string
	CreatedAt    time.Time
	Engagement   Engagement
	RawMediaCode int    // provider media-type code, mapped by the normalizer
	SourceTag    string // listing query that produced this item
	ShareURL     string
}

// QueryKind selects which listing endpoint a collection run walks.
type QueryKind string

const (
	QueryHashtag QueryKind = "hashtag"
	QueryAccount QueryKind = "account"
	QuerySearch  QueryKind = "search"
)

// Query identifies one listing target.
type Query struct {
	Kind  QueryKind
	Value string
}

// Tag renders the query as a human-readable source tag, e.g. "#bmw" or "@user".
func (q Query) Tag() string {
	switch q.Kind {
	case QueryHashtag:
		return "#" + q.Value
	case QueryAccount:
		return "@" + q.Value
	default:
		return q.Value
	}
}
