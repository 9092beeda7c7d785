package domain

// Sentiment of one extracted quote.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// IntentLevel grades purchase/engagement intent expressed in a quote.
type IntentLevel string

const (
	IntentHigh   IntentLevel = "high"
	IntentMedium IntentLevel = "medium"
	IntentLow    IntentLevel = "low"
	IntentNone   IntentLevel = "none"
)

// SourceKind says where a quoted string came from.
type SourceKind string

const (
	SourceCaption SourceKind = "caption"
	SourceComment SourceKind = "comment"
)

// Finding is one atomic insight extracted by the analysis step, traceable
// back to the exact source text it quotes.
type Finding struct {
	Quote       string      `json:"quote"`
	Sentiment   Sentiment   `json:"sentiment"`
	Theme       string      `json:"theme"`
	IntentLevel IntentLevel `json:"intent_level"`
	Confidence  float64     `json:"confidence"`

	SourceKind      SourceKind `json:"source_kind"`
	SourceItemID    string     `json:"source_item_id"`
	SourceCommentID string     `json:"source_comment_id,omitempty"`
	AuthorHandle    string     `json:"author_handle"`
	LikeCount       int        `json:"like_count"`
	Permalink       string     `json:"permalink,omitempty"`
	ThreadDepth     int        `json:"thread_depth"`
}
