package domain

import "time"

// ThemeCount is one entry of the top-themes ranking.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// ReportMetadata summarizes a pipeline run: counts, distributions, provider
// call counters and timing. Degraded stages show up as smaller counts here,
// never as a failed report.
type ReportMetadata struct {
	Query     string `json:"query"`
	QueryKind string `json:"query_kind"`

	TotalItemsProcessed    int `json:"total_items_processed"`
	TotalCommentsCollected int `json:"total_comments_collected"`
	TotalFindings          int `json:"total_findings"`
	FailedUnits            int `json:"failed_units"`

	SentimentDistribution map[Sentiment]int   `json:"sentiment_distribution"`
	IntentDistribution    map[IntentLevel]int `json:"intent_distribution"`
	TopThemes             []ThemeCount        `json:"top_themes"`
	AverageConfidence     float64             `json:"average_confidence"`
	HighConfidenceCount   int                 `json:"high_confidence_count"`

	TopLevelComments int `json:"top_level_comments"`
	ReplyComments    int `json:"reply_comments"`
	MaxReplyDepth    int `json:"max_reply_depth"`

	TotalLikes            int     `json:"total_likes"`
	TotalViews            int     `json:"total_views"`
	AverageEngagementRate float64 `json:"average_engagement_rate"`

	ListingAPICalls int `json:"listing_api_calls"`
	CommentAPICalls int `json:"comment_api_calls"`
	AnalysisCalls   int `json:"analysis_calls"`

	PartialCollection bool      `json:"partial_collection"`
	ModelUsed         string    `json:"model_used"`
	ProcessingSeconds float64   `json:"processing_time_seconds"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Report is the immutable top-level output of one pipeline run. Findings
// preserve item collection order, then per-item extraction order.
type Report struct {
	Findings []Finding      `json:"findings"`
	Metadata ReportMetadata `json:"metadata"`
}
