package domain

// ThreadedComment is a comment annotated with its derived position in the
// reply tree. Depth is 0 for top-level comments (including orphans whose
// declared parent could not be found) and parent depth + 1 otherwise.
// ReplyCount counts direct children only.
type ThreadedComment struct {
	Comment
	Depth      int
	ReplyCount int
}

// ContentUnit is a normalized item paired with its cleaned, threaded
// comments — the unit handed to analysis. Comments keep provider arrival
// order regardless of thread structure.
type ContentUnit struct {
	Item           Item
	MediaKind      MediaKind
	Hashtags       []string
	EngagementRate float64 // (likes+comments)/views*100, 0 when views are unknown
	Permalink      string
	Comments       []ThreadedComment
}
