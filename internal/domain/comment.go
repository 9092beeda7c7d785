package domain

import "time"

// TopLevelParentID is the provider's sentinel for comments that are not replies.
const TopLevelParentID = "0"

// Comment is one comment as returned by the provider, before thread
// reconstruction. ParentID references another comment's ID within the same
// item, or is empty/"0" for top-level comments.
type Comment struct {
	ID           string
	ItemID       string
	Text         string
	AuthorHandle string
	LikeCount    int
	CreatedAt    time.Time
	ParentID     string
}

// IsTopLevel reports whether the comment declares no parent.
func (c Comment) IsTopLevel() bool {
	return c.ParentID == "" || c.ParentID == TopLevelParentID
}
