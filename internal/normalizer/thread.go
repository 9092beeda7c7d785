package normalizer

import (
	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/pkg/textutil"
)

// buildThread reconstructs reply nesting from the flat parent-id list in two
// passes: first index every comment by id, then resolve depths by lookup.
// Replies may arrive before their parents, so a single forward pass cannot
// work. Orphans (parent not in the thread) and parent cycles are demoted to
// top-level instead of being dropped. Output keeps arrival order.
func (n *Normalizer) buildThread(itemID string, raw []domain.Comment) []domain.ThreadedComment {
	cleaned := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		text := textutil.Clean(c.Text, maxCommentLength)
		if text == "" {
			continue
		}
		c.Text = text
		c.AuthorHandle = textutil.Clean(c.AuthorHandle, 100)
		cleaned = append(cleaned, c)
	}
	if len(cleaned) == 0 {
		return nil
	}

	// pass one: index by id
	index := make(map[string]int, len(cleaned))
	for i, c := range cleaned {
		index[c.ID] = i
	}

	// pass two: resolve depth per comment, memoized, guarded against
	// self-references and parent cycles in malformed provider data
	depths := make([]int, len(cleaned))
	for i := range depths {
		depths[i] = -1
	}

	var resolve func(i int, trail map[int]bool) int
	resolve = func(i int, trail map[int]bool) int {
		if depths[i] >= 0 {
			return depths[i]
		}
		c := cleaned[i]
		if c.IsTopLevel() {
			depths[i] = 0
			return 0
		}
		j, ok := index[c.ParentID]
		if !ok {
			n.logger.Debug("Orphan comment demoted to top level",
				"item", itemID, "comment", c.ID, "parent", c.ParentID)
			depths[i] = 0
			return 0
		}
		if j == i || trail[j] {
			n.logger.Warn("Comment parent cycle detected, demoting to top level",
				"item", itemID, "comment", c.ID)
			depths[i] = 0
			return 0
		}
		trail[i] = true
		depths[i] = resolve(j, trail) + 1
		return depths[i]
	}

	replyCounts := make([]int, len(cleaned))
	for _, c := range cleaned {
		if c.IsTopLevel() {
			continue
		}
		if j, ok := index[c.ParentID]; ok && cleaned[j].ID != c.ID {
			replyCounts[j]++
		}
	}

	thread := make([]domain.ThreadedComment, 0, len(cleaned))
	for i, c := range cleaned {
		thread = append(thread, domain.ThreadedComment{
			Comment:    c,
			Depth:      resolve(i, map[int]bool{i: true}),
			ReplyCount: replyCounts[i],
		})
	}
	return thread
}
