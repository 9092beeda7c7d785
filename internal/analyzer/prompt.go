package analyzer

import (
	"fmt"
	"strings"

	"github.com/vuongnp/tiktok-insight-service/internal/domain"
	"github.com/vuongnp/tiktok-insight-service/pkg/textutil"
)

func (d *Dispatcher) buildSystemPrompt(instructions string, quoteLimit int) string {
	var sb strings.Builder

	sb.WriteString("You are a social media content analyst. ")
	sb.WriteString("You are given one post (caption plus engagement numbers) and its comment thread. ")
	sb.WriteString("Extract every insight relevant to the analysis goal below as a separate finding.\n\n")

	sb.WriteString("Analysis goal:\n")
	sb.WriteString(instructions)
	sb.WriteString("\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("- quote: copy the supporting text verbatim from the caption or a comment, ")
	fmt.Fprintf(&sb, "at most %d characters. Never paraphrase.\n", quoteLimit)
	sb.WriteString("- sentiment: positive, negative or neutral, judged for the quoted text.\n")
	sb.WriteString("- theme: a short lowercase topic label (2-4 words), consistent across findings.\n")
	sb.WriteString("- purchase_intent: high, medium, low or none, based only on what the quote expresses.\n")
	sb.WriteString("- confidence: 0.0 to 1.0, how certain you are the finding matches the goal.\n")
	sb.WriteString("- Return nothing for content with no relevant insight. Do not invent findings.")

	return sb.String()
}

// buildUserPrompt renders one unit as the model's input. Comments are listed
// in arrival order with their reply depth shown as indentation so the model
// can read thread context; the list is capped and the cap is stated so
// omission is never silent.
func (d *Dispatcher) buildUserPrompt(unit domain.ContentUnit) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "POST by @%s (%s", unit.Item.AuthorHandle, unit.MediaKind)
	if unit.Item.SourceTag != "" {
		fmt.Fprintf(&sb, ", found via %s", unit.Item.SourceTag)
	}
	sb.WriteString(")\n")

	if unit.Item.Text != "" {
		fmt.Fprintf(&sb, "Caption: %s\n", unit.Item.Text)
	} else {
		sb.WriteString("Caption: (none)\n")
	}

	e := unit.Item.Engagement
	fmt.Fprintf(&sb, "Engagement: %s likes, %s comments, %s views, %s shares (rate %.2f%%)\n",
		textutil.FormatNumber(e.LikeCount),
		textutil.FormatNumber(e.CommentCount),
		textutil.FormatNumber(e.ViewCount),
		textutil.FormatNumber(e.ShareCount),
		unit.EngagementRate)

	if len(unit.Comments) == 0 {
		sb.WriteString("\nNo comments.")
		return sb.String()
	}

	sb.WriteString("\nComments (indentation shows reply depth):\n")
	shown := len(unit.Comments)
	if shown > d.maxPromptComments {
		shown = d.maxPromptComments
	}
	for _, c := range unit.Comments[:shown] {
		indent := strings.Repeat("  ", c.Depth)
		fmt.Fprintf(&sb, "%s- @%s (%s likes): %s\n",
			indent, c.AuthorHandle, textutil.FormatNumber(c.LikeCount), c.Text)
	}
	if hidden := len(unit.Comments) - shown; hidden > 0 {
		fmt.Fprintf(&sb, "(%d more comments not shown)\n", hidden)
	}

	return sb.String()
}
