package textutil

import (
	"html"
	"strconv"
	"strings"
	"unicode"
)

// safety cap applied before any other processing
const maxRawLength = 50000

// Clean normalizes free text coming from the provider: decodes HTML
// entities, collapses whitespace and strips ASCII control characters while
// preserving emoji and international text. maxLength (in runes) truncates
// the result when > 0.
func Clean(text string, maxLength int) string {
	if text == "" {
		return ""
	}
	if len(text) > maxRawLength {
		text = text[:maxRawLength]
	}

	text = html.UnescapeString(text)

	var sb strings.Builder
	sb.Grow(len(text))
	space := false
	for _, r := range text {
		// control characters count as whitespace so words stay separated
		if r < 0x20 || r == 0x7F || unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		space = false
		sb.WriteRune(r)
	}

	out := sb.String()
	if maxLength > 0 {
		out = TruncateRunes(out, maxLength)
	}
	return strings.TrimSpace(out)
}

// TruncateRunes cuts s to at most n runes without splitting a code point.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Ellipsis marks truncated quotes so shortening is never silent.
const Ellipsis = "..."

// TruncateWithEllipsis cuts s to at most max runes, ending with the
// ellipsis marker when truncation happened.
func TruncateWithEllipsis(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= len(Ellipsis) {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-len(Ellipsis)])) + Ellipsis
}

// FormatNumber converts an integer to a string with commas as thousands separators.
// Example: 1234567 -> "1,234,567"
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		s = s[1:]
	}

	le := len(s)
	if le <= 3 {
		if n < 0 {
			return "-" + s
		}
		return s
	}

	sepCount := (le - 1) / 3

	res := make([]byte, le+sepCount)

	j := len(res) - 1
	for i := le - 1; i >= 0; i-- {
		res[j] = s[i]
		j--
		if (le-i)%3 == 0 && i > 0 {
			res[j] = ','
			j--
		}
	}

	if n < 0 {
		return "-" + string(res)
	}
	return string(res)
}
