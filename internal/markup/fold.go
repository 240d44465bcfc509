package markup

import "strings"

// Markers for the Telegram MarkdownV2 expandable blockquote form.
const (
	foldOpen    = "**>"
	foldClose   = "||"
	quotePrefix = ">"
)

// Fold wraps a text block into an expandable blockquote: the block is
// prefixed with the opening sequence, every newline gains a quote marker,
// and the block ends with the closing sequence. Fold does not validate
// that its input is escaped; callers control ordering.
func Fold(s string) string {
	return foldOpen + strings.ReplaceAll(s, "\n", "\n"+quotePrefix) + foldClose
}
