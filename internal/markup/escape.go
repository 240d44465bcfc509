// Package markup converts free-form model output into Telegram
// MarkdownV2-safe reply text: reserved-character escaping, rewriting of
// self-identical links into numbered references, expandable-quote folding,
// and the single ordered pipeline that composes them.
package markup

import "strings"

// reservedChars is the MarkdownV2 reserved alphabet. Every occurrence must
// be preceded by a backslash in outbound text.
const reservedChars = "_*[]()~`>#+-=|{}.!"

// reservedSet is an immutable lookup table over reservedChars, built once
// at package init and never mutated afterwards.
var reservedSet = func() [128]bool {
	var set [128]bool
	for _, c := range reservedChars {
		set[c] = true
	}
	return set
}()

// Escape prefixes every reserved MarkdownV2 character in s with a
// backslash. It is a pure function; callers must apply it exactly once, at
// the outermost layer, and never to text that already carries intentional
// markup (reapplication double-escapes).
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && reservedSet[r] {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
