package markup

import (
	"regexp"
	"strings"
)

// linkPattern matches markdown-style links [label](target). Labels and
// targets are matched non-greedily without nested brackets/parentheses,
// which is the shape the upstream model emits.
var linkPattern = regexp.MustCompile(`\[([^\[\]]*)\]\(([^()]*)\)`)

// superscriptDigits maps decimal digits 0-9 to their Unicode superscript
// glyphs, used to render reference ordinals.
var superscriptDigits = [10]rune{'⁰', '¹', '²', '³', '⁴', '⁵', '⁶', '⁷', '⁸', '⁹'}

// Superscript renders a non-negative ordinal as a digit-wise concatenation
// of superscript glyphs (12 -> "¹²").
func Superscript(n int) string {
	if n < 0 {
		n = -n
	}
	if n < 10 {
		return string(superscriptDigits[n])
	}

	var digits []rune
	for n > 0 {
		digits = append(digits, superscriptDigits[n%10])
		n /= 10
	}
	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// DeduplicateLinks rewrites every self-identical link [U](U) into a short
// numbered reference [<prefix><superscript ordinal>](U). Ordinals are
// assigned in first-seen order starting at 1 and repeated occurrences of
// the same URL reuse their ordinal. Links whose label differs from their
// target pass through unchanged.
func DeduplicateLinks(s, prefix string) string {
	ordinals := make(map[string]int)
	next := 1

	return linkPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := linkPattern.FindStringSubmatch(m)
		label, target := sub[1], sub[2]
		if label != target {
			return m
		}

		ord, seen := ordinals[target]
		if !seen {
			ord = next
			ordinals[target] = ord
			next++
		}

		var b strings.Builder
		b.WriteByte('[')
		b.WriteString(prefix)
		b.WriteString(Superscript(ord))
		b.WriteString("](")
		b.WriteString(target)
		b.WriteByte(')')
		return b.String()
	})
}
