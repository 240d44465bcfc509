package markup_test

import (
	"strings"
	"testing"

	"github.com/recapbot/recapbot/internal/markup"
)

func TestSuperscript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n        int
		expected string
	}{
		{0, "⁰"},
		{1, "¹"},
		{2, "²"},
		{3, "³"},
		{4, "⁴"},
		{5, "⁵"},
		{6, "⁶"},
		{7, "⁷"},
		{8, "⁸"},
		{9, "⁹"},
		{10, "¹⁰"},
		{12, "¹²"},
		{107, "¹⁰⁷"},
	}

	for _, tt := range tests {
		if got := markup.Superscript(tt.n); got != tt.expected {
			t.Errorf("Superscript(%d) = %q, want %q", tt.n, got, tt.expected)
		}
	}
}

func TestDeduplicateLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		prefix   string
		expected string
	}{
		{
			name:     "No links",
			input:    "just some text",
			prefix:   "ref",
			expected: "just some text",
		},
		{
			name:     "Repeated self-identical link shares one ordinal",
			input:    "see [http://a](http://a) and [http://a](http://a) and [x](http://b)",
			prefix:   "ref",
			expected: "see [ref¹](http://a) and [ref¹](http://a) and [x](http://b)",
		},
		{
			name:     "Ordinals assigned in first-seen order",
			input:    "[http://b](http://b) then [http://a](http://a) then [http://b](http://b)",
			prefix:   "link",
			expected: "[link¹](http://b) then [link²](http://a) then [link¹](http://b)",
		},
		{
			name:     "Labeled link passes through byte-for-byte",
			input:    "read [the docs](http://docs.example) now",
			prefix:   "ref",
			expected: "read [the docs](http://docs.example) now",
		},
		{
			name:     "Label differing only by trailing slash is kept",
			input:    "[http://a/](http://a)",
			prefix:   "ref",
			expected: "[http://a/](http://a)",
		},
		{
			name:     "Empty label equals empty target",
			input:    "[]()",
			prefix:   "ref",
			expected: "[ref¹]()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := markup.DeduplicateLinks(tt.input, tt.prefix)
			if result != tt.expected {
				t.Errorf("DeduplicateLinks(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestDeduplicateLinks_ManyOccurrences checks the core guarantee: k
// occurrences of the same URL collapse to k citations sharing one ordinal.
func TestDeduplicateLinks_ManyOccurrences(t *testing.T) {
	t.Parallel()

	const url = "https://example.com/page"
	link := "[" + url + "](" + url + ")"
	input := strings.Repeat("text "+link+" more ", 5)

	result := markup.DeduplicateLinks(input, "ref")

	rewritten := "[ref¹](" + url + ")"
	if got := strings.Count(result, rewritten); got != 5 {
		t.Errorf("expected 5 occurrences of %q, got %d in %q", rewritten, got, result)
	}
	if strings.Contains(result, "ref²") {
		t.Errorf("expected a single ordinal for one URL, got %q", result)
	}
}

func TestDeduplicateLinks_TwelveDistinctURLs(t *testing.T) {
	t.Parallel()

	var b strings.Builder
	for i := 1; i <= 12; i++ {
		u := "http://site" + strings.Repeat("x", i) + ".test"
		b.WriteString("[" + u + "](" + u + ") ")
	}

	result := markup.DeduplicateLinks(b.String(), "ref")

	if !strings.Contains(result, "ref¹²") {
		t.Errorf("expected twelfth link to use multi-digit superscript, got %q", result)
	}
}
