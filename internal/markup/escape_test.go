package markup_test

import (
	"strings"
	"testing"

	"github.com/recapbot/recapbot/internal/markup"
)

func TestEscape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Plain text untouched",
			input:    "hello world",
			expected: "hello world",
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "Single reserved character",
			input:    "a.b",
			expected: `a\.b`,
		},
		{
			name:     "Link syntax characters",
			input:    "[label](url)",
			expected: `\[label\]\(url\)`,
		},
		{
			name:     "Mixed text and punctuation",
			input:    "1+1=2, really!",
			expected: `1\+1\=2, really\!`,
		},
		{
			name:     "Unicode preserved",
			input:    "café ¹²³ *bold*",
			expected: `café ¹²³ \*bold\*`,
		},
		{
			name:     "Newlines untouched",
			input:    "line one\nline two.",
			expected: "line one\nline two\\.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := markup.Escape(tt.input)
			if result != tt.expected {
				t.Errorf("Escape(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

// TestEscape_ReservedAlphabet checks forward correctness over the full
// reserved set: every reserved character ends up backslash-prefixed and no
// other character is altered.
func TestEscape_ReservedAlphabet(t *testing.T) {
	t.Parallel()

	const reserved = "_*[]()~`>#+-=|{}.!"

	for _, c := range reserved {
		input := "x" + string(c) + "y"
		got := markup.Escape(input)
		want := "x\\" + string(c) + "y"
		if got != want {
			t.Errorf("Escape(%q) = %q, want %q", input, got, want)
		}
	}

	const unreserved = "abcXYZ019 \n\t:;,/?@&'\""
	for _, c := range unreserved {
		input := string(c)
		if got := markup.Escape(input); got != input {
			t.Errorf("Escape(%q) altered unreserved character: %q", input, got)
		}
	}
}

func TestEscape_DoubleApplicationDoubleEscapes(t *testing.T) {
	t.Parallel()

	once := markup.Escape("a.b")
	twice := markup.Escape(once)
	if twice == once {
		t.Fatal("expected second Escape application to add another marker")
	}
	if !strings.Contains(twice, `\\\.`) {
		t.Errorf("Escape(Escape(%q)) = %q, want doubled markers", "a.b", twice)
	}
}
