package markup_test

import (
	"strings"
	"testing"

	"github.com/recapbot/recapbot/internal/markup"
)

// TestCompose_FullOrder exercises the entire pipeline in one pass: repair
// runs before deduplication, deduplication before escaping, escaping only
// outside link spans, folding after escaping, template last.
func TestCompose_FullOrder(t *testing.T) {
	t.Parallel()

	body := "Top stories!\nsee [https://telegram.me/c/1/2](https://telegram.me/c/1/2) and [https://t.me/c/1/2](https://t.me/c/1/2)"
	opts := markup.ComposeOptions{
		ModelName:       "gemini-2.0-flash",
		ReferencePrefix: "ref",
		LinkRepairs:     map[string]string{"https://telegram.me/": "https://t.me/"},
	}

	result := markup.Compose(body, opts)

	// Attribution line: escaped model-name fragment inside bold markers.
	if !strings.HasPrefix(result, "*gemini\\-2\\.0\\-flash*\n") {
		t.Errorf("missing or unescaped attribution line: %q", result)
	}

	// Repair rewrote telegram.me to t.me, so both links collapse to one
	// ordinal.
	if strings.Contains(result, "telegram.me") {
		t.Errorf("link repair did not run before deduplication: %q", result)
	}
	if got := strings.Count(result, "[ref¹](https://t.me/c/1/2)"); got != 2 {
		t.Errorf("expected 2 shared-ordinal citations, got %d in %q", got, result)
	}
	if strings.Contains(result, "ref²") {
		t.Errorf("repaired duplicates must share one ordinal: %q", result)
	}

	// Surrounding text is escaped, link spans are not.
	if !strings.Contains(result, "Top stories\\!") {
		t.Errorf("text outside links must be escaped: %q", result)
	}
	if strings.Contains(result, "\\[ref") || strings.Contains(result, "\\(https") {
		t.Errorf("link syntax must never be escaped: %q", result)
	}

	// Body is folded into an expandable quote.
	if !strings.Contains(result, "\n**>") {
		t.Errorf("body must start with the fold opening marker: %q", result)
	}
	if !strings.HasSuffix(result, "||") {
		t.Errorf("body must end with the fold closing marker: %q", result)
	}
}

func TestCompose_Footer(t *testing.T) {
	t.Parallel()

	result := markup.Compose("hello", markup.ComposeOptions{
		ModelName:       "model",
		ReferencePrefix: "ref",
		FooterLabel:     "about this bot",
		FooterURL:       "https://example.com/about",
	})

	if !strings.HasSuffix(result, "\n[about this bot](https://example.com/about)") {
		t.Errorf("expected footer link appended, got %q", result)
	}
}

func TestCompose_NoFooterWithoutURL(t *testing.T) {
	t.Parallel()

	result := markup.Compose("hello", markup.ComposeOptions{
		ModelName:       "model",
		ReferencePrefix: "ref",
		FooterLabel:     "about",
	})

	if !strings.HasSuffix(result, "||") {
		t.Errorf("expected no footer when URL is empty, got %q", result)
	}
}

func TestCompose_LabeledLinksSurvive(t *testing.T) {
	t.Parallel()

	result := markup.Compose("read [the docs](https://docs.example) now.", markup.ComposeOptions{
		ModelName:       "model",
		ReferencePrefix: "ref",
	})

	if !strings.Contains(result, "[the docs](https://docs.example)") {
		t.Errorf("labeled link must pass through unchanged: %q", result)
	}
	if !strings.Contains(result, "now\\.") {
		t.Errorf("text after link must still be escaped: %q", result)
	}
}
