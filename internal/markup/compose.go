package markup

import (
	"sort"
	"strings"
)

// ComposeOptions configures the reply pipeline.
type ComposeOptions struct {
	// ModelName is the attribution fragment, escaped before templating.
	ModelName string
	// ReferencePrefix is the word rendered before each link ordinal.
	ReferencePrefix string
	// LinkRepairs maps hallucinated domain substitutions the model emits to
	// their correct form. Applied as literal replacements before any other
	// stage.
	LinkRepairs map[string]string
	// FooterLabel and FooterURL, when both set, append a fixed footer link.
	FooterLabel string
	FooterURL   string
}

// Compose runs the full reply pipeline in its required order: link repair,
// self-identical link deduplication, escaping of the text outside link
// spans, expandable-quote folding, and finally the attribution template.
// Callers must not pre-escape the body; Compose owns the ordering.
func Compose(body string, opts ComposeOptions) string {
	body = repairLinks(body, opts.LinkRepairs)
	body = DeduplicateLinks(body, opts.ReferencePrefix)
	body = escapeOutsideLinks(body)
	body = Fold(body)

	var b strings.Builder
	b.WriteByte('*')
	b.WriteString(Escape(opts.ModelName))
	b.WriteString("*\n")
	b.WriteString(body)
	if opts.FooterURL != "" && opts.FooterLabel != "" {
		b.WriteString("\n[")
		b.WriteString(Escape(opts.FooterLabel))
		b.WriteString("](")
		b.WriteString(opts.FooterURL)
		b.WriteByte(')')
	}
	return b.String()
}

// repairLinks applies the configured literal domain replacements in
// deterministic (sorted-key) order.
func repairLinks(s string, repairs map[string]string) string {
	if len(repairs) == 0 {
		return s
	}
	keys := make([]string, 0, len(repairs))
	for k := range repairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s = strings.ReplaceAll(s, k, repairs[k])
	}
	return s
}

// escapeOutsideLinks escapes reserved characters in every segment of s that
// lies outside a markdown link span, leaving link spans byte-for-byte
// intact so their brackets and parentheses survive as markup.
func escapeOutsideLinks(s string) string {
	spans := linkPattern.FindAllStringIndex(s, -1)
	if len(spans) == 0 {
		return Escape(s)
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	last := 0
	for _, span := range spans {
		b.WriteString(Escape(s[last:span[0]]))
		b.WriteString(s[span[0]:span[1]])
		last = span[1]
	}
	b.WriteString(Escape(s[last:]))
	return b.String()
}
