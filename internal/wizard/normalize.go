// ABOUTME: Content normalizers applied to the wizard's content answer
// ABOUTME: Plain text is wrapped in <p> (or rendered from Markdown); HTML passes through

package wizard

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// Normalizer turns a raw content answer into the HTML stored on the article.
type Normalizer func(text string) string

// looksLikeHTML is the author-convenience heuristic: anything whose trimmed
// form starts with "<" is treated as markup and left alone.
func looksLikeHTML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<")
}

// NormalizeHTML wraps plain text as <p>text</p>. Markup, including
// malformed markup, is returned verbatim.
func NormalizeHTML(text string) string {
	if looksLikeHTML(text) {
		return text
	}
	return "<p>" + text + "</p>"
}

// MarkdownNormalizer renders plain text as Markdown. Inline and block HTML
// inside the Markdown is kept as written. Text that starts with markup passes
// through like NormalizeHTML, and a rendering failure falls back to it.
func MarkdownNormalizer() Normalizer {
	md := goldmark.New(goldmark.WithRendererOptions(html.WithUnsafe()))
	return func(text string) string {
		if looksLikeHTML(text) {
			return text
		}
		var buf bytes.Buffer
		if err := md.Convert([]byte(text), &buf); err != nil {
			return NormalizeHTML(text)
		}
		return strings.TrimSpace(buf.String())
	}
}

// NormalizerFor maps a content.format config value to a Normalizer.
func NormalizerFor(format string) Normalizer {
	if format == "markdown" {
		return MarkdownNormalizer()
	}
	return NormalizeHTML
}
