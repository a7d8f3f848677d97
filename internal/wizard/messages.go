// ABOUTME: User-facing wizard prompts and the creation result replies
// ABOUTME: Keeps all wizard wording in one place

package wizard

import (
	"fmt"
	"strings"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/session"
)

const (
	promptTitle   = "📝 New article.\n\nSend the article title:"
	promptContent = "✅ Title saved.\n\nSend the article content (HTML or plain text):"
	promptTags    = "✅ Content saved.\n\nSend tags separated by commas (or /skip):"
	promptExcerpt = "✅ Tags saved.\n\nSend a short excerpt (or /skip):"
)

// NoTags is shown when an article has no tags.
const NoTags = "none"

// promptFor returns the question asked while waiting in state.
func promptFor(state session.State) string {
	switch state {
	case session.StateAwaitingTitle:
		return "Send the article title:"
	case session.StateAwaitingContent:
		return "Send the article content (HTML or plain text):"
	case session.StateAwaitingTags:
		return "Send tags separated by commas (or /skip):"
	case session.StateAwaitingExcerpt:
		return "Send a short excerpt (or /skip):"
	}
	return ""
}

// FormatTags joins tags for display, or returns NoTags.
func FormatTags(tags []string) string {
	if len(tags) == 0 {
		return NoTags
	}
	return strings.Join(tags, ", ")
}

func createdSuccess(a *articles.Article) string {
	var b strings.Builder
	b.WriteString("✅ Article created!\n\n")
	fmt.Fprintf(&b, "📌 ID: %s\n", a.ID)
	fmt.Fprintf(&b, "📝 Title: %s\n", a.Title)
	fmt.Fprintf(&b, "📅 Date: %s\n", a.Date)
	fmt.Fprintf(&b, "🏷️ Tags: %s\n", FormatTags(a.Tags))
	fmt.Fprintf(&b, "📊 Status: %s\n\n", a.Status)
	b.WriteString("To publish it, send:\n")
	fmt.Fprintf(&b, "/publish %s", a.ID)
	return b.String()
}

func createdFailure(msg string) string {
	if msg == "" {
		msg = "unknown error"
	}
	return "❌ Failed to create the article: " + msg
}
