// ABOUTME: Plain-text rendering of command replies
// ABOUTME: Lists, article details, help text, and failure messages

package bot

import (
	"fmt"
	"strings"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/wizard"
)

const (
	replyNoArticles    = "📭 No articles yet."
	replyNoDrafts      = "📭 No drafts."
	replyInternalError = "⚠️ Something went wrong on our side. Please try again."
)

func renderWelcome(cmds []*Command) string {
	var b strings.Builder
	b.WriteString("👋 Hi! I manage the blog for you.\n\n")
	b.WriteString("Available commands:\n")
	writeCommands(&b, cmds)
	return strings.TrimRight(b.String(), "\n")
}

func renderHelp(cmds []*Command) string {
	var b strings.Builder
	b.WriteString("📝 Bot commands:\n\n")
	writeCommands(&b, cmds)
	b.WriteString("\nDuring /new_article, send /skip to leave tags or excerpt empty.")
	return b.String()
}

func writeCommands(b *strings.Builder, cmds []*Command) {
	for _, c := range cmds {
		fmt.Fprintf(b, "%s - %s\n", c.Usage, c.Description)
	}
}

func renderUsage(e *UsageError) string {
	return "❌ Usage: " + e.Usage
}

func unknownCommand(name string) string {
	return fmt.Sprintf("🤔 Unknown command %s. Send /help to see what I can do.", name)
}

func statusIcon(s articles.Status) string {
	if s == articles.StatusPublished {
		return "✅"
	}
	return "📝"
}

func writeEntry(b *strings.Builder, icon string, a *articles.Article) {
	fmt.Fprintf(b, "%s %s\n", icon, a.ID)
	fmt.Fprintf(b, "   %s\n", a.Title)
	fmt.Fprintf(b, "   📅 %s\n\n", a.Date)
}

// renderArticleList shows at most limit entries followed by an overflow count.
func renderArticleList(res articles.Result, limit int) string {
	list := res.Articles
	if len(list) == 0 {
		return replyNoArticles
	}

	var b strings.Builder
	b.WriteString("📚 Articles:\n\n")
	shown := list
	if len(shown) > limit {
		shown = shown[:limit]
	}
	for _, a := range shown {
		writeEntry(&b, statusIcon(a.Status), a)
	}

	total := max(res.Total, len(list))
	if rest := total - len(shown); rest > 0 {
		fmt.Fprintf(&b, "... and %d more", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderDraftList shows every draft with no truncation.
func renderDraftList(list []*articles.Article) string {
	if len(list) == 0 {
		return replyNoDrafts
	}
	var b strings.Builder
	b.WriteString("📝 Drafts:\n\n")
	for _, a := range list {
		writeEntry(&b, "📝", a)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderArticle(a *articles.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", statusIcon(a.Status), a.Title)
	fmt.Fprintf(&b, "📌 ID: %s\n", a.ID)
	fmt.Fprintf(&b, "📅 Date: %s\n", a.Date)
	fmt.Fprintf(&b, "🏷️ Tags: %s\n", wizard.FormatTags(a.Tags))
	fmt.Fprintf(&b, "📊 Status: %s\n", a.Status)
	if a.ReadTime > 0 {
		fmt.Fprintf(&b, "⏱️ Read time: %d min\n", a.ReadTime)
	}
	if a.Excerpt != "" {
		fmt.Fprintf(&b, "\n%s\n", a.Excerpt)
	}
	if a.Status != articles.StatusPublished {
		fmt.Fprintf(&b, "\nTo publish it, send:\n/publish %s", a.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPublished(id string) string {
	return fmt.Sprintf("✅ Article %s published!", id)
}

func renderListFailure(f *articles.Failure) string {
	return "❌ Failed to fetch articles: " + failureMessage(f)
}

func renderFailure(f *articles.Failure) string {
	return "❌ Error: " + failureMessage(f)
}

func failureMessage(f *articles.Failure) string {
	if f == nil || f.Message == "" {
		return "unknown error"
	}
	return f.Message
}
