// Package wizard implements the multi-turn conversation that collects an
// article from a chat user and creates it as a draft.
//
// # Steps
//
//	state             input          effect                         next
//	idle              /new_article   draft cleared                  awaiting_title
//	awaiting_title    any text       title = text                   awaiting_content
//	awaiting_content  any text       content = normalize(text)      awaiting_tags
//	awaiting_tags     /skip | text   tags = [] | split on ","       awaiting_excerpt
//	awaiting_excerpt  /skip | text   excerpt = "" | trimmed text    idle (create)
//
// Reaching idle from awaiting_excerpt calls CreateArticle exactly once with
// status "draft". The session is cleared whether the call succeeds or not.
//
// # Content
//
// NormalizeHTML wraps text that does not start with "<" as <p>text</p>.
// MarkdownNormalizer renders such text with goldmark instead. Markup is
// never touched by either.
//
// # Concurrency
//
// The Controller is stateless apart from the session store. Callers must
// serialize messages per user (see session.Sequencer).
package wizard
