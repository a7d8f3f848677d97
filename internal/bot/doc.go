// Package bot is the chat command surface.
//
// A Dispatcher receives one message at a time for a user and returns the
// reply text. The first whitespace-separated token, when it starts with "/",
// is looked up in the command table:
//
//	/start, /help        static help rendered from the table
//	/new_article         (re)starts the article wizard
//	/list_articles       first 10 articles plus an overflow count
//	/list_drafts         every draft
//	/show <id>           one article in detail
//	/publish <id>        sets status to published
//
// Known commands win even while a wizard is running. Anything else goes to
// the wizard when the user has one active; otherwise plain text gets no
// reply and an unknown /command gets a pointer to /help.
//
// Commands with a fixed argument count reject other counts with a
// UsageError before any API call is made.
//
// The dispatcher does not serialize calls itself. Callers must not run two
// Handle calls for the same user concurrently; the Matrix bridge uses
// session.Sequencer for that.
package bot
