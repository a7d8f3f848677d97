// Package session holds per-user wizard state for the article bot.
//
// # Model
//
// Each chat user has at most one Session, keyed by their user id. A session
// is Idle (nothing stored, empty draft) or on one of the wizard steps:
//
//	awaiting_title -> awaiting_content -> awaiting_tags -> awaiting_excerpt
//
// Store.Get never returns nil: a user with nothing stored reads as Idle.
// Setting an Idle session removes it.
//
// # Backends
//
//   - MemoryStore: the default; sessions are lost on restart
//   - SQLiteStore: modernc.org/sqlite, sessions survive restarts
//
// Both are safe for concurrent use across users.
//
// # Ordering
//
// A wizard step must observe the state left by the previous step for the
// same user. Sequencer enforces this: jobs submitted under the same key run
// one at a time in submission order, while different keys run in parallel.
//
//	seq := session.NewSequencer(logger)
//	seq.Submit(userID, func() {
//	    reply := dispatcher.Handle(ctx, userID, text)
//	    send(reply)
//	})
//
// Stop refuses new jobs and waits for queued ones; call it only after the
// producer of Submit calls has exited.
package session
