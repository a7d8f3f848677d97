// Package dedupe remembers recently handled Matrix event IDs so that events
// redelivered by the homeserver (sync retries, gappy syncs after reconnect)
// are answered once.
package dedupe
