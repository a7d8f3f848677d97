// Package commands implements the quill-admin command tree.
//
//	quill-admin list [--status draft|published]
//	quill-admin show <id>
//	quill-admin publish <id>
//	quill-admin delete <id> [--yes]
//	quill-admin sessions list [--db path]
//	quill-admin sessions clear <user> [--db path]
//
// Article commands read the [api] section of the quill config; --api-url
// and --api-key override it. Session commands read only [sessions] and need
// sessions.backend = "sqlite", since memory sessions live only inside the
// running bot; --db points at the database directly.
// Every command accepts -o yaml for machine-readable output.
package commands
