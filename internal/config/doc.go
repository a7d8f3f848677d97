// Package config handles configuration loading for quill.
//
// # Overview
//
// Configuration is loaded once at startup and never mutated afterwards.
// TOML is the primary format; files ending in .yaml or .yml are read as
// YAML with the same keys.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from QUILL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/quill/quill.toml
//  3. ~/.config/quill/quill.toml
//
// # Environment Variable Expansion
//
// Values can reference environment variables with ${VAR_NAME}:
//
//	[matrix]
//	access_token = "${QUILL_MATRIX_TOKEN}"
//
// Unset variables expand to "". Two keys also fall back to the environment
// when left empty: api.api_key reads API_KEY and tailscale.auth_key reads
// TS_AUTHKEY.
//
// # Sections
//
//	[matrix]     homeserver, user_id, access_token or username + password, recovery_key
//	[api]        url (required), api_key, timeout (default "10s")
//	[bridge]     allowed_rooms, allowed_users, typing_indicator, auto_join
//	[sessions]   backend ("memory" or "sqlite"), path
//	[content]    format ("html" or "markdown")
//	[tailscale]  enabled, hostname, auth_key, state_dir, ephemeral
//	[logging]    level, format ("text" or "json")
//
// # Validation
//
// Load validates everything the Matrix bot needs. LoadAPI validates only the
// [api] section and LoadSessions only the [sessions] section, for quill-admin
// commands that never touch Matrix.
package config
