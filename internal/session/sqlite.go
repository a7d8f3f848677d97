// ABOUTME: SQLite session store using modernc.org/sqlite
// ABOUTME: Keeps wizard sessions across restarts with automatic schema creation

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width so updated_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the session database at path.
// Parent directories are created if needed. ":memory:" is accepted for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "session_store")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// ":memory:" databases exist per connection.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite session store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS wizard_sessions (
			user_id    TEXT PRIMARY KEY,
			state      TEXT NOT NULL,
			draft_json TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (state IN ('awaiting_title', 'awaiting_content', 'awaiting_tags', 'awaiting_excerpt'))
		);

		CREATE INDEX IF NOT EXISTS idx_wizard_sessions_updated ON wizard_sessions(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stored session or an Idle one.
func (s *SQLiteStore) Get(ctx context.Context, userID string) (*Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, state, draft_json, updated_at FROM wizard_sessions WHERE user_id = ?`,
		userID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Idle(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session for %s: %w", userID, err)
	}
	return sess, nil
}

// Set upserts the session. An Idle session deletes the row.
func (s *SQLiteStore) Set(ctx context.Context, userID string, sess *Session) error {
	if !sess.Active() {
		return s.Clear(ctx, userID)
	}
	if !sess.State.Valid() {
		return fmt.Errorf("invalid session state %q", sess.State)
	}

	draft, err := json.Marshal(sess.Draft)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO wizard_sessions (user_id, state, draft_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			draft_json = excluded.draft_json,
			updated_at = excluded.updated_at
	`, userID, string(sess.State), string(draft), s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("saving session for %s: %w", userID, err)
	}
	return nil
}

// Clear deletes the user's row.
func (s *SQLiteStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM wizard_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clearing session for %s: %w", userID, err)
	}
	return nil
}

// List returns all resident sessions, oldest update first.
func (s *SQLiteStore) List(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, state, draft_json, updated_at FROM wizard_sessions ORDER BY updated_at ASC, user_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		sess      Session
		state     string
		draftJSON string
		updatedAt string
	)
	if err := row.Scan(&sess.UserID, &state, &draftJSON, &updatedAt); err != nil {
		return nil, err
	}

	sess.State = State(state)
	if !sess.State.Valid() {
		return nil, fmt.Errorf("session %s has unknown state %q", sess.UserID, state)
	}
	if err := json.Unmarshal([]byte(draftJSON), &sess.Draft); err != nil {
		return nil, fmt.Errorf("decoding draft for %s: %w", sess.UserID, err)
	}
	t, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at for %s: %w", sess.UserID, err)
	}
	sess.UpdatedAt = t
	return &sess, nil
}
