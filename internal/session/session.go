// ABOUTME: Session model and Store interface for per-user wizard state
// ABOUTME: A missing session reads as Idle with an empty draft, never nil

package session

import (
	"context"
	"time"
)

// State is the wizard step a user is on.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingTitle   State = "awaiting_title"
	StateAwaitingContent State = "awaiting_content"
	StateAwaitingTags    State = "awaiting_tags"
	StateAwaitingExcerpt State = "awaiting_excerpt"
)

// Valid reports whether s is one of the known states.
func (s State) Valid() bool {
	switch s {
	case StateIdle, StateAwaitingTitle, StateAwaitingContent, StateAwaitingTags, StateAwaitingExcerpt:
		return true
	}
	return false
}

// Draft is the article data collected so far. Optional fields are nil
// until their step has been answered.
type Draft struct {
	Title   *string  `json:"title,omitempty" yaml:"title,omitempty"`
	Content *string  `json:"content,omitempty" yaml:"content,omitempty"`
	Tags    []string `json:"tags" yaml:"tags"`
	Excerpt *string  `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// Empty reports whether nothing has been collected.
func (d Draft) Empty() bool {
	return d.Title == nil && d.Content == nil && len(d.Tags) == 0 && d.Excerpt == nil
}

// Session is one user's wizard progress.
type Session struct {
	UserID    string    `yaml:"user_id"`
	State     State     `yaml:"state"`
	Draft     Draft     `yaml:"draft"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// Idle returns the empty session every user starts with.
func Idle(userID string) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

// Active reports whether the user is mid-wizard.
func (s *Session) Active() bool {
	return s.State != StateIdle
}

// Clone returns a deep copy so stored sessions cannot be mutated through
// a value handed to a caller.
func (s *Session) Clone() *Session {
	c := *s
	c.Draft.Title = cloneString(s.Draft.Title)
	c.Draft.Content = cloneString(s.Draft.Content)
	c.Draft.Excerpt = cloneString(s.Draft.Excerpt)
	if s.Draft.Tags != nil {
		c.Draft.Tags = append([]string{}, s.Draft.Tags...)
	}
	return &c
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Store holds one session per user id.
//
// Implementations must be safe for concurrent use across different users.
// Ordering for a single user is the caller's job (see Sequencer).
type Store interface {
	// Get returns the user's session, or an Idle one if none is stored.
	Get(ctx context.Context, userID string) (*Session, error)
	// Set replaces the user's session.
	Set(ctx context.Context, userID string, s *Session) error
	// Clear resets the user to Idle with an empty draft.
	Clear(ctx context.Context, userID string) error
	// List returns every stored non-Idle session, oldest update first.
	List(ctx context.Context) ([]*Session, error)
	// Close releases resources held by the store.
	Close() error
}
