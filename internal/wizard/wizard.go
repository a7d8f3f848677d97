// ABOUTME: Article wizard state machine: title, content, tags, excerpt, then create
// ABOUTME: Each step reads the user's session, applies the answer, and advances

package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/session"
)

// SkipToken leaves an optional field empty.
const SkipToken = "/skip"

// Creator is the part of the content API the wizard needs.
type Creator interface {
	CreateArticle(ctx context.Context, a articles.NewArticle) articles.Result
}

// ValidationError rejects an answer without moving the wizard.
type ValidationError struct {
	Step   session.State
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer at %s: %s", e.Step, e.Reason)
}

// ErrIncompleteDraft means a session reached submission without the fields
// earlier steps guarantee. The session is cleared when this happens.
var ErrIncompleteDraft = errors.New("draft is missing title or content")

// step is one row of the transition table.
type step struct {
	apply  func(c *Controller, d *session.Draft, text string) error
	next   session.State
	prompt string
}

// Controller drives the wizard for every user. It keeps no per-user state of
// its own; everything lives in the session store.
type Controller struct {
	sessions  session.Store
	api       Creator
	normalize Normalizer
	logger    *slog.Logger
	steps     map[session.State]step
}

// Option configures a Controller.
type Option func(*Controller)

// WithNormalizer replaces the content normalizer (default NormalizeHTML).
func WithNormalizer(n Normalizer) Option {
	return func(c *Controller) {
		if n != nil {
			c.normalize = n
		}
	}
}

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New builds a Controller over the given store and API.
func New(sessions session.Store, api Creator, opts ...Option) *Controller {
	c := &Controller{
		sessions:  sessions,
		api:       api,
		normalize: NormalizeHTML,
		logger:    slog.Default(),
		steps: map[session.State]step{
			session.StateAwaitingTitle: {
				apply:  applyTitle,
				next:   session.StateAwaitingContent,
				prompt: promptContent,
			},
			session.StateAwaitingContent: {
				apply:  applyContent,
				next:   session.StateAwaitingTags,
				prompt: promptTags,
			},
			session.StateAwaitingTags: {
				apply:  applyTags,
				next:   session.StateAwaitingExcerpt,
				prompt: promptExcerpt,
			},
			session.StateAwaitingExcerpt: {
				apply: applyExcerpt,
				next:  session.StateIdle,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "wizard")
	return c
}

// Start begins a new article for userID, discarding any draft in progress.
func (c *Controller) Start(ctx context.Context, userID string) (string, error) {
	sess := session.Idle(userID)
	sess.State = session.StateAwaitingTitle
	if err := c.sessions.Set(ctx, userID, sess); err != nil {
		return "", fmt.Errorf("starting wizard: %w", err)
	}
	c.logger.Info("wizard started", "user_id", userID)
	return promptTitle, nil
}

// Active reports whether userID is mid-wizard.
func (c *Controller) Active(ctx context.Context, userID string) (bool, error) {
	sess, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return sess.Active(), nil
}

// Handle feeds one answer into the user's wizard. handled is false when the
// user is Idle, in which case the message belongs to someone else.
func (c *Controller) Handle(ctx context.Context, userID, text string) (reply string, handled bool, err error) {
	sess, err := c.sessions.Get(ctx, userID)
	if err != nil {
		return "", false, fmt.Errorf("loading session: %w", err)
	}
	if !sess.Active() {
		return "", false, nil
	}

	st, ok := c.steps[sess.State]
	if !ok {
		_ = c.sessions.Clear(ctx, userID)
		return "", true, fmt.Errorf("no wizard step for state %q", sess.State)
	}

	if err := st.apply(c, &sess.Draft, text); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return fmt.Sprintf("⚠️ %s\n\n%s", verr.Reason, promptFor(sess.State)), true, nil
		}
		return "", true, err
	}

	if st.next == session.StateIdle {
		reply, err := c.submit(ctx, userID, sess.Draft)
		return reply, true, err
	}

	sess.State = st.next
	if err := c.sessions.Set(ctx, userID, sess); err != nil {
		return "", true, fmt.Errorf("saving session: %w", err)
	}
	c.logger.Debug("wizard advanced", "user_id", userID, "state", st.next)
	return st.prompt, true, nil
}

// submit clears the session and creates the article exactly once.
func (c *Controller) submit(ctx context.Context, userID string, d session.Draft) (string, error) {
	if err := c.sessions.Clear(ctx, userID); err != nil {
		return "", fmt.Errorf("clearing session before submit: %w", err)
	}
	if d.Title == nil || d.Content == nil {
		return "", ErrIncompleteDraft
	}

	payload := articles.NewArticle{
		Title:   *d.Title,
		Content: *d.Content,
		Tags:    d.Tags,
		Excerpt: deref(d.Excerpt),
		Status:  articles.StatusDraft,
	}
	if payload.Tags == nil {
		payload.Tags = []string{}
	}

	res := c.api.CreateArticle(ctx, payload)
	if !res.OK() {
		c.logger.Warn("article creation failed",
			"user_id", userID,
			"kind", res.Failure.Kind,
			"error", res.Failure.Message,
		)
		return createdFailure(res.Failure.Message), nil
	}

	c.logger.Info("article created", "user_id", userID, "article_id", res.Article.ID)
	return createdSuccess(res.Article), nil
}

func applyTitle(_ *Controller, d *session.Draft, text string) error {
	d.Title = &text
	return nil
}

func applyContent(c *Controller, d *session.Draft, text string) error {
	content := c.normalize(text)
	d.Content = &content
	return nil
}

func applyTags(_ *Controller, d *session.Draft, text string) error {
	d.Tags = ParseTags(text)
	return nil
}

func applyExcerpt(_ *Controller, d *session.Draft, text string) error {
	excerpt := ParseExcerpt(text)
	d.Excerpt = &excerpt
	return nil
}

// ParseTags splits a comma separated answer, trimming each tag. Empty
// segments are kept. "/skip" or an empty answer yields no tags.
func ParseTags(text string) []string {
	if text == "" || isSkip(text) {
		return []string{}
	}
	parts := strings.Split(text, ",")
	tags := make([]string, len(parts))
	for i, p := range parts {
		tags[i] = strings.TrimSpace(p)
	}
	return tags
}

// ParseExcerpt trims the answer; "/skip" yields "".
func ParseExcerpt(text string) string {
	if isSkip(text) {
		return ""
	}
	return strings.TrimSpace(text)
}

func isSkip(text string) bool {
	return strings.TrimSpace(text) == SkipToken
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
