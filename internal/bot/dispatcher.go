// ABOUTME: Routes one chat message to a command handler or the article wizard
// ABOUTME: Commands come from a static table validated when the dispatcher is built

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/quill/internal/articles"
	"github.com/2389/quill/internal/wizard"
)

// DefaultListLimit caps how many articles /list_articles shows.
const DefaultListLimit = 10

// API is the content API surface the dispatcher needs.
type API interface {
	wizard.Creator
	ListArticles(ctx context.Context, status articles.Status) articles.Result
	PublishArticle(ctx context.Context, id string) articles.Result
	GetArticle(ctx context.Context, id string) articles.Result
}

// ErrDuplicateCommand is returned when two table entries share a name.
var ErrDuplicateCommand = errors.New("duplicate command")

// UsageError reports a malformed command invocation. It never reaches the API.
type UsageError struct {
	Command string
	Usage   string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage: %s", e.Usage)
}

// Request is one parsed command invocation.
type Request struct {
	UserID string
	Args   []string
}

// Command is one row of the command table.
type Command struct {
	Name        string
	Usage       string
	Description string
	// Args is the exact number of arguments required, or -1 for any.
	Args    int
	Handler func(ctx context.Context, req Request) (string, error)
}

// Dispatcher turns incoming text into a reply.
type Dispatcher struct {
	api       API
	wizard    *wizard.Controller
	logger    *slog.Logger
	listLimit int

	commands []*Command
	byName   map[string]*Command
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithListLimit overrides DefaultListLimit.
func WithListLimit(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.listLimit = n
		}
	}
}

// New builds a Dispatcher and validates its command table.
func New(api API, wiz *wizard.Controller, opts ...Option) (*Dispatcher, error) {
	if api == nil {
		return nil, errors.New("bot: api is required")
	}
	if wiz == nil {
		return nil, errors.New("bot: wizard is required")
	}
	d := &Dispatcher{
		api:       api,
		wizard:    wiz,
		logger:    slog.Default(),
		listLimit: DefaultListLimit,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "dispatcher")

	if err := d.register(d.commandTable()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) register(cmds []*Command) error {
	d.byName = make(map[string]*Command, len(cmds))
	for _, c := range cmds {
		if !strings.HasPrefix(c.Name, "/") || strings.ContainsAny(c.Name, " \t\n") {
			return fmt.Errorf("bot: invalid command name %q", c.Name)
		}
		if c.Handler == nil {
			return fmt.Errorf("bot: command %s has no handler", c.Name)
		}
		if c.Name == wizard.SkipToken {
			return fmt.Errorf("bot: %s is reserved for the wizard", c.Name)
		}
		if _, exists := d.byName[c.Name]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, c.Name)
		}
		d.byName[c.Name] = c
	}
	d.commands = cmds
	return nil
}

// Commands returns the command table in display order.
func (d *Dispatcher) Commands() []*Command {
	return append([]*Command(nil), d.commands...)
}

// Handle processes one message from userID and returns the reply to send.
// An empty reply means the message is not addressed to the bot.
func (d *Dispatcher) Handle(ctx context.Context, userID, text string) string {
	requestID := uuid.NewString()
	ctx = articles.WithRequestID(ctx, requestID)
	logger := d.logger.With("user_id", userID, "request_id", requestID)

	name, args := parseCommand(text)
	if cmd, ok := d.byName[name]; ok {
		return d.runCommand(ctx, logger, cmd, Request{UserID: userID, Args: args})
	}

	reply, handled, err := d.wizard.Handle(ctx, userID, text)
	if err != nil {
		logger.Error("wizard step failed", "error", err)
		return replyInternalError
	}
	if handled {
		return reply
	}

	if name != "" {
		logger.Debug("unknown command", "command", name)
		return unknownCommand(name)
	}
	return ""
}

func (d *Dispatcher) runCommand(ctx context.Context, logger *slog.Logger, cmd *Command, req Request) string {
	if cmd.Args >= 0 && len(req.Args) != cmd.Args {
		uerr := &UsageError{Command: cmd.Name, Usage: cmd.Usage}
		logger.Debug("command usage error", "command", cmd.Name, "args", len(req.Args))
		return renderUsage(uerr)
	}

	logger.Info("command", "command", cmd.Name)
	reply, err := cmd.Handler(ctx, req)
	if err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			return renderUsage(uerr)
		}
		logger.Error("command failed", "command", cmd.Name, "error", err)
		return replyInternalError
	}
	return reply
}

// parseCommand splits "/name arg1 arg2" into its parts. Text that does not
// start with "/" yields an empty name.
func parseCommand(text string) (string, []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	return strings.ToLower(fields[0]), fields[1:]
}
