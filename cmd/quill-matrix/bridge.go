// ABOUTME: Matrix bridge core for quill-matrix
// ABOUTME: Filters incoming events and feeds each sender's messages, in order, to the dispatcher

package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/dedupe"
	"github.com/2389/quill/internal/session"
)

// Handler produces the reply for one message. An empty reply sends nothing.
type Handler interface {
	Handle(ctx context.Context, userID, text string) string
}

// messenger is the outbound part of the Matrix client.
type messenger interface {
	SendText(ctx context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error)
	UserTyping(ctx context.Context, roomID id.RoomID, typing bool, timeout time.Duration) (*mautrix.RespTyping, error)
}

// Bridge connects Matrix rooms to the command dispatcher.
type Bridge struct {
	config  *config.Config
	matrix  *mautrix.Client
	out     messenger
	handler Handler
	seq     *session.Sequencer
	seen    *dedupe.Filter
	logger  *slog.Logger

	startedAt time.Time

	// ctx is the parent context for message processing jobs
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridge creates a new Matrix bridge.
func NewBridge(cfg *config.Config, handler Handler, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Matrix.Homeserver, id.UserID(cfg.Matrix.UserID), cfg.Matrix.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	logger = logger.With("component", "bridge")
	return &Bridge{
		config:    cfg,
		matrix:    client,
		out:       client,
		handler:   handler,
		seq:       session.NewSequencer(logger),
		seen:      dedupe.New(dedupe.DefaultWindow, dedupe.DefaultCapacity),
		logger:    logger,
		startedAt: time.Now(),
	}, nil
}

// Login authenticates with a password when no access token is configured,
// and fills in the device ID either way. It must run before crypto setup.
func (b *Bridge) Login(ctx context.Context) error {
	if b.config.Matrix.AccessToken == "" {
		resp, err := b.matrix.Login(ctx, &mautrix.ReqLogin{
			Type:                     mautrix.AuthTypePassword,
			Identifier:               mautrix.UserIdentifier{Type: mautrix.IdentifierTypeUser, User: b.config.Matrix.Username},
			Password:                 b.config.Matrix.Password,
			InitialDeviceDisplayName: "quill",
			StoreCredentials:         true,
		})
		if err != nil {
			return fmt.Errorf("password login: %w", err)
		}
		b.logger.Info("logged in", "user_id", resp.UserID.String(), "device_id", resp.DeviceID.String())
		return nil
	}

	who, err := b.matrix.Whoami(ctx)
	if err != nil {
		return fmt.Errorf("checking access token: %w", err)
	}
	b.matrix.UserID = who.UserID
	b.matrix.DeviceID = who.DeviceID
	b.logger.Info("using access token", "user_id", who.UserID.String(), "device_id", who.DeviceID.String())
	return nil
}

// UserID returns the bot's own Matrix ID.
func (b *Bridge) UserID() string {
	return b.matrix.UserID.String()
}

// Run starts the bridge and blocks until context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix bridge",
		"homeserver", b.config.Matrix.Homeserver,
		"user_id", b.UserID(),
		"api", b.config.API.URL,
	)

	b.ctx, b.cancel = context.WithCancel(ctx)
	defer b.cancel()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)
	if b.config.Bridge.AutoJoin {
		syncer.OnEventType(event.StateMember, b.handleMemberEvent)
	}

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(b.ctx)
	}()

	b.logger.Info("matrix bridge running")

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix bridge", "pending_users", b.seq.Pending())
		b.cancel()
		<-syncErr
		b.seq.Stop()
		return nil
	case err := <-syncErr:
		b.cancel()
		b.seq.Stop()
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent filters one m.room.message and queues it behind the
// sender's earlier messages.
func (b *Bridge) handleMessageEvent(_ context.Context, evt *event.Event) {
	text, ok := b.accept(evt)
	if !ok {
		return
	}
	if b.seen.Seen(evt.ID.String()) {
		b.logger.Debug("duplicate event ignored", "event_id", evt.ID.String())
		return
	}

	b.logger.Info("received message",
		"room", evt.RoomID.String(),
		"sender", evt.Sender.String(),
		"content", truncate(text, 50),
	)

	roomID, sender := evt.RoomID, evt.Sender
	queued := b.seq.Submit(sender.String(), func() {
		b.processMessage(b.ctx, roomID, sender, text)
	})
	if !queued {
		b.logger.Warn("bridge stopping, message dropped", "event_id", evt.ID.String())
	}
}

// accept returns the message text when evt is something the bot answers.
func (b *Bridge) accept(evt *event.Event) (string, bool) {
	if evt.Sender == b.matrix.UserID {
		return "", false
	}
	if evt.Timestamp < b.startedAt.UnixMilli() {
		return "", false
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok {
		return "", false
	}
	if content.MsgType != event.MsgText {
		return "", false
	}
	if content.RelatesTo != nil && content.RelatesTo.Type == event.RelReplace {
		return "", false
	}

	if !b.isRoomAllowed(evt.RoomID.String()) {
		b.logger.Debug("ignoring message from non-allowed room", "room", evt.RoomID.String())
		return "", false
	}
	if !b.isUserAllowed(evt.Sender.String()) {
		b.logger.Debug("ignoring message from non-allowed user", "sender", evt.Sender.String())
		return "", false
	}

	if content.Body == "" {
		return "", false
	}
	return content.Body, true
}

// processMessage runs the dispatcher for one message and posts the reply.
func (b *Bridge) processMessage(ctx context.Context, roomID id.RoomID, sender id.UserID, text string) {
	if b.config.Bridge.TypingIndicator {
		b.setTyping(roomID, true)
		defer b.setTyping(roomID, false)
	}

	reply := b.handler.Handle(ctx, sender.String(), text)
	if reply == "" {
		return
	}

	b.logger.Info("sending reply",
		"room", roomID.String(),
		"sender", sender.String(),
		"length", len(reply),
	)
	b.sendMessage(roomID, reply)
}

// handleMemberEvent joins rooms the bot is invited to.
func (b *Bridge) handleMemberEvent(ctx context.Context, evt *event.Event) {
	if evt.GetStateKey() != b.UserID() {
		return
	}
	if evt.Content.AsMember().Membership != event.MembershipInvite {
		return
	}
	if !b.isRoomAllowed(evt.RoomID.String()) || !b.isUserAllowed(evt.Sender.String()) {
		b.logger.Info("declining invite", "room", evt.RoomID.String(), "sender", evt.Sender.String())
		return
	}

	joinCtx, cancel := context.WithTimeout(ctx, networkTimeout)
	defer cancel()
	if _, err := b.matrix.JoinRoomByID(joinCtx, evt.RoomID); err != nil {
		b.logger.Error("failed to join room", "room", evt.RoomID.String(), "error", err)
		return
	}
	b.logger.Info("joined room", "room", evt.RoomID.String(), "inviter", evt.Sender.String())
}

// isRoomAllowed checks if the room is in the allowed list.
func (b *Bridge) isRoomAllowed(roomID string) bool {
	return len(b.config.Bridge.AllowedRooms) == 0 || slices.Contains(b.config.Bridge.AllowedRooms, roomID)
}

// isUserAllowed checks if the sender is in the allowed list.
func (b *Bridge) isUserAllowed(userID string) bool {
	return len(b.config.Bridge.AllowedUsers) == 0 || slices.Contains(b.config.Bridge.AllowedUsers, userID)
}

// typingTimeout is the duration the typing indicator shows (30 seconds).
const typingTimeout = 30 * time.Second

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

func (b *Bridge) setTyping(roomID id.RoomID, typing bool) {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if _, err := b.out.UserTyping(ctx, roomID, typing, timeout); err != nil {
		b.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

func (b *Bridge) sendMessage(roomID id.RoomID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := b.out.SendText(ctx, roomID, text); err != nil {
		b.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
