// ABOUTME: Tests for quill-matrix event filtering, ordering, and reply delivery
// ABOUTME: Uses a fake outbound messenger and handler so no homeserver is needed

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/2389/quill/internal/config"
	"github.com/2389/quill/internal/dedupe"
	"github.com/2389/quill/internal/session"
)

const botID = "@quill:example.org"

type sent struct {
	Room id.RoomID
	Text string
}

type fakeMessenger struct {
	mu     sync.Mutex
	sent   []sent
	typing []bool
}

func (m *fakeMessenger) SendText(_ context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sent{Room: roomID, Text: text})
	return &mautrix.RespSendEvent{}, nil
}

func (m *fakeMessenger) UserTyping(_ context.Context, _ id.RoomID, typing bool, _ time.Duration) (*mautrix.RespTyping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, typing)
	return &mautrix.RespTyping{}, nil
}

func (m *fakeMessenger) messages() []sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sent(nil), m.sent...)
}

// echoHandler replies "<user>: <text>" and records call order per user.
type echoHandler struct {
	mu    sync.Mutex
	calls map[string][]string
}

func (h *echoHandler) Handle(_ context.Context, userID, text string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.calls == nil {
		h.calls = map[string][]string{}
	}
	h.calls[userID] = append(h.calls[userID], text)
	if text == "quiet" {
		return ""
	}
	return userID + ": " + text
}

func newTestBridge(t *testing.T, bridgeCfg config.BridgeConfig) (*Bridge, *fakeMessenger, *echoHandler) {
	t.Helper()
	client, err := mautrix.NewClient("https://matrix.example.org", id.UserID(botID), "token")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	out := &fakeMessenger{}
	h := &echoHandler{}
	b := &Bridge{
		config:    &config.Config{Bridge: bridgeCfg},
		matrix:    client,
		out:       out,
		handler:   h,
		seq:       session.NewSequencer(logger),
		seen:      dedupe.New(time.Minute, 100),
		logger:    logger,
		startedAt: time.Now().Add(-time.Second),
		ctx:       context.Background(),
	}
	return b, out, h
}

var eventCounter int

func textEvent(sender, room, body string) *event.Event {
	eventCounter++
	return &event.Event{
		ID:        id.EventID(fmt.Sprintf("$event%d", eventCounter)),
		Sender:    id.UserID(sender),
		RoomID:    id.RoomID(room),
		Type:      event.EventMessage,
		Timestamp: time.Now().UnixMilli(),
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType: event.MsgText,
			Body:    body,
		}},
	}
}

func TestAccept(t *testing.T) {
	b, _, _ := newTestBridge(t, config.BridgeConfig{})

	text, ok := b.accept(textEvent("@alice:example.org", "!room:example.org", "/help"))
	assert.True(t, ok)
	assert.Equal(t, "/help", text)

	_, ok = b.accept(textEvent(botID, "!room:example.org", "my own reply"))
	assert.False(t, ok, "own messages")

	old := textEvent("@alice:example.org", "!room:example.org", "/help")
	old.Timestamp = b.startedAt.Add(-time.Hour).UnixMilli()
	_, ok = b.accept(old)
	assert.False(t, ok, "backlog from before startup")

	notice := textEvent("@alice:example.org", "!room:example.org", "hi")
	notice.Content.Parsed.(*event.MessageEventContent).MsgType = event.MsgNotice
	_, ok = b.accept(notice)
	assert.False(t, ok, "non-text msgtype")

	edit := textEvent("@alice:example.org", "!room:example.org", "* fixed")
	edit.Content.Parsed.(*event.MessageEventContent).RelatesTo = &event.RelatesTo{Type: event.RelReplace, EventID: "$orig"}
	_, ok = b.accept(edit)
	assert.False(t, ok, "edits")

	_, ok = b.accept(textEvent("@alice:example.org", "!room:example.org", ""))
	assert.False(t, ok, "empty body")

	unparsed := textEvent("@alice:example.org", "!room:example.org", "x")
	unparsed.Content.Parsed = nil
	_, ok = b.accept(unparsed)
	assert.False(t, ok, "unparsed content")
}

func TestAccept_AllowLists(t *testing.T) {
	b, _, _ := newTestBridge(t, config.BridgeConfig{
		AllowedRooms: []string{"!ok:example.org"},
		AllowedUsers: []string{"@alice:example.org"},
	})

	_, ok := b.accept(textEvent("@alice:example.org", "!ok:example.org", "hi"))
	assert.True(t, ok)
	_, ok = b.accept(textEvent("@alice:example.org", "!other:example.org", "hi"))
	assert.False(t, ok)
	_, ok = b.accept(textEvent("@mallory:example.org", "!ok:example.org", "hi"))
	assert.False(t, ok)
}

func TestHandleMessageEvent_RepliesInRoom(t *testing.T) {
	b, out, _ := newTestBridge(t, config.BridgeConfig{TypingIndicator: true})

	b.handleMessageEvent(context.Background(), textEvent("@alice:example.org", "!room:example.org", "/help"))
	b.seq.Wait()

	msgs := out.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, id.RoomID("!room:example.org"), msgs[0].Room)
	assert.Equal(t, "@alice:example.org: /help", msgs[0].Text)
	assert.Equal(t, []bool{true, false}, out.typing)
}

func TestHandleMessageEvent_EmptyReplySendsNothing(t *testing.T) {
	b, out, h := newTestBridge(t, config.BridgeConfig{})

	b.handleMessageEvent(context.Background(), textEvent("@alice:example.org", "!room:example.org", "quiet"))
	b.seq.Wait()

	assert.Empty(t, out.messages())
	assert.Equal(t, []string{"quiet"}, h.calls["@alice:example.org"])
	assert.Empty(t, out.typing, "typing indicator disabled")
}

func TestHandleMessageEvent_DropsRedeliveredEvents(t *testing.T) {
	b, out, _ := newTestBridge(t, config.BridgeConfig{})

	evt := textEvent("@alice:example.org", "!room:example.org", "/list_drafts")
	b.handleMessageEvent(context.Background(), evt)
	b.handleMessageEvent(context.Background(), evt)
	b.seq.Wait()

	assert.Len(t, out.messages(), 1)
}

func TestHandleMessageEvent_PreservesPerSenderOrder(t *testing.T) {
	b, _, h := newTestBridge(t, config.BridgeConfig{})

	var want []string
	for i := 0; i < 30; i++ {
		text := fmt.Sprintf("answer %d", i)
		want = append(want, text)
		b.handleMessageEvent(context.Background(), textEvent("@alice:example.org", "!room:example.org", text))
		b.handleMessageEvent(context.Background(), textEvent("@bob:example.org", "!room:example.org", text))
	}
	b.seq.Wait()

	assert.Equal(t, want, h.calls["@alice:example.org"])
	assert.Equal(t, want, h.calls["@bob:example.org"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "héllo...", truncate("héllo wörld", 5))
}

func TestHandleMessageEvent_AfterStopDropsMessages(t *testing.T) {
	b, out, h := newTestBridge(t, config.BridgeConfig{})

	b.handleMessageEvent(context.Background(), textEvent("@alice:example.org", "!room:example.org", "first"))
	b.seq.Stop()
	b.handleMessageEvent(context.Background(), textEvent("@alice:example.org", "!room:example.org", "late"))

	assert.Equal(t, []string{"first"}, h.calls["@alice:example.org"])
	assert.Len(t, out.messages(), 1)
	assert.Equal(t, 0, b.seq.Pending())
}
