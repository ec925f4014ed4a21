// Package engine orchestrates the chat client state: it drives the
// connection, applies server responses and events to the roster, the
// per-chat message windows and the user directory, and publishes immutable
// snapshots on the bus for the presentation layer.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/chatsync/internal/bus"
	"github.com/matheus3301/chatsync/internal/directory"
	"github.com/matheus3301/chatsync/internal/identity"
	"github.com/matheus3301/chatsync/internal/protocol"
	"github.com/matheus3301/chatsync/internal/roster"
	"github.com/matheus3301/chatsync/internal/status"
	"github.com/matheus3301/chatsync/internal/window"
)

// Transport is the connection surface the engine drives. *conn.Manager
// implements it.
type Transport interface {
	Connect(ctx context.Context, id identity.Identity)
	Disconnect()
	Send(cmd protocol.Command) (int64, bool)
}

// Options tunes engine behavior.
type Options struct {
	// PageLimit is the number of messages requested per history page.
	PageLimit int

	// ConnectDelay debounces the first dial after Connect so rapid
	// identity changes don't cause connect storms.
	ConnectDelay time.Duration
}

// Engine owns the roster, the message windows and the user directory.
// All mutation is serialized behind one mutex: inbound frames arrive
// sequentially from the connection's read goroutine and presentation-layer
// calls interleave atomically with them, so every handler sees consistent
// state. Consumers only ever receive copies via bus snapshots.
type Engine struct {
	transport Transport
	machine   *status.Machine
	bus       *bus.Bus
	logger    *zap.Logger
	opts      Options

	mu        sync.Mutex
	roster    *roster.Roster
	windows   *window.Store
	directory *directory.Directory
	selected  *protocol.Chat
	userID    string

	// lastUserListReqID is the correlation id of the most recent user
	// search; responses to older searches are stale and discarded.
	lastUserListReqID int64

	connectTimer *time.Timer
}

// New creates an engine. Wire HandleConnected and HandleFrame into the
// transport before connecting.
func New(t Transport, machine *status.Machine, b *bus.Bus, opts Options, logger *zap.Logger) *Engine {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 5
	}
	return &Engine{
		transport: t,
		machine:   machine,
		bus:       b,
		logger:    logger,
		opts:      opts,
		roster:    roster.New(),
		windows:   window.NewStore(),
		directory: directory.New(),
	}
}

// UserID returns the id of the connected user, empty before Connect.
func (e *Engine) UserID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userID
}

// Connect resolves the identity and schedules the dial after the configured
// debounce. Calling it while not disconnected logs a warning and does
// nothing.
func (e *Engine) Connect(identityStr string) error {
	id, err := identity.Resolve(identityStr)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.machine.Transition(status.Connecting); err != nil {
		e.logger.Warn("connect ignored", zap.String("state", string(e.machine.Current())))
		return nil
	}
	e.userID = id.UserID
	e.connectTimer = time.AfterFunc(e.opts.ConnectDelay, func() {
		e.transport.Connect(context.Background(), id)
	})
	return nil
}

// Disconnect closes the connection. Loaded state is kept until the next
// successful connect so the presentation layer retains its last known view.
func (e *Engine) Disconnect() {
	e.mu.Lock()
	pending := false
	if e.connectTimer != nil {
		pending = e.connectTimer.Stop()
		e.connectTimer = nil
	}
	e.mu.Unlock()

	e.transport.Disconnect()

	// A debounced dial that never fired leaves the transport with nothing
	// to close, so the machine has to be driven back down here or the next
	// Connect would find it stuck in CONNECTING.
	if pending && e.machine.Current() != status.Disconnected {
		_ = e.machine.Transition(status.Disconnected)
	}
}

// HandleConnected runs after every successful dial: message windows are
// dropped, the roster and directory are re-requested, and the selected
// chat's messages are re-fetched. Windows of other previously viewed chats
// are refetched only on demand.
func (e *Engine) HandleConnected() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.windows.Clear()
	e.send(protocol.GetJoinedChats{})
	e.send(protocol.GetFirstCircleUpdates{})
	if e.selected != nil {
		e.requestMessages(e.selected.ID, nil)
	}
}

// SelectChat makes the given chat current. Selecting a chat that is not in
// the roster is a no-op. An already-loaded window is re-emitted as is;
// otherwise the message snapshot is cleared and the newest page requested.
func (e *Engine) SelectChat(chat protocol.Chat) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.roster.Contains(chat.ID) {
		e.logger.Debug("select of unknown chat ignored", zap.String("chat_id", chat.ID))
		return
	}
	selected := chat
	e.selected = &selected
	e.bus.Emit(bus.KindSelectedChanged, &selected)

	if w := e.windows.Get(chat.ID); w != nil {
		e.bus.Emit(bus.KindMessagesChanged, w.Snapshot())
		return
	}
	e.bus.Emit(bus.KindMessagesChanged, []protocol.Message{})
	e.requestMessages(chat.ID, nil)
}

// SendMessage posts a new message to a chat.
func (e *Engine) SendMessage(text, chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send(protocol.SendMessage{ChatID: chatID, Text: text, SenderID: e.userID})
}

// EditMessage replaces the text of an existing message.
func (e *Engine) EditMessage(messageID, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send(protocol.EditMessage{MessageID: messageID, Text: text})
}

// AddUserToChat adds a user to a chat.
func (e *Engine) AddUserToChat(userID, chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.send(protocol.AddUserToChat{UserID: userID, ChatID: chatID})
}

// CreateChat creates a chat. A missing id gets a fresh UUID and a missing
// owner defaults to the current user.
func (e *Engine) CreateChat(info protocol.Chat) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if info.ID == "" {
		info.ID = uuid.NewString()
	}
	if info.OwnerID == "" {
		info.OwnerID = e.userID
	}
	e.send(protocol.CreateChat{ChatID: info.ID, Title: info.Title, OwnerID: info.OwnerID})
}

// SearchUsers requests users matching the name filter. Only the most recent
// search's response is applied; earlier in-flight responses are discarded.
func (e *Engine) SearchUsers(nameFilter string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.send(protocol.GetUserList{NameFilter: nameFilter})
	if ok {
		e.lastUserListReqID = id
	}
}

// LoadPreviousMessages requests the page before the oldest loaded message.
// The newest page must have been loaded first.
func (e *Engine) LoadPreviousMessages(chatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	w := e.windows.Get(chatID)
	if w == nil {
		e.logger.Warn("loadPreviousMessages called before loading last messages",
			zap.String("chat_id", chatID))
		return
	}
	cursor := w.MinID
	e.requestMessages(chatID, &cursor)
}

// send rejects commands outside the Connected state, otherwise forwards to
// the transport. The presentation layer never needs to guard connection
// state itself.
func (e *Engine) send(cmd protocol.Command) (int64, bool) {
	if e.machine.Current() != status.Connected {
		e.logger.Warn("command rejected while not connected",
			zap.String("state", string(e.machine.Current())))
		return 0, false
	}
	return e.transport.Send(cmd)
}

func (e *Engine) requestMessages(chatID string, startID *int64) {
	e.send(protocol.GetMessages{ChatID: chatID, StartID: startID, Limit: e.opts.PageLimit})
}
