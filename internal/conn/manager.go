// Package conn owns the websocket connection to the chat server: dialing,
// the read loop, reconnecting with a fixed delay, and stamping outbound
// commands with request ids.
package conn

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/matheus3301/chatsync/internal/identity"
	"github.com/matheus3301/chatsync/internal/protocol"
	"github.com/matheus3301/chatsync/internal/status"
)

// FrameHandler receives each decoded server frame in arrival order.
type FrameHandler func(pkt *protocol.ServerPacket)

// Manager maintains one connection to the chat server. A dropped connection
// is redialed after a fixed delay until Disconnect is called; each successful
// (re)open invokes the connected hook so the engine can re-bootstrap.
type Manager struct {
	serverURL      string
	reconnectDelay time.Duration
	machine        *status.Machine
	logger         *zap.Logger

	lastPacketID atomic.Int64

	onConnected func()
	onFrame     FrameHandler

	mu      sync.Mutex
	ws      *websocket.Conn
	ctx     context.Context
	running bool
	cancel  context.CancelFunc
}

// NewManager creates a manager for the given websocket endpoint.
func NewManager(serverURL string, reconnectDelay time.Duration, machine *status.Machine, logger *zap.Logger) *Manager {
	return &Manager{
		serverURL:      serverURL,
		reconnectDelay: reconnectDelay,
		machine:        machine,
		logger:         logger,
	}
}

// OnConnected registers the hook invoked after every successful dial.
// Must be set before Connect.
func (m *Manager) OnConnected(hook func()) {
	m.onConnected = hook
}

// OnFrame registers the handler for inbound frames. Must be set before
// Connect. Frames are delivered sequentially from a single goroutine.
func (m *Manager) OnFrame(h FrameHandler) {
	m.onFrame = h
}

// Connect opens the connection for the given identity and starts the
// read/reconnect loop. Calling it while already connected logs a warning
// and does nothing.
func (m *Manager) Connect(ctx context.Context, id identity.Identity) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Warn("connect called while already connected, disconnect first")
		return
	}
	m.running = true
	ctx, m.cancel = context.WithCancel(ctx)
	m.ctx = ctx
	m.mu.Unlock()

	go m.run(ctx, m.endpoint(id))
}

// Disconnect closes the active connection and stops reconnecting. Safe to
// call when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	ws := m.ws
	m.ws = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws != nil {
		_ = ws.Close(websocket.StatusNormalClosure, "")
	}
	if m.machine.Current() != status.Disconnected {
		_ = m.machine.Transition(status.Disconnected)
	}
	m.logger.Info("disconnected from chat server")
}

// Send stamps the command with a fresh request id and writes it. When no
// connection exists the command is dropped with a log line — there is no
// offline queue. Returns the assigned id and whether the frame was written.
// The write is bound to the run context, so Disconnect aborts a write
// stalled on a peer that stopped reading.
func (m *Manager) Send(cmd protocol.Command) (int64, bool) {
	m.mu.Lock()
	ws := m.ws
	ctx := m.ctx
	m.mu.Unlock()

	if ws == nil {
		m.logger.Warn("attempt to send while disconnected, command dropped",
			zap.String("command", commandName(cmd)))
		return 0, false
	}

	id := m.lastPacketID.Add(1)
	frame, err := protocol.EncodeCommand(id, cmd)
	if err != nil {
		m.logger.Error("failed to encode command", zap.Error(err))
		return id, false
	}
	if err := ws.Write(ctx, websocket.MessageText, frame); err != nil {
		m.logger.Error("failed to write frame", zap.Error(err), zap.Int64("packet_id", id))
		return id, false
	}
	return id, true
}

// endpoint appends the identity query parameter to the server URL.
func (m *Manager) endpoint(id identity.Identity) string {
	u, err := url.Parse(m.serverURL)
	if err != nil {
		// Let the dial fail with the raw string; the error surfaces there.
		return m.serverURL
	}
	q := u.Query()
	key, value := id.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// run dials, reads until the connection drops, and redials after a fixed
// delay. It exits only on explicit disconnect (context cancellation).
func (m *Manager) run(ctx context.Context, endpoint string) {
	for {
		ws, _, err := websocket.Dial(ctx, endpoint, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.logger.Warn("dial failed, retrying", zap.Error(err), zap.Duration("delay", m.reconnectDelay))
			m.toReconnecting()
			if !m.sleep(ctx) {
				return
			}
			continue
		}

		m.mu.Lock()
		m.ws = ws
		m.mu.Unlock()

		if m.machine.Current() != status.Connected {
			_ = m.machine.Transition(status.Connected)
		}
		m.logger.Info("connected to chat server")
		if m.onConnected != nil {
			m.onConnected()
		}

		m.readLoop(ctx, ws)

		m.mu.Lock()
		m.ws = nil
		m.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		m.logger.Warn("connection lost, reconnecting", zap.Duration("delay", m.reconnectDelay))
		m.toReconnecting()
		if !m.sleep(ctx) {
			return
		}
	}
}

// readLoop delivers decoded frames in arrival order until a read error.
func (m *Manager) readLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		pkt, err := protocol.DecodeServerPacket(data)
		if err != nil {
			m.logger.Warn("dropping undecodable frame", zap.Error(err))
			continue
		}
		if m.onFrame != nil {
			m.onFrame(pkt)
		}
	}
}

func (m *Manager) toReconnecting() {
	if m.machine.Current() != status.Reconnecting {
		_ = m.machine.Transition(status.Reconnecting)
	}
}

// sleep waits the fixed reconnect delay; false when the context is done.
func (m *Manager) sleep(ctx context.Context) bool {
	select {
	case <-time.After(m.reconnectDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

func commandName(cmd protocol.Command) string {
	switch cmd.(type) {
	case protocol.GetJoinedChats:
		return "GetJoinedChats"
	case protocol.GetMessages:
		return "GetMessages"
	case protocol.SendMessage:
		return "SendMessage"
	case protocol.EditMessage:
		return "EditMessage"
	case protocol.AddUserToChat:
		return "AddUserToChat"
	case protocol.CreateChat:
		return "CreateChat"
	case protocol.GetUserList:
		return "GetUserList"
	case protocol.GetFirstCircleUpdates:
		return "GetFirstCircleUpdates"
	case protocol.AcknowledgeEvents:
		return "AcknowledgeEvents"
	default:
		return "unknown"
	}
}
