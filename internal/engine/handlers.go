package engine

import (
	"go.uber.org/zap"

	"github.com/matheus3301/chatsync/internal/bus"
	"github.com/matheus3301/chatsync/internal/protocol"
)

// HandleFrame applies one decoded server frame. The connection delivers
// frames sequentially, so handlers run in arrival order.
func (e *Engine) HandleFrame(pkt *protocol.ServerPacket) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch p := pkt.Payload.(type) {
	case protocol.JoinedChatList:
		e.logger.Info("joined chat list received", zap.Int("chats", len(p.Chats)))
		e.roster.SetAll(p.Chats)
		e.bus.Emit(bus.KindRosterChanged, e.roster.Snapshot())

	case protocol.MessagesPage:
		if len(p.Messages) == 0 {
			return
		}
		chatID := p.Messages[0].ChatID
		// The wire page is newest first; merge expects ascending ids.
		e.mergeMessages(chatID, reverse(p.Messages))

	case protocol.UserList:
		if pkt.RequestPacketID == nil || *pkt.RequestPacketID != e.lastUserListReqID {
			e.logger.Info("discarding stale user list response")
			return
		}
		e.bus.Emit(bus.KindSearchResults, append([]protocol.User(nil), p.Users...))

	case protocol.EventList:
		for _, evt := range p.Events {
			e.applyEvent(evt)
		}
		// One acknowledgement per batch, after every event applied.
		e.send(protocol.AcknowledgeEvents{})

	case protocol.SuccessNoBody:
		// Fire-and-forget command confirmed; nothing to update.

	case protocol.ErrorResponse:
		e.logger.Warn("server reported an error",
			zap.ByteString("error_data", p.ErrorData),
			zap.Int64p("request_packet_id", pkt.RequestPacketID))

	case protocol.UnknownPayload:
		e.logger.Warn("ignoring unknown server packet", zap.String("packet_type", p.Type))
	}
}

func (e *Engine) applyEvent(evt protocol.ChatEvent) {
	switch ev := evt.(type) {
	case protocol.ChatListUpdate:
		if ev.Action != "add" {
			e.logger.Warn("unsupported chat list action ignored", zap.String("action", ev.Action))
			return
		}
		e.roster.Add(ev.Chat)
		e.bus.Emit(bus.KindRosterChanged, e.roster.Snapshot())

	case protocol.ChatMessageEvent:
		e.mergeMessages(ev.Message.ChatID, []protocol.Message{ev.Message})

	case protocol.ChatMessageEdited:
		e.applyEdit(ev.Message)

	case protocol.FirstCircleUserListUpdate:
		e.directory.Apply(ev.Users, ev.IsFull)

	case protocol.UnknownEvent:
		e.logger.Warn("ignoring unknown chat event", zap.String("event_type", ev.Type))
	}
}

// mergeMessages inserts an ascending batch into the chat's window, updates
// the roster preview when the chat's newest message changed, resolves
// sender names, and republishes the window when the chat is selected.
func (e *Engine) mergeMessages(chatID string, batch []protocol.Message) {
	for i := range batch {
		if batch[i].IsNotification {
			batch[i].Text = e.directory.NotificationText(batch[i].Text, batch[i].Params)
		}
	}

	res := e.windows.Merge(chatID, batch)
	if res.NewestChanged && e.roster.UpdatePreview(chatID, res.Newest.Text) {
		e.bus.Emit(bus.KindRosterChanged, e.roster.Snapshot())
	}

	w := e.windows.Get(chatID)
	for i := range w.Messages {
		e.directory.ResolveSender(&w.Messages[i])
	}

	if e.selected != nil && e.selected.ID == chatID {
		e.bus.Emit(bus.KindMessagesChanged, w.Snapshot())
	}
}

// applyEdit replaces an already-loaded message. An edit for a chat with no
// loaded window can't be applied in place, so that chat's newest page is
// fetched instead.
func (e *Engine) applyEdit(msg protocol.Message) {
	e.directory.ResolveSender(&msg)

	w := e.windows.Get(msg.ChatID)
	if w == nil {
		e.logger.Warn("edit for chat with no loaded messages, requesting them",
			zap.String("chat_id", msg.ChatID))
		e.requestMessages(msg.ChatID, nil)
		return
	}

	if !w.Replace(msg) {
		e.logger.Warn("edited message not in window", zap.String("message_id", msg.ID))
	}
	if e.selected != nil && e.selected.ID == msg.ChatID {
		e.bus.Emit(bus.KindMessagesChanged, w.Snapshot())
	}
	// Editing the newest message rewrites the chat preview.
	if msg.NumericID() == w.MaxID && e.roster.UpdatePreview(msg.ChatID, msg.Text) {
		e.bus.Emit(bus.KindRosterChanged, e.roster.Snapshot())
	}
}

func reverse(msgs []protocol.Message) []protocol.Message {
	out := make([]protocol.Message, len(msgs))
	for i, m := range msgs {
		out[len(msgs)-1-i] = m
	}
	return out
}
