package protocol

import (
	"encoding/json"
	"fmt"
)

// Command is a client-to-server command. The set is closed: EncodeCommand
// switches exhaustively over it.
type Command interface {
	isCommand()
}

// GetJoinedChats requests the roster of chats the user belongs to.
type GetJoinedChats struct{}

// GetMessages requests a page of messages for a chat, newest first.
// StartID, when set, is an exclusive upper bound used as a pagination cursor.
type GetMessages struct {
	ChatID  string
	StartID *int64
	Limit   int
}

// SendMessage posts a new user message to a chat.
type SendMessage struct {
	ChatID   string
	Text     string
	SenderID string
}

// EditMessage replaces the text of an existing message.
type EditMessage struct {
	MessageID string
	Text      string
}

// AddUserToChat adds a user to a chat owned by the current user.
type AddUserToChat struct {
	UserID string
	ChatID string
}

// CreateChat creates a new chat.
type CreateChat struct {
	ChatID  string
	Title   string
	OwnerID string
}

// GetUserList requests users whose display name matches the filter.
type GetUserList struct {
	NameFilter string
}

// GetFirstCircleUpdates requests a refresh of the first-circle user
// directory; results arrive as FirstCircleUserListUpdate events.
type GetFirstCircleUpdates struct{}

// AcknowledgeEvents confirms that the last delivered event batch was applied.
type AcknowledgeEvents struct{}

func (GetJoinedChats) isCommand()        {}
func (GetMessages) isCommand()           {}
func (SendMessage) isCommand()           {}
func (EditMessage) isCommand()           {}
func (AddUserToChat) isCommand()         {}
func (CreateChat) isCommand()            {}
func (GetUserList) isCommand()           {}
func (GetFirstCircleUpdates) isCommand() {}
func (AcknowledgeEvents) isCommand()     {}

type clientEnvelope struct {
	ID   int64 `json:"id"`
	Data any   `json:"data"`
}

// EncodeCommand wraps a command in the client envelope under the given
// request id and marshals it to a JSON text frame.
func EncodeCommand(id int64, cmd Command) ([]byte, error) {
	var data any
	switch c := cmd.(type) {
	case GetJoinedChats:
		data = struct {
			Type string `json:"packet_type"`
		}{"CMDGetJoinedChats"}
	case GetMessages:
		data = struct {
			Type    string `json:"packet_type"`
			ChatID  string `json:"chat_id"`
			StartID *int64 `json:"start_id,omitempty"`
			Limit   int    `json:"limit"`
		}{"CMDGetMessages", c.ChatID, c.StartID, c.Limit}
	case SendMessage:
		type wireMessage struct {
			ChatID         string `json:"chat_id"`
			Text           string `json:"text"`
			SenderID       string `json:"sender_id"`
			IsNotification bool   `json:"is_notification"`
		}
		data = struct {
			Type    string      `json:"packet_type"`
			Message wireMessage `json:"message"`
		}{"CMDSendMessage", wireMessage{c.ChatID, c.Text, c.SenderID, false}}
	case EditMessage:
		data = struct {
			Type      string `json:"packet_type"`
			MessageID string `json:"message_id"`
			Text      string `json:"text"`
		}{"CMDEditMessage", c.MessageID, c.Text}
	case AddUserToChat:
		data = struct {
			Type   string `json:"packet_type"`
			UserID string `json:"user_id"`
			ChatID string `json:"chat_id"`
		}{"CMDAddUserToChat", c.UserID, c.ChatID}
	case CreateChat:
		type wireChat struct {
			ID      string `json:"id"`
			Title   string `json:"title"`
			OwnerID string `json:"owner_id"`
		}
		data = struct {
			Type     string   `json:"packet_type"`
			ChatData wireChat `json:"chat_data"`
		}{"CMDCreateChat", wireChat{c.ChatID, c.Title, c.OwnerID}}
	case GetUserList:
		data = struct {
			Type       string `json:"packet_type"`
			NameFilter string `json:"name_filter"`
		}{"CMDGetUserList", c.NameFilter}
	case GetFirstCircleUpdates:
		data = struct {
			Type string `json:"packet_type"`
		}{"CMDGetFirstCircleListUpdates"}
	case AcknowledgeEvents:
		data = struct {
			Type string `json:"packet_type"`
		}{"CMDAcknowledgeEvents"}
	default:
		return nil, fmt.Errorf("unencodable command %T", cmd)
	}
	return json.Marshal(clientEnvelope{ID: id, Data: data})
}
