package protocol

import (
	"encoding/json"
	"fmt"
)

// ServerPacket is a decoded server frame. RequestPacketID is nil for
// server-initiated pushes and set for responses to client commands.
type ServerPacket struct {
	RequestPacketID *int64
	Payload         ServerPayload
}

// ServerPayload is the body of a server frame. Known variants form a closed
// set; frames with an unrecognized packet_type decode to UnknownPayload so
// the engine can ignore them without failing on protocol evolution.
type ServerPayload interface {
	isServerPayload()
}

// JoinedChatList is the response to GetJoinedChats.
type JoinedChatList struct {
	Chats []Chat
}

// MessagesPage is the response to GetMessages. The server sends newest
// first; callers must reverse before merging into a window.
type MessagesPage struct {
	Messages []Message
}

// UserList is the response to GetUserList.
type UserList struct {
	Users []User
}

// SuccessNoBody is the generic success response for commands with no result.
type SuccessNoBody struct{}

// ErrorResponse is an error response. ErrorData keeps the server's error
// structure opaque; the engine only logs it.
type ErrorResponse struct {
	ErrorData json.RawMessage
}

// EventList is a batch of server-pushed events, to be applied in order and
// acknowledged as one unit.
type EventList struct {
	Events []ChatEvent
}

// UnknownPayload is a frame whose packet_type the client does not know.
type UnknownPayload struct {
	Type string
}

func (JoinedChatList) isServerPayload() {}
func (MessagesPage) isServerPayload()   {}
func (UserList) isServerPayload()       {}
func (SuccessNoBody) isServerPayload()  {}
func (ErrorResponse) isServerPayload()  {}
func (EventList) isServerPayload()      {}
func (UnknownPayload) isServerPayload() {}

// ChatEvent is one entry of an EventList. Like ServerPayload this is a
// closed set with an Unknown escape hatch.
type ChatEvent interface {
	isChatEvent()
}

// ChatListUpdate announces a roster change. Action is "add", "delete" or
// "update"; only "add" is applied, the others are accepted and ignored.
type ChatListUpdate struct {
	Action string
	Chat   Chat
}

// ChatMessageEvent announces a newly arrived message.
type ChatMessageEvent struct {
	Message Message
}

// ChatMessageEdited announces that an existing message's text changed.
type ChatMessageEdited struct {
	Message Message
}

// FirstCircleUserListUpdate refreshes the user directory. IsFull selects
// wholesale replacement over incremental merge.
type FirstCircleUserListUpdate struct {
	Users  []User
	IsFull bool
}

// UnknownEvent is an event whose event_type the client does not know.
type UnknownEvent struct {
	Type string
}

func (ChatListUpdate) isChatEvent()            {}
func (ChatMessageEvent) isChatEvent()          {}
func (ChatMessageEdited) isChatEvent()         {}
func (FirstCircleUserListUpdate) isChatEvent() {}
func (UnknownEvent) isChatEvent()              {}

// DecodeServerPacket parses a server JSON text frame.
func DecodeServerPacket(data []byte) (*ServerPacket, error) {
	var env struct {
		RequestPacketID *int64          `json:"request_packet_id"`
		Data            json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode server frame: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("server frame has no data")
	}

	var head struct {
		Type string `json:"packet_type"`
	}
	if err := json.Unmarshal(env.Data, &head); err != nil {
		return nil, fmt.Errorf("decode packet_type: %w", err)
	}

	payload, err := decodePayload(head.Type, env.Data)
	if err != nil {
		return nil, err
	}
	return &ServerPacket{RequestPacketID: env.RequestPacketID, Payload: payload}, nil
}

func decodePayload(packetType string, data json.RawMessage) (ServerPayload, error) {
	switch packetType {
	case "RespGetJoinedChatList":
		var p struct {
			Chats []Chat `json:"chats"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", packetType, err)
		}
		return JoinedChatList{Chats: p.Chats}, nil
	case "RespGetMessages":
		var p struct {
			Messages []Message `json:"messages"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", packetType, err)
		}
		return MessagesPage{Messages: p.Messages}, nil
	case "SrvRespGetUserList":
		var p struct {
			Users []User `json:"users"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", packetType, err)
		}
		return UserList{Users: p.Users}, nil
	case "RespSuccessNoBody":
		return SuccessNoBody{}, nil
	case "RespError", "SrvRespError":
		var p struct {
			ErrorData json.RawMessage `json:"error_data"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", packetType, err)
		}
		return ErrorResponse{ErrorData: p.ErrorData}, nil
	case "SrvEventList":
		var p struct {
			Events []json.RawMessage `json:"events"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", packetType, err)
		}
		events := make([]ChatEvent, 0, len(p.Events))
		for _, raw := range p.Events {
			evt, err := decodeEvent(raw)
			if err != nil {
				return nil, err
			}
			events = append(events, evt)
		}
		return EventList{Events: events}, nil
	default:
		return UnknownPayload{Type: packetType}, nil
	}
}

func decodeEvent(data json.RawMessage) (ChatEvent, error) {
	var head struct {
		Type string `json:"event_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event_type: %w", err)
	}

	switch head.Type {
	case "ChatListUpdate":
		var e struct {
			Action string `json:"action_type"`
			Chat   Chat   `json:"chat_data"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return ChatListUpdate{Action: e.Action, Chat: e.Chat}, nil
	case "ChatMessageEvent":
		var e struct {
			Message Message `json:"message"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return ChatMessageEvent{Message: e.Message}, nil
	case "ChatMessageEdited":
		var e struct {
			Message Message `json:"message"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return ChatMessageEdited{Message: e.Message}, nil
	case "FirstCircleUserListUpdate":
		var e struct {
			Users  []User `json:"users"`
			IsFull bool   `json:"is_full"`
		}
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return FirstCircleUserListUpdate{Users: e.Users, IsFull: e.IsFull}, nil
	default:
		return UnknownEvent{Type: head.Type}, nil
	}
}
