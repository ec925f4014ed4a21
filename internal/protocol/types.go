// Package protocol defines the JSON frame protocol spoken with the chat
// server: client commands, server responses and server-pushed events.
//
// Client frames look like {"id": N, "data": {"packet_type": ..., ...}} where
// N is a strictly increasing request id. Server frames look like
// {"request_packet_id": N|null, "data": {"packet_type": ..., ...}} where the
// id, when present, correlates the response to its originating command.
package protocol

import "strconv"

// Chat is a chat the current user belongs to, as transmitted by the server.
type Chat struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	OwnerID         string  `json:"owner_id"`
	LastMessageText *string `json:"last_message_text"`
	MembersCount    int     `json:"members_count"`
}

// Message is a chat message or system notification. IDs are numeric strings
// assigned by the server; ordering within a chat follows the numeric value.
// SenderName is resolved client-side from the user directory and is never
// transmitted.
type Message struct {
	ID             string `json:"id"`
	ChatID         string `json:"chat_id"`
	DT             string `json:"dt"`
	Text           string `json:"text"`
	IsNotification bool   `json:"is_notification"`
	SenderID       string `json:"sender_id,omitempty"`
	Params         string `json:"params,omitempty"`
	SenderName     string `json:"-"`
}

// NumericID returns the message id as an integer. Malformed ids order as 0.
func (m Message) NumericID() int64 {
	n, _ := strconv.ParseInt(m.ID, 10, 64)
	return n
}

// User is a directory entry mapping a user id to a display name.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
