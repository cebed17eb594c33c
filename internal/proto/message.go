package proto

import (
	"encoding/json"
	"fmt"
)

// Frame is the envelope for every message on the socket, in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

const (
	// EventConnect is the handshake frame (client) and its acknowledgement (server).
	EventConnect    = "connect"
	EventDisconnect = "disconnect"

	EventJoinChat         = "join_chat"
	EventLeaveChat        = "leave_chat"
	EventSendMessage      = "send_message"
	EventTypingStart      = "typing_start"
	EventTypingStop       = "typing_stop"
	EventAddReaction      = "add_reaction"
	EventRemoveReaction   = "remove_reaction"
	EventMarkMessagesRead = "mark_messages_read"

	EventUserStatusChange       = "user_status_change"
	EventNewMessage             = "new_message"
	EventUserTyping             = "user_typing"
	EventUserStopTyping         = "user_stop_typing"
	EventReactionAdded          = "message_reaction_added"
	EventReactionRemoved        = "message_reaction_removed"
	EventMessagesRead           = "messages_read"
	EventJoinedChat             = "joined_chat"
	EventLeftChat               = "left_chat"
	EventNewMessageNotification = "new_message_notification"
	EventError                  = "error"
)

// NewFrame marshals data into a frame for the given event. A nil data
// produces a frame without payload.
func NewFrame(event string, data any) (Frame, error) {
	if data == nil {
		return Frame{Event: event}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s: %w", event, err)
	}
	return Frame{Event: event, Data: raw}, nil
}

// Decode unmarshals the frame payload into v.
func (f Frame) Decode(v any) error {
	if len(f.Data) == 0 {
		return fmt.Errorf("decode %s: empty payload", f.Event)
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", f.Event, err)
	}
	return nil
}

// Handshake authenticates the socket. It is the first frame a client writes.
type Handshake struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// HandshakeAck is the optional payload of the server's connect frame.
type HandshakeAck struct {
	UserID string `json:"userId,omitempty"`
}

// DisconnectData is the optional payload of a server-initiated disconnect.
type DisconnectData struct {
	Reason string `json:"reason,omitempty"`
}

// ChatRef addresses a chat room. Used by join/leave requests, their
// acknowledgements and read receipts.
type ChatRef struct {
	ChatID string `json:"chatId"`
}

// SendMessage is the outbound chat message.
type SendMessage struct {
	ChatID  string  `json:"chatId"`
	Content string  `json:"content"`
	Type    string  `json:"type"`
	ReplyTo *string `json:"replyTo"`
}

// ReactionRef adds or removes a reaction on a message.
type ReactionRef struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// UserStatus reports a presence change of another user.
type UserStatus struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// Sender is the author summary embedded in messages and notifications.
type Sender struct {
	ID       string `json:"_id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// UnmarshalJSON accepts a populated sender object or a bare sender id.
func (s *Sender) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*s = Sender{ID: id}
		return nil
	}

	type plain Sender
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Sender(v)
	return nil
}

// Message is a chat message pushed by the server.
type Message struct {
	ID        string  `json:"_id"`
	ChatID    string  `json:"chatId"`
	Sender    Sender  `json:"sender"`
	Content   string  `json:"content"`
	Type      string  `json:"type"`
	ReplyTo   *string `json:"replyTo,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// Typing is a typing indicator for one user in one chat.
type Typing struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
}

// Reaction is a reaction added to or removed from a message.
type Reaction struct {
	MessageID string `json:"messageId"`
	ChatID    string `json:"chatId,omitempty"`
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
}

// ReadReceipt reports that a user read the messages of a chat.
type ReadReceipt struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
	ReadAt string `json:"readAt,omitempty"`
}

// Notification announces a message in a chat the session is not viewing.
type Notification struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId,omitempty"`
	Sender    Sender `json:"sender"`
	Preview   string `json:"preview,omitempty"`
}

// Error describes an operation the server rejected.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	ChatID  string `json:"chatId,omitempty"`
}
