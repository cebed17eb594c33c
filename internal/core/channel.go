package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
)

// MessageOption customises an outbound message.
type MessageOption func(*proto.SendMessage)

// WithKind sets the message type. The default is text.
func WithKind(kind string) MessageOption {
	return func(m *proto.SendMessage) {
		if kind != "" {
			m.Type = kind
		}
	}
}

// WithReplyTo marks the message as a reply to messageID.
func WithReplyTo(messageID string) MessageOption {
	return func(m *proto.SendMessage) {
		if messageID != "" {
			m.ReplyTo = &messageID
		}
	}
}

// Channel emits chat intents and dispatches inbound chat events to typed
// listeners. Every emit is fire-and-forget; listeners registered late miss
// earlier events.
type Channel struct {
	emit emitter
	log  *zerolog.Logger

	messages        listeners[Message]
	typing          listeners[Typing]
	stopTyping      listeners[Typing]
	reactionAdded   listeners[Reaction]
	reactionRemoved listeners[Reaction]
	read            listeners[ReadReceipt]
	notifications   listeners[Notification]
	errors          listeners[*ApplicationError]
}

// NewChannel builds a channel emitting through e.
func NewChannel(e emitter, logger *zerolog.Logger) *Channel {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Channel{emit: e, log: logger}
}

// SendMessage posts content to roomID.
func (c *Channel) SendMessage(ctx context.Context, roomID, content string, opts ...MessageOption) error {
	if roomID == "" {
		return ErrEmptyRoom
	}
	msg := proto.SendMessage{ChatID: roomID, Content: content, Type: MessageKindText}
	for _, opt := range opts {
		opt(&msg)
	}
	return c.emit.EmitIntent(ctx, Intent{Kind: IntentSendMessage, Data: msg})
}

// StartTyping signals typing in roomID. Callers debounce.
func (c *Channel) StartTyping(ctx context.Context, roomID string) error {
	return c.emitRoom(ctx, IntentTypingStart, roomID, roomID)
}

// StopTyping signals that typing in roomID stopped.
func (c *Channel) StopTyping(ctx context.Context, roomID string) error {
	return c.emitRoom(ctx, IntentTypingStop, roomID, roomID)
}

// AddReaction reacts to messageID with emoji.
func (c *Channel) AddReaction(ctx context.Context, messageID, emoji string) error {
	return c.emit.EmitIntent(ctx, Intent{Kind: IntentAddReaction, Data: proto.ReactionRef{MessageID: messageID, Emoji: emoji}})
}

// RemoveReaction withdraws emoji from messageID.
func (c *Channel) RemoveReaction(ctx context.Context, messageID, emoji string) error {
	return c.emit.EmitIntent(ctx, Intent{Kind: IntentRemoveReaction, Data: proto.ReactionRef{MessageID: messageID, Emoji: emoji}})
}

// MarkMessagesRead sends a read receipt for roomID.
func (c *Channel) MarkMessagesRead(ctx context.Context, roomID string) error {
	return c.emitRoom(ctx, IntentMarkMessagesRead, roomID, proto.ChatRef{ChatID: roomID})
}

func (c *Channel) emitRoom(ctx context.Context, kind IntentKind, roomID string, data any) error {
	if roomID == "" {
		return ErrEmptyRoom
	}
	return c.emit.EmitIntent(ctx, Intent{Kind: kind, Data: data})
}

// OnNewMessage registers fn for new_message. The returned func unsubscribes.
func (c *Channel) OnNewMessage(fn func(Message)) func() { return c.messages.add(fn) }

// OnUserTyping registers fn for user_typing.
func (c *Channel) OnUserTyping(fn func(Typing)) func() { return c.typing.add(fn) }

// OnUserStopTyping registers fn for user_stop_typing.
func (c *Channel) OnUserStopTyping(fn func(Typing)) func() { return c.stopTyping.add(fn) }

// OnReactionAdded registers fn for message_reaction_added.
func (c *Channel) OnReactionAdded(fn func(Reaction)) func() { return c.reactionAdded.add(fn) }

// OnReactionRemoved registers fn for message_reaction_removed.
func (c *Channel) OnReactionRemoved(fn func(Reaction)) func() { return c.reactionRemoved.add(fn) }

// OnMessagesRead registers fn for messages_read.
func (c *Channel) OnMessagesRead(fn func(ReadReceipt)) func() { return c.read.add(fn) }

// OnNotification registers fn for new_message_notification.
func (c *Channel) OnNotification(fn func(Notification)) func() { return c.notifications.add(fn) }

// OnError registers fn for server error events.
func (c *Channel) OnError(fn func(*ApplicationError)) func() { return c.errors.add(fn) }

// dispatch delivers frame to the listeners of its event type. It reports
// false for events the channel does not handle.
func (c *Channel) dispatch(frame proto.Frame) bool {
	ev, ok, err := DecodeEvent(frame)
	if !ok {
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("event", frame.Event).Msg("dropping undecodable event")
		return true
	}

	switch ev.Kind {
	case EventNewMessage:
		c.messages.emit(*ev.Message, c.log)
	case EventUserTyping:
		c.typing.emit(*ev.Typing, c.log)
	case EventUserStopTyping:
		c.stopTyping.emit(*ev.Typing, c.log)
	case EventReactionAdded:
		c.reactionAdded.emit(*ev.Reaction, c.log)
	case EventReactionRemoved:
		c.reactionRemoved.emit(*ev.Reaction, c.log)
	case EventMessagesRead:
		c.read.emit(*ev.ReadReceipt, c.log)
	case EventNotification:
		c.notifications.emit(*ev.Notification, c.log)
	case EventError:
		c.errors.emit(ev.Error, c.log)
	}
	return true
}
