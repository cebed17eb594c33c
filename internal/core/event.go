package core

import (
	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
)

// EventKind is a notification the server pushes to the session.
type EventKind int

const (
	// EventNewMessage delivers a chat message.
	EventNewMessage EventKind = iota
	// EventUserTyping reports a user who started typing.
	EventUserTyping
	// EventUserStopTyping reports a user who stopped typing.
	EventUserStopTyping
	// EventReactionAdded reports a reaction added to a message.
	EventReactionAdded
	// EventReactionRemoved reports a reaction removed from a message.
	EventReactionRemoved
	// EventMessagesRead reports a read receipt.
	EventMessagesRead
	// EventNotification announces a message in another room.
	EventNotification
	// EventError forwards an application error.
	EventError
)

var eventKinds = map[string]EventKind{
	proto.EventNewMessage:             EventNewMessage,
	proto.EventUserTyping:             EventUserTyping,
	proto.EventUserStopTyping:         EventUserStopTyping,
	proto.EventReactionAdded:          EventReactionAdded,
	proto.EventReactionRemoved:        EventReactionRemoved,
	proto.EventMessagesRead:           EventMessagesRead,
	proto.EventNewMessageNotification: EventNotification,
	proto.EventError:                  EventError,
}

// KindOf maps a wire event name to its kind.
func KindOf(event string) (EventKind, bool) {
	k, ok := eventKinds[event]
	return k, ok
}

// Event is an inbound event. Exactly one payload field is set, selected by Kind.
type Event struct {
	Kind         EventKind
	Message      *Message
	Typing       *Typing
	Reaction     *Reaction
	ReadReceipt  *ReadReceipt
	Notification *Notification
	Error        *ApplicationError
}

// DecodeEvent turns a chat frame into an Event. ok is false for frames that
// are not chat events (presence, acknowledgements, handshake).
func DecodeEvent(frame proto.Frame) (ev Event, ok bool, err error) {
	kind, ok := KindOf(frame.Event)
	if !ok {
		return Event{}, false, nil
	}

	ev.Kind = kind
	switch kind {
	case EventNewMessage:
		ev.Message, err = decodeInto[Message](frame)
	case EventUserTyping, EventUserStopTyping:
		ev.Typing, err = decodeInto[Typing](frame)
	case EventReactionAdded, EventReactionRemoved:
		ev.Reaction, err = decodeInto[Reaction](frame)
	case EventMessagesRead:
		ev.ReadReceipt, err = decodeInto[ReadReceipt](frame)
	case EventNotification:
		ev.Notification, err = decodeInto[Notification](frame)
	case EventError:
		ev.Error = decodeApplicationError(frame)
	}
	return ev, true, err
}

func decodeInto[T any](frame proto.Frame) (*T, error) {
	var v T
	if err := frame.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}
