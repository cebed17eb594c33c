package core

import "github.com/akarshrajput/evidark-v2-sub001/internal/proto"

// IntentKind describes what the local session wants to do.
type IntentKind int

const (
	// IntentSendMessage delivers a chat message to a room.
	IntentSendMessage IntentKind = iota
	// IntentTypingStart signals that the user started typing.
	IntentTypingStart
	// IntentTypingStop signals that the user stopped typing.
	IntentTypingStop
	// IntentAddReaction reacts to a message.
	IntentAddReaction
	// IntentRemoveReaction withdraws a reaction.
	IntentRemoveReaction
	// IntentMarkMessagesRead sends a read receipt for a room.
	IntentMarkMessagesRead
	// IntentJoinChat asks the server to join a room.
	IntentJoinChat
	// IntentLeaveChat asks the server to leave a room.
	IntentLeaveChat
)

var intentEvents = map[IntentKind]string{
	IntentSendMessage:      proto.EventSendMessage,
	IntentTypingStart:      proto.EventTypingStart,
	IntentTypingStop:       proto.EventTypingStop,
	IntentAddReaction:      proto.EventAddReaction,
	IntentRemoveReaction:   proto.EventRemoveReaction,
	IntentMarkMessagesRead: proto.EventMarkMessagesRead,
	IntentJoinChat:         proto.EventJoinChat,
	IntentLeaveChat:        proto.EventLeaveChat,
}

// Event returns the wire event name of the intent.
func (k IntentKind) Event() string {
	return intentEvents[k]
}

// Intent is one outbound action. It only lives for the duration of an emit.
type Intent struct {
	Kind IntentKind
	Data any
}
