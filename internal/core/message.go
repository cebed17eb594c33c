package core

import "github.com/akarshrajput/evidark-v2-sub001/internal/proto"

// Inbound payloads share their wire shape.
type (
	Message      = proto.Message
	Sender       = proto.Sender
	Typing       = proto.Typing
	Reaction     = proto.Reaction
	ReadReceipt  = proto.ReadReceipt
	Notification = proto.Notification
)

// MessageKindText is the default message type.
const MessageKindText = "text"
