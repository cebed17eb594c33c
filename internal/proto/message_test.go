package proto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageEncodesNullReplyTo(t *testing.T) {
	frame, err := NewFrame(EventSendMessage, SendMessage{ChatID: "c1", Content: "hi", Type: "text"})
	require.NoError(t, err)

	assert.Equal(t, EventSendMessage, frame.Event)
	assert.JSONEq(t, `{"chatId":"c1","content":"hi","type":"text","replyTo":null}`, string(frame.Data))
}

func TestTypingPayloadIsBareChatID(t *testing.T) {
	frame, err := NewFrame(EventTypingStart, "c1")
	require.NoError(t, err)
	assert.Equal(t, `"c1"`, string(frame.Data))
}

func TestFrameWithoutPayloadOmitsData(t *testing.T) {
	frame, err := NewFrame(EventConnect, nil)
	require.NoError(t, err)

	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"connect"}`, string(raw))
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	var status UserStatus
	err := Frame{Event: EventUserStatusChange}.Decode(&status)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventUserStatusChange)
}

func TestDecodeMessage(t *testing.T) {
	frame := Frame{
		Event: EventNewMessage,
		Data:  json.RawMessage(`{"_id":"m1","chatId":"c1","sender":{"_id":"u2","username":"raven"},"content":"boo","type":"text"}`),
	}

	var msg Message
	require.NoError(t, frame.Decode(&msg))
	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "raven", msg.Sender.Username)
	assert.Nil(t, msg.ReplyTo)
}

func TestSenderAcceptsBareID(t *testing.T) {
	frame := Frame{Event: EventNewMessage, Data: json.RawMessage(`{"_id":"m1","chatId":"c1","sender":"u2","content":"hi","type":"text"}`)}

	var msg Message
	require.NoError(t, frame.Decode(&msg))
	assert.Equal(t, Sender{ID: "u2"}, msg.Sender)
	assert.Equal(t, "hi", msg.Content)
}

func TestSenderAcceptsObjectAndNull(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"chatId":"c9","sender":{"_id":"u3","username":"raven","avatar":"a.png"}}`), &n))
	assert.Equal(t, Sender{ID: "u3", Username: "raven", Avatar: "a.png"}, n.Sender)

	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"_id":"m1","sender":null}`), &m))
	assert.Equal(t, Sender{}, m.Sender)

	assert.Error(t, json.Unmarshal([]byte(`{"_id":"m1","sender":42}`), &m))
}
