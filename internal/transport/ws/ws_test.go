package ws

import (
	"context"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
)

// startTestServer runs handler for every accepted websocket and returns its ws:// URL.
func startTestServer(t *testing.T, handler func(ctx context.Context, conn *websocket.Conn)) string {
	t.Helper()

	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")
		handler(r.Context(), conn)
	}))
	t.Cleanup(ts.Close)

	return strings.Replace(ts.URL, "http", "ws", 1) + "/socket"
}

func TestDialHandshakeAndEcho(t *testing.T) {
	url := startTestServer(t, func(ctx context.Context, conn *websocket.Conn) {
		var hello proto.Frame
		if err := wsjson.Read(ctx, conn, &hello); err != nil {
			return
		}
		var hs proto.Handshake
		if err := hello.Decode(&hs); err != nil || hs.Token != "tok" {
			conn.Close(websocket.StatusPolicyViolation, "bad token")
			return
		}
		ack, _ := proto.NewFrame(proto.EventConnect, proto.HandshakeAck{UserID: hs.UserID})
		_ = wsjson.Write(ctx, conn, ack)

		var in proto.Frame
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			return
		}
		ev, _ := proto.NewFrame(proto.EventJoinedChat, proto.ChatRef{ChatID: "room1"})
		_ = wsjson.Write(ctx, conn, ev)
		conn.Close(websocket.StatusNormalClosure, "done")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(nil).Dial(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	hello, err := proto.NewFrame(proto.EventConnect, proto.Handshake{Token: "tok", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, hello))

	ack, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, proto.EventConnect, ack.Event)

	join, err := proto.NewFrame(proto.EventJoinChat, proto.ChatRef{ChatID: "room1"})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, join))

	joined, err := conn.Read(ctx)
	require.NoError(t, err)
	var ref proto.ChatRef
	require.NoError(t, joined.Decode(&ref))
	assert.Equal(t, "room1", ref.ChatID)

	_, err = conn.Read(ctx)
	assert.True(t, errors.Is(err, transport.ErrClosed), "expected ErrClosed, got %v", err)
}

func TestPolicyViolationMapsToRejected(t *testing.T) {
	url := startTestServer(t, func(ctx context.Context, conn *websocket.Conn) {
		var hello proto.Frame
		_ = wsjson.Read(ctx, conn, &hello)
		conn.Close(websocket.StatusPolicyViolation, "token expired")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewDialer(nil, WithHeader("X-Client", "test")).Dial(ctx, url)
	require.NoError(t, err)
	defer conn.Close()

	hello, err := proto.NewFrame(proto.EventConnect, proto.Handshake{Token: "old", UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, hello))

	_, err = conn.Read(ctx)
	assert.True(t, errors.Is(err, transport.ErrRejected), "expected ErrRejected, got %v", err)
}

func TestDialUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewDialer(nil).Dial(ctx, "ws://127.0.0.1:1/socket")
	require.Error(t, err)
}
