// Package ws implements transport.Dialer on top of coder/websocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
)

// Dialer opens websocket connections carrying JSON frames.
type Dialer struct {
	maxMessageBytes int64
	header          stdhttp.Header
	log             *zerolog.Logger
}

// Option configures a Dialer.
type Option func(*Dialer)

// WithMaxMessageBytes limits the size of a single inbound frame.
func WithMaxMessageBytes(n int64) Option {
	return func(d *Dialer) {
		d.maxMessageBytes = n
	}
}

// WithHeader adds an HTTP header to the upgrade request.
func WithHeader(key, value string) Option {
	return func(d *Dialer) {
		d.header.Add(key, value)
	}
}

// NewDialer builds a websocket dialer.
func NewDialer(logger *zerolog.Logger, opts ...Option) *Dialer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	d := &Dialer{
		maxMessageBytes: 1 << 20,
		header:          make(stdhttp.Header),
		log:             logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial implements transport.Dialer.
func (d *Dialer) Dial(ctx context.Context, url string) (transport.Conn, error) {
	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: d.header.Clone(),
	})
	if err != nil {
		if resp != nil && (resp.StatusCode == stdhttp.StatusUnauthorized || resp.StatusCode == stdhttp.StatusForbidden) {
			return nil, fmt.Errorf("dial %s: %w", url, transport.ErrRejected)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if d.maxMessageBytes > 0 {
		conn.SetReadLimit(d.maxMessageBytes)
	}
	d.log.Debug().Str("url", url).Msg("websocket dialed")
	return &Conn{conn: conn}, nil
}

// Conn adapts a websocket connection to transport.Conn.
type Conn struct {
	conn *websocket.Conn
}

// Read blocks until the next frame arrives.
func (c *Conn) Read(ctx context.Context) (proto.Frame, error) {
	var frame proto.Frame
	if err := wsjson.Read(ctx, c.conn, &frame); err != nil {
		return proto.Frame{}, mapError(err)
	}
	return frame, nil
}

// Write sends one frame.
func (c *Conn) Write(ctx context.Context, frame proto.Frame) error {
	if err := wsjson.Write(ctx, c.conn, frame); err != nil {
		return mapError(err)
	}
	return nil
}

// Close performs a normal closure.
func (c *Conn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "bye")
	if err != nil && websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil
	}
	return err
}

func mapError(err error) error {
	if errors.Is(err, io.EOF) {
		return transport.ErrClosed
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return fmt.Errorf("%w: %v", transport.ErrClosed, err)
	case websocket.StatusPolicyViolation:
		return fmt.Errorf("%w: %v", transport.ErrRejected, err)
	}
	return err
}
