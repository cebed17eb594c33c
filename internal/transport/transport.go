// Package transport defines the persistent connection the realtime session
// layer talks through.
package transport

import (
	"context"
	"errors"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
)

var (
	// ErrClosed is returned by Read once the peer or the local side closed
	// the connection normally.
	ErrClosed = errors.New("connection closed")
	// ErrRejected is returned when the server refuses the connection for
	// policy reasons (invalid or expired credentials).
	ErrRejected = errors.New("connection rejected")
)

// Dialer opens connections to the realtime server.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is one open, bidirectional frame stream.
// Read is called from a single goroutine; Write may be called concurrently.
type Conn interface {
	Read(ctx context.Context) (proto.Frame, error)
	Write(ctx context.Context, frame proto.Frame) error
	Close() error
}
