// Package transporttest provides an in-memory transport for tests.
package transporttest

import (
	"context"
	"sync"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
)

// Transport is a stub transport.Dialer. By default every dialed connection
// acknowledges the handshake frame with a connect frame.
type Transport struct {
	mu        sync.Mutex
	conns     []*Conn
	urls      []string
	dialErr   error
	reject    *proto.Error
	manualAck bool
}

// New returns a stub transport that accepts every handshake.
func New() *Transport {
	return &Transport{}
}

// FailDial makes subsequent dials fail with err. A nil err restores dialing.
func (t *Transport) FailDial(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dialErr = err
}

// RejectHandshake makes subsequent connections answer the handshake with an
// error frame.
func (t *Transport) RejectHandshake(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reject = &proto.Error{Code: "unauthorized", Message: msg}
}

// ManualAck stops automatic handshake acknowledgement; tests inject the
// connect frame themselves.
func (t *Transport) ManualAck() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.manualAck = true
}

// Dial implements transport.Dialer.
func (t *Transport) Dial(ctx context.Context, url string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.urls = append(t.urls, url)
	if t.dialErr != nil {
		return nil, t.dialErr
	}
	c := newConn(t.reject, t.manualAck)
	t.conns = append(t.conns, c)
	return c, nil
}

// Dials returns the number of successful dials.
func (t *Transport) Dials() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

// URLs returns every dialed URL, including failed attempts.
func (t *Transport) URLs() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.urls...)
}

// Last returns the most recently dialed connection, or nil.
func (t *Transport) Last() *Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.conns) == 0 {
		return nil
	}
	return t.conns[len(t.conns)-1]
}

type inbound struct {
	frame proto.Frame
	err   error
}

// Conn is one stub connection.
type Conn struct {
	reject    *proto.Error
	manualAck bool

	in        chan inbound
	closed    chan struct{}
	closeOnce sync.Once

	mu   sync.Mutex
	sent []proto.Frame
}

func newConn(reject *proto.Error, manualAck bool) *Conn {
	return &Conn{
		reject:    reject,
		manualAck: manualAck,
		in:        make(chan inbound, 64),
		closed:    make(chan struct{}),
	}
}

// Read returns injected frames in order.
func (c *Conn) Read(ctx context.Context) (proto.Frame, error) {
	select {
	case msg := <-c.in:
		return msg.frame, msg.err
	case <-c.closed:
		return proto.Frame{}, transport.ErrClosed
	case <-ctx.Done():
		return proto.Frame{}, ctx.Err()
	}
}

// Write records the frame and answers the handshake.
func (c *Conn) Write(_ context.Context, frame proto.Frame) error {
	select {
	case <-c.closed:
		return transport.ErrClosed
	default:
	}

	c.mu.Lock()
	c.sent = append(c.sent, frame)
	c.mu.Unlock()

	if frame.Event != proto.EventConnect || c.manualAck {
		return nil
	}
	if c.reject != nil {
		c.Inject(proto.EventError, c.reject)
		return nil
	}
	c.Inject(proto.EventConnect, nil)
	return nil
}

// Close closes the connection. Pending and future reads return ErrClosed.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close was called.
func (c *Conn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Inject queues an inbound frame. It panics if data cannot be marshalled.
func (c *Conn) Inject(event string, data any) {
	frame, err := proto.NewFrame(event, data)
	if err != nil {
		panic(err)
	}
	c.in <- inbound{frame: frame}
}

// InjectRaw queues a frame as-is, including malformed payloads.
func (c *Conn) InjectRaw(frame proto.Frame) {
	c.in <- inbound{frame: frame}
}

// Drop makes the next read fail with err, simulating network loss.
func (c *Conn) Drop(err error) {
	c.in <- inbound{err: err}
}

// Sent returns a copy of every written frame, handshake included.
func (c *Conn) Sent() []proto.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]proto.Frame(nil), c.sent...)
}

// SentEvents returns the written frames with the given event name.
func (c *Conn) SentEvents(event string) []proto.Frame {
	var out []proto.Frame
	for _, f := range c.Sent() {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}
