package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
)

// Connection is one connection attempt and its state machine:
// connecting -> connected -> disconnected, or connecting -> error.
// A new attempt always gets a new Connection.
type Connection struct {
	m       *ConnectionManager
	id      string
	gen     uint64
	session Session

	// guarded by m.mu
	status Status
	conn   transport.Conn
	err    error
	cancel context.CancelFunc
	ready  chan struct{}
}

// ID identifies the attempt in logs.
func (c *Connection) ID() string { return c.id }

// Session returns the session the connection was opened for.
func (c *Connection) Session() Session { return c.session }

// Status returns the state of this attempt.
func (c *Connection) Status() Status {
	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	return c.status
}

func (c *Connection) live() bool {
	return c.status == StatusConnecting || c.status == StatusConnected
}

// settle unblocks callers waiting for the handshake. Caller holds m.mu.
func (c *Connection) settle(err error) {
	select {
	case <-c.ready:
		return
	default:
	}
	if err != nil {
		c.err = err
	}
	close(c.ready)
}

// wait blocks until the handshake finished.
func (c *Connection) wait(ctx context.Context) (*Connection, error) {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.m.mu.Lock()
	defer c.m.mu.Unlock()
	if c.status == StatusConnected {
		return c, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	return nil, ErrSuperseded
}

// inboundFrame is a frame read from the connection of generation gen.
type inboundFrame struct {
	gen   uint64
	frame proto.Frame
}

// ConnectionManager owns the single transport connection of a session.
// It never reconnects on its own.
type ConnectionManager struct {
	dialer transport.Dialer
	url    string
	log    *zerolog.Logger

	mu       sync.Mutex
	current  *Connection
	gen      uint64
	hooks    []func(StatusChange)
	queue    []StatusChange
	draining bool

	statusListeners listeners[StatusChange]
	frameListeners  listeners[inboundFrame]
}

// NewConnectionManager builds a manager dialing url through dialer.
func NewConnectionManager(dialer transport.Dialer, url string, logger *zerolog.Logger) *ConnectionManager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ConnectionManager{
		dialer: dialer,
		url:    url,
		log:    logger,
	}
}

// Status returns the state of the current connection.
func (m *ConnectionManager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statusLocked()
}

func (m *ConnectionManager) statusLocked() Status {
	if m.current == nil {
		return StatusDisconnected
	}
	return m.current.status
}

// Current returns the current connection, or nil.
func (m *ConnectionManager) Current() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// OnStatus registers fn for every status transition.
func (m *ConnectionManager) OnStatus(fn func(StatusChange)) func() {
	return m.statusListeners.add(fn)
}

func (m *ConnectionManager) onFrame(fn func(inboundFrame)) func() {
	return m.frameListeners.add(fn)
}

// onTransition registers fn to run under m.mu on every transition, before the
// new status is visible to any caller. fn must not call back into m.
func (m *ConnectionManager) onTransition(fn func(StatusChange)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Connect opens a connection for s and performs the handshake. While a
// connection for the same session is connecting or connected, Connect returns
// that connection instead of dialing again. A different session replaces the
// current connection.
func (m *ConnectionManager) Connect(ctx context.Context, s Session) (*Connection, error) {
	if !s.Valid() {
		return nil, ErrNoSession
	}

	m.mu.Lock()
	if cur := m.current; cur != nil && cur.session == s && cur.live() {
		m.mu.Unlock()
		return cur.wait(ctx)
	}

	var stale transport.Conn
	if cur := m.current; cur != nil && cur.live() {
		stale = m.teardownLocked(cur, nil)
	}

	// Teardown cancels the attempt through c.cancel until the reader takes over.
	attemptCtx, cancelAttempt := context.WithCancel(ctx)
	defer cancelAttempt()

	old := m.statusLocked()
	m.gen++
	c := &Connection{
		m:       m,
		id:      uuid.NewString(),
		gen:     m.gen,
		session: s,
		status:  StatusConnecting,
		cancel:  cancelAttempt,
		ready:   make(chan struct{}),
	}
	m.current = c
	m.transitionLocked(StatusChange{Old: old, New: StatusConnecting, gen: c.gen})
	m.mu.Unlock()

	closeConn(stale, m.log)
	m.flush()

	m.log.Info().Str("conn_id", c.id).Str("user_id", s.UserID).Str("url", m.url).Msg("connecting")

	conn, err := m.dialer.Dial(attemptCtx, m.url)
	if err != nil {
		return nil, m.fail(c, nil, classify(fmt.Errorf("dial: %w", err)))
	}

	if err := handshake(attemptCtx, conn, s); err != nil {
		return nil, m.fail(c, conn, err)
	}

	m.mu.Lock()
	if c.status != StatusConnecting {
		m.mu.Unlock()
		closeConn(conn, m.log)
		return nil, ErrSuperseded
	}
	readCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel
	c.status = StatusConnected
	m.transitionLocked(StatusChange{Old: StatusConnecting, New: StatusConnected, gen: c.gen})
	c.settle(nil)
	m.mu.Unlock()

	go m.readLoop(readCtx, c, conn)

	m.log.Info().Str("conn_id", c.id).Str("user_id", s.UserID).Msg("connected")
	m.flush()
	return c, nil
}

// Disconnect closes the current connection. It is safe to call at any time.
func (m *ConnectionManager) Disconnect() {
	m.mu.Lock()
	c := m.current
	if c == nil {
		m.mu.Unlock()
		return
	}

	var conn transport.Conn
	switch c.status {
	case StatusConnecting, StatusConnected:
		conn = m.teardownLocked(c, nil)
	case StatusError:
		m.transitionLocked(StatusChange{Old: StatusError, New: StatusDisconnected, gen: c.gen})
	default:
		m.current = nil
		m.mu.Unlock()
		return
	}
	m.current = nil
	m.mu.Unlock()

	closeConn(conn, m.log)
	m.log.Info().Str("conn_id", c.id).Msg("disconnected")
	m.flush()
}

// Emit writes one frame if the current connection is connected. Otherwise
// the frame is dropped and ErrNotConnected is returned.
func (m *ConnectionManager) Emit(ctx context.Context, event string, data any) error {
	m.mu.Lock()
	c := m.current
	if c == nil || c.status != StatusConnected {
		m.mu.Unlock()
		m.log.Debug().Str("event", event).Msg("dropping intent while not connected")
		return ErrNotConnected
	}
	conn := c.conn
	m.mu.Unlock()

	frame, err := proto.NewFrame(event, data)
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, frame); err != nil {
		m.log.Warn().Err(err).Str("conn_id", c.id).Str("event", event).Msg("emit failed")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// EmitIntent writes the wire form of intent.
func (m *ConnectionManager) EmitIntent(ctx context.Context, intent Intent) error {
	return m.Emit(ctx, intent.Kind.Event(), intent.Data)
}

// isCurrent reports whether gen is the connected generation.
func (m *ConnectionManager) isCurrent(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current != nil && m.current.gen == gen && m.current.status == StatusConnected
}

func (m *ConnectionManager) readLoop(ctx context.Context, c *Connection, conn transport.Conn) {
	for {
		frame, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.lost(c, fmt.Errorf("%w: %v", ErrTransport, err))
			return
		}

		if frame.Event == proto.EventDisconnect {
			var data proto.DisconnectData
			_ = frame.Decode(&data)
			m.lost(c, fmt.Errorf("%w: server closed session: %s", ErrTransport, data.Reason))
			return
		}

		m.frameListeners.emit(inboundFrame{gen: c.gen, frame: frame}, m.log)
	}
}

// lost moves a connected c to disconnected after a transport failure.
func (m *ConnectionManager) lost(c *Connection, cause error) {
	m.mu.Lock()
	if c.status != StatusConnected {
		m.mu.Unlock()
		return
	}
	conn := m.teardownLocked(c, cause)
	m.mu.Unlock()

	closeConn(conn, m.log)
	m.log.Warn().Err(cause).Str("conn_id", c.id).Msg("connection lost")
	m.flush()
}

// fail moves a connecting c to error.
func (m *ConnectionManager) fail(c *Connection, conn transport.Conn, cause error) error {
	closeConn(conn, m.log)

	m.mu.Lock()
	if c.status != StatusConnecting {
		m.mu.Unlock()
		return ErrSuperseded
	}
	c.status = StatusError
	m.transitionLocked(StatusChange{Old: StatusConnecting, New: StatusError, Err: cause, gen: c.gen})
	c.settle(cause)
	m.mu.Unlock()

	m.log.Error().Err(cause).Str("conn_id", c.id).Msg("connect failed")
	m.flush()
	return cause
}

// teardownLocked moves a live c to disconnected and returns the transport
// to close once m.mu is released.
func (m *ConnectionManager) teardownLocked(c *Connection, cause error) transport.Conn {
	old := c.status
	c.status = StatusDisconnected
	if cause != nil {
		c.err = cause
	}
	m.transitionLocked(StatusChange{Old: old, New: StatusDisconnected, Err: cause, gen: c.gen})
	c.settle(ErrSuperseded)
	if c.cancel != nil {
		c.cancel()
	}
	return c.conn
}

// transitionLocked runs the state hooks for change and queues it for the
// status listeners. Caller holds m.mu.
func (m *ConnectionManager) transitionLocked(change StatusChange) {
	for _, fn := range m.hooks {
		fn(change)
	}
	m.queue = append(m.queue, change)
}

// flush delivers queued transitions to the status listeners in the order they
// happened. One goroutine delivers at a time; a concurrent or re-entrant call
// leaves its transitions to the goroutine already delivering.
func (m *ConnectionManager) flush() {
	m.mu.Lock()
	if m.draining {
		m.mu.Unlock()
		return
	}
	m.draining = true
	for len(m.queue) > 0 {
		change := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.statusListeners.emit(change, m.log)

		m.mu.Lock()
	}
	m.queue = nil
	m.draining = false
	m.mu.Unlock()
}

func handshake(ctx context.Context, conn transport.Conn, s Session) error {
	hello, err := proto.NewFrame(proto.EventConnect, proto.Handshake{Token: s.Token, UserID: s.UserID})
	if err != nil {
		return err
	}
	if err := conn.Write(ctx, hello); err != nil {
		return classify(fmt.Errorf("handshake write: %w", err))
	}

	reply, err := conn.Read(ctx)
	if err != nil {
		return classify(fmt.Errorf("handshake read: %w", err))
	}

	switch reply.Event {
	case proto.EventConnect:
		return nil
	case proto.EventError:
		appErr := decodeApplicationError(reply)
		return fmt.Errorf("%w: %w", ErrAuthentication, appErr)
	default:
		return fmt.Errorf("%w: unexpected handshake reply %q", ErrTransport, reply.Event)
	}
}

// classify tags a transport error with the failure taxonomy.
func classify(err error) error {
	if errors.Is(err, transport.ErrRejected) {
		return fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

func closeConn(conn transport.Conn, logger *zerolog.Logger) {
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		logger.Debug().Err(err).Msg("close transport")
	}
}

func decodeApplicationError(frame proto.Frame) *ApplicationError {
	var data proto.Error
	if err := frame.Decode(&data); err != nil {
		return &ApplicationError{Message: "unknown error"}
	}
	return &ApplicationError{Code: data.Code, Message: data.Message, ChatID: data.ChatID}
}
