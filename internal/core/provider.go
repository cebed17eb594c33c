package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport"
)

// Handle is the view of the session layer the application reads.
type Handle struct {
	Status  Status
	Online  []string
	Channel *Channel
	Rooms   *RoomController
}

// Provider composes the connection manager, presence tracker, room
// controller and messaging channel of one application instance. It is the
// only component that drives the connection lifecycle.
//
// Rooms are not re-joined after a reconnect. The caller that knows the active
// room calls Rooms().Join on every transition to StatusConnected.
type Provider struct {
	manager  *ConnectionManager
	presence *PresenceTracker
	rooms    *RoomController
	channel  *Channel
	log      *zerolog.Logger

	mu      sync.Mutex
	session *Session
	unsub   []func()
}

// NewProvider wires a session layer that dials url through dialer.
func NewProvider(dialer transport.Dialer, url string, logger *zerolog.Logger) *Provider {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	manager := NewConnectionManager(dialer, url, logger)
	p := &Provider{
		manager:  manager,
		presence: NewPresenceTracker(logger),
		rooms:    NewRoomController(manager, logger),
		channel:  NewChannel(manager, logger),
		log:      logger,
	}
	manager.onTransition(p.onTransition)
	p.unsub = append(p.unsub, manager.onFrame(p.route))
	return p
}

// SetSession connects for s, or disconnects when s is nil (sign-out).
func (p *Provider) SetSession(ctx context.Context, s *Session) error {
	p.mu.Lock()
	if s == nil {
		p.session = nil
		p.mu.Unlock()
		p.manager.Disconnect()
		return nil
	}
	session := *s
	p.session = &session
	p.mu.Unlock()

	_, err := p.manager.Connect(ctx, session)
	return err
}

// Session returns the current session, if any.
func (p *Provider) Session() (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return Session{}, false
	}
	return *p.session, true
}

// Refresh re-attempts the connection with the session last passed to
// SetSession; it does not re-read credentials. It is a no-op
// while connecting or connected.
func (p *Provider) Refresh(ctx context.Context) error {
	s, ok := p.Session()
	if !ok {
		return ErrNoSession
	}
	_, err := p.manager.Connect(ctx, s)
	return err
}

// Close tears the session layer down. The provider cannot be reused.
func (p *Provider) Close() {
	p.mu.Lock()
	p.session = nil
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()

	p.manager.Disconnect()
	for _, fn := range unsub {
		fn()
	}
}

// Status returns the connection status.
func (p *Provider) Status() Status { return p.manager.Status() }

// OnStatus registers fn for connection status transitions. Presence and room
// state are already updated when fn runs.
func (p *Provider) OnStatus(fn func(StatusChange)) func() { return p.manager.OnStatus(fn) }

// Presence returns the presence tracker.
func (p *Provider) Presence() *PresenceTracker { return p.presence }

// Rooms returns the room membership controller.
func (p *Provider) Rooms() *RoomController { return p.rooms }

// Channel returns the messaging channel.
func (p *Provider) Channel() *Channel { return p.channel }

// Handle returns a snapshot of the session layer.
func (p *Provider) Handle() Handle {
	return Handle{
		Status:  p.Status(),
		Online:  p.presence.Online(),
		Channel: p.channel,
		Rooms:   p.rooms,
	}
}

// onTransition binds presence and rooms to a new connection or clears them.
// It runs under the manager's lock, so no caller sees StatusConnected before
// the state belongs to that connection.
func (p *Provider) onTransition(change StatusChange) {
	if change.New == StatusConnected {
		p.presence.attach(change.gen)
		p.rooms.attach(change.gen)
		return
	}
	p.presence.reset()
	p.rooms.reset()
}

func (p *Provider) route(in inboundFrame) {
	if !p.manager.isCurrent(in.gen) {
		return
	}

	frame := in.frame
	switch frame.Event {
	case proto.EventUserStatusChange:
		var st proto.UserStatus
		if err := frame.Decode(&st); err != nil {
			p.log.Warn().Err(err).Msg("dropping presence update")
			return
		}
		p.presence.apply(in.gen, st)
	case proto.EventJoinedChat, proto.EventLeftChat:
		var ref proto.ChatRef
		if err := frame.Decode(&ref); err != nil {
			p.log.Warn().Err(err).Str("event", frame.Event).Msg("dropping room acknowledgement")
			return
		}
		if frame.Event == proto.EventJoinedChat {
			p.rooms.joinedAck(in.gen, ref.ChatID)
		} else {
			p.rooms.leftAck(in.gen, ref.ChatID)
		}
	case proto.EventError:
		p.rooms.rejected(in.gen, decodeApplicationError(frame))
		p.channel.dispatch(frame)
	case proto.EventConnect:
		// late handshake acknowledgement
	default:
		if !p.channel.dispatch(frame) {
			p.log.Debug().Str("event", frame.Event).Msg("ignoring unknown event")
		}
	}
}
