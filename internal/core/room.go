package core

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
)

// ErrEmptyRoom is returned for a blank room identifier.
var ErrEmptyRoom = errors.New("room id is required")

// emitter writes intents to the current connection.
type emitter interface {
	EmitIntent(ctx context.Context, intent Intent) error
}

// RoomController tracks the rooms this connection joined.
// A join counts only after the server acknowledges it; a leave counts
// immediately. Membership never survives a reconnect.
type RoomController struct {
	emit emitter
	log  *zerolog.Logger

	mu      sync.Mutex
	gen     uint64
	joined  map[string]struct{}
	pending map[string]struct{}
}

// NewRoomController builds a controller emitting through e.
func NewRoomController(e emitter, logger *zerolog.Logger) *RoomController {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &RoomController{
		emit:    e,
		log:     logger,
		joined:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
	}
}

// Join asks the server to join roomID. Joining a joined or pending room is a
// no-op.
func (r *RoomController) Join(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrEmptyRoom
	}

	r.mu.Lock()
	_, joined := r.joined[roomID]
	_, pending := r.pending[roomID]
	if joined || pending {
		r.mu.Unlock()
		return nil
	}
	r.pending[roomID] = struct{}{}
	r.mu.Unlock()

	if err := r.emit.EmitIntent(ctx, Intent{Kind: IntentJoinChat, Data: proto.ChatRef{ChatID: roomID}}); err != nil {
		r.mu.Lock()
		delete(r.pending, roomID)
		r.mu.Unlock()
		return err
	}
	r.log.Debug().Str("room", roomID).Msg("join requested")
	return nil
}

// Leave removes roomID locally and asks the server to leave it. Leaving a
// room that is neither joined nor pending is a no-op.
func (r *RoomController) Leave(ctx context.Context, roomID string) error {
	if roomID == "" {
		return ErrEmptyRoom
	}

	r.mu.Lock()
	_, joined := r.joined[roomID]
	_, pending := r.pending[roomID]
	if !joined && !pending {
		r.mu.Unlock()
		return nil
	}
	delete(r.joined, roomID)
	delete(r.pending, roomID)
	r.mu.Unlock()

	return r.emit.EmitIntent(ctx, Intent{Kind: IntentLeaveChat, Data: proto.ChatRef{ChatID: roomID}})
}

// IsJoined reports whether the server confirmed membership of roomID.
func (r *RoomController) IsJoined(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.joined[roomID]
	return ok
}

// IsPending reports whether a join for roomID awaits acknowledgement.
func (r *RoomController) IsPending(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[roomID]
	return ok
}

// Rooms returns the joined rooms, sorted.
func (r *RoomController) Rooms() []string {
	r.mu.Lock()
	rooms := lo.Keys(r.joined)
	r.mu.Unlock()

	slices.Sort(rooms)
	return rooms
}

func (r *RoomController) attach(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen = gen
	clear(r.joined)
	clear(r.pending)
}

func (r *RoomController) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen = 0
	clear(r.joined)
	clear(r.pending)
}

// joinedAck confirms a pending join. An ack for a room that is no longer
// pending is ignored, so a leave issued before the ack wins.
func (r *RoomController) joinedAck(gen uint64, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	if _, ok := r.pending[roomID]; !ok {
		r.log.Debug().Str("room", roomID).Msg("ignoring joined_chat without pending join")
		return
	}
	delete(r.pending, roomID)
	r.joined[roomID] = struct{}{}
}

func (r *RoomController) leftAck(gen uint64, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	delete(r.joined, roomID)
	delete(r.pending, roomID)
}

// rejected drops a pending join the server refused.
func (r *RoomController) rejected(gen uint64, appErr *ApplicationError) {
	if appErr == nil || appErr.ChatID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	if _, ok := r.pending[appErr.ChatID]; ok {
		delete(r.pending, appErr.ChatID)
		r.log.Info().Str("room", appErr.ChatID).Str("code", appErr.Code).Msg("join rejected")
	}
}
