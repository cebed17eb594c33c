package core

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
)

// PresenceChange is one applied user_status_change.
type PresenceChange struct {
	UserID   string
	IsOnline bool
}

// PresenceTracker holds the users the server last reported as online.
// Absence means unknown or offline; the two are not distinguished.
type PresenceTracker struct {
	mu     sync.RWMutex
	gen    uint64
	online map[string]struct{}

	changes listeners[PresenceChange]
	log     *zerolog.Logger
}

// NewPresenceTracker builds an empty tracker.
func NewPresenceTracker(logger *zerolog.Logger) *PresenceTracker {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &PresenceTracker{
		online: make(map[string]struct{}),
		log:    logger,
	}
}

// IsOnline reports whether userID is in the online set.
func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[userID]
	return ok
}

// Online returns the online user IDs, sorted.
func (p *PresenceTracker) Online() []string {
	p.mu.RLock()
	ids := lo.Keys(p.online)
	p.mu.RUnlock()

	slices.Sort(ids)
	return ids
}

// Count returns the size of the online set.
func (p *PresenceTracker) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online)
}

// OnChange registers fn for every applied presence change.
func (p *PresenceTracker) OnChange(fn func(PresenceChange)) func() {
	return p.changes.add(fn)
}

// attach starts accepting updates from connection generation gen.
func (p *PresenceTracker) attach(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen = gen
	clear(p.online)
}

// reset discards the whole set. No update can correct it after a disconnect.
func (p *PresenceTracker) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen = 0
	clear(p.online)
}

func (p *PresenceTracker) apply(gen uint64, st proto.UserStatus) bool {
	if st.UserID == "" {
		return false
	}

	p.mu.Lock()
	if gen == 0 || gen != p.gen {
		p.mu.Unlock()
		return false
	}
	if st.IsOnline {
		p.online[st.UserID] = struct{}{}
	} else {
		delete(p.online, st.UserID)
	}
	p.mu.Unlock()

	p.changes.emit(PresenceChange{UserID: st.UserID, IsOnline: st.IsOnline}, p.log)
	return true
}
