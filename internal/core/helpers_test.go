package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akarshrajput/evidark-v2-sub001/internal/proto"
	"github.com/akarshrajput/evidark-v2-sub001/internal/transport/transporttest"
)

const testURL = "ws://evidark.test/socket"

var testSession = Session{UserID: "me", Token: "token-me"}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

// newConnectedProvider returns a provider connected through a stub transport.
func newConnectedProvider(t *testing.T) (*Provider, *transporttest.Conn) {
	t.Helper()

	tr := transporttest.New()
	p := NewProvider(tr, testURL, nil)
	t.Cleanup(p.Close)

	require.NoError(t, p.SetSession(testContext(t), &testSession))
	require.Equal(t, StatusConnected, p.Status())
	return p, tr.Last()
}

// statusRecorder collects status transitions.
type statusRecorder struct {
	mu      sync.Mutex
	changes []StatusChange
}

func (r *statusRecorder) record(ch StatusChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, ch)
}

// transitions returns the recorded transitions as [old, new] pairs.
func (r *statusRecorder) transitions() [][2]Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][2]Status, 0, len(r.changes))
	for _, ch := range r.changes {
		out = append(out, [2]Status{ch.Old, ch.New})
	}
	return out
}

func (r *statusRecorder) last() StatusChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.changes) == 0 {
		return StatusChange{}
	}
	return r.changes[len(r.changes)-1]
}

// waitFor blocks until the last recorded transition entered status.
func (r *statusRecorder) waitFor(t *testing.T, status Status) StatusChange {
	t.Helper()
	eventually(t, func() bool { return r.last().New == status }, "status "+status.String()+" not reached")
	return r.last()
}

// holdConnected blocks the first delivery of StatusConnected to p's status
// listeners until release is called. entered is closed once it blocks.
func holdConnected(p *Provider) (entered <-chan struct{}, release func()) {
	in := make(chan struct{})
	gate := make(chan struct{})
	var once, releaseOnce sync.Once
	p.OnStatus(func(ch StatusChange) {
		if ch.New != StatusConnected {
			return
		}
		once.Do(func() {
			close(in)
			<-gate
		})
	})
	return in, func() { releaseOnce.Do(func() { close(gate) }) }
}

// awaitHandshake waits until the latest stub connection received the
// handshake frame.
func awaitHandshake(t *testing.T, tr *transporttest.Transport) *transporttest.Conn {
	t.Helper()
	eventually(t, func() bool {
		c := tr.Last()
		return c != nil && len(c.SentEvents(proto.EventConnect)) == 1
	}, "handshake not written")
	return tr.Last()
}
