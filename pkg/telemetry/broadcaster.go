package telemetry

import (
	"context"
	"sync"
)

// Broadcaster is a level-triggered signal modeling the original firmware's
// "telegram available" event-group bit: a wait started before the next
// Signal call observes it; a wait started after observes only the one
// after that. There is no "already signaled" state to query, matching the
// bit's auto-clearing semantics.
type Broadcaster struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewBroadcaster returns a Broadcaster with no pending signal.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{ch: make(chan struct{})}
}

// Signal wakes every goroutine currently blocked in Wait exactly once.
func (b *Broadcaster) Signal() {
	b.mu.Lock()
	old := b.ch
	b.ch = make(chan struct{})
	b.mu.Unlock()
	close(old)
}

// Wait blocks until the next Signal call or until ctx is done.
func (b *Broadcaster) Wait(ctx context.Context) error {
	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
