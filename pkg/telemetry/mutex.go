package telemetry

import "context"

// TimedMutex is a binary mutex backed by a buffered channel, mapping the
// original firmware's FreeRTOS binary semaphores onto Go. Background tasks
// call Lock for the indefinite wait the spec requires of them; HTTP
// handlers call TryLockContext with a deadline so a stuck lock surfaces as
// a bounded timeout instead of hanging the request.
type TimedMutex struct {
	ch chan struct{}
}

// NewTimedMutex returns an unlocked TimedMutex.
func NewTimedMutex() TimedMutex {
	m := TimedMutex{ch: make(chan struct{}, 1)}
	m.ch <- struct{}{}
	return m
}

// Lock blocks until the mutex is acquired.
func (m *TimedMutex) Lock() {
	<-m.ch
}

// TryLockContext attempts to acquire the mutex, giving up when ctx is done.
// It reports whether the lock was acquired.
func (m *TimedMutex) TryLockContext(ctx context.Context) bool {
	select {
	case <-m.ch:
		return true
	case <-ctx.Done():
		return false
	}
}

// Unlock releases the mutex. Unlocking an already-unlocked TimedMutex is a
// programmer error and panics, matching the assert-on-misuse posture the
// original firmware takes toward its own synchronization primitives.
func (m *TimedMutex) Unlock() {
	select {
	case m.ch <- struct{}{}:
	default:
		panic("telemetry: Unlock of unlocked TimedMutex")
	}
}
