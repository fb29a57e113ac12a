package core

// watch_limiter.go bounds the number of concurrent snapshot subscriptions.
//
// Every Watch channel is a listener the engine calls on each edit while the
// service lock is held, so the number of open streams is capped. When all
// slots are taken, Watch fails immediately with ErrTooManyWatchers instead
// of queueing; streaming clients are expected to retry.

import (
	"errors"
	"sync"
)

// ErrTooManyWatchers is returned when every watch slot is occupied.
var ErrTooManyWatchers = errors.New("too many concurrent watchers, please try again later")

// DefaultMaxWatchers is the default limit for concurrent Watch channels.
const DefaultMaxWatchers = 100

// WatchLimiter controls concurrent subscriptions using a semaphore pattern.
type WatchLimiter struct {
	semaphore chan struct{}

	mu     sync.RWMutex
	active int
}

// NewWatchLimiter creates a limiter that allows at most maxConcurrent watchers.
func NewWatchLimiter(maxConcurrent int) *WatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxWatchers
	}
	return &WatchLimiter{semaphore: make(chan struct{}, maxConcurrent)}
}

// TryAcquire attempts to acquire a slot without blocking.
// Returns true if a slot was acquired; the caller must Release it.
func (l *WatchLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful TryAcquire.
func (l *WatchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// WatchLimiterStatus is a snapshot of the limiter's current state.
type WatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *WatchLimiter) Status() WatchLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return WatchLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
