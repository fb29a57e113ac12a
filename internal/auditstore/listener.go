package auditstore

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

const (
	// DefaultWriteTimeout bounds the time spent persisting one snapshot's changes.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultQueueSize is the number of change sets buffered for the writer.
	DefaultQueueSize = 256
)

// Listener mirrors the changes of every published snapshot into a Store.
//
// OnStateChange only enqueues; a single writer goroutine drains the queue
// in publication order. When the queue is full the change set is dropped
// and logged. Persistence failures are logged and never reach the engine.
type Listener struct {
	store   *Store
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	queue   chan []grid.AuditEntry
	done    chan struct{}
	dropped atomic.Int64
}

// NewListener returns a grid.Listener that writes to store and starts its
// writer. A nil logger uses slog.Default; queueSize <= 0 uses DefaultQueueSize.
// Call Close to flush pending writes.
func NewListener(store *Store, logger *slog.Logger, queueSize int) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	l := &Listener{
		store:   store,
		logger:  logger,
		timeout: DefaultWriteTimeout,
		queue:   make(chan []grid.AuditEntry, queueSize),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

// OnStateChange queues s.Changes() for the writer without blocking.
func (l *Listener) OnStateChange(s grid.GridState) {
	changes := s.Changes()
	if len(changes) == 0 {
		return
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.drop(changes, s.Version(), "audit listener closed")
		return
	}
	select {
	case l.queue <- changes:
	default:
		l.drop(changes, s.Version(), "audit queue full")
	}
}

// Dropped returns the number of entries discarded without being written.
func (l *Listener) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting changes and waits for queued writes to finish.
// It returns ctx.Err() if ctx ends first; the writer keeps draining.
func (l *Listener) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) run() {
	defer close(l.done)
	for changes := range l.queue {
		l.write(changes)
	}
}

func (l *Listener) write(changes []grid.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.store.InsertBatch(ctx, changes); err != nil {
		l.logger.Error("failed to persist audit entries",
			"entries", len(changes),
			"first_entry_id", changes[0].ID,
			"first_seq", changes[0].Seq,
			"error", err,
		)
	}
}

func (l *Listener) drop(changes []grid.AuditEntry, version uint64, reason string) {
	total := l.dropped.Add(int64(len(changes)))
	l.logger.Warn("dropping audit entries",
		"reason", reason,
		"entries", len(changes),
		"version", version,
		"dropped_total", total,
	)
}
