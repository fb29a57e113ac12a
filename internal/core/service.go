package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// DefaultActor is recorded when an edit arrives without an actor in context.
const DefaultActor = "anonymous"

// DefaultEventBuffer is the per-watcher snapshot buffer when none is configured.
const DefaultEventBuffer = 16

// Options configure a Service.
type Options struct {
	RowIDField     string
	PublishInitial bool
	EventBuffer    int             // Snapshot buffer per Watch channel
	MaxWatchers    int             // Concurrent Watch channels
	DefaultActor   string          // Actor recorded when context has none
	Listeners      []grid.Listener // Registered before the initial snapshot
	Logger         *slog.Logger    // Defaults to slog.Default
}

// Service provides concurrency-safe access to a grid engine.
type Service struct {
	mu     sync.Mutex
	engine *grid.Engine

	rowIDField   string
	eventBuffer  int
	defaultActor string
	logger       *slog.Logger
	watchers     *WatchLimiter
}

// NewService builds the grid from records and columns.
func NewService(records []grid.Record, columns []grid.ColumnDefinition, opts Options) (*Service, error) {
	s := &Service{
		rowIDField:   opts.RowIDField,
		eventBuffer:  opts.EventBuffer,
		defaultActor: opts.DefaultActor,
		logger:       opts.Logger,
		watchers:     NewWatchLimiter(opts.MaxWatchers),
	}
	if s.eventBuffer <= 0 {
		s.eventBuffer = DefaultEventBuffer
	}
	if s.defaultActor == "" {
		s.defaultActor = DefaultActor
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	engineOpts := []grid.Option{grid.WithRowIDField(opts.RowIDField)}
	for _, l := range opts.Listeners {
		engineOpts = append(engineOpts, grid.WithListener(l))
	}
	if opts.PublishInitial {
		engineOpts = append(engineOpts, grid.WithPublishInitial())
	}

	engine, err := grid.NewEngine(records, columns, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("build grid: %w", err)
	}
	s.engine = engine

	st := engine.State()
	s.logger.Info("grid loaded",
		"rows", st.Len(),
		"columns", len(st.Columns()),
		"invalid_cells", st.Summary().InvalidCells,
	)
	return s, nil
}

// State returns the latest snapshot. Snapshots are immutable and safe to
// use after the lock is released.
func (s *Service) State() grid.GridState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.State()
}

// Summary returns aggregate counts for the latest snapshot.
func (s *Service) Summary() grid.Summary {
	return s.State().Summary()
}

// Row returns one row of the latest snapshot.
func (s *Service) Row(rowID string) (*grid.Row, error) {
	row, ok := s.State().Row(rowID)
	if !ok {
		return nil, &grid.EditError{Err: grid.ErrUnknownRow, RowID: rowID}
	}
	return row, nil
}

// Validate reports the status value would receive in a column.
func (s *Service) Validate(columnID, value string) (grid.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.ValidateValue(columnID, value)
}

// Subscribe registers a listener. See the package documentation for the
// listener contract.
func (s *Service) Subscribe(l grid.Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unsub := s.engine.Subscribe(l)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsub()
	}
}

// Watch returns a channel receiving every snapshot published after the call.
// The subscription ends when ctx is done; the channel is not closed, so
// readers should select on ctx.Done as well. Watch fails with
// ErrTooManyWatchers when the configured number of watchers is reached.
func (s *Service) Watch(ctx context.Context) (<-chan grid.GridState, error) {
	if !s.watchers.TryAcquire() {
		return nil, ErrTooManyWatchers
	}

	l := grid.NewChannelListener(s.eventBuffer)
	unsub := s.Subscribe(l)
	go func() {
		<-ctx.Done()
		unsub()
		s.watchers.Release()
	}()
	return l.C(), nil
}

// WatcherStatus reports how many Watch channels are open.
func (s *Service) WatcherStatus() WatchLimiterStatus {
	return s.watchers.Status()
}

// actor resolves the editing identity for ctx.
func (s *Service) actor(ctx context.Context) string {
	if a := ActorFromContext(ctx); a != "" {
		return a
	}
	return s.defaultActor
}
