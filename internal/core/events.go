package core

import (
	"log/slog"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// EventLogger is a listener that writes one structured log line per
// published snapshot and one per cell that changed validity.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger creates a logging listener. A nil logger uses slog.Default.
func NewEventLogger(logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{logger: logger}
}

// OnStateChange implements grid.Listener.
func (l *EventLogger) OnStateChange(s grid.GridState) {
	changes := s.Changes()
	if len(changes) == 0 {
		sum := s.Summary()
		l.logger.Info("grid snapshot published",
			"version", sum.Version,
			"rows", sum.Rows,
			"invalid_cells", sum.InvalidCells,
		)
		return
	}

	l.logger.Info("grid updated",
		"version", s.Version(),
		"action", changes[0].Action,
		"edits", len(changes),
		"actor", changes[0].ActorID,
	)
	for _, e := range changes {
		switch {
		case e.PreviousStatus.IsValid() && !e.NewStatus.IsValid():
			l.logger.Warn("cell flagged",
				"row_id", e.RowID,
				"column_id", e.ColumnID,
				"value", e.NewValue,
				"message", e.NewStatus.Message,
			)
		case !e.PreviousStatus.IsValid() && e.NewStatus.IsValid():
			l.logger.Info("cell resolved",
				"row_id", e.RowID,
				"column_id", e.ColumnID,
				"value", e.NewValue,
			)
		}
	}
}
