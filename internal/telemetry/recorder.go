package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// DefaultMeterName is the instrumentation scope used when none is configured.
const DefaultMeterName = "github.com/JonMunkholm/gridreview/grid"

// Recorder is a grid.Listener that turns published snapshots into metrics:
//
//	grid.edits            counter  {column, action, status}
//	grid.cells.flagged    counter  {column}  valid -> invalid transitions
//	grid.cells.resolved   counter  {column}  invalid -> valid transitions
//	grid.cells.invalid    gauge    invalid cells in the latest snapshot
//	grid.version          gauge    version of the latest snapshot
type Recorder struct {
	edits    metric.Int64Counter
	flagged  metric.Int64Counter
	resolved metric.Int64Counter

	latest atomic.Pointer[grid.Summary]
}

// NewRecorder registers the grid instruments with mp.
func NewRecorder(mp metric.MeterProvider, meterName string) (*Recorder, error) {
	if meterName == "" {
		meterName = DefaultMeterName
	}
	meter := mp.Meter(meterName)
	r := &Recorder{}

	var err error
	if r.edits, err = meter.Int64Counter("grid.edits",
		metric.WithDescription("Accepted cell edits"),
		metric.WithUnit("{edit}")); err != nil {
		return nil, fmt.Errorf("create grid.edits: %w", err)
	}
	if r.flagged, err = meter.Int64Counter("grid.cells.flagged",
		metric.WithDescription("Edits that moved a cell from valid to invalid"),
		metric.WithUnit("{cell}")); err != nil {
		return nil, fmt.Errorf("create grid.cells.flagged: %w", err)
	}
	if r.resolved, err = meter.Int64Counter("grid.cells.resolved",
		metric.WithDescription("Edits that moved a cell from invalid to valid"),
		metric.WithUnit("{cell}")); err != nil {
		return nil, fmt.Errorf("create grid.cells.resolved: %w", err)
	}

	if _, err = meter.Int64ObservableGauge("grid.cells.invalid",
		metric.WithDescription("Invalid cells in the latest snapshot"),
		metric.WithUnit("{cell}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if s := r.latest.Load(); s != nil {
				o.Observe(int64(s.InvalidCells))
			}
			return nil
		})); err != nil {
		return nil, fmt.Errorf("create grid.cells.invalid: %w", err)
	}
	if _, err = meter.Int64ObservableGauge("grid.version",
		metric.WithDescription("Version of the latest snapshot"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			if s := r.latest.Load(); s != nil {
				o.Observe(int64(s.Version))
			}
			return nil
		})); err != nil {
		return nil, fmt.Errorf("create grid.version: %w", err)
	}
	return r, nil
}

// OnStateChange records the changes carried by s.
func (r *Recorder) OnStateChange(s grid.GridState) {
	ctx := context.Background()
	for _, e := range s.Changes() {
		col := attribute.String("column", e.ColumnID)
		r.edits.Add(ctx, 1, metric.WithAttributes(
			col,
			attribute.String("action", string(e.Action)),
			attribute.String("status", string(e.NewStatus.Kind)),
		))
		switch {
		case e.PreviousStatus.IsValid() && !e.NewStatus.IsValid():
			r.flagged.Add(ctx, 1, metric.WithAttributes(col))
		case !e.PreviousStatus.IsValid() && e.NewStatus.IsValid():
			r.resolved.Add(ctx, 1, metric.WithAttributes(col))
		}
	}
	sum := s.Summary()
	r.latest.Store(&sum)
}
