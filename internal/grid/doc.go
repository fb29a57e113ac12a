// Package grid provides the tabular state engine behind the review grid.
//
// The package has no transport or storage dependencies. It turns raw records
// and a column schema into immutable snapshots, applies cell edits, and
// keeps an append-only audit trail of who changed what and when.
//
// # Model
//
//   - [ColumnDefinition]: id, label, accessor, width, editable flag and rules.
//   - [Cell]: a value plus a [Status] derived from the column rules.
//   - [Row]: one cell per column and the row's audit history.
//   - [GridState]: ordered columns and rows; never modified once published.
//
// # Editing
//
// [Engine.UpdateCell] is the only way cell values change:
//
//	engine, _ := grid.NewEngine(records, columns)
//	state, err := engine.UpdateCell(rowID, "result", "20", "user-1")
//
// A value that fails a rule is stored and the cell is marked Invalid. Out of
// specification measurements are legitimate entries that must be recorded
// and flagged, so rule failures are never returned as errors. Unknown rows,
// unknown columns and read-only columns are rejected with an [*EditError].
//
// # Rules
//
// Rules are tagged values ([RangeRule], [PatternRule], [EnumRule], ...)
// rather than closures, so they can be inspected, serialized through
// [RuleSpec], and tested on their own. Custom checks are registered by name
// with [RegisterPredicate].
//
// # Notification
//
// Any number of [Listener] values may subscribe. After each successful edit
// the engine calls every listener synchronously, in registration order, with
// the complete new snapshot. [ChannelListener] adapts this to a channel for
// consumers running on another goroutine.
//
// # Concurrency
//
// An [Engine] does no locking. Hosts that serve several goroutines must
// serialize calls themselves. Snapshots are safe to share across goroutines.
package grid
