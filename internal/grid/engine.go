package grid

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine is the sole mutator of grid state. It validates edits, appends
// audit entries and publishes a new GridState to its listeners after every
// successful change.
//
// An Engine is not safe for concurrent use: callers issue edits one at a
// time and the order of calls is the order of application.
type Engine struct {
	state GridState

	listeners    []listenerSlot
	nextListener uint64

	seq         uint64
	now         func() time.Time
	newID       func() string
	rowIDField  string
	publishInit bool
	initial     []Listener
}

type listenerSlot struct {
	id uint64
	l  Listener
}

// Option configures an Engine.
type Option func(*Engine)

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.initial = append(e.initial, l) }
}

// WithPublishInitial publishes the initial snapshot to listeners registered
// with WithListener. The initial state is always available from State.
func WithPublishInitial() Option {
	return func(e *Engine) { e.publishInit = true }
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides how row, entry and batch ids are generated.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithRowIDField takes row identities from the named record field.
// Records whose field is missing or empty get a generated id.
func WithRowIDField(name string) Option {
	return func(e *Engine) { e.rowIDField = name }
}

// NewEngine builds the initial snapshot by projecting every record through
// every column's accessor and rules.
func NewEngine(records []Record, columns []ColumnDefinition, opts ...Option) (*Engine, error) {
	e := &Engine{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}

	cols, colIndex, err := buildColumns(columns)
	if err != nil {
		return nil, err
	}

	rows := make([]*Row, 0, len(records))
	rowIndex := make(map[string]int, len(records))
	for i, rec := range records {
		id := ""
		if e.rowIDField != "" {
			id = FormatScalar(rec[e.rowIDField])
		}
		if id == "" {
			id = e.newID()
		}
		if _, dup := rowIndex[id]; dup {
			return nil, fmt.Errorf("record %d: %w: %s", i, ErrDuplicateRow, id)
		}

		cells := make(map[string]Cell, len(cols))
		for _, col := range cols {
			cells[col.ID] = col.newCell(col.project(rec))
		}
		rowIndex[id] = len(rows)
		rows = append(rows, &Row{id: id, cells: cells})
	}

	e.state = GridState{
		columns:  cols,
		colIndex: colIndex,
		rows:     rows,
		rowIndex: rowIndex,
		version:  1,
	}

	for _, l := range e.initial {
		e.Subscribe(l)
	}
	e.initial = nil
	if e.publishInit {
		e.publish(e.state)
	}
	return e, nil
}

// buildColumns copies the column list and checks id uniqueness.
func buildColumns(columns []ColumnDefinition) ([]ColumnDefinition, map[string]int, error) {
	cols := make([]ColumnDefinition, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c.ID == "" {
			return nil, nil, fmt.Errorf("%w: column %d has no id", ErrInvalidSchema, i)
		}
		if _, dup := index[c.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate column id %q", ErrInvalidSchema, c.ID)
		}
		if c.Width < 0 {
			return nil, nil, fmt.Errorf("%w: column %q has negative width", ErrInvalidSchema, c.ID)
		}
		cols[i] = c.clone()
		index[c.ID] = i
	}
	return cols, index, nil
}

// State returns the current snapshot.
func (e *Engine) State() GridState { return e.state }

// Subscribe registers a listener and returns a function that removes it.
// Listeners are notified in registration order.
func (e *Engine) Subscribe(l Listener) (unsubscribe func()) {
	e.nextListener++
	id := e.nextListener
	e.listeners = append(e.listeners, listenerSlot{id: id, l: l})
	return func() {
		kept := make([]listenerSlot, 0, len(e.listeners))
		for _, s := range e.listeners {
			if s.id != id {
				kept = append(kept, s)
			}
		}
		e.listeners = kept
	}
}

// ValidateValue reports the status a value would receive in a column
// without changing any state.
func (e *Engine) ValidateValue(columnID, rawValue string) (Status, error) {
	col, ok := e.state.Column(columnID)
	if !ok {
		return Status{}, &EditError{Err: ErrUnknownColumn, ColumnID: columnID}
	}
	return col.Evaluate(rawValue), nil
}

// UpdateCell replaces one cell value, appends an audit entry to the row and
// publishes the resulting snapshot.
//
// A value that fails the column rules is still stored; the cell is marked
// Invalid. Unknown rows or columns and read-only columns are rejected with an
// *EditError and leave the state untouched.
func (e *Engine) UpdateCell(rowID, columnID, rawValue, actorID string) (GridState, error) {
	col, err := e.editableColumn(columnID, rowID)
	if err != nil {
		return GridState{}, err
	}
	ri, ok := e.state.rowIndex[rowID]
	if !ok {
		return GridState{}, &EditError{Err: ErrUnknownRow, RowID: rowID, ColumnID: columnID}
	}

	row := e.state.rows[ri]
	cell := col.newCell(rawValue)
	entry := e.newEntry(row, col.ID, cell, actorID, ActionCellEdit, "")

	next := e.state.withRows(map[int]*Row{ri: row.withEdit(col.ID, cell, entry)}, []AuditEntry{entry})
	e.commit(next)
	return next, nil
}

// BulkUpdate writes the same value into one column of several rows as a
// single transition. Every reference is checked before anything is applied.
// Rows that already hold rawValue are left alone and get no audit entry; if
// no row changes, nothing is published and the current state is returned.
func (e *Engine) BulkUpdate(rowIDs []string, columnID, rawValue, actorID string) (GridState, error) {
	if len(rowIDs) == 0 {
		return GridState{}, &EditError{Err: ErrNoRows, ColumnID: columnID}
	}
	col, err := e.editableColumn(columnID, "")
	if err != nil {
		return GridState{}, err
	}

	positions := make([]int, 0, len(rowIDs))
	seen := make(map[string]bool, len(rowIDs))
	for _, id := range rowIDs {
		ri, ok := e.state.rowIndex[id]
		if !ok {
			return GridState{}, &EditError{Err: ErrUnknownRow, RowID: id, ColumnID: columnID}
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		positions = append(positions, ri)
	}

	cell := col.newCell(rawValue)
	batchID := e.newID()
	replaced := make(map[int]*Row, len(positions))
	var changes []AuditEntry
	for _, ri := range positions {
		row := e.state.rows[ri]
		if row.cells[col.ID].Value == rawValue {
			continue
		}
		entry := e.newEntry(row, col.ID, cell, actorID, ActionBulkEdit, batchID)
		replaced[ri] = row.withEdit(col.ID, cell, entry)
		changes = append(changes, entry)
	}
	if len(changes) == 0 {
		return e.state, nil
	}

	next := e.state.withRows(replaced, changes)
	e.commit(next)
	return next, nil
}

// editableColumn resolves a column and checks it accepts edits.
func (e *Engine) editableColumn(columnID, rowID string) (ColumnDefinition, error) {
	col, ok := e.state.Column(columnID)
	if !ok {
		return ColumnDefinition{}, &EditError{Err: ErrUnknownColumn, RowID: rowID, ColumnID: columnID}
	}
	if !col.Editable {
		return ColumnDefinition{}, &EditError{Err: ErrNotEditable, RowID: rowID, ColumnID: columnID}
	}
	return col, nil
}

// newEntry builds the audit entry for replacing row's cell in columnID.
func (e *Engine) newEntry(row *Row, columnID string, cell Cell, actorID string, action AuditAction, batchID string) AuditEntry {
	e.seq++
	old := row.cells[columnID]
	return AuditEntry{
		ID:             e.newID(),
		Seq:            e.seq,
		RowID:          row.id,
		ColumnID:       columnID,
		PreviousValue:  old.Value,
		NewValue:       cell.Value,
		PreviousStatus: old.Status,
		NewStatus:      cell.Status,
		ActorID:        actorID,
		Action:         action,
		Severity:       determineSeverity(action),
		BatchID:        batchID,
		Timestamp:      e.now().UTC(),
	}
}

// commit swaps in the next snapshot and notifies listeners.
func (e *Engine) commit(next GridState) {
	e.state = next
	e.publish(next)
}

func (e *Engine) publish(s GridState) {
	// Iterate over a copy so a listener may unsubscribe during delivery.
	slots := append([]listenerSlot(nil), e.listeners...)
	for _, slot := range slots {
		slot.l.OnStateChange(s)
	}
}
