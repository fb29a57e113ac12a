package grid

import "encoding/json"

// Row is an immutable grid row: one cell per column plus the row's audit history.
// Rows are shared between snapshots until an edit replaces them.
type Row struct {
	id      string
	cells   map[string]Cell
	history []AuditEntry
}

// ID returns the stable row identity.
func (r *Row) ID() string { return r.id }

// Cell returns the cell for a column.
func (r *Row) Cell(columnID string) (Cell, bool) {
	c, ok := r.cells[columnID]
	return c, ok
}

// Value returns the cell value for a column, or "" when the column is unknown.
func (r *Row) Value(columnID string) string {
	return r.cells[columnID].Value
}

// Cells returns a copy of the row's cells keyed by column id.
func (r *Row) Cells() map[string]Cell {
	out := make(map[string]Cell, len(r.cells))
	for k, v := range r.cells {
		out[k] = v
	}
	return out
}

// History returns a copy of the row's audit entries in application order.
func (r *Row) History() []AuditEntry {
	return append([]AuditEntry(nil), r.history...)
}

// HistoryLen returns the number of audit entries recorded for the row.
func (r *Row) HistoryLen() int { return len(r.history) }

// CellHistory returns the row's audit entries for a single column, oldest first.
func (r *Row) CellHistory(columnID string) []AuditEntry {
	var out []AuditEntry
	for _, e := range r.history {
		if e.ColumnID == columnID {
			out = append(out, e)
		}
	}
	return out
}

// OriginalValue returns the value the column held when the row was loaded.
// It is the previous value of the first edit, or the current value if the
// cell was never edited.
func (r *Row) OriginalValue(columnID string) string {
	for _, e := range r.history {
		if e.ColumnID == columnID {
			return e.PreviousValue
		}
	}
	return r.cells[columnID].Value
}

// withEdit returns a new row with one cell replaced and entry appended.
// The receiver is left untouched.
func (r *Row) withEdit(columnID string, cell Cell, entry AuditEntry) *Row {
	cells := make(map[string]Cell, len(r.cells))
	for k, v := range r.cells {
		cells[k] = v
	}
	cells[columnID] = cell

	history := make([]AuditEntry, len(r.history), len(r.history)+1)
	copy(history, r.history)
	history = append(history, entry)

	return &Row{id: r.id, cells: cells, history: history}
}

type rowJSON struct {
	ID      string          `json:"id"`
	Cells   map[string]Cell `json:"cells"`
	History []AuditEntry    `json:"history"`
}

// MarshalJSON exposes the row as a self-describing document.
func (r *Row) MarshalJSON() ([]byte, error) {
	history := r.history
	if history == nil {
		history = []AuditEntry{}
	}
	return json.Marshal(rowJSON{ID: r.id, Cells: r.cells, History: history})
}
