package grid

import (
	"encoding/json"
	"sort"
)

// GridState is an immutable snapshot of the grid: ordered columns, ordered
// rows, per-cell status and per-row audit history. Every successful edit
// produces a new GridState; previously published values never change.
//
// Accessors return copies so callers cannot reach the shared backing data.
type GridState struct {
	columns  []ColumnDefinition
	colIndex map[string]int
	rows     []*Row
	rowIndex map[string]int // Shared across snapshots; row ids never change
	version  uint64
	changes  []AuditEntry
}

// Version increases by one with every published transition. The initial
// snapshot has version 1.
func (s GridState) Version() uint64 { return s.version }

// Columns returns the ordered column definitions.
func (s GridState) Columns() []ColumnDefinition {
	cols := make([]ColumnDefinition, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.clone()
	}
	return cols
}

// Column returns a column definition by id.
func (s GridState) Column(id string) (ColumnDefinition, bool) {
	i, ok := s.colIndex[id]
	if !ok {
		return ColumnDefinition{}, false
	}
	return s.columns[i].clone(), true
}

// Rows returns the ordered rows.
func (s GridState) Rows() []*Row {
	return append([]*Row(nil), s.rows...)
}

// Row returns a row by id.
func (s GridState) Row(id string) (*Row, bool) {
	i, ok := s.rowIndex[id]
	if !ok {
		return nil, false
	}
	return s.rows[i], true
}

// Len returns the number of rows.
func (s GridState) Len() int { return len(s.rows) }

// Changes returns the audit entries produced by the transition into this
// snapshot. It is empty for the initial snapshot.
func (s GridState) Changes() []AuditEntry {
	return append([]AuditEntry(nil), s.changes...)
}

// InvalidCells lists every cell whose status is Invalid, in row then column order.
func (s GridState) InvalidCells() []CellRef {
	var out []CellRef
	for _, row := range s.rows {
		for _, col := range s.columns {
			c := row.cells[col.ID]
			if !c.Status.IsValid() {
				out = append(out, CellRef{RowID: row.id, ColumnID: col.ID, Message: c.Status.Message})
			}
		}
	}
	return out
}

// Summary contains aggregate counts for a snapshot.
type Summary struct {
	Version      uint64 `json:"version"`
	Rows         int    `json:"rows"`
	Columns      int    `json:"columns"`
	InvalidCells int    `json:"invalidCells"`
	Edits        int    `json:"edits"`
}

// Summary returns aggregate counts for the snapshot.
func (s GridState) Summary() Summary {
	sum := Summary{Version: s.version, Rows: len(s.rows), Columns: len(s.columns)}
	for _, row := range s.rows {
		sum.Edits += len(row.history)
		for _, c := range row.cells {
			if !c.Status.IsValid() {
				sum.InvalidCells++
			}
		}
	}
	return sum
}

// Audit returns audit entries across all rows ordered by application time,
// filtered and paginated by f.
func (s GridState) Audit(f AuditFilter) []AuditEntry {
	if f.Limit <= 0 {
		f.Limit = DefaultAuditLimit
	}

	var source []*Row
	if f.RowID != "" {
		if row, ok := s.Row(f.RowID); ok {
			source = []*Row{row}
		}
	} else {
		source = s.rows
	}

	var matched []AuditEntry
	for _, row := range source {
		for _, e := range row.history {
			if f.matches(e) {
				matched = append(matched, e)
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Seq < matched[j].Seq })

	if f.Offset >= len(matched) {
		return []AuditEntry{}
	}
	matched = matched[f.Offset:]
	if len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched
}

// withRows returns the next snapshot with the given row positions replaced.
func (s GridState) withRows(replaced map[int]*Row, changes []AuditEntry) GridState {
	rows := make([]*Row, len(s.rows))
	copy(rows, s.rows)
	for i, r := range replaced {
		rows[i] = r
	}
	return GridState{
		columns:  s.columns,
		colIndex: s.colIndex,
		rows:     rows,
		rowIndex: s.rowIndex,
		version:  s.version + 1,
		changes:  changes,
	}
}

// ColumnView is the serialized form of a column definition.
type ColumnView struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Field    string     `json:"field,omitempty"`
	Width    int        `json:"width"`
	Editable bool       `json:"editable"`
	Rules    []RuleSpec `json:"rules,omitempty"`
}

// View returns the serializable description of the column. Rules that
// cannot be serialized are reported by kind only.
func (c ColumnDefinition) View() ColumnView {
	v := ColumnView{ID: c.ID, Label: c.Label, Field: c.Field, Width: c.Width, Editable: c.Editable}
	for _, rule := range c.Rules {
		spec, err := SpecOf(rule)
		if err != nil {
			spec = RuleSpec{Kind: rule.Kind()}
		}
		v.Rules = append(v.Rules, spec)
	}
	return v
}

type stateJSON struct {
	Version uint64       `json:"version"`
	Columns []ColumnView `json:"columns"`
	Rows    []*Row       `json:"rows"`
	Changes []AuditEntry `json:"changes,omitempty"`
}

// MarshalJSON encodes the full snapshot.
func (s GridState) MarshalJSON() ([]byte, error) {
	cols := make([]ColumnView, len(s.columns))
	for i, c := range s.columns {
		cols[i] = c.View()
	}
	rows := s.rows
	if rows == nil {
		rows = []*Row{}
	}
	return json.Marshal(stateJSON{Version: s.version, Columns: cols, Rows: rows, Changes: s.changes})
}
