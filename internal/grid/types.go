package grid

import (
	"fmt"
	"strconv"
)

// StatusKind is the validity state of a cell.
type StatusKind string

const (
	StatusValid   StatusKind = "valid"
	StatusInvalid StatusKind = "invalid"
)

// Status is the derived validity of a cell value.
// The zero value is not meaningful; use Valid or Invalid.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

// Valid returns the status of a value that passes every column rule.
func Valid() Status {
	return Status{Kind: StatusValid}
}

// Invalid returns the status of a value that failed a column rule.
func Invalid(message string) Status {
	return Status{Kind: StatusInvalid, Message: message}
}

// IsValid reports whether the status is Valid.
func (s Status) IsValid() bool {
	return s.Kind == StatusValid
}

func (s Status) String() string {
	if s.IsValid() {
		return string(StatusValid)
	}
	return fmt.Sprintf("%s(%s)", StatusInvalid, s.Message)
}

// Cell is the smallest unit of grid state.
type Cell struct {
	Value  string `json:"value"`
	Status Status `json:"status"`
}

// Record is one raw input row: arbitrary keyed scalars.
type Record map[string]any

// AccessorFunc projects a raw record onto a single field value.
type AccessorFunc func(Record) any

// Field returns an accessor that reads the named key from a record.
func Field(name string) AccessorFunc {
	return func(r Record) any {
		return r[name]
	}
}

// ColumnDefinition is the immutable schema descriptor of one grid column.
type ColumnDefinition struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Field    string       `json:"field,omitempty"` // Record key; defaults to ID
	Accessor AccessorFunc `json:"-"`               // Overrides Field when set
	Width    int          `json:"width"`
	Editable bool         `json:"editable"`
	Rules    []Rule       `json:"-"`
}

// project extracts and canonicalizes this column's raw value from a record.
func (c ColumnDefinition) project(r Record) string {
	if c.Accessor != nil {
		return FormatScalar(c.Accessor(r))
	}
	key := c.Field
	if key == "" {
		key = c.ID
	}
	return FormatScalar(r[key])
}

// Evaluate runs the column rules against value in order.
// The first failing rule determines the message.
func (c ColumnDefinition) Evaluate(value string) Status {
	for _, rule := range c.Rules {
		if msg, ok := rule.Check(value); !ok {
			return Invalid(msg)
		}
	}
	return Valid()
}

// newCell builds a cell whose status is derived from the column rules.
func (c ColumnDefinition) newCell(value string) Cell {
	return Cell{Value: value, Status: c.Evaluate(value)}
}

// clone returns a copy whose rules share no mutable state with c.
func (c ColumnDefinition) clone() ColumnDefinition {
	if c.Rules != nil {
		rules := make([]Rule, len(c.Rules))
		for i, r := range c.Rules {
			rules[i] = cloneRule(r)
		}
		c.Rules = rules
	}
	return c
}

// CellRef addresses one cell of a snapshot.
type CellRef struct {
	RowID    string `json:"rowId"`
	ColumnID string `json:"columnId"`
	Message  string `json:"message,omitempty"`
}

// FormatScalar converts a raw record value to its canonical string form.
func FormatScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
