package schema

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// FieldType is the expected data type of a column. Each type other than
// text contributes a format rule ahead of the column's explicit rules.
type FieldType string

const (
	FieldText    FieldType = "text"
	FieldNumeric FieldType = "numeric"
	FieldDate    FieldType = "date"
	FieldBool    FieldType = "bool"
	FieldEnum    FieldType = "enum"
)

// ColumnSpec describes one grid column in a schema file.
type ColumnSpec struct {
	ID       string          `yaml:"id"`
	Label    string          `yaml:"label,omitempty"`    // Defaults to ID
	Field    string          `yaml:"field,omitempty"`    // Record key; defaults to ID
	Type     FieldType       `yaml:"type,omitempty"`     // Defaults to text
	Width    int             `yaml:"width,omitempty"`    // Defaults to DefaultWidth
	Editable bool            `yaml:"editable,omitempty"` // Columns are read-only unless set
	Required bool            `yaml:"required,omitempty"`
	Values   []string        `yaml:"values,omitempty"` // Allowed values for enum columns
	Rules    []grid.RuleSpec `yaml:"rules,omitempty"`
}

// DefaultWidth is used for columns that do not set a width.
const DefaultWidth = 12

// Definition converts the spec into a grid column.
// Rules are ordered: required, type format, enum membership, explicit rules.
func (c ColumnSpec) Definition() (grid.ColumnDefinition, error) {
	id := strings.TrimSpace(c.ID)
	if id == "" {
		return grid.ColumnDefinition{}, fmt.Errorf("column id is empty")
	}

	def := grid.ColumnDefinition{
		ID:       id,
		Label:    c.Label,
		Field:    c.Field,
		Width:    c.Width,
		Editable: c.Editable,
	}
	if def.Label == "" {
		def.Label = id
	}
	if def.Width == 0 {
		def.Width = DefaultWidth
	}

	if c.Required {
		def.Rules = append(def.Rules, grid.RequiredRule{})
	}
	switch c.Type {
	case "", FieldText:
	case FieldNumeric:
		def.Rules = append(def.Rules, grid.NumericRule{})
	case FieldDate:
		def.Rules = append(def.Rules, grid.DateRule{})
	case FieldBool:
		def.Rules = append(def.Rules, grid.BoolRule{})
	case FieldEnum:
		if len(c.Values) == 0 {
			return grid.ColumnDefinition{}, fmt.Errorf("enum column %q has no values", id)
		}
		def.Rules = append(def.Rules, grid.EnumRule{Values: append([]string(nil), c.Values...)})
	default:
		return grid.ColumnDefinition{}, fmt.Errorf("unknown field type %q", c.Type)
	}

	rules, err := grid.BuildRules(c.Rules)
	if err != nil {
		return grid.ColumnDefinition{}, err
	}
	def.Rules = append(def.Rules, rules...)
	return def, nil
}
