// Package schema loads grid column definitions from YAML schema files.
//
// A schema file names the record field that identifies rows and lists the
// columns in display order:
//
//	row_id: sample_id
//	columns:
//	  - id: result
//	    label: Result
//	    type: numeric
//	    editable: true
//	    rules:
//	      - kind: range
//	        min: 13
//	        max: 16
//	        message: OOS
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// File is the on-disk layout of a schema.
type File struct {
	RowID   string       `yaml:"row_id,omitempty"`
	Columns []ColumnSpec `yaml:"columns"`
}

// Schema is a parsed schema ready to build an engine from.
type Schema struct {
	RowIDField string
	Columns    []grid.ColumnDefinition
}

// Load reads and parses a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML schema. Unknown keys are rejected so typos in rule
// or column fields surface at startup. All returned errors wrap
// grid.ErrInvalidSchema.
func Parse(data []byte) (*Schema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", grid.ErrInvalidSchema)
		}
		return nil, fmt.Errorf("%w: %v", grid.ErrInvalidSchema, err)
	}
	return f.Build()
}

// Build converts the file layout into column definitions.
func (f File) Build() (*Schema, error) {
	if len(f.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns defined", grid.ErrInvalidSchema)
	}

	cols := make([]grid.ColumnDefinition, 0, len(f.Columns))
	seen := make(map[string]bool, len(f.Columns))
	for i, spec := range f.Columns {
		def, err := spec.Definition()
		if err != nil {
			return nil, fmt.Errorf("%w: column %d (%s): %v", grid.ErrInvalidSchema, i, spec.ID, err)
		}
		if seen[def.ID] {
			return nil, fmt.Errorf("%w: duplicate column id %q", grid.ErrInvalidSchema, def.ID)
		}
		seen[def.ID] = true
		cols = append(cols, def)
	}
	return &Schema{RowIDField: f.RowID, Columns: cols}, nil
}

// Marshal encodes column definitions back into schema YAML.
// Predicate rules that are not registered by name are omitted.
func Marshal(rowIDField string, columns []grid.ColumnDefinition) ([]byte, error) {
	f := File{RowID: rowIDField, Columns: make([]ColumnSpec, 0, len(columns))}
	for _, c := range columns {
		spec := ColumnSpec{
			ID:       c.ID,
			Label:    c.Label,
			Field:    c.Field,
			Width:    c.Width,
			Editable: c.Editable,
		}
		for _, rule := range c.Rules {
			rs, err := grid.SpecOf(rule)
			if err != nil {
				continue
			}
			spec.Rules = append(spec.Rules, rs)
		}
		f.Columns = append(f.Columns, spec)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	return buf.Bytes(), nil
}
