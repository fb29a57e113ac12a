// Package dataset loads grid records from CSV exports.
//
// Exports from spreadsheet tools are messy, so the loader:
//
//   - Skips a UTF-8 byte order mark
//   - Replaces invalid UTF-8 with U+FFFD
//   - Searches the first rows for the header (title rows are common)
//   - Matches header names case-insensitively against the expected fields
//   - Cleans Excel artifacts (="0012", surrounding quotes) from values
//   - Drops blank rows
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/gridreview/internal/grid"
)

// MaxHeaderSearchRows is how many leading rows are checked for the header.
const MaxHeaderSearchRows = 20

// DefaultMaxRows limits the rows loaded when Options.MaxRows is zero.
const DefaultMaxRows = 100_000

var (
	ErrHeaderNotFound = errors.New("header row not found")
	ErrTooManyRows    = errors.New("too many rows")
)

// Options control how a CSV file is mapped to records.
type Options struct {
	// Fields are the record keys the grid expects. The header row is the
	// first row that contains all of them. Matching ignores case.
	Fields []string

	// MaxRows caps the number of data rows (DefaultMaxRows when zero).
	MaxRows int
}

// FieldsFor returns the record keys read by columns without a custom accessor.
func FieldsFor(columns []grid.ColumnDefinition) []string {
	fields := make([]string, 0, len(columns))
	for _, c := range columns {
		if c.Accessor != nil {
			continue
		}
		name := c.Field
		if name == "" {
			name = c.ID
		}
		fields = append(fields, name)
	}
	return fields
}

// Load reads records from a CSV file.
func Load(path string, opts Options) ([]grid.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	records, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return records, nil
}

// Read parses CSV data into records keyed by field name. Columns present in
// the file but not listed in opts.Fields are kept under their cleaned header.
func Read(r io.Reader, opts Options) ([]grid.Record, error) {
	maxRows := opts.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}

	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		keys    []string
		records []grid.Record
		line    int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		line++

		if keys == nil {
			if k, ok := matchHeader(row, opts.Fields); ok {
				keys = k
				continue
			}
			if line >= MaxHeaderSearchRows {
				return nil, fmt.Errorf("%w in first %d rows (want %s)",
					ErrHeaderNotFound, MaxHeaderSearchRows, strings.Join(opts.Fields, ", "))
			}
			continue
		}

		if isEmptyRow(row) {
			continue
		}
		if len(records) >= maxRows {
			return nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}
		records = append(records, toRecord(keys, row))
	}

	if keys == nil {
		return nil, fmt.Errorf("%w (want %s)", ErrHeaderNotFound, strings.Join(opts.Fields, ", "))
	}
	return records, nil
}

// matchHeader maps a candidate header row to record keys. It reports false
// unless every expected field is present. With no expected fields the first
// non-empty row is the header.
func matchHeader(row []string, fields []string) ([]string, bool) {
	if isEmptyRow(row) {
		return nil, false
	}

	canonical := make(map[string]string, len(fields))
	for _, f := range fields {
		canonical[strings.ToLower(f)] = f
	}

	keys := make([]string, len(row))
	found := make(map[string]bool, len(fields))
	for i, h := range row {
		name := grid.CleanCell(sanitize(h))
		if f, ok := canonical[strings.ToLower(name)]; ok {
			name = f
			found[f] = true
		}
		keys[i] = name
	}
	return keys, len(found) == len(canonical)
}

func toRecord(keys []string, row []string) grid.Record {
	rec := make(grid.Record, len(keys))
	for i, key := range keys {
		if key == "" {
			continue
		}
		if i < len(row) {
			rec[key] = grid.CleanCell(sanitize(row[i]))
		} else {
			rec[key] = nil
		}
	}
	return rec
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
