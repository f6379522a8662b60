// Package tabular loads rows with typed columns from CSV, JSON, spreadsheet, Parquet and document files.
package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hyperjump/ragsearch/internal/models"
)

// ColumnType is the declared or inferred type of a column.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeBoolean ColumnType = "boolean"
	// TypeEmpty marks a column with no non-empty values.
	TypeEmpty ColumnType = "empty"
)

// Column is a named, typed column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is an ordered set of columns and rows. Every row has one entry per column;
// empty cells are nil.
type Table struct {
	Name    string
	Columns []Column
	Rows    []models.Record
}

// TextColumns returns the names of text columns in column order.
func (t *Table) TextColumns() []string {
	var names []string
	for _, c := range t.Columns {
		if c.Type == TypeText {
			names = append(names, c.Name)
		}
	}
	return names
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// ColumnNames returns all column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Summary describes the table shape and column types, e.g. "3 rows x 2 columns [title:text year:integer]".
func (t *Table) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d rows x %d columns [", len(t.Rows), len(t.Columns))
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.Name)
		b.WriteByte(':')
		b.WriteString(string(c.Type))
	}
	b.WriteByte(']')
	return b.String()
}

// ParseColumnType maps a declared type name to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "str", "object":
		return TypeText, nil
	case "integer", "int", "int64":
		return TypeInteger, nil
	case "float", "double", "float64", "number":
		return TypeFloat, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	default:
		return "", fmt.Errorf("unknown column type %q", s)
	}
}

// InferType infers a column type from raw string cells. Blank cells are ignored.
// A column is text as soon as one non-blank cell is not a number or boolean.
func InferType(values []string) ColumnType {
	t := TypeEmpty
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t = widen(t, cellType(v))
		if t == TypeText {
			return t
		}
	}
	return t
}

func cellType(v string) ColumnType {
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return TypeInteger
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && isFinite(f) {
		return TypeFloat
	}
	if _, ok := parseBool(v); ok {
		return TypeBoolean
	}
	return TypeText
}

// isFinite rejects NaN and the infinities that strconv.ParseFloat accepts by name.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// parseBool accepts only the words true and false, in any case.
func parseBool(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// widen merges two cell types into the narrowest type that holds both.
func widen(a, b ColumnType) ColumnType {
	switch {
	case a == TypeEmpty:
		return b
	case b == TypeEmpty || a == b:
		return a
	case (a == TypeInteger && b == TypeFloat) || (a == TypeFloat && b == TypeInteger):
		return TypeFloat
	default:
		return TypeText
	}
}

// convert turns a raw string cell into the Go value for t. Blank cells become nil.
func convert(raw string, t ColumnType) (any, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil, nil
	}
	switch t {
	case TypeInteger:
		return strconv.ParseInt(v, 10, 64)
	case TypeFloat:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		// NaN and Inf have no JSON form; a declared float column stores them as missing.
		if !isFinite(f) {
			return nil, nil
		}
		return f, nil
	case TypeBoolean:
		b, ok := parseBool(v)
		if !ok {
			return nil, fmt.Errorf("invalid boolean %q", v)
		}
		return b, nil
	default:
		return raw, nil
	}
}

// fromStrings builds a table from a header and string rows, inferring or applying column types.
// declared overrides inference for the named columns. Short rows are padded with nil.
func fromStrings(name string, header []string, rows [][]string, declared map[string]ColumnType) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("table %q has no header row", name)
	}
	cols := make([]Column, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		if seen[h] {
			return nil, fmt.Errorf("table %q has duplicate column %q", name, h)
		}
		seen[h] = true
		values := make([]string, len(rows))
		for r, row := range rows {
			if i < len(row) {
				values[r] = row[i]
			}
		}
		t, ok := declared[h]
		if !ok {
			t = InferType(values)
		}
		cols[i] = Column{Name: h, Type: t}
	}

	records := make([]models.Record, len(rows))
	for r, row := range rows {
		if len(row) > len(cols) {
			return nil, fmt.Errorf("table %q row %d has %d cells, header has %d", name, r+1, len(row), len(cols))
		}
		rec := make(models.Record, len(cols))
		for i, c := range cols {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			v, err := convert(raw, c.Type)
			if err != nil {
				return nil, fmt.Errorf("table %q row %d column %q: %w", name, r+1, c.Name, err)
			}
			rec[c.Name] = v
		}
		records[r] = rec
	}
	return &Table{Name: name, Columns: cols, Rows: records}, nil
}

// FormatValue renders a cell for embedding text. nil renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
