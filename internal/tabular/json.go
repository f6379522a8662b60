package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/ragsearch/internal/models"
)

// loadJSON reads an array of objects, or one object per line when lines is set.
// Column order is the order in which keys are first seen.
func loadJSON(content []byte, lines bool, opts Options) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	if !lines {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read JSON: %w", err)
		}
		if d, ok := tok.(json.Delim); !ok || d != '[' {
			return nil, fmt.Errorf("JSON data must be an array of objects")
		}
	}

	var (
		order []string
		known = map[string]bool{}
		raw   []map[string]any
	)
	for {
		if !lines && !dec.More() {
			break
		}
		keys, obj, err := readObject(dec)
		if err == io.EOF && lines {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read JSON row %d: %w", len(raw)+1, err)
		}
		for _, k := range keys {
			if !known[k] {
				known[k] = true
				order = append(order, k)
			}
		}
		raw = append(raw, obj)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("table %q has no columns", opts.Name)
	}

	cols := make([]Column, len(order))
	for i, name := range order {
		t, ok := opts.Types[name]
		if !ok {
			t = TypeEmpty
			for _, obj := range raw {
				t = widen(t, valueType(obj[name]))
			}
		}
		cols[i] = Column{Name: name, Type: t}
	}

	rows := make([]models.Record, len(raw))
	for r, obj := range raw {
		rec := make(models.Record, len(cols))
		for _, c := range cols {
			rec[c.Name] = convertJSON(obj[c.Name], c.Type)
		}
		rows[r] = rec
	}
	return &Table{Name: opts.Name, Columns: cols, Rows: rows}, nil
}

// readObject decodes one JSON object, returning its keys in document order.
func readObject(dec *json.Decoder) ([]string, map[string]any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	obj := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, obj, nil
}

func valueType(v any) ColumnType {
	switch x := v.(type) {
	case nil:
		return TypeEmpty
	case bool:
		return TypeBoolean
	case json.Number:
		if _, err := x.Int64(); err == nil {
			return TypeInteger
		}
		if f, err := x.Float64(); err != nil || !isFinite(f) {
			return TypeText
		}
		return TypeFloat
	default:
		return TypeText
	}
}

// convertJSON maps decoded values onto Go types: json.Number becomes int64 or float64.
func convertJSON(v any, t ColumnType) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil && t != TypeFloat {
			return n
		}
		// Out-of-range numbers keep their literal text.
		if f, err := x.Float64(); err == nil && isFinite(f) {
			return f
		}
		return x.String()
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = convertJSON(e, TypeText)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = convertJSON(e, TypeText)
		}
		return out
	default:
		return v
	}
}
