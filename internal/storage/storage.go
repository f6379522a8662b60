// Package storage provides persistent backends for the metadata side table.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hyperjump/ragsearch/internal/models"
)

// cell is the JSON form of one record value. Kind keeps integer and float columns
// distinct after a round trip, which plain JSON numbers do not.
type cell struct {
	Kind  string          `json:"k"`
	Value json.RawMessage `json:"v,omitempty"`
}

const (
	kindNull   = "null"
	kindString = "str"
	kindInt    = "int"
	kindFloat  = "float"
	kindBool   = "bool"
	kindJSON   = "json"
)

func encodeRecord(rec models.Record) (string, error) {
	if rec == nil {
		return "null", nil
	}
	cells := make(map[string]cell, len(rec))
	for k, v := range rec {
		c, err := encodeCell(v)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", k, err)
		}
		cells[k] = c
	}
	b, err := json.Marshal(cells)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func encodeCell(v any) (cell, error) {
	var kind string
	switch x := v.(type) {
	case nil:
		return cell{Kind: kindNull}, nil
	case string:
		kind = kindString
	case int:
		kind, v = kindInt, int64(x)
	case int32:
		kind, v = kindInt, int64(x)
	case int64:
		kind = kindInt
	case float32:
		kind, v = kindFloat, float64(x)
	case float64:
		kind = kindFloat
	case bool:
		kind = kindBool
	default:
		kind = kindJSON
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return cell{}, err
	}
	return cell{Kind: kind, Value: raw}, nil
}

func decodeRecord(payload string) (models.Record, error) {
	if payload == "" || payload == "null" {
		return nil, nil
	}
	var cells map[string]cell
	if err := json.Unmarshal([]byte(payload), &cells); err != nil {
		return nil, err
	}
	rec := make(models.Record, len(cells))
	for k, c := range cells {
		v, err := decodeCell(c)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}

func decodeCell(c cell) (any, error) {
	switch c.Kind {
	case kindNull:
		return nil, nil
	case kindString:
		var s string
		err := json.Unmarshal(c.Value, &s)
		return s, err
	case kindInt:
		var n int64
		err := json.Unmarshal(c.Value, &n)
		return n, err
	case kindFloat:
		var f float64
		err := json.Unmarshal(c.Value, &f)
		return f, err
	case kindBool:
		var b bool
		err := json.Unmarshal(c.Value, &b)
		return b, err
	default:
		var v any
		err := json.Unmarshal(c.Value, &v)
		return v, err
	}
}
