package tabular

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/hyperjump/ragsearch/internal/models"
)

const parquetBatch = 256

// loadParquet reads every row group of a Parquet file. Each leaf column becomes one
// column named by its dotted path; repeated values are joined with ", ".
func loadParquet(content []byte, opts Options) (*Table, error) {
	f, err := parquet.OpenFile(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open Parquet: %w", err)
	}
	schema := f.Schema()
	paths := schema.Columns()
	if len(paths) == 0 {
		return nil, fmt.Errorf("table %q has no columns", opts.Name)
	}

	cols := make([]Column, len(paths))
	repeated := make([]bool, len(paths))
	for i, p := range paths {
		name := strings.Join(p, ".")
		leaf, _ := schema.Lookup(p...)
		repeated[i] = leaf.MaxRepetitionLevel > 0
		t, ok := opts.Types[name]
		if !ok {
			t = parquetType(leaf.Node.Type().Kind(), repeated[i])
		}
		cols[i] = Column{Name: name, Type: t}
	}

	r := parquet.NewReader(f)
	defer r.Close()

	rows := make([]models.Record, 0, f.NumRows())
	buf := make([]parquet.Row, parquetBatch)
	for {
		n, err := r.ReadRows(buf)
		for _, row := range buf[:n] {
			rec, err := parquetRecord(row, cols, repeated)
			if err != nil {
				return nil, fmt.Errorf("table %q row %d: %w", opts.Name, len(rows)+1, err)
			}
			rows = append(rows, rec)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read Parquet rows: %w", err)
		}
	}
	return &Table{Name: opts.Name, Columns: cols, Rows: rows}, nil
}

func parquetType(k parquet.Kind, repeated bool) ColumnType {
	if repeated {
		return TypeText
	}
	switch k {
	case parquet.Boolean:
		return TypeBoolean
	case parquet.Int32, parquet.Int64:
		return TypeInteger
	case parquet.Float, parquet.Double:
		return TypeFloat
	default:
		return TypeText
	}
}

// parquetRecord maps one row's leaf values onto cols. Null and non-finite values become nil.
func parquetRecord(row parquet.Row, cols []Column, repeated []bool) (models.Record, error) {
	values := make([][]any, len(cols))
	for _, v := range row {
		c := v.Column()
		if c < 0 || c >= len(cols) || v.IsNull() {
			continue
		}
		values[c] = append(values[c], parquetValue(v))
	}

	rec := make(models.Record, len(cols))
	for i, col := range cols {
		var cell any
		switch {
		case len(values[i]) == 0:
		case repeated[i]:
			parts := make([]string, len(values[i]))
			for j, x := range values[i] {
				parts[j] = FormatValue(x)
			}
			cell = strings.Join(parts, ", ")
		default:
			cell = values[i][0]
		}
		if cell != nil && col.Type != nativeType(cell) {
			var err error
			if cell, err = convert(FormatValue(cell), col.Type); err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Name, err)
			}
		}
		rec[col.Name] = cell
	}
	return rec, nil
}

func parquetValue(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return finiteOrNil(float64(v.Float()))
	case parquet.Double:
		return finiteOrNil(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func finiteOrNil(f float64) any {
	if !isFinite(f) {
		return nil
	}
	return f
}

// nativeType reports the ColumnType a decoded Go value already satisfies.
func nativeType(v any) ColumnType {
	switch v.(type) {
	case bool:
		return TypeBoolean
	case int64:
		return TypeInteger
	case float64:
		return TypeFloat
	default:
		return TypeText
	}
}
