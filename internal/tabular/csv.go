package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

func loadDelimited(content []byte, comma rune, opts Options) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("table %q is empty", opts.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
	return fromStrings(opts.Name, header, rows, opts.Types)
}
