package tabular

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Options tune how a file is turned into a table.
type Options struct {
	// Name overrides the table name; defaults to the file name without extension.
	Name string
	// Sheet selects a spreadsheet sheet; defaults to the first.
	Sheet string
	// Types declares column types and skips inference for those columns.
	Types map[string]ColumnType
}

// Load reads the file at path and parses it according to its extension.
func Load(path string, opts Options) (*Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if opts.Name == "" {
		base := filepath.Base(path)
		opts.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return LoadBytes(content, strings.ToLower(filepath.Ext(path)), opts)
}

// LoadBytes parses content for the given extension (with leading dot, e.g. ".csv").
func LoadBytes(content []byte, ext string, opts Options) (*Table, error) {
	if opts.Name == "" {
		opts.Name = "data"
	}
	switch ext {
	case ".csv":
		return loadDelimited(content, ',', opts)
	case ".tsv", ".tab":
		return loadDelimited(content, '\t', opts)
	case ".json":
		return loadJSON(content, false, opts)
	case ".jsonl", ".ndjson":
		return loadJSON(content, true, opts)
	case ".xlsx", ".xlsm":
		return loadXLSX(content, opts)
	case ".pdf":
		return loadPDF(content, opts)
	case ".docx":
		return loadDOCX(content, opts)
	case ".parquet", ".pq":
		return loadParquet(content, opts)
	case ".txt", ".md", ".rst":
		return loadPlain(content, opts)
	default:
		return nil, fmt.Errorf("unsupported data format %q (supported: .csv, .tsv, .json, .jsonl, .xlsx, .parquet, .pdf, .docx, .txt, .md)", ext)
	}
}

// IsSupported reports whether Load understands files with the extension of path.
func IsSupported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv", ".tab", ".json", ".jsonl", ".ndjson", ".xlsx", ".xlsm", ".parquet", ".pq", ".pdf", ".docx", ".txt", ".md", ".rst":
		return true
	}
	return false
}
