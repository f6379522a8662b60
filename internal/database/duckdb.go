//go:build cgo
// +build cgo

package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/hyperjump/ragsearch/internal/tabular"
)

var duckdbDialect = dialect{
	placeholder: func(int) string { return "?" },
	columnType: func(t tabular.ColumnType) string {
		switch t {
		case tabular.TypeInteger:
			return "BIGINT"
		case tabular.TypeFloat:
			return "DOUBLE"
		case tabular.TypeBoolean:
			return "BOOLEAN"
		default:
			return "VARCHAR"
		}
	},
	columnsSQL: func(name string) (string, []any) {
		return `SELECT column_name AS name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`, []any{name}
	},
}

// NewDuckDB opens a DuckDB database file at path. An empty path or ":memory:" is in-memory.
func NewDuckDB(path string) (Querier, error) {
	if path == "" || strings.EqualFold(path, ":memory:") {
		path = ""
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &sqlStore{db: db, dialect: duckdbDialect}, nil
}
