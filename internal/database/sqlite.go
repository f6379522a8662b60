package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ragsearch/internal/tabular"
)

var sqliteDialect = dialect{
	placeholder: func(int) string { return "?" },
	columnType: func(t tabular.ColumnType) string {
		switch t {
		case tabular.TypeInteger, tabular.TypeBoolean:
			return "INTEGER"
		case tabular.TypeFloat:
			return "REAL"
		default:
			return "TEXT"
		}
	},
	columnsSQL: func(name string) (string, []any) {
		return "SELECT name FROM pragma_table_info(?) ORDER BY cid", []any{name}
	},
}

// NewSQLite opens a SQLite database at path. An empty path or ":memory:" is in-memory.
func NewSQLite(path string) (Querier, error) {
	inMemory := path == "" || strings.EqualFold(path, ":memory:")
	if inMemory {
		path = ":memory:"
	} else if !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return &sqlStore{db: db, dialect: sqliteDialect}, nil
}
