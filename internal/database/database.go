// Package database runs generated SQL against SQLite, DuckDB or PostgreSQL and loads tables into them.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/tabular"
)

// Result is the outcome of a query: column names in select order and one record per row.
type Result struct {
	Columns []string        `json:"columns"`
	Rows    []models.Record `json:"rows"`
}

// Querier executes SQL and manages tables in a relational store.
type Querier interface {
	// Query runs a statement and returns its rows.
	Query(ctx context.Context, query string) (*Result, error)
	// LoadTable replaces table name with the contents of t.
	LoadTable(ctx context.Context, t *tabular.Table, name string) error
	// Columns lists the column names of table name in declaration order.
	Columns(ctx context.Context, name string) ([]string, error)
	Close() error
}

// Open connects to dsn. postgres:// and postgresql:// URLs select PostgreSQL;
// duckdb://path and duckdb:path select DuckDB ("duckdb:" alone is in-memory);
// sqlite://path, file: URIs, bare paths and ":memory:" select SQLite.
func Open(ctx context.Context, dsn string) (Querier, error) {
	switch {
	case dsn == "":
		return nil, fmt.Errorf("database dsn is required")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err := NewPostgres(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		return db, nil
	case strings.HasPrefix(dsn, "duckdb:"):
		path := strings.TrimPrefix(strings.TrimPrefix(dsn, "duckdb:"), "//")
		db, err := NewDuckDB(path)
		if err != nil {
			return nil, fmt.Errorf("duckdb: %w", err)
		}
		return db, nil
	default:
		db, err := NewSQLite(strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		return db, nil
	}
}

// dialect captures what differs between the supported engines.
type dialect struct {
	placeholder func(n int) string
	columnType  func(tabular.ColumnType) string
	columnsSQL  func(name string) (string, []any)
}

// sqlStore implements Querier over database/sql for one dialect.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlStore) Query(ctx context.Context, query string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	res := &Result{Columns: cols, Rows: []models.Record{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(models.Record, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				rec[c] = string(b)
			} else {
				rec[c] = values[i]
			}
		}
		res.Rows = append(res.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return res, nil
}

func (s *sqlStore) LoadTable(ctx context.Context, t *tabular.Table, name string) error {
	if name == "" {
		return fmt.Errorf("table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", name)
	}
	table := quoteIdent(name)
	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quoteIdent(c.Name)
		defs[i] = names[i] + " " + s.dialect.columnType(c.Type)
		marks[i] = s.dialect.placeholder(i + 1)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("failed to drop %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))); err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for r, row := range t.Rows {
		for i, c := range t.Columns {
			args[i] = row[c.Name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", r, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", name, err)
	}
	return nil
}

func (s *sqlStore) Columns(ctx context.Context, name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	query, args := s.dialect.columnsSQL(name)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", name, err)
	}
	defer rows.Close()
	res, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(res.Rows))
	for _, r := range res.Rows {
		cols = append(cols, fmt.Sprint(r["name"]))
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", name)
	}
	return cols, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
