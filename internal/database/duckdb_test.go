//go:build cgo
// +build cgo

package database

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/ragsearch/internal/models"
)

func TestDuckDB_LoadAndQuery(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "duckdb:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := db.LoadTable(ctx, peopleTable(), "people"); err != nil {
		t.Fatal(err)
	}

	res, err := db.Query(ctx, `SELECT name, age, score FROM people WHERE active ORDER BY name`)
	if err != nil {
		t.Fatal(err)
	}
	want := []models.Record{
		{"name": "Ada", "age": int64(36), "score": 9.5},
		{"name": `O"Brien`, "age": nil, "score": 7.25},
	}
	if !reflect.DeepEqual(res.Rows, want) {
		t.Errorf("rows=%v, want %v", res.Rows, want)
	}

	cols, err := db.Columns(ctx, "people")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []string{"name", "age", "score", "active"}) {
		t.Errorf("columns=%v", cols)
	}
	if _, err := db.Columns(ctx, "missing"); err == nil {
		t.Error("expected error for missing table")
	}

	// Reloading replaces the table.
	small := peopleTable()
	small.Rows = small.Rows[:1]
	if err := db.LoadTable(ctx, small, "people"); err != nil {
		t.Fatal(err)
	}
	res, err = db.Query(ctx, `SELECT COUNT(*) AS n FROM people`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows[0]["n"] != int64(1) {
		t.Errorf("count=%#v, want 1", res.Rows[0]["n"])
	}
}

func TestOpen_DuckDBFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "people.duckdb")
	db, err := Open(context.Background(), "duckdb://"+path)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.LoadTable(context.Background(), peopleTable(), "people"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}
