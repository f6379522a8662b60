package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/ragsearch/internal/models"
)

func TestSQLiteMetadata_PutGet(t *testing.T) {
	store, err := NewSQLiteMetadata(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	rec := models.Record{
		"title":  "Dune",
		"year":   int64(1965),
		"rating": 4.0,
		"owned":  true,
		"note":   nil,
	}
	if err := store.Put(ctx, 0, rec); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.Get(ctx, 0)
	if err != nil || !ok {
		t.Fatalf("Get ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round trip changed record:\n got %#v\nwant %#v", got, rec)
	}
	if store.Len() != 1 {
		t.Errorf("Len=%d, want 1", store.Len())
	}
}

func TestSQLiteMetadata_NotFoundAndOverwrite(t *testing.T) {
	store, err := NewSQLiteMetadata("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, 5); ok || err != nil {
		t.Fatalf("expected not found, got ok=%v err=%v", ok, err)
	}
	_ = store.Put(ctx, 2, models.Record{"v": int64(1)})
	_ = store.Put(ctx, 2, models.Record{"v": int64(2)})
	got, _, _ := store.Get(ctx, 2)
	if got["v"] != int64(2) {
		t.Errorf("got %v, want overwrite", got)
	}
	if store.Len() != 3 {
		t.Errorf("Len=%d, want 3", store.Len())
	}
	n, err := store.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count=%d,%v want 1", n, err)
	}
}

func TestSQLiteMetadata_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "meta.db")
	ctx := context.Background()
	store, err := NewSQLiteMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Put(ctx, 0, models.Record{"a": "x"})
	_ = store.Put(ctx, 1, models.Record{"a": "y"})
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = NewSQLiteMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if store.Len() != 2 {
		t.Errorf("Len after reopen=%d, want 2", store.Len())
	}
	if err := store.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if store.Len() != 0 {
		t.Errorf("Len after reset=%d", store.Len())
	}
}

func TestSQLiteMetadata_ClosedStoreFails(t *testing.T) {
	store, err := NewSQLiteMetadata(MemoryPath)
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()
	if err := store.Put(context.Background(), 0, models.Record{"a": 1}); err == nil {
		t.Error("expected error writing to a closed store")
	}
}
