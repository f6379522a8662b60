package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/database"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/indexer"
	"github.com/hyperjump/ragsearch/internal/search"
	"github.com/hyperjump/ragsearch/internal/tabular"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatcher_DebouncesWritesToTheFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	writeFile(t, path, "a\n1\n")

	var calls atomic.Int32
	w := NewWatcher(path, func(context.Context, string) { calls.Add(1) }, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, path, "a\n"+string(rune('1'+i))+"\n")
	}
	writeFile(t, filepath.Join(dir, "other.csv"), "b\n2\n")

	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("onChange calls=%d, want 1 for one burst", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	writeFile(t, path, "a\n1\n")
	w := NewWatcher(path, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if w.Path() != path {
		t.Errorf("Path()=%q, want %q", w.Path(), path)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "data.csv"), nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for missing directory")
	}
}

func newReloader(t *testing.T, path string, opts ...ReloaderOption) (*Reloader, *search.Engine) {
	t.Helper()
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	emb := embedding.NewHashEmbedder(16)
	engine := search.NewEngine(emb, cfg, nil)
	t.Cleanup(func() { _ = engine.Close() })
	return NewReloader(path, tabular.Options{}, indexer.NewIndexer(emb, cfg), engine, opts...), engine
}

func TestReloader_ReplacesIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	writeFile(t, path, "title,year\nDune,1965\nEmma,1815\n")
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	r, engine := newReloader(t, path, WithDatabase(db, "data"))
	report, err := r.Reload(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if report.Rows != 2 || engine.IndexSize() != 2 {
		t.Fatalf("rows=%d size=%d, want 2", report.Rows, engine.IndexSize())
	}
	res, err := db.Query(context.Background(), "SELECT COUNT(*) AS n FROM data")
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows[0]["n"] != int64(2) {
		t.Errorf("database rows=%v", res.Rows[0]["n"])
	}

	writeFile(t, path, "title,year\nDune,1965\nEmma,1815\nUlysses,1922\n")
	if _, err := r.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	if engine.IndexSize() != 3 {
		t.Errorf("size after reload=%d, want 3", engine.IndexSize())
	}
}

func TestReloader_FailureKeepsPreviousIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	writeFile(t, path, "title\nDune\n")
	r, engine := newReloader(t, path)
	if _, err := r.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Only numeric columns: nothing to embed.
	writeFile(t, path, "year\n1965\n1922\n")
	r.OnChange(context.Background(), path)
	if engine.IndexSize() != 1 {
		t.Errorf("size=%d, want previous index of 1", engine.IndexSize())
	}

	_ = os.Remove(path)
	if _, err := r.Reload(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
	if engine.IndexSize() != 1 {
		t.Errorf("size=%d, want previous index of 1", engine.IndexSize())
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	writeFile(t, path, "title\nDune\n")
	r, engine := newReloader(t, path)
	if _, err := r.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	w := NewWatcher(path, r.OnChange, WithDebounce(20*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, path, "title\nDune\nEmma\nUlysses\n")
	waitFor(t, func() bool { return engine.IndexSize() == 3 })
}
