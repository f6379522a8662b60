package watcher

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/database"
	"github.com/hyperjump/ragsearch/internal/indexer"
	"github.com/hyperjump/ragsearch/internal/search"
	"github.com/hyperjump/ragsearch/internal/tabular"
)

// Reloader rebuilds the index from a data file and swaps it into the engine.
type Reloader struct {
	path    string
	options tabular.Options
	indexer *indexer.Indexer
	engine  *search.Engine
	db      database.Querier
	table   string
	logger  *zap.Logger
	mu      sync.Mutex
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithReloadLogger sets the logger.
func WithReloadLogger(l *zap.Logger) ReloaderOption {
	return func(r *Reloader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDatabase also loads every reloaded table into db as table name.
func WithDatabase(db database.Querier, name string) ReloaderOption {
	return func(r *Reloader) {
		r.db = db
		r.table = name
	}
}

// NewReloader creates a reloader for the data file at path.
func NewReloader(path string, opts tabular.Options, idx *indexer.Indexer, engine *search.Engine, ropts ...ReloaderOption) *Reloader {
	r := &Reloader{
		path:    path,
		options: opts,
		indexer: idx,
		engine:  engine,
		logger:  zap.NewNop(),
	}
	for _, o := range ropts {
		o(r)
	}
	return r
}

// Reload loads the data file, builds a fresh index and serves it. On failure the
// engine keeps serving the previous index.
func (r *Reloader) Reload(ctx context.Context) (*indexer.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := tabular.Load(r.path, r.options)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", r.path, err)
	}
	ix, report, err := r.indexer.Build(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", r.path, err)
	}
	if old := r.engine.Replace(ix); old != nil {
		if err := old.Close(); err != nil {
			r.logger.Warn("failed to close previous index", zap.Error(err))
		}
	}
	r.logger.Info("data loaded",
		zap.String("path", r.path),
		zap.String("batch_id", report.BatchID),
		zap.Int("rows", report.Rows),
		zap.Duration("elapsed", report.Elapsed))

	if r.db != nil {
		if err := r.db.LoadTable(ctx, table, r.table); err != nil {
			return report, fmt.Errorf("failed to load %s into database table %s: %w", r.path, r.table, err)
		}
	}
	return report, nil
}

// OnChange adapts Reload to a Watcher callback; failures are logged.
func (r *Reloader) OnChange(ctx context.Context, path string) {
	if _, err := r.Reload(ctx); err != nil {
		r.logger.Warn("reload failed; serving the previous index", zap.String("path", path), zap.Error(err))
	}
}
