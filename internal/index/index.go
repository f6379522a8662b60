// Package index couples a vector store with its metadata side table under one lock.
package index

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/metadata"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/vector"
)

// Hit is a vector search result joined with its metadata record.
// Found is false when the metadata store has no record for ID.
type Hit struct {
	ID       int
	Score    float64
	Metadata models.Record
	Found    bool
}

// Index is the single logical owner of a vector store and a metadata store.
// At most one Writer exists at a time. Searches run concurrently with each other
// but never overlap an in-progress Append.
type Index struct {
	vectors *vector.Store
	meta    metadata.Store
	logger  *zap.Logger

	// writer is a one-slot semaphore held for a whole ingestion batch.
	writer chan struct{}
	// pair guards each vector insert together with its metadata put.
	pair sync.RWMutex
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger for the index.
func WithLogger(l *zap.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// New creates an empty index. meta must be empty; ids always start at 0.
func New(dimension int, metric vector.Metric, meta metadata.Store, opts ...Option) (*Index, error) {
	if meta == nil {
		return nil, fmt.Errorf("metadata store is required")
	}
	if meta.Len() != 0 {
		return nil, fmt.Errorf("metadata store must be empty, has %d records", meta.Len())
	}
	vs, err := vector.NewStore(dimension, metric)
	if err != nil {
		return nil, err
	}
	ix := &Index{
		vectors: vs,
		meta:    meta,
		logger:  zap.NewNop(),
		writer:  make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix, nil
}

// Writer acquires the single-writer lock, blocking until the current batch finishes
// or ctx is done. The caller must Close the returned Writer.
func (ix *Index) Writer(ctx context.Context) (*Writer, error) {
	select {
	case ix.writer <- struct{}{}:
		return &Writer{ix: ix}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Search returns the topK nearest vectors with their metadata, best first.
func (ix *Index) Search(ctx context.Context, query []float32, topK int) ([]Hit, error) {
	ix.pair.RLock()
	defer ix.pair.RUnlock()

	results, err := ix.vectors.Search(query, topK)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		rec, ok, err := ix.meta.Get(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load metadata for id %d: %w", r.ID, err)
		}
		if !ok {
			ix.logger.Warn("missing metadata for vector", zap.Int("id", r.ID))
		}
		hits[i] = Hit{ID: r.ID, Score: r.Score, Metadata: rec, Found: ok}
	}
	return hits, nil
}

// Size returns the number of stored vectors.
func (ix *Index) Size() int { return ix.vectors.Size() }

// Dimension returns the fixed vector length.
func (ix *Index) Dimension() int { return ix.vectors.Dimension() }

// Metric returns the vector store metric.
func (ix *Index) Metric() vector.Metric { return ix.vectors.Metric() }

// Close releases the metadata store.
func (ix *Index) Close() error {
	return ix.meta.Close()
}

// Writer appends rows to an Index while holding its single-writer lock.
type Writer struct {
	ix     *Index
	once   sync.Once
	closed bool
}

// Append inserts vec and stores rec under the returned id as one unit.
// Inner-product indexes accept only unit vectors. A metadata failure after a
// successful insert returns *PartialIngestionError naming the id.
func (w *Writer) Append(ctx context.Context, vec []float32, rec models.Record) (int, error) {
	ix := w.ix
	ix.pair.Lock()
	defer ix.pair.Unlock()
	if w.closed {
		return 0, ErrWriterClosed
	}
	if err := vector.CheckDimension(vec, ix.vectors.Dimension()); err != nil {
		return 0, err
	}
	if err := vector.CheckFinite(vec); err != nil {
		return 0, err
	}
	if ix.vectors.Metric().RequiresNormalization() && !vector.IsNormalized(vec) {
		return 0, ErrNotNormalized
	}

	id, err := ix.vectors.Insert(vec)
	if err != nil {
		return 0, err
	}
	if err := ix.meta.Put(ctx, id, rec); err != nil {
		ix.logger.Error("metadata write failed after vector insert", zap.Int("id", id), zap.Error(err))
		return id, &PartialIngestionError{ID: id, Err: err}
	}
	return id, nil
}

// Close releases the single-writer lock. Later Appends fail with ErrWriterClosed.
// It is safe to call more than once.
func (w *Writer) Close() {
	w.once.Do(func() {
		w.ix.pair.Lock()
		w.closed = true
		w.ix.pair.Unlock()
		<-w.ix.writer
	})
}
