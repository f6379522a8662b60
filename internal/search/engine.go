// Package search answers free-text queries against the served index.
package search

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/index"
	"github.com/hyperjump/ragsearch/internal/metrics"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/vector"
)

// ErrNoIndex is returned when no data has been loaded yet. It matches vector.ErrEmptyIndex.
var ErrNoIndex = fmt.Errorf("no data loaded: %w", vector.ErrEmptyIndex)

// Engine embeds queries and ranks rows of the current index.
type Engine struct {
	embedder embedding.Embedder
	config   *config.Config
	index    atomic.Pointer[index.Index]
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records search latency and provider failures.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine serving ix, which may be nil until the first Replace.
func NewEngine(embedder embedding.Embedder, cfg *config.Config, ix *index.Index, opts ...Option) *Engine {
	e := &Engine{
		embedder: embedder,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	if ix != nil {
		e.Replace(ix)
	}
	return e
}

// Replace atomically swaps the served index and returns the previous one, which the
// caller closes once it is no longer needed.
func (e *Engine) Replace(ix *index.Index) *index.Index {
	old := e.index.Swap(ix)
	size := 0
	if ix != nil {
		size = ix.Size()
	}
	e.metrics.SetIndexSize(size)
	e.logger.Info("index replaced", zap.Int("size", size))
	return old
}

// Search embeds the query and returns the top matches with their metadata, best first.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (resp *models.SearchResponse, err error) {
	start := time.Now()
	defer func() { e.metrics.ObserveOp("search", time.Since(start), err) }()

	text, err := ProcessQuery(query, &e.config.Search)
	if err != nil {
		return nil, err
	}
	ix := e.index.Load()
	if ix == nil {
		return nil, ErrNoIndex
	}

	vec, err := embedding.EmbedOne(ctx, e.embedder, text, e.config.Embedding.Timeout)
	if err != nil {
		e.metrics.EmbeddingFailure(embedding.IsTimeout(err))
		return nil, err
	}
	if ix.Metric().RequiresNormalization() {
		if vec, err = vector.Normalize(vec); err != nil {
			return nil, fmt.Errorf("query %q: %w", query.Query, err)
		}
	}

	hits, err := ix.Search(ctx, vec, query.TopK)
	if err != nil {
		return nil, err
	}

	resp = &models.SearchResponse{
		Results: make([]*models.SearchResult, len(hits)),
		Total:   len(hits),
		Metric:  ix.Metric().String(),
		Query:   query.Query,
	}
	for i, h := range hits {
		r := &models.SearchResult{ID: h.ID, Score: h.Score, Rank: i + 1}
		if h.Found {
			r.Metadata = h.Metadata
		}
		resp.Results[i] = r
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	e.logger.Debug("search",
		zap.String("query", query.Query),
		zap.Int("top_k", query.TopK),
		zap.Int("results", len(hits)),
		zap.Int64("query_time_ms", resp.QueryTime))
	return resp, nil
}

// IndexSize returns the number of vectors served, or 0 before any data is loaded.
func (e *Engine) IndexSize() int {
	if ix := e.index.Load(); ix != nil {
		return ix.Size()
	}
	return 0
}

// Metric returns the served index metric, or "" before any data is loaded.
func (e *Engine) Metric() vector.Metric {
	if ix := e.index.Load(); ix != nil {
		return ix.Metric()
	}
	return ""
}

// Dimension returns the embedding dimension.
func (e *Engine) Dimension() int {
	if ix := e.index.Load(); ix != nil {
		return ix.Dimension()
	}
	return e.embedder.Dimensions()
}

// Close closes the served index.
func (e *Engine) Close() error {
	if ix := e.index.Swap(nil); ix != nil {
		return ix.Close()
	}
	return nil
}
