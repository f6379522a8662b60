// Package indexer turns tabular rows into embedded vectors and stores them with their metadata.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/index"
	"github.com/hyperjump/ragsearch/internal/metadata"
	"github.com/hyperjump/ragsearch/internal/metrics"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/storage"
	"github.com/hyperjump/ragsearch/internal/tabular"
	"github.com/hyperjump/ragsearch/internal/vector"
	"github.com/hyperjump/ragsearch/pkg/utils"
)

// ErrNoTextColumns is returned when a non-empty table has no text column to embed.
var ErrNoTextColumns = errors.New("table has no text columns")

// Report describes one ingested batch.
type Report struct {
	BatchID     string        `json:"batch_id"`
	Rows        int           `json:"rows"`
	IDs         []int         `json:"ids"`
	TextColumns []string      `json:"text_columns"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Indexer embeds table rows and appends them to an index.
type Indexer struct {
	embedder embedding.Embedder
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for batch summaries and failures.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithMetrics records ingestion counters and latency.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer that embeds with embedder. cfg supplies the index
// metric, metadata backend, preprocessing policy and embedding timeout.
func NewIndexer(embedder embedding.Embedder, cfg *config.Config, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		embedder: embedder,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Build creates a fresh index from configuration and ingests table into it.
// On failure the new index is closed and nothing is returned.
func (idx *Indexer) Build(ctx context.Context, table *tabular.Table) (*index.Index, *Report, error) {
	metric, err := vector.ParseMetric(idx.cfg.Index.Metric)
	if err != nil {
		return nil, nil, err
	}
	meta, err := idx.newMetadataStore(ctx, table.Len())
	if err != nil {
		return nil, nil, err
	}
	ix, err := index.New(idx.embedder.Dimensions(), metric, meta, index.WithLogger(idx.logger))
	if err != nil {
		_ = meta.Close()
		return nil, nil, fmt.Errorf("failed to create index: %w", err)
	}
	report, err := idx.Ingest(ctx, ix, table)
	if err != nil {
		_ = ix.Close()
		return nil, nil, err
	}
	return ix, report, nil
}

func (idx *Indexer) newMetadataStore(ctx context.Context, capacity int) (metadata.Store, error) {
	switch idx.cfg.Index.MetadataBackend {
	case "sqlite":
		s, err := storage.NewSQLiteMetadata(idx.cfg.Index.MetadataPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open metadata store: %w", err)
		}
		if err := s.Reset(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to reset metadata store: %w", err)
		}
		return s, nil
	case "memory", "":
		return metadata.NewArena(capacity), nil
	default:
		return nil, fmt.Errorf("unknown metadata backend: %s", idx.cfg.Index.MetadataBackend)
	}
}

// Ingest embeds every row of table with one provider call and appends the rows to ix
// in order. Embedding, dimension, finiteness and normalization failures are detected before the
// first insert, so such a batch leaves ix untouched. A metadata failure after an
// insert returns the report so far together with *index.PartialIngestionError.
func (idx *Indexer) Ingest(ctx context.Context, ix *index.Index, table *tabular.Table) (report *Report, err error) {
	start := time.Now()
	report = &Report{BatchID: uuid.New().String(), TextColumns: table.TextColumns()}
	log := idx.logger.With(zap.String("batch_id", report.BatchID), zap.String("table", table.Name))
	defer func() {
		report.Rows = len(report.IDs)
		report.Elapsed = time.Since(start)
		idx.metrics.ObserveOp("ingest", report.Elapsed, err)
		idx.metrics.AddIngested(len(report.IDs))
		if err != nil {
			log.Error("ingestion failed", zap.Int("ingested", len(report.IDs)), zap.Error(err))
		}
	}()

	log.Info("data summary",
		zap.Int("rows", table.Len()),
		zap.Int("columns", len(table.Columns)),
		zap.String("shape", table.Summary()))
	if table.Len() == 0 {
		return report, nil
	}
	if len(report.TextColumns) == 0 {
		return report, fmt.Errorf("%s: %w", table.Name, ErrNoTextColumns)
	}

	texts := make([]string, table.Len())
	for i, row := range table.Rows {
		texts[i] = idx.rowText(row, report.TextColumns)
	}

	vecs, err := embedding.EmbedBatch(ctx, idx.embedder, texts, idx.cfg.Embedding.Timeout)
	if err != nil {
		idx.metrics.EmbeddingFailure(embedding.IsTimeout(err))
		return report, err
	}
	dim := ix.Dimension()
	normalize := ix.Metric().RequiresNormalization()
	for i, v := range vecs {
		if err := vector.CheckDimension(v, dim); err != nil {
			return report, fmt.Errorf("row %d: %w", i, err)
		}
		if err := vector.CheckFinite(v); err != nil {
			return report, fmt.Errorf("row %d: %w", i, err)
		}
		if normalize {
			n, err := vector.Normalize(v)
			if err != nil {
				return report, fmt.Errorf("row %d: %w", i, err)
			}
			vecs[i] = n
		}
	}

	w, err := ix.Writer(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to acquire index writer: %w", err)
	}
	defer w.Close()

	report.IDs = make([]int, 0, len(vecs))
	for i, v := range vecs {
		id, err := w.Append(ctx, v, table.Rows[i])
		if err != nil {
			return report, err
		}
		report.IDs = append(report.IDs, id)
	}
	log.Info("batch ingested",
		zap.Int("rows", len(report.IDs)),
		zap.Strings("text_columns", report.TextColumns),
		zap.Int("index_size", ix.Size()))
	return report, nil
}

// rowText joins the row's text column values with single spaces and applies the preprocessing policy.
func (idx *Indexer) rowText(row models.Record, cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = tabular.FormatValue(row[c])
	}
	return utils.Preprocess(strings.Join(parts, " "), idx.cfg.Search.Preprocess)
}
