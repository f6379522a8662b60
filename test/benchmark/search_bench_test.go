package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/indexer"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/search"
	"github.com/hyperjump/ragsearch/internal/tabular"
	"github.com/hyperjump/ragsearch/internal/vector"
)

const benchDimensions = 384

func BenchmarkStoreSearch(b *testing.B) {
	for _, metric := range []vector.Metric{vector.MetricInnerProduct, vector.MetricL2} {
		b.Run(string(metric), func(b *testing.B) {
			s, _ := vector.NewStore(benchDimensions, metric)
			for i := 0; i < 1000; i++ {
				v := make([]float32, benchDimensions)
				v[i%benchDimensions] = 1
				v[0] += float32(i) / 1000
				_, _ = s.Insert(v)
			}
			query := make([]float32, benchDimensions)
			query[0] = 1.0
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = s.Search(query, 10)
			}
		})
	}
}

func BenchmarkHashEmbedder_Embed(b *testing.B) {
	e := embedding.NewHashEmbedder(benchDimensions)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Embed(ctx, "benchmark query text for embedding")
	}
}

func benchTable(rows int) *tabular.Table {
	t := &tabular.Table{
		Name:    "bench",
		Columns: []tabular.Column{{Name: "name", Type: tabular.TypeText}, {Name: "category", Type: tabular.TypeText}},
	}
	for i := 0; i < rows; i++ {
		t.Rows = append(t.Rows, models.Record{
			"name":     fmt.Sprintf("item %d", i),
			"category": fmt.Sprintf("category %d", i%17),
		})
	}
	return t
}

func BenchmarkIndexerBuild(b *testing.B) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Dimensions: benchDimensions}}
	config.ApplyDefaults(cfg)
	idx := indexer.NewIndexer(embedding.NewHashEmbedder(benchDimensions), cfg)
	table := benchTable(1000)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ix, _, err := idx.Build(ctx, table)
		if err != nil {
			b.Fatal(err)
		}
		_ = ix.Close()
	}
}

func BenchmarkEngineSearch(b *testing.B) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Dimensions: benchDimensions}}
	config.ApplyDefaults(cfg)
	embedder := embedding.NewHashEmbedder(benchDimensions)
	ctx := context.Background()
	ix, _, err := indexer.NewIndexer(embedder, cfg).Build(ctx, benchTable(1000))
	if err != nil {
		b.Fatal(err)
	}
	engine := search.NewEngine(embedder, cfg, ix)
	defer engine.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Search(ctx, &models.SearchQuery{Query: "item 42 category 8", TopK: 10})
	}
}
