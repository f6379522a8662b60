package search

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/embedding"
	"github.com/hyperjump/ragsearch/internal/index"
	"github.com/hyperjump/ragsearch/internal/indexer"
	"github.com/hyperjump/ragsearch/internal/metadata"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/internal/tabular"
	"github.com/hyperjump/ragsearch/internal/vector"
)

// fixedEmbedder returns vec for every text, or err.
type fixedEmbedder struct {
	vec []float32
	err error
}

func (f *fixedEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return append([]float32(nil), f.vec...), nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return len(f.vec) }
func (f *fixedEmbedder) Close() error    { return nil }

// missingMeta drops the record for one id.
type missingMeta struct {
	*metadata.Arena
	skip int
}

func (m *missingMeta) Put(ctx context.Context, id int, rec models.Record) error {
	if id == m.skip {
		return nil
	}
	return m.Arena.Put(ctx, id, rec)
}

func testConfig(metric string) *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Index.Metric = metric
	return cfg
}

func fruitTable() *tabular.Table {
	rows := []models.Record{
		{"name": "Red Apple", "stock": int64(3)},
		{"name": "Green Pear", "stock": int64(0)},
		{"name": "Blue Sky", "stock": int64(9)},
		{"name": "Yellow Banana", "stock": int64(1)},
		{"name": "Purple Grape", "stock": int64(4)},
		{"name": "Orange Orange", "stock": int64(2)},
		{"name": "Black Berry", "stock": int64(8)},
	}
	return &tabular.Table{
		Name: "fruit",
		Columns: []tabular.Column{
			{Name: "name", Type: tabular.TypeText},
			{Name: "stock", Type: tabular.TypeInteger},
		},
		Rows: rows,
	}
}

func newTestEngine(t *testing.T, metric string) *Engine {
	t.Helper()
	cfg := testConfig(metric)
	emb := embedding.NewHashEmbedder(64)
	ix, _, err := indexer.NewIndexer(emb, cfg).Build(context.Background(), fruitTable())
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(emb, cfg, ix)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_Search(t *testing.T) {
	for _, metric := range []string{"inner_product", "l2"} {
		t.Run(metric, func(t *testing.T) {
			e := newTestEngine(t, metric)
			resp, err := e.Search(context.Background(), &models.SearchQuery{Query: "  RED   apple ", TopK: 2})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) != 2 || resp.Total != 2 {
				t.Fatalf("results=%d total=%d, want 2", len(resp.Results), resp.Total)
			}
			top := resp.Results[0]
			if top.ID != 0 || top.Rank != 1 || top.Metadata["name"] != "Red Apple" {
				t.Errorf("top=%+v, want id 0 Red Apple", top)
			}
			if metric == "inner_product" && math.Abs(top.Score-1) > 1e-5 {
				t.Errorf("score=%v, want 1 for identical text", top.Score)
			}
			if metric == "l2" && top.Score > 1e-9 {
				t.Errorf("distance=%v, want 0 for identical text", top.Score)
			}
			if resp.Metric != metric || resp.Query != "  RED   apple " {
				t.Errorf("metric=%q query=%q", resp.Metric, resp.Query)
			}
		})
	}
}

func TestEngine_TopK(t *testing.T) {
	e := newTestEngine(t, "inner_product")
	ctx := context.Background()

	resp, err := e.Search(ctx, &models.SearchQuery{Query: "fruit"})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != models.DefaultTopK {
		t.Errorf("default top_k: got %d results", len(resp.Results))
	}

	resp, err = e.Search(ctx, &models.SearchQuery{Query: "fruit", TopK: 50})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 7 {
		t.Errorf("top_k above size: got %d results, want 7", len(resp.Results))
	}
	for i := 1; i < len(resp.Results); i++ {
		prev, cur := resp.Results[i-1], resp.Results[i]
		if prev.Score < cur.Score || (prev.Score == cur.Score && prev.ID > cur.ID) {
			t.Errorf("results out of order at %d: %+v then %+v", i, prev, cur)
		}
	}
}

func TestEngine_Errors(t *testing.T) {
	e := newTestEngine(t, "inner_product")
	ctx := context.Background()

	if _, err := e.Search(ctx, &models.SearchQuery{Query: "   "}); !errors.Is(err, models.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	// No tokens hash to the zero vector, which cannot be normalized.
	if _, err := e.Search(ctx, &models.SearchQuery{Query: "?!"}); !errors.Is(err, vector.ErrZeroVector) {
		t.Errorf("expected ErrZeroVector, got %v", err)
	}

	empty := NewEngine(embedding.NewHashEmbedder(8), testConfig("l2"), nil)
	if _, err := empty.Search(ctx, &models.SearchQuery{Query: "x"}); !errors.Is(err, vector.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex without data, got %v", err)
	}

	failing := NewEngine(&fixedEmbedder{vec: []float32{1}, err: errors.New("boom")}, testConfig("l2"), nil)
	ix, _ := index.New(1, vector.MetricL2, metadata.NewArena(0))
	failing.Replace(ix)
	var pe *embedding.ProviderError
	if _, err := failing.Search(ctx, &models.SearchQuery{Query: "x"}); !errors.As(err, &pe) {
		t.Errorf("expected *ProviderError, got %v", err)
	}
}

func TestEngine_MissingMetadataIsNull(t *testing.T) {
	ctx := context.Background()
	ix, err := index.New(2, vector.MetricL2, &missingMeta{Arena: metadata.NewArena(0), skip: 1})
	if err != nil {
		t.Fatal(err)
	}
	w, _ := ix.Writer(ctx)
	_, _ = w.Append(ctx, []float32{5, 5}, models.Record{"a": "far"})
	_, _ = w.Append(ctx, []float32{1, 0}, models.Record{"a": "near"})
	w.Close()

	e := NewEngine(&fixedEmbedder{vec: []float32{1, 0}}, testConfig("l2"), ix)
	resp, err := e.Search(ctx, &models.SearchQuery{Query: "q", TopK: 2})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Results[0].ID != 1 || resp.Results[0].Metadata != nil {
		t.Errorf("first=%+v, want id 1 with nil metadata", resp.Results[0])
	}
	if resp.Results[1].Metadata["a"] != "far" {
		t.Errorf("second=%+v", resp.Results[1])
	}
}

func TestEngine_Replace(t *testing.T) {
	e := newTestEngine(t, "l2")
	if e.IndexSize() != 7 || e.Metric() != vector.MetricL2 || e.Dimension() != 64 {
		t.Fatalf("size=%d metric=%s dim=%d", e.IndexSize(), e.Metric(), e.Dimension())
	}
	next, err := index.New(64, vector.MetricL2, metadata.NewArena(0))
	if err != nil {
		t.Fatal(err)
	}
	old := e.Replace(next)
	if old == nil || old.Size() != 7 {
		t.Fatalf("Replace should return the previous index, got %v", old)
	}
	_ = old.Close()
	if e.IndexSize() != 0 {
		t.Errorf("size after replace=%d, want 0", e.IndexSize())
	}
	if _, err := e.Search(context.Background(), &models.SearchQuery{Query: "red apple"}); !errors.Is(err, vector.ErrEmptyIndex) {
		t.Errorf("expected ErrEmptyIndex on the empty replacement, got %v", err)
	}
}
