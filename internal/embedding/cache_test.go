package embedding

import (
	"context"
	"errors"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	// Touching a makes b the eviction candidate.
	c.Get("a")
	c.Set("c", []float32{6})
	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected a to remain")
	}
	if c.Len() != 2 {
		t.Errorf("Len=%d, want 2", c.Len())
	}
}

func TestEmbeddingCache_ZeroCapacity(t *testing.T) {
	c := NewEmbeddingCache(0)
	c.Set("a", []float32{1})
	if _, ok := c.Get("a"); ok {
		t.Error("zero-capacity cache should not store")
	}
}

// countingEmbedder records how many texts reach the provider.
type countingEmbedder struct {
	*HashEmbedder
	calls int
	texts int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	c.texts++
	if c.err != nil {
		return nil, c.err
	}
	return c.HashEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	if c.err != nil {
		return nil, c.err
	}
	return c.HashEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_Batch(t *testing.T) {
	inner := &countingEmbedder{HashEmbedder: NewHashEmbedder(16)}
	c := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	first, err := c.EmbedBatch(ctx, []string{"red apple", "green pear", "red apple"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 || inner.texts != 2 {
		t.Errorf("calls=%d texts=%d, want one call with 2 distinct texts", inner.calls, inner.texts)
	}
	if len(first) != 3 {
		t.Fatalf("len=%d", len(first))
	}

	second, err := c.EmbedBatch(ctx, []string{"green pear", "blue plum"})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 || inner.texts != 3 {
		t.Errorf("calls=%d texts=%d after second batch", inner.calls, inner.texts)
	}
	for i := range second[0] {
		if second[0][i] != first[1][i] {
			t.Fatal("cached vector differs from original")
		}
	}

	if _, err := c.Embed(ctx, "blue plum"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("Embed of cached text reached provider")
	}
}

func TestCachedEmbedder_ReturnsCopies(t *testing.T) {
	c := NewCachedEmbedder(NewHashEmbedder(4), 10)
	ctx := context.Background()
	v1, _ := c.Embed(ctx, "word")
	v1[0] = 42
	v2, _ := c.Embed(ctx, "word")
	if v2[0] == 42 {
		t.Error("caller mutation leaked into cache")
	}
}

func TestCachedEmbedder_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := NewCachedEmbedder(&countingEmbedder{HashEmbedder: NewHashEmbedder(4), err: boom}, 10)
	if _, err := c.EmbedBatch(context.Background(), []string{"a"}); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}
