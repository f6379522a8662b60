// Package embedding turns text into fixed-length vectors through pluggable providers.
package embedding

import (
	"context"
	"fmt"
	"time"
)

// Embedder produces vector embeddings for text. Every call against one index
// returns vectors of the same length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// EmbedBatch embeds texts in one provider call, bounded by timeout when positive.
// Any failure, including a short batch, is returned as *ProviderError.
func EmbedBatch(ctx context.Context, e Embedder, texts []string, timeout time.Duration) ([][]float32, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	vecs, err := e.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, wrap(ctx, "embed batch", err)
	}
	if len(vecs) != len(texts) {
		return nil, &ProviderError{Op: "embed batch", Err: fmt.Errorf("provider returned %d embeddings for %d texts", len(vecs), len(texts))}
	}
	return vecs, nil
}

// EmbedOne embeds a single text, bounded by timeout when positive.
func EmbedOne(ctx context.Context, e Embedder, text string, timeout time.Duration) ([]float32, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	vec, err := e.Embed(ctx, text)
	if err != nil {
		return nil, wrap(ctx, "embed", err)
	}
	return vec, nil
}
