package embedding

import (
	"context"
	"hash/fnv"
)

// DefaultHashDimensions is used when NewHashEmbedder is given a non-positive size.
const DefaultHashDimensions = 384

// HashEmbedder is a deterministic bag-of-words embedder. Each word is hashed to a
// signed bucket, so texts sharing words share directions. It needs no model or
// network and returns unnormalized vectors; text without words embeds to zero.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder returns an embedder with the given number of buckets.
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed returns the hashed word-count vector for text.
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	for _, w := range Words(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		bucket := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			emb[bucket]--
		} else {
			emb[bucket]++
		}
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *HashEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for HashEmbedder.
func (e *HashEmbedder) Close() error {
	return nil
}
