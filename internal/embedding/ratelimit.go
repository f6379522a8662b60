package embedding

import (
	"context"
	"errors"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles provider calls with a token bucket.
// Each Embed or EmbedBatch call consumes one token.
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder allows rps calls per second with the given burst.
func NewRateLimitedEmbedder(inner Embedder, rps float64, burst int) *RateLimitedEmbedder {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedder{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Embed waits for a token, then embeds text.
func (r *RateLimitedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token, then embeds texts.
func (r *RateLimitedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the inner embedder dimension.
func (r *RateLimitedEmbedder) Dimensions() int { return r.inner.Dimensions() }

// Close closes the inner embedder.
func (r *RateLimitedEmbedder) Close() error { return r.inner.Close() }

// wait reports a limiter wait that cannot finish before the deadline as a provider timeout.
func (r *RateLimitedEmbedder) wait(ctx context.Context) error {
	err := r.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	_, hasDeadline := ctx.Deadline()
	return &ProviderError{Op: "rate limit wait", Timeout: hasDeadline && !errors.Is(err, context.Canceled), Err: err}
}
