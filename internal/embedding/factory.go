package embedding

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/config"
)

// New builds the configured provider and wraps it with rate limiting and caching.
func New(cfg config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var (
		base Embedder
		err  error
	)
	switch cfg.Provider {
	case "hash", "":
		base = NewHashEmbedder(cfg.Dimensions)
	case "openai":
		base, err = NewOpenAIEmbedder(cfg.APIKey,
			WithModel(cfg.Model),
			WithDimensions(cfg.Dimensions),
			WithBaseURL(cfg.BaseURL),
		)
	case "cohere":
		base, err = NewCohereEmbedder(cfg.APIKey,
			WithModel(cfg.Model),
			WithDimensions(cfg.Dimensions),
			WithBaseURL(cfg.BaseURL),
		)
	case "onnx":
		base, err = NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens,
			WithOutputName(cfg.OutputName),
			WithLibraryPath(cfg.LibraryPath))
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hash, openai, cohere, onnx)", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s embedder: %w", cfg.Provider, err)
	}
	logger.Info("embedding provider ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Int("dimensions", base.Dimensions()))

	e := base
	if cfg.RequestsPerSecond > 0 {
		e = NewRateLimitedEmbedder(e, cfg.RequestsPerSecond, cfg.Burst)
	}
	if cfg.CacheSize > 0 {
		e = NewCachedEmbedder(e, cfg.CacheSize)
	}
	return e, nil
}
