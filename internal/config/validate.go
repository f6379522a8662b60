package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/ragsearch/internal/vector"
)

// Validate reports every invalid setting in cfg joined into one error.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Embedding.Provider {
	case "hash", "onnx":
	case "openai":
		if c.Embedding.APIKey == "" {
			errs = append(errs, errors.New("embedding.api_key is required for the openai provider (or set OPENAI_API_KEY)"))
		}
	case "cohere":
		if c.Embedding.APIKey == "" {
			errs = append(errs, errors.New("embedding.api_key is required for the cohere provider (or set COHERE_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding.provider %q (supported: hash, openai, cohere, onnx)", c.Embedding.Provider))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions))
	}
	if c.Embedding.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("embedding.requests_per_second must not be negative"))
	}
	if _, err := vector.ParseMetric(c.Index.Metric); err != nil {
		errs = append(errs, fmt.Errorf("index.metric: %w", err))
	}
	switch c.Index.MetadataBackend {
	case "memory", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown index.metadata_backend %q (supported: memory, sqlite)", c.Index.MetadataBackend))
	}
	if c.Data.Watch && c.Index.MetadataBackend == "sqlite" && !isMemoryPath(c.Index.MetadataPath) {
		errs = append(errs, errors.New("data.watch rebuilds the index and cannot share a file-backed sqlite metadata store; use metadata_path \":memory:\""))
	}
	if c.Search.DefaultTopK <= 0 || c.Search.MaxTopK < c.Search.DefaultTopK {
		errs = append(errs, fmt.Errorf("search.default_top_k %d must be positive and not above max_top_k %d", c.Search.DefaultTopK, c.Search.MaxTopK))
	}
	switch c.Search.Preprocess {
	case "lowercase", "none":
	default:
		errs = append(errs, fmt.Errorf("unknown search.preprocess %q (supported: lowercase, none)", c.Search.Preprocess))
	}
	switch c.LLM.Provider {
	case "", "mock":
	case "openai":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the openai provider (or set OPENAI_API_KEY)"))
		}
	case "cohere":
		if c.LLM.APIKey == "" {
			errs = append(errs, errors.New("llm.api_key is required for the cohere provider (or set COHERE_API_KEY)"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q (supported: openai, cohere, mock)", c.LLM.Provider))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func isMemoryPath(path string) bool {
	return path == "" || strings.EqualFold(path, ":memory:")
}
