package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Data.Debounce == 0 {
		cfg.Data.Debounce = 400 * time.Millisecond
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Dimensions == 0 {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Dimensions = 1536
		case "cohere":
			cfg.Embedding.Dimensions = 1024
		default:
			cfg.Embedding.Dimensions = 384
		}
	}
	if cfg.Embedding.Model == "" {
		switch cfg.Embedding.Provider {
		case "openai":
			cfg.Embedding.Model = "text-embedding-3-small"
		case "cohere":
			cfg.Embedding.Model = "embed-english-v3.0"
		}
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = "inner_product"
	}
	if cfg.Index.MetadataBackend == "" {
		cfg.Index.MetadataBackend = "memory"
	}
	if cfg.Index.MetadataPath == "" {
		cfg.Index.MetadataPath = ":memory:"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
	if cfg.Search.Preprocess == "" {
		cfg.Search.Preprocess = "lowercase"
	}
	if cfg.LLM.Model == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.Model = "gpt-4o-mini"
		case "cohere":
			cfg.LLM.Model = "command-r"
		}
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 512
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.Database.Table == "" {
		cfg.Database.Table = "data"
	}
}
