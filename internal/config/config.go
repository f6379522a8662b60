// Package config provides configuration loading and structs for the ragsearch server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Data      DataConfig      `yaml:"data"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DataConfig describes the tabular source that is ingested at startup.
type DataConfig struct {
	Path     string        `yaml:"path"`
	Sheet    string        `yaml:"sheet"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "hash", "openai", "cohere", "onnx".
	Provider          string        `yaml:"provider"`
	Model             string        `yaml:"model"`
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url"`
	Dimensions        int           `yaml:"dimensions"`
	ModelPath         string        `yaml:"model_path"`
	// LibraryPath and OutputName tune the onnx provider.
	LibraryPath       string        `yaml:"library_path"`
	OutputName        string        `yaml:"output_name"`
	MaxTokens         int           `yaml:"max_tokens"`
	CacheSize         int           `yaml:"cache_size"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
}

// IndexConfig holds vector metric and metadata backend settings.
type IndexConfig struct {
	Metric string `yaml:"metric"`
	// MetadataBackend is "memory" or "sqlite".
	MetadataBackend string `yaml:"metadata_backend"`
	MetadataPath    string `yaml:"metadata_path"`
}

// SearchConfig holds retrieval settings.
type SearchConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
	// Preprocess is "lowercase" (trim and lowercase, applied at ingest and query) or "none".
	Preprocess string `yaml:"preprocess"`
}

// LLMConfig selects the language model used for NL-to-SQL translation.
type LLMConfig struct {
	// Provider is "openai", "cohere", "mock", or empty to disable the SQL path.
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DatabaseConfig points the SQL path at a relational store.
type DatabaseConfig struct {
	// DSN is "sqlite://path", "file:...", "duckdb://path" or a postgres:// URL. Empty disables the SQL path.
	DSN string `yaml:"dsn"`
	// Table receives the data file when LoadData is set.
	Table    string `yaml:"table"`
	LoadData bool   `yaml:"load_data"`
}

// SQLEnabled reports whether both an LLM and a database are configured.
func (c *Config) SQLEnabled() bool {
	return c.LLM.Provider != "" && c.Database.DSN != ""
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read, parsed, or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Data.Path = expandPath(cfg.Data.Path, configDir)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Embedding.LibraryPath = expandPath(cfg.Embedding.LibraryPath, configDir)
	if cfg.Index.MetadataPath != ":memory:" {
		cfg.Index.MetadataPath = expandPath(cfg.Index.MetadataPath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnv fills empty API keys from the provider's environment variable:
// OPENAI_API_KEY for openai, COHERE_API_KEY or CO_API_KEY for cohere.
func applyEnv(cfg *Config) {
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = envKey(cfg.Embedding.Provider)
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = envKey(cfg.LLM.Provider)
	}
}

func envKey(provider string) string {
	switch provider {
	case "cohere":
		if key := os.Getenv("COHERE_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("CO_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory. Empty paths stay empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
