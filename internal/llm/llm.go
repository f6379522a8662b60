// Package llm wraps text-generation providers behind a single prompt-in, text-out interface.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/ragsearch/internal/config"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// New builds the configured generator. An empty provider returns nil, nil.
func New(cfg config.LLMConfig, logger *zap.Logger) (Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Provider {
	case "":
		return nil, nil
	case "mock":
		logger.Info("llm provider ready", zap.String("provider", "mock"))
		return Mock{}, nil
	case "openai":
		g, err := NewOpenAI(cfg.APIKey,
			WithModel(cfg.Model),
			WithBaseURL(cfg.BaseURL),
			WithMaxTokens(cfg.MaxTokens),
			WithTemperature(cfg.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai generator: %w", err)
		}
		logger.Info("llm provider ready", zap.String("provider", "openai"), zap.String("model", g.model))
		return g, nil
	case "cohere":
		g, err := NewCohere(cfg.APIKey,
			WithModel(cfg.Model),
			WithBaseURL(cfg.BaseURL),
			WithMaxTokens(cfg.MaxTokens),
			WithTemperature(cfg.Temperature),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create cohere generator: %w", err)
		}
		logger.Info("llm provider ready", zap.String("provider", "cohere"), zap.String("model", g.model))
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: openai, cohere, mock)", cfg.Provider)
	}
}

// Mock echoes the prompt. It exercises the SQL path without a model.
type Mock struct{}

// Generate returns "Mock response for prompt: " followed by prompt.
func (Mock) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "Mock response for prompt: " + prompt, nil
}
