package search

import (
	"github.com/hyperjump/ragsearch/internal/config"
	"github.com/hyperjump/ragsearch/internal/models"
	"github.com/hyperjump/ragsearch/pkg/utils"
)

// ProcessQuery validates query against the configured limits and returns the text to embed.
// The query itself keeps the caller's original text.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) (string, error) {
	if err := query.ValidateWithLimits(cfg.DefaultTopK, cfg.MaxTopK); err != nil {
		return "", err
	}
	return utils.Preprocess(query.Query, cfg.Preprocess), nil
}
