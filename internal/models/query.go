package models

import (
	"errors"
	"strings"
)

const (
	// DefaultTopK is used when a query omits top_k or sets it to a non-positive value.
	DefaultTopK = 5
	// MaxTopK caps top_k for a single query.
	MaxTopK = 100
)

// ErrEmptyQuery is returned for a query with no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a free-text retrieval request.
type SearchQuery struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate ensures the query has text and normalizes TopK.
// A blank query is an error; TopK <= 0 becomes DefaultTopK and is capped at MaxTopK.
func (q *SearchQuery) Validate() error {
	return q.ValidateWithLimits(DefaultTopK, MaxTopK)
}

// ValidateWithLimits is Validate with configured limits. A non-positive maxTopK disables the cap.
func (q *SearchQuery) ValidateWithLimits(defaultTopK, maxTopK int) error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	if q.TopK <= 0 {
		q.TopK = defaultTopK
	}
	if maxTopK > 0 && q.TopK > maxTopK {
		q.TopK = maxTopK
	}
	return nil
}

// SQLQuery is a natural-language question for the NL-to-SQL path.
type SQLQuery struct {
	Query string `json:"query"`
}

// Validate rejects a question with no text.
func (q *SQLQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	return nil
}
