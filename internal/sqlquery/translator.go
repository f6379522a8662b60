// Package sqlquery answers natural-language questions by having a model write SQL and running it.
package sqlquery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hyperjump/ragsearch/internal/llm"
)

const promptPrefix = "Translate the following natural language query to SQL:\n"

// ErrGeneration marks a failure of the language model, as opposed to the database.
var ErrGeneration = errors.New("sql generation failed")

// ErrEmptySQL is returned when the model produced no statement.
var ErrEmptySQL = errors.New("model returned no sql")

// Translator turns a question into one SQL statement.
type Translator struct {
	gen llm.Generator
}

// NewTranslator creates a translator backed by gen.
func NewTranslator(gen llm.Generator) *Translator {
	return &Translator{gen: gen}
}

// Prompt returns the prompt sent to the model for question.
func Prompt(question string) string {
	return promptPrefix + question
}

// Translate asks the model for SQL answering question and returns it without code fences.
func (t *Translator) Translate(ctx context.Context, question string) (string, error) {
	out, err := t.gen.Generate(ctx, Prompt(question))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	sql := CleanSQL(out)
	if sql == "" {
		return "", ErrEmptySQL
	}
	return sql, nil
}

// CleanSQL trims surrounding whitespace and a Markdown code fence, if present.
func CleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the info string, e.g. "sql".
		if !strings.ContainsAny(strings.TrimSpace(s[:nl]), " \t(") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
