package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"
)

const defaultCohereModel = "command-r"

// Cohere generates completions with the Cohere chat API.
type Cohere struct {
	client      *cohereclient.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ Generator = (*Cohere)(nil)

// NewCohere creates a Cohere chat generator. apiKey is required.
func NewCohere(apiKey string, opts ...Option) (*Cohere, error) {
	if apiKey == "" {
		return nil, errors.New("cohere generator: api key is required")
	}
	o := options{model: defaultCohereModel, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := []option.RequestOption{
		option.WithToken(apiKey),
		option.WithHTTPClient(o.httpClient),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	return &Cohere{
		client:      cohereclient.NewClient(reqOpts...),
		model:       o.model,
		maxTokens:   o.maxTokens,
		temperature: o.temperature,
	}, nil
}

// Generate sends prompt as a single chat message and returns the reply, trimmed.
func (g *Cohere) Generate(ctx context.Context, prompt string) (string, error) {
	req := &cohere.ChatRequest{
		Message:     prompt,
		Model:       cohere.String(g.model),
		Temperature: cohere.Float64(g.temperature),
	}
	if g.maxTokens > 0 {
		req.MaxTokens = cohere.Int(g.maxTokens)
	}
	resp, err := g.client.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", errors.New("cohere chat: response has no text")
	}
	return text, nil
}
