package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates completions with the chat completions API.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

var _ Generator = (*OpenAI)(nil)

// Option configures a hosted generator.
type Option func(*options)

type options struct {
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

// WithModel sets the chat model. Empty keeps the provider default.
func WithModel(model string) Option {
	return func(o *options) {
		if model != "" {
			o.model = model
		}
	}
}

// WithBaseURL overrides the API endpoint, e.g. an OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithMaxTokens bounds the completion length. Zero leaves the server default.
func WithMaxTokens(n int) Option {
	return func(o *options) { o.maxTokens = n }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *options) { o.temperature = t }
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// NewOpenAI creates a chat completions generator. apiKey is required.
func NewOpenAI(apiKey string, opts ...Option) (*OpenAI, error) {
	if apiKey == "" {
		return nil, errors.New("openai generator: api key is required")
	}
	o := options{model: defaultOpenAIModel, httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(o.httpClient),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return &OpenAI{
		client:      &client,
		model:       o.model,
		maxTokens:   o.maxTokens,
		temperature: o.temperature,
	}, nil
}

// Generate sends prompt as a single user message and returns the first choice, trimmed.
func (g *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       g.model,
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(g.temperature),
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai chat: response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
