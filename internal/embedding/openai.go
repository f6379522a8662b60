package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAI embedding models.
const (
	ModelOpenAI3Small  = "text-embedding-3-small"
	ModelOpenAI3Large  = "text-embedding-3-large"
	ModelOpenAIAda002  = "text-embedding-ada-002"
	openAIMaxBatch     = 2048
	openAIDefaultDim   = 1536
	openAIDefaultModel = ModelOpenAI3Small
)

// OpenAIEmbedder implements Embedder with the OpenAI embeddings API or any
// OpenAI-compatible endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
	dim    int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates an OpenAI embedder. apiKey is required.
func NewOpenAIEmbedder(apiKey string, opts ...RemoteOption) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("openai embedder: api key is required")
	}
	cfg := remoteConfig{
		model:      openAIDefaultModel,
		dim:        openAIDefaultDim,
		httpClient: http.DefaultClient,
		retries:    2,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxRetries(cfg.retries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	client := openai.NewClient(clientOpts...)

	return &OpenAIEmbedder{client: &client, model: cfg.model, dim: cfg.dim}, nil
}

// Embed returns the embedding for a single text.
func (o *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns embeddings for texts. Batches above the API limit are split.
func (o *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	result := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += openAIMaxBatch {
		end := min(i+openAIMaxBatch, len(texts))
		vecs, err := o.callAPI(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}

// Dimensions returns the configured vector length.
func (o *OpenAIEmbedder) Dimensions() int {
	return o.dim
}

// Model returns the model identifier.
func (o *OpenAIEmbedder) Model() string {
	return o.model
}

// Close is a no-op; the HTTP client is shared.
func (o *OpenAIEmbedder) Close() error {
	return nil
}

func (o *OpenAIEmbedder) callAPI(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model:          o.model,
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	// ada-002 rejects the dimensions parameter.
	if o.model != ModelOpenAIAda002 {
		params.Dimensions = openai.Int(int64(o.dim))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout) {
			return nil, &ProviderError{Op: "openai embeddings", Timeout: true, Err: err}
		}
		return nil, err
	}

	vecs := make([][]float32, len(texts))
	for _, item := range resp.Data {
		idx := item.Index
		if idx < 0 || idx >= int64(len(texts)) {
			return nil, fmt.Errorf("unexpected embedding index %d for batch size %d", idx, len(texts))
		}
		vecs[idx] = float64sToFloat32s(item.Embedding)
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for index %d", i)
		}
	}
	return vecs, nil
}

func float64sToFloat32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
