package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	"github.com/cohere-ai/cohere-go/v2/option"
)

// Cohere embedding models.
const (
	ModelCohereEnglishV3      = "embed-english-v3.0"
	ModelCohereMultilingualV3 = "embed-multilingual-v3.0"
	cohereMaxBatch            = 96
	cohereDefaultDim          = 1024
)

// CohereEmbedder implements Embedder with the Cohere embed API. Rows are embedded
// as search documents and queries as search queries.
type CohereEmbedder struct {
	client *cohereclient.Client
	model  string
	dim    int
}

var _ Embedder = (*CohereEmbedder)(nil)

// NewCohereEmbedder creates a Cohere embedder. apiKey is required. The dimension must
// match the model; Cohere does not truncate vectors on request.
func NewCohereEmbedder(apiKey string, opts ...RemoteOption) (*CohereEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("cohere embedder: api key is required")
	}
	cfg := remoteConfig{
		model:      ModelCohereEnglishV3,
		dim:        cohereDefaultDim,
		httpClient: http.DefaultClient,
		retries:    2,
	}
	for _, o := range opts {
		o(&cfg)
	}

	clientOpts := []option.RequestOption{
		option.WithToken(apiKey),
		option.WithHTTPClient(cfg.httpClient),
		option.WithMaxAttempts(uint(cfg.retries + 1)),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	return &CohereEmbedder{
		client: cohereclient.NewClient(clientOpts...),
		model:  cfg.model,
		dim:    cfg.dim,
	}, nil
}

// Embed returns the query embedding for text.
func (c *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.callAPI(ctx, []string{text}, cohere.EmbedInputTypeSearchQuery)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns document embeddings for texts, split into API-sized requests.
func (c *CohereEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	result := make([][]float32, len(texts))
	for i := 0; i < len(texts); i += cohereMaxBatch {
		end := min(i+cohereMaxBatch, len(texts))
		vecs, err := c.callAPI(ctx, texts[i:end], cohere.EmbedInputTypeSearchDocument)
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", i, end, err)
		}
		copy(result[i:], vecs)
	}
	return result, nil
}

// Dimensions returns the configured vector length.
func (c *CohereEmbedder) Dimensions() int {
	return c.dim
}

// Model returns the model identifier.
func (c *CohereEmbedder) Model() string {
	return c.model
}

// Close is a no-op; the HTTP client is shared.
func (c *CohereEmbedder) Close() error {
	return nil
}

func (c *CohereEmbedder) callAPI(ctx context.Context, texts []string, inputType cohere.EmbedInputType) ([][]float32, error) {
	resp, err := c.client.Embed(ctx, &cohere.EmbedRequest{
		Texts:          texts,
		Model:          cohere.String(c.model),
		InputType:      inputType.Ptr(),
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		var apiErr *core.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusRequestTimeout || apiErr.StatusCode == http.StatusGatewayTimeout) {
			return nil, &ProviderError{Op: "cohere embed", Timeout: true, Err: err}
		}
		return nil, err
	}

	var raw [][]float64
	switch {
	case resp.EmbeddingsByType != nil && resp.EmbeddingsByType.Embeddings != nil:
		raw = resp.EmbeddingsByType.Embeddings.Float
	case resp.EmbeddingsFloats != nil:
		raw = resp.EmbeddingsFloats.Embeddings
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts", len(raw), len(texts))
	}
	vecs := make([][]float32, len(raw))
	for i, v := range raw {
		vecs[i] = float64sToFloat32s(v)
	}
	return vecs, nil
}
