package embedding

import "net/http"

// RemoteOption configures an embedder that calls a hosted API.
type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	model      string
	dim        int
	baseURL    string
	httpClient *http.Client
	retries    int
}

// WithModel sets the embedding model.
func WithModel(model string) RemoteOption {
	return func(c *remoteConfig) {
		if model != "" {
			c.model = model
		}
	}
}

// WithDimensions sets the requested vector length.
func WithDimensions(dim int) RemoteOption {
	return func(c *remoteConfig) {
		if dim > 0 {
			c.dim = dim
		}
	}
}

// WithBaseURL overrides the API endpoint, e.g. an OpenAI-compatible server.
func WithBaseURL(url string) RemoteOption {
	return func(c *remoteConfig) { c.baseURL = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) RemoteOption {
	return func(c *remoteConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithMaxRetries sets how many times the client retries a failed request.
func WithMaxRetries(n int) RemoteOption {
	return func(c *remoteConfig) { c.retries = n }
}
