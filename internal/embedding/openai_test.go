package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeEmbeddingRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
}

// newFakeOpenAI serves /embeddings, returning items in reverse order to exercise index mapping.
func newFakeOpenAI(t *testing.T, status int, delay time.Duration) (*httptest.Server, *[]fakeEmbeddingRequest) {
	t.Helper()
	var reqs []fakeEmbeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		var req fakeEmbeddingRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		reqs = append(reqs, req)
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
			return
		}
		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float64{float64(i), 1, 0.5},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &reqs
}

func TestOpenAIEmbedder_EmbedBatch(t *testing.T) {
	srv, reqs := newFakeOpenAI(t, http.StatusOK, 0)
	e, err := NewOpenAIEmbedder("sk-test", WithBaseURL(srv.URL), WithDimensions(3), WithMaxRetries(0))
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 3 {
		t.Fatalf("len=%d", len(vecs))
	}
	for i, v := range vecs {
		if len(v) != 3 || v[0] != float32(i) {
			t.Errorf("vecs[%d]=%v, index mapping broken", i, v)
		}
	}
	if len(*reqs) != 1 {
		t.Fatalf("requests=%d, want 1", len(*reqs))
	}
	got := (*reqs)[0]
	if got.Model != ModelOpenAI3Small || got.Dimensions != 3 {
		t.Errorf("request model=%q dimensions=%d", got.Model, got.Dimensions)
	}
}

func TestOpenAIEmbedder_Errors(t *testing.T) {
	srv, _ := newFakeOpenAI(t, http.StatusBadRequest, 0)
	e, _ := NewOpenAIEmbedder("sk-test", WithBaseURL(srv.URL), WithMaxRetries(0))
	_, err := EmbedBatch(context.Background(), e, []string{"a"}, 0)
	if !errors.Is(err, ErrEmbeddingProvider) || IsTimeout(err) {
		t.Fatalf("expected non-timeout provider error, got %v", err)
	}

	gw, _ := newFakeOpenAI(t, http.StatusGatewayTimeout, 0)
	e, _ = NewOpenAIEmbedder("sk-test", WithBaseURL(gw.URL), WithMaxRetries(0))
	_, err = EmbedBatch(context.Background(), e, []string{"a"}, 0)
	if !IsTimeout(err) {
		t.Fatalf("expected 504 to be reported as timeout, got %v", err)
	}
}

func TestOpenAIEmbedder_DeadlineTimeout(t *testing.T) {
	srv, _ := newFakeOpenAI(t, http.StatusOK, time.Second)
	e, _ := NewOpenAIEmbedder("sk-test", WithBaseURL(srv.URL), WithMaxRetries(0))
	_, err := EmbedBatch(context.Background(), e, []string{"a"}, 30*time.Millisecond)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestNewOpenAIEmbedder_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIEmbedder(""); err == nil {
		t.Error("expected error without api key")
	}
}
