//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"errors"
)

var errONNXUnavailable = errors.New("onnx embedder requires CGO; build with CGO_ENABLED=1 and onnxruntime installed")

// ONNXEmbedder is unavailable without CGO; every call fails.
type ONNXEmbedder struct{}

var _ Embedder = (*ONNXEmbedder)(nil)

// NewONNXEmbedder always fails when built without CGO.
func NewONNXEmbedder(string, int, int, ...ONNXOption) (*ONNXEmbedder, error) {
	return nil, errONNXUnavailable
}

func (*ONNXEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errONNXUnavailable
}

func (*ONNXEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, errONNXUnavailable
}

func (*ONNXEmbedder) Dimensions() int { return 0 }

func (*ONNXEmbedder) Close() error { return nil }
