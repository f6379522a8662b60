//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a sentence-embedding model locally through ONNX Runtime.
// It requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	io         *onnxTensors
	dimensions int
	maxTokens  int
	tokenizer  Tokenizer
	mu         sync.Mutex
}

var _ Embedder = (*ONNXEmbedder)(nil)

// onnxTensors are the session's bound inputs and output; Run reads and writes them in place.
type onnxTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newONNXTensors(maxTokens, dimensions int) (*onnxTensors, error) {
	t := &onnxTensors{}
	in := ort.NewShape(1, int64(maxTokens))
	var err error
	if t.inputIDs, err = ort.NewEmptyTensor[int64](in); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if t.attentionMask, err = ort.NewEmptyTensor[int64](in); err != nil {
		t.destroy()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if t.tokenTypeIDs, err = ort.NewEmptyTensor[int64](in); err != nil {
		t.destroy()
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	if t.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dimensions))); err != nil {
		t.destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	return t, nil
}

func (t *onnxTensors) inputs() []ort.ArbitraryTensor {
	return []ort.ArbitraryTensor{t.inputIDs, t.attentionMask, t.tokenTypeIDs}
}

func (t *onnxTensors) destroy() {
	if t.inputIDs != nil {
		_ = t.inputIDs.Destroy()
	}
	if t.attentionMask != nil {
		_ = t.attentionMask.Destroy()
	}
	if t.tokenTypeIDs != nil {
		_ = t.tokenTypeIDs.Destroy()
	}
	if t.output != nil {
		_ = t.output.Destroy()
	}
}

// NewONNXEmbedder loads the model at modelPath. The model takes input_ids,
// attention_mask and token_type_ids of shape (1, maxTokens) and emits a pooled
// (1, dimensions) tensor; the output name defaults to "output".
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int, opts ...ONNXOption) (*ONNXEmbedder, error) {
	if modelPath == "" {
		return nil, errors.New("onnx embedder: model path is required")
	}
	if dimensions <= 0 || maxTokens <= 1 {
		return nil, fmt.Errorf("onnx embedder: invalid dimensions %d or max tokens %d", dimensions, maxTokens)
	}
	o := onnxOptions{outputName: "output"}
	for _, opt := range opts {
		opt(&o)
	}
	if err := initEnvironment(o.libraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	tensors, err := newONNXTensors(maxTokens, dimensions)
	if err != nil {
		return nil, fmt.Errorf("onnx embedder: %w", err)
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{o.outputName},
		tensors.inputs(),
		[]ort.ArbitraryTensor{tensors.output},
		nil,
	)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &ONNXEmbedder{
		session:    session,
		io:         tensors,
		dimensions: dimensions,
		maxTokens:  maxTokens,
		tokenizer:  &SimpleTokenizer{},
	}, nil
}

// Embed runs one inference. Calls are serialized over the bound tensors.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(ctx, "onnx embed", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errors.New("onnx embedder is closed")
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.io.inputIDs.GetData(), ids)
	copy(e.io.attentionMask.GetData(), mask)
	copy(e.io.tokenTypeIDs.GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, &ProviderError{Op: "onnx inference", Err: err}
	}
	out := make([]float32, e.dimensions)
	copy(out, e.io.output.GetData())
	return out, nil
}

// EmbedBatch embeds texts in order, checking ctx between inferences.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and tensors. It is safe to call more than once.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.io.destroy()
	return err
}

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the process-wide ONNX Runtime environment once.
// A non-empty libraryPath is honoured only by the first call.
func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}
