package embedding

// ONNXOption configures an ONNXEmbedder.
type ONNXOption func(*onnxOptions)

type onnxOptions struct {
	outputName  string
	libraryPath string
}

// WithOutputName sets the name of the model's pooled output tensor.
func WithOutputName(name string) ONNXOption {
	return func(o *onnxOptions) {
		if name != "" {
			o.outputName = name
		}
	}
}

// WithLibraryPath points ONNX Runtime at its shared library.
func WithLibraryPath(path string) ONNXOption {
	return func(o *onnxOptions) { o.libraryPath = path }
}
