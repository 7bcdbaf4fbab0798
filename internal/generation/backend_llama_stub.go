//go:build !llama

package generation

// LlamaOptions configures the in-process go-llama.cpp backend.
type LlamaOptions struct {
	ModelPath string
	CtxSize   int
	Threads   int
	GPULayers int
}

// NewLlamaBackend fails fast: this binary was built without the 'llama' tag.
func NewLlamaBackend(opts LlamaOptions) (Backend, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
