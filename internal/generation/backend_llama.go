//go:build llama

package generation

import (
	"context"
	"errors"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// LlamaOptions configures the in-process go-llama.cpp backend.
type LlamaOptions struct {
	ModelPath string
	CtxSize   int
	Threads   int
	GPULayers int
}

// llamaBackend holds the single in-process model. go-llama.cpp contexts are
// not safe for concurrent use, so calls are serialized.
type llamaBackend struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

// NewLlamaBackend loads the model once.
func NewLlamaBackend(opts LlamaOptions) (Backend, error) {
	if strings.TrimSpace(opts.ModelPath) == "" {
		return nil, errors.New("llama backend: model path is empty")
	}
	mo := []llama.ModelOption{llama.SetContext(zn(opts.CtxSize, 2048))}
	if opts.GPULayers > 0 {
		mo = append(mo, llama.SetGPULayers(opts.GPULayers))
	}
	m, err := llama.New(opts.ModelPath, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaBackend{model: m, threads: opts.Threads}, nil
}

func (b *llamaBackend) Name() string { return "llama" }

func (b *llamaBackend) Generate(ctx context.Context, prompt string, p SamplingParams) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model == nil {
		return nil, ErrDependencyUnavailable("llama model not loaded")
	}
	// Stop generation from the token callback when the caller goes away.
	b.model.SetTokenCallback(func(string) bool { return ctx.Err() == nil })
	defer b.model.SetTokenCallback(nil)

	po := predictOptions(p, b.threads)
	outs := make([]string, 0, p.sequences())
	for i := 0; i < p.sequences(); i++ {
		text, err := b.model.Predict(prompt, po...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		outs = append(outs, text)
	}
	return outs, nil
}

func (b *llamaBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.model != nil {
		b.model.Free()
		b.model = nil
	}
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func predictOptions(p SamplingParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(zn(p.MaxNewTokens, 256)),
		llama.SetThreads(zn(threads, 4)),
		llama.SetTopP(float32(p.TopP)),
		llama.SetTopK(p.TopK),
		llama.SetTemperature(float32(p.effectiveTemperature())),
	}
	if p.Seed != 0 {
		po = append(po, llama.SetSeed(int(p.Seed)))
	}
	if len(p.Stop) > 0 {
		po = append(po, llama.SetStopWords(p.Stop...))
	}
	return po
}
