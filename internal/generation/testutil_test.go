package generation

import (
	"context"
	"errors"
	"sync"
)

// fakeBackend is a lightweight in-memory backend used for tests.
type fakeBackend struct {
	mu       sync.Mutex
	outs     []string
	err      error
	prompts  []string
	params   []SamplingParams
	closed   int
	blockCtx bool
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Generate(ctx context.Context, prompt string, p SamplingParams) ([]string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.params = append(f.params, p)
	f.mu.Unlock()
	if f.blockCtx {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]string(nil), f.outs...), nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

var errBoom = errors.New("CUDA out of memory")
