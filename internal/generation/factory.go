package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"lazycare/internal/artifact"
	"lazycare/internal/config"
)

// NewBackend builds the backend named by cfg.Model.Backend for the loaded artifact.
func NewBackend(ctx context.Context, m config.Model, art artifact.Artifact, log zerolog.Logger) (Backend, error) {
	switch m.Backend {
	case "openai":
		name := m.Name
		if name == "" {
			name = art.Manifest.BaseModel
		}
		return NewOpenAIBackend(OpenAIOptions{BaseURL: m.BaseURL, APIKey: m.APIKey, Model: name})
	case "spawn":
		if art.WeightsPath() == "" {
			return nil, fmt.Errorf("spawn backend: artifact %s has no GGUF weights", art.Dir)
		}
		return StartSpawnBackend(ctx, SpawnOptions{
			Bin:        m.LlamaBin,
			ModelPath:  art.WeightsPath(),
			Host:       m.LlamaHost,
			PortStart:  m.LlamaPortStart,
			PortEnd:    m.LlamaPortEnd,
			CtxSize:    m.CtxSize,
			GPULayers:  m.GPULayers,
			Threads:    m.Threads,
			ExtraArgs:  m.ExtraArgs,
			ReadyAfter: time.Duration(m.ReadySeconds) * time.Second,
			Logger:     log,
		})
	case "llama":
		if art.WeightsPath() == "" {
			return nil, fmt.Errorf("llama backend: artifact %s has no GGUF weights", art.Dir)
		}
		return NewLlamaBackend(LlamaOptions{
			ModelPath: art.WeightsPath(),
			CtxSize:   m.CtxSize,
			Threads:   m.Threads,
			GPULayers: m.GPULayers,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", m.Backend)
	}
}
