package generation

import (
	"context"

	"lazycare/internal/config"
	"lazycare/pkg/types"
)

// Backend runs generations against a loaded model.
type Backend interface {
	// Name identifies the backend kind (openai, spawn, llama).
	Name() string
	// Generate returns params.NumReturnSequences continuations of prompt.
	// Continuations never include the prompt itself.
	Generate(ctx context.Context, prompt string, params SamplingParams) ([]string, error)
	// Close releases the model and any child process.
	Close() error
}

// SamplingParams controls one generation call.
type SamplingParams struct {
	MaxNewTokens       int
	DoSample           bool
	Temperature        float64
	TopK               int
	TopP               float64
	NumReturnSequences int
	Seed               int64
	Stop               []string
}

// DefaultSampling returns the fixed sampling configuration of the service.
func DefaultSampling() SamplingParams {
	return SamplingParams{
		MaxNewTokens:       256,
		DoSample:           true,
		Temperature:        0.7,
		TopK:               50,
		TopP:               0.95,
		NumReturnSequences: 1,
	}
}

// SamplingFromConfig maps the generation config section (defaults applied).
func SamplingFromConfig(g config.Generation) SamplingParams {
	p := DefaultSampling()
	if g.MaxNewTokens > 0 {
		p.MaxNewTokens = g.MaxNewTokens
	}
	if g.DoSample != nil {
		p.DoSample = *g.DoSample
	}
	if g.Temperature > 0 {
		p.Temperature = g.Temperature
	}
	if g.TopK > 0 {
		p.TopK = g.TopK
	}
	if g.TopP > 0 {
		p.TopP = g.TopP
	}
	if g.NumReturnSequences > 0 {
		p.NumReturnSequences = g.NumReturnSequences
	}
	p.Seed = g.Seed
	p.Stop = append([]string(nil), g.Stop...)
	return p
}

// effectiveTemperature returns 0 (greedy) when sampling is disabled.
func (p SamplingParams) effectiveTemperature() float64 {
	if !p.DoSample {
		return 0
	}
	return p.Temperature
}

func (p SamplingParams) sequences() int {
	if p.NumReturnSequences <= 0 {
		return 1
	}
	return p.NumReturnSequences
}

// Types projects the params for status reporting.
func (p SamplingParams) Types() types.Sampling {
	return types.Sampling{
		MaxNewTokens:       p.MaxNewTokens,
		DoSample:           p.DoSample,
		Temperature:        p.Temperature,
		TopK:               p.TopK,
		TopP:               p.TopP,
		NumReturnSequences: p.sequences(),
	}
}
