package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIOptions configures the OpenAI-compatible completion backend.
type OpenAIOptions struct {
	// BaseURL includes the API prefix, e.g. http://127.0.0.1:8080/v1.
	BaseURL string
	APIKey  string
	// Model is sent as the completion model name; llama-server ignores it.
	Model string
	// SplitSamples issues one request per sample instead of a single request
	// with n > 1, for servers that only return one choice.
	SplitSamples   bool
	ConnectTimeout time.Duration
	HTTPClient     *http.Client
}

type openAIBackend struct {
	client openai.Client
	model  string
	split  bool
}

// NewOpenAIBackend constructs a completion backend. No request timeout is set:
// callers bound generations through the context.
func NewOpenAIBackend(opts OpenAIOptions) (Backend, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errors.New("openai backend: base url is required")
	}
	key := opts.APIKey
	if key == "" {
		key = "no-key"
	}
	model := opts.Model
	if model == "" {
		model = "default"
	}
	hc := opts.HTTPClient
	if hc == nil {
		ct := opts.ConnectTimeout
		if ct <= 0 {
			ct = 5 * time.Second
		}
		tr := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   ct,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		hc = &http.Client{Transport: tr, Timeout: 0}
	}
	client := openai.NewClient(
		option.WithBaseURL(base+"/"),
		option.WithAPIKey(key),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	)
	return &openAIBackend{client: client, model: model, split: opts.SplitSamples}, nil
}

func (b *openAIBackend) Name() string { return "openai" }

func (b *openAIBackend) Generate(ctx context.Context, prompt string, p SamplingParams) ([]string, error) {
	n := p.sequences()
	if !b.split || n == 1 {
		return b.complete(ctx, prompt, p, n)
	}
	outs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		o, err := b.complete(ctx, prompt, p, 1)
		if err != nil {
			return nil, err
		}
		outs = append(outs, o...)
	}
	return outs, nil
}

func (b *openAIBackend) complete(ctx context.Context, prompt string, p SamplingParams, n int) ([]string, error) {
	params := openai.CompletionNewParams{
		Model:       openai.CompletionNewParamsModel(b.model),
		Prompt:      openai.CompletionNewParamsPromptUnion{OfString: openai.String(prompt)},
		MaxTokens:   openai.Int(int64(p.MaxNewTokens)),
		Temperature: openai.Float(p.effectiveTemperature()),
		TopP:        openai.Float(p.TopP),
		N:           openai.Int(int64(n)),
	}
	if p.Seed != 0 {
		params.Seed = openai.Int(p.Seed)
	}
	if len(p.Stop) > 0 {
		params.Stop = openai.CompletionNewParamsStopUnion{OfStringArray: p.Stop}
	}
	var extra []option.RequestOption
	if p.TopK > 0 {
		// top_k is not part of the OpenAI schema; llama-server and vLLM accept it.
		extra = append(extra, option.WithJSONSet("top_k", p.TopK))
	}
	resp, err := b.client.Completions.New(ctx, params, extra...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("completion server http %d: %s", apiErr.StatusCode, strings.TrimSpace(apiErr.Message))
		}
		var netErr *net.OpError
		if errors.As(err, &netErr) {
			return nil, ErrDependencyUnavailable("completion server unreachable: " + netErr.Error())
		}
		return nil, err
	}
	outs := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		outs = append(outs, c.Text)
	}
	return outs, nil
}

func (b *openAIBackend) Close() error { return nil }
