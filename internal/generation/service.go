package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"lazycare/internal/chat"
	"lazycare/pkg/types"
)

// Options configures a Service.
type Options struct {
	Template chat.Template
	Sampling SamplingParams
	// ReturnFullText prefixes every output with its prompt, matching what a
	// text-generation pipeline returns by default.
	ReturnFullText bool
	Model          types.ModelInfo
	Logger         zerolog.Logger
}

// Service is the process-wide generation singleton. It is constructed once
// and handed to request handlers; it holds no per-request state.
type Service struct {
	backend  Backend
	template chat.Template
	sampling SamplingParams
	fullText bool
	model    types.ModelInfo
	log      zerolog.Logger
	started  time.Time
	closed   atomic.Bool
}

// NewService wraps backend. A nil template selects chat.DefaultTemplate.
func NewService(backend Backend, opts Options) (*Service, error) {
	if backend == nil {
		return nil, errors.New("generation backend is nil")
	}
	tpl := opts.Template
	if tpl == nil {
		var err error
		if tpl, err = chat.LookupTemplate(chat.DefaultTemplate); err != nil {
			return nil, err
		}
	}
	sp := opts.Sampling
	if sp.MaxNewTokens <= 0 {
		sp = DefaultSampling()
	}
	return &Service{
		backend:  backend,
		template: tpl,
		sampling: sp,
		fullText: opts.ReturnFullText,
		model:    opts.Model,
		log:      opts.Logger,
		started:  time.Now(),
	}, nil
}

// Complete generates from a raw prompt.
func (s *Service) Complete(ctx context.Context, prompt string) ([]string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyInput
	}
	return s.generate(ctx, prompt)
}

// Chat builds the persona + user conversation, renders it with the chat
// template and generates. It returns the rendered prompt with the outputs.
func (s *Service) Chat(ctx context.Context, persona, userInput string) (string, []string, error) {
	if strings.TrimSpace(userInput) == "" {
		return "", nil, ErrEmptyInput
	}
	prompt := s.template.Render(chat.Conversation(persona, userInput), true)
	outs, err := s.generate(ctx, prompt)
	return prompt, outs, err
}

func (s *Service) generate(ctx context.Context, prompt string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrDependencyUnavailable("generation backend closed")
	}
	name := s.backend.Name()
	generationInflight.Inc()
	defer generationInflight.Dec()
	start := time.Now()
	outs, err := s.backend.Generate(ctx, prompt, s.sampling)
	if err == nil && len(outs) == 0 {
		err = fmt.Errorf("%s backend returned no output", name)
	}
	observe(name, start, err)
	if err != nil {
		s.log.Debug().Str("backend", name).Dur("dur", time.Since(start)).Err(err).Msg("generation failed")
		if IsDependencyUnavailable(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &GenerationError{Backend: name, Err: err}
	}
	s.log.Debug().Str("backend", name).Dur("dur", time.Since(start)).Int("outputs", len(outs)).Msg("generation done")
	if s.fullText {
		full := make([]string, len(outs))
		for i, o := range outs {
			full[i] = prompt + o
		}
		return full, nil
	}
	return outs, nil
}

// Ready reports whether the backend is loaded and not closed.
func (s *Service) Ready() bool { return !s.closed.Load() }

// Status summarizes the service for GET /status.
func (s *Service) Status() types.StatusResponse {
	now := time.Now()
	return types.StatusResponse{
		Backend:        s.backend.Name(),
		Model:          s.model,
		Template:       s.template.Name(),
		Sampling:       s.sampling.Types(),
		Ready:          s.Ready(),
		UptimeSeconds:  int64(now.Sub(s.started).Seconds()),
		ServerTimeUnix: now.Unix(),
	}
}

// Close releases the backend. Later calls fail with a dependency error.
func (s *Service) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.backend.Close()
}
