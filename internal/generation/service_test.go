package generation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"lazycare/internal/chat"
)

func newTestService(t *testing.T, fb *fakeBackend, fullText bool) *Service {
	t.Helper()
	tpl, err := chat.LookupTemplate("zephyr")
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewService(fb, Options{Template: tpl, Sampling: DefaultSampling(), ReturnFullText: fullText, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return s
}

func TestComplete_FullTextHasPromptPrefix(t *testing.T) {
	fb := &fakeBackend{outs: []string{" Sleep at regular hours."}}
	s := newTestService(t, fb, true)
	prompt := chat.RawPrompt("What are some tips for better sleep?")
	outs, err := s.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(outs) != 1 || !strings.HasPrefix(outs[0], prompt) || !strings.HasSuffix(outs[0], "regular hours.") {
		t.Fatalf("unexpected outputs: %q", outs)
	}
	if fb.prompts[0] != prompt {
		t.Fatalf("backend got %q", fb.prompts[0])
	}
}

func TestComplete_ContinuationOnly(t *testing.T) {
	fb := &fakeBackend{outs: []string{"only this"}}
	s := newTestService(t, fb, false)
	outs, err := s.Complete(context.Background(), "hello")
	if err != nil || len(outs) != 1 || outs[0] != "only this" {
		t.Fatalf("got %q err=%v", outs, err)
	}
}

func TestComplete_EmptyInput(t *testing.T) {
	fb := &fakeBackend{outs: []string{"x"}}
	s := newTestService(t, fb, true)
	for _, in := range []string{"", "   ", "\n\t"} {
		if _, err := s.Complete(context.Background(), in); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("input %q: expected ErrEmptyInput, got %v", in, err)
		}
	}
	if len(fb.prompts) != 0 {
		t.Fatalf("backend must not be called for empty input")
	}
}

func TestChat_RendersPersonaConversation(t *testing.T) {
	fb := &fakeBackend{outs: []string{"Drink water."}}
	s := newTestService(t, fb, true)
	prompt, outs, err := s.Chat(context.Background(), "You are a helpful medical assistant.", "I have a cold")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	want := "<|system|>\nYou are a helpful medical assistant.</s>\n<|user|>\nI have a cold</s>\n<|assistant|>\n"
	if prompt != want || fb.prompts[0] != want {
		t.Fatalf("prompt %q", prompt)
	}
	if outs[0] != want+"Drink water." {
		t.Fatalf("output %q", outs[0])
	}
	p := fb.params[0]
	if p.MaxNewTokens != 256 || !p.DoSample || p.Temperature != 0.7 || p.TopK != 50 || p.TopP != 0.95 {
		t.Fatalf("sampling not fixed: %+v", p)
	}
}

func TestChat_EmptyInput(t *testing.T) {
	s := newTestService(t, &fakeBackend{outs: []string{"x"}}, true)
	if _, _, err := s.Chat(context.Background(), "p", "  "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestChat_MultipleSamples(t *testing.T) {
	fb := &fakeBackend{outs: []string{"a", "b", "c"}}
	tpl, _ := chat.LookupTemplate("zephyr")
	sp := DefaultSampling()
	sp.NumReturnSequences = 3
	s, _ := NewService(fb, Options{Template: tpl, Sampling: sp, Logger: zerolog.Nop()})
	_, outs, err := s.Chat(context.Background(), "", "tips?")
	if err != nil || len(outs) != 3 {
		t.Fatalf("got %q err=%v", outs, err)
	}
	if fb.params[0].NumReturnSequences != 3 {
		t.Fatalf("backend did not receive n=3")
	}
}

func TestGenerate_BackendErrorKeepsMessage(t *testing.T) {
	s := newTestService(t, &fakeBackend{err: errBoom}, true)
	_, err := s.Complete(context.Background(), "hi")
	if !IsGenerationError(err) {
		t.Fatalf("expected GenerationError, got %T %v", err, err)
	}
	if !errors.Is(err, errBoom) || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("cause lost: %v", err)
	}
}

func TestGenerate_DependencyUnavailablePassesThrough(t *testing.T) {
	s := newTestService(t, &fakeBackend{err: ErrDependencyUnavailable("llama-server exited")}, true)
	_, err := s.Complete(context.Background(), "hi")
	if !IsDependencyUnavailable(err) || IsGenerationError(err) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGenerate_NoOutputIsError(t *testing.T) {
	s := newTestService(t, &fakeBackend{}, true)
	if _, err := s.Complete(context.Background(), "hi"); !IsGenerationError(err) {
		t.Fatalf("expected error for empty output, got %v", err)
	}
}

func TestGenerate_ContextCanceled(t *testing.T) {
	s := newTestService(t, &fakeBackend{blockCtx: true}, true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := s.Complete(ctx, "hi"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCloseIsIdempotentAndDisablesService(t *testing.T) {
	fb := &fakeBackend{outs: []string{"x"}}
	s := newTestService(t, fb, true)
	if !s.Ready() {
		t.Fatalf("expected ready")
	}
	_ = s.Close()
	_ = s.Close()
	if fb.closed != 1 {
		t.Fatalf("backend closed %d times", fb.closed)
	}
	if s.Ready() {
		t.Fatalf("closed service reports ready")
	}
	if _, err := s.Complete(context.Background(), "hi"); !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency error after close, got %v", err)
	}
}

func TestStatus(t *testing.T) {
	s := newTestService(t, &fakeBackend{outs: []string{"x"}}, true)
	st := s.Status()
	if st.Backend != "fake" || st.Template != "zephyr" || !st.Ready || st.Sampling.TopK != 50 {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestNewService_NilBackend(t *testing.T) {
	if _, err := NewService(nil, Options{}); err == nil {
		t.Fatalf("expected error")
	}
}
