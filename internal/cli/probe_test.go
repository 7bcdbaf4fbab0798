package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"lazycare/internal/config"
)

func TestRunProbe_OpenAIBackend(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "c", "object": "text_completion", "created": 0, "model": "m",
			"choices": []map[string]any{{"text": " Sleep well.", "index": 0, "finish_reason": "stop", "logprobs": nil}},
		})
	}))
	defer srv.Close()

	t.Setenv("HUGGINGFACE_TOKEN", "")
	cfg := config.Config{
		Model: config.Model{Backend: "openai", BaseURL: srv.URL + "/v1", Dir: filepath.Join(t.TempDir(), "none")},
		Hub:   config.Hub{EnvFile: filepath.Join(t.TempDir(), "absent.env")},
		Log:   config.Log{Level: "error"},
	}.WithDefaults()

	var out bytes.Buffer
	if err := runProbe(context.Background(), cfg, 3, &out); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if got := calls.Load(); got != int32(len(ProbePrompts)+3) {
		t.Fatalf("expected %d completions, got %d", len(ProbePrompts)+3, got)
	}
	s := out.String()
	if !strings.Contains(s, "Response for sleep tips:\n<|user|>\nWhat are some tips for better sleep?\n<|assistant|>\n Sleep well.") {
		t.Fatalf("raw probe output missing:\n%s", s)
	}
	if !strings.Contains(s, "Suggestion 3:") || !strings.Contains(s, "You are Lazy Care") {
		t.Fatalf("persona probe output missing:\n%s", s)
	}
}
