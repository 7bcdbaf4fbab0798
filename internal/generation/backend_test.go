package generation

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"lazycare/internal/artifact"
	"lazycare/internal/config"
)

func TestSamplingFromConfig(t *testing.T) {
	g := config.Default().Generation
	p := SamplingFromConfig(g)
	d := DefaultSampling()
	if p.MaxNewTokens != d.MaxNewTokens || p.DoSample != d.DoSample || p.Temperature != d.Temperature ||
		p.TopK != d.TopK || p.TopP != d.TopP || p.NumReturnSequences != d.NumReturnSequences || len(p.Stop) != 0 {
		t.Fatalf("defaults differ: %+v", p)
	}
	no := false
	p = SamplingFromConfig(config.Generation{DoSample: &no, NumReturnSequences: 3, Seed: 7, Stop: []string{"</s>"}})
	if p.DoSample || p.NumReturnSequences != 3 || p.Seed != 7 || len(p.Stop) != 1 {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.effectiveTemperature() != 0 {
		t.Fatalf("greedy decoding should use temperature 0")
	}
}

func TestNewBackend_UnknownAndMissingWeights(t *testing.T) {
	ctx := context.Background()
	if _, err := NewBackend(ctx, config.Model{Backend: "tpu"}, artifact.Artifact{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if _, err := NewBackend(ctx, config.Model{Backend: "spawn"}, artifact.Artifact{Dir: "/x"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected missing weights error")
	}
	if _, err := NewBackend(ctx, config.Model{Backend: "openai"}, artifact.Artifact{}, zerolog.Nop()); err == nil {
		t.Fatalf("expected missing base url error")
	}
}

func TestNewBackend_SpawnMissingBinary(t *testing.T) {
	art := artifact.Artifact{Dir: "/models", Manifest: artifact.Manifest{Weights: "m.gguf"}}
	_, err := NewBackend(context.Background(), config.Model{Backend: "spawn", LlamaBin: "/no/such/llama-server"}, art, zerolog.Nop())
	if !IsDependencyUnavailable(err) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestLlamaServerArgs(t *testing.T) {
	args := llamaServerArgs(SpawnOptions{ModelPath: "m.gguf", CtxSize: 2048, GPULayers: 99, Threads: 8, ExtraArgs: []string{"--no-webui"}}, "127.0.0.1", 31000)
	want := []string{"-m", "m.gguf", "--host", "127.0.0.1", "--port", "31000", "-c", "2048", "-ngl", "99", "-t", "8", "--no-webui"}
	if len(args) != len(want) {
		t.Fatalf("args %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args %v, want %v", args, want)
		}
	}
}

func TestPickFreePort(t *testing.T) {
	p, err := pickFreePort("127.0.0.1")
	if err != nil || p <= 0 {
		t.Fatalf("port=%d err=%v", p, err)
	}
}

func TestChildStderr_KeepsBoundedTail(t *testing.T) {
	var logs bytes.Buffer
	w, tail := childStderr(zerolog.New(&logs).Level(zerolog.DebugLevel))
	line := append(bytes.Repeat([]byte("s"), 1<<20), '\n')
	for i := 0; i < 20; i++ {
		if _, err := w.Write(line); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_, _ = w.Write([]byte("error: out of memory\n"))
	if tail.Len() != stderrTailBytes {
		t.Fatalf("retained %d bytes, want %d", tail.Len(), stderrTailBytes)
	}
	if !strings.HasSuffix(tail.String(), "error: out of memory\n") {
		t.Fatalf("tail misses the latest line")
	}
	if !strings.Contains(logs.String(), `"src":"llama-server"`) {
		t.Fatalf("stderr lines not logged")
	}
}
