package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(""), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_ScansGGUFWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.GGUF", "a.gguf", "notes.txt", "model.bin"} {
		touch(t, dir, f)
	}
	a, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.Manifest.Weights != "a.gguf" {
		t.Fatalf("expected first gguf by name, got %q", a.Manifest.Weights)
	}
	if a.WeightsPath() != filepath.Join(a.Dir, "a.gguf") {
		t.Fatalf("weights path %q", a.WeightsPath())
	}
}

func TestLoad_NoWeights(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "readme.md")
	if _, err := Load(dir); !errors.Is(err, ErrNoWeights) {
		t.Fatalf("expected ErrNoWeights, got %v", err)
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestWriteThenLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "saved_model")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, dir, "model-q4.gguf")
	touch(t, dir, "tokenizer.json")
	written, err := Write(dir, Manifest{
		BaseModel: "TinyLlama/TinyLlama-1.1B-Chat-v1.0",
		Template:  "plain",
		Tokenizer: TokenizerFiles(dir),
		Training:  map[string]string{"learning_rate": "1e-05"},
		Examples:  100,
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if written.Manifest.Weights != "model-q4.gguf" || written.Manifest.CreatedAt.IsZero() {
		t.Fatalf("write did not fill defaults: %+v", written.Manifest)
	}
	a, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	m := a.Manifest
	if m.BaseModel != "TinyLlama/TinyLlama-1.1B-Chat-v1.0" || m.Template != "plain" || m.Examples != 100 {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	if len(m.Tokenizer) != 1 || m.Tokenizer[0] != "tokenizer.json" {
		t.Fatalf("tokenizer files: %v", m.Tokenizer)
	}
	if info := a.Info(); info.Weights != "model-q4.gguf" || info.Dir != a.Dir {
		t.Fatalf("info: %+v", info)
	}
}

func TestLoad_ManifestWeightsMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`{"weights":"gone.gguf"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist for listed weights, got %v", err)
	}
}

func TestLoad_ManifestWithoutWeightsIsAccepted(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(`{"base_model":"remote-only"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if a.WeightsPath() != "" || a.Manifest.BaseModel != "remote-only" {
		t.Fatalf("unexpected artifact: %+v", a)
	}
}
