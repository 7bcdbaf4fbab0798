package config

import (
	"os"
	"testing"
)

func TestLoad_NonexistentFile(t *testing.T) {
	if _, err := Load("/definitely/not/a/real/file-12345.yaml"); err == nil {
		t.Fatalf("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.yaml", "server:\n  addr: :8080\n: broken\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected YAML unmarshal error")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.json", `{ "server": { "addr": } }`)
	if _, err := Load(p); err == nil {
		t.Fatalf("expected JSON unmarshal error")
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "bad.toml", "[server]\naddr=:8080\n")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected TOML unmarshal error")
	}
}

func TestLoadEnvFiles_DoesNotOverride(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "Token.env", "HUGGINGFACE_TOKEN=hf_file\nLAZYCARE_TEST_ONLY_KEY=from_file\n")
	t.Setenv("HUGGINGFACE_TOKEN", "hf_env")
	t.Setenv("LAZYCARE_TEST_ONLY_KEY", "")
	os.Unsetenv("LAZYCARE_TEST_ONLY_KEY")
	if err := LoadEnvFiles(p, d+"/missing.env", ""); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("HUGGINGFACE_TOKEN"); got != "hf_env" {
		t.Fatalf("existing env overridden: %q", got)
	}
	if got := os.Getenv("LAZYCARE_TEST_ONLY_KEY"); got != "from_file" {
		t.Fatalf("env file not loaded: %q", got)
	}
}

func TestLoadEnvFiles_NoFiles(t *testing.T) {
	if err := LoadEnvFiles("/no/such/file.env"); err != nil {
		t.Fatalf("missing files should be skipped: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LAZYCARE_ADDR", ":9100")
	t.Setenv("LAZYCARE_BACKEND", "openai")
	t.Setenv("LAZYCARE_GENERATE_TIMEOUT_SECONDS", "12")
	var c Config
	c.ApplyEnv()
	if c.Server.Addr != ":9100" || c.Model.Backend != "openai" || c.Server.GenerateTimeoutSeconds != 12 {
		t.Fatalf("unexpected cfg: %+v", c.Server)
	}
}
