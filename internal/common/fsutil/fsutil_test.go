package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	p, err := ExpandHome("~")
	if err != nil || p != home {
		t.Fatalf("expected %q, got %q err=%v", home, p, err)
	}
	exp, err := ExpandHome("~/saved_model")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if filepath.Base(exp) != "saved_model" || filepath.Dir(exp) != home {
		t.Fatalf("unexpected expanded path: %q", exp)
	}
}

func TestResolveDirIsAbsolute(t *testing.T) {
	got, err := ResolveDir("saved_model")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestIsDirAndFileExists(t *testing.T) {
	d := t.TempDir()
	f := filepath.Join(d, "f.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !IsDir(d) || IsDir(f) {
		t.Fatalf("IsDir mismatch")
	}
	if !FileExists(f) || FileExists(d) || FileExists(filepath.Join(d, "missing")) {
		t.Fatalf("FileExists mismatch")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "artifact.json")
	if err := WriteFileAtomic(p, []byte(`{"a":1}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteFileAtomic(p, []byte(`{"a":2}`), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != `{"a":2}` {
		t.Fatalf("got %q err=%v", b, err)
	}
	entries, _ := os.ReadDir(d)
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
