package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"strange": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLineWriter_SplitsLines(t *testing.T) {
	var buf bytes.Buffer
	lw := &LineWriter{Logger: zerolog.New(&buf), Level: zerolog.InfoLevel, Prefix: "trainer"}
	_, _ = lw.Write([]byte("a line\npartial"))
	_, _ = lw.Write([]byte("-cont\r\n\nlast"))
	lw.Flush()

	out := buf.String()
	for _, want := range []string{`"message":"a line"`, `"message":"partial-cont"`, `"message":"last"`, `"src":"trainer"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %s in %q", want, out)
		}
	}
	if n := strings.Count(out, "\n"); n != 3 {
		t.Fatalf("expected 3 events, got %d: %q", n, out)
	}
}

func TestNew_WritesRotatingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "logs", "lazycare.log")
	l, closer, err := New(Options{Level: "info", Format: "json", File: p})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	l.Info().Str("k", "v").Msg("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `"message":"hello"`) {
		t.Fatalf("log file missing event: %q", b)
	}
}

func TestLineWriter_LongLineIsBounded(t *testing.T) {
	var buf bytes.Buffer
	lw := &LineWriter{Logger: zerolog.New(&buf), Level: zerolog.InfoLevel, Prefix: "llama-server"}
	chunk := bytes.Repeat([]byte("x"), 16<<10)
	for i := 0; i < 64; i++ {
		_, _ = lw.Write(chunk)
	}
	if len(lw.buf) >= maxLineBytes {
		t.Fatalf("partial line buffer grew to %d bytes", len(lw.buf))
	}
	if buf.Len() == 0 {
		t.Fatalf("expected oversized line to be emitted")
	}
}

func TestTailBuffer_KeepsLastBytes(t *testing.T) {
	tb := &TailBuffer{Max: 4}
	_, _ = tb.Write([]byte("abcdef"))
	_, _ = tb.Write([]byte("gh"))
	if tb.String() != "efgh" {
		t.Fatalf("got %q", tb.String())
	}
	_, _ = tb.Write([]byte("i"))
	if tb.String() != "fghi" {
		t.Fatalf("got %q", tb.String())
	}
}

func TestTailBuffer_RetainedSizeIsBounded(t *testing.T) {
	const limit = 4096
	tb := &TailBuffer{Max: limit}
	mib := bytes.Repeat([]byte("e"), 1<<20)
	for i := 0; i < 20; i++ {
		mib[len(mib)-1] = byte('a' + i)
		if n, err := tb.Write(mib); err != nil || n != len(mib) {
			t.Fatalf("write: n=%d err=%v", n, err)
		}
		_, _ = tb.Write([]byte("line\n"))
	}
	if tb.Len() != limit {
		t.Fatalf("retained %d bytes, want %d", tb.Len(), limit)
	}
	if cap(tb.b) > 2*limit {
		t.Fatalf("backing array holds %d bytes", cap(tb.b))
	}
	if !strings.HasSuffix(tb.String(), "t"+"line\n") {
		t.Fatalf("tail lost the latest bytes: %q", tb.String()[limit-16:])
	}
}
