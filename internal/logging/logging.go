// Package logging builds the process-wide zerolog logger.
package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

// Options selects level, output format and an optional rotating log file.
type Options struct {
	Level  string
	Format string // console|json
	File   string
}

// New returns a logger writing to stderr and, when opts.File is set, to a
// rotating file. The file always receives JSON lines.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	var console io.Writer = os.Stderr
	if strings.EqualFold(strings.TrimSpace(opts.Format), "console") {
		console = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
	out := console
	var closer io.Closer = nopCloser{}
	if p := strings.TrimSpace(opts.File); p != "" {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return zerolog.New(console).With().Timestamp().Logger(), closer, err
		}
		lj := &lumberjack.Logger{
			Filename:   p,
			MaxSize:    maxLogSizeMB,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeDays,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, lj)
		closer = lj
	}
	l := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp().Logger()
	return l, closer, nil
}

// ParseLevel maps a level name to zerolog; unknown names fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// maxLineBytes bounds a buffered partial line; longer runs are emitted as is.
const maxLineBytes = 64 << 10

// LineWriter forwards complete lines written to it as log events. Partial
// lines are buffered until the next newline, Flush or maxLineBytes.
type LineWriter struct {
	Logger zerolog.Logger
	Level  zerolog.Level
	Prefix string
	buf    []byte
}

func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		lw.emit(string(lw.buf[:idx]))
		lw.buf = lw.buf[idx+1:]
	}
	if len(lw.buf) >= maxLineBytes {
		lw.emit(string(lw.buf))
		lw.buf = nil
	}
	if len(lw.buf) == 0 {
		lw.buf = nil
	}
	return len(p), nil
}

// Flush emits any buffered partial line.
func (lw *LineWriter) Flush() {
	if len(lw.buf) > 0 {
		lw.emit(string(lw.buf))
		lw.buf = nil
	}
}

func (lw *LineWriter) emit(line string) {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return
	}
	lw.Logger.WithLevel(lw.Level).Str("src", lw.Prefix).Msg(line)
}

// TailBuffer keeps only the last Max bytes written to it. It is safe for
// concurrent use.
type TailBuffer struct {
	Max int
	mu  sync.Mutex
	b   []byte
}

func (t *TailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(p)
	if t.Max <= 0 {
		return n, nil
	}
	if len(p) >= t.Max {
		t.b = append(t.b[:0], p[len(p)-t.Max:]...)
		return n, nil
	}
	if over := len(t.b) + len(p) - t.Max; over > 0 {
		t.b = append(t.b[:0], t.b[over:]...)
	}
	t.b = append(t.b, p...)
	return n, nil
}

// Len reports how many bytes are retained.
func (t *TailBuffer) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.b)
}

func (t *TailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.b)
}
