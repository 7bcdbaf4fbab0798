package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"lazycare/internal/generation"
	"lazycare/internal/logging"
)

var zlog = zerolog.Nop()

// SetLogger installs the structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l }

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

var defaultLogLevel = LevelInfo

// SetRequestLogLevel sets the level used when a request carries no override.
func SetRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

// requestLogLevel honors ?log= and X-Log-Level overrides. Debug also logs
// the prompt and every generated text.
func requestLogLevel(r *http.Request) LogLevel {
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// reqLog carries the per-request logging decision through a handler.
type reqLog struct {
	lvl   LogLevel
	r     *http.Request
	start time.Time
}

func newReqLog(r *http.Request) reqLog {
	return reqLog{lvl: requestLogLevel(r), r: r, start: time.Now()}
}

func (l reqLog) event(e *zerolog.Event) *zerolog.Event {
	e = e.Str("path", l.r.URL.Path)
	if rid := middleware.GetReqID(l.r.Context()); rid != "" {
		e = e.Str("request_id", rid)
	}
	return e
}

func (l reqLog) started(msg string) {
	if l.lvl >= LevelInfo {
		l.event(zlog.Info()).Msg(msg + " start")
	}
}

func (l reqLog) failed(msg string, status int, err error) {
	if l.lvl >= LevelError {
		l.event(zlog.Error()).Int("status", status).Str("cause", failureCause(err)).Dur("dur", time.Since(l.start)).Err(err).Msg(msg + " end")
	}
}

// failureCause classifies err for log filtering.
func failureCause(err error) string {
	switch {
	case generation.IsDependencyUnavailable(err):
		return "dependency"
	case generation.IsGenerationError(err):
		return "generation"
	default:
		return "server"
	}
}

func (l reqLog) done(msg string) {
	if l.lvl >= LevelInfo {
		l.event(zlog.Info()).Int("status", http.StatusOK).Dur("dur", time.Since(l.start)).Msg(msg + " end")
	}
}

// texts writes prompt and outputs line by line at debug level.
func (l reqLog) texts(prompt string, outs []string) {
	if l.lvl < LevelDebug {
		return
	}
	lw := &logging.LineWriter{Logger: zlog, Level: zerolog.DebugLevel, Prefix: "prompt"}
	_, _ = lw.Write([]byte(prompt))
	lw.Flush()
	lw.Prefix = "output"
	for _, o := range outs {
		_, _ = lw.Write([]byte(o))
		lw.Flush()
	}
}
