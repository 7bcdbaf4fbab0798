package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lazycare/internal/logging"
)

// SpawnOptions configures the llama-server child process.
type SpawnOptions struct {
	Bin        string
	ModelPath  string
	Host       string
	PortStart  int
	PortEnd    int
	CtxSize    int
	GPULayers  int
	Threads    int
	ExtraArgs  []string
	ReadyAfter time.Duration
	Logger     zerolog.Logger
}

// spawnBackend owns one llama-server process serving the artifact weights.
type spawnBackend struct {
	Backend // openai backend bound to the child's base URL

	log     zerolog.Logger
	cmd     *exec.Cmd
	baseURL string
	waitCh  chan error
	// tail holds the last stderrTailBytes of child stderr for error messages.
	tail *logging.TailBuffer

	stopOnce sync.Once
}

// stderrTailBytes bounds how much child stderr is quoted in errors.
const stderrTailBytes = 4096

// StartSpawnBackend starts llama-server and blocks until it answers /v1/models,
// the process exits, the readiness deadline passes or ctx is canceled.
func StartSpawnBackend(ctx context.Context, opts SpawnOptions) (Backend, error) {
	if strings.TrimSpace(opts.ModelPath) == "" {
		return nil, errors.New("spawn backend: model path is empty")
	}
	bin := opts.Bin
	if bin == "" {
		bin = "llama-server"
	}
	if _, err := exec.LookPath(bin); err != nil {
		return nil, ErrDependencyUnavailable(fmt.Sprintf("llama-server binary %q not found: %v", bin, err))
	}
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	var port int
	var err error
	if opts.PortStart > 0 && opts.PortEnd >= opts.PortStart {
		port, err = pickPortInRange(host, opts.PortStart, opts.PortEnd)
	} else {
		port, err = pickFreePort(host)
	}
	if err != nil {
		return nil, err
	}
	baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port))

	cmd := exec.Command(bin, llamaServerArgs(opts, host, port)...)
	stderr, tail := childStderr(opts.Logger)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start llama-server: %w", err)
	}
	opts.Logger.Info().Str("model", opts.ModelPath).Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server started")

	b := &spawnBackend{log: opts.Logger, cmd: cmd, baseURL: baseURL, waitCh: make(chan error, 1), tail: tail}
	go func() { b.waitCh <- cmd.Wait() }()

	if err := b.waitReady(ctx, opts.ReadyAfter); err != nil {
		_ = b.stop()
		return nil, err
	}
	inner, err := NewOpenAIBackend(OpenAIOptions{BaseURL: baseURL + "/v1", SplitSamples: true})
	if err != nil {
		_ = b.stop()
		return nil, err
	}
	b.Backend = inner
	opts.Logger.Info().Int("pid", cmd.Process.Pid).Str("url", baseURL).Msg("llama-server ready")
	return b, nil
}

// childStderr streams llama-server stderr lines to the logger at debug level
// and keeps a bounded tail for error messages.
func childStderr(log zerolog.Logger) (io.Writer, *logging.TailBuffer) {
	tail := &logging.TailBuffer{Max: stderrTailBytes}
	lines := &logging.LineWriter{Logger: log, Level: zerolog.DebugLevel, Prefix: "llama-server"}
	return io.MultiWriter(lines, tail), tail
}

func llamaServerArgs(opts SpawnOptions, host string, port int) []string {
	args := []string{
		"-m", opts.ModelPath,
		"--host", host,
		"--port", strconv.Itoa(port),
	}
	if opts.CtxSize > 0 {
		args = append(args, "-c", strconv.Itoa(opts.CtxSize))
	}
	if opts.GPULayers > 0 {
		args = append(args, "-ngl", strconv.Itoa(opts.GPULayers))
	}
	if opts.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(opts.Threads))
	}
	return append(args, opts.ExtraArgs...)
}

func (b *spawnBackend) waitReady(ctx context.Context, within time.Duration) error {
	if within <= 0 {
		within = 60 * time.Second
	}
	deadline := time.NewTimer(within)
	defer deadline.Stop()
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	cli := &http.Client{Timeout: time.Second}
	for {
		select {
		case werr := <-b.waitCh:
			// Put it back so stop() does not block on a drained channel.
			b.waitCh <- werr
			tail := b.tail.String()
			if werr != nil {
				return fmt.Errorf("llama-server exited early: %v; stderr tail: %s", werr, tail)
			}
			return fmt.Errorf("llama-server exited before ready: %s", tail)
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return ErrDependencyUnavailable("llama-server not ready in time: " + b.baseURL)
		case <-tick.C:
			if healthy(ctx, cli, b.baseURL) {
				return nil
			}
		}
	}
}

func healthy(ctx context.Context, cli *http.Client, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	resp, err := cli.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (b *spawnBackend) Name() string { return "spawn" }

func (b *spawnBackend) Generate(ctx context.Context, prompt string, p SamplingParams) ([]string, error) {
	select {
	case werr := <-b.waitCh:
		b.waitCh <- werr
		return nil, ErrDependencyUnavailable(fmt.Sprintf("llama-server exited: %v; stderr tail: %s", werr, b.tail.String()))
	default:
	}
	return b.Backend.Generate(ctx, prompt, p)
}

// Close terminates the child: SIGTERM first, kill after a grace period.
func (b *spawnBackend) Close() error { return b.stop() }

func (b *spawnBackend) stop() error {
	var err error
	b.stopOnce.Do(func() {
		if b.cmd == nil || b.cmd.Process == nil {
			return
		}
		_ = b.cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-b.waitCh:
		case <-time.After(2 * time.Second):
			err = b.cmd.Process.Kill()
			<-b.waitCh
		}
		b.log.Info().Int("pid", b.cmd.Process.Pid).Msg("llama-server stopped")
	})
	return err
}

func pickPortInRange(host string, start, end int) (int, error) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		_ = l.Close()
		return p, nil
	}
	return 0, fmt.Errorf("no free port in range %d-%d", start, end)
}

func pickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected addr: %s", l.Addr())
	}
	return addr.Port, nil
}
