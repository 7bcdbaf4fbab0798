//go:build ignore

// fake_llama_server mimics the llama-server endpoints used by lazycare.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

func main() {
	var model, host, port string
	flag.StringVar(&model, "m", "", "model path")
	flag.StringVar(&host, "host", "127.0.0.1", "host")
	flag.StringVar(&port, "port", "0", "port")
	flag.Parse()

	if os.Getenv("FAKE_LLAMA_FAIL") != "" {
		fmt.Fprintln(os.Stderr, "error: failed to load model", model)
		os.Exit(1)
	}

	// FAKE_LLAMA_STDERR_BYTES makes every completion log that many bytes to stderr.
	noise, _ := strconv.Atoi(os.Getenv("FAKE_LLAMA_STDERR_BYTES"))

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"test","object":"model"}]}`))
	})
	mux.HandleFunc("/v1/completions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if noise > 0 {
			fmt.Fprintln(os.Stderr, strings.Repeat("s", noise))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "cmpl-fake", "object": "text_completion", "created": time.Now().Unix(), "model": model,
			"choices": []map[string]any{{"text": " echo:" + strings.TrimSpace(req.Prompt), "index": 0, "finish_reason": "stop", "logprobs": nil}},
		})
	})
	mux.HandleFunc("/tokenize", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Content string `json:"content"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		toks := []int{1}
		for _, f := range strings.Fields(req.Content) {
			toks = append(toks, len(f)+100)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"tokens": toks})
	})

	srv := &http.Server{Addr: host + ":" + port, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
