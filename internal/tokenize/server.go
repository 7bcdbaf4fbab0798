package tokenize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds a single /tokenize call.
const DefaultTimeout = 30 * time.Second

// ServerTokenizer calls the /tokenize endpoint of a llama-server that hosts
// the base model, so token ids match the weights being fine-tuned.
type ServerTokenizer struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// NewServerTokenizer returns a tokenizer bound to baseURL.
func NewServerTokenizer(baseURL string) *ServerTokenizer {
	return &ServerTokenizer{BaseURL: strings.TrimRight(baseURL, "/"), Timeout: DefaultTimeout}
}

type tokenizeRequest struct {
	Content    string `json:"content"`
	AddSpecial bool   `json:"add_special"`
}

type tokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// Encode returns the ids for text, with the BOS token prepended.
func (s *ServerTokenizer) Encode(ctx context.Context, text string) ([]int, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(tokenizeRequest{Content: text, AddSpecial: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/tokenize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	cli := s.Client
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tokenize request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("tokenize http %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	var out tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tokenize response: %w", err)
	}
	return out.Tokens, nil
}
