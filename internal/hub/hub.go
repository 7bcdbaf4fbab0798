// Package hub authenticates against the Hugging Face model hub.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingToken is returned when no hub credential is configured.
var ErrMissingToken = errors.New("hub token not found")

// ErrInvalidToken is returned when the hub rejects the credential.
var ErrInvalidToken = errors.New("hub token rejected")

// LoadToken reads key from the process environment, falling back to envFile.
func LoadToken(envFile, key string) (string, error) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v, nil
	}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read %s: %w", envFile, err)
		}
		if v := strings.TrimSpace(vals[key]); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set %s in the environment or %s", ErrMissingToken, key, envFile)
}

// Client talks to the hub REST API.
type Client struct {
	Endpoint string
	Token    string
	HTTP     *http.Client
}

// NewClient returns a client with a bounded request timeout.
func NewClient(endpoint, token string) *Client {
	return &Client{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Token:    token,
		HTTP:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Identity is the subset of whoami-v2 used for logging.
type Identity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ModelInfo identifies a hub model revision.
type ModelInfo struct {
	ID  string `json:"id"`
	SHA string `json:"sha"`
}

// Whoami validates the token.
func (c *Client) Whoami(ctx context.Context) (Identity, error) {
	var id Identity
	err := c.get(ctx, "/api/whoami-v2", &id)
	return id, err
}

// ModelInfo resolves the current revision of a model repository.
func (c *Client) ModelInfo(ctx context.Context, id string) (ModelInfo, error) {
	var mi ModelInfo
	parts := strings.Split(id, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	err := c.get(ctx, "/api/models/"+strings.Join(parts, "/"), &mi)
	return mi, err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+path, nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	cli := c.HTTP
	if cli == nil {
		cli = http.DefaultClient
	}
	resp, err := cli.Do(req)
	if err != nil {
		return fmt.Errorf("hub request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: http %d", ErrInvalidToken, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hub %s: http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
