// Package remote implements core.RemoteStore against the sync server API.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/corkboard/pkg/core"
)

// Client talks to a sync server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Fetch implements core.RemoteStore.
func (c *Client) Fetch(ctx context.Context) ([]core.Record, error) {
	var records []core.Record
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &records); err != nil {
		return nil, fmt.Errorf("fetch notes: %w: %w", core.ErrStorageUnavailable, err)
	}
	if records == nil {
		records = []core.Record{}
	}
	return records, nil
}

// Push implements core.RemoteStore.
func (c *Client) Push(ctx context.Context, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	if err := c.do(ctx, http.MethodPut, "/api/notes", records, nil); err != nil {
		return fmt.Errorf("push notes: %w: %w", core.ErrStorageWriteFailed, err)
	}
	return nil
}

// UploadAudio implements core.AudioUploader. It returns the server's
// reference for the stored file.
func (c *Client) UploadAudio(ctx context.Context, name string, data []byte) (string, error) {
	body := map[string]string{
		"name": name,
		"data": base64.StdEncoding.EncodeToString(data),
	}
	var out struct {
		Ref string `json:"ref"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/music", body, &out); err != nil {
		return "", fmt.Errorf("upload %s: %w: %w", name, core.ErrStorageWriteFailed, err)
	}
	return out.Ref, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("status %d: invalid response: %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 || !env.Success {
		return fmt.Errorf("status %d: %s", resp.StatusCode, env.Error)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

var (
	_ core.RemoteStore   = (*Client)(nil)
	_ core.AudioUploader = (*Client)(nil)
)
