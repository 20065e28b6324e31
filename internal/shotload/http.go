package shotload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client issues JSON requests against the service.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a Client for cfg.BaseURL.
func NewClient(cfg *Config) *Client {
	return &Client{baseURL: cfg.BaseURL, client: &http.Client{Timeout: cfg.Timeout}}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// Upload posts one batch of shots.
func (c *Client) Upload(ctx context.Context, batch []Shot) (IngestAck, error) {
	var ack IngestAck
	err := c.do(ctx, http.MethodPost, "/shots", batch, &ack)
	return ack, err
}

// Train requests a training job for player.
func (c *Client) Train(ctx context.Context, player string) (TrainAck, error) {
	var ack TrainAck
	err := c.do(ctx, http.MethodPost, "/train", map[string]string{"player": player}, &ack)
	return ack, err
}

// Job fetches a job's status.
func (c *Client) Job(ctx context.Context, id string) (JobStatus, error) {
	var st JobStatus
	err := c.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &st)
	return st, err
}

// Rank fetches a player's leaderboard row.
func (c *Client) Rank(ctx context.Context, player string) (Entry, error) {
	var e Entry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(player), nil, &e)
	return e, err
}

// Leaderboard fetches the top n rows.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", n), nil, &entries)
	return entries, err
}

// do sends body as JSON and decodes a 2xx response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}
