// Package sync reconciles the local store with the backend: pull the server's
// changes since the last watermark, apply them, then push everything the
// device changed while offline.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"repwise/repwise-app/internal/domain"
)

// PullRequest asks the server for every change after the client's watermark.
type PullRequest struct {
	LastPulledAt int64  `json:"last_pulled_at"`
	SourceID     string `json:"source_id"`
}

// PullResponse carries the server's delta and the new watermark.
type PullResponse struct {
	Changes   domain.ChangeSet `json:"changes"`
	Timestamp int64            `json:"timestamp"`
}

// PushRequest uploads the device's unsynced delta.
type PushRequest struct {
	Changes      domain.ChangeSet `json:"changes"`
	LastPulledAt int64            `json:"last_pulled_at"`
	SourceID     string           `json:"source_id"`
}

// RPCClient is the transport the engine syncs through. The HTTP
// implementation below is the real one; tests substitute their own.
type RPCClient interface {
	Pull(ctx context.Context, lastPulledAt int64, sourceID string) (*PullResponse, error)
	Push(ctx context.Context, changes domain.ChangeSet, lastPulledAt int64, sourceID string) error
}

// HTTPClient talks to the sync API over HTTP with bearer-token auth. The
// token func is called per request so a refreshed JWT is picked up
// automatically.
type HTTPClient struct {
	baseURL string
	token   func(ctx context.Context) (string, error)
	http    *http.Client
	logger  *slog.Logger
}

// NewHTTPClient creates a sync transport against baseURL.
func NewHTTPClient(baseURL string, token func(ctx context.Context) (string, error)) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 60 * time.Second},
		logger:  slog.Default(),
	}
}

// Pull fetches the server's changes since lastPulledAt.
func (c *HTTPClient) Pull(ctx context.Context, lastPulledAt int64, sourceID string) (*PullResponse, error) {
	req := PullRequest{LastPulledAt: lastPulledAt, SourceID: sourceID}
	var resp PullResponse
	if err := c.post(ctx, "/api/v1/sync/pull", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Push uploads the device's unsynced changes.
func (c *HTTPClient) Push(ctx context.Context, changes domain.ChangeSet, lastPulledAt int64, sourceID string) error {
	req := PushRequest{Changes: changes, LastPulledAt: lastPulledAt, SourceID: sourceID}
	return c.post(ctx, "/api/v1/sync/push", req, nil)
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("sync request rejected", "path", path, "status", resp.StatusCode)
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
