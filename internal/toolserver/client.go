package toolserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// planeClient issues one-shot HTTP calls against the control plane. Responses
// are decoded generically; the tool layer only ever inspects a few fields and
// re-renders the rest as text.
type planeClient struct {
	baseURL string
	http    *http.Client
}

func newPlaneClient(baseURL string) *planeClient {
	return &planeClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *planeClient) get(ctx context.Context, path string) (map[string]any, int, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *planeClient) post(ctx context.Context, path string, body any) (map[string]any, int, error) {
	return c.do(ctx, http.MethodPost, path, body)
}

func (c *planeClient) do(ctx context.Context, method, path string, body any) (map[string]any, int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Close = true

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("control plane unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return payload, resp.StatusCode, nil
}

// message extracts the server's human-readable message from a payload,
// falling back to the error code or a generic phrase.
func message(payload map[string]any, status int) string {
	if m, ok := payload["message"].(string); ok && m != "" {
		return m
	}
	if e, ok := payload["error"].(string); ok && e != "" {
		return e
	}
	return fmt.Sprintf("control plane returned status %d", status)
}
