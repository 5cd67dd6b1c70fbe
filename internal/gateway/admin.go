package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// AdminClient talks to a catalog twin's /admin/* endpoints.
type AdminClient struct {
	baseURL string
	http    *http.Client
}

// NewAdminClient creates an AdminClient with a 5-second timeout.
func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Health checks GET /admin/health. Returns (ok, response body or error message).
func (c *AdminClient) Health(ctx context.Context) (bool, string) {
	body, status, err := c.send(ctx, http.MethodGet, "/admin/health", nil)
	if err != nil {
		return false, err.Error()
	}
	if status == http.StatusOK {
		return true, body
	}
	return false, fmt.Sprintf("status %d: %s", status, body)
}

// Reset calls POST /admin/reset.
func (c *AdminClient) Reset(ctx context.Context) (string, error) {
	body, status, err := c.send(ctx, http.MethodPost, "/admin/reset", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("reset returned status %d: %s", status, body)
	}
	return body, nil
}

// Seed POSTs the contents of a JSON file to /admin/state.
func (c *AdminClient) Seed(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("reading seed file: %w", err)
	}
	body, status, err := c.send(ctx, http.MethodPost, "/admin/state", data)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("seed failed (status %d): %s", status, body)
	}
	return body, nil
}

// Requests returns the raw JSON of GET /admin/requests.
func (c *AdminClient) Requests(ctx context.Context) (string, error) {
	body, status, err := c.send(ctx, http.MethodGet, "/admin/requests", nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("requests returned status %d: %s", status, body)
	}
	return body, nil
}

func (c *AdminClient) send(ctx context.Context, method, path string, payload []byte) (string, int, error) {
	var r io.Reader
	if payload != nil {
		r = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return strings.TrimSpace(string(b)), resp.StatusCode, nil
}
