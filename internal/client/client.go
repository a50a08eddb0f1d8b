// Package client provides a JSON HTTP client for the podrag server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/skipai/podrag/internal/catalog"
	"github.com/skipai/podrag/internal/models"
)

// Client talks to a running podrag server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client. If baseURL is empty, uses the
// PODRAG_SERVER_URL env var or defaults to localhost:8080. The timeout
// can be configured via PODRAG_CLIENT_TIMEOUT.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("PODRAG_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 60 * time.Second
	if t := os.Getenv("PODRAG_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// QueryResponse is the answer payload from the query endpoint.
type QueryResponse struct {
	Answer  string          `json:"answer"`
	Sources []models.Source `json:"sources"`
}

// HealthResponse is the payload from the health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
}

// StatsResponse is the payload from the debug stats endpoint.
type StatsResponse struct {
	CollectionStats catalog.Stats `json:"collection_stats"`
}

// errorResponse mirrors the server's error body.
type errorResponse struct {
	Detail string `json:"detail"`
}

// Query asks a question and returns the generated answer with sources.
func (c *Client) Query(ctx context.Context, question string) (QueryResponse, error) {
	var resp QueryResponse
	err := c.do(ctx, http.MethodPost, "/query", map[string]string{"question": question}, &resp)
	return resp, err
}

// Health reports the server's health status.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// Stats returns the indexed corpus statistics.
func (c *Client) Stats(ctx context.Context) (StatsResponse, error) {
	var resp StatsResponse
	err := c.do(ctx, http.MethodGet, "/debug-stats", nil, &resp)
	return resp, err
}

// do executes one JSON request against the server.
func (c *Client) do(ctx context.Context, method, path string, reqBody, result any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Detail != "" {
			return fmt.Errorf("server error: %s - %s", resp.Status, errResp.Detail)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
