// Package build calls the service that compiles a source mapping into
// deployable assets.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Builder compiles a path to content mapping into compiled output.
type Builder interface {
	Build(ctx context.Context, files map[string]string) (map[string]string, error)
}

// Client is the HTTP Builder.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Bundling a large app can take a while.
			Timeout: 120 * time.Second,
		},
	}
}

type buildRequest struct {
	Files map[string]string `json:"files"`
}

type buildResponse struct {
	Compiled map[string]string `json:"compiled"`
}

func (c *Client) Build(ctx context.Context, files map[string]string) (map[string]string, error) {
	body, err := json.Marshal(buildRequest{Files: files})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/build", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("build failed (%d): %s", resp.StatusCode, respBody)
	}

	var result buildResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return result.Compiled, nil
}
