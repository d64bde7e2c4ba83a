// Package agent is the client for the upstream generative agent.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the agent service. The streaming client carries no
// timeout: generation legitimately pauses for tens of seconds between
// fragments, and an idle cutoff would sever live turns.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		streamClient: &http.Client{},
	}
}

// AppResult is the agent's answer to a non-streaming generation request.
type AppResult struct {
	Files         map[string]string `json:"files"`
	CompiledFiles map[string]string `json:"compiled_files"`
	Summary       string            `json:"summary"`
}

type createRequest struct {
	Prompt string `json:"prompt"`
}

type editRequest struct {
	Prompt string            `json:"prompt"`
	Files  map[string]string `json:"files"`
}

// CreateApp asks the agent to generate a new app from a prompt.
func (c *Client) CreateApp(ctx context.Context, prompt string) (*AppResult, error) {
	return c.post(ctx, "/apps", createRequest{Prompt: prompt})
}

// EditApp asks the agent to modify an existing app.
func (c *Client) EditApp(ctx context.Context, prompt string, files map[string]string) (*AppResult, error) {
	return c.post(ctx, "/apps/edit", editRequest{Prompt: prompt, Files: files})
}

func (c *Client) post(ctx context.Context, path string, payload any) (*AppResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("agent error (%d): %s", resp.StatusCode, respBody)
	}

	var result AppResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}

// OpenChat starts a streamed chat turn and returns the raw response. The
// caller owns the body and must close it.
func (c *Client) OpenChat(ctx context.Context, body []byte, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("agent request failed: %w", err)
	}
	return resp, nil
}
