// Package client is a small HTTP client for the gateway API, used by the
// atelier CLI.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"atelier/internal/api"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	genClient  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		// Generation waits on the agent and a build.
		genClient: &http.Client{
			Timeout: time.Minute * 3,
		},
	}
}

// Health checks the gateway is up.
func (c *Client) Health() error {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// State fetches a project's stored state.
func (c *Client) State(project string) (*api.StateResponse, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/%s/state", c.baseURL, project))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("state failed (%d): %s", resp.StatusCode, body)
	}

	var state api.StateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Create asks the gateway to generate a new app for the project.
func (c *Client) Create(project, prompt string) (*api.AppResponse, error) {
	return c.generate(project, "create", prompt)
}

// Edit asks the gateway to rework the project's app.
func (c *Client) Edit(project, prompt string) (*api.AppResponse, error) {
	return c.generate(project, "edit", prompt)
}

func (c *Client) generate(project, action, prompt string) (*api.AppResponse, error) {
	data, err := json.Marshal(api.CreateRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	resp, err := c.genClient.Post(
		fmt.Sprintf("%s/%s/%s", c.baseURL, project, action),
		"application/json",
		bytes.NewBuffer(data),
	)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%s failed (%d): %s", action, resp.StatusCode, body)
	}

	var result api.AppResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
