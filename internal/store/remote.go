package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Remote talks to the project store service over HTTP.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemote(baseURL string) *Remote {
	return &Remote{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (r *Remote) Get(ctx context.Context, project, key string) ([]byte, string, error) {
	reqURL := fmt.Sprintf("%s/project/%s/get/%s", r.baseURL, project, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("project store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("get failed (%d): %s", resp.StatusCode, body)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	return content, resp.Header.Get("Content-Type"), nil
}

func (r *Remote) List(ctx context.Context, project, prefix string) ([]KeyInfo, error) {
	reqURL := fmt.Sprintf("%s/project/%s/list/%s", r.baseURL, project, url.PathEscape(prefix))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("project store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list failed (%d): %s", resp.StatusCode, body)
	}

	var result []KeyInfo
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return result, nil
}

func (r *Remote) Store(ctx context.Context, project, key, mimeType string, content []byte) error {
	reqURL := fmt.Sprintf("%s/project/%s/%s", r.baseURL, project, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mimeType)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("project store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store failed (%d): %s", resp.StatusCode, body)
	}
	return nil
}

func (r *Remote) Delete(ctx context.Context, project, key string) error {
	reqURL := fmt.Sprintf("%s/project/%s/%s", r.baseURL, project, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("project store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed (%d): %s", resp.StatusCode, body)
	}
	return nil
}
