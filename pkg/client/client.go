package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codecanvas/codecanvas/pkg/types"
)

// Client is an HTTP client for the CodeCanvas API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new CodeCanvas API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request with API key authentication.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	reqURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

// do performs a request, checks the status against wantStatus, and
// decodes the response body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, wantStatus ...int) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	ok := false
	for _, status := range wantStatus {
		if resp.StatusCode == status {
			ok = true
			break
		}
	}
	if !ok {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateSession creates a new editing session.
func (c *Client) CreateSession(ctx context.Context, cfg types.SessionConfig) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/sessions", cfg, &info, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListSessions lists all live sessions.
func (c *Client) ListSessions(ctx context.Context) ([]types.SessionInfo, error) {
	var infos []types.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &infos, http.StatusOK); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetSession gets a session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s", sessionID), nil, &info, http.StatusOK); err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession closes and removes a session.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/sessions/%s", sessionID), nil, nil,
		http.StatusOK, http.StatusNoContent)
}

// ListProjects lists persisted project snapshots.
func (c *Client) ListProjects(ctx context.Context) ([]types.ProjectInfo, error) {
	var infos []types.ProjectInfo
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &infos, http.StatusOK); err != nil {
		return nil, err
	}
	return infos, nil
}

// ReadFile reads a file's content from the session's project tree. A
// missing path reads as empty content.
func (c *Client) ReadFile(ctx context.Context, sessionID, path string) (string, error) {
	reqPath := fmt.Sprintf("/sessions/%s/files?path=%s", sessionID, url.QueryEscape(path))
	resp, err := c.doRequest(ctx, http.MethodGet, reqPath, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(content), nil
}

// WriteFile replaces a file's content.
func (c *Client) WriteFile(ctx context.Context, sessionID, path, content string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/sessions/%s/files", sessionID),
		types.WriteFileRequest{Path: path, Content: content}, nil,
		http.StatusOK, http.StatusNoContent)
}

// ListFiles returns the session's flattened path-to-content map,
// including any streaming overlay.
func (c *Client) ListFiles(ctx context.Context, sessionID string) (map[string]string, error) {
	var flat map[string]string
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s/files/list", sessionID), nil, &flat, http.StatusOK); err != nil {
		return nil, err
	}
	return flat, nil
}

// BeginStream starts a generator stream targeting one file.
func (c *Client) BeginStream(ctx context.Context, sessionID, path string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/stream", sessionID),
		types.StreamBeginRequest{Path: path}, nil,
		http.StatusOK, http.StatusNoContent)
}

// StreamChunk sends the generator's full accumulated text so far.
func (c *Client) StreamChunk(ctx context.Context, sessionID, code string) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/sessions/%s/stream", sessionID),
		types.StreamChunkRequest{Code: code}, nil,
		http.StatusOK, http.StatusNoContent)
}

// EndStream closes the active stream, committing the accumulated text
// into the tree when commit is true.
func (c *Client) EndStream(ctx context.Context, sessionID string, commit bool) error {
	path := fmt.Sprintf("/sessions/%s/stream", sessionID)
	if commit {
		path += "?commit=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil,
		http.StatusOK, http.StatusNoContent)
}

// Run executes a python file remotely and returns the transcript. This
// blocks until execution reaches a terminal state.
func (c *Client) Run(ctx context.Context, sessionID, path string) ([]string, error) {
	var result types.RunResult
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/run", sessionID),
		types.RunRequest{Path: path}, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Lines, nil
}

// Output returns the last run's transcript.
func (c *Client) Output(ctx context.Context, sessionID string) ([]string, error) {
	var result types.RunResult
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s/output", sessionID), nil, &result, http.StatusOK); err != nil {
		return nil, err
	}
	return result.Lines, nil
}

// RefreshPreview rebuilds the preview document from the current state.
func (c *Client) RefreshPreview(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/sessions/%s/preview/refresh", sessionID), nil, nil,
		http.StatusOK)
}

// Console returns the live preview generation's captured error and logs.
func (c *Client) Console(ctx context.Context, sessionID string) (*types.ConsoleState, error) {
	var state types.ConsoleState
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/sessions/%s/console", sessionID), nil, &state, http.StatusOK); err != nil {
		return nil, err
	}
	return &state, nil
}

// PreviewDocument fetches the instrumented HTML document for a session.
func (c *Client) PreviewDocument(ctx context.Context, sessionID string) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/preview/%s", sessionID), nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(doc), nil
}
