// Package runner drives a remote, poll-based code-execution job to a
// terminal state. One run is one submit followed by fixed-interval polls;
// every failure path is terminal, so a run can never hang.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codecanvas/codecanvas/internal/metrics"
)

const (
	defaultLanguageID   = 71 // Python 3
	defaultPollInterval = 1500 * time.Millisecond
	defaultMaxPolls     = 200 // 5 minutes at the default interval
)

// Config holds the execution service endpoint and polling policy.
type Config struct {
	BaseURL      string        // e.g. "https://judge0-ce.p.rapidapi.com"
	APIKey       string        // RapidAPI key, sent as x-rapidapi-key when set
	HostHeader   string        // x-rapidapi-host value when set
	LanguageID   int           // default 71 (Python 3)
	PollInterval time.Duration // default 1.5s
	MaxPolls     int           // default 200; the poll loop is bounded
}

// Client submits interpreted-language source to the execution service and
// polls until a terminal status.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a runner client, applying config defaults.
func NewClient(cfg Config) *Client {
	if cfg.LanguageID == 0 {
		cfg.LanguageID = defaultLanguageID
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = defaultMaxPolls
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type submitRequest struct {
	SourceCode string `json:"source_code"`
	LanguageID int    `json:"language_id"`
}

type submitResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

type pollResponse struct {
	Status struct {
		ID int `json:"id"`
	} `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Message       string `json:"message"`
	Time          string `json:"time"`
	Memory        int    `json:"memory"`
}

// terminal reports whether a status id is past queued (1) / processing (2).
func terminal(statusID int) bool {
	return statusID != 1 && statusID != 2
}

// Run executes sourceCode remotely and returns the rendered transcript
// lines. Errors at any stage become a single terminal
// "[Execution Error] ..." line; the transcript is never empty and the run
// always reaches a terminal state.
func (c *Client) Run(ctx context.Context, sourceCode string) []string {
	start := time.Now()

	token, err := c.submit(ctx, sourceCode)
	if err != nil {
		metrics.ExecRunsTotal.WithLabelValues("error").Inc()
		return []string{fmt.Sprintf("[Execution Error] %v", err)}
	}

	result, err := c.pollUntilDone(ctx, token)
	if err != nil {
		metrics.ExecRunsTotal.WithLabelValues("error").Inc()
		return []string{fmt.Sprintf("[Execution Error] %v", err)}
	}

	metrics.ExecRunsTotal.WithLabelValues("done").Inc()
	metrics.ExecDuration.Observe(time.Since(start).Seconds())
	return renderResult(result)
}

// submit sends the full source as one non-blocking request and returns the
// execution token. A non-success response surfaces the service's message
// when it has one; a success response without a token is itself an error.
func (c *Client) submit(ctx context.Context, sourceCode string) (string, error) {
	body, err := json.Marshal(submitRequest{
		SourceCode: sourceCode,
		LanguageID: c.cfg.LanguageID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal submission: %w", err)
	}

	reqURL := c.cfg.BaseURL + "/submissions?base64_encoded=false&wait=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("submit code for execution: %w", err)
	}
	defer resp.Body.Close()

	var parsed submitResponse
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if parsed.Message != "" {
			return "", fmt.Errorf("%s", parsed.Message)
		}
		return "", fmt.Errorf("failed to submit code for execution (status %d)", resp.StatusCode)
	}
	if parsed.Token == "" {
		return "", fmt.Errorf("no execution token received")
	}
	return parsed.Token, nil
}

// pollUntilDone repeats on a fixed interval until the status leaves
// queued/processing. Each poll failure is terminal, not retried, and the
// attempt count is bounded so a stuck remote job cannot poll forever.
func (c *Client) pollUntilDone(ctx context.Context, token string) (*pollResponse, error) {
	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	for attempt := 0; attempt < c.cfg.MaxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}

		result, err := c.poll(ctx, token)
		if err != nil {
			return nil, err
		}
		if terminal(result.Status.ID) {
			return result, nil
		}
		timer.Reset(c.cfg.PollInterval)
	}
	return nil, fmt.Errorf("execution did not reach a terminal state after %d polls", c.cfg.MaxPolls)
}

func (c *Client) poll(ctx context.Context, token string) (*pollResponse, error) {
	reqURL := c.cfg.BaseURL + "/submissions/" + token + "?base64_encoded=false"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch execution result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch execution result (status %d)", resp.StatusCode)
	}

	var result pollResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode execution result: %w", err)
	}
	return &result, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	if c.cfg.APIKey != "" {
		req.Header.Set("x-rapidapi-key", c.cfg.APIKey)
	}
	if c.cfg.HostHeader != "" {
		req.Header.Set("x-rapidapi-host", c.cfg.HostHeader)
	}
}

// renderResult assembles the ordered human-readable sections from whichever
// outputs the service returned, plus a stats footer when time/memory are
// present.
func renderResult(result *pollResponse) []string {
	var lines []string
	if result.CompileOutput != "" {
		lines = append(lines, "[Compile Output]\n"+result.CompileOutput)
	}
	if result.Stdout != "" {
		lines = append(lines, "[Output]\n"+result.Stdout)
	}
	if result.Stderr != "" {
		lines = append(lines, "[Error]\n"+result.Stderr)
	}
	if result.Message != "" {
		lines = append(lines, "[Message]\n"+result.Message)
	}

	var stats []string
	if result.Time != "" {
		stats = append(stats, fmt.Sprintf("Time: %ss", result.Time))
	}
	if result.Memory > 0 {
		stats = append(stats, fmt.Sprintf("Memory: %d KB", result.Memory))
	}
	if len(stats) > 0 {
		lines = append(lines, "\n[Execution Stats] "+strings.Join(stats, " | "))
	}
	return lines
}
