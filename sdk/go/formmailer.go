// Package formmailer is a Go client for the formmailer HTTP API.
package formmailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the configuration for the formmailer client.
type Config struct {
	// BaseURL is the root URL of the formmailer server.
	// Examples: "https://forms.example.org" or "https://forms.example.org/api/v1"
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
}

// Client is the formmailer SDK client.
type Client struct {
	cfg Config
}

// NewClient creates a new formmailer client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// Submit sends one form response to the source's webhook. A submission that
// failed and was written to the error log is not an error; check
// SubmissionResult.Sent.
func (c *Client) Submit(ctx context.Context, source string, values []string) (*SubmissionResult, error) {
	if source == "" {
		return nil, ErrNoSource
	}
	if values == nil {
		values = []string{}
	}

	path := "/sources/" + url.PathEscape(source) + "/submissions"
	status, body, err := c.do(ctx, http.MethodPost, path, SubmissionRequest{Values: values})
	if err != nil {
		return nil, err
	}

	var result SubmissionResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("formmailer: failed to parse submission response: %w", err)
	}
	result.Sent = status == http.StatusOK && result.Status == StatusSent
	return &result, nil
}

// RegisterTrigger binds the confirmation handler to source. Registering an
// already bound source is a no-op reported by Created == false.
func (c *Client) RegisterTrigger(ctx context.Context, source string) (*TriggerRegistration, error) {
	if source == "" {
		return nil, ErrNoSource
	}

	_, body, err := c.do(ctx, http.MethodPost, "/triggers", RegisterTriggerRequest{Source: source})
	if err != nil {
		return nil, err
	}

	var reg TriggerRegistration
	if err := json.Unmarshal(body, &reg); err != nil {
		return nil, fmt.Errorf("formmailer: failed to parse trigger response: %w", err)
	}
	return &reg, nil
}

// ListTriggers returns every registered trigger.
func (c *Client) ListTriggers(ctx context.Context) ([]Trigger, error) {
	_, body, err := c.do(ctx, http.MethodGet, "/triggers", nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Triggers []Trigger `json:"triggers"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("formmailer: failed to parse triggers: %w", err)
	}
	return resp.Triggers, nil
}

// do sends a JSON request to the formmailer API.
func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (int, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("formmailer: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return 0, nil, fmt.Errorf("formmailer: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("formmailer: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("formmailer: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, nil, parseAPIError(resp.StatusCode, body)
	}
	return resp.StatusCode, body, nil
}
