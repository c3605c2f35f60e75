package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mcoot/lightsduel/internal/api/apierr"
	"github.com/mcoot/lightsduel/internal/client"
)

// HTTPError is a non-2xx admin API reply
type HTTPError struct {
	Status  int
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// AdminClient calls the admin HTTP API
type AdminClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAdminClient creates a client for the API rooted at baseURL
func NewAdminClient(baseURL, token string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Get decodes the JSON reply of GET path into result
func (c *AdminClient) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post sends body as JSON and decodes the reply into result
func (c *AdminClient) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *AdminClient) do(ctx context.Context, method, path string, body, result any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s reply: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return decodeHTTPError(resp.StatusCode, raw)
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("decode %s reply: %w", path, err)
	}
	return nil
}

func (c *AdminClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// decodeHTTPError reads the API's error envelope, falling back to the raw body
func decodeHTTPError(status int, raw []byte) error {
	var envelope apierr.Envelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return &HTTPError{Status: status, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &HTTPError{Status: status, Message: strings.TrimSpace(string(raw))}
}

// dial opens a game connection to the configured server
func dial(ctx context.Context) (*client.Client, error) {
	return client.Dial(ctx, cfg.ServerAddr, cfg.Timeout)
}
