package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/touchpointhq/journeysync/internal/retry"
)

// APIError is a permanent remote failure: any non-2xx response that is not a
// rate-limit signal. It is never retried.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("remote api: %d %s", e.StatusCode, e.Message)
}

// Client is an HTTP implementation of API against the workflow engine's REST
// surface. A 429 response is translated into retry.RateLimitError, carrying
// the Retry-After header when the server supplies one.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client (used by tests).
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpc = c }
}

// NewClient creates a Client for the given base URL and bearer token.
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchEntity returns the entity under remoteID, or (nil, nil) on 404.
func (c *Client) FetchEntity(ctx context.Context, remoteID string) (*Entity, error) {
	resp, err := c.do(ctx, http.MethodGet, "/workflows/"+remoteID, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var entity Entity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, fmt.Errorf("decode entity %s: %w", remoteID, err)
	}
	return &entity, nil
}

// CreateEntity creates a workflow and returns the id the engine assigned.
func (c *Client) CreateEntity(ctx context.Context, payload Payload) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/workflows", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode create response: %w", err)
	}
	if created.ID == "" {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "create response missing id"}
	}
	return created.ID, nil
}

// UpdateEntity replaces the workflow under remoteID.
func (c *Client) UpdateEntity(ctx context.Context, remoteID string, payload Payload) error {
	resp, err := c.do(ctx, http.MethodPut, "/workflows/"+remoteID, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// DeleteEntity removes the workflow under remoteID.
func (c *Client) DeleteEntity(ctx context.Context, remoteID string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/workflows/"+remoteID, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// Already gone; rollback treats this as done.
		return nil
	}
	return checkStatus(resp)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// checkStatus maps a non-2xx response onto the error taxonomy: 429 becomes a
// rate-limit signal (transient, retried), everything else an APIError
// (permanent, never retried).
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	msg := readErrorMessage(resp.Body)
	if resp.StatusCode == http.StatusTooManyRequests {
		return &retry.RateLimitError{
			Message:    msg,
			RetryAfter: retryAfter(resp.Header),
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "request failed"
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(raw)
}

// retryAfter parses the Retry-After header as delay seconds. Zero when the
// header is absent or malformed.
func retryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
