// Package apiclient is a thin JSON wrapper around the external assistant API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"assistant-client/internal/model"
	"assistant-client/internal/utils"
)

const (
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	PathSession      = "/conversation/session"
	PathQuery        = "/query"
	PathAgentsStatus = "/agents/status"
	PathHealth       = "/health"
)

var (
	ErrEmptySessionID    = errors.New("session response carried no session_id")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-2xx answer from the assistant API. Message is meant for
// logs, never for end users.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("assistant api: status %d: %s", e.Status, e.Message)
}

// Observer is notified once per request; the metrics package implements it.
type Observer interface {
	ObserveRequest(endpoint string, status int, elapsed time.Duration, err error)
}

type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	observer Observer
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New builds a client for baseURL. A non-positive timeout falls back to
// DefaultTimeout; requests are never left unbounded.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = utils.NewHTTPClient(timeout)
	}
	return c
}

// BaseURL is the API root every path is joined to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CreateSession(ctx context.Context, req model.SessionCreateRequest) (string, error) {
	var out model.SessionResponse
	if err := c.do(ctx, http.MethodPost, PathSession, req, &out); err != nil {
		return "", err
	}
	if out.SessionID == "" {
		return "", ErrEmptySessionID
	}
	return out.SessionID, nil
}

// Query rejects a 2xx body that carries no answer field, null included.
func (c *Client) Query(ctx context.Context, req model.QueryRequest) (*model.QueryResponse, error) {
	var out struct {
		model.QueryResponse
		Answer *string `json:"answer"`
	}
	if err := c.do(ctx, http.MethodPost, PathQuery, req, &out); err != nil {
		return nil, err
	}
	if out.Answer == nil {
		return nil, fmt.Errorf("%w: %s response has no answer", ErrMalformedResponse, PathQuery)
	}

	resp := out.QueryResponse
	resp.Answer = *out.Answer
	return &resp, nil
}

// AgentsStatus returns the raw subsystem → state mapping.
func (c *Client) AgentsStatus(ctx context.Context) (map[string]string, error) {
	out := map[string]string{}
	if err := c.do(ctx, http.MethodGet, PathAgentsStatus, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health only requires a 2xx; the body is decoded when it parses.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, PathHealth, nil, &raw); err != nil {
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return nil, err
		}
	}
	out := &model.HealthResponse{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, out)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	status := 0
	defer func() {
		if c.observer != nil {
			c.observer.ObserveRequest(path, status, time.Since(start), err)
		}
	}()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", path, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body model.ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		switch {
		case body.Message != "":
			apiErr.Message = body.Message
		case body.Detail != "":
			apiErr.Message = body.Detail
		case body.Error != "":
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
