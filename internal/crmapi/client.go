// Package crmapi talks to the Hungry Times analytics/CRM backend.
package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultBaseURL = "http://localhost:3000"

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// New builds a backend client. A nil httpClient gets a 30s-timeout
// default; an empty baseURL falls back to the local backend.
func New(httpClient *http.Client, baseURL, apiKey string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL = strings.TrimSpace(strings.TrimRight(baseURL, "/"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// RequestError is the uniform failure value for backend calls. The
// backend reports failures both as non-2xx statuses and as an "error"
// field on 2xx bodies; both end up here.
type RequestError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
	Body       string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s %s: %s", e.Method, e.Endpoint, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("backend %s %s: http %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s: request failed", e.Method, e.Endpoint)
}

// call issues one request and decodes the response into out (which may
// be nil when the caller only cares about success). Exactly one
// attempt: failures surface to the operator instead of retrying.
func (c *Client) call(ctx context.Context, method, endpoint string, body, out any) error {
	start := time.Now()
	reqID := uuid.NewString()

	var rd io.Reader
	if body != nil && method != http.MethodGet {
		b, err := json.Marshal(body)
		if err != nil {
			return &RequestError{Method: method, Endpoint: endpoint, Message: err.Error()}
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, rd)
	if err != nil {
		return &RequestError{Method: method, Endpoint: endpoint, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
	req.Header.Set("X-Request-Id", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("backend_request_error",
			"method", method,
			"endpoint", endpoint,
			"request_id", reqID,
			"error", err,
		)
		return &RequestError{Method: method, Endpoint: endpoint, Message: "unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	slog.Info("backend_request",
		"method", method,
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start),
	)

	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(raw, &apiErr)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RequestError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    apiErr.Error,
			Body:       string(raw),
		}
	}
	if apiErr.Error != "" {
		return &RequestError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    apiErr.Error,
			Body:       string(raw),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &RequestError{
				Method:     method,
				Endpoint:   endpoint,
				StatusCode: resp.StatusCode,
				Message:    "bad response: " + err.Error(),
				Body:       string(raw),
			}
		}
	}
	return nil
}
