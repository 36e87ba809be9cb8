// Package client implements the HTTP client for the Lumi worker API.
//
// The client handles all communication with the worker process:
// - POST /api/agent - Natural-language file search / chat
// - POST /api/ask - Direct LLM prompt
// - POST /api/search - Raw search query
// - GET /api/health - Worker component health
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the worker endpoint the panel and relay are pinned to.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 10 * time.Second

// maxResponseSize limits response body reads to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// Client is the Lumi worker HTTP client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new worker client for the given base URL.
// An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// BaseURL returns the base URL this client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ResultItem is a single file or folder returned by a search-backed reply.
type ResultItem struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// AgentRequest is the request body for /api/agent.
type AgentRequest struct {
	UserQuery string `json:"user_query"`
}

// AgentResponse is the response from /api/agent.
type AgentResponse struct {
	Message    string       `json:"message"`
	ActionType string       `json:"action_type,omitempty"`
	Results    []ResultItem `json:"results,omitempty"`
}

// Agent sends a natural-language query to the worker's agent endpoint.
func (c *Client) Agent(ctx context.Context, req *AgentRequest) (*AgentResponse, error) {
	var resp AgentResponse
	if err := c.post(ctx, "/api/agent", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AskRequest is the request body for /api/ask.
type AskRequest struct {
	Prompt string `json:"prompt"`
}

// AskResponse is the response from /api/ask.
type AskResponse struct {
	Response string `json:"response"`
}

// Ask sends a raw prompt to the worker's LLM endpoint.
func (c *Client) Ask(ctx context.Context, req *AskRequest) (*AskResponse, error) {
	var resp AskResponse
	if err := c.post(ctx, "/api/ask", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchRequest is the request body for /api/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchResponse is the response from /api/search.
type SearchResponse struct {
	Results []ResultItem `json:"results"`
}

// Search runs a raw search query against the worker's file index.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/api/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthStatusDetail describes one worker component's health.
type HealthStatusDetail struct {
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// HealthStatus is the response from /api/health.
type HealthStatus struct {
	OllamaStatus     HealthStatusDetail `json:"ollama_status"`
	EverythingStatus HealthStatusDetail `json:"everything_status"`
}

// Health reports the health of the worker's LLM and search backends.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var resp HealthStatus
	if err := c.get(ctx, "/api/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Error represents a non-2xx HTTP response from the worker.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("worker error (status %d): %s", e.StatusCode, e.Body)
}

// post sends a POST request and decodes the JSON response.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return decodeResponse(resp, respBody)
}

// get sends a GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	return decodeResponse(resp, respBody)
}

// decodeResponse reads a capped response body and unmarshals it into respBody.
// Reads maxResponseSize+1 to detect oversized responses while still accepting
// responses exactly at the limit.
func decodeResponse(resp *http.Response, respBody any) error {
	respBodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if int64(len(respBodyBytes)) > maxResponseSize {
		return fmt.Errorf("response exceeds maximum size of %d bytes", maxResponseSize)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Body:       string(respBodyBytes),
		}
	}

	if respBody != nil {
		if err := json.Unmarshal(respBodyBytes, respBody); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
