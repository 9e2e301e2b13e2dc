// Package client talks to a running `clawpanel serve` instance.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client provides HTTP access to the panel API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
	Token   string       // bearer token when the server requires one
	Logger  *slog.Logger // Optional logger for client operations
}

const (
	defaultBaseURL = "http://127.0.0.1:18790/api"
	// lifecycle calls may wait out the full start budget on the server
	defaultTimeout = 60 * time.Second
)

// DefaultConfig returns default client configuration
func DefaultConfig() Config {
	return Config{BaseURL: defaultBaseURL, Timeout: defaultTimeout}
}

func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: config.BaseURL,
		token:   config.Token,
		logger:  config.Logger,
		client:  &http.Client{Timeout: config.Timeout},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string { return e.Message }

// IsReachable checks if the server is running and reachable
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		c.logger.Debug("Failed to create request for reachability check", "error", err)
		return false
	}
	c.authorize(req)
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("Server unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, "/status", nil, &st)
	return st, err
}

func (c *Client) StatusDetails(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, "/status/details", nil, &st)
	return st, err
}

// Start returns the server's message, e.g. "Service started, PID: 4242".
func (c *Client) Start(ctx context.Context) (string, error) { return c.message(ctx, "/start") }

func (c *Client) Stop(ctx context.Context) (string, error) { return c.message(ctx, "/stop") }

func (c *Client) Restart(ctx context.Context) (string, error) { return c.message(ctx, "/restart") }

func (c *Client) KillAll(ctx context.Context) (string, KillReport, error) {
	var resp killResponse
	err := c.do(ctx, http.MethodPost, "/kill-all", nil, &resp)
	return resp.Message, resp.Report, err
}

func (c *Client) Logs(ctx context.Context, lines int) ([]string, error) {
	var resp logsResponse
	err := c.do(ctx, http.MethodGet, "/logs?lines="+strconv.Itoa(lines), nil, &resp)
	return resp.Lines, err
}

func (c *Client) Skills(ctx context.Context) ([]Skill, error) {
	var out []Skill
	err := c.do(ctx, http.MethodGet, "/skills", nil, &out)
	return out, err
}

// InstallSkill returns the installer output.
func (c *Client) InstallSkill(ctx context.Context, name string) (string, error) {
	var resp installResponse
	err := c.do(ctx, http.MethodPost, "/skills/install", installRequest{Name: name}, &resp)
	return resp.Output, err
}

func (c *Client) UninstallSkill(ctx context.Context, id string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodDelete, "/skills/"+url.PathEscape(id), nil, &resp)
	return resp.Message, err
}

// OpenClawOverview returns the raw overview document.
func (c *Client) OpenClawOverview(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/openclaw/overview", nil, &out)
	return out, err
}

// SystemInfo returns host, openclaw and node details of the panel's machine.
func (c *Client) SystemInfo(ctx context.Context) (SystemInfo, error) {
	var out SystemInfo
	err := c.do(ctx, http.MethodGet, "/system", nil, &out)
	return out, err
}

func (c *Client) History(ctx context.Context, limit int) ([]Event, error) {
	var out []Event
	err := c.do(ctx, http.MethodGet, "/history?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) message(ctx context.Context, path string) (string, error) {
	var resp messageResponse
	err := c.do(ctx, http.MethodPost, path, nil, &resp)
	return resp.Message, err
}

// do performs an HTTP request with common error handling. body is
// marshaled as JSON when non-nil; out receives a decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	c.logger.Debug("API request", "method", method, "path", path)
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "path", path)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errorResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil || errorResp.Error == "" {
		c.logger.Error("Failed to decode error response", "status", resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	c.logger.Debug("API request failed", "error", errorResp.Error, "status", resp.StatusCode)
	return &APIError{StatusCode: resp.StatusCode, Message: errorResp.Error}
}
