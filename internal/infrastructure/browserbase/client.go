package browserbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"browsegpt/internal/application/port/output"
	"browsegpt/internal/domain/entity"
)

var _ output.SessionProviderPort = (*Client)(nil)

const (
	providerName   = "session provider"
	apiKeyHeader   = "x-bb-api-key"
	maxErrorBody   = 512
	defaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey    string
	ProjectID string
	BaseURL   string
	Timeout   time.Duration
	Logger    output.LoggerPort
}

func DefaultConfig(apiKey, projectID string) Config {
	return Config{
		APIKey:    apiKey,
		ProjectID: projectID,
		BaseURL:   "https://www.browserbase.com",
		Timeout:   defaultTimeout,
	}
}

// Client talks to the session-management API. It keeps no state between
// calls and makes exactly one request per call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	projectID  string
	logger     output.LoggerPort
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		projectID:  cfg.ProjectID,
		logger:     cfg.Logger,
	}
}

type createSessionRequest struct {
	ProjectID string `json:"projectId"`
	KeepAlive bool   `json:"keepAlive"`
}

// CreateSession provisions a session that outlives the CDP connections made
// by individual tool calls.
func (c *Client) CreateSession(ctx context.Context) (*entity.BrowserSession, error) {
	body, err := json.Marshal(createSessionRequest{ProjectID: c.projectID, KeepAlive: true})
	if err != nil {
		return nil, fmt.Errorf("encode session request: %w", err)
	}

	var session entity.BrowserSession
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, &entity.ProviderError{Provider: providerName, Err: errors.New("response has no session id")}
	}

	c.logDebug("Session created", "sessionId", session.ID)
	return &session, nil
}

func (c *Client) GetDebugInfo(ctx context.Context, sessionID string) (*entity.SessionDebugInfo, error) {
	var info entity.SessionDebugInfo
	path := "/v1/sessions/" + url.PathEscape(sessionID) + "/debug"
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logDebug("Session provider request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &entity.ProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &entity.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &entity.ProviderError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Err:        errors.New(snippet(data)),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return &entity.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Err: fmt.Errorf("malformed body: %w", err)}
	}
	return nil
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "empty response body"
	}
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
