package ibm

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

const (
	DefaultAuthURL = "https://auth.quantum-computing.ibm.com/api/users/loginWithToken"
	DefaultBaseURL = "https://api.quantum-computing.ibm.com/runtime"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ibm api: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Client is a minimal IBM Quantum runtime REST client.
// It holds no per-login state and may be shared; every call goes through a Session.
type Client struct {
	httpClient *http.Client
	authURL    string
	baseURL    string
}

// Session is an authenticated view of a Client, bound to one access token.
type Session struct {
	client      *Client
	accessToken string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAuthURL overrides the token exchange endpoint.
func WithAuthURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.authURL = u
		}
	}
}

// WithBaseURL overrides the runtime API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewClient creates a client pointed at the public IBM Quantum endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		authURL:    DefaultAuthURL,
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges an API token for an access token and returns the session using it.
func (c *Client) Login(ctx context.Context, apiToken string) (*Session, error) {
	var resp loginResponse
	if err := c.send(ctx, http.MethodPost, c.authURL, "", loginRequest{APIToken: apiToken}, &resp); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("login failed: empty access token")
	}
	return &Session{client: c, accessToken: resp.ID}, nil
}

// Backends lists the device names visible to the account.
func (s *Session) Backends(ctx context.Context) ([]string, error) {
	var resp backendList
	if err := s.do(ctx, http.MethodGet, "/backends", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// BackendStatus returns the live status of a device.
func (s *Session) BackendStatus(ctx context.Context, name string) (*BackendStatus, error) {
	var resp BackendStatus
	if err := s.do(ctx, http.MethodGet, "/backends/"+url.PathEscape(name)+"/status", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Name == "" {
		resp.Name = name
	}
	return &resp, nil
}

// BackendConfiguration returns the static configuration of a device.
func (s *Session) BackendConfiguration(ctx context.Context, name string) (*BackendConfiguration, error) {
	var resp BackendConfiguration
	if err := s.do(ctx, http.MethodGet, "/backends/"+url.PathEscape(name)+"/configuration", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitJob creates a job and returns its ID.
func (s *Session) SubmitJob(ctx context.Context, req JobRequest) (string, error) {
	var resp jobCreated
	if err := s.do(ctx, http.MethodPost, "/jobs", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("submit job: empty job id")
	}
	return resp.ID, nil
}

// Job returns the current status of a job.
func (s *Session) Job(ctx context.Context, id string) (*Job, error) {
	var resp Job
	if err := s.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// JobResults returns the sampler output of a completed job.
func (s *Session) JobResults(ctx context.Context, id string) (*SamplerResult, error) {
	var resp SamplerResult
	if err := s.do(ctx, http.MethodGet, "/jobs/"+url.PathEscape(id)+"/results", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) do(ctx context.Context, method, path string, body, out any) error {
	return s.client.send(ctx, method, s.client.baseURL+path, s.accessToken, body, out)
}

func (c *Client) send(ctx context.Context, method, target, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       req.URL.Path,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
