// Package apiclient is the orchestrator's HTTP client for the SocialPulse
// API server. All calls carry a bearer token obtained lazily from the token
// endpoint and are scoped to one client (tenant).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"socialpulse/internal/config"
	"socialpulse/pkg/models"
)

// Sentinel errors for API client failures.
var (
	ErrAPIUnreachable = errors.New("api unreachable")
	ErrAPIError       = errors.New("api error")
	ErrAPITimeout     = errors.New("api timeout")
	ErrUnauthorized   = errors.New("api unauthorized")
)

// Client is the interface the orchestrator uses to talk to the API server.
type Client interface {
	GetClient(ctx context.Context, clientID string) (*models.Client, error)
	FetchDataset(ctx context.Context, clientID string, since *time.Time) (*models.IngestedDataset, error)
	PutInsight(ctx context.Context, clientID, module string, result *models.AnalysisResult) error
	GetInsight(ctx context.Context, clientID, module string) (*models.AnalysisResult, error)
	PatchLastAnalyzed(ctx context.Context, clientID string, at time.Time) error
	TriggerTaskGeneration(ctx context.Context, clientID string) error
}

// HTTPClient implements Client against the server's /api/v1 surface.
type HTTPClient struct {
	baseURL  string
	username string
	password string
	client   *http.Client
	trigger  *http.Client

	mu    sync.Mutex
	token string
}

// NewHTTPClient creates an API client. cfg.Timeout applies to every call
// except TriggerTaskGeneration, which uses cfg.TriggerTimeout.
func NewHTTPClient(cfg config.APIClientConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:  cfg.BaseURL,
		username: cfg.Username,
		password: cfg.Password,
		client:   &http.Client{Timeout: cfg.Timeout},
		trigger:  &http.Client{Timeout: cfg.TriggerTimeout},
	}
}

func (c *HTTPClient) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	var out struct {
		Data models.Client `json:"data"`
	}
	if err := c.do(ctx, c.client, http.MethodGet, "/api/v1/clients/"+url.PathEscape(clientID), nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) FetchDataset(ctx context.Context, clientID string, since *time.Time) (*models.IngestedDataset, error) {
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/dataset"
	if since != nil {
		path += "?since=" + url.QueryEscape(since.UTC().Format(time.RFC3339))
	}
	var out struct {
		Data models.IngestedDataset `json:"data"`
	}
	if err := c.do(ctx, c.client, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *HTTPClient) PutInsight(ctx context.Context, clientID, module string, result *models.AnalysisResult) error {
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/insights/" + url.PathEscape(module)
	return c.do(ctx, c.client, http.MethodPut, path, result, nil)
}

func (c *HTTPClient) GetInsight(ctx context.Context, clientID, module string) (*models.AnalysisResult, error) {
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/insights/" + url.PathEscape(module)
	var out struct {
		Data models.Insight `json:"data"`
	}
	if err := c.do(ctx, c.client, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &models.AnalysisResult{
		Metadata: models.ResultMetadata{Module: out.Data.Module, Version: out.Data.Version},
		Results:  out.Data.Payload,
		Errors:   out.Data.Errors,
	}, nil
}

func (c *HTTPClient) PatchLastAnalyzed(ctx context.Context, clientID string, at time.Time) error {
	body := map[string]string{"last_analyzed_at": at.UTC().Format(time.RFC3339)}
	return c.do(ctx, c.client, http.MethodPatch, "/api/v1/clients/"+url.PathEscape(clientID), body, nil)
}

func (c *HTTPClient) TriggerTaskGeneration(ctx context.Context, clientID string) error {
	path := "/api/v1/clients/" + url.PathEscape(clientID) + "/tasks/generate-from-q9"
	return c.do(ctx, c.trigger, http.MethodPost, path, nil, nil)
}

// do issues one authenticated request, retrying exactly once after a token
// refresh when the server answers 401 (expired token).
func (c *HTTPClient) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if body != nil {
			if err := json.NewEncoder(&buf).Encode(body); err != nil {
				return fmt.Errorf("encoding request body: %w", err)
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := hc.Do(req)
		if err != nil {
			return classifyError(err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			c.invalidateToken()
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return fmt.Errorf("%w: %s %s status %d", ErrAPIError, method, path, resp.StatusCode)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				resp.Body.Close()
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		resp.Body.Close()
		return nil
	}
	return fmt.Errorf("%w: token rejected after refresh", ErrUnauthorized)
}

// ensureToken returns the cached bearer token, fetching one if absent.
func (c *HTTPClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	creds := map[string]string{"username": c.username, "password": c.password}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(creds); err != nil {
		return "", fmt.Errorf("encoding credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/token", &buf)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint status %d", ErrAPIError, resp.StatusCode)
	}

	var out struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if out.Data.Token == "" {
		return "", fmt.Errorf("%w: empty token", ErrAPIError)
	}
	c.token = out.Data.Token
	return c.token, nil
}

func (c *HTTPClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrAPITimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrAPITimeout, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrAPIUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
