// Package marketapi provides the HTTP client for the cards marketplace REST API
// and the request/response mappers built on it.
package marketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Strob0t/cardsmarket/internal/auth"
	"github.com/Strob0t/cardsmarket/internal/logger"
	"github.com/Strob0t/cardsmarket/internal/resilience"
)

// DefaultBaseURL is the public marketplace API.
const DefaultBaseURL = "https://cards-marketplace-api-2fjj.onrender.com"

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// RequestObserver is told about every completed request.
type RequestObserver interface {
	Request(method, path string, status int, took time.Duration)
}

// Client talks to the marketplace API. It attaches the bearer token from its
// TokenStore to every request and clears the store when the API answers 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenStore
	breaker    *resilience.Breaker
	pool       *resilience.Pool
	observer   RequestObserver

	mu             sync.RWMutex
	onUnauthorized func()
}

// NewClient creates a client for baseURL. A zero timeout uses DefaultTimeout
// and an empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, tokens auth.TokenStore) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tokens == nil {
		tokens = auth.NewMemoryTokenStore()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
// Only transport failures and 5xx responses count against it.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	b.SetFailurePredicate(func(err error) bool {
		if apiErr, ok := AsAPIError(err); ok {
			return apiErr.Retryable()
		}
		return true
	})
	c.breaker = b
}

// SetMaxConcurrent caps the number of requests in flight at once.
// n <= 0 removes the cap.
func (c *Client) SetMaxConcurrent(n int) {
	if n <= 0 {
		c.pool = nil
		return
	}
	c.pool = resilience.NewPool(n)
}

// SetObserver attaches a request observer, e.g. for metrics.
func (c *Client) SetObserver(o RequestObserver) {
	c.observer = o
}

// OnUnauthorized registers fn to run after a 401 response cleared the session.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the session store used for bearer tokens.
func (c *Client) Tokens() auth.TokenStore { return c.tokens }

// Get sends a GET with optional query parameters and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Patch sends body as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out)
}

// Delete sends a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
	}

	var data []byte
	call := func() error {
		var err error
		data, err = c.send(ctx, method, path, query, payload)
		return err
	}

	// A canceled wait for a pool slot never reaches the breaker.
	err := c.pool.Run(ctx, func() error {
		if c.breaker != nil {
			return c.breaker.Execute(call)
		}
		return call()
	})
	if err != nil {
		return err
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	ctx, reqID := logger.EnsureRequestID(ctx)

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.tokens.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("api request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		c.observe(method, path, 0, time.Since(start))
		return nil, normalizeTransport(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, normalizeTransport(fmt.Errorf("read response: %w", err))
	}
	took := time.Since(start)
	c.observe(method, path, resp.StatusCode, took)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := normalizeResponse(resp.StatusCode, data)
		slog.Debug("api request rejected",
			"method", method,
			"path", path,
			"status", apiErr.StatusCode,
			"code", apiErr.Code,
			"message", apiErr.Message,
			"request_id", reqID,
		)
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized()
		}
		return nil, apiErr
	}

	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "took", took, "request_id", reqID)
	return data, nil
}

func (c *Client) handleUnauthorized() {
	c.tokens.Clear()
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) observe(method, path string, status int, took time.Duration) {
	if c.observer != nil {
		c.observer.Request(method, path, status, took)
	}
}
