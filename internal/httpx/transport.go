// Package httpx provides the HTTP transport for the SomaPlan SDK.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/somaplan/somaplan-sdk-go/internal/version"
)

// Transport wraps an http.Client with retry, circuit breaker, and bearer
// auth handling for the SomaPlan REST API.
type Transport struct {
	client           *http.Client
	baseURL          string
	userAgent        string
	headers          map[string]string
	retry            *RetryPolicy
	circuitBreaker   *CircuitBreaker
	logger           Logger
	autoRefreshToken bool

	// mu guards the token state: the session manager pushes tokens from
	// whichever goroutine completes a login, sign-out or reconcile while
	// other requests are in flight.
	mu             sync.RWMutex
	accessToken    string
	tokenRefresher *TokenRefresher
}

// Logger is an interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// Config holds configuration for the transport.
type Config struct {
	BaseURL          string
	AccessToken      string
	RefreshToken     string
	UserAgent        string
	Headers          map[string]string
	Timeout          time.Duration
	Retry            RetryConfig
	CircuitBreaker   CircuitBreakerConfig
	Logger           Logger
	AutoRefreshToken bool
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Factor     float64
	Jitter     bool
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   10 * time.Second,
		Factor:     2.0,
		Jitter:     true,
	}
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// NewTransport creates a new Transport with the given configuration.
func NewTransport(cfg Config) *Transport {
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	t := &Transport{
		client:           &http.Client{Timeout: cfg.Timeout},
		baseURL:          strings.TrimSuffix(cfg.BaseURL, "/"),
		accessToken:      cfg.AccessToken,
		userAgent:        cfg.UserAgent,
		headers:          cfg.Headers,
		logger:           cfg.Logger,
		autoRefreshToken: cfg.AutoRefreshToken,
	}

	// BaseDelay/MaxDelay/Factor all zero means no retry config was
	// provided; MaxRetries=0 alone is a valid "no retries" config.
	retryConfig := cfg.Retry
	if retryConfig.BaseDelay == 0 && retryConfig.MaxDelay == 0 && retryConfig.Factor == 0 {
		retryConfig = DefaultRetryConfig()
	}
	t.retry = NewRetryPolicy(retryConfig)

	if cfg.CircuitBreaker.Enabled {
		t.circuitBreaker = NewCircuitBreaker(cfg.CircuitBreaker)
	}

	if cfg.AutoRefreshToken && cfg.RefreshToken != "" {
		t.tokenRefresher = NewTokenRefresher(cfg.BaseURL, cfg.RefreshToken, cfg.AccessToken, cfg.Logger)
	}

	return t
}

// SetAccessToken updates the bearer token used on subsequent requests.
func (t *Transport) SetAccessToken(token string) {
	t.mu.Lock()
	t.accessToken = token
	refresher := t.tokenRefresher
	t.mu.Unlock()
	if refresher != nil {
		refresher.SetAccessToken(token, 0)
	}
}

// SetRefreshToken updates the refresh token.
func (t *Transport) SetRefreshToken(token string) {
	t.mu.Lock()
	if t.tokenRefresher == nil {
		if token != "" && t.autoRefreshToken {
			t.tokenRefresher = NewTokenRefresher(t.baseURL, token, t.accessToken, t.logger)
		}
		t.mu.Unlock()
		return
	}
	refresher := t.tokenRefresher
	t.mu.Unlock()
	refresher.SetRefreshToken(token)
}

// AccessToken returns the bearer token currently in use.
func (t *Transport) AccessToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.accessToken
}

func (t *Transport) refresher() *TokenRefresher {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.tokenRefresher
}

// Request represents an HTTP request to be made.
type Request struct {
	Method  string
	Path    string
	Body    any
	Query   map[string]string
	Headers map[string]string
	// NoAuth suppresses the Authorization header (login, token refresh).
	NoAuth bool
	// Idempotent marks a POST as safe to retry.
	Idempotent bool
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
	RequestID  string
}

// Do executes an HTTP request with retry and circuit breaker logic.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	if t.circuitBreaker != nil && !t.circuitBreaker.Allow() {
		return nil, NewCircuitBreakerOpenError()
	}

	var lastErr error
	maxAttempts := t.retry.MaxRetries + 1
	tokenRefreshAttempted := false

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := t.retry.Delay(attempt - 1)
			t.log("retrying request", "attempt", attempt, "delay", delay, "path", req.Path)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := t.doOnce(ctx, req)
		if err == nil {
			if t.circuitBreaker != nil {
				t.circuitBreaker.RecordSuccess()
			}
			return resp, nil
		}

		lastErr = err

		// A 401 gets one refresh-and-retry before being surfaced; the
		// immediate retry does not consume a retry attempt.
		if refresher := t.refresher(); IsAuthenticationError(err) && refresher != nil && t.autoRefreshToken && !tokenRefreshAttempted && !req.NoAuth {
			tokenRefreshAttempted = true
			t.log("received 401, attempting token refresh")
			if refreshErr := refresher.ForceRefresh(ctx); refreshErr == nil {
				if token := refresher.GetAccessToken(); token != "" {
					t.mu.Lock()
					t.accessToken = token
					t.mu.Unlock()
					attempt--
					continue
				}
			} else {
				t.log("token refresh failed", "error", refreshErr)
			}
		}

		if t.circuitBreaker != nil {
			t.circuitBreaker.RecordFailure()
		}

		if !t.shouldRetry(req, err, attempt) {
			break
		}
	}

	return nil, lastErr
}

// doOnce executes a single HTTP request.
func (t *Transport) doOnce(ctx context.Context, req *Request) (*Response, error) {
	fullURL := t.baseURL + req.Path
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			q.Set(k, v)
		}
		if encoded := q.Encode(); encoded != "" {
			fullURL += "?" + encoded
		}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", t.userAgent)
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	if token := t.AccessToken(); !req.NoAuth && token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	t.log("executing request", "method", req.Method, "url", fullURL)
	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, NewTimeoutError(t.client.Timeout, ctx.Err())
		}
		return nil, NewNetworkError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Headers:    httpResp.Header,
		RequestID:  httpResp.Header.Get("X-Request-ID"),
	}

	t.log("received response", "status", resp.StatusCode, "request_id", resp.RequestID)

	if httpResp.StatusCode >= 400 {
		return nil, ParseErrorFromResponse(httpResp.StatusCode, body, httpResp.Header)
	}

	return resp, nil
}

// shouldRetry determines if a request should be retried.
func (t *Transport) shouldRetry(req *Request, err error, attempt int) bool {
	if attempt >= t.retry.MaxRetries {
		return false
	}

	// Payments and other mutations must not be replayed blindly.
	if req.Method == http.MethodPost && !req.Idempotent {
		return false
	}
	if req.Method == http.MethodDelete {
		return false
	}

	return IsRetryable(err)
}

// log logs a debug message.
func (t *Transport) log(msg string, keysAndValues ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, keysAndValues...)
	}
}

// JSON decodes a response body into a target value.
func JSON[T any](resp *Response) (*T, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var result T
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// JSONArray decodes a response body into a slice.
func JSONArray[T any](resp *Response) ([]T, error) {
	if len(resp.Body) == 0 {
		return nil, nil
	}
	var result []T
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return result, nil
}
