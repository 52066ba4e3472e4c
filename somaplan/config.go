// Package somaplan provides the official Go SDK for SomaPlan.
package somaplan

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/somaplan/somaplan-sdk-go/internal/version"
	"github.com/somaplan/somaplan-sdk-go/somaplan/credstore"
)

// Default configuration values
const (
	DefaultBaseURL = "https://api.somaplan.co.ke"
	DefaultWSURL   = "wss://api.somaplan.co.ke/ws/events/"
	DefaultTimeout = 10 * time.Second
)

// EnvBaseURL is the environment variable consulted for the base URL when
// WithBaseURL is not given.
const EnvBaseURL = "SOMAPLAN_BASE_URL"

// RetryConfig configures retry behavior for failed requests.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int
	// BaseDelay is the initial delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration
	// Factor is the exponential backoff multiplier.
	Factor float64
	// Jitter enables randomized jitter on retry delays.
	Jitter bool
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Factor:     2.0,
		Jitter:     true,
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled determines if circuit breaker is active.
	Enabled bool
	// FailureThreshold is the number of failures before opening the circuit.
	FailureThreshold int
	// SuccessThreshold is the number of successes needed to close the circuit.
	SuccessThreshold int
	// Timeout is the duration the circuit stays open before allowing a test request.
	Timeout time.Duration
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

// Logger is the interface for debug logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

// LoggerFunc is a function adapter for Logger.
type LoggerFunc func(msg string, keysAndValues ...any)

// Debug implements Logger.
func (f LoggerFunc) Debug(msg string, keysAndValues ...any) {
	f(msg, keysAndValues...)
}

// Config holds the SDK configuration.
type Config struct {
	// AccessToken is a JWT access token from a previous sign-in.
	AccessToken string
	// RefreshToken is a JWT refresh token for automatic token renewal.
	RefreshToken string

	// BaseURL is the base URL for the REST API.
	BaseURL string
	// WSURL is the WebSocket URL for realtime events.
	WSURL string

	// Timeout is the request timeout.
	Timeout time.Duration
	// Retry is the retry configuration.
	Retry RetryConfig
	// CircuitBreaker is the circuit breaker configuration.
	CircuitBreaker CircuitBreakerConfig

	// Headers are additional headers to include in all requests.
	Headers map[string]string
	// UserAgent is the custom user agent string.
	UserAgent string
	// Logger is the debug logger.
	Logger Logger
	// AutoRefreshToken enables automatic token refresh.
	AutoRefreshToken bool

	// CredentialStore persists tokens between runs. nil selects the
	// default file store under the user config directory.
	CredentialStore credstore.Store
	// DisableCredentialStore turns persistence off entirely; the session
	// lives only as long as the process.
	DisableCredentialStore bool
}

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithAccessToken sets the JWT access token.
func WithAccessToken(token string) Option {
	return func(c *Config) {
		c.AccessToken = token
	}
}

// WithRefreshToken sets the JWT refresh token.
func WithRefreshToken(token string) Option {
	return func(c *Config) {
		c.RefreshToken = token
	}
}

// WithBaseURL sets the base URL for the REST API.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = strings.TrimSuffix(url, "/")
	}
}

// WithWSURL sets the WebSocket URL.
func WithWSURL(url string) Option {
	return func(c *Config) {
		c.WSURL = url
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithRetry sets the retry configuration.
func WithRetry(cfg RetryConfig) Option {
	return func(c *Config) {
		c.Retry = cfg
	}
}

// WithCircuitBreaker sets the circuit breaker configuration.
func WithCircuitBreaker(cfg CircuitBreakerConfig) Option {
	return func(c *Config) {
		c.CircuitBreaker = cfg
	}
}

// WithHeaders sets additional headers for all requests.
func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range headers {
			c.Headers[k] = v
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithLogger sets the debug logger.
func WithLogger(l Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithDebug enables debug logging to stdout.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		if enabled {
			c.Logger = LoggerFunc(func(msg string, keysAndValues ...any) {
				// Simple debug output with key-value pairs
				parts := []any{"[somaplan-sdk]", msg}
				for i := 0; i < len(keysAndValues); i += 2 {
					if i+1 < len(keysAndValues) {
						parts = append(parts, fmt.Sprintf("%v=%v", keysAndValues[i], keysAndValues[i+1]))
					}
				}
				fmt.Println(parts...)
			})
		}
	}
}

// WithAutoRefreshToken enables or disables automatic token refresh.
func WithAutoRefreshToken(enabled bool) Option {
	return func(c *Config) {
		c.AutoRefreshToken = enabled
	}
}

// WithCredentialStore sets the store used to persist session credentials.
func WithCredentialStore(store credstore.Store) Option {
	return func(c *Config) {
		c.CredentialStore = store
	}
}

// WithoutCredentialStore disables credential persistence.
func WithoutCredentialStore() Option {
	return func(c *Config) {
		c.DisableCredentialStore = true
	}
}

// newDefaultConfig creates a new config with default values.
func newDefaultConfig() *Config {
	baseURL := DefaultBaseURL
	if env := os.Getenv(EnvBaseURL); env != "" {
		baseURL = strings.TrimSuffix(env, "/")
	}
	return &Config{
		BaseURL:          baseURL,
		Timeout:          DefaultTimeout,
		Retry:            DefaultRetryConfig(),
		CircuitBreaker:   DefaultCircuitBreakerConfig(),
		Headers:          make(map[string]string),
		UserAgent:        version.UserAgent(),
		AutoRefreshToken: true,
	}
}

// resolveConfig applies options and resolves derived values.
func resolveConfig(opts ...Option) *Config {
	cfg := newDefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	// Derive WS URL from base URL if not explicitly set
	if cfg.WSURL == "" {
		if cfg.BaseURL == DefaultBaseURL {
			cfg.WSURL = DefaultWSURL
		} else {
			cfg.WSURL = deriveWSURL(cfg.BaseURL)
		}
	}

	return cfg
}

// deriveWSURL converts an HTTP URL to the matching WebSocket events URL.
func deriveWSURL(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if strings.HasPrefix(base, "https://") {
		return "wss://" + strings.TrimPrefix(base, "https://") + "/ws/events/"
	}
	if strings.HasPrefix(base, "http://") {
		return "ws://" + strings.TrimPrefix(base, "http://") + "/ws/events/"
	}
	return base
}
