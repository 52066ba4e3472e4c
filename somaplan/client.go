package somaplan

import (
	"sync"

	"github.com/somaplan/somaplan-sdk-go/internal/httpx"
	"github.com/somaplan/somaplan-sdk-go/somaplan/credstore"
	"github.com/somaplan/somaplan-sdk-go/somaplan/realtime"
	"github.com/somaplan/somaplan-sdk-go/somaplan/resources"
	"github.com/somaplan/somaplan-sdk-go/somaplan/selection"
	"github.com/somaplan/somaplan-sdk-go/somaplan/session"
)

// Session is the derived session state served by Session().
type Session = session.Session

// Client is the main SomaPlan SDK client.
//
// A Client works without any credentials: the course catalogue,
// universities and KMTC listings are public. Sign in through Session()
// to unlock the profile, selections and payment endpoints.
type Client struct {
	cfg       *Config
	transport *httpx.Transport
	store     credstore.Store
	mu        sync.RWMutex
	closed    bool

	// Resource accessors
	auth         *resources.AuthResource
	courses      *resources.CoursesResource
	universities *resources.UniversitiesResource
	kmtc         *resources.KMTCResource
	payments     *resources.PaymentsResource
	selections   *resources.SelectionsResource

	session  *session.Manager
	selected *selection.Store

	// Lazy-loaded clients
	realtimeClient *realtime.WebSocketClient
}

// NewClient creates a new SomaPlan client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	cfg := resolveConfig(opts...)

	// Create transport
	transport := httpx.NewTransport(httpx.Config{
		BaseURL:          cfg.BaseURL,
		AccessToken:      cfg.AccessToken,
		RefreshToken:     cfg.RefreshToken,
		UserAgent:        cfg.UserAgent,
		Headers:          cfg.Headers,
		Timeout:          cfg.Timeout,
		AutoRefreshToken: cfg.AutoRefreshToken,
		Retry: httpx.RetryConfig{
			MaxRetries: cfg.Retry.MaxRetries,
			BaseDelay:  cfg.Retry.BaseDelay,
			MaxDelay:   cfg.Retry.MaxDelay,
			Factor:     cfg.Retry.Factor,
			Jitter:     cfg.Retry.Jitter,
		},
		CircuitBreaker: httpx.CircuitBreakerConfig{
			Enabled:          cfg.CircuitBreaker.Enabled,
			FailureThreshold: cfg.CircuitBreaker.FailureThreshold,
			SuccessThreshold: cfg.CircuitBreaker.SuccessThreshold,
			Timeout:          cfg.CircuitBreaker.Timeout,
		},
		Logger: wrapLogger(cfg.Logger),
	})

	c := &Client{
		cfg:       cfg,
		transport: transport,
		store:     resolveStore(cfg),
	}

	// Initialize resources
	c.initResources()

	var explicit *credstore.Credentials
	if cfg.AccessToken != "" || cfg.RefreshToken != "" {
		explicit = &credstore.Credentials{
			AccessToken:  cfg.AccessToken,
			RefreshToken: cfg.RefreshToken,
		}
	}
	c.session = session.NewManager(session.Config{
		Auth:        c.auth,
		Payments:    c.payments,
		Tokens:      transport,
		Store:       c.store,
		Credentials: explicit,
		Logger:      wrapLogger(cfg.Logger),
	})
	c.selected = selection.NewStore(c.selections, resolveSelectionCache(cfg))

	// Selections are per-user; a sign-out must not leak the previous
	// user's shortlist into the next session.
	c.session.OnChange(func(s session.Session) {
		if !s.Authenticated {
			c.selected.Clear()
		}
	})

	return c, nil
}

// resolveStore picks the credential store for the configuration. When the
// default file store cannot resolve a config directory the session simply
// does not persist.
func resolveStore(cfg *Config) credstore.Store {
	if cfg.DisableCredentialStore {
		return nil
	}
	if cfg.CredentialStore != nil {
		return cfg.CredentialStore
	}
	fs, err := credstore.NewFileStore("")
	if err != nil {
		return credstore.NewMemoryStore()
	}
	return fs
}

func resolveSelectionCache(cfg *Config) selection.Cache {
	if cfg.DisableCredentialStore {
		return nil
	}
	fc, err := selection.NewFileCache("")
	if err != nil {
		return nil
	}
	return fc
}

// wrapLogger wraps a somaplan.Logger to an httpx.Logger.
func wrapLogger(l Logger) httpx.Logger {
	if l == nil {
		return nil
	}
	return &loggerWrapper{l}
}

type loggerWrapper struct {
	Logger
}

func (w *loggerWrapper) Debug(msg string, keysAndValues ...any) {
	w.Logger.Debug(msg, keysAndValues...)
}

// initResources initializes all resource accessors.
func (c *Client) initResources() {
	c.auth = resources.NewAuthResource(c.transport)
	c.courses = resources.NewCoursesResource(c.transport)
	c.universities = resources.NewUniversitiesResource(c.transport)
	c.kmtc = resources.NewKMTCResource(c.transport)
	c.payments = resources.NewPaymentsResource(c.transport)
	c.selections = resources.NewSelectionsResource(c.transport)
}

// Close closes the client and releases any resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.realtimeClient != nil {
		return c.realtimeClient.Disconnect()
	}
	return nil
}

// GetConfig returns a copy of the client configuration.
func (c *Client) GetConfig() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.cfg
}

// Auth returns the Auth resource.
func (c *Client) Auth() *resources.AuthResource {
	return c.auth
}

// Courses returns the Courses resource.
func (c *Client) Courses() *resources.CoursesResource {
	return c.courses
}

// Universities returns the Universities resource.
func (c *Client) Universities() *resources.UniversitiesResource {
	return c.universities
}

// KMTC returns the KMTC resource.
func (c *Client) KMTC() *resources.KMTCResource {
	return c.kmtc
}

// Payments returns the Payments resource.
func (c *Client) Payments() *resources.PaymentsResource {
	return c.payments
}

// Selections returns the raw Selections resource. Most callers want
// SelectedCourses instead, which keeps a confirmed local mirror.
func (c *Client) Selections() *resources.SelectionsResource {
	return c.selections
}

// Session returns the session manager.
func (c *Client) Session() *session.Manager {
	return c.session
}

// SelectedCourses returns the selected-courses store.
func (c *Client) SelectedCourses() *selection.Store {
	return c.selected
}

// Realtime returns the realtime client for WebSocket event streaming.
//
// The client is created on first call with the session's current access
// token and is not connected yet; call Connect on it. Tokens issued by a
// later sign-in are pushed via SetToken before Connect.
func (c *Client) Realtime() *realtime.WebSocketClient {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.realtimeClient != nil {
		return c.realtimeClient
	}

	opts := realtime.DefaultConnectionOptions()
	opts.WSURL = c.cfg.WSURL
	opts.Token = c.transport.AccessToken()
	if c.cfg.Logger != nil {
		opts.Logger = func(msg string, args ...any) {
			c.cfg.Logger.Debug(msg, args...)
		}
	}

	c.realtimeClient = realtime.NewWebSocketClient(opts)
	c.session.OnChange(func(s session.Session) {
		token := ""
		if s.Authenticated {
			token = c.transport.AccessToken()
		}
		c.realtimeClient.SetToken(token)
	})
	return c.realtimeClient
}
