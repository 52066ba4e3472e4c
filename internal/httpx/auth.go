package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// TokenRefresher exchanges a refresh token for a new access token against
// POST /auth/token/refresh/. Refreshes are single-flight: concurrent
// callers wait for the one in progress instead of stampeding the endpoint.
type TokenRefresher struct {
	mu         sync.Mutex
	refreshing bool
	done       chan struct{}

	baseURL      string
	refreshToken string
	accessToken  string
	expiresAt    time.Time

	client *http.Client
	logger Logger
}

// NewTokenRefresher creates a new token refresher.
func NewTokenRefresher(baseURL, refreshToken, accessToken string, logger Logger) *TokenRefresher {
	return &TokenRefresher{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		refreshToken: refreshToken,
		accessToken:  accessToken,
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
	}
}

// SetAccessToken updates the access token. When expiresIn is known the
// expiry is recorded with a one minute head start so proactive refreshes
// land before the token actually lapses.
func (tr *TokenRefresher) SetAccessToken(token string, expiresIn int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.accessToken = token
	if expiresIn > 0 {
		tr.expiresAt = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	}
}

// SetRefreshToken updates the refresh token.
func (tr *TokenRefresher) SetRefreshToken(token string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.refreshToken = token
}

// GetAccessToken returns the current access token.
func (tr *TokenRefresher) GetAccessToken() string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.accessToken
}

// NeedsRefresh returns true if the token is past its recorded expiry.
func (tr *TokenRefresher) NeedsRefresh() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.needsRefreshLocked()
}

func (tr *TokenRefresher) needsRefreshLocked() bool {
	if tr.accessToken == "" || tr.expiresAt.IsZero() {
		return false
	}
	return time.Now().After(tr.expiresAt)
}

// Refresh performs a token refresh if the token is expired.
func (tr *TokenRefresher) Refresh(ctx context.Context) error {
	return tr.refreshInternal(ctx, false)
}

// ForceRefresh performs a token refresh regardless of expiry status.
// Used when a request came back 401.
func (tr *TokenRefresher) ForceRefresh(ctx context.Context) error {
	return tr.refreshInternal(ctx, true)
}

func (tr *TokenRefresher) refreshInternal(ctx context.Context, force bool) error {
	tr.mu.Lock()

	if tr.refreshing {
		done := tr.done
		tr.mu.Unlock()

		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	// Another goroutine may have refreshed while we waited for the lock.
	if !force && !tr.needsRefreshLocked() && tr.accessToken != "" {
		tr.mu.Unlock()
		return nil
	}

	tr.refreshing = true
	tr.done = make(chan struct{})
	refreshToken := tr.refreshToken
	tr.mu.Unlock()

	defer func() {
		tr.mu.Lock()
		tr.refreshing = false
		close(tr.done)
		tr.mu.Unlock()
	}()

	if refreshToken == "" {
		return fmt.Errorf("no refresh token available")
	}
	return tr.doRefresh(ctx, refreshToken)
}

func (tr *TokenRefresher) doRefresh(ctx context.Context, refreshToken string) error {
	tr.log("refreshing access token")

	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		tr.baseURL+"/auth/token/refresh/",
		strings.NewReader(string(payload)))
	if err != nil {
		return fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tr.client.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh failed with status %d", resp.StatusCode)
	}

	var result struct {
		Access    string `json:"access"`
		Refresh   string `json:"refresh"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode refresh response: %w", err)
	}
	if result.Access == "" {
		return fmt.Errorf("refresh response missing access token")
	}

	tr.SetAccessToken(result.Access, result.ExpiresIn)
	if result.Refresh != "" {
		// Rotating refresh tokens: keep the newest one.
		tr.SetRefreshToken(result.Refresh)
	}
	tr.log("access token refreshed", "expires_in", result.ExpiresIn)

	return nil
}

func (tr *TokenRefresher) log(msg string, keysAndValues ...any) {
	if tr.logger != nil {
		tr.logger.Debug(msg, keysAndValues...)
	}
}
