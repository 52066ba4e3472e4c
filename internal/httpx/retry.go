package httpx

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryPolicy implements exponential backoff with optional jitter.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Factor     float64
	Jitter     bool

	// rngMu guards rng: concurrent requests share one policy.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRetryPolicy creates a new retry policy. MaxRetries is taken as-is:
// zero is a valid value meaning no retries.
func NewRetryPolicy(cfg RetryConfig) *RetryPolicy {
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 10 * time.Second
	}
	if cfg.Factor == 0 {
		cfg.Factor = 2.0
	}

	return &RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		BaseDelay:  cfg.BaseDelay,
		MaxDelay:   cfg.MaxDelay,
		Factor:     cfg.Factor,
		Jitter:     cfg.Jitter,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay calculates the delay for a given retry attempt (0-indexed).
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt))

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	// Jitter spreads retries over 0.5x to 1.5x of the computed delay.
	if p.Jitter {
		p.rngMu.Lock()
		delay *= 0.5 + p.rng.Float64()
		p.rngMu.Unlock()
	}

	return time.Duration(delay)
}

// DelayWithJitter calculates delay with a fixed jitter factor for testing.
func (p *RetryPolicy) DelayWithJitter(attempt int, jitterFactor float64) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(p.Factor, float64(attempt))

	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	return time.Duration(delay * jitterFactor)
}

// ShouldRetry returns true if we haven't exhausted retry attempts.
func (p *RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxRetries
}
