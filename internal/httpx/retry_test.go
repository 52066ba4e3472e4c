package httpx

import (
	"testing"
	"time"
)

func TestRetryPolicy_Delay(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Factor:     2.0,
	})

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // capped
		{10, time.Second},
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryPolicy_JitterBounds(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Factor:     2.0,
		Jitter:     true,
	})

	for i := 0; i < 100; i++ {
		d := p.Delay(1)
		if d < 100*time.Millisecond || d > 300*time.Millisecond {
			t.Fatalf("jittered Delay(1) = %v, want within [100ms, 300ms]", d)
		}
	}
}

func TestRetryPolicy_DelayWithJitter(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
		Factor:    2.0,
	})

	if got := p.DelayWithJitter(1, 0.5); got != 100*time.Millisecond {
		t.Errorf("DelayWithJitter(1, 0.5) = %v, want 100ms", got)
	}
	if got := p.DelayWithJitter(1, 1.5); got != 300*time.Millisecond {
		t.Errorf("DelayWithJitter(1, 1.5) = %v, want 300ms", got)
	}
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxRetries: 2})
	if p.BaseDelay == 0 || p.MaxDelay == 0 || p.Factor == 0 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", p.MaxRetries)
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxRetries: 2})
	if !p.ShouldRetry(0) || !p.ShouldRetry(1) {
		t.Error("attempts below MaxRetries should be retried")
	}
	if p.ShouldRetry(2) {
		t.Error("attempt equal to MaxRetries should not be retried")
	}
}
