package crawler

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// RetryConfig tunes ExponentialRetryPolicy.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}

// ExponentialRetryPolicy retries transient failures with jittered backoff.
type ExponentialRetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	jitter      time.Duration
}

// NewExponentialRetryPolicy builds a policy. Zero MaxAttempts or BaseDelay
// default to three attempts and one second.
func NewExponentialRetryPolicy(cfg RetryConfig) *ExponentialRetryPolicy {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return &ExponentialRetryPolicy{
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		jitter:      cfg.Jitter,
	}
}

// MaxAttempts returns the attempt bound.
func (p *ExponentialRetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

// ShouldRetry decides whether the error is retryable. Only transient
// errors are, and only while attempts remain.
func (p *ExponentialRetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return IsTransient(err)
}

// Backoff returns base·2^attempt plus up to jitter of random delay.
func (p *ExponentialRetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	return time.Duration(delay) + randomJitter(p.jitter)
}

// randomJitter returns a uniformly random duration in [0, limit).
func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}

// RandomBetween returns a uniformly random duration in [lo, hi).
func RandomBetween(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + randomJitter(hi-lo)
}

// randomIndex returns a random index into a slice of length n.
func randomIndex(n int) int {
	if n <= 1 {
		return 0
	}
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(i.Int64())
}
