// Package ratelimit throttles scrapes per target host.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/seyi-sanmi/atlas/internal/metrics"
)

const unknownHost = "unknown"

// Config holds rate limiter configuration.
type Config struct {
	DefaultRPS   float64     `mapstructure:"default_rps"`
	DefaultBurst int         `mapstructure:"default_burst"`
	Hosts        []HostLimit `mapstructure:"hosts"`
}

// HostLimit overrides the default rate for one hostname.
type HostLimit struct {
	Host string  `mapstructure:"host"`
	RPS  float64 `mapstructure:"rps"`
}

// Limiter manages one token bucket per target host.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
	hostRates    map[string]rate.Limit
}

// New creates a new Limiter. A non-positive rate means unlimited.
func New(cfg Config) *Limiter {
	burst := cfg.DefaultBurst
	if burst <= 0 {
		burst = 1
	}
	hostRates := make(map[string]rate.Limit, len(cfg.Hosts))
	for _, h := range cfg.Hosts {
		hostRates[strings.ToLower(h.Host)] = toLimit(h.RPS)
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  toLimit(cfg.DefaultRPS),
		defaultBurst: burst,
		hostRates:    hostRates,
	}
}

// Wait blocks until rawURL's host has a token, or ctx ends.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host := Host(rawURL)
	limiter := l.limiterFor(host)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", host, err)
	}
	// Near-zero waits mean a token was already available.
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(host, waited)
	}
	return nil
}

func (l *Limiter) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[host]
	if !ok {
		limit, override := l.hostRates[host]
		if !override {
			limit = l.defaultRate
		}
		limiter = rate.NewLimiter(limit, l.defaultBurst)
		l.limiters[host] = limiter
	}
	return limiter
}

// Host returns the lowercase hostname of rawURL, or "unknown".
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return unknownHost
	}
	return strings.ToLower(u.Hostname())
}

func toLimit(rps float64) rate.Limit {
	if rps <= 0 {
		return rate.Inf
	}
	return rate.Limit(rps)
}
