package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/metrics"
)

// PoliteConfig tunes PoliteFetcher.
type PoliteConfig struct {
	Retry RetryConfig
	// PauseMin and PauseMax bound the random pause after a successful fetch.
	PauseMin time.Duration
	PauseMax time.Duration
	// UserAgents is the rotation pool; empty uses DefaultUserAgents.
	UserAgents []string
	// Headers are sent with every request.
	Headers http.Header
}

// PoliteFetcher wraps a Fetcher with sequential retries, exponential backoff
// and a randomized politeness pause after each success.
type PoliteFetcher struct {
	fetcher  Fetcher
	retry    *ExponentialRetryPolicy
	pauser   pauseController
	agents   *UserAgentPool
	headers  http.Header
	pauseMin time.Duration
	pauseMax time.Duration
	logger   *zap.Logger
}

// NewPoliteFetcher builds a PoliteFetcher around fetcher.
func NewPoliteFetcher(fetcher Fetcher, cfg PoliteConfig, logger *zap.Logger) *PoliteFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PauseMax < cfg.PauseMin {
		cfg.PauseMax = cfg.PauseMin
	}
	return &PoliteFetcher{
		fetcher:  fetcher,
		retry:    NewExponentialRetryPolicy(cfg.Retry),
		pauser:   &timerPauseController{},
		agents:   NewUserAgentPool(cfg.UserAgents),
		headers:  cfg.Headers.Clone(),
		pauseMin: cfg.PauseMin,
		pauseMax: cfg.PauseMax,
		logger:   logger,
	}
}

// Fetch retrieves url. Transient failures are retried up to the configured
// bound; the final failure wraps ErrFetchFailed and the last attempt's error.
func (f *PoliteFetcher) Fetch(ctx context.Context, url string) (FetchResponse, error) {
	for attempt := 1; ; attempt++ {
		resp, err := f.fetcher.Fetch(ctx, f.request(url))
		if err == nil {
			metrics.ObserveFetchAttempt("ok")
			resp.Attempts = attempt
			f.pauser.Pause(ctx, RandomBetween(f.pauseMin, f.pauseMax))
			return resp, nil
		}

		outcome := "fatal"
		if IsTransient(err) {
			outcome = "transient"
		}
		metrics.ObserveFetchAttempt(outcome)
		f.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.String("outcome", outcome),
			zap.Error(err),
		)

		if !f.retry.ShouldRetry(err, attempt) {
			if attempt >= f.retry.MaxAttempts() && outcome == "transient" {
				f.logger.Error("max retries reached", zap.String("url", url), zap.Int("attempts", attempt))
			}
			return FetchResponse{}, fmt.Errorf("%w: %s after %d attempt(s): %w", ErrFetchFailed, url, attempt, err)
		}

		f.pauser.Pause(ctx, f.retry.Backoff(attempt))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return FetchResponse{}, fmt.Errorf("%w: %s: %w", ErrFetchFailed, url, errors.Join(ctxErr, err))
		}
	}
}

func (f *PoliteFetcher) request(url string) FetchRequest {
	headers := f.headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	if headers.Get("User-Agent") == "" {
		headers.Set("User-Agent", f.agents.Pick())
	}
	return FetchRequest{URL: url, Headers: headers}
}
