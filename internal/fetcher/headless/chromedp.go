// Package headless renders pages in a browser for sites that build their DOM
// with JavaScript.
package headless

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/crawler"
)

const defaultNavigationTimeout = 45 * time.Second

// Config controls the behavior of the chromedp renderer.
type Config struct {
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Renderer implements crawler.Renderer using chromedp and headless Chrome.
type Renderer struct {
	cfg         Config
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
	sleep       func(ctx context.Context, d time.Duration) error
	logger      *zap.Logger
}

// NewChromedp creates a renderer backed by chromedp. Nothing is launched
// here; each Render starts its own browser and tears it down when done.
func NewChromedp(cfg Config, logger *zap.Logger) (*Renderer, error) {
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		cfg:         cfg,
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
		sleep:       sleepContext,
		logger:      logger,
	}, nil
}

// Close shuts the browser down.
func (r *Renderer) Close() {
	r.allocCancel()
}

// Render navigates to url, waits for the body plus a random settle period in
// [minWait, maxWait] and returns the rendered document.
func (r *Renderer) Render(ctx context.Context, url string, minWait, maxWait time.Duration) (string, error) {
	if err := r.acquire(ctx); err != nil {
		return "", err
	}
	defer r.release()

	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()
	// Propagate caller cancellation into the browser tab.
	stop := context.AfterFunc(ctx, taskCancel)
	defer stop()

	wait := settleDuration(minWait, maxWait)
	taskCtx, cancel := context.WithTimeout(taskCtx, r.navTimeout()+wait)
	defer cancel()

	start := time.Now()
	var html string
	actions := []chromedp.Action{
		r.networkSetupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return r.sleep(ctx, wait)
		}),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp render %s: %w", url, err)
	}
	r.logger.Debug("page rendered",
		zap.String("url", url),
		zap.Duration("settle", wait),
		zap.Duration("duration", time.Since(start)),
		zap.Int("bytes", len(html)),
	)
	return html, nil
}

func (r *Renderer) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if r.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (r *Renderer) acquire(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	select {
	case r.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (r *Renderer) release() {
	if r.limiter == nil {
		return
	}
	select {
	case <-r.limiter:
	default:
	}
}

func (r *Renderer) navTimeout() time.Duration {
	if r.cfg.NavigationTimeout > 0 {
		return r.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

// settleDuration picks a uniform wait in [minWait, maxWait]. A reversed
// range collapses to minWait.
func settleDuration(minWait, maxWait time.Duration) time.Duration {
	if minWait < 0 {
		minWait = 0
	}
	if maxWait <= minWait {
		return minWait
	}
	return crawler.RandomBetween(minWait, maxWait)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("settle wait: %w", ctx.Err())
	}
}
