package crawler

import (
	"context"
	"time"
)

// pauseController abstracts how the fetcher waits between requests.
type pauseController interface {
	Pause(ctx context.Context, delay time.Duration)
}

type timerPauseController struct{}

func (p *timerPauseController) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// DefaultUserAgents is the rotation pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/113.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_4) AppleWebKit/605.1.15 " +
		"(KHTML, like Gecko) Version/16.5 Safari/605.1.15",
}

// UserAgentPool hands out a random User-Agent per request.
type UserAgentPool struct {
	agents []string
}

// NewUserAgentPool copies agents; an empty list falls back to DefaultUserAgents.
func NewUserAgentPool(agents []string) *UserAgentPool {
	if len(agents) == 0 {
		agents = DefaultUserAgents
	}
	return &UserAgentPool{agents: append([]string(nil), agents...)}
}

// Pick returns one agent at random.
func (p *UserAgentPool) Pick() string {
	return p.agents[randomIndex(len(p.agents))]
}
