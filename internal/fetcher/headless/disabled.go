package headless

import (
	"context"
	"time"
)

// Disabled implements crawler.Renderer for deployments without a browser.
// It yields an empty document immediately, which callers treat as "no
// rendered content".
type Disabled struct{}

// Render returns "" without waiting.
func (Disabled) Render(_ context.Context, _ string, _, _ time.Duration) (string, error) {
	return "", nil
}
