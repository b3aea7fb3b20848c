package crawler

import (
	"context"
	"io"
	"time"
)

// Fetcher fetches a URL and returns the body plus metadata. Failures are
// *TransientError or *FatalError.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Renderer loads a page in a browser and returns the rendered HTML. It
// waits a random duration in [minWait, maxWait] once the page has loaded.
type Renderer interface {
	Render(ctx context.Context, url string, minWait, maxWait time.Duration) (string, error)
}

// HeadlessDetector decides whether a fetched page needs rendering.
type HeadlessDetector interface {
	ShouldPromote(probe FetchResponse) bool
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes scraped events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for archive keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces scrape IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
