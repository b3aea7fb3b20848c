package crawler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedFetcher struct {
	mu       sync.Mutex
	errs     []error
	requests []FetchRequest
}

func (f *scriptedFetcher) Fetch(_ context.Context, req FetchRequest) (FetchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return FetchResponse{}, err
		}
	}
	return FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte("<html></html>")}, nil
}

type recordingPauser struct {
	delays []time.Duration
}

func (p *recordingPauser) Pause(_ context.Context, delay time.Duration) {
	p.delays = append(p.delays, delay)
}

func newTestPoliteFetcher(inner Fetcher, pauser *recordingPauser) *PoliteFetcher {
	f := NewPoliteFetcher(inner, PoliteConfig{
		Retry:    RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Jitter: time.Second},
		PauseMin: time.Second,
		PauseMax: 3 * time.Second,
	}, zap.NewNop())
	f.pauser = pauser
	return f
}

func transient() error {
	return &TransientError{URL: "https://lu.ma/e1", StatusCode: 503, Err: errors.New("Service Unavailable")}
}

func TestPoliteFetcherRetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{errs: []error{transient(), transient(), nil}}
	pauser := &recordingPauser{}
	f := newTestPoliteFetcher(inner, pauser)

	resp, err := f.Fetch(context.Background(), "https://lu.ma/e1")
	require.NoError(t, err)
	require.Equal(t, 3, resp.Attempts)
	require.Len(t, inner.requests, 3)

	require.Len(t, pauser.delays, 3, "two backoffs and one politeness pause")
	require.GreaterOrEqual(t, pauser.delays[0], 2*time.Second)
	require.Less(t, pauser.delays[0], 3*time.Second)
	require.GreaterOrEqual(t, pauser.delays[1], 4*time.Second)
	require.Less(t, pauser.delays[1], 5*time.Second)
	require.GreaterOrEqual(t, pauser.delays[2], time.Second)
	require.Less(t, pauser.delays[2], 3*time.Second)
}

func TestPoliteFetcherGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{errs: []error{transient(), transient(), transient()}}
	f := newTestPoliteFetcher(inner, &recordingPauser{})

	_, err := f.Fetch(context.Background(), "https://lu.ma/e1")
	require.ErrorIs(t, err, ErrFetchFailed)
	require.True(t, IsTransient(err))
	require.Len(t, inner.requests, 3)
}

func TestPoliteFetcherDoesNotRetryFatal(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{errs: []error{&FatalError{URL: "x", Err: errors.New("bad scheme")}}}
	pauser := &recordingPauser{}
	f := newTestPoliteFetcher(inner, pauser)

	_, err := f.Fetch(context.Background(), "x")
	require.ErrorIs(t, err, ErrFetchFailed)
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	require.Len(t, inner.requests, 1)
	require.Empty(t, pauser.delays)
}

func TestPoliteFetcherStopsWhenContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &scriptedFetcher{errs: []error{transient(), transient(), transient()}}
	f := newTestPoliteFetcher(inner, &recordingPauser{})

	_, err := f.Fetch(ctx, "https://lu.ma/e1")
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, inner.requests, 1)
}

func TestPoliteFetcherRotatesUserAgentAndKeepsHeaders(t *testing.T) {
	t.Parallel()

	inner := &scriptedFetcher{}
	f := NewPoliteFetcher(inner, PoliteConfig{
		UserAgents: []string{"ua-one"},
		Headers:    http.Header{"Accept-Language": []string{"en-GB"}},
	}, nil)
	f.pauser = &recordingPauser{}

	_, err := f.Fetch(context.Background(), "https://lu.ma/e1")
	require.NoError(t, err)
	require.Equal(t, "ua-one", inner.requests[0].Headers.Get("User-Agent"))
	require.Equal(t, "en-GB", inner.requests[0].Headers.Get("Accept-Language"))
}
