package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/seyi-sanmi/atlas/internal/crawler"
)

func TestFetcherBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: false, Timeout: time.Second})
	collector := f.buildCollector(crawler.FetchRequest{URL: "https://lu.ma/e1"}, time.Unix(0, 0), &fetchState{})
	require.Equal(t, "coverage-agent", collector.UserAgent)
	require.True(t, collector.IgnoreRobotsTxt)
	require.True(t, collector.AllowURLRevisit)

	rotated := f.buildCollector(crawler.FetchRequest{
		URL:     "https://lu.ma/e1",
		Headers: http.Header{"User-Agent": {"rotated-agent"}},
	}, time.Unix(0, 0), &fetchState{})
	require.Equal(t, "rotated-agent", rotated.UserAgent)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	req := crawler.FetchRequest{
		URL:     "https://lu.ma/e1",
		Headers: http.Header{"X-Trace": {"yes"}, "User-Agent": {"skip-me"}},
	}
	state := &fetchState{}

	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, req, time.Unix(0, 0), state)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	collyReq := &colly.Request{Headers: &http.Header{}}
	hooks.onRequest(collyReq)
	require.Equal(t, "yes", collyReq.Headers.Get("X-Trace"))
	require.Empty(t, collyReq.Headers.Get("User-Agent"))

	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Headers:    &http.Header{"X-Resp": {"ok"}},
		Request:    &colly.Request{URL: mustParseURL(t, "https://lu.ma/e1")},
	})
	require.Equal(t, http.StatusOK, state.result.StatusCode)
	require.Equal(t, "body", string(state.result.Body))
	require.Equal(t, "ok", state.result.Headers.Get("X-Resp"))

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("Bad Gateway"))
	require.EqualError(t, state.err, "Bad Gateway")
	require.Equal(t, http.StatusBadGateway, state.statusCode)
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()

	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>Rust Night | Lu.ma</title></html>"))
	}))
	t.Cleanup(srv.Close)

	f := New(Config{Timeout: 2 * time.Second})
	resp, err := f.Fetch(context.Background(), crawler.FetchRequest{
		URL:     srv.URL + "/e1",
		Headers: http.Header{"User-Agent": {"polite-agent"}},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(resp.Body), "Rust Night")
	require.Equal(t, "polite-agent", gotUA.Load())

	// A second visit of the same URL must not be refused.
	_, err = f.Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL + "/e1"})
	require.NoError(t, err)
}

func TestFetchClassifiesHTTPErrorsAsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{Timeout: 2 * time.Second}).Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	var te *crawler.TransientError
	require.ErrorAs(t, err, &te)
	require.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
}

func TestFetchClassifiesTimeoutAsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	_, err := New(Config{Timeout: 50 * time.Millisecond}).Fetch(context.Background(), crawler.FetchRequest{URL: srv.URL})
	require.True(t, crawler.IsTransient(err), "got %v", err)
}

func TestFetchClassifiesBadURLAsFatal(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}).Fetch(context.Background(), crawler.FetchRequest{URL: "ftp://lu.ma/e1"})
	var fe *crawler.FatalError
	require.ErrorAs(t, err, &fe)
}

func TestCopyHeadersHandlesNil(t *testing.T) {
	t.Parallel()

	f := New(Config{})
	collyReq := &colly.Request{Headers: &http.Header{}}
	f.copyHeaders(crawler.FetchRequest{}, collyReq)
	require.Empty(t, *collyReq.Headers)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
