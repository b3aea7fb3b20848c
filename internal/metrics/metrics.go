// Package metrics exposes Prometheus collectors for the event scraper.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal               *prometheus.CounterVec
	fetchAttemptsTotal         *prometheus.CounterVec
	fieldSourceTotal           *prometheus.CounterVec
	titleCorrectionsTotal      *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	rateLimitDelaysSeconds     *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventscraper_scrapes_total",
				Help: "Total number of scrapes, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventscraper_fetch_attempts_total",
				Help: "Total number of fetch attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		fieldSourceTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventscraper_field_source_total",
				Help: "Resolved fields, labeled by field and the source that won.",
			},
			[]string{"field", "source"},
		)

		titleCorrectionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventscraper_title_corrections_total",
				Help: "Title corrections applied, labeled by rule.",
			},
			[]string{"rule"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventscraper_rate_limit_delays_seconds",
				Help:    "Histogram of per-host rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"domain"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveScrape counts one finished scrape of site.
func ObserveScrape(site, status string) {
	Init()
	scrapesTotal.WithLabelValues(SanitizeSite(site), status).Inc()
}

// ObserveFetchAttempt counts one fetch attempt ("ok", "transient", "fatal").
func ObserveFetchAttempt(outcome string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFieldSource records which source supplied a resolved field.
func ObserveFieldSource(field, source string) {
	Init()
	fieldSourceTotal.WithLabelValues(field, source).Inc()
}

// ObserveTitleCorrection counts an applied title correction rule.
func ObserveTitleCorrection(rule string) {
	Init()
	titleCorrectionsTotal.WithLabelValues(rule).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(domain string, duration time.Duration) {
	Init()
	rateLimitDelaysSeconds.WithLabelValues(domain).Observe(duration.Seconds())
}
