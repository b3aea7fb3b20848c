package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/event"
	"github.com/seyi-sanmi/atlas/internal/metrics"
)

const maxRequestBody = 1 << 16

// EventScraper scrapes one event page.
type EventScraper interface {
	Scrape(ctx context.Context, pageURL string) (event.Record, error)
}

// HostLimiter throttles scrapes per target host.
type HostLimiter interface {
	Wait(ctx context.Context, pageURL string) error
}

// Options configure the Server.
type Options struct {
	// APIKey gates /api routes when non-empty.
	APIKey         string
	RequestTimeout time.Duration
}

// Server wires HTTP handlers to the scraper.
type Server struct {
	router  chi.Router
	scraper EventScraper
	limiter HostLimiter
	logger  *zap.Logger
}

// NewServer constructs a Server with middleware and routes. limiter may be nil.
func NewServer(scraper EventScraper, limiter HostLimiter, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 2 * time.Minute
	}
	s := &Server{
		scraper: scraper,
		limiter: limiter,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	r.Use(metrics.Middleware)
	r.Use(timeoutMiddleware(opts.RequestTimeout))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.APIKey != "" {
			r.Use(apiKeyMiddleware(opts.APIKey))
		}
		r.Post("/scrape-event", s.scrapeEvent)
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type scrapeRequest struct {
	URL string `json:"url"`
}

func (s *Server) scrapeEvent(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	pageURL := strings.TrimSpace(req.URL)
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "URL is required")
		return
	}
	if !isHTTPURL(pageURL) {
		writeError(w, http.StatusBadRequest, "URL must be an absolute http(s) URL")
		return
	}

	logger := s.logger.With(zap.String("request_id", requestID(r.Context())), zap.String("url", pageURL))
	if s.limiter != nil {
		if err := s.limiter.Wait(r.Context(), pageURL); err != nil {
			logger.Warn("rate limit wait aborted", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "scrape capacity exhausted, retry later")
			return
		}
	}

	record, err := s.scraper.Scrape(r.Context(), pageURL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, record)
	case errors.Is(err, crawler.ErrFetchFailed):
		logger.Warn("scrape failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		logger.Error("scrape failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("write JSON failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
