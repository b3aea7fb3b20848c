// Package scraper runs the single-page pipeline: fetch, extract from JSON-LD
// and the DOM, reconcile, optionally re-render, normalize and hand the record
// to the configured sinks.
package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/clock/system"
	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/event"
	"github.com/seyi-sanmi/atlas/internal/extract/dom"
	"github.com/seyi-sanmi/atlas/internal/extract/heuristic"
	"github.com/seyi-sanmi/atlas/internal/extract/jsonld"
	"github.com/seyi-sanmi/atlas/internal/fetcher/headless"
	"github.com/seyi-sanmi/atlas/internal/hash/sha256"
	"github.com/seyi-sanmi/atlas/internal/id/uuid"
	"github.com/seyi-sanmi/atlas/internal/metrics"
	"github.com/seyi-sanmi/atlas/internal/reconcile"
	"github.com/seyi-sanmi/atlas/internal/temporal"
)

// Scrape outcomes reported to metrics.
const (
	statusOK          = "ok"
	statusFetchFailed = "fetch_failed"
)

// PageFetcher retrieves a page with whatever retry policy it carries.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (crawler.FetchResponse, error)
}

// EventStore persists finished scrapes.
type EventStore interface {
	SaveEvent(ctx context.Context, scrape event.Scrape) error
}

// Config controls the optional stages of the pipeline.
type Config struct {
	// RenderFallback enables re-extraction from a browser-rendered copy of
	// the page when the plain fetch lacks a title or description.
	RenderFallback bool
	RenderWaitMin  time.Duration
	RenderWaitMax  time.Duration
	// ArchivePrefix is prepended to archive object paths.
	ArchivePrefix string
	ContentType   string
	// Topic receives every finished scrape when a Publisher is set.
	Topic string
}

// Dependencies are the collaborators of a Scraper. Fetcher and the four
// extraction stages are required; every other field is optional.
type Dependencies struct {
	Fetcher    PageFetcher
	Structured *jsonld.Extractor
	Heuristic  *heuristic.Extractor
	Reconciler *reconcile.Reconciler
	Normalizer *temporal.Normalizer

	Renderer  crawler.Renderer
	Detector  crawler.HeadlessDetector
	BlobStore crawler.BlobStore
	Hasher    crawler.Hasher
	Publisher crawler.Publisher
	Events    EventStore
	Clock     crawler.Clock
	IDs       crawler.IDGenerator
}

// Scraper turns one event page URL into one event record.
type Scraper struct {
	deps   Dependencies
	cfg    Config
	logger *zap.Logger
}

// New validates deps and fills defaults for the optional collaborators.
func New(deps Dependencies, cfg Config, logger *zap.Logger) (*Scraper, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("fetcher is required")
	case deps.Structured == nil || deps.Heuristic == nil:
		return nil, fmt.Errorf("extractors are required")
	case deps.Reconciler == nil:
		return nil, fmt.Errorf("reconciler is required")
	case deps.Normalizer == nil:
		return nil, fmt.Errorf("normalizer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Renderer == nil {
		deps.Renderer = headless.Disabled{}
	}
	if deps.Hasher == nil {
		deps.Hasher = sha256.New()
	}
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDs == nil {
		deps.IDs = uuid.New()
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "text/html; charset=utf-8"
	}
	if cfg.RenderWaitMax < cfg.RenderWaitMin {
		cfg.RenderWaitMax = cfg.RenderWaitMin
	}
	metrics.Init()
	return &Scraper{deps: deps, cfg: cfg, logger: logger}, nil
}

// Scrape returns the event record for pageURL. The only error is a fetch
// failure, which wraps crawler.ErrFetchFailed; the record is then zero.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (event.Record, error) {
	result, err := s.Run(ctx, pageURL)
	if err != nil {
		return event.Record{}, err
	}
	return result.Record, nil
}

// Run is Scrape plus the provenance of the run.
func (s *Scraper) Run(ctx context.Context, pageURL string) (event.Scrape, error) {
	logger := s.logger.With(zap.String("url", pageURL))

	resp, err := s.deps.Fetcher.Fetch(ctx, pageURL)
	if err != nil {
		metrics.ObserveScrape(pageURL, statusFetchFailed)
		logger.Error("fetch failed", zap.Error(err))
		return event.Scrape{}, fmt.Errorf("scrape %s: %w", pageURL, err)
	}
	logger.Debug("page fetched",
		zap.Int("status", resp.StatusCode),
		zap.Int("attempts", resp.Attempts),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", resp.Duration),
	)

	archiveURI := s.archive(ctx, pageURL, resp.Body, logger)
	ext := s.extract(pageURL, string(resp.Body), logger)

	rendered := false
	if s.shouldRender(ext, resp) {
		if html := s.render(ctx, pageURL, logger); html != "" {
			ext = s.extract(pageURL, html, logger)
			rendered = true
		}
	}
	ext.observe()

	result := event.Scrape{
		URL:        pageURL,
		ScrapedAt:  s.deps.Clock.Now(),
		ArchiveURI: archiveURI,
		Rendered:   rendered,
		Record:     s.deps.Normalizer.Finalize(ext.fields, ext.links),
	}
	s.sink(ctx, &result, logger)

	metrics.ObserveScrape(pageURL, statusOK)
	logger.Info("event scraped",
		zap.String("title", result.Record.Title),
		zap.String("date", result.Record.Date),
		zap.Bool("structured", ext.foundStructured),
		zap.Bool("rendered", rendered),
		zap.Strings("title_corrections", ext.corrections),
	)
	return result, nil
}

// extraction is the reconciled view of one HTML snapshot.
type extraction struct {
	structured      event.Fields
	fields          event.Fields
	links           []string
	corrections     []string
	foundStructured bool
}

func (s *Scraper) extract(pageURL, html string, logger *zap.Logger) extraction {
	doc, err := dom.Parse(html)
	if err != nil {
		logger.Warn("html parse failed", zap.Error(err))
		return extraction{fields: event.Fields{}, links: []string{}}
	}
	structured, found := s.deps.Structured.ExtractDocument(doc)
	merged := reconcile.Merge(structured, s.deps.Heuristic.ExtractDocument(doc))
	corrected, applied := s.deps.Reconciler.CorrectTitle(pageURL, merged)
	return extraction{
		structured:      structured,
		fields:          corrected,
		links:           reconcile.LinksDocument(doc, pageURL),
		corrections:     applied,
		foundStructured: found,
	}
}

func (e extraction) observe() {
	for field, source := range reconcile.Provenance(e.structured, e.fields) {
		metrics.ObserveFieldSource(string(field), string(source))
	}
	for _, rule := range e.corrections {
		metrics.ObserveTitleCorrection(rule)
	}
}

// shouldRender gates the browser fallback: the flag must be on and the
// plain fetch must be missing a title or description, or look like an
// unrendered JavaScript shell.
func (s *Scraper) shouldRender(ext extraction, resp crawler.FetchResponse) bool {
	if !s.cfg.RenderFallback {
		return false
	}
	if !ext.fields.Has(event.FieldTitle) || !ext.fields.Has(event.FieldDescription) {
		return true
	}
	return s.deps.Detector != nil && s.deps.Detector.ShouldPromote(resp)
}

func (s *Scraper) render(ctx context.Context, pageURL string, logger *zap.Logger) string {
	html, err := s.deps.Renderer.Render(ctx, pageURL, s.cfg.RenderWaitMin, s.cfg.RenderWaitMax)
	if err != nil {
		logger.Warn("render fallback failed", zap.Error(err))
		return ""
	}
	if strings.TrimSpace(html) == "" {
		logger.Debug("render fallback returned no content")
		return ""
	}
	logger.Info("render fallback applied", zap.Int("bytes", len(html)))
	return html
}
