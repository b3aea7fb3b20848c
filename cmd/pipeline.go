package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/seyi-sanmi/atlas/internal/clock/system"
	"github.com/seyi-sanmi/atlas/internal/config"
	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/event"
	"github.com/seyi-sanmi/atlas/internal/extract/heuristic"
	"github.com/seyi-sanmi/atlas/internal/extract/jsonld"
	collyfetcher "github.com/seyi-sanmi/atlas/internal/fetcher/colly"
	"github.com/seyi-sanmi/atlas/internal/fetcher/headless"
	"github.com/seyi-sanmi/atlas/internal/hash/sha256"
	"github.com/seyi-sanmi/atlas/internal/headless/detector"
	"github.com/seyi-sanmi/atlas/internal/id/uuid"
	"github.com/seyi-sanmi/atlas/internal/policy/ratelimit"
	pubsubpublisher "github.com/seyi-sanmi/atlas/internal/publisher/pubsub"
	"github.com/seyi-sanmi/atlas/internal/reconcile"
	"github.com/seyi-sanmi/atlas/internal/scraper"
	"github.com/seyi-sanmi/atlas/internal/storage/gcs"
	"github.com/seyi-sanmi/atlas/internal/storage/local"
	memoryStorage "github.com/seyi-sanmi/atlas/internal/storage/memory"
	"github.com/seyi-sanmi/atlas/internal/storage/postgres"
	"github.com/seyi-sanmi/atlas/internal/temporal"
)

// eventScraper is the slice of the scraper the commands use.
type eventScraper interface {
	Scrape(ctx context.Context, pageURL string) (event.Record, error)
}

// pipeline bundles a ready scraper with the resources it holds open.
type pipeline struct {
	scraper eventScraper
	limiter *ratelimit.Limiter
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (p *pipeline) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// pipelineFactory builds a pipeline. Commands take one so tests can swap in fakes.
type pipelineFactory func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline, error)

// buildPipeline wires the fetch, extraction and sink stages from cfg.
func buildPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) (*pipeline, error) {
	p := &pipeline{limiter: ratelimit.New(cfg.RateLimit)}
	fail := func(err error) (*pipeline, error) {
		p.Close()
		return nil, err
	}

	probe := collyfetcher.New(collyfetcher.Config{
		RespectRobots: cfg.HTTP.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
	})
	fetcher := crawler.NewPoliteFetcher(probe, cfg.PoliteConfig(), logger.Named("fetcher"))

	reconciler, err := reconcile.New(cfg.ReconcileOptions(), logger.Named("reconcile"))
	if err != nil {
		return fail(fmt.Errorf("init reconciler: %w", err))
	}
	clock := system.New()
	deps := scraper.Dependencies{
		Fetcher:    fetcher,
		Structured: jsonld.New(logger.Named("jsonld")),
		Heuristic: heuristic.New(heuristic.Options{
			SiteSuffix:      cfg.Scraper.SiteSuffix,
			ConvertMeridiem: cfg.Scraper.ConvertMeridiem,
		}, logger.Named("heuristic")),
		Reconciler: reconciler,
		Normalizer: temporal.New(clock, logger.Named("temporal")),
		Renderer:   headless.Disabled{},
		Hasher:     sha256.New(),
		Clock:      clock,
		IDs:        uuid.New(),
	}

	if cfg.Headless.Enabled {
		renderer, err := headless.NewChromedp(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Headless.UserAgent,
			NavigationTimeout: cfg.HeadlessNavTimeout(),
		}, logger.Named("headless"))
		if err != nil {
			return fail(fmt.Errorf("init renderer: %w", err))
		}
		p.closers = append(p.closers, renderer.Close)
		deps.Renderer = renderer
		deps.Detector = detector.NewHeuristic(cfg.Headless.PromotionThreshold, cfg.Headless.MinVisibleText)
	}

	blobs, err := buildArchive(ctx, cfg, p)
	if err != nil {
		return fail(err)
	}
	deps.BlobStore = blobs

	if cfg.DB.DSN != "" {
		store, err := postgres.NewEventStore(ctx, cfg.DB)
		if err != nil {
			return fail(fmt.Errorf("init event store: %w", err))
		}
		p.closers = append(p.closers, store.Close)
		deps.Events = store
	}

	if cfg.PubSub.TopicName != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			return fail(fmt.Errorf("init pubsub client: %w", err))
		}
		publisher := pubsubpublisher.New(client)
		p.closers = append(p.closers, func() {
			publisher.Close()
			if err := client.Close(); err != nil {
				logger.Warn("pubsub client close failed", zap.Error(err))
			}
		})
		deps.Publisher = publisher
	}

	waitMin, waitMax := cfg.RenderWait()
	s, err := scraper.New(deps, scraper.Config{
		RenderFallback: cfg.Headless.Enabled,
		RenderWaitMin:  waitMin,
		RenderWaitMax:  waitMax,
		ArchivePrefix:  cfg.Archive.Prefix,
		ContentType:    cfg.Archive.ContentType,
		Topic:          cfg.PubSub.TopicName,
	}, logger.Named("scraper"))
	if err != nil {
		return fail(fmt.Errorf("init scraper: %w", err))
	}
	p.scraper = s
	return p, nil
}

// buildArchive returns the configured blob store, or nil when archiving is off.
func buildArchive(ctx context.Context, cfg config.Config, p *pipeline) (crawler.BlobStore, error) {
	switch cfg.Archive.Backend {
	case config.ArchiveMemory:
		return memoryStorage.NewBlobStore(), nil
	case config.ArchiveLocal:
		store, err := local.New(cfg.Archive.Local)
		if err != nil {
			return nil, fmt.Errorf("init local archive: %w", err)
		}
		return store, nil
	case config.ArchiveGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		p.closers = append(p.closers, func() { _ = client.Close() })
		store, err := gcs.New(client, cfg.Archive.GCS)
		if err != nil {
			return nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return store, nil
	default:
		return nil, nil
	}
}
