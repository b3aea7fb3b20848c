// Package postgres persists scraped events in Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seyi-sanmi/atlas/internal/event"
)

const defaultTable = "events"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the Postgres connection pool used for event rows.
type Config struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// EventStore upserts scraped events keyed by their source URL. The table is
// expected to look like:
//
//	CREATE TABLE events (
//		id           UUID PRIMARY KEY,
//		source_url   TEXT NOT NULL UNIQUE,
//		title        TEXT NOT NULL,
//		start_raw    TEXT,
//		end_raw      TEXT,
//		description  TEXT,
//		location     TEXT,
//		organizer    TEXT,
//		presented_by TEXT,
//		links        JSONB NOT NULL,
//		event_date   TEXT NOT NULL,
//		event_time   TEXT NOT NULL,
//		categories   JSONB NOT NULL,
//		archive_uri  TEXT,
//		rendered     BOOLEAN NOT NULL,
//		scraped_at   TIMESTAMPTZ NOT NULL
//	);
type EventStore struct {
	pool  execCloser
	table string
}

// NewEventStore connects a pool using cfg.
func NewEventStore(ctx context.Context, cfg Config) (*EventStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &EventStore{pool: pool, table: table}, nil
}

// NewEventStoreWithPool constructs a store from an existing pool.
func NewEventStoreWithPool(pool execCloser, table string) (*EventStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &EventStore{pool: pool, table: name}, nil
}

// Close releases the underlying pool resources.
func (s *EventStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveEvent inserts the scrape, or refreshes the row already stored for the
// same source URL.
func (s *EventStore) SaveEvent(ctx context.Context, scrape event.Scrape) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("event store is not configured")
	}
	if scrape.ID == "" || scrape.URL == "" {
		return fmt.Errorf("scrape id and url are required")
	}
	rec := scrape.Record
	links, err := json.Marshal(nonNil(rec.Links))
	if err != nil {
		return fmt.Errorf("marshal links: %w", err)
	}
	categories, err := json.Marshal(nonNil(rec.Categories))
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	source_url,
	title,
	start_raw,
	end_raw,
	description,
	location,
	organizer,
	presented_by,
	links,
	event_date,
	event_time,
	categories,
	archive_uri,
	rendered,
	scraped_at
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
)
ON CONFLICT (source_url) DO UPDATE SET
	title = EXCLUDED.title,
	start_raw = EXCLUDED.start_raw,
	end_raw = EXCLUDED.end_raw,
	description = EXCLUDED.description,
	location = EXCLUDED.location,
	organizer = EXCLUDED.organizer,
	presented_by = EXCLUDED.presented_by,
	links = EXCLUDED.links,
	event_date = EXCLUDED.event_date,
	event_time = EXCLUDED.event_time,
	categories = EXCLUDED.categories,
	archive_uri = COALESCE(EXCLUDED.archive_uri, %s.archive_uri),
	rendered = EXCLUDED.rendered,
	scraped_at = EXCLUDED.scraped_at`, s.table, s.table)

	args := []any{
		scrape.ID,
		scrape.URL,
		rec.Title,
		rec.Start,
		rec.End,
		rec.Description,
		rec.Location,
		rec.Organizer,
		rec.PresentedBy,
		links,
		rec.Date,
		rec.Time,
		categories,
		nullable(scrape.ArchiveURI),
		scrape.Rendered,
		scrape.ScrapedAt,
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert event %s: %w", scrape.URL, err)
	}
	return nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
