// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/logging"
	"github.com/seyi-sanmi/atlas/internal/policy/ratelimit"
	"github.com/seyi-sanmi/atlas/internal/reconcile"
	"github.com/seyi-sanmi/atlas/internal/storage/gcs"
	"github.com/seyi-sanmi/atlas/internal/storage/local"
	"github.com/seyi-sanmi/atlas/internal/storage/postgres"
)

// EnvPrefix namespaces environment overrides, e.g. EVENTSCRAPER_HTTP_TIMEOUT_SECONDS.
const EnvPrefix = "EVENTSCRAPER"

// Archive backends.
const (
	ArchiveNone   = "none"
	ArchiveMemory = "memory"
	ArchiveLocal  = "local"
	ArchiveGCS    = "gcs"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Politeness PolitenessConfig `mapstructure:"politeness"`
	Headless   HeadlessConfig   `mapstructure:"headless"`
	Scraper    ScraperConfig    `mapstructure:"scraper"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	DB         postgres.Config  `mapstructure:"db"`
	PubSub     PubSubConfig     `mapstructure:"pubsub"`
	RateLimit  ratelimit.Config `mapstructure:"ratelimit"`
	Logging    logging.Config   `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures the plain page fetch.
type HTTPConfig struct {
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	UserAgents     []string          `mapstructure:"user_agents"`
	Headers        map[string]string `mapstructure:"headers"`
	RespectRobots  bool              `mapstructure:"respect_robots"`
}

// PolitenessConfig bounds retries and the pauses around fetches.
type PolitenessConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`
	BackoffBaseMs   int `mapstructure:"backoff_base_ms"`
	BackoffJitterMs int `mapstructure:"backoff_jitter_ms"`
	PauseMinMs      int `mapstructure:"pause_min_ms"`
	PauseMaxMs      int `mapstructure:"pause_max_ms"`
}

// HeadlessConfig configures the rendering fallback.
type HeadlessConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	MaxParallel        int    `mapstructure:"max_parallel"`
	NavTimeoutSec      int    `mapstructure:"nav_timeout_seconds"`
	WaitMinMs          int    `mapstructure:"wait_min_ms"`
	WaitMaxMs          int    `mapstructure:"wait_max_ms"`
	UserAgent          string `mapstructure:"user_agent"`
	PromotionThreshold int    `mapstructure:"promotion_threshold"`
	MinVisibleText     int    `mapstructure:"min_visible_text"`
}

// ScraperConfig holds the site-specific extraction knobs.
type ScraperConfig struct {
	SiteSuffix      string `mapstructure:"site_suffix"`
	ConvertMeridiem bool   `mapstructure:"convert_meridiem"`
	// Topics are description phrases that correct a title lacking them.
	Topics []string `mapstructure:"topics"`
	// TitleOverrides replaces the built-in overrides when set; an empty
	// list disables them.
	TitleOverrides []reconcile.TitleOverride `mapstructure:"title_overrides"`
}

// ArchiveConfig selects where raw page HTML is kept.
type ArchiveConfig struct {
	Backend     string       `mapstructure:"backend"`
	Prefix      string       `mapstructure:"prefix"`
	ContentType string       `mapstructure:"content_type"`
	Local       local.Config `mapstructure:"local"`
	GCS         gcs.Config   `mapstructure:"gcs"`
}

// PubSubConfig holds metadata for event notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("http.timeout_seconds", 10)
	v.SetDefault("http.user_agents", crawler.DefaultUserAgents)
	v.SetDefault("http.respect_robots", false)
	v.SetDefault("politeness.max_attempts", 3)
	v.SetDefault("politeness.backoff_base_ms", 1000)
	v.SetDefault("politeness.backoff_jitter_ms", 1000)
	v.SetDefault("politeness.pause_min_ms", 1000)
	v.SetDefault("politeness.pause_max_ms", 3000)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.wait_min_ms", 2000)
	v.SetDefault("headless.wait_max_ms", 4000)
	v.SetDefault("headless.promotion_threshold", 2048)
	v.SetDefault("headless.min_visible_text", 200)
	v.SetDefault("scraper.site_suffix", "Lu.ma")
	v.SetDefault("scraper.convert_meridiem", false)
	v.SetDefault("scraper.topics", []string{"investor day"})
	v.SetDefault("archive.backend", ArchiveNone)
	v.SetDefault("archive.prefix", "pages")
	v.SetDefault("archive.content_type", "text/html; charset=utf-8")
	v.SetDefault("db.table", "events")
	v.SetDefault("ratelimit.default_rps", 1)
	v.SetDefault("ratelimit.default_burst", 1)
	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Politeness.MaxAttempts <= 0 {
		return fmt.Errorf("politeness.max_attempts must be > 0")
	}
	if c.Politeness.PauseMaxMs < c.Politeness.PauseMinMs {
		return fmt.Errorf("politeness.pause_max_ms must be >= politeness.pause_min_ms")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Headless.WaitMaxMs < c.Headless.WaitMinMs {
		return fmt.Errorf("headless.wait_max_ms must be >= headless.wait_min_ms")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	switch c.Archive.Backend {
	case "", ArchiveNone, ArchiveMemory:
	case ArchiveLocal:
		if c.Archive.Local.BaseDir == "" {
			return fmt.Errorf("archive.local.base_dir is required for the local backend")
		}
	case ArchiveGCS:
		if c.Archive.GCS.Bucket == "" {
			return fmt.Errorf("archive.gcs.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("archive.backend %q is not one of none, memory, local, gcs", c.Archive.Backend)
	}
	if c.PubSub.TopicName != "" && c.PubSub.ProjectID == "" {
		return fmt.Errorf("pubsub.project_id must be set when pubsub.topic_name is set")
	}
	return nil
}

// FetchTimeout bounds a single plain fetch.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RequestTimeout bounds one API request.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

// PoliteConfig converts the politeness and http sections for crawler.PoliteFetcher.
func (c Config) PoliteConfig() crawler.PoliteConfig {
	var headers http.Header
	if len(c.HTTP.Headers) > 0 {
		headers = make(http.Header, len(c.HTTP.Headers))
		for k, v := range c.HTTP.Headers {
			headers.Set(k, v)
		}
	}
	return crawler.PoliteConfig{
		Retry: crawler.RetryConfig{
			MaxAttempts: c.Politeness.MaxAttempts,
			BaseDelay:   millis(c.Politeness.BackoffBaseMs),
			Jitter:      millis(c.Politeness.BackoffJitterMs),
		},
		PauseMin:   millis(c.Politeness.PauseMinMs),
		PauseMax:   millis(c.Politeness.PauseMaxMs),
		UserAgents: c.HTTP.UserAgents,
		Headers:    headers,
	}
}

// HeadlessNavTimeout bounds one rendered navigation.
func (c Config) HeadlessNavTimeout() time.Duration {
	return time.Duration(c.Headless.NavTimeoutSec) * time.Second
}

// RenderWait returns the settle window applied after a rendered page loads.
func (c Config) RenderWait() (time.Duration, time.Duration) {
	return millis(c.Headless.WaitMinMs), millis(c.Headless.WaitMaxMs)
}

// ReconcileOptions converts the scraper section for reconcile.New. A nil
// override list selects the built-in overrides.
func (c Config) ReconcileOptions() reconcile.Options {
	return reconcile.Options{
		SiteSuffix: c.Scraper.SiteSuffix,
		Topics:     c.Scraper.Topics,
		Overrides:  c.Scraper.TitleOverrides,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
