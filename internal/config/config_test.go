package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seyi-sanmi/atlas/internal/crawler"
	"github.com/seyi-sanmi/atlas/internal/reconcile"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.False(t, cfg.HTTP.RespectRobots)
	assert.Equal(t, crawler.DefaultUserAgents, cfg.HTTP.UserAgents)
	assert.False(t, cfg.Headless.Enabled)
	assert.False(t, cfg.Scraper.ConvertMeridiem)
	assert.Equal(t, "Lu.ma", cfg.Scraper.SiteSuffix)
	assert.Nil(t, cfg.Scraper.TitleOverrides, "nil selects the built-in overrides")
	assert.Equal(t, ArchiveNone, cfg.Archive.Backend)
	assert.Equal(t, "events", cfg.DB.Table)

	polite := cfg.PoliteConfig()
	assert.Equal(t, 3, polite.Retry.MaxAttempts)
	assert.Equal(t, time.Second, polite.Retry.BaseDelay)
	assert.Equal(t, time.Second, polite.Retry.Jitter)
	assert.Equal(t, time.Second, polite.PauseMin)
	assert.Equal(t, 3*time.Second, polite.PauseMax)
	assert.Nil(t, polite.Headers)

	minWait, maxWait := cfg.RenderWait()
	assert.Equal(t, 2*time.Second, minWait)
	assert.Equal(t, 4*time.Second, maxWait)
	assert.Equal(t, 45*time.Second, cfg.HeadlessNavTimeout())
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	configYAML := `
server:
  port: 9090
auth:
  enabled: true
  api_key: secret
http:
  timeout_seconds: 20
  user_agents: ["agent-a"]
  headers:
    Accept-Language: en-GB
politeness:
  max_attempts: 5
  pause_min_ms: 0
  pause_max_ms: 0
headless:
  enabled: true
  max_parallel: 2
  wait_min_ms: 100
  wait_max_ms: 200
scraper:
  site_suffix: Meetup
  convert_meridiem: true
  topics: ["demo day"]
  title_overrides:
    - name: monthly
      url_contains: monthly
      title_equals: Founders
      title: Monthly Founders Meetup
archive:
  backend: local
  prefix: raw
  local:
    base_dir: /tmp/pages
db:
  dsn: postgres://localhost/events
  max_conns: 4
pubsub:
  project_id: proj
  topic_name: events
ratelimit:
  default_rps: 2
  hosts:
    - host: lu.ma
      rps: 0.5
logging:
  development: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, 20*time.Second, cfg.FetchTimeout())
	assert.Equal(t, []string{"agent-a"}, cfg.HTTP.UserAgents)
	assert.Equal(t, "en-GB", cfg.PoliteConfig().Headers.Get("Accept-Language"))
	assert.Equal(t, 5, cfg.PoliteConfig().Retry.MaxAttempts)
	assert.True(t, cfg.Headless.Enabled)
	assert.True(t, cfg.Scraper.ConvertMeridiem)
	assert.Equal(t, "local", cfg.Archive.Backend)
	assert.Equal(t, "/tmp/pages", cfg.Archive.Local.BaseDir)
	assert.Equal(t, "postgres://localhost/events", cfg.DB.DSN)
	assert.Equal(t, int32(4), cfg.DB.MaxConns)
	assert.Equal(t, "events", cfg.PubSub.TopicName)
	require.Len(t, cfg.RateLimit.Hosts, 1)
	assert.Equal(t, "lu.ma", cfg.RateLimit.Hosts[0].Host)
	assert.InDelta(t, 0.5, cfg.RateLimit.Hosts[0].RPS, 0.0001)
	assert.Equal(t, "debug", cfg.Logging.Level)

	opts := cfg.ReconcileOptions()
	assert.Equal(t, "Meetup", opts.SiteSuffix)
	assert.Equal(t, []string{"demo day"}, opts.Topics)
	assert.Equal(t, []reconcile.TitleOverride{{
		Name:        "monthly",
		URLContains: "monthly",
		TitleEquals: "Founders",
		Title:       "Monthly Founders Meetup",
	}}, opts.Overrides)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("EVENTSCRAPER_HTTP_TIMEOUT_SECONDS", "30")
	t.Setenv("EVENTSCRAPER_HEADLESS_ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.True(t, cfg.Headless.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Server:     ServerConfig{Port: 8080},
		HTTP:       HTTPConfig{TimeoutSeconds: 10},
		Politeness: PolitenessConfig{MaxAttempts: 3},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"invalid port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"invalid timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, "http.timeout_seconds"},
		{"no attempts", func(c *Config) { c.Politeness.MaxAttempts = 0 }, "politeness.max_attempts"},
		{"reversed pause", func(c *Config) { c.Politeness.PauseMinMs = 5 }, "politeness.pause_max_ms"},
		{"headless missing max parallel", func(c *Config) { c.Headless.Enabled = true }, "headless.max_parallel"},
		{"reversed wait", func(c *Config) { c.Headless.WaitMinMs = 10 }, "headless.wait_max_ms"},
		{"auth missing api key", func(c *Config) { c.Auth.Enabled = true }, "auth.api_key"},
		{"unknown archive", func(c *Config) { c.Archive.Backend = "s3" }, "archive.backend"},
		{"local without dir", func(c *Config) { c.Archive.Backend = ArchiveLocal }, "archive.local.base_dir"},
		{"gcs without bucket", func(c *Config) { c.Archive.Backend = ArchiveGCS }, "archive.gcs.bucket"},
		{"topic without project", func(c *Config) { c.PubSub.TopicName = "events" }, "pubsub.project_id"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
