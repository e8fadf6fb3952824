// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Durations are carried as milliseconds so they map cleanly onto env vars.
// - New returns the defaults; Load layers a YAML file and env vars on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the number of queued batches across all workers.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of session-sharded workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxSessions caps concurrently live sessions.
	MaxSessions int `koanf:"max_sessions"`

	// MaxEventsPerSession bounds each session's stored events.
	MaxEventsPerSession int `koanf:"max_events_per_session"`

	// DedupeWindowMS is the sliding duplicate window.
	DedupeWindowMS int `koanf:"dedupe_window_ms"`

	// HoldMS is how long an accepted event waits for a better-ranked
	// duplicate before it is released downstream.
	HoldMS int `koanf:"hold_ms"`

	DedupeMaxEntries  int `koanf:"dedupe_max_entries"`
	MinIdentityLength int `koanf:"min_identity_length"`
	AuditCapacity     int `koanf:"audit_capacity"`

	// MaxInferences and ConfidenceBucketLimit bound report sections.
	MaxInferences         int `koanf:"max_inferences"`
	ConfidenceBucketLimit int `koanf:"confidence_bucket_limit"`

	// IngestRate and IngestBurst limit batch uploads per second.
	IngestRate  float64 `koanf:"ingest_rate"`
	IngestBurst int     `koanf:"ingest_burst"`

	// ExpireIntervalMS is how often held events are checked for release.
	ExpireIntervalMS int `koanf:"expire_interval_ms"`

	// VocabularyFile optionally overrides lists of the built-in vocabulary.
	VocabularyFile string `koanf:"vocabulary_file"`

	// MetricsEnabled switches Prometheus recording; MetricsRefreshMS paces
	// the sampled gauges.
	MetricsEnabled   bool `koanf:"metrics_enabled"`
	MetricsRefreshMS int  `koanf:"metrics_refresh_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU(),
		MaxSessions:           1000,
		MaxEventsPerSession:   10_000,
		DedupeWindowMS:        2000,
		HoldMS:                500,
		DedupeMaxEntries:      10_000,
		MinIdentityLength:     5,
		AuditCapacity:         200,
		MaxInferences:         20,
		ConfidenceBucketLimit: 50,
		IngestRate:            50,
		IngestBurst:           100,
		ExpireIntervalMS:      250,
		MetricsEnabled:        true,
		MetricsRefreshMS:      5000,
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DedupeWindowMS <= 0:
		return fmt.Errorf("%w: dedupe_window_ms must be positive", ErrInvalidConfig)
	case c.HoldMS < 0 || c.HoldMS >= c.DedupeWindowMS:
		return fmt.Errorf("%w: hold_ms must be in [0, dedupe_window_ms)", ErrInvalidConfig)
	case c.MinIdentityLength < 1:
		return fmt.Errorf("%w: min_identity_length must be at least 1", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.MaxEventsPerSession <= 0:
		return fmt.Errorf("%w: max_events_per_session must be positive", ErrInvalidConfig)
	case c.IngestRate <= 0 || c.IngestBurst <= 0:
		return fmt.Errorf("%w: ingest_rate and ingest_burst must be positive", ErrInvalidConfig)
	case c.ExpireIntervalMS <= 0:
		return fmt.Errorf("%w: expire_interval_ms must be positive", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// DedupeWindow returns DedupeWindowMS as a duration.
func (c *Config) DedupeWindow() time.Duration { return ms(c.DedupeWindowMS) }

// Hold returns HoldMS as a duration.
func (c *Config) Hold() time.Duration { return ms(c.HoldMS) }

// ExpireInterval returns ExpireIntervalMS as a duration.
func (c *Config) ExpireInterval() time.Duration { return ms(c.ExpireIntervalMS) }

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration { return ms(c.MetricsRefreshMS) }

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
