// Package replay posts a recorded capture to a running auscult service and
// fetches the resulting report.
package replay

import "time"

// Defaults used when a Config field is left zero.
const (
	DefaultBatchSize  = 50
	DefaultTimeout    = 10 * time.Second
	DefaultSettle     = 5 * time.Second
	DefaultMaxRetries = 5
	pollInterval      = 50 * time.Millisecond
)

// Config holds configuration for a replay run.
type Config struct {
	BaseURL    string        // Base URL of the service
	SessionID  string        // Target session; the capture's own or a fresh uuid when empty
	BatchSize  int           // Events per POST
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the workers to catch up
	MaxRetries int           // Retries per batch on 429; negative disables
	Flush      bool          // Release held events before fetching the report
	Events     bool          // Include normalized events in the report
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = DefaultMaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	return c
}

// Stats holds replay statistics.
type Stats struct {
	SessionID string        `json:"sessionId"`
	Batches   int           `json:"batches"`
	Events    int           `json:"events"`
	Accepted  int           `json:"accepted"`
	Malformed int           `json:"malformed"`
	Retries   int           `json:"retries"`
	Released  int           `json:"released"`
	Duration  time.Duration `json:"duration"`
}
