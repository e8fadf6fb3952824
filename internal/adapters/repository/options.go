package repository

import "time"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithMaxEventsPerSession caps each session's history; the oldest events go first.
func WithMaxEventsPerSession(n int) Option {
	return func(s *MemStore) {
		if n > 0 {
			s.maxPerSession = n
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *MemStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
