package dedupe

import (
	"time"

	"github.com/okian/auscult/pkg/logger"
)

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithWindow sets the minimum spacing between two accepted events of the
// same product identity.
func WithWindow(d time.Duration) Option {
	return func(f *Filter) {
		if d > 0 {
			f.window = d.Milliseconds()
		}
	}
}

// WithHold sets the hold-and-consolidate interval. Zero disables holding
// and decisions are emitted immediately.
func WithHold(d time.Duration) Option {
	return func(f *Filter) {
		if d >= 0 {
			f.hold = d
		}
	}
}

// WithMaxEntries bounds the window cache.
// If n <= 0 the cache is only bounded by time-based eviction.
func WithMaxEntries(n int) Option {
	return func(f *Filter) {
		f.maxEntries = n
	}
}

// WithMinIdentityLength sets the shortest acceptable product identity.
func WithMinIdentityLength(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.minIdentity = n
		}
	}
}

// WithAuditCapacity sets how many entries each audit bucket retains.
func WithAuditCapacity(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.auditCapacity = n
		}
	}
}

// WithClock sets the clock that drives hold expiry.
func WithClock(c Clock) Option {
	return func(f *Filter) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l
		}
	}
}
