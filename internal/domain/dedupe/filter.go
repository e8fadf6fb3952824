// Package dedupe implements the dedup and quality filter that gates which
// cart-intent events reach storage.
//
// A Filter decides accept, reject or reroute for every event of one session,
// in timestamp order. Two cart-intent events of the same kind and product
// identity are never both accepted within the window. Navigation chrome that only
// looks like cart intent is relabeled "viewed" and accepted. Everything the
// filter turns away lands in one of three capped audit buckets.
//
// With a hold interval configured, an acceptance is parked as a Task. A
// same-identity event arriving within the hold interval cancels it and takes
// its place; otherwise the task is emitted once its deadline passes, checked
// by Expire, or at the latest by Flush.
//
// A Filter is owned by one session and is not safe for concurrent use.
package dedupe

import (
	"context"
	"time"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/normalize"
	"github.com/okian/auscult/internal/domain/vocab"
	"github.com/okian/auscult/pkg/logger"
	"github.com/okian/auscult/pkg/metrics"
)

// Defaults.
const (
	DefaultWindow            = 2 * time.Second
	DefaultHold              = 500 * time.Millisecond
	DefaultMaxEntries        = 10000
	DefaultMinIdentityLength = 5
	DefaultAuditCapacity     = 200
)

// Outcome is the filter's decision for one event.
type Outcome string

const (
	Accepted Outcome = "accepted"
	Rejected Outcome = "rejected"
	Rerouted Outcome = "rerouted"
	Held     Outcome = "held"
)

// Decision explains what happened to a submitted event.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Reason   string  `json:"reason,omitempty"`
	Bucket   Bucket  `json:"bucket,omitempty"`
	Identity string  `json:"identity,omitempty"`
	Score    int     `json:"score"`
}

// Sink receives the events the filter lets through, in decision order.
type Sink interface {
	Accept(ctx context.Context, ev model.RawEvent)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, ev model.RawEvent)

// Accept calls fn.
func (fn SinkFunc) Accept(ctx context.Context, ev model.RawEvent) { fn(ctx, ev) }

// Stats counts decisions since the filter was created.
type Stats struct {
	Received      int `json:"received"`
	Accepted      int `json:"accepted"`
	Rejected      int `json:"rejected"`
	Rerouted      int `json:"rerouted"`
	Duplicates    int `json:"duplicates"`
	Consolidated  int `json:"consolidated"`
	Pending       int `json:"pending"`
	WindowEntries int `json:"windowEntries"`
	Evicted       int `json:"evicted"`
}

// Filter is the per-session dedup and quality gate.
type Filter struct {
	lx   *vocab.Lexicon
	sink Sink

	window        int64
	hold          time.Duration
	maxEntries    int
	minIdentity   int
	auditCapacity int
	clock         Clock
	log           logger.Logger

	cache *windowCache
	held  *holdBuffer
	audit *auditLog
	stats Stats
}

// NewFilter creates a Filter that forwards accepted events to sink.
func NewFilter(lx *vocab.Lexicon, sink Sink, opts ...Option) *Filter {
	f := &Filter{
		lx:            lx,
		sink:          sink,
		window:        DefaultWindow.Milliseconds(),
		hold:          DefaultHold,
		maxEntries:    DefaultMaxEntries,
		minIdentity:   DefaultMinIdentityLength,
		auditCapacity: DefaultAuditCapacity,
		clock:         systemClock{},
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.log == nil {
		f.log = logger.Get().Named("dedupe")
	}
	if f.sink == nil {
		f.sink = SinkFunc(func(context.Context, model.RawEvent) {})
	}
	if f.hold.Milliseconds() >= f.window {
		f.hold = 0
	}

	f.cache = newWindowCache(f.maxEntries)
	f.held = newHoldBuffer()
	f.audit = newAuditLog(f.auditCapacity)
	return f
}

// Submit decides the fate of raw. Its Timestamp must already be resolved to
// epoch milliseconds; events must arrive in timestamp order.
func (f *Filter) Submit(ctx context.Context, raw model.RawEvent) Decision {
	f.Expire(ctx, f.clock.Now())
	f.stats.Received++

	ts := eventMillis(raw)
	if n := f.cache.evictBefore(ts - 2*f.window); n > 0 {
		f.stats.Evicted += n
		metrics.RecordWindowEvictions(n)
	}

	if !cartIntent(raw) {
		f.emit(ctx, raw)
		return f.decided(Decision{Outcome: Accepted})
	}

	a := f.assess(raw)
	switch {
	case a.reroute:
		f.record(raw, a, Rerouted)
		f.stats.Rerouted++
		f.sink.Accept(ctx, reroute(raw))
		return f.decided(Decision{Outcome: Rerouted, Reason: a.reason, Bucket: a.bucket})
	case a.reason != "":
		return f.reject(ctx, raw, a)
	}

	sig := newSignature(normalize.CanonicalKind(raw.RawKind), a.identity, ts)
	key := sig.key()

	if t, ok := f.held.pending(key); ok {
		if f.hold > 0 && ts-t.sig.ts <= f.hold.Milliseconds() {
			f.held.cancel(key)
			f.stats.Consolidated++
			metrics.RecordFilterDecision(metrics.DecisionConsolidated)
			f.log.Debug(ctx, "held event consolidated",
				logger.String("identity", a.identity),
				logger.Int64("replaced_ts", t.sig.ts),
				logger.Int64("ts", ts))
			f.cache.insert(key, ts)
			f.held.schedule(raw, sig, f.clock.Now().Add(f.hold))
			return f.decided(Decision{Outcome: Held, Reason: ReasonConsolidated, Identity: a.identity, Score: a.score})
		}
	}

	if last, ok := f.cache.last(key); ok && abs(ts-last) < f.window {
		a.reason = ReasonDuplicate
		a.bucket = BucketGeneric
		f.stats.Duplicates++
		return f.reject(ctx, raw, a)
	}

	if t, ok := f.held.take(key); ok {
		f.emit(ctx, t.event)
	}
	if n := f.cache.insert(key, ts); n > 0 {
		f.stats.Evicted += n
		metrics.RecordWindowEvictions(n)
	}

	if f.hold > 0 {
		f.held.schedule(raw, sig, f.clock.Now().Add(f.hold))
		return f.decided(Decision{Outcome: Held, Identity: a.identity, Score: a.score})
	}
	f.emit(ctx, raw)
	return f.decided(Decision{Outcome: Accepted, Identity: a.identity, Score: a.score})
}

// Expire emits every held decision whose deadline is not after now and
// returns how many were emitted.
func (f *Filter) Expire(ctx context.Context, now time.Time) int {
	ready := f.held.due(now)
	for _, t := range ready {
		f.emit(ctx, t.event)
	}
	return len(ready)
}

// Flush emits every held decision immediately.
func (f *Filter) Flush(ctx context.Context) int {
	ready := f.held.drain()
	for _, t := range ready {
		f.emit(ctx, t.event)
	}
	return len(ready)
}

// Audit returns a copy of the audit buckets.
func (f *Filter) Audit() Audit { return f.audit.snapshot() }

// Stats returns the decision counters.
func (f *Filter) Stats() Stats {
	s := f.stats
	s.Pending = f.held.len()
	s.WindowEntries = f.cache.len()
	return s
}

// emit forwards an accepted event. Reroutes bypass it so they are counted
// once, as Rerouted.
func (f *Filter) emit(ctx context.Context, ev model.RawEvent) {
	f.stats.Accepted++
	f.sink.Accept(ctx, ev)
}

func (f *Filter) reject(ctx context.Context, raw model.RawEvent, a assessment) Decision {
	f.record(raw, a, Rejected)
	f.stats.Rejected++
	metrics.RecordFilterRejection(string(a.bucket), a.reason)
	f.log.Debug(ctx, "cart event rejected",
		logger.String("reason", a.reason),
		logger.String("bucket", string(a.bucket)),
		logger.String("text", a.text),
		logger.String("term", a.term))

	d := Decision{Outcome: Rejected, Reason: a.reason, Bucket: a.bucket, Identity: a.identity, Score: a.score}
	if a.reason == ReasonDuplicate {
		metrics.RecordFilterDecision(metrics.DecisionDuplicate)
		return d
	}
	return f.decided(d)
}

func (f *Filter) record(raw model.RawEvent, a assessment, o Outcome) {
	f.audit.record(a.bucket, AuditEntry{
		TS:        eventMillis(raw),
		Outcome:   o,
		Reason:    a.reason,
		Term:      a.term,
		Text:      a.text,
		Identity:  a.identity,
		SourceApp: raw.SourceApp,
		RawKind:   raw.RawKind,
	})
}

func (f *Filter) decided(d Decision) Decision {
	metrics.RecordFilterDecision(string(d.Outcome))
	return d
}

// reroute strips cart intent from raw and relabels it as a neutral view.
func reroute(raw model.RawEvent) model.RawEvent {
	out := raw
	out.RawKind = model.KindViewed
	if raw.ProductHints != nil {
		h := *raw.ProductHints
		h.CartAction = ""
		out.ProductHints = &h
	}
	return out
}

func eventMillis(raw model.RawEvent) int64 {
	if raw.Timestamp == nil {
		return 0
	}
	return raw.Timestamp.Millis
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
