// Package analysis wires the pipeline stages together: timestamp
// resolution and ordering, the dedup filter, normalization, categorization,
// scoring and report assembly.
package analysis

import (
	"context"
	"sort"

	"github.com/okian/auscult/internal/domain/categorize"
	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/normalize"
	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/scoring"
	"github.com/okian/auscult/internal/domain/vocab"
	"github.com/okian/auscult/pkg/metrics"
)

// Pipeline holds the stateless stages. Filters are per session and created
// through NewFilter. A Pipeline is safe for concurrent use.
type Pipeline struct {
	lx         *vocab.Lexicon
	normalizer *normalize.Normalizer
	categories *categorize.Categorizer
	scorer     *scoring.Scorer
	assembler  *report.Assembler
	filterOpts []dedupe.Option
}

// Option configures a Pipeline.
type Option func(*config)

type config struct {
	normalizeOpts []normalize.Option
	scoringOpts   []scoring.Option
	reportOpts    []report.Option
	filterOpts    []dedupe.Option
}

// WithNormalizeOptions passes options to the normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(c *config) { c.normalizeOpts = append(c.normalizeOpts, opts...) }
}

// WithScoringOptions passes options to the scorer.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(c *config) { c.scoringOpts = append(c.scoringOpts, opts...) }
}

// WithReportOptions passes options to the report assembler.
func WithReportOptions(opts ...report.Option) Option {
	return func(c *config) { c.reportOpts = append(c.reportOpts, opts...) }
}

// WithFilterOptions sets the options every new filter is built with.
func WithFilterOptions(opts ...dedupe.Option) Option {
	return func(c *config) { c.filterOpts = append(c.filterOpts, opts...) }
}

// New builds a pipeline over lx.
func New(lx *vocab.Lexicon, opts ...Option) *Pipeline {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &Pipeline{
		lx:         lx,
		normalizer: normalize.New(lx, c.normalizeOpts...),
		categories: categorize.New(lx),
		scorer:     scoring.NewScorer(c.scoringOpts...),
		assembler:  report.NewAssembler(lx, c.reportOpts...),
		filterOpts: c.filterOpts,
	}
}

// Lexicon returns the compiled vocabulary.
func (p *Pipeline) Lexicon() *vocab.Lexicon { return p.lx }

// NewFilter creates a dedup filter for one session. Extra options are
// applied after the pipeline defaults.
func (p *Pipeline) NewFilter(sink dedupe.Sink, opts ...dedupe.Option) *dedupe.Filter {
	all := make([]dedupe.Option, 0, len(p.filterOpts)+len(opts))
	all = append(all, p.filterOpts...)
	all = append(all, opts...)
	return dedupe.NewFilter(p.lx, sink, all...)
}

// Order resolves every timestamp to epoch milliseconds and sorts the events
// by it. Events with equal timestamps keep their arrival order. The input
// slice is not modified.
func (p *Pipeline) Order(raws []model.RawEvent) []model.RawEvent {
	out := make([]model.RawEvent, len(raws))
	for i, r := range raws {
		r.Timestamp = model.Millis(p.normalizer.Timestamp(r.Timestamp))
		out[i] = r
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Millis < out[j].Timestamp.Millis
	})
	return out
}

// Process normalizes, categorizes and scores one accepted event.
func (p *Pipeline) Process(raw model.RawEvent) model.NormalizedEvent {
	ev := p.normalizer.Normalize(raw)
	p.Classify(&ev)
	metrics.RecordCategory(string(ev.Category), ev.Confidence)
	return ev
}

// Classify re-runs the categorizer and the scorer on ev.
func (p *Pipeline) Classify(ev *model.NormalizedEvent) {
	p.categories.Categorize(ev)
	p.scorer.Apply(ev)
}

// Assemble builds a report over events already in timestamp order.
func (p *Pipeline) Assemble(events []model.NormalizedEvent) report.Report {
	return p.assembler.Assemble(events)
}

// Result is the outcome of a one-shot analysis.
type Result struct {
	Report report.Report
	Events []model.NormalizedEvent
	Audit  dedupe.Audit
	Stats  dedupe.Stats
}

// Analyze runs a whole batch through a fresh filter and returns the
// report. Held decisions are flushed at the end of the batch.
func (p *Pipeline) Analyze(ctx context.Context, raws []model.RawEvent) Result {
	events := make([]model.NormalizedEvent, 0, len(raws))
	f := p.NewFilter(dedupe.SinkFunc(func(_ context.Context, raw model.RawEvent) {
		events = append(events, p.Process(raw))
	}))

	metrics.RecordEventsReceived(len(raws))
	for _, raw := range p.Order(raws) {
		f.Submit(ctx, raw)
	}
	f.Flush(ctx)

	sort.SliceStable(events, func(i, j int) bool { return events[i].TS < events[j].TS })
	return Result{
		Report: p.Assemble(events),
		Events: events,
		Audit:  f.Audit(),
		Stats:  f.Stats(),
	}
}
