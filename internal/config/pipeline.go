package config

import (
	"fmt"

	"github.com/okian/auscult/internal/domain/analysis"
	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/report"
	"github.com/okian/auscult/internal/domain/vocab"
)

// FilterOptions maps the dedup settings onto filter options.
func (c *Config) FilterOptions() []dedupe.Option {
	return []dedupe.Option{
		dedupe.WithWindow(c.DedupeWindow()),
		dedupe.WithHold(c.Hold()),
		dedupe.WithMaxEntries(c.DedupeMaxEntries),
		dedupe.WithMinIdentityLength(c.MinIdentityLength),
		dedupe.WithAuditCapacity(c.AuditCapacity),
	}
}

// Pipeline compiles the configured vocabulary and builds the analysis
// pipeline with the configured filter and report limits.
func (c *Config) Pipeline() (*analysis.Pipeline, error) {
	v, err := vocab.LoadFile(c.VocabularyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return analysis.New(vocab.Compile(v),
		analysis.WithFilterOptions(c.FilterOptions()...),
		analysis.WithReportOptions(
			report.WithMaxInferences(c.MaxInferences),
			report.WithBucketLimit(c.ConfidenceBucketLimit),
		),
	), nil
}
