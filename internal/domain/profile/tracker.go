// Package profile folds a session's normalized events into the app profile,
// the collapsed timeline and the capability map.
package profile

import (
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Tracker maintains the AppProfile of one session as events are accepted.
// It is not safe for concurrent use.
type Tracker struct {
	lx      *vocab.Lexicon
	profile model.AppProfile
}

// NewTracker creates an empty tracker.
func NewTracker(lx *vocab.Lexicon) *Tracker {
	return &Tracker{lx: lx}
}

// Observe folds one accepted event into the profile.
func (t *Tracker) Observe(ev model.NormalizedEvent) {
	p := &t.profile
	if p.EventCount == 0 || ev.TS < p.FirstSeen {
		p.FirstSeen = ev.TS
	}
	if p.EventCount == 0 || ev.TS > p.LastSeen {
		p.LastSeen = ev.TS
	}
	p.EventCount++

	if p.SourceApp == "" && ev.SourceApp != "" && !t.lx.IsSystemPackage(ev.SourceApp) {
		p.SourceApp = ev.SourceApp
	}
	if p.LikelyBrand == nil && p.SourceApp != "" {
		if b, ok := t.lx.Brand(p.SourceApp); ok {
			p.LikelyBrand = &b
		}
	}
}

// Profile returns a copy of the current profile.
func (t *Tracker) Profile() model.AppProfile {
	p := t.profile
	if p.LikelyBrand != nil {
		b := *p.LikelyBrand
		p.LikelyBrand = &b
	}
	return p
}

// BuildProfile folds events into a fresh profile.
func BuildProfile(lx *vocab.Lexicon, events []model.NormalizedEvent) model.AppProfile {
	t := NewTracker(lx)
	for _, ev := range events {
		t.Observe(ev)
	}
	return t.Profile()
}
