package profile

import (
	"strings"

	"github.com/okian/auscult/internal/domain/model"
)

// Label is the best human-readable text for an event.
func Label(ev model.NormalizedEvent) string {
	if s := strings.TrimSpace(ev.Widget.Text); s != "" {
		return s
	}
	if s := strings.TrimSpace(ev.Widget.Description); s != "" {
		return s
	}
	if g := ev.Context.ProductGuess; g != nil && strings.TrimSpace(g.Title) != "" {
		return strings.TrimSpace(g.Title)
	}
	return ev.Category.Label()
}

// BuildTimeline collapses runs of the same category and drops UNKNOWN.
// Each entry keeps the timestamp, label and confidence of the first event
// of its run. Events must be in timestamp order.
func BuildTimeline(events []model.NormalizedEvent) []model.TimelineEntry {
	out := make([]model.TimelineEntry, 0, len(events))
	for _, ev := range events {
		if ev.Category == model.Unknown || !ev.Category.Valid() {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Category == ev.Category {
			continue
		}
		out = append(out, model.TimelineEntry{
			TS:         ev.TS,
			Category:   ev.Category,
			Label:      Label(ev),
			Confidence: ev.Confidence,
		})
	}
	return out
}
