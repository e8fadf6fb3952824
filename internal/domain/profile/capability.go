package profile

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/auscult/internal/domain/categorize"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Thresholds.
const (
	richnessMedium = 25
	richnessHigh   = 60
	webMedium      = 0.2
	webHigh        = 0.5

	maxPatternExamples = 5
)

// BuildCapabilities computes the capability map in one pass over events.
func BuildCapabilities(lx *vocab.Lexicon, events []model.NormalizedEvent) model.CapabilityMap {
	cm := model.CapabilityMap{
		TextRichness:  model.Low,
		KnownPatterns: make(map[model.Category][]string),
		Structure:     model.StructureHints{EmbeddedWeb: model.Low},
	}
	if len(events) == 0 {
		return cm
	}

	patterns := categorize.PatternCategories()
	var textChars, textEvents, webEvents int

	for _, ev := range events {
		switch ev.RawKind {
		case model.KindClick:
			cm.EmitsClicks = true
		case model.KindScroll:
			cm.EmitsScrolls = true
		}
		if ev.Widget.ID != "" {
			cm.ExposesStableIDs = true
		}

		if text := eventText(ev); text != "" {
			textChars += utf8.RuneCountInString(text)
			textEvents++
		}

		class := ev.Widget.ClassName
		if class != "" {
			if lx.IsListClass(class) {
				cm.Structure.HasListContainer = true
			}
			if lx.IsTabClass(class) {
				cm.Structure.HasTabs = true
			}
			if lx.IsBottomNavClass(class) {
				cm.Structure.HasBottomNav = true
			}
		}
		if lx.IsWebClass(class) || ev.HasEvidence(model.EvidenceWebSurface) {
			webEvents++
		}

		addPattern(cm.KnownPatterns, patterns, ev)
	}

	if textEvents > 0 {
		cm.TextRichness = richness(float64(textChars) / float64(textEvents))
	}
	cm.Structure.EmbeddedWebRatio = float64(webEvents) / float64(len(events))
	cm.Structure.EmbeddedWeb = webLevel(cm.Structure.EmbeddedWebRatio)
	return cm
}

// addPattern keeps up to maxPatternExamples distinct labels per category,
// for events whose category came from a rule pattern.
func addPattern(known map[model.Category][]string, patterns map[string]model.Category, ev model.NormalizedEvent) {
	if ev.Category == model.Unknown {
		return
	}
	matched := false
	for _, tag := range ev.Evidence {
		if patterns[tag] == ev.Category {
			matched = true
			break
		}
	}
	if !matched {
		return
	}
	examples := known[ev.Category]
	if len(examples) >= maxPatternExamples {
		return
	}
	label := Label(ev)
	for _, e := range examples {
		if e == label {
			return
		}
	}
	known[ev.Category] = append(examples, label)
}

func eventText(ev model.NormalizedEvent) string {
	if s := strings.TrimSpace(ev.Widget.Text); s != "" {
		return s
	}
	return strings.TrimSpace(ev.Widget.Description)
}

func richness(avg float64) model.Level {
	switch {
	case avg >= richnessHigh:
		return model.High
	case avg >= richnessMedium:
		return model.Medium
	default:
		return model.Low
	}
}

func webLevel(ratio float64) model.Level {
	switch {
	case ratio >= webHigh:
		return model.High
	case ratio >= webMedium:
		return model.Medium
	default:
		return model.Low
	}
}
