// Package categorize assigns every normalized event exactly one category of
// the taxonomy, together with the evidence tags that justify it.
package categorize

import (
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Categorizer runs the ordered rule table. It holds no mutable state and is
// safe for concurrent use.
type Categorizer struct {
	lx    *vocab.Lexicon
	rules []Rule
}

// New creates a Categorizer over the default rule table.
func New(lx *vocab.Lexicon) *Categorizer {
	return &Categorizer{lx: lx, rules: table}
}

// Categorize sets Category, Evidence and WasInferred on ev. Earlier results
// are discarded first, so running it twice gives the same outcome.
func (c *Categorizer) Categorize(ev *model.NormalizedEvent) {
	ev.Category = model.Unknown
	ev.WasInferred = false
	ev.Evidence = make([]string, 0, 8)

	s := c.signals(ev)
	ev.Evidence = append(ev.Evidence, model.EvidenceRawPrefix+orUnknown(s.Kind))

	matched := false
	for _, r := range c.rules {
		if !r.match(c.lx, s) {
			continue
		}
		ev.Category = r.Category
		ev.WasInferred = r.Inferred
		if r.Pattern != "" {
			ev.Evidence = append(ev.Evidence, r.Pattern)
		}
		if r.Text != nil {
			ev.Evidence = append(ev.Evidence, model.EvidenceTextMatch)
		}
		matched = true
		break
	}
	if !matched {
		ev.Evidence = append(ev.Evidence, NoRule)
	}

	c.attachProductGuess(ev, s)

	if s.Price {
		ev.Evidence = append(ev.Evidence, model.EvidencePrice)
	}
	if ev.Widget.ID != "" {
		ev.Evidence = append(ev.Evidence, model.EvidenceStableID)
	}
	if g := ev.Context.ScreenGuess; g != "" {
		ev.Evidence = append(ev.Evidence, model.EvidenceScreenPrefix+string(g))
	}
	if c.lx.IsWebClass(ev.Widget.ClassName) {
		ev.Evidence = append(ev.Evidence, model.EvidenceWebSurface)
	}
	if ev.Context.ProductGuess != nil {
		ev.Evidence = append(ev.Evidence, model.EvidenceProductGuess)
	}
}

func (c *Categorizer) signals(ev *model.NormalizedEvent) Signals {
	fragments := make([]string, 0, len(ev.Texts)+2)
	fragments = append(fragments, ev.Widget.Text, ev.Widget.Description)
	fragments = append(fragments, ev.Texts...)
	visible := vocab.NewText(fragments...)
	return Signals{
		Kind:    ev.RawKind,
		Text:    vocab.NewText(ev.Widget.Text, ev.Widget.Description),
		Visible: visible,
		Price:   c.lx.HasCurrency(visible),
		Event:   ev,
	}
}

// attachProductGuess fills a missing product guess from a price token found
// in the event text, whatever the category.
func (c *Categorizer) attachProductGuess(ev *model.NormalizedEvent, s Signals) {
	if ev.Context.ProductGuess != nil || !s.Price {
		return
	}
	price, ok := c.lx.FindPrice(s.Visible.Raw)
	if !ok {
		return
	}
	title := ""
	for _, t := range ev.Texts {
		if _, hasPrice := c.lx.FindPrice(t); hasPrice {
			continue
		}
		if id := c.lx.Identity(t); id != "" && !c.lx.IsNavigation(vocab.NewText(t)) && c.lx.ProductKeywordHits(vocab.NewText(t)) > 0 {
			title = t
			break
		}
	}
	ev.Context.ProductGuess = &model.ProductGuess{Title: title, Price: price}
}

func orUnknown(kind string) string {
	if kind == "" {
		return "unknown"
	}
	return kind
}
