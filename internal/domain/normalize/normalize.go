// Package normalize turns raw accessibility events into the canonical
// NormalizedEvent shape. It never fails and never drops an event: missing
// or malformed fields degrade to defaults here so later stages only see
// resolved values.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
)

const unknownScreen = "unknown"

// platformKinds maps platform event names onto canonical kinds.
var platformKinds = map[string]string{
	"type_view_clicked":           model.KindClick,
	"type_view_long_clicked":      model.KindClick,
	"type_view_scrolled":          model.KindScroll,
	"type_window_content_changed": model.KindContentChanged,
	"type_view_text_changed":      model.KindTextChanged,
	"type_window_state_changed":   model.KindWindowChanged,
	"type_windows_changed":        model.KindWindowChanged,
	"add_to_cart":                 model.KindAddToCart,
	"addtocart":                   model.KindAddToCart,
	"content_changed":             model.KindContentChanged,
	"text_changed":                model.KindTextChanged,
	"window_changed":              model.KindWindowChanged,
	"clicked":                     model.KindClick,
	"scrolled":                    model.KindScroll,
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// CanonicalKind maps a platform event name onto a canonical raw kind.
// Unknown names pass through lowercased.
func CanonicalKind(kind string) string {
	k := strings.ToLower(strings.TrimSpace(kind))
	if c, ok := platformKinds[k]; ok {
		return c
	}
	return k
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the clock used for missing or unparsable timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// Normalizer resolves raw events. It is safe for concurrent use.
type Normalizer struct {
	lx  *vocab.Lexicon
	now func() time.Time
}

// New creates a Normalizer backed by lx.
func New(lx *vocab.Lexicon, opts ...Option) *Normalizer {
	n := &Normalizer{lx: lx, now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Timestamp resolves a capture timestamp to epoch milliseconds.
func (n *Normalizer) Timestamp(t *model.EventTime) int64 {
	if t == nil {
		return n.now().UnixMilli()
	}
	if t.Numeric {
		return t.Millis
	}
	s := strings.TrimSpace(t.Text)
	if s == "" {
		return n.now().UnixMilli()
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UnixMilli()
		}
	}
	return n.now().UnixMilli()
}

// Normalize produces the canonical form of raw. Category, confidence and
// evidence are left for the categorizer and the scorer.
func (n *Normalizer) Normalize(raw model.RawEvent) model.NormalizedEvent {
	ev := model.NormalizedEvent{
		TS:        n.Timestamp(raw.Timestamp),
		SourceApp: strings.TrimSpace(raw.SourceApp),
		RawKind:   CanonicalKind(raw.RawKind),
		Category:  model.Unknown,
		Evidence:  []string{},
	}

	hints := raw.ProductHints
	if hints == nil {
		hints = &model.ProductHints{}
	}

	if el := raw.Element; el != nil {
		ev.Widget = model.Widget{
			ClassName:   el.ClassName,
			ID:          strings.TrimSpace(el.ID),
			Description: strings.TrimSpace(el.Description),
		}
		ev.Bounds, ev.ApproxCenter = resolveBounds(el.Bounds)
		ev.Widget.Text = firstNonEmpty(el.Text, hints.ProductName, hints.CartAction)
	} else {
		ev.Widget.Text = firstNonEmpty(hints.ProductName, hints.CartAction)
	}

	ev.Texts = collectTexts(raw, hints)
	text := vocab.NewText(ev.Texts...)

	ev.Context = model.Context{
		ScreenGuess:  n.screenGuess(text),
		ProductGuess: n.productGuess(hints),
		Container:    strings.TrimSpace(raw.ScrollContext),
	}

	ev.ScreenOrActivity = firstNonEmpty(raw.Activity, string(ev.Context.ScreenGuess))
	if ev.ScreenOrActivity == "" {
		ev.ScreenOrActivity = unknownScreen
	}
	return ev
}

// screenGuess reads the kind of screen from content signals alone.
func (n *Normalizer) screenGuess(t vocab.Text) model.Category {
	switch {
	case t.Empty():
		return ""
	case n.lx.HasCurrency(t):
		return model.ProductDetail
	case n.lx.HasCart(t):
		return model.CartView
	case n.lx.HasSearch(t):
		return model.Search
	}
	return ""
}

func (n *Normalizer) productGuess(h *model.ProductHints) *model.ProductGuess {
	title := strings.TrimSpace(h.ProductName)
	price := strings.TrimSpace(h.Price)
	if price != "" {
		if _, ok := vocab.ParsePrice(price); !ok {
			price = ""
		}
	}
	if price == "" && title != "" {
		price, _ = n.lx.FindPrice(title)
	}
	if title == "" && price == "" {
		return nil
	}
	return &model.ProductGuess{Title: title, Price: price}
}

func resolveBounds(b *model.RawBounds) (*model.Bounds, *model.Point) {
	if b == nil || !b.Left.Valid || !b.Top.Valid || !b.Right.Valid || !b.Bottom.Valid {
		return nil, nil
	}
	bounds := &model.Bounds{
		Left:   b.Left.Value,
		Top:    b.Top.Value,
		Right:  b.Right.Value,
		Bottom: b.Bottom.Value,
	}
	center := &model.Point{
		X: (bounds.Left + bounds.Right) / 2,
		Y: (bounds.Top + bounds.Bottom) / 2,
	}
	return bounds, center
}

// collectTexts gathers every visible fragment once, in capture order.
func collectTexts(raw model.RawEvent, h *model.ProductHints) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if el := raw.Element; el != nil {
		add(el.Text)
		add(el.Description)
	}
	add(h.ProductName)
	add(h.Price)
	add(h.CartAction)
	for _, t := range h.AllTexts {
		add(t)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
