// Package scoring computes the heuristic confidence of a categorized event.
package scoring

import (
	"math"
	"strings"

	"github.com/okian/auscult/internal/domain/model"
)

// Default adjustment weights.
const (
	defaultNativeKind   = 0.3
	defaultSupportKind  = 0.2
	defaultStableID     = 0.25
	defaultTextMatch    = 0.2
	defaultScreenMatch  = 0.15
	defaultPriceOnCart  = 0.1
	defaultTextOnly     = -0.2
	defaultWebSurface   = -0.15
	defaultUnlistedBase = 0.35
)

var defaultBase = map[model.Category]float64{
	model.Click:       0.6,
	model.Scroll:      0.6,
	model.Navigation:  0.55,
	model.FormEntry:   0.55,
	model.AddToCart:   0.5,
	model.CartView:    0.45,
	model.Search:      0.45,
	model.ProductList: 0.4,
	model.Unknown:     0.1,
}

// nativeKind is the raw kind that signals a category by itself.
var nativeKind = map[model.Category]string{
	model.Click:      model.KindClick,
	model.Scroll:     model.KindScroll,
	model.AddToCart:  model.KindAddToCart,
	model.Navigation: model.KindWindowChanged,
	model.FormEntry:  model.KindTextChanged,
}

// supportKinds are raw kinds that corroborate a category without naming it.
var supportKinds = map[model.Category][]string{
	model.AddToCart:         {model.KindClick},
	model.CartView:          {model.KindClick, model.KindContentChanged},
	model.Search:            {model.KindClick},
	model.CheckoutStart:     {model.KindClick},
	model.Payment:           {model.KindClick},
	model.OrderConfirmation: {model.KindClick},
	model.LoginOrRegister:   {model.KindClick},
	model.FilterOrSort:      {model.KindClick},
	model.ProductList:       {model.KindScroll},
	model.ProductDetail:     {model.KindContentChanged},
	model.Navigation:        {model.KindViewed},
}

// coherentScreens lists the screen guesses that agree with a category.
var coherentScreens = map[model.Category][]model.Category{
	model.AddToCart:     {model.ProductDetail, model.ProductList},
	model.ProductList:   {model.ProductDetail, model.ProductList},
	model.ProductDetail: {model.ProductDetail},
	model.CartView:      {model.CartView},
	model.Search:        {model.Search},
	model.CheckoutStart: {model.CartView, model.ProductDetail},
	model.Payment:       {model.ProductDetail},
}

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithBaseConfidence overrides the starting value of some categories.
// Values outside [0,1] are ignored.
func WithBaseConfidence(base map[model.Category]float64) Option {
	return func(s *Scorer) {
		for c, v := range base {
			if c.Valid() && v >= 0 && v <= 1 {
				s.base[c] = v
			}
		}
	}
}

// WithPenalties overrides the text-only and web-surface penalties. Both are
// given as positive amounts.
func WithPenalties(textOnly, webSurface float64) Option {
	return func(s *Scorer) {
		if textOnly >= 0 {
			s.textOnly = -textOnly
		}
		if webSurface >= 0 {
			s.webSurface = -webSurface
		}
	}
}

// Scorer is a pure function of an event and its category: the same input
// always yields the same confidence.
type Scorer struct {
	base        map[model.Category]float64
	nativeKind  float64
	supportKind float64
	stableID    float64
	textMatch   float64
	screenMatch float64
	priceOnCart float64
	textOnly    float64
	webSurface  float64
}

// NewScorer creates a Scorer with the default weights.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		base:        make(map[model.Category]float64, len(defaultBase)),
		nativeKind:  defaultNativeKind,
		supportKind: defaultSupportKind,
		stableID:    defaultStableID,
		textMatch:   defaultTextMatch,
		screenMatch: defaultScreenMatch,
		priceOnCart: defaultPriceOnCart,
		textOnly:    defaultTextOnly,
		webSurface:  defaultWebSurface,
	}
	for c, v := range defaultBase {
		s.base[c] = v
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Base returns the starting confidence of a category.
func (s *Scorer) Base(c model.Category) float64 {
	if v, ok := s.base[c]; ok {
		return v
	}
	return defaultUnlistedBase
}

// Score returns the confidence of ev for its current category, in [0,1].
func (s *Scorer) Score(ev *model.NormalizedEvent) float64 {
	c := ev.Category
	score := s.Base(c)

	switch {
	case nativeKind[c] != "" && nativeKind[c] == ev.RawKind:
		score += s.nativeKind
	case contains(supportKinds[c], ev.RawKind):
		score += s.supportKind
	}

	hasID := ev.Widget.ID != ""
	if hasID {
		score += s.stableID
	}
	if ev.HasEvidence(model.EvidenceTextMatch) {
		score += s.textMatch
		if !hasID {
			score += s.textOnly
		}
	}
	if screen := ev.Context.ScreenGuess; screen != "" {
		for _, ok := range coherentScreens[c] {
			if ok == screen {
				score += s.screenMatch
				break
			}
		}
	}
	if c == model.AddToCart && ev.HasEvidence(model.EvidencePrice) {
		score += s.priceOnCart
	}
	if ev.HasEvidence(model.EvidenceWebSurface) {
		score += s.webSurface
	}

	return clamp(score)
}

// Apply scores ev and stores the result on it.
func (s *Scorer) Apply(ev *model.NormalizedEvent) {
	ev.Confidence = s.Score(ev)
}

func clamp(v float64) float64 {
	v = math.Round(v*1000) / 1000
	return math.Max(0, math.Min(1, v))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
