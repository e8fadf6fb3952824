// Package report assembles the session report from already-scored events.
// It aggregates; it never re-decides a category or a confidence.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/profile"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Defaults.
const (
	DefaultMaxInferences = 20
	DefaultBucketLimit   = 50
	maxExamples          = 3
	maxSummaryActions    = 5
)

// Confidence bucket floors.
const (
	strongFloor = 0.8
	mediumFloor = 0.5
	weakFloor   = 0.3
)

// CategorySummary counts one category.
type CategorySummary struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
	Examples []string       `json:"examples"`
}

// Report is the full session audit artifact.
type Report struct {
	ID                string                    `json:"reportId,omitempty"`
	SessionID         string                    `json:"sessionId,omitempty"`
	GeneratedAt       int64                     `json:"generatedAt,omitempty"`
	AppProfile        model.AppProfile          `json:"appProfile"`
	CapabilityMap     model.CapabilityMap       `json:"capabilityMap"`
	SessionTimeline   []model.TimelineEntry     `json:"sessionTimeline"`
	CategorizedEvents []CategorySummary         `json:"categorizedEvents"`
	Inferences        []model.BusinessInference `json:"inferences"`
	ConfidenceReport  model.ConfidenceReport    `json:"confidenceReport"`
	OpenQuestions     []string                  `json:"openQuestions"`
	Summary           string                    `json:"summary"`
	Events            []model.NormalizedEvent   `json:"events,omitempty"`
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithMaxInferences caps the number of business inferences.
func WithMaxInferences(n int) Option {
	return func(a *Assembler) {
		if n >= 0 {
			a.maxInferences = n
		}
	}
}

// WithBucketLimit caps each confidence bucket.
func WithBucketLimit(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.bucketLimit = n
		}
	}
}

// Assembler builds reports. It is stateless and safe for concurrent use.
type Assembler struct {
	lx            *vocab.Lexicon
	maxInferences int
	bucketLimit   int
}

// NewAssembler creates an Assembler.
func NewAssembler(lx *vocab.Lexicon, opts ...Option) *Assembler {
	a := &Assembler{
		lx:            lx,
		maxInferences: DefaultMaxInferences,
		bucketLimit:   DefaultBucketLimit,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the report of a session from its events in timestamp
// order. Zero events yield a well-formed empty report.
func (a *Assembler) Assemble(events []model.NormalizedEvent) Report {
	r := Report{
		AppProfile:        profile.BuildProfile(a.lx, events),
		CapabilityMap:     profile.BuildCapabilities(a.lx, events),
		SessionTimeline:   profile.BuildTimeline(events),
		CategorizedEvents: summarize(events),
		Inferences:        a.inferences(events),
		ConfidenceReport:  a.confidence(events),
	}
	r.OpenQuestions = openQuestions(events, r.ConfidenceReport.Missing, r.CapabilityMap)
	r.Summary = summary(r)
	return r
}

type tally struct {
	summary   CategorySummary
	firstSeen int
	labels    map[string]*labelCount
	order     []string
}

type labelCount struct {
	count     int
	firstSeen int
}

// summarize counts events per category, sorted by count descending with
// ties broken by first appearance. Examples are the most frequent distinct
// labels, again ties by first appearance.
func summarize(events []model.NormalizedEvent) []CategorySummary {
	byCat := make(map[model.Category]*tally)
	var order []*tally
	for i, ev := range events {
		t, ok := byCat[ev.Category]
		if !ok {
			t = &tally{
				summary:   CategorySummary{Category: ev.Category},
				firstSeen: i,
				labels:    make(map[string]*labelCount),
			}
			byCat[ev.Category] = t
			order = append(order, t)
		}
		t.summary.Count++

		label := profile.Label(ev)
		lc, ok := t.labels[label]
		if !ok {
			lc = &labelCount{firstSeen: i}
			t.labels[label] = lc
			t.order = append(t.order, label)
		}
		lc.count++
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].summary.Count != order[j].summary.Count {
			return order[i].summary.Count > order[j].summary.Count
		}
		return order[i].firstSeen < order[j].firstSeen
	})

	out := make([]CategorySummary, 0, len(order))
	for _, t := range order {
		labels := append([]string(nil), t.order...)
		sort.SliceStable(labels, func(i, j int) bool {
			li, lj := t.labels[labels[i]], t.labels[labels[j]]
			if li.count != lj.count {
				return li.count > lj.count
			}
			return li.firstSeen < lj.firstSeen
		})
		if len(labels) > maxExamples {
			labels = labels[:maxExamples]
		}
		s := t.summary
		s.Examples = labels
		out = append(out, s)
	}
	return out
}

// inferences names business events for inferred categories and for events
// showing a price.
func (a *Assembler) inferences(events []model.NormalizedEvent) []model.BusinessInference {
	out := make([]model.BusinessInference, 0)
	for _, ev := range events {
		if len(out) >= a.maxInferences {
			break
		}
		if ev.Category == model.Unknown {
			continue
		}
		hasPrice := ev.HasEvidence(model.EvidencePrice)
		if !ev.WasInferred && !hasPrice {
			continue
		}
		hypothesis := string(ev.Category)
		if !ev.WasInferred {
			hypothesis = priceHypothesis(ev.Category)
		}
		out = append(out, model.BusinessInference{
			Hypothesis:      hypothesis,
			BecauseEvidence: append([]string(nil), ev.Evidence...),
			Confidence:      ev.Confidence,
		})
	}
	return out
}

func priceHypothesis(c model.Category) string {
	switch c {
	case model.AddToCart:
		return "ADD_TO_CART"
	case model.CartView:
		return "CART_OPENED"
	case model.ProductDetail:
		return "PRODUCT_DETAIL_VIEW"
	case model.ProductList:
		return "PRODUCT_LIST_VIEW"
	default:
		return "PRICE_DISPLAYED"
	}
}

func (a *Assembler) confidence(events []model.NormalizedEvent) model.ConfidenceReport {
	cr := model.ConfidenceReport{
		Strong: []string{},
		Medium: []string{},
		Weak:   []string{},
	}
	seen := make(map[model.Category]bool)
	for _, ev := range events {
		if ev.Category == model.Unknown {
			continue
		}
		seen[ev.Category] = true

		desc := fmt.Sprintf("%s: %s (%.2f)", ev.Category, profile.Label(ev), ev.Confidence)
		switch {
		case ev.Confidence >= strongFloor:
			cr.Strong = appendCapped(cr.Strong, desc, a.bucketLimit)
		case ev.Confidence >= mediumFloor:
			cr.Medium = appendCapped(cr.Medium, desc, a.bucketLimit)
		case ev.Confidence >= weakFloor:
			cr.Weak = appendCapped(cr.Weak, desc, a.bucketLimit)
		}
	}

	cr.Missing = []model.Category{}
	for _, c := range model.Categories() {
		if c != model.Unknown && !seen[c] {
			cr.Missing = append(cr.Missing, c)
		}
	}
	return cr
}

func appendCapped(list []string, s string, limit int) []string {
	if len(list) >= limit {
		return list
	}
	return append(list, s)
}

// Suggestions.
const (
	QuestionCapture    = "No events captured: record a session on the target app and submit it"
	QuestionWebViews   = "Test embedded web views for payment/checkout"
	QuestionNavigation = "Test navigation between screens"
	QuestionPrices     = "Test product detail screens with prices"
)

var nextSteps = map[model.Category]string{
	model.Navigation:        QuestionNavigation,
	model.Click:             "Tap buttons to check that clicks are reported",
	model.Scroll:            "Scroll a product list to check that scrolls are reported",
	model.Search:            "Open the search screen and run a query",
	model.ProductList:       "Browse a product category listing",
	model.ProductDetail:     "Open a product detail page",
	model.AddToCart:         "Add a product to the cart",
	model.CartView:          "Open the cart",
	model.CheckoutStart:     "Start the checkout flow from the cart",
	model.Payment:           "Reach the payment step",
	model.OrderConfirmation: "Complete an order to reach the confirmation screen",
	model.LoginOrRegister:   "Log in or create an account",
	model.FilterOrSort:      "Apply a filter or a sort order on a listing",
	model.FormEntry:         "Type into a form field such as the search box",
}

func openQuestions(events []model.NormalizedEvent, missing []model.Category, cm model.CapabilityMap) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(q string) {
		if q != "" && !seen[q] {
			seen[q] = true
			out = append(out, q)
		}
	}

	if len(events) == 0 {
		add(QuestionCapture)
	}
	for _, c := range missing {
		add(nextSteps[c])
	}

	hasPrice := false
	for _, ev := range events {
		if ev.HasEvidence(model.EvidencePrice) {
			hasPrice = true
			break
		}
	}
	if cm.Structure.EmbeddedWebRatio == 0 {
		add(QuestionWebViews)
	}
	if !hasPrice {
		add(QuestionPrices)
	}
	return out
}

func summary(r Report) string {
	p := r.AppProfile
	if p.EventCount == 0 {
		return "No events captured for this session."
	}

	brand := "an unidentified"
	if p.LikelyBrand != nil {
		brand = *p.LikelyBrand
	}
	app := p.SourceApp
	if app == "" {
		app = "unknown package"
	}

	var actions []string
	for _, s := range r.CategorizedEvents {
		if s.Category == model.Unknown {
			continue
		}
		actions = append(actions, fmt.Sprintf("%d %s", s.Count, s.Category))
		if len(actions) == maxSummaryActions {
			break
		}
	}
	if len(actions) == 0 {
		actions = append(actions, "no classified actions")
	}

	cm := r.CapabilityMap
	var caps []string
	if cm.EmitsClicks {
		caps = append(caps, "clicks")
	}
	if cm.EmitsScrolls {
		caps = append(caps, "scrolls")
	}
	if cm.ExposesStableIDs {
		caps = append(caps, "stable ids")
	}
	caps = append(caps,
		"text richness "+string(cm.TextRichness),
		"embedded web "+string(cm.Structure.EmbeddedWeb))

	seconds := float64(p.LastSeen-p.FirstSeen) / 1000
	return fmt.Sprintf("Detected %s app (%s). Session of %d events over %.1fs: %s. Capabilities: %s.",
		brand, app, p.EventCount, seconds, strings.Join(actions, ", "), strings.Join(caps, ", "))
}
