package categorize

import (
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Evidence tags written by rules.
const (
	PatternAddToCart    = "pattern:add_to_cart"
	PatternCart         = "pattern:cart"
	PatternCartContent  = "pattern:cart_content"
	PatternSearch       = "pattern:search"
	PatternCheckout     = "pattern:checkout"
	PatternPayment      = "pattern:payment"
	PatternConfirmation = "pattern:confirmation"
	PatternLogin        = "pattern:login"
	PatternFilter       = "pattern:filter"
	PatternProductGrid  = "pattern:product_grid"
	PatternProductPage  = "pattern:product_detail"
	PatternNavigation   = "pattern:navigation"
	ExplicitClick       = "explicit_click"
	ExplicitScroll      = "explicit_scroll"
	ExplicitTextEntry   = "explicit_text_entry"
	NoRule              = "no_rule"
)

// Signals is what a rule predicate sees of an event. Text is the widget
// text and description; Visible adds every fragment on screen.
type Signals struct {
	Kind    string
	Text    vocab.Text
	Visible vocab.Text
	Price   bool
	Event   *model.NormalizedEvent
}

// Rule is one row of the ordered categorization table. A rule matches when
// the event kind is allowed and, if set, the text predicate holds.
type Rule struct {
	Name     string
	Category model.Category
	Pattern  string
	Kinds    []string
	Except   []string
	Text     func(*vocab.Lexicon, Signals) bool
	// Inferred marks the category as deduced rather than signalled.
	Inferred bool
}

func (r Rule) allows(kind string) bool {
	for _, k := range r.Except {
		if k == kind {
			return false
		}
	}
	if len(r.Kinds) == 0 {
		return true
	}
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func (r Rule) match(lx *vocab.Lexicon, s Signals) bool {
	if !r.allows(s.Kind) {
		return false
	}
	return r.Text == nil || r.Text(lx, s)
}

var (
	click   = []string{model.KindClick}
	content = []string{model.KindContentChanged}
	// viewed events had their cart intent removed by the filter.
	viewed = []string{model.KindViewed}
)

// table is evaluated top to bottom; the first match wins.
var table = []Rule{
	{Name: "add_to_cart_signal", Category: model.AddToCart, Pattern: PatternAddToCart,
		Kinds: []string{model.KindAddToCart}},
	{Name: "add_to_cart_text", Category: model.AddToCart, Pattern: PatternAddToCart,
		Except: viewed, Inferred: true,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasAddToCart(s.Text) }},
	{Name: "click_cart", Category: model.CartView, Pattern: PatternCart, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasCart(s.Text) }},
	{Name: "click_search", Category: model.Search, Pattern: PatternSearch, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasSearch(s.Text) }},
	{Name: "click_checkout", Category: model.CheckoutStart, Pattern: PatternCheckout, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasCheckout(s.Text) }},
	{Name: "click_payment", Category: model.Payment, Pattern: PatternPayment, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasPayment(s.Text) }},
	{Name: "click_confirmation", Category: model.OrderConfirmation, Pattern: PatternConfirmation, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasConfirmation(s.Text) }},
	{Name: "click_login", Category: model.LoginOrRegister, Pattern: PatternLogin, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasLogin(s.Text) }},
	{Name: "click_filter", Category: model.FilterOrSort, Pattern: PatternFilter, Kinds: click,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasFilter(s.Text) }},
	{Name: "click", Category: model.Click, Pattern: ExplicitClick, Kinds: click},
	{Name: "scroll_product_grid", Category: model.ProductList, Pattern: PatternProductGrid,
		Kinds: []string{model.KindScroll}, Inferred: true,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasPriceMarker(s.Visible) }},
	{Name: "scroll", Category: model.Scroll, Pattern: ExplicitScroll, Kinds: []string{model.KindScroll}},
	{Name: "content_cart", Category: model.CartView, Pattern: PatternCartContent, Kinds: content, Inferred: true,
		Text: func(lx *vocab.Lexicon, s Signals) bool { return lx.HasCart(s.Visible) }},
	{Name: "content_product", Category: model.ProductDetail, Pattern: PatternProductPage, Kinds: content, Inferred: true,
		Text: func(lx *vocab.Lexicon, s Signals) bool {
			if !s.Price {
				return false
			}
			g := s.Event.Context.ProductGuess
			return (g != nil && g.Title != "") || lx.ProductKeywordHits(s.Visible) > 0
		}},
	{Name: "text_entry", Category: model.FormEntry, Pattern: ExplicitTextEntry, Kinds: []string{model.KindTextChanged}},
	{Name: "navigation", Category: model.Navigation, Pattern: PatternNavigation,
		Kinds: []string{model.KindWindowChanged, model.KindViewed}},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(table))
	copy(out, table)
	return out
}

// PatternCategories maps every evidence pattern to the category its rule
// assigns, so tags found on stored events can be read back.
func PatternCategories() map[string]model.Category {
	out := make(map[string]model.Category, len(table))
	for _, r := range table {
		if _, ok := out[r.Pattern]; !ok {
			out[r.Pattern] = r.Category
		}
	}
	return out
}
