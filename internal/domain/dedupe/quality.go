package dedupe

import (
	"strings"
	"unicode/utf8"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/normalize"
	"github.com/okian/auscult/internal/domain/vocab"
)

// Quality points.
const (
	pointsPrice    = 60
	pointsKeywords = 40
	pointsLongName = 30
	pointsReject   = -100
	longNameLength = 10
)

// Rejection reasons.
const (
	ReasonSystemPackage   = "system_package"
	ReasonBlacklist       = "blacklist"
	ReasonNavigation      = "navigation"
	ReasonEmptyIdentity   = "empty_identity"
	ReasonShortIdentity   = "short_identity"
	ReasonGenericIdentity = "generic_identity"
	ReasonZeroPrice       = "zero_price"
	ReasonLowQuality      = "low_quality"
	ReasonDuplicate       = "duplicate"
	ReasonConsolidated    = "consolidated"
)

// assessment is the quality gate's verdict on one cart-intent event.
type assessment struct {
	text     string
	identity string
	score    int
	reroute  bool
	bucket   Bucket
	reason   string
	term     string
}

// cartIntent reports whether the event claims a cart action: an add-to-cart
// kind or a cart action hint. A product name alone is a view, not intent.
// Only cart-intent events go through the quality gate.
func cartIntent(raw model.RawEvent) bool {
	if normalize.CanonicalKind(raw.RawKind) == model.KindAddToCart {
		return true
	}
	h := raw.ProductHints
	return h != nil && strings.TrimSpace(h.CartAction) != ""
}

// productText is the candidate product text: the product name, else the
// element text, else the element description.
func productText(raw model.RawEvent) string {
	if h := raw.ProductHints; h != nil {
		if s := strings.TrimSpace(h.ProductName); s != "" {
			return s
		}
	}
	if el := raw.Element; el != nil {
		if s := strings.TrimSpace(el.Text); s != "" {
			return s
		}
		return strings.TrimSpace(el.Description)
	}
	return ""
}

// assess runs the quality gate. A blacklist hit, a zero price or a bad
// identity short-circuits to the reject score.
func (f *Filter) assess(raw model.RawEvent) assessment {
	a := assessment{text: productText(raw)}
	text := vocab.NewText(a.text)

	if f.lx.IsSystemPackage(raw.SourceApp) {
		return a.reject(BucketSystem, ReasonSystemPackage, raw.SourceApp)
	}
	if !text.Empty() && f.lx.IsNavigation(text) {
		a.reroute = true
		a.bucket = BucketGeneric
		a.reason = ReasonNavigation
		return a
	}
	if class, term := f.lx.Blacklisted(text); class != vocab.BlacklistNone {
		return a.reject(bucketOf(class), ReasonBlacklist, term)
	}

	a.identity = f.lx.Identity(a.text)
	switch {
	case a.identity == "":
		return a.reject(BucketGeneric, ReasonEmptyIdentity, "")
	case utf8.RuneCountInString(a.identity) < f.minIdentity:
		return a.reject(BucketGeneric, ReasonShortIdentity, "")
	case f.lx.IsGeneric(a.identity):
		return a.reject(BucketGeneric, ReasonGenericIdentity, a.identity)
	}

	if token, ok := f.findPrice(raw); ok {
		amount, parsed := vocab.ParsePrice(token)
		if parsed && amount.IsZero() {
			return a.reject(BucketGeneric, ReasonZeroPrice, token)
		}
		if parsed {
			a.score += pointsPrice
		}
	}
	if f.lx.ProductKeywordHits(text) > 0 {
		a.score += pointsKeywords
	}
	if utf8.RuneCountInString(a.identity) > longNameLength {
		a.score += pointsLongName
	}
	if a.score <= 0 {
		return a.reject(BucketGeneric, ReasonLowQuality, "")
	}
	return a
}

func (a assessment) reject(b Bucket, reason, term string) assessment {
	a.score = pointsReject
	a.bucket = b
	a.reason = reason
	a.term = term
	return a
}

// findPrice looks for a price attached to the product: the price hint, then
// the product name, then the other visible fragments.
func (f *Filter) findPrice(raw model.RawEvent) (string, bool) {
	h := raw.ProductHints
	if h == nil {
		return "", false
	}
	if p := strings.TrimSpace(h.Price); p != "" {
		if tok, ok := f.lx.FindPrice(p); ok {
			return tok, true
		}
		if _, ok := vocab.ParsePrice(p); ok {
			return p, true
		}
	}
	if tok, ok := f.lx.FindPrice(h.ProductName); ok {
		return tok, true
	}
	for _, t := range h.AllTexts {
		if tok, ok := f.lx.FindPrice(t); ok {
			return tok, true
		}
	}
	return "", false
}
