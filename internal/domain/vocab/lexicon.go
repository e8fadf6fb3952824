package vocab

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Blacklist classes map one-to-one onto the filter's audit buckets.
type Blacklist string

const (
	BlacklistNone      Blacklist = ""
	BlacklistSystem    Blacklist = "system"
	BlacklistPromotion Blacklist = "promotion"
	BlacklistGeneric   Blacklist = "generic"
)

// termSet matches single words by token (with a French/English plural
// allowance) and multi-word terms as whole-word phrases.
type termSet struct {
	words   map[string]struct{}
	phrases []string
}

func newTermSet(terms []string) termSet {
	ts := termSet{words: make(map[string]struct{})}
	for _, t := range terms {
		w := Words(t)
		switch {
		case w == "":
		case strings.Contains(w, " "):
			ts.phrases = append(ts.phrases, w)
		default:
			ts.words[w] = struct{}{}
		}
	}
	return ts
}

func (ts termSet) match(tokens []string, padded string) bool {
	for _, tok := range tokens {
		if _, ok := ts.words[tok]; ok {
			return true
		}
		if n := len(tok); n > 3 && (tok[n-1] == 's' || tok[n-1] == 'x') {
			if _, ok := ts.words[tok[:n-1]]; ok {
				return true
			}
		}
	}
	for _, p := range ts.phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// Text is a fragment prepared once for repeated matching.
type Text struct {
	Raw    string
	Folded string
	Words  string
	tokens []string
	padded string
}

// NewText joins fragments and prepares them for matching.
func NewText(fragments ...string) Text {
	nonEmpty := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if f = strings.TrimSpace(f); f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	raw := strings.Join(nonEmpty, " | ")
	folded := Fold(raw)
	tokens := Tokens(folded)
	words := strings.Join(tokens, " ")
	return Text{Raw: raw, Folded: folded, Words: words, tokens: tokens, padded: " " + words + " "}
}

// Empty reports whether no fragment carried text.
func (t Text) Empty() bool { return t.Raw == "" }

type brand struct {
	fragment string
	name     string
}

// Lexicon is the compiled, read-only form of a Vocabulary. It is safe for
// concurrent use.
type Lexicon struct {
	add          termSet
	cart         termSet
	search       termSet
	checkout     termSet
	payment      termSet
	confirmation termSet
	login        termSet
	filter       termSet
	priceWords   termSet

	addToCart       []string
	productKeywords []string
	boilerplate     []string
	system          []string
	promotion       []string
	genericPhrases  []string
	navPhrases      []string
	navSymbols      []string
	navTerms        map[string]struct{}
	genericTerms    map[string]struct{}

	currencySymbols []string
	priceRe         *regexp.Regexp
	weightRe        *regexp.Regexp

	systemPackages []string
	web            []string
	list           []string
	tab            []string
	bottom         []string
	brands         []brand
}

// Compile prepares v for matching.
func Compile(v Vocabulary) *Lexicon {
	lx := &Lexicon{
		add:          newTermSet(v.AddTerms),
		cart:         newTermSet(v.CartTerms),
		search:       newTermSet(v.SearchTerms),
		checkout:     newTermSet(v.CheckoutTerms),
		payment:      newTermSet(v.PaymentTerms),
		confirmation: newTermSet(v.ConfirmationTerms),
		login:        newTermSet(v.LoginTerms),
		filter:       newTermSet(v.FilterTerms),
		priceWords:   newTermSet(v.PriceWords),

		addToCart:       wordsOf(v.AddToCartPhrases),
		productKeywords: wordsOf(v.ProductKeywords),
		boilerplate:     wordsOf(v.Boilerplate),
		system:          wordsOf(v.SystemTerms),
		promotion:       wordsOf(v.PromotionTerms),
		genericPhrases:  wordsOf(v.GenericPhrases),
		navTerms:        setOf(v.NavigationTerms),
		genericTerms:    setOf(v.GenericTerms),

		systemPackages: lowerOf(v.SystemPackages),
		web:            lowerOf(v.WebClasses),
		list:           lowerOf(v.ListClasses),
		tab:            lowerOf(v.TabClasses),
		bottom:         lowerOf(v.BottomNavClasses),
	}

	for _, s := range v.CurrencySymbols {
		if s = strings.TrimSpace(s); s != "" {
			lx.currencySymbols = append(lx.currencySymbols, s)
		}
	}
	for _, p := range v.NavigationPhrases {
		if w := Words(p); w != "" {
			lx.navPhrases = append(lx.navPhrases, w)
		} else if f := strings.TrimSpace(Fold(p)); f != "" {
			lx.navSymbols = append(lx.navSymbols, " "+f+" ")
		}
	}

	// Longest first so "ajouter au panier" goes before "ajouter".
	sort.SliceStable(lx.boilerplate, func(i, j int) bool {
		return len(lx.boilerplate[i]) > len(lx.boilerplate[j])
	})

	lx.priceRe = compilePrice(lx.currencySymbols, lowerOf(v.CurrencyCodes))
	lx.weightRe = compileWeight(lowerOf(v.WeightUnits))

	keys := make([]string, 0, len(v.Brands))
	for k := range v.Brands {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if f := strings.ToLower(strings.TrimSpace(k)); f != "" {
			lx.brands = append(lx.brands, brand{fragment: f, name: v.Brands[k]})
		}
	}
	return lx
}

var never = regexp.MustCompile(`$^`)

func compilePrice(symbols, codes []string) *regexp.Regexp {
	alts := make([]string, 0, len(symbols)+len(codes))
	for _, s := range symbols {
		alts = append(alts, regexp.QuoteMeta(s))
	}
	for _, c := range codes {
		alts = append(alts, regexp.QuoteMeta(c)+`\b`)
	}
	if len(alts) == 0 {
		return never
	}
	cur := "(?:" + strings.Join(alts, "|") + ")"
	amount := `\d+(?:[.,]\d{1,2})?`
	return regexp.MustCompile(`(?:` + amount + `\s*` + cur + `(?:\d{2}\b)?(?:\s*/\s*[a-z]+\b)?|` + cur + `\s*` + amount + `)`)
}

func compileWeight(units []string) *regexp.Regexp {
	if len(units) == 0 {
		return never
	}
	alts := make([]string, len(units))
	for i, u := range units {
		alts[i] = regexp.QuoteMeta(u)
	}
	u := "(?:" + strings.Join(alts, "|") + ")"
	return regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s*` + u + `\b|/\s*` + u + `\b`)
}

func wordsOf(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if w := Words(s); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func setOf(in []string) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for _, w := range wordsOf(in) {
		out[w] = struct{}{}
	}
	return out
}

func lowerOf(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// HasAddToCart reports an add-to-cart phrase, or an add term together with
// a cart term.
func (lx *Lexicon) HasAddToCart(t Text) bool {
	for _, p := range lx.addToCart {
		if strings.Contains(t.padded, " "+p+" ") {
			return true
		}
	}
	return lx.add.match(t.tokens, t.padded) && lx.cart.match(t.tokens, t.padded)
}

// HasCart reports cart vocabulary.
func (lx *Lexicon) HasCart(t Text) bool { return lx.cart.match(t.tokens, t.padded) }

// HasSearch reports search vocabulary.
func (lx *Lexicon) HasSearch(t Text) bool { return lx.search.match(t.tokens, t.padded) }

// HasCheckout reports checkout vocabulary.
func (lx *Lexicon) HasCheckout(t Text) bool { return lx.checkout.match(t.tokens, t.padded) }

// HasPayment reports payment vocabulary.
func (lx *Lexicon) HasPayment(t Text) bool { return lx.payment.match(t.tokens, t.padded) }

// HasConfirmation reports order-confirmation vocabulary.
func (lx *Lexicon) HasConfirmation(t Text) bool { return lx.confirmation.match(t.tokens, t.padded) }

// HasLogin reports login or registration vocabulary.
func (lx *Lexicon) HasLogin(t Text) bool { return lx.login.match(t.tokens, t.padded) }

// HasFilter reports filter or sort vocabulary.
func (lx *Lexicon) HasFilter(t Text) bool { return lx.filter.match(t.tokens, t.padded) }

// HasCurrency reports a currency symbol anywhere in the text.
func (lx *Lexicon) HasCurrency(t Text) bool {
	return containsAny(t.Folded, lx.currencySymbols) || lx.priceRe.MatchString(t.Folded)
}

// HasPriceMarker reports currency, price words or weight units: the
// markers of a product grid.
func (lx *Lexicon) HasPriceMarker(t Text) bool {
	return lx.HasCurrency(t) || lx.priceWords.match(t.tokens, t.padded) || lx.weightRe.MatchString(t.Folded)
}

// FindPrice returns the first price token in s.
func (lx *Lexicon) FindPrice(s string) (string, bool) {
	folded := Fold(s)
	loc := lx.priceRe.FindStringIndex(folded)
	if loc == nil {
		return "", false
	}
	return strings.TrimSpace(folded[loc[0]:loc[1]]), true
}

var (
	centsAfterSymbol = regexp.MustCompile(`(\d+)\s*[^\d\s.,/]+\s*(\d{2})\b`)
	amountRe         = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// ParsePrice extracts the amount of a price token such as "2,50€",
// "€3.20" or "2€50".
func ParsePrice(token string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(token)
	if s == "" {
		return decimal.Zero, false
	}
	s = centsAfterSymbol.ReplaceAllString(s, "$1.$2")
	s = strings.ReplaceAll(s, ",", ".")
	m := amountRe.FindString(s)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ProductKeywordHits counts recognisable product or packaging words.
func (lx *Lexicon) ProductKeywordHits(t Text) int {
	hits := 0
	for _, kw := range lx.productKeywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(t.padded, " "+kw+" ") {
				hits++
			}
			continue
		}
		for _, tok := range t.tokens {
			if tok == kw || (len(kw) >= 4 && strings.HasPrefix(tok, kw)) || tok == kw+"s" {
				hits++
				break
			}
		}
	}
	if lx.weightRe.MatchString(t.Folded) {
		hits++
	}
	return hits
}

// IsNavigation reports navigation chrome: a whole-identity navigation term
// or a navigation phrase anywhere.
func (lx *Lexicon) IsNavigation(t Text) bool {
	if _, ok := lx.navTerms[t.Words]; ok {
		return true
	}
	for _, p := range lx.navPhrases {
		if strings.Contains(t.padded, " "+p+" ") {
			return true
		}
	}
	return containsAny(t.Folded, lx.navSymbols)
}

// Identity derives the product identity of a candidate product text: folded,
// prices removed, boilerplate stripped and whitespace collapsed.
func (lx *Lexicon) Identity(s string) string {
	folded := Fold(s)
	folded = lx.priceRe.ReplaceAllString(folded, " ")
	padded := " " + strings.Join(Tokens(folded), " ") + " "
	for _, b := range lx.boilerplate {
		for strings.Contains(padded, " "+b+" ") {
			padded = strings.Replace(padded, " "+b+" ", " ", 1)
		}
	}
	return strings.Join(strings.Fields(padded), " ")
}

// IsGeneric reports an identity that names nothing specific.
func (lx *Lexicon) IsGeneric(identity string) bool {
	_, ok := lx.genericTerms[identity]
	return ok
}

// Blacklisted classifies text against the system, promotion and generic
// lists, in that order. Terms match from a word start.
func (lx *Lexicon) Blacklisted(t Text) (Blacklist, string) {
	lead := " " + t.Words
	for _, group := range []struct {
		class Blacklist
		terms []string
	}{
		{BlacklistSystem, lx.system},
		{BlacklistPromotion, lx.promotion},
		{BlacklistGeneric, lx.genericPhrases},
	} {
		for _, term := range group.terms {
			if strings.Contains(lead, " "+term) {
				return group.class, term
			}
		}
	}
	return BlacklistNone, ""
}

// IsSystemPackage reports OS chrome packages such as the status bar.
func (lx *Lexicon) IsSystemPackage(sourceApp string) bool {
	app := strings.ToLower(strings.TrimSpace(sourceApp))
	if app == "" {
		return false
	}
	for _, p := range lx.systemPackages {
		if strings.HasPrefix(app, p) {
			return true
		}
	}
	return false
}

// IsWebClass reports a widget class that renders embedded web content.
func (lx *Lexicon) IsWebClass(className string) bool {
	return containsAny(strings.ToLower(className), lx.web)
}

// IsListClass reports a list or grid container class.
func (lx *Lexicon) IsListClass(className string) bool {
	return containsAny(strings.ToLower(className), lx.list)
}

// IsTabClass reports a tabbed navigation class.
func (lx *Lexicon) IsTabClass(className string) bool {
	return containsAny(strings.ToLower(className), lx.tab)
}

// IsBottomNavClass reports a bottom navigation class.
func (lx *Lexicon) IsBottomNavClass(className string) bool {
	return containsAny(strings.ToLower(className), lx.bottom)
}

// Brand guesses the retailer behind a package name.
func (lx *Lexicon) Brand(sourceApp string) (string, bool) {
	app := strings.ToLower(sourceApp)
	if app == "" {
		return "", false
	}
	for _, b := range lx.brands {
		if strings.Contains(app, b.fragment) {
			return b.name, true
		}
	}
	return "", false
}
