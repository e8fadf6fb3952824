// Package vocab holds the locale- and retailer-specific signal vocabulary
// shared by the filter, the categorizer and the profiler.
//
// The vocabulary is plain data. Default returns the built-in French/English
// lists and LoadFile overlays a YAML file on top of them. Compile turns a
// Vocabulary into a Lexicon, the read-only matcher every stage consults.
package vocab

// Vocabulary is the externalised term data.
type Vocabulary struct {
	AddTerms          []string `koanf:"add_terms" yaml:"add_terms"`
	CartTerms         []string `koanf:"cart_terms" yaml:"cart_terms"`
	AddToCartPhrases  []string `koanf:"add_to_cart_phrases" yaml:"add_to_cart_phrases"`
	SearchTerms       []string `koanf:"search_terms" yaml:"search_terms"`
	CheckoutTerms     []string `koanf:"checkout_terms" yaml:"checkout_terms"`
	PaymentTerms      []string `koanf:"payment_terms" yaml:"payment_terms"`
	ConfirmationTerms []string `koanf:"confirmation_terms" yaml:"confirmation_terms"`
	LoginTerms        []string `koanf:"login_terms" yaml:"login_terms"`
	FilterTerms       []string `koanf:"filter_terms" yaml:"filter_terms"`

	PriceWords      []string `koanf:"price_words" yaml:"price_words"`
	CurrencySymbols []string `koanf:"currency_symbols" yaml:"currency_symbols"`
	CurrencyCodes   []string `koanf:"currency_codes" yaml:"currency_codes"`
	WeightUnits     []string `koanf:"weight_units" yaml:"weight_units"`
	ProductKeywords []string `koanf:"product_keywords" yaml:"product_keywords"`

	// Navigation terms match a whole identity, phrases match anywhere.
	NavigationTerms   []string `koanf:"navigation_terms" yaml:"navigation_terms"`
	NavigationPhrases []string `koanf:"navigation_phrases" yaml:"navigation_phrases"`

	Boilerplate    []string `koanf:"boilerplate" yaml:"boilerplate"`
	SystemTerms    []string `koanf:"system_terms" yaml:"system_terms"`
	SystemPackages []string `koanf:"system_packages" yaml:"system_packages"`
	PromotionTerms []string `koanf:"promotion_terms" yaml:"promotion_terms"`
	GenericTerms   []string `koanf:"generic_terms" yaml:"generic_terms"`
	GenericPhrases []string `koanf:"generic_phrases" yaml:"generic_phrases"`

	WebClasses       []string `koanf:"web_classes" yaml:"web_classes"`
	ListClasses      []string `koanf:"list_classes" yaml:"list_classes"`
	TabClasses       []string `koanf:"tab_classes" yaml:"tab_classes"`
	BottomNavClasses []string `koanf:"bottom_nav_classes" yaml:"bottom_nav_classes"`

	// Brands maps a package-name fragment to a display brand.
	Brands map[string]string `koanf:"brands" yaml:"brands"`
}
