package vocab

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidVocabulary is returned when a vocabulary file cannot be used.
var ErrInvalidVocabulary = errors.New("invalid vocabulary")

// LoadFile overlays the YAML file at path on top of Default. Lists present
// in the file replace the built-in list of the same key; absent keys keep
// their defaults.
func LoadFile(path string) (Vocabulary, error) {
	base := Default()
	if path == "" {
		return base, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Vocabulary{}, fmt.Errorf("%w: load %s: %v", ErrInvalidVocabulary, path, err)
	}

	var overlay Vocabulary
	if err := k.UnmarshalWithConf("", &overlay, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Vocabulary{}, fmt.Errorf("%w: decode %s: %v", ErrInvalidVocabulary, path, err)
	}

	merged := Merge(base, overlay)
	if err := merged.Validate(); err != nil {
		return Vocabulary{}, err
	}
	return merged, nil
}

// Merge returns base with every non-empty list or map of overlay applied.
func Merge(base, overlay Vocabulary) Vocabulary {
	out := base
	dst := reflect.ValueOf(&out).Elem()
	src := reflect.ValueOf(overlay)
	for i := 0; i < src.NumField(); i++ {
		f := src.Field(i)
		switch f.Kind() {
		case reflect.Slice, reflect.Map:
			if f.Len() > 0 {
				dst.Field(i).Set(f)
			}
		}
	}
	return out
}

// Validate checks the lists the categorizer cannot work without.
func (v Vocabulary) Validate() error {
	switch {
	case len(v.CartTerms) == 0:
		return fmt.Errorf("%w: cart_terms must not be empty", ErrInvalidVocabulary)
	case len(v.AddTerms) == 0 && len(v.AddToCartPhrases) == 0:
		return fmt.Errorf("%w: add_terms or add_to_cart_phrases required", ErrInvalidVocabulary)
	case len(v.CurrencySymbols) == 0 && len(v.CurrencyCodes) == 0:
		return fmt.Errorf("%w: at least one currency marker required", ErrInvalidVocabulary)
	}
	return nil
}
