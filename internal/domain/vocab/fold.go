package vocab

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips combining marks ("é" -> "e") and collapses
// whitespace. Symbols such as "€" survive.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		switch r {
		case '\u2019', '\u2018':
			return '\''
		}
		return r
	}, strings.ToLower(out))
	return strings.Join(strings.Fields(out), " ")
}

// Tokens splits folded text on anything that is not a letter or a digit.
func Tokens(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Words folds s and rejoins its tokens with single spaces.
func Words(s string) string {
	return strings.Join(Tokens(Fold(s)), " ")
}
