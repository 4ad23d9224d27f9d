package watchlist

import (
	"strings"
	"unicode"

	"watchlist-trader/src/helpers"
)

// Parse turns free-form user input into an ordered, duplicate-free symbol set.
// Tokens are split on whitespace, commas and semicolons, stripped of
// surrounding punctuation and symbols ($tsla, #aapl) and upper-cased. Blank
// input yields an empty set.
func Parse(text string) []string {
	tokens := strings.FieldsFunc(text, isSeparator)

	symbols := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		sym := strings.ToUpper(strings.TrimFunc(tok, isTrimmed))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols
}

// ParseNonEmpty is Parse for the subscribe path, where an empty set is a user error.
func ParseNonEmpty(text string) ([]string, error) {
	symbols := Parse(text)
	if len(symbols) == 0 {
		return nil, helpers.NewValidationError("enter at least one symbol")
	}
	return symbols, nil
}

func isSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';'
}

func isTrimmed(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
}
