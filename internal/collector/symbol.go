package collector

import (
	"strings"
	"unicode"
)

// DefaultMarketSuffix is appended to bare exchange codes (IDX, Jakarta).
const DefaultMarketSuffix = ".JK"

// IndexAliases maps friendly index names to Yahoo tickers.
var IndexAliases = map[string]string{
	"IHSG":   "^JKSE",
	"JKSE":   "^JKSE",
	"LQ45":   "^JKLQ45",
	"SPX500": "^GSPC",
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
}

// NormalizeTicker upper-cases the input and appends suffix to bare
// four-letter exchange codes. Tickers that already carry a suffix, index
// tickers and aliases are left alone.
func NormalizeTicker(input, suffix string) string {
	t := strings.ToUpper(strings.TrimSpace(input))
	if mapped, ok := IndexAliases[t]; ok {
		return mapped
	}
	if suffix == "" || strings.ContainsAny(t, ".^=") {
		return t
	}
	if len(t) == 4 && isLetters(t) {
		return t + strings.ToUpper(suffix)
	}
	return t
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
