package warehouse

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeSentiment strips decoration from a sentiment category label,
// e.g. "😊 Positive" becomes "Positive".
func normalizeSentiment(s string) string {
	s = strings.TrimFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if s == "" {
		return ""
	}
	// Casers carry state and must not be shared between goroutines
	return cases.Title(language.English).String(strings.ToLower(s))
}

// normalizeUrgency lower-cases a response urgency value.
func normalizeUrgency(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
