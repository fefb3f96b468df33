// Package identity normalizes display names for case-insensitive lookups.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison key for a display name: NFC-normalized and
// Unicode case-folded. Surrounding whitespace is kept; callers trim upstream.
func Fold(name string) string {
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(norm.NFC.String(name))
}

// Equal reports whether two names denote the same identity ignoring case.
func Equal(a, b string) bool {
	if a == b {
		return true
	}
	if strings.EqualFold(a, b) {
		return true
	}
	return Fold(a) == Fold(b)
}
