// Package normalize canonicalizes free text so that vendor names and booking
// texts can be compared after OCR noise, casing, and punctuation differences.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, removes combining marks, and recomposes.
// "Müller" becomes "Muller", "Café" becomes "Cafe".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Text returns the canonical form of s: lower-cased, diacritics stripped,
// every maximal run of non-alphanumeric characters collapsed to a single
// space, and leading/trailing space trimmed. Pure and idempotent; empty
// input yields empty output.
func Text(s string) string {
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		// transform only fails on malformed UTF-8; fall back to the
		// lower-cased input so normalization stays total.
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	pendingSpace := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		} else {
			pendingSpace = true
		}
	}
	return b.String()
}
