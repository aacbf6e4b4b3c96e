package importer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeDescription cleans a raw spreadsheet cell: canonical composed
// Unicode (NFC), control characters stripped, whitespace runs collapsed
// to a single space, surrounding whitespace trimmed.
func SanitizeDescription(raw string) string {
	normalized := norm.NFC.String(raw)
	var b strings.Builder
	b.Grow(len(normalized))
	for _, r := range normalized {
		if isControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// isControl covers C0 (U+0000-U+001F), DEL and C1 (U+007F-U+009F).
// Whitespace controls like tab and newline are kept; the collapse step
// turns them into single spaces instead of gluing words together.
func isControl(r rune) bool {
	if unicode.IsSpace(r) {
		return false
	}
	return r <= 0x1F || (r >= 0x7F && r <= 0x9F)
}
