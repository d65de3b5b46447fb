package slug

import (
	"strings"
	"unicode"
)

// fold maps accented Latin letters to their ASCII base letter.
var fold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ä': 'a',
	'ç': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ğ': 'g',
	'ı': 'i', 'î': 'i', 'ï': 'i', 'í': 'i',
	'ñ': 'n',
	'ö': 'o', 'ó': 'o', 'ô': 'o',
	'ş': 's',
	'ü': 'u', 'ú': 'u', 'û': 'u',
}

// Make returns a lowercase ASCII slug of s with words joined by single
// hyphens. Runes that are neither ASCII letters nor digits after folding act
// as word separators.
//
//	Make("Summer Maxi Dress")  // "summer-maxi-dress"
//	Make("Güneş Gözlüğü")      // "gunes-gozlugu"
func Make(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	sep := false
	for _, r := range s {
		r = unicode.ToLower(r)
		if f, ok := fold[r]; ok {
			r = f
		}
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
