package normalization

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var headerDrop = strings.NewReplacer("ı", "i", ".", "", " ", "", "\u00a0", "", "-", "_")

// FoldHeader reduces a column header to its lookup form: Turkish-aware lower
// case, dotless i folded to i, diacritics removed, dots and spaces dropped.
// "İlçe" and "ILCE" both become "ilce".
func FoldHeader(h string) string {
	h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	h = cases.Lower(language.Turkish).String(h)
	h = headerDrop.Replace(h)
	return stripMarks(h)
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
