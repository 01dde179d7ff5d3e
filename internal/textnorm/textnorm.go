// Package textnorm holds the string normalisation shared by scoring,
// reconciliation and identity resolution.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics so "Brontë" and "Bronte" compare equal
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Collapse lower-cases s and squeezes runs of whitespace to a single space
func Collapse(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Clean lower-cases, folds diacritics, removes punctuation and collapses whitespace
func Clean(s string) string {
	s = Fold(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Words returns the cleaned words of s longer than minLen runes
func Words(s string, minLen int) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(Clean(s)) {
		if len([]rune(w)) > minLen {
			words[w] = struct{}{}
		}
	}
	return words
}

// Jaccard returns |a∩b| / |a∪b|
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for w := range a {
		if _, ok := b[w]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// LengthRatio returns len(shorter)/len(longer) in runes
func LengthRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}

// Contains reports whether either string contains the other
func Contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
