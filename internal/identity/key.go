// Package identity decides whether a freshly analysed work is one already
// known, by content key or by similarity, and folds duplicates together.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"

	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

var leadingArticle = regexp.MustCompile(`^(the|a|an)\s+`)

// NormalizeTitle lower-cases, drops a leading article and strips punctuation
func NormalizeTitle(title string) string {
	t := textnorm.Collapse(textnorm.Fold(title))
	t = leadingArticle.ReplaceAllString(t, "")
	return textnorm.Clean(t)
}

// NormalizeAuthor reduces a catalog heading to its canonical "First Last"
// form, life dates dropped, and strips punctuation
func NormalizeAuthor(author string) string {
	return textnorm.Clean(reconcile.CanonicalAuthor(author))
}

// ContentKey is the sha256 of normalized title, author and year
func ContentKey(title, author string, year *int) string {
	y := ""
	if year != nil {
		y = strconv.Itoa(*year)
	}
	content := NormalizeTitle(title) + "|" + NormalizeAuthor(author) + "|" + y
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
