package reconcile

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

var (
	parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)
	lifeDates     = regexp.MustCompile(`,?\s*(?:\b(?:b|d|fl|ca)\.\s*\d{3,4}\??|(?:\b(?:ca\.|active)\s*)?\d{3,4}\??\s*[-–]\s*(?:\d{3,4}\??)?)\.?\s*$`)
	nameSuffix    = regexp.MustCompile(`(?i)\b(?:Jr|Sr|III|II|IV|PhD|Dr|Prof)\b\.?`)
)

// CanonicalAuthor turns catalog headings like "Austen, Jane, 1775-1817"
// into "Jane Austen"
func CanonicalAuthor(name string) string {
	n := strings.Join(strings.Fields(name), " ")
	if n == "" {
		return ""
	}

	n = parenthetical.ReplaceAllString(n, "")
	n = lifeDates.ReplaceAllString(n, "")
	n = nameSuffix.ReplaceAllString(n, "")
	n = strings.Trim(strings.Join(strings.Fields(n), " "), " ,")

	if parts := strings.Split(n, ","); len(parts) == 2 {
		last := strings.TrimSpace(parts[0])
		first := strings.TrimSpace(parts[1])
		if last != "" && first != "" {
			n = first + " " + last
		}
	}

	n = strings.ReplaceAll(n, " ,", ",")
	return strings.Join(strings.Fields(n), " ")
}

// selectAuthor prefers the listed author that matches the query, then the
// first listed author
func selectAuthor(target string, authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	t := textnorm.Clean(target)
	if t != "" {
		for _, a := range authors {
			c := textnorm.Clean(CanonicalAuthor(a))
			if c != "" && textnorm.Contains(t, c) {
				return a
			}
		}
	}
	return authors[0]
}
