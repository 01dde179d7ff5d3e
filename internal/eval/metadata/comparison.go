package metadata

import (
	"fmt"
	"strconv"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// CompareWork scores the reconciled title, author and publication year
// against the reference record using Levenshtein similarity
func CompareWork(reference dataset.InstitutionalBooksRecord, work models.NormalizedWork) *WorkComparison {
	comparison := &WorkComparison{
		Fields: make(map[string]FieldComparison),
	}

	refYear := ""
	if y := reference.PublicationYear(); y != nil {
		refYear = strconv.Itoa(*y)
	}
	workYear := ""
	if work.PublicationYear != nil {
		workYear = strconv.Itoa(*work.PublicationYear)
	}

	fields := []FieldComparison{
		compareField("title", reference.TitleSource, work.Title),
		// catalog headings carry life dates and inverted order
		compareField("author", reconcile.CanonicalAuthor(reference.AuthorSource), work.AuthorName),
		compareField("date", refYear, workYear),
	}

	total := 0.0
	for _, comp := range fields {
		comparison.Fields[comp.FieldName] = comp
		total += comp.Score
		comparison.LevenshteinTotal += comp.Distance

		switch {
		case comp.Score > 0.8:
			comparison.FieldsMatched++
		case comp.Match == "missing":
			comparison.FieldsMissing++
		default:
			comparison.FieldsIncorrect++
		}
	}

	comparison.OverallScore = total / float64(len(fields))
	return comparison
}

// compareField compares a single field using Levenshtein distance
func compareField(fieldName, expected, actual string) FieldComparison {
	comp := FieldComparison{
		FieldName: fieldName,
		Expected:  expected,
		Actual:    actual,
	}

	expNorm := textnorm.Clean(expected)
	actNorm := textnorm.Clean(actual)

	switch {
	case expNorm == "" && actNorm == "":
		comp.Score = 0.5
		comp.Match = "both_empty"
		comp.Notes = "Both fields are empty"
		return comp
	case expNorm == "":
		comp.Distance = len([]rune(actNorm))
		comp.Match = "no_reference"
		comp.Notes = "No reference value"
		return comp
	case actNorm == "":
		comp.Distance = len([]rune(expNorm))
		comp.Match = "missing"
		comp.Notes = "Field missing from reconciled work"
		return comp
	case expNorm == actNorm:
		comp.Score = 1.0
		comp.Match = "exact"
		return comp
	}

	distance := Levenshtein(expNorm, actNorm)
	comp.Distance = distance

	maxLen := max(len([]rune(expNorm)), len([]rune(actNorm)))
	similarity := 1.0 - float64(distance)/float64(maxLen)
	comp.Score = similarity

	switch {
	case similarity > 0.9:
		comp.Match = "fuzzy_high"
	case similarity > 0.7:
		comp.Match = "fuzzy_medium"
	case similarity > 0.5:
		comp.Match = "fuzzy_low"
	default:
		comp.Match = "no_match"
	}
	comp.Notes = fmt.Sprintf("%.1f%% similar, Levenshtein: %d", similarity*100, distance)

	return comp
}

// Levenshtein returns the edit distance between s1 and s2, counted in runes
func Levenshtein(s1, s2 string) int {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
