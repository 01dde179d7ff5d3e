package reconcile

import (
	"regexp"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// Confidence assigned by each rung of the classification ladder
const (
	ControlledVocabularyConfidence = 0.95
	GenreConfidence                = 0.90
	SubjectConfidence              = 0.80
	FormConfidence                 = 0.75
	CatalogDefaultConfidence       = 0.70
	NoEvidenceConfidence           = 0.50
)

// CategoryEvidence is the raw classification material found in a record
type CategoryEvidence struct {
	ResourceTypes []string
	Genres        []string
	Subjects      []string
	Forms         []string
}

var (
	musicalResourceTypes  = []string{"notated music", "sound recording-musical", "sound recording"}
	literaryResourceTypes = []string{"text", "mixed material"}

	musicalGenres  = []string{"music", "musical", "song", "opera", "symphony", "concerto", "sonata", "composition", "score", "recording"}
	literaryGenres = []string{"book", "novel", "biography", "essay", "poetry", "fiction", "nonfiction", "literature", "memoir", "autobiography"}

	musicalSubjects  = []string{"music", "composers", "musical", "musicians", "songs"}
	literarySubjects = []string{"literature", "authors", "books", "writing", "novels"}

	musicalForms  = []string{"sound", "audio", "musical"}
	literaryForms = []string{"text", "print", "electronic resource"}
)

// ClassifyCategory walks the ladder: controlled vocabulary, genre keywords,
// subject headings, physical form, then fallback. The first rung that
// produces a signal wins. fallback is the confidence given to the default
// literary classification.
func ClassifyCategory(ev CategoryEvidence, fallback float64) (models.Category, float64, string) {
	for _, t := range ev.ResourceTypes {
		t = strings.ToLower(strings.TrimSpace(t))
		switch {
		case containsAny(t, musicalResourceTypes):
			return models.CategoryMusical, ControlledVocabularyConfidence, "controlled vocabulary: typeOfResource " + t
		case containsAny(t, literaryResourceTypes):
			return models.CategoryLiterary, ControlledVocabularyConfidence, "controlled vocabulary: typeOfResource " + t
		}
	}

	if c, ok := vote(ev.Genres, musicalGenres, literaryGenres); ok {
		return c, GenreConfidence, "genre keywords"
	}
	if c, ok := vote(ev.Subjects, musicalSubjects, literarySubjects); ok {
		return c, SubjectConfidence, "subject headings"
	}

	for _, f := range ev.Forms {
		f = strings.ToLower(strings.TrimSpace(f))
		switch {
		case containsAny(f, musicalForms):
			return models.CategoryMusical, FormConfidence, "physical description form"
		case containsAny(f, literaryForms):
			return models.CategoryLiterary, FormConfidence, "physical description form"
		}
	}

	return models.CategoryLiterary, fallback, "default: no classification evidence"
}

// vote counts musical and literary keyword hits; a tie is no signal
func vote(values, musical, literary []string) (models.Category, bool) {
	m, l := 0, 0
	for _, v := range values {
		v = strings.ToLower(v)
		switch {
		case containsAny(v, musical):
			m++
		case containsAny(v, literary):
			l++
		}
	}
	switch {
	case m > l:
		return models.CategoryMusical, true
	case l > m:
		return models.CategoryLiterary, true
	}
	return "", false
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

var (
	corporateAuthor = regexp.MustCompile(`\b(company|corporation|inc|ltd|llc|organization|university|press|publishing|government|department)\b`)
	anonymousAuthor = regexp.MustCompile(`\b(anonymous|unknown|various|anon)\b`)
)

// InferWorkCategory guesses the authorship category from the author name
func InferWorkCategory(author string) models.WorkCategory {
	a := strings.ToLower(author)
	switch {
	case corporateAuthor.MatchString(a):
		return models.WorkForHire
	case anonymousAuthor.MatchString(a):
		return models.WorkAnonymous
	}
	return models.WorkIndividual
}
