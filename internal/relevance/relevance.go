// Package relevance ranks candidate bibliographic records against a
// free-text title/author query.
package relevance

import (
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// Params holds the tuned scoring constants
type Params struct {
	ContainmentMinRatio     float64 `yaml:"containment_min_ratio"`
	TokenOverlapMinRatio    float64 `yaml:"token_overlap_min_ratio"`
	AuthorSubstringMinRatio float64 `yaml:"author_substring_min_ratio"`
	PrimaryAuthorBonus      float64 `yaml:"primary_author_bonus"`
	YearBonus               float64 `yaml:"year_bonus"`
	MinTitleScore           float64 `yaml:"min_title_score"`
	MinAuthorScore          float64 `yaml:"min_author_score"`
}

// DefaultParams returns the thresholds the scorer was tuned with
func DefaultParams() Params {
	return Params{
		ContainmentMinRatio:     0.3,
		TokenOverlapMinRatio:    0.3,
		AuthorSubstringMinRatio: 0.4,
		PrimaryAuthorBonus:      1.1,
		YearBonus:               5,
		MinTitleScore:           20,
		MinAuthorScore:          15,
	}
}

const (
	exactScore           = 100.0
	containmentWeight    = 80.0
	tokenOverlapWeight   = 60.0
	genericAuthorScore   = 50.0
	authorSubstrWeight   = 70.0
	lastFirstBothScore   = 85.0
	lastFirstSurnameOnly = 60.0
)

var genericAuthors = map[string]bool{
	"unknown": true,
	"string":  true,
	"author":  true,
}

// IsGenericAuthor reports whether author is a placeholder rather than a name
func IsGenericAuthor(author string) bool {
	return genericAuthors[textnorm.Collapse(author)]
}

// IsSpecificAuthor reports whether author names someone in particular
func IsSpecificAuthor(author string) bool {
	a := textnorm.Collapse(author)
	return len(a) > 2 && !genericAuthors[a]
}

// Scorer computes relevance scores. It is safe for concurrent use.
type Scorer struct {
	params Params
}

// New creates a scorer with the given parameters
func New(params Params) *Scorer {
	return &Scorer{params: params}
}

// Score returns the composite relevance of candidate, or 0 if it fails the
// minimum-relevance gate
func (s *Scorer) Score(targetTitle, targetAuthor string, candidate models.CandidateRecord) float64 {
	titleScore := s.TitleScore(targetTitle, candidate.Title)
	authorScore := s.AuthorScore(targetAuthor, candidate.Authors)

	if IsSpecificAuthor(targetAuthor) {
		if titleScore < s.params.MinTitleScore && authorScore < s.params.MinAuthorScore {
			return 0
		}
	} else if titleScore < s.params.MinTitleScore {
		return 0
	}

	score := titleScore + authorScore
	if candidate.PublicationYear != nil {
		score += s.params.YearBonus
	}
	return score
}

// TitleScore scores title similarity on a 0-100 scale
func (s *Scorer) TitleScore(target, candidate string) float64 {
	t := textnorm.Clean(target)
	c := textnorm.Clean(candidate)
	if t == "" || c == "" {
		return 0
	}

	if t == c {
		return exactScore
	}

	if textnorm.Contains(t, c) {
		ratio := textnorm.LengthRatio(t, c)
		if ratio > s.params.ContainmentMinRatio {
			return containmentWeight * ratio
		}
		return 0
	}

	overlap := textnorm.Jaccard(textnorm.Words(t, 2), textnorm.Words(c, 2))
	if overlap > s.params.TokenOverlapMinRatio {
		return tokenOverlapWeight * overlap
	}
	return 0
}

// AuthorScore scores the best-matching candidate author on a 0-100 scale
func (s *Scorer) AuthorScore(target string, authors []string) float64 {
	return min(s.authorMatch(target, authors), exactScore)
}

// authorMatch is AuthorScore before the cap, so an exact match on the
// first-listed author still outranks one further down the list
func (s *Scorer) authorMatch(target string, authors []string) float64 {
	t := textnorm.Collapse(textnorm.Fold(target))
	if t == "" || len(authors) == 0 {
		return 0
	}
	if genericAuthors[t] {
		return genericAuthorScore
	}

	best := 0.0
	for i, author := range authors {
		a := textnorm.Collapse(textnorm.Fold(author))
		if a == "" {
			continue
		}

		current := 0.0
		switch {
		case t == a:
			current = exactScore
		case textnorm.Contains(t, a):
			if ratio := textnorm.LengthRatio(t, a); ratio > s.params.AuthorSubstringMinRatio {
				current = authorSubstrWeight * ratio
			}
		case strings.Contains(a, ","):
			parts := strings.Split(a, ",")
			last := strings.TrimSpace(parts[0])
			first := strings.TrimSpace(parts[1])
			switch {
			case last != "" && first != "" && strings.Contains(t, last) && strings.Contains(t, first):
				current = lastFirstBothScore
			case last != "" && strings.Contains(t, last):
				current = lastFirstSurnameOnly
			}
		}

		if i == 0 && current > 0 {
			current *= s.params.PrimaryAuthorBonus
		}
		best = max(best, current)
	}

	return best
}

// Scored is a candidate with its relevance score and original position
type Scored struct {
	Record models.CandidateRecord
	Score  float64
	Index  int

	authorMatch float64
}

// Rank scores every candidate, drops those without a title or failing the
// gate, and sorts the survivors by descending score. Equal scores prefer the
// candidate listing the target as its primary author, then input order.
// A positive k truncates the result to the top k.
func (s *Scorer) Rank(targetTitle, targetAuthor string, candidates []models.CandidateRecord, k int) []Scored {
	ranked := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		score := s.Score(targetTitle, targetAuthor, c)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, Scored{
			Record:      c,
			Score:       score,
			Index:       i,
			authorMatch: s.authorMatch(targetAuthor, c.Authors),
		})
	}

	slices.SortStableFunc(ranked, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		case a.authorMatch > b.authorMatch:
			return -1
		case a.authorMatch < b.authorMatch:
			return 1
		}
		return 0
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// Best returns the top-ranked candidate, if any survives
func (s *Scorer) Best(targetTitle, targetAuthor string, candidates []models.CandidateRecord) (Scored, bool) {
	ranked := s.Rank(targetTitle, targetAuthor, candidates, 1)
	if len(ranked) == 0 {
		return Scored{}, false
	}
	return ranked[0], true
}
