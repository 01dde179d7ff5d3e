package reconcile

import (
	"fmt"
	"slices"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// Field names a NormalizedWork field the precedence table governs
type Field string

const (
	FieldTitle           Field = "title"
	FieldAuthor          Field = "author_name"
	FieldPublicationYear Field = "publication_year"
	FieldCategory        Field = "category"
	FieldAuthorDeathYear Field = "author_death_year"
)

// AllFields is every field a source may supply
var AllFields = []Field{FieldTitle, FieldAuthor, FieldPublicationYear, FieldCategory}

// Rule is one row of the precedence table
type Rule struct {
	Source string  `yaml:"source"`
	Weight float64 `yaml:"weight"`
	Fields []Field `yaml:"fields"`
}

// Allows reports whether the source may supply f
func (r Rule) Allows(f Field) bool {
	return slices.Contains(r.Fields, f)
}

// Precedence is the ordered source table. Earlier rows write first.
type Precedence struct {
	Rules         []Rule  `yaml:"rules"`
	UnknownWeight float64 `yaml:"unknown_weight"`
}

// DefaultPrecedence puts professionally catalogued sources first
func DefaultPrecedence() Precedence {
	return Precedence{
		Rules: []Rule{
			{Source: "loc", Weight: 0.4, Fields: AllFields},
			{Source: "hathitrust", Weight: 0.3, Fields: []Field{FieldTitle, FieldPublicationYear}},
			{Source: "musicbrainz", Weight: 0.3, Fields: AllFields},
		},
		UnknownWeight: 0.2,
	}
}

// Rule returns the row for source; unknown sources may supply every field
// at the default weight
func (p Precedence) Rule(source string) Rule {
	for _, r := range p.Rules {
		if r.Source == source {
			return r
		}
	}
	return Rule{Source: source, Weight: p.UnknownWeight, Fields: AllFields}
}

// Order lists the sources present in candidates: table order first, then
// unknown sources by name
func (p Precedence) Order(candidates map[string][]models.CandidateRecord) []string {
	order := make([]string, 0, len(candidates))
	for _, r := range p.Rules {
		if _, ok := candidates[r.Source]; ok {
			order = append(order, r.Source)
		}
	}

	var unknown []string
	for source := range candidates {
		if !slices.Contains(order, source) {
			unknown = append(unknown, source)
		}
	}
	slices.Sort(unknown)
	return append(order, unknown...)
}

// Validate rejects weights outside [0,1]
func (p Precedence) Validate() error {
	for _, r := range p.Rules {
		if r.Weight < 0 || r.Weight > 1 {
			return fmt.Errorf("weight for source %q must be between 0 and 1, got %v", r.Source, r.Weight)
		}
	}
	if p.UnknownWeight < 0 || p.UnknownWeight > 1 {
		return fmt.Errorf("unknown source weight must be between 0 and 1, got %v", p.UnknownWeight)
	}
	return nil
}
