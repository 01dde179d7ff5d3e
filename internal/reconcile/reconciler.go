// Package reconcile merges candidate records from several sources into one
// normalized work with per-field provenance and a weighted confidence.
package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/relevance"
)

// ErrNoCandidates matches any ReconciliationError
var ErrNoCandidates = errors.New("no usable candidates from any source")

// ReconciliationError is returned when no source produced a candidate
type ReconciliationError struct {
	SourceErrors map[string]error
}

func (e *ReconciliationError) Error() string {
	if len(e.SourceErrors) == 0 {
		return ErrNoCandidates.Error()
	}
	names := make([]string, 0, len(e.SourceErrors))
	for name := range e.SourceErrors {
		names = append(names, name)
	}
	slices.Sort(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %v", name, e.SourceErrors[name]))
	}
	return fmt.Sprintf("%s (%s)", ErrNoCandidates.Error(), strings.Join(parts, "; "))
}

func (e *ReconciliationError) Is(target error) bool {
	return target == ErrNoCandidates
}

// Unwrap exposes the per-source errors to errors.Is and errors.As
func (e *ReconciliationError) Unwrap() []error {
	errs := make([]error, 0, len(e.SourceErrors))
	for _, err := range e.SourceErrors {
		errs = append(errs, err)
	}
	return errs
}

// Input is everything one reconciliation needs
type Input struct {
	Title  string
	Author string

	// Candidates and Errors are keyed by source name
	Candidates map[string][]models.CandidateRecord
	Errors     map[string]error

	// AuthorFacts enrich the death year
	AuthorFacts []models.AuthorFacts

	Country string
	// WorkCategory overrides inference from the author name when set
	WorkCategory models.WorkCategory
}

// Reconciler merges candidates. It holds no mutable state.
type Reconciler struct {
	scorer     *relevance.Scorer
	precedence Precedence
}

// New creates a reconciler
func New(scorer *relevance.Scorer, precedence Precedence) *Reconciler {
	return &Reconciler{scorer: scorer, precedence: precedence}
}

type fieldState struct {
	source     string
	confidence float64
	set        bool
}

// claim reports whether a value backed by confidence may be written: the
// first writer wins unless a later one is strictly more confident
func (f *fieldState) claim(source string, confidence float64) bool {
	if f.set && confidence <= f.confidence {
		return false
	}
	f.source = source
	f.confidence = confidence
	f.set = true
	return true
}

// Reconcile picks the best candidate per source and merges them field by
// field in precedence order
func (r *Reconciler) Reconcile(in Input) (models.NormalizedWork, error) {
	total := 0
	for _, records := range in.Candidates {
		total += len(records)
	}
	if total == 0 {
		return models.NormalizedWork{}, &ReconciliationError{SourceErrors: in.Errors}
	}

	work := models.NormalizedWork{
		Country:     in.Country,
		SourceLinks: make(map[string]string),
		Provenance:  make(map[string]string),
	}

	var title, author, year, category, death fieldState
	var weighted, weights float64

	for _, source := range r.precedence.Order(in.Candidates) {
		best, ok := r.scorer.Best(in.Title, in.Author, in.Candidates[source])
		if !ok {
			continue
		}
		rec := best.Record
		rule := r.precedence.Rule(source)

		if rule.Allows(FieldTitle) && strings.TrimSpace(rec.Title) != "" && title.claim(source, rec.Confidence) {
			work.Title = strings.TrimSpace(rec.Title)
			work.Provenance[string(FieldTitle)] = source
		}
		if rule.Allows(FieldAuthor) && len(rec.Authors) > 0 {
			name := CanonicalAuthor(selectAuthor(in.Author, rec.Authors))
			if name != "" && author.claim(source, rec.Confidence) {
				work.AuthorName = name
				work.Provenance[string(FieldAuthor)] = source
			}
		}
		if rule.Allows(FieldPublicationYear) && rec.PublicationYear != nil && year.claim(source, rec.Confidence) {
			work.PublicationYear = models.Year(*rec.PublicationYear)
			work.Provenance[string(FieldPublicationYear)] = source
		}
		if rule.Allows(FieldCategory) && rec.CategoryHint != "" && rec.CategoryHint != models.CategoryUnknown &&
			category.claim(source, rec.CategoryConfidence) {
			work.Category = rec.CategoryHint
			work.CategoryConfidence = floatPtr(rec.CategoryConfidence)
			work.CategoryBasis = source + ": " + rec.CategoryBasis
			work.Provenance[string(FieldCategory)] = source
		}

		if rec.SourceURL != "" {
			work.SourceLinks[source] = rec.SourceURL
		}
		if rec.Note != "" {
			work.Notes = append(work.Notes, source+": "+rec.Note)
		}
		work.Sources = append(work.Sources, models.SourceRef{
			Source:     source,
			SourceID:   sourceID(rec),
			Confidence: rec.Confidence,
		})

		weighted += rule.Weight * rec.Confidence
		weights += rule.Weight
	}

	if weights > 0 {
		work.ConfidenceScore = weighted / weights
	}

	if work.Title == "" {
		work.Title = strings.TrimSpace(in.Title)
		work.Provenance[string(FieldTitle)] = "query"
	}
	if work.AuthorName == "" && relevance.IsSpecificAuthor(in.Author) {
		work.AuthorName = CanonicalAuthor(in.Author)
		work.Provenance[string(FieldAuthor)] = "query"
	}

	for _, facts := range in.AuthorFacts {
		if facts.DeathYear == nil || !r.sameAuthor(work.AuthorName, in.Author, facts.Name) {
			continue
		}
		if death.claim(facts.Source, facts.Confidence) {
			work.AuthorDeathYear = models.Year(*facts.DeathYear)
			work.Provenance[string(FieldAuthorDeathYear)] = facts.Source
		}
	}

	if work.Category == "" {
		c, conf, basis := ClassifyCategory(CategoryEvidence{}, NoEvidenceConfidence)
		work.Category = c
		work.CategoryConfidence = floatPtr(conf)
		work.CategoryBasis = basis
	}

	if in.WorkCategory != "" {
		work.WorkCategory = in.WorkCategory
	} else {
		work.WorkCategory = InferWorkCategory(work.AuthorName)
	}

	return work, nil
}

// sameAuthor guards the death-year enrichment against facts about a
// different person
func (r *Reconciler) sameAuthor(canonical, query, factsName string) bool {
	for _, target := range []string{canonical, query} {
		if relevance.IsSpecificAuthor(target) && r.scorer.AuthorScore(target, []string{factsName}) > 0 {
			return true
		}
	}
	return false
}

func sourceID(rec models.CandidateRecord) string {
	if rec.SourceID != "" {
		return rec.SourceID
	}
	return rec.SourceURL
}

func floatPtr(f float64) *float64 {
	return &f
}
