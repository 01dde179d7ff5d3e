package identity

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/textnorm"
)

// Params holds the similarity weights and match threshold
type Params struct {
	TitleWeight       float64 `yaml:"title_weight"`
	AuthorWeight      float64 `yaml:"author_weight"`
	YearWeight        float64 `yaml:"year_weight"`
	Threshold         float64 `yaml:"threshold"`
	YearTolerance     int     `yaml:"year_tolerance"`
	EmptyAuthorCredit float64 `yaml:"empty_author_credit"`
}

// DefaultParams returns the tuned weights
func DefaultParams() Params {
	return Params{
		TitleWeight:       0.6,
		AuthorWeight:      0.3,
		YearWeight:        0.1,
		Threshold:         0.7,
		YearTolerance:     2,
		EmptyAuthorCredit: 0.2,
	}
}

// Store is the narrow view of the work pool the resolver needs. Upsert must
// apply a single record atomically.
type Store interface {
	FindByKey(ctx context.Context, contentKey string) (*models.StoredWorkRecord, error)
	FindSimilar(ctx context.Context, work models.NormalizedWork) ([]models.StoredWorkRecord, error)
	Upsert(ctx context.Context, record models.StoredWorkRecord) (models.StoredWorkRecord, error)
}

// Outcome says how a work was resolved
type Outcome string

const (
	OutcomeNew           Outcome = "new"
	OutcomeMergedExact   Outcome = "merged_exact"
	OutcomeMergedSimilar Outcome = "merged_similar"
)

// Decision is the pure result of matching a work against a pool
type Decision struct {
	Outcome    Outcome
	ContentKey string
	Target     *models.StoredWorkRecord
	Similarity float64
}

// Resolution is the stored outcome of resolving a work
type Resolution struct {
	Outcome    Outcome                 `json:"outcome" yaml:"outcome"`
	Similarity float64                 `json:"similarity" yaml:"similarity"`
	Record     models.StoredWorkRecord `json:"record" yaml:"record"`
}

// Resolver matches and merges works
type Resolver struct {
	params Params
	now    func() time.Time
}

// NewResolver creates a resolver using the wall clock for audit timestamps
func NewResolver(params Params) *Resolver {
	return &Resolver{params: params, now: time.Now}
}

// Similarity scores two works on a 0-1 scale
func (r *Resolver) Similarity(a, b models.NormalizedWork) float64 {
	return r.params.TitleWeight*titleSimilarity(a.Title, b.Title) +
		r.params.AuthorWeight*r.authorSimilarity(a.AuthorName, b.AuthorName) +
		r.params.YearWeight*r.yearSimilarity(a.PublicationYear, b.PublicationYear)
}

func titleSimilarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if textnorm.Contains(na, nb) {
		return textnorm.LengthRatio(na, nb)
	}
	return textnorm.Jaccard(textnorm.Words(na, 0), textnorm.Words(nb, 0))
}

func (r *Resolver) authorSimilarity(a, b string) float64 {
	na, nb := NormalizeAuthor(a), NormalizeAuthor(b)
	switch {
	case na == "" && nb == "":
		return r.params.EmptyAuthorCredit
	case na == "" || nb == "":
		return 0
	case na == nb:
		return 1
	case textnorm.Contains(na, nb):
		return textnorm.LengthRatio(na, nb)
	}
	return 0
}

func (r *Resolver) yearSimilarity(a, b *int) float64 {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return 0.5
		}
		return 0
	}
	diff := *a - *b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return 1
	case diff <= r.params.YearTolerance:
		return 0.5
	}
	return 0
}

// Decide matches work against pool without touching any store. The exact
// content key wins; otherwise the most similar record at or above the
// threshold is chosen, earliest in pool order on ties.
func (r *Resolver) Decide(work models.NormalizedWork, pool []models.StoredWorkRecord) Decision {
	key := ContentKey(work.Title, work.AuthorName, work.PublicationYear)
	d := Decision{Outcome: OutcomeNew, ContentKey: key}

	for i := range pool {
		if pool[i].ContentKey == key {
			d.Outcome = OutcomeMergedExact
			d.Target = &pool[i]
			d.Similarity = 1
			return d
		}
	}

	for i := range pool {
		score := r.Similarity(work, pool[i].Work)
		if score >= r.params.Threshold && score > d.Similarity {
			d.Outcome = OutcomeMergedSimilar
			d.Target = &pool[i]
			d.Similarity = score
		}
	}
	return d
}

// Resolve looks the work up in store, merges into an existing record or
// creates a new one, and writes the result with a single Upsert.
func (r *Resolver) Resolve(ctx context.Context, store Store, work models.NormalizedWork) (Resolution, error) {
	key := ContentKey(work.Title, work.AuthorName, work.PublicationYear)

	existing, err := store.FindByKey(ctx, key)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to look up content key: %w", err)
	}

	var d Decision
	if existing != nil {
		d = Decision{Outcome: OutcomeMergedExact, ContentKey: key, Target: existing, Similarity: 1}
	} else {
		pool, err := store.FindSimilar(ctx, work)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to find similar works: %w", err)
		}
		d = r.Decide(work, pool)
	}

	var record models.StoredWorkRecord
	if d.Target != nil {
		record = r.Merge(*d.Target, work)
	} else {
		record = r.NewRecord(key, work)
	}

	stored, err := store.Upsert(ctx, record)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to store work: %w", err)
	}
	return Resolution{Outcome: d.Outcome, Similarity: d.Similarity, Record: stored}, nil
}

// NewRecord wraps a work that matched nothing
func (r *Resolver) NewRecord(key string, work models.NormalizedWork) models.StoredWorkRecord {
	now := r.now().UTC()
	rec := models.StoredWorkRecord{
		ContentKey: key,
		Work:       cloneWork(work),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rec.AlternateSources = appendRefs(nil, work.Sources, now)
	return rec
}

// Merge folds incoming into existing. Source links are unioned, category
// and copyright facts take the newer values, confidence takes the maximum,
// and every contributing source is kept in the audit trail.
func (r *Resolver) Merge(existing models.StoredWorkRecord, incoming models.NormalizedWork) models.StoredWorkRecord {
	merged := existing
	merged.Work = cloneWork(existing.Work)
	w := &merged.Work

	if w.SourceLinks == nil {
		w.SourceLinks = make(map[string]string)
	}
	for src, url := range incoming.SourceLinks {
		if _, ok := w.SourceLinks[src]; !ok {
			w.SourceLinks[src] = url
		}
	}

	if w.Title == "" {
		w.Title = incoming.Title
	}
	if w.AuthorName == "" {
		w.AuthorName = incoming.AuthorName
	}
	if w.PublicationYear == nil {
		w.PublicationYear = incoming.PublicationYear
	}
	if incoming.AuthorDeathYear != nil {
		w.AuthorDeathYear = incoming.AuthorDeathYear
	}

	if incoming.WorkCategory != "" {
		w.WorkCategory = incoming.WorkCategory
	}
	if incoming.Category != "" {
		w.Category = incoming.Category
		w.CategoryConfidence = incoming.CategoryConfidence
		w.CategoryBasis = incoming.CategoryBasis
	}
	if incoming.Verdict != nil {
		v := *incoming.Verdict
		w.Verdict = &v
	}
	w.ConfidenceScore = max(w.ConfidenceScore, incoming.ConfidenceScore)

	for _, note := range incoming.Notes {
		if !slices.Contains(w.Notes, note) {
			w.Notes = append(w.Notes, note)
		}
	}

	now := r.now().UTC()
	merged.AlternateSources = appendRefs(slices.Clone(existing.AlternateSources), incoming.Sources, now)
	merged.UpdatedAt = now
	return merged
}

func appendRefs(trail, refs []models.SourceRef, seen time.Time) []models.SourceRef {
	for _, ref := range refs {
		dup := slices.ContainsFunc(trail, func(t models.SourceRef) bool {
			return t.Source == ref.Source && t.SourceID == ref.SourceID
		})
		if dup {
			continue
		}
		if ref.SeenAt.IsZero() {
			ref.SeenAt = seen
		}
		trail = append(trail, ref)
	}
	return trail
}

func cloneWork(w models.NormalizedWork) models.NormalizedWork {
	c := w
	c.SourceLinks = maps.Clone(w.SourceLinks)
	c.Provenance = maps.Clone(w.Provenance)
	c.Sources = slices.Clone(w.Sources)
	c.Notes = slices.Clone(w.Notes)
	return c
}
