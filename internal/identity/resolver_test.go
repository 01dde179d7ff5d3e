package identity

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

func TestContentKey(t *testing.T) {
	a := ContentKey("The Great Gatsby", "Fitzgerald, F. Scott", models.Year(1925))
	b := ContentKey("great gatsby!", "F. Scott Fitzgerald", models.Year(1925))
	if a != b {
		t.Errorf("Expected identical keys, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected sha256 hex key, got %q", a)
	}

	tallis := ContentKey("Spem in alium", "Thomas Tallis", models.Year(1570))
	if heading := ContentKey("Spem in alium", "Tallis, Thomas, d. 1585", models.Year(1570)); heading != tallis {
		t.Errorf("Expected life-date heading to share the key of the plain name")
	}

	if c := ContentKey("The Great Gatsby", "F. Scott Fitzgerald", models.Year(1926)); c == a {
		t.Error("Expected a different key for a different year")
	}
	if c := ContentKey("The Great Gatsby", "F. Scott Fitzgerald", nil); c == a {
		t.Error("Expected a different key without a year")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string) string
		input    string
		expected string
	}{
		{"title drops the", NormalizeTitle, "The Raven", "raven"},
		{"title drops an", NormalizeTitle, "An Essay on Man", "essay on man"},
		{"title keeps inner article", NormalizeTitle, "Gone with the Wind", "gone with the wind"},
		{"title without article word boundary", NormalizeTitle, "Theatre", "theatre"},
		{"author flips last first", NormalizeAuthor, "Stoker, Bram", "bram stoker"},
		{"author with dates", NormalizeAuthor, "Austen, Jane, 1775-1817", "jane austen"},
		{"author with death date", NormalizeAuthor, "Tallis, Thomas, d. 1585", "thomas tallis"},
		{"author plain", NormalizeAuthor, "Bram Stoker", "bram stoker"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	r := NewResolver(DefaultParams())

	base := models.NormalizedWork{Title: "Dracula", AuthorName: "Bram Stoker", PublicationYear: models.Year(1897)}

	tests := []struct {
		name     string
		other    models.NormalizedWork
		expected float64
	}{
		{"same work other spelling", models.NormalizedWork{Title: "Dracula.", AuthorName: "Stoker, Bram", PublicationYear: models.Year(1897)}, 1.0},
		{"surname only year off by two", models.NormalizedWork{Title: "Dracula", AuthorName: "Stoker", PublicationYear: models.Year(1899)}, 0.6 + 0.3*(6.0/11.0) + 0.05},
		{"initial year off by one", models.NormalizedWork{Title: "Dracula", AuthorName: "B. Stoker", PublicationYear: models.Year(1898)}, 0.65},
		{"different work", models.NormalizedWork{Title: "Frankenstein", AuthorName: "Mary Shelley", PublicationYear: models.Year(1818)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Similarity(base, tt.other)
			if math.Abs(got-tt.expected) > 0.001 {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}

	empty := r.Similarity(models.NormalizedWork{Title: "Beowulf"}, models.NormalizedWork{Title: "Beowulf"})
	if math.Abs(empty-(0.6+0.3*0.2+0.05)) > 0.001 {
		t.Errorf("Expected small credit for empty authors and missing years, got %f", empty)
	}
}

func TestDecide(t *testing.T) {
	r := NewResolver(DefaultParams())

	work := models.NormalizedWork{Title: "Dracula", AuthorName: "Bram Stoker", PublicationYear: models.Year(1897)}
	exactKey := ContentKey("Dracula", "Stoker, Bram", models.Year(1897))

	pool := []models.StoredWorkRecord{
		{ID: "weak", ContentKey: "x", Work: models.NormalizedWork{Title: "Dracula", AuthorName: "B. Stoker", PublicationYear: models.Year(1898)}},
		{ID: "similar", ContentKey: "y", Work: models.NormalizedWork{Title: "Dracula", AuthorName: "Stoker", PublicationYear: models.Year(1897)}},
	}

	d := r.Decide(work, pool)
	if d.Outcome != OutcomeMergedSimilar || d.Target == nil || d.Target.ID != "similar" {
		t.Fatalf("Expected similar merge into 'similar', got %+v", d)
	}

	pool = append(pool, models.StoredWorkRecord{ID: "exact", ContentKey: exactKey})
	d = r.Decide(work, pool)
	if d.Outcome != OutcomeMergedExact || d.Target.ID != "exact" {
		t.Errorf("Expected exact merge, got %+v", d)
	}

	d = r.Decide(work, pool[:1])
	if d.Outcome != OutcomeNew || d.Target != nil {
		t.Errorf("Expected new record below threshold, got %+v", d)
	}
}

func TestMerge(t *testing.T) {
	r := NewResolver(DefaultParams())
	fixed := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	existing := models.StoredWorkRecord{
		ID:         "1",
		ContentKey: "k",
		Work: models.NormalizedWork{
			Title:           "Dracula",
			AuthorName:      "Bram Stoker",
			SourceLinks:     map[string]string{"loc": "https://lccn.loc.gov/1"},
			ConfidenceScore: 0.9,
			WorkCategory:    models.WorkIndividual,
			Verdict:         &models.CopyrightVerdict{Status: models.StatusUnknown},
		},
		AlternateSources: []models.SourceRef{{Source: "loc", SourceID: "1", Confidence: 0.9}},
	}

	incoming := models.NormalizedWork{
		Title:           "Dracula",
		AuthorName:      "Bram Stoker",
		PublicationYear: models.Year(1897),
		SourceLinks:     map[string]string{"loc": "https://lccn.loc.gov/other", "hathitrust": "https://catalog.hathitrust.org/Record/2"},
		ConfidenceScore: 0.6,
		WorkCategory:    models.WorkAnonymous,
		Verdict:         &models.CopyrightVerdict{Status: models.StatusPublicDomain, PublicDomainYear: models.Year(1923)},
		Sources: []models.SourceRef{
			{Source: "loc", SourceID: "1", Confidence: 0.6},
			{Source: "hathitrust", SourceID: "2", Confidence: 0.9},
		},
	}

	merged := r.Merge(existing, incoming)

	if merged.Work.SourceLinks["loc"] != "https://lccn.loc.gov/1" {
		t.Errorf("Expected existing link kept, got %s", merged.Work.SourceLinks["loc"])
	}
	if merged.Work.SourceLinks["hathitrust"] == "" {
		t.Error("Expected hathitrust link added")
	}
	if merged.Work.WorkCategory != models.WorkAnonymous {
		t.Errorf("Expected newer category, got %s", merged.Work.WorkCategory)
	}
	if merged.Work.Verdict.Status != models.StatusPublicDomain || models.IntValue(merged.Work.Verdict.PublicDomainYear) != 1923 {
		t.Errorf("Expected newer verdict, got %+v", merged.Work.Verdict)
	}
	if merged.Work.ConfidenceScore != 0.9 {
		t.Errorf("Expected max confidence 0.9, got %f", merged.Work.ConfidenceScore)
	}
	if models.IntValue(merged.Work.PublicationYear) != 1897 {
		t.Error("Expected missing publication year filled")
	}
	if len(merged.AlternateSources) != 2 || merged.AlternateSources[1].Source != "hathitrust" {
		t.Errorf("Expected audit trail with 2 entries, got %+v", merged.AlternateSources)
	}
	if !merged.AlternateSources[1].SeenAt.Equal(fixed) {
		t.Errorf("Expected seen time stamped, got %s", merged.AlternateSources[1].SeenAt)
	}
	if len(existing.Work.SourceLinks) != 1 {
		t.Error("Merge must not mutate the existing record")
	}
}

type fakeStore struct {
	records  []models.StoredWorkRecord
	upserts  int
	failFind bool
}

func (f *fakeStore) FindByKey(_ context.Context, key string) (*models.StoredWorkRecord, error) {
	if f.failFind {
		return nil, errors.New("boom")
	}
	for i := range f.records {
		if f.records[i].ContentKey == key {
			rec := f.records[i]
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindSimilar(_ context.Context, _ models.NormalizedWork) ([]models.StoredWorkRecord, error) {
	return f.records, nil
}

func (f *fakeStore) Upsert(_ context.Context, rec models.StoredWorkRecord) (models.StoredWorkRecord, error) {
	f.upserts++
	if rec.ID == "" {
		rec.ID = "generated"
		f.records = append(f.records, rec)
		return rec, nil
	}
	for i := range f.records {
		if f.records[i].ID == rec.ID {
			f.records[i] = rec
		}
	}
	return rec, nil
}

func TestResolve(t *testing.T) {
	r := NewResolver(DefaultParams())
	store := &fakeStore{}
	ctx := context.Background()

	work := models.NormalizedWork{
		Title:           "Pride and Prejudice",
		AuthorName:      "Jane Austen",
		PublicationYear: models.Year(1813),
		Sources:         []models.SourceRef{{Source: "loc", SourceID: "a"}},
	}

	first, err := r.Resolve(ctx, store, work)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first.Outcome != OutcomeNew || first.Record.ID != "generated" {
		t.Fatalf("Expected new record, got %+v", first)
	}

	again := work
	again.AuthorName = "Austen, Jane"
	again.Sources = []models.SourceRef{{Source: "hathitrust", SourceID: "b"}}
	second, err := r.Resolve(ctx, store, again)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if second.Outcome != OutcomeMergedExact {
		t.Errorf("Expected exact merge, got %s", second.Outcome)
	}
	if len(store.records) != 1 {
		t.Errorf("Expected no duplicate, got %d records", len(store.records))
	}
	if len(store.records[0].AlternateSources) != 2 {
		t.Errorf("Expected two audit entries, got %+v", store.records[0].AlternateSources)
	}
	if store.upserts != 2 {
		t.Errorf("Expected one upsert per resolve, got %d", store.upserts)
	}

	store.failFind = true
	if _, err := r.Resolve(ctx, store, work); err == nil {
		t.Error("Expected store error to surface")
	}
}
