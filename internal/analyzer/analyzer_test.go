package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/config"
	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
	"github.com/lehigh-university-libraries/pdcheck/internal/storage"
)

type fakeSource struct {
	name    string
	records []models.CandidateRecord
	err     error
	delay   time.Duration
	calls   atomic.Int32
	closed  atomic.Bool
	queries chan sources.Query
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) FetchCandidates(ctx context.Context, q sources.Query) ([]models.CandidateRecord, error) {
	f.calls.Add(1)
	if f.queries != nil {
		f.queries <- q
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func (f *fakeSource) Close() error {
	f.closed.Store(true)
	return nil
}

type fakeIdentifierSource struct {
	scheme, id string
	records    []models.CandidateRecord
}

func (f *fakeIdentifierSource) Name() string { return sources.HathiTrustName }

func (f *fakeIdentifierSource) FetchByIdentifier(ctx context.Context, scheme, id string) ([]models.CandidateRecord, error) {
	f.scheme, f.id = scheme, id
	return f.records, nil
}

type fakeLookup struct {
	facts *models.AuthorFacts
}

func (f fakeLookup) LookupAuthor(ctx context.Context, name string) (*models.AuthorFacts, error) {
	return f.facts, nil
}

func locRecord(title, author string, year int) models.CandidateRecord {
	return models.CandidateRecord{
		Title:              title,
		Authors:            []string{author},
		PublicationYear:    models.Year(year),
		SourceName:         sources.LOCName,
		SourceURL:          "https://lccn.loc.gov/" + fmt.Sprint(year),
		Confidence:         0.9,
		CategoryHint:       models.CategoryLiterary,
		CategoryConfidence: 0.80,
		CategoryBasis:      "catalog genre",
		Identifiers:        map[string][]string{"oclc": {"12345"}},
	}
}

func newTestAnalyzer(c Config) *Analyzer {
	if c.Registry == nil {
		c.Registry = copyright.DefaultRegistry(2024)
	}
	return New(c)
}

func TestAnalyzePublicDomain(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Pride and prejudice", "Austen, Jane, 1775-1817", 1813),
	}}
	hathi := &fakeIdentifierSource{records: []models.CandidateRecord{{
		Title:           "Pride and prejudice.",
		PublicationYear: models.Year(1813),
		SourceName:      sources.HathiTrustName,
		SourceURL:       "https://catalog.hathitrust.org/Record/1",
		Confidence:      0.9,
		Note:            "rights pd: Public Domain",
	}}}

	a := newTestAnalyzer(Config{
		Sources:           []sources.Source{loc},
		IdentifierSources: []sources.IdentifierSource{hathi},
		AuthorLookup:      fakeLookup{facts: &models.AuthorFacts{Name: "Jane Austen", DeathYear: models.Year(1817), Source: "musicbrainz", Confidence: 0.8}},
	})

	res, err := a.Analyze(context.Background(), Request{Title: "Pride and Prejudice", Author: "Jane Austen"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if hathi.scheme != "oclc" || hathi.id != "12345" {
		t.Errorf("Expected oclc 12345 follow-up, got %s %s", hathi.scheme, hathi.id)
	}
	if res.Work.Verdict == nil || res.Work.Verdict.Status != models.StatusPublicDomain {
		t.Fatalf("Expected Public Domain verdict, got %+v", res.Work.Verdict)
	}
	if res.Work.Country != "US" {
		t.Errorf("Expected default country US, got %s", res.Work.Country)
	}
	if models.IntValue(res.Work.AuthorDeathYear) != 1817 {
		t.Errorf("Expected death year 1817, got %v", res.Work.AuthorDeathYear)
	}
	if _, ok := res.Work.SourceLinks[sources.HathiTrustName]; !ok {
		t.Errorf("Expected hathitrust link, got %v", res.Work.SourceLinks)
	}
	if res.Resolution != nil {
		t.Error("Expected no resolution without a store")
	}
}

func TestAnalyzeSourceFailureIsNonFatal(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Dracula", "Stoker, Bram", 1897),
	}}
	mb := &fakeSource{name: sources.MusicBrainzName, err: errors.New("connection refused")}

	a := newTestAnalyzer(Config{Sources: []sources.Source{loc, mb}})
	res, err := a.Analyze(context.Background(), Request{Title: "Dracula", Author: "Bram Stoker"})
	if err != nil {
		t.Fatalf("Expected partial success, got %v", err)
	}
	if res.Work.Title != "Dracula" {
		t.Errorf("Expected Dracula, got %s", res.Work.Title)
	}
	if mb.calls.Load() != 1 {
		t.Errorf("Expected musicbrainz to be queried once, got %d", mb.calls.Load())
	}
}

func TestAnalyzeSourceTimeout(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Dracula", "Stoker, Bram", 1897),
	}}
	slow := &fakeSource{name: sources.MusicBrainzName, delay: time.Second}

	a := newTestAnalyzer(Config{Sources: []sources.Source{loc, slow}, SourceTimeout: 20 * time.Millisecond})

	start := time.Now()
	if _, err := a.Analyze(context.Background(), Request{Title: "Dracula"}); err != nil {
		t.Fatalf("Expected slow source to be dropped, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Expected the timeout to bound the call, took %s", elapsed)
	}
}

func TestAnalyzeNoCandidates(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, err: errors.New("503 Service Unavailable")}
	mb := &fakeSource{name: sources.MusicBrainzName}

	a := newTestAnalyzer(Config{Sources: []sources.Source{loc, mb}})
	_, err := a.Analyze(context.Background(), Request{Title: "Nothing Anywhere"})
	if !errors.Is(err, reconcile.ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates, got %v", err)
	}

	var rerr *reconcile.ReconciliationError
	if !errors.As(err, &rerr) {
		t.Fatalf("Expected ReconciliationError, got %T", err)
	}
	if _, ok := rerr.SourceErrors[sources.LOCName]; !ok {
		t.Errorf("Expected loc failure to be reported, got %v", rerr.SourceErrors)
	}
}

func TestAnalyzeInvalidInput(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}})

	tests := []struct {
		name   string
		req    Request
		target error
	}{
		{"empty title", Request{Title: "  "}, copyright.ErrInvalidInput},
		{"unsupported country", Request{Title: "Emma", Country: "FR"}, copyright.ErrConfiguration},
		{"bad work type", Request{Title: "Emma", WorkType: "poem"}, copyright.ErrInvalidInput},
		{"bad category filter", Request{Title: "Emma", Category: "film"}, copyright.ErrInvalidInput},
		{"bad work category", Request{Title: "Emma", WorkCategory: "group"}, copyright.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), tt.req)
			if !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}

	if loc.calls.Load() != 0 {
		t.Errorf("Expected no source calls for invalid input, got %d", loc.calls.Load())
	}
}

func TestAnalyzeInconsistentFactsGiveUnknown(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Strange Book", "Doe, John", 1990),
	}}
	a := newTestAnalyzer(Config{
		Sources:      []sources.Source{loc},
		AuthorLookup: fakeLookup{facts: &models.AuthorFacts{Name: "John Doe", DeathYear: models.Year(1700), Source: "musicbrainz", Confidence: 0.8}},
	})

	res, err := a.Analyze(context.Background(), Request{Title: "Strange Book", Author: "John Doe"})
	if err != nil {
		t.Fatalf("Expected an Unknown verdict, got error %v", err)
	}
	if res.Work.Verdict.Status != models.StatusUnknown {
		t.Errorf("Expected Unknown, got %s", res.Work.Verdict.Status)
	}
}

func TestAnalyzeCategoryFilterAndHints(t *testing.T) {
	queries := make(chan sources.Query, 1)
	loc := &fakeSource{name: sources.LOCName, queries: queries, records: []models.CandidateRecord{
		locRecord("Emma", "Austen, Jane", 1815),
	}}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}})

	res, err := a.Analyze(context.Background(), Request{
		Title:        "Emma",
		Author:       "Jane Austen",
		WorkType:     "Literary",
		Country:      "uk",
		Category:     models.CategoryMusical,
		WorkCategory: "anon",
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	q := <-queries
	if q.Category != models.CategoryLiterary {
		t.Errorf("Expected literary hint passed to sources, got %q", q.Category)
	}
	if !res.Excluded {
		t.Error("Expected literary work to be excluded by a musical filter")
	}
	if res.Work.Country != "GB" {
		t.Errorf("Expected GB, got %s", res.Work.Country)
	}
	if res.Work.WorkCategory != models.WorkAnonymous {
		t.Errorf("Expected anonymous override, got %s", res.Work.WorkCategory)
	}
}

func TestAnalyzeResolvesIntoStore(t *testing.T) {
	store := storage.New()
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Dracula", "Stoker, Bram", 1897),
	}}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}, Store: store})

	first, err := a.Analyze(context.Background(), Request{Title: "Dracula", Author: "Bram Stoker"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Analyze(context.Background(), Request{Title: "Dracula", Author: "Bram Stoker"})
	if err != nil {
		t.Fatal(err)
	}

	if first.Resolution == nil || first.Resolution.Outcome != identity.OutcomeNew {
		t.Fatalf("Expected new record, got %+v", first.Resolution)
	}
	if second.Resolution.Outcome != identity.OutcomeMergedExact {
		t.Errorf("Expected merged_exact, got %s", second.Resolution.Outcome)
	}
	if first.Resolution.Record.ID != second.Resolution.Record.ID {
		t.Error("Expected the same stored record")
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, delay: time.Second}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := a.Analyze(ctx, Request{Title: "Dracula"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestAnalyzeBatch(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, records: []models.CandidateRecord{
		locRecord("Dracula", "Stoker, Bram", 1897),
	}}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}, BatchConcurrency: 2})

	reqs := []Request{
		{Title: "Dracula", Author: "Bram Stoker"},
		{Title: ""},
		{Title: "Dracula", Country: "GB"},
	}

	results, err := a.AnalyzeBatch(context.Background(), reqs)
	if err != nil {
		t.Fatalf("AnalyzeBatch failed: %v", err)
	}
	if len(results) != len(reqs) {
		t.Fatalf("Expected %d results, got %d", len(reqs), len(results))
	}

	if results[0].Work.Verdict.Status != models.StatusPublicDomain {
		t.Errorf("Expected first item Public Domain, got %s", results[0].Work.Verdict.Status)
	}
	if results[1].Error == "" || results[1].Work.Verdict.Status != models.StatusUnknown {
		t.Errorf("Expected invalid item as Unknown with an error, got %+v", results[1])
	}
	if results[1].Work.Category != models.CategoryUnknown {
		t.Errorf("Expected unknown category, got %s", results[1].Work.Category)
	}
	if results[2].Work.Country != "GB" {
		t.Errorf("Expected input order preserved, got country %s", results[2].Work.Country)
	}
}

func TestAnalyzeBatchUnsupportedCountry(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}})

	_, err := a.AnalyzeBatch(context.Background(), []Request{{Title: "Emma"}, {Title: "Emma", Country: "JP"}})
	if !errors.Is(err, copyright.ErrConfiguration) {
		t.Fatalf("Expected ErrConfiguration, got %v", err)
	}
	if loc.calls.Load() != 0 {
		t.Errorf("Expected no source calls, got %d", loc.calls.Load())
	}
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName, delay: time.Second}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc}, BatchConcurrency: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := a.AnalyzeBatch(ctx, []Request{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestClose(t *testing.T) {
	loc := &fakeSource{name: sources.LOCName}
	mb := &fakeSource{name: sources.MusicBrainzName}
	a := newTestAnalyzer(Config{Sources: []sources.Source{loc, mb}})

	if err := a.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !loc.closed.Load() || !mb.closed.Load() {
		t.Error("Expected every source closed")
	}
}

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.CurrentYear = 2024

	a, err := Build(cfg, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer a.Close()

	if len(a.cfg.Sources) != 2 || len(a.cfg.IdentifierSources) != 1 || a.cfg.AuthorLookup == nil {
		t.Errorf("Expected loc, musicbrainz and hathitrust wired, got %d/%d", len(a.cfg.Sources), len(a.cfg.IdentifierSources))
	}

	cfg.Country = "FR"
	if _, err := Build(cfg, nil); !errors.Is(err, copyright.ErrConfiguration) {
		t.Errorf("Expected ErrConfiguration for FR, got %v", err)
	}

	cfg = config.Default()
	for name := range cfg.Sources {
		cfg.Sources[name] = config.Source{}
	}
	if _, err := Build(cfg, nil); err == nil || !strings.Contains(err.Error(), "no search sources") {
		t.Errorf("Expected no sources error, got %v", err)
	}
}
