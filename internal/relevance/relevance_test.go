package relevance

import (
	"math"
	"testing"

	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestTitleScore(t *testing.T) {
	s := New(DefaultParams())

	tests := []struct {
		name      string
		target    string
		candidate string
		expected  float64
	}{
		{"exact after normalization", "Pride and Prejudice", "pride and prejudice.", 100},
		{"containment above ratio", "Pride and Prejudice", "Pride and prejudice : a novel", 80 * 19.0 / 27.0},
		{"containment below ratio", "It", "It came from the deep and other stories", 0},
		{"token overlap", "The War of the Worlds", "Worlds War Revisited", 30},
		{"no overlap", "Dracula", "Frankenstein", 0},
		{"empty candidate", "Dracula", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.TitleScore(tt.target, tt.candidate)
			if !approx(got, tt.expected) {
				t.Errorf("TitleScore(%q, %q) = %f, want %f", tt.target, tt.candidate, got, tt.expected)
			}
		})
	}
}

func TestAuthorScore(t *testing.T) {
	s := New(DefaultParams())

	tests := []struct {
		name     string
		target   string
		authors  []string
		expected float64
	}{
		{"generic target is neutral", "unknown", []string{"Austen, Jane"}, 50},
		{"exact primary author is capped", "Jane Austen", []string{"Jane Austen"}, 100},
		{"exact secondary author", "Jane Austen", []string{"Someone Else", "Jane Austen"}, 100},
		{"last first both parts", "Jane Austen", []string{"Austen, Jane, 1775-1817"}, 85 * 1.1},
		{"last first surname only", "J. Austen", []string{"Austen, Jane"}, 60 * 1.1},
		{"substring scaled", "Austen", []string{"Jane Austen"}, 70 * (6.0 / 11.0) * 1.1},
		{"secondary author gets no bonus", "Austen", []string{"Bronte, Charlotte", "Jane Austen"}, 70 * (6.0 / 11.0)},
		{"no authors", "Jane Austen", nil, 0},
		{"mismatch", "Jane Austen", []string{"Stoker, Bram"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.AuthorScore(tt.target, tt.authors)
			if !approx(got, tt.expected) {
				t.Errorf("AuthorScore(%q, %v) = %f, want %f", tt.target, tt.authors, got, tt.expected)
			}
		})
	}
}

func TestScoreGate(t *testing.T) {
	s := New(DefaultParams())

	tests := []struct {
		name      string
		title     string
		author    string
		candidate models.CandidateRecord
		expected  float64
	}{
		{
			name:      "exact match with year bonus",
			title:     "Dracula",
			author:    "Bram Stoker",
			candidate: models.CandidateRecord{Title: "Dracula", Authors: []string{"Bram Stoker"}, PublicationYear: models.Year(1897)},
			expected:  205,
		},
		{
			name:      "specific author rescues weak title",
			title:     "Collected Works",
			author:    "Bram Stoker",
			candidate: models.CandidateRecord{Title: "Dracula", Authors: []string{"Stoker, Bram"}},
			expected:  85 * 1.1,
		},
		{
			name:      "specific author rejects irrelevant candidate",
			title:     "Hamlet",
			author:    "Jane Austen",
			candidate: models.CandidateRecord{Title: "Macbeth", Authors: []string{"Shakespeare, William"}, PublicationYear: models.Year(1623)},
			expected:  0,
		},
		{
			name:      "generic author requires title",
			title:     "Hamlet",
			author:    "unknown",
			candidate: models.CandidateRecord{Title: "Macbeth", Authors: []string{"Shakespeare, William"}},
			expected:  0,
		},
		{
			name:      "no author uses title only",
			title:     "Hamlet",
			author:    "",
			candidate: models.CandidateRecord{Title: "Hamlet", Authors: []string{"Shakespeare, William"}},
			expected:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.title, tt.author, tt.candidate)
			if !approx(got, tt.expected) {
				t.Errorf("Score = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestScoreSymmetricForExactMatch(t *testing.T) {
	s := New(DefaultParams())

	a := s.Score("The Great Gatsby", "F. Scott Fitzgerald",
		models.CandidateRecord{Title: "the great gatsby", Authors: []string{"f. scott fitzgerald"}})
	b := s.Score("the great gatsby", "f. scott fitzgerald",
		models.CandidateRecord{Title: "The Great Gatsby", Authors: []string{"F. Scott Fitzgerald"}})

	if a != b {
		t.Errorf("Expected symmetric scores, got %f and %f", a, b)
	}
}

func TestRank(t *testing.T) {
	s := New(DefaultParams())

	candidates := []models.CandidateRecord{
		{Title: "Dracula's Guest", Authors: []string{"Stoker, Bram"}},
		{Title: "", Authors: []string{"Bram Stoker"}},
		{Title: "Dracula", Authors: []string{"Stoker, Bram"}, PublicationYear: models.Year(1897), SourceID: "first"},
		{Title: "Frankenstein", Authors: []string{"Shelley, Mary"}},
		{Title: "Dracula", Authors: []string{"Stoker, Bram"}, PublicationYear: models.Year(1897), SourceID: "second"},
	}

	ranked := s.Rank("Dracula", "Bram Stoker", candidates, 0)
	if len(ranked) != 3 {
		t.Fatalf("Expected 3 survivors, got %d", len(ranked))
	}

	if ranked[0].Record.SourceID != "first" || ranked[1].Record.SourceID != "second" {
		t.Errorf("Expected stable order for ties, got %s then %s", ranked[0].Record.SourceID, ranked[1].Record.SourceID)
	}
	if ranked[2].Index != 0 {
		t.Errorf("Expected weaker match last, got index %d", ranked[2].Index)
	}

	top := s.Rank("Dracula", "Bram Stoker", candidates, 1)
	if len(top) != 1 || top[0].Record.SourceID != "first" {
		t.Errorf("Expected top-1 to be the first exact match, got %+v", top)
	}
}

func TestRankPrefersPrimaryAuthor(t *testing.T) {
	s := New(DefaultParams())

	candidates := []models.CandidateRecord{
		{Title: "Songs", Authors: []string{"Other Person", "Jane Austen"}, SourceID: "secondary"},
		{Title: "Songs", Authors: []string{"Jane Austen", "Other Person"}, SourceID: "primary"},
	}

	ranked := s.Rank("Songs", "Jane Austen", candidates, 0)
	if len(ranked) != 2 {
		t.Fatalf("Expected 2 survivors, got %d", len(ranked))
	}
	if ranked[0].Score != ranked[1].Score {
		t.Errorf("Expected equal capped scores, got %.2f and %.2f", ranked[0].Score, ranked[1].Score)
	}
	if ranked[0].Record.SourceID != "primary" {
		t.Errorf("Expected the primary-author candidate first, got %s", ranked[0].Record.SourceID)
	}
	if got := s.AuthorScore("Jane Austen", candidates[1].Authors); got != 100 {
		t.Errorf("Expected author score capped at 100, got %.2f", got)
	}
}

func TestBestNoSurvivor(t *testing.T) {
	s := New(DefaultParams())

	_, ok := s.Best("Dracula", "Bram Stoker", []models.CandidateRecord{{Title: "Emma", Authors: []string{"Austen, Jane"}}})
	if ok {
		t.Error("Expected no survivor")
	}
}
