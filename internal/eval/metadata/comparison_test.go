package metadata

import (
	"testing"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"bronte", "brontë", 1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			if got := Levenshtein(tt.a, tt.b); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestCompareWork(t *testing.T) {
	reference := dataset.InstitutionalBooksRecord{
		TitleSource:  "Pride and prejudice.",
		AuthorSource: "Austen, Jane, 1775-1817.",
		Date1Source:  "1813",
	}
	work := models.NormalizedWork{
		Title:           "Pride and Prejudice",
		AuthorName:      "Jane Austen",
		PublicationYear: models.Year(1813),
	}

	comp := CompareWork(reference, work)

	for _, field := range []string{"title", "author", "date"} {
		if comp.Fields[field].Match != "exact" {
			t.Errorf("Expected exact %s match, got %+v", field, comp.Fields[field])
		}
	}
	if comp.FieldsMatched != 3 || comp.OverallScore != 1.0 {
		t.Errorf("Expected full agreement, got %d matched, score %.2f", comp.FieldsMatched, comp.OverallScore)
	}
}

func TestCompareWorkPartial(t *testing.T) {
	reference := dataset.InstitutionalBooksRecord{
		TitleSource:  "The adventures of Tom Sawyer",
		AuthorSource: "Twain, Mark, 1835-1910.",
		Date1Source:  "1876",
	}
	work := models.NormalizedWork{Title: "Adventures of Tom Sawyer"}

	comp := CompareWork(reference, work)

	if m := comp.Fields["title"].Match; m != "fuzzy_medium" && m != "fuzzy_high" {
		t.Errorf("Expected fuzzy title match, got %s", m)
	}
	if comp.Fields["author"].Match != "missing" || comp.Fields["date"].Match != "missing" {
		t.Errorf("Expected missing author and date, got %+v", comp.Fields)
	}
	if comp.FieldsMissing != 2 {
		t.Errorf("Expected 2 missing fields, got %d", comp.FieldsMissing)
	}
}

func TestCompareFieldEmpty(t *testing.T) {
	both := compareField("isbn", "", "")
	if both.Match != "both_empty" || both.Score != 0.5 {
		t.Errorf("Expected both_empty at 0.5, got %+v", both)
	}

	noRef := compareField("isbn", "", "123")
	if noRef.Match != "no_reference" || noRef.Score != 0 {
		t.Errorf("Expected no_reference, got %+v", noRef)
	}
}
