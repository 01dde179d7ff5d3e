package metrics

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/metadata"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

func sampleResults() []RightsResult {
	return []RightsResult{
		{
			Barcode:        "123",
			Title:          "Pride and prejudice",
			RightsCode:     "pd",
			Expected:       models.StatusPublicDomain,
			Predicted:      models.StatusPublicDomain,
			ProcessingTime: 5 * time.Second,
			Comparison: &metadata.WorkComparison{Fields: map[string]metadata.FieldComparison{
				"title":  {Score: 1.0, Match: "exact"},
				"author": {Score: 0.8, Match: "fuzzy_medium"},
				"date":   {Score: 1.0, Match: "exact"},
			}},
		},
		{
			Barcode:        "456",
			Title:          "A modern novel",
			RightsCode:     "ic",
			Expected:       models.StatusUnderCopyright,
			Predicted:      models.StatusPublicDomain,
			ProcessingTime: 3 * time.Second,
			Comparison: &metadata.WorkComparison{Fields: map[string]metadata.FieldComparison{
				"title":  {Score: 0.6, Match: "fuzzy_low"},
				"author": {Score: 0.0, Match: "missing"},
				"date":   {Score: 0.0, Match: "no_match"},
			}},
		},
		{
			Barcode:        "789",
			RightsCode:     "ic",
			Expected:       models.StatusUnderCopyright,
			Predicted:      models.StatusUnknown,
			ProcessingTime: 1 * time.Second,
		},
		{
			Barcode:    "000",
			RightsCode: "und",
			Expected:   models.StatusUnknown,
			Predicted:  models.StatusPublicDomain,
		},
		{
			Barcode:        "999",
			Title:          "Failed Book",
			Expected:       models.StatusPublicDomain,
			Error:          "no usable candidates from any source",
			ProcessingTime: 1 * time.Second,
		},
	}
}

func TestAggregateRightsResults(t *testing.T) {
	agg := AggregateRightsResults(sampleResults(), "analyze", "US")

	if agg.TotalRecords != 5 {
		t.Errorf("Expected TotalRecords=5, got %d", agg.TotalRecords)
	}
	if agg.FailureCount != 1 {
		t.Errorf("Expected FailureCount=1, got %d", agg.FailureCount)
	}
	if agg.Skipped != 1 {
		t.Errorf("Expected Skipped=1, got %d", agg.Skipped)
	}
	if agg.Evaluated != 3 {
		t.Errorf("Expected Evaluated=3, got %d", agg.Evaluated)
	}
	if agg.Agreements != 1 || agg.FalsePublicDomain != 1 || agg.Undetermined != 1 {
		t.Errorf("Expected 1 agreement, 1 false PD, 1 undetermined; got %d, %d, %d",
			agg.Agreements, agg.FalsePublicDomain, agg.Undetermined)
	}
	if rate := agg.AgreementRate; rate < 0.33 || rate > 0.34 {
		t.Errorf("Expected AgreementRate≈0.333, got %.3f", rate)
	}
	if agg.Confusion[models.StatusUnderCopyright][models.StatusPublicDomain] != 1 {
		t.Errorf("Expected one UC->PD confusion, got %v", agg.Confusion)
	}

	if agg.TitleAccuracy.ExactMatches != 1 || agg.TitleAccuracy.FuzzyMatches != 1 {
		t.Errorf("Unexpected title stats %+v", agg.TitleAccuracy)
	}
	if agg.AuthorAccuracy.MissingFields != 1 {
		t.Errorf("Expected AuthorAccuracy.MissingFields=1, got %d", agg.AuthorAccuracy.MissingFields)
	}
	if agg.DateAccuracy.NoMatches != 1 {
		t.Errorf("Expected DateAccuracy.NoMatches=1, got %d", agg.DateAccuracy.NoMatches)
	}
	if math.Abs(agg.TitleAccuracy.AverageScore-0.8) > 1e-9 {
		t.Errorf("Expected TitleAccuracy.AverageScore=0.80, got %.2f", agg.TitleAccuracy.AverageScore)
	}

	if agg.TotalProcessingTime != 10*time.Second {
		t.Errorf("Expected TotalProcessingTime=10s, got %s", agg.TotalProcessingTime)
	}
	if agg.AverageProcessingTime != 9*time.Second/4 {
		t.Errorf("Expected AverageProcessingTime=2.25s, got %s", agg.AverageProcessingTime)
	}
}

func TestCalculateAverage(t *testing.T) {
	tests := []struct {
		name     string
		scores   []float64
		expected float64
	}{
		{"normal scores", []float64{0.5, 1.0, 1.5}, 1.0},
		{"empty scores", []float64{}, 0.0},
		{"single score", []float64{0.75}, 0.75},
		{"zeros", []float64{0.0, 0.0, 0.0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateAverage(tt.scores)
			if result != tt.expected {
				t.Errorf("calculateAverage(%v) = %.2f, want %.2f", tt.scores, result, tt.expected)
			}
		})
	}
}

func TestSaveToJSON(t *testing.T) {
	jsonPath := filepath.Join(t.TempDir(), "results.json")

	agg := AggregateRightsResults(sampleResults()[:1], "calc", "US")
	if err := agg.SaveToJSON(jsonPath); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	content, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("Failed to read JSON file: %v", err)
	}
	if !strings.Contains(string(content), `"agreement_rate": 1`) {
		t.Errorf("Expected agreement rate in JSON, got %s", content)
	}
}

func TestSaveDetailedReport(t *testing.T) {
	reportPath := filepath.Join(t.TempDir(), "report.txt")

	agg := AggregateRightsResults(sampleResults(), "analyze", "US")
	if err := agg.SaveDetailedReport(reportPath); err != nil {
		t.Fatalf("SaveDetailedReport failed: %v", err)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("Failed to read report file: %v", err)
	}
	report := string(content)

	for _, want := range []string{
		"PDCHECK RIGHTS EVALUATION DETAILED REPORT",
		"RECORD 1: 123",
		"[AGREE]",
		"[DISAGREE]",
		"SKIPPED",
		"ERROR: no usable candidates",
		"Pride and prejudice",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}
