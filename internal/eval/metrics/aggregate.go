package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/metadata"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
)

// RightsResult is the evaluation of one dataset record
type RightsResult struct {
	Barcode    string `json:"barcode"`
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	RightsCode string `json:"rights_code,omitempty"`

	// Expected is HathiTrust's determination, Predicted ours
	Expected         models.Status `json:"expected"`
	Predicted        models.Status `json:"predicted,omitempty"`
	PublicDomainYear *int          `json:"public_domain_year,omitempty"`
	Explanation      string        `json:"explanation,omitempty"`

	// Comparison is set when the work was reconciled from live sources
	Comparison *metadata.WorkComparison `json:"comparison,omitempty"`

	ProcessingTime time.Duration `json:"processing_time"`
	Error          string        `json:"error,omitempty"`
}

// Skipped reports whether the reference has no usable determination
func (r RightsResult) Skipped() bool {
	return r.Expected != models.StatusPublicDomain && r.Expected != models.StatusUnderCopyright
}

// Agrees reports whether the predicted status matches the reference
func (r RightsResult) Agrees() bool {
	return !r.Skipped() && r.Error == "" && r.Predicted == r.Expected
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalRecords int `json:"total_records"`
	Evaluated    int `json:"evaluated"`
	Skipped      int `json:"skipped"`
	FailureCount int `json:"failure_count"`

	Agreements    int     `json:"agreements"`
	AgreementRate float64 `json:"agreement_rate"`
	Undetermined  int     `json:"undetermined"`
	// FalsePublicDomain counts works we call public domain that HathiTrust
	// holds in copyright
	FalsePublicDomain int `json:"false_public_domain"`
	// Confusion counts predictions by expected status
	Confusion map[models.Status]map[models.Status]int `json:"confusion"`

	TitleAccuracy  FieldStats `json:"title_accuracy"`
	AuthorAccuracy FieldStats `json:"author_accuracy"`
	DateAccuracy   FieldStats `json:"date_accuracy"`

	AverageProcessingTime time.Duration `json:"average_processing_time"`
	TotalProcessingTime   time.Duration `json:"total_processing_time"`

	Results []RightsResult `json:"results"`

	EvaluationDate time.Time `json:"evaluation_date"`
	Mode           string    `json:"mode"`
	Country        string    `json:"country"`
	SampleSize     int       `json:"sample_size"`
}

// FieldStats contains statistics for one compared field
type FieldStats struct {
	ExactMatches  int       `json:"exact_matches"`
	FuzzyMatches  int       `json:"fuzzy_matches"`
	NoMatches     int       `json:"no_matches"`
	MissingFields int       `json:"missing_fields"`
	AverageScore  float64   `json:"average_score"`
	Scores        []float64 `json:"-"`
}

// AggregateRightsResults aggregates per-record results. mode names how
// predictions were made ("calc" or "analyze").
func AggregateRightsResults(results []RightsResult, mode, country string) *AggregateResults {
	agg := &AggregateResults{
		TotalRecords:   len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		Mode:           mode,
		Country:        country,
		SampleSize:     len(results),
		Confusion:      make(map[models.Status]map[models.Status]int),
	}

	var successDuration time.Duration
	successes := 0

	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}
		successes++
		successDuration += result.ProcessingTime

		if c := result.Comparison; c != nil {
			aggregateFieldStats(&agg.TitleAccuracy, c.Fields["title"])
			aggregateFieldStats(&agg.AuthorAccuracy, c.Fields["author"])
			aggregateFieldStats(&agg.DateAccuracy, c.Fields["date"])
		}

		if result.Skipped() {
			agg.Skipped++
			continue
		}

		agg.Evaluated++
		if agg.Confusion[result.Expected] == nil {
			agg.Confusion[result.Expected] = make(map[models.Status]int)
		}
		agg.Confusion[result.Expected][result.Predicted]++

		switch {
		case result.Agrees():
			agg.Agreements++
		case result.Predicted == models.StatusUnknown:
			agg.Undetermined++
		case result.Predicted == models.StatusPublicDomain:
			agg.FalsePublicDomain++
		}
	}

	if agg.Evaluated > 0 {
		agg.AgreementRate = float64(agg.Agreements) / float64(agg.Evaluated)
	}
	if successes > 0 {
		agg.AverageProcessingTime = successDuration / time.Duration(successes)
	}
	for _, stats := range []*FieldStats{&agg.TitleAccuracy, &agg.AuthorAccuracy, &agg.DateAccuracy} {
		stats.AverageScore = calculateAverage(stats.Scores)
	}

	return agg
}

// aggregateFieldStats updates field statistics
func aggregateFieldStats(stats *FieldStats, match metadata.FieldComparison) {
	stats.Scores = append(stats.Scores, match.Score)

	switch match.Match {
	case "exact":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium", "fuzzy_low":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "missing", "no_reference", "both_empty":
		stats.MissingFields++
	}
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}

// PrintSummary prints a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary() {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("PDCHECK RIGHTS EVALUATION SUMMARY")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Printf("Mode: %s\n", a.Mode)
	fmt.Printf("Country: %s\n", a.Country)
	fmt.Printf("Sample Size: %d records\n", a.SampleSize)
	fmt.Println()

	fmt.Println("PROCESSING STATISTICS")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Total Records: %d\n", a.TotalRecords)
	fmt.Printf("Evaluated: %d (%.1f%%)\n", a.Evaluated, percent(a.Evaluated, a.TotalRecords))
	fmt.Printf("Skipped (no reference determination): %d\n", a.Skipped)
	fmt.Printf("Failed: %d (%.1f%%)\n", a.FailureCount, percent(a.FailureCount, a.TotalRecords))
	fmt.Printf("Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Printf("Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Println()

	fmt.Println("STATUS AGREEMENT")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Agreements: %d (%.1f%%)\n", a.Agreements, a.AgreementRate*100)
	fmt.Printf("Undetermined: %d\n", a.Undetermined)
	fmt.Printf("False Public Domain: %d\n", a.FalsePublicDomain)
	for _, expected := range []models.Status{models.StatusPublicDomain, models.StatusUnderCopyright} {
		row := a.Confusion[expected]
		fmt.Printf("  Expected %-16s -> PD: %d, UC: %d, Unknown: %d\n", expected,
			row[models.StatusPublicDomain], row[models.StatusUnderCopyright], row[models.StatusUnknown])
	}

	if len(a.TitleAccuracy.Scores) > 0 {
		fmt.Println()
		fmt.Println("RECONCILED METADATA")
		fmt.Println(strings.Repeat("-", 70))
		printFieldStats("Title", a.TitleAccuracy)
		printFieldStats("Author", a.AuthorAccuracy)
		printFieldStats("Date", a.DateAccuracy)
	}
	fmt.Println(strings.Repeat("=", 70))
}

// printFieldStats prints statistics for a single field
func printFieldStats(fieldName string, stats FieldStats) {
	fmt.Printf("\n%s:\n", fieldName)
	fmt.Printf("  Average Score: %.2f%% (%.3f)\n", stats.AverageScore*100, stats.AverageScore)
	fmt.Printf("  Exact Matches: %d\n", stats.ExactMatches)
	fmt.Printf("  Fuzzy Matches: %d\n", stats.FuzzyMatches)
	fmt.Printf("  No Matches: %d\n", stats.NoMatches)
	fmt.Printf("  Missing Fields: %d\n", stats.MissingFields)
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}
	return nil
}

// SaveDetailedReport writes one block per record, disagreements flagged
func (a *AggregateResults) SaveDetailedReport(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	separator := strings.Repeat("=", 80)
	dash := strings.Repeat("-", 80)

	fmt.Fprintf(file, "PDCHECK RIGHTS EVALUATION DETAILED REPORT\n")
	fmt.Fprintf(file, "Generated: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(file, "Mode: %s, Country: %s\n", a.Mode, a.Country)
	fmt.Fprintf(file, "%s\n\n", separator)

	for i, result := range a.Results {
		fmt.Fprintf(file, "RECORD %d: %s\n", i+1, result.Barcode)
		fmt.Fprintf(file, "%s\n", dash)
		fmt.Fprintf(file, "Title: %s\n", result.Title)
		fmt.Fprintf(file, "Author: %s\n", result.Author)
		fmt.Fprintf(file, "Rights Code: %s (%s)\n", result.RightsCode, result.Expected)

		switch {
		case result.Error != "":
			fmt.Fprintf(file, "ERROR: %s\n", result.Error)
		case result.Skipped():
			fmt.Fprintf(file, "SKIPPED: no reference determination\n")
		default:
			verdict := "AGREE"
			if !result.Agrees() {
				verdict = "DISAGREE"
			}
			fmt.Fprintf(file, "Predicted: %s [%s]\n", result.Predicted, verdict)
			fmt.Fprintf(file, "Explanation: %s\n", result.Explanation)
		}

		if c := result.Comparison; c != nil {
			fmt.Fprintf(file, "\nField Comparisons:\n")
			for _, name := range []string{"title", "author", "date"} {
				f := c.Fields[name]
				fmt.Fprintf(file, "  %-7s %.2f (%s) - Expected: %s, Actual: %s\n", name+":", f.Score, f.Match, f.Expected, f.Actual)
			}
		}

		fmt.Fprintf(file, "\n%s\n\n", separator)
	}

	return nil
}
