package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/config"
	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/metadata"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/metrics"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/results"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
)

type rightsOptions struct {
	datasetPath  string
	configPath   string
	sampleSize   int
	country      string
	currentYear  int
	analyze      bool
	outputDir    string
	outputJSON   string
	outputReport string
}

// workAnalyzer is the part of analyzer.Analyzer the evaluation drives
type workAnalyzer interface {
	Analyze(ctx context.Context, req analyzer.Request) (analyzer.Result, error)
}

func executeRights(ctx context.Context, opts rightsOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.country != "" {
		cfg.Country = copyright.NormalizeCountry(opts.country)
	}
	if opts.currentYear > 0 {
		cfg.CurrentYear = opts.currentYear
	}

	registry := copyright.DefaultRegistry(cfg.CurrentYear)
	if err := registry.Require(cfg.Country); err != nil {
		return err
	}

	mode := "calc"
	if opts.analyze {
		mode = "analyze"
	}
	slog.Info("Starting rights evaluation",
		"dataset", opts.datasetPath,
		"sample_size", opts.sampleSize,
		"mode", mode,
		"country", cfg.Country)

	loader := dataset.NewLoader(opts.datasetPath)
	var records []dataset.InstitutionalBooksRecord
	if opts.sampleSize > 0 {
		slog.Info("Loading sample from dataset", "limit", opts.sampleSize)
		records, err = loader.LoadSample(opts.sampleSize)
	} else {
		slog.Info("Loading full dataset")
		records, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}
	slog.Info("Dataset loaded", "records", len(records))

	var evaluated []metrics.RightsResult
	if opts.analyze {
		a, err := analyzer.Build(cfg, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		evaluated, err = analyzeRecords(ctx, a, cfg.Country, records)
		if err != nil {
			return err
		}
	} else {
		evaluated = calculateRecords(registry, cfg.Country, records)
	}

	slog.Info("Aggregating results")
	aggregated := metrics.AggregateRightsResults(evaluated, mode, cfg.Country)
	aggregated.PrintSummary()

	slog.Info("Saving results", "json", opts.outputJSON, "report", opts.outputReport)
	if err := aggregated.SaveToJSON(opts.outputJSON); err != nil {
		return fmt.Errorf("failed to save JSON results: %w", err)
	}
	if err := aggregated.SaveDetailedReport(opts.outputReport); err != nil {
		return fmt.Errorf("failed to save detailed report: %w", err)
	}

	yamlPath, err := results.SaveToYAML(opts.outputDir, results.EvalConfig{
		Mode:        mode,
		Country:     cfg.Country,
		CurrentYear: cfg.CurrentYear,
		DatasetPath: opts.datasetPath,
		SampleSize:  len(records),
	}, aggregated)
	if err != nil {
		return fmt.Errorf("failed to save YAML results: %w", err)
	}

	fmt.Printf("\nResults saved to:\n  JSON: %s\n  Report: %s\n  YAML: %s\n", opts.outputJSON, opts.outputReport, yamlPath)
	return nil
}

func newRightsResult(record dataset.InstitutionalBooksRecord) metrics.RightsResult {
	code := record.HathitrustDataExt.RightsCode
	return metrics.RightsResult{
		Barcode:    record.BarcodeSource,
		Title:      record.TitleSource,
		Author:     record.AuthorSource,
		RightsCode: code,
		Expected:   sources.RightsStatus(code),
	}
}

func applyVerdict(result *metrics.RightsResult, v *models.CopyrightVerdict) {
	if v == nil {
		result.Predicted = models.StatusUnknown
		return
	}
	result.Predicted = v.Status
	result.PublicDomainYear = v.PublicDomainYear
	result.Explanation = v.Explanation
}

// calculateRecords predicts from the dataset's own metadata
func calculateRecords(registry *copyright.Registry, country string, records []dataset.InstitutionalBooksRecord) []metrics.RightsResult {
	out := make([]metrics.RightsResult, 0, len(records))

	for i, record := range records {
		start := time.Now()
		result := newRightsResult(record)

		v, err := registry.Calculate(copyright.Facts{
			PublicationYear: record.PublicationYear(),
			AuthorDeathYear: record.AuthorDeathYear(),
			Category:        reconcile.InferWorkCategory(reconcile.CanonicalAuthor(record.AuthorSource)),
			Country:         country,
		})
		switch {
		case errors.Is(err, copyright.ErrInvalidInput):
			slog.Debug("Dataset facts rejected", "barcode", record.BarcodeSource, "error", err)
			result.Predicted = models.StatusUnknown
			result.Explanation = fmt.Sprintf("Dataset metadata rejected: %v", err)
		case err != nil:
			result.Error = err.Error()
		default:
			applyVerdict(&result, &v)
		}

		result.ProcessingTime = time.Since(start)
		out = append(out, result)

		if (i+1)%100 == 0 {
			fmt.Printf("Progress: %d/%d records processed\n", i+1, len(records))
		}
	}

	return out
}

// analyzeRecords reconciles each record through the live sources and
// scores the reconciled metadata against the dataset
func analyzeRecords(ctx context.Context, a workAnalyzer, country string, records []dataset.InstitutionalBooksRecord) ([]metrics.RightsResult, error) {
	out := make([]metrics.RightsResult, 0, len(records))

	for i, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slog.Info("Processing record", "index", i+1, "total", len(records), "barcode", record.BarcodeSource)

		start := time.Now()
		result := newRightsResult(record)

		res, err := a.Analyze(ctx, analyzer.Request{
			Title:   record.TitleSource,
			Author:  reconcile.CanonicalAuthor(record.AuthorSource),
			Country: country,
		})
		result.ProcessingTime = time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Analysis failed", "barcode", record.BarcodeSource, "error", err)
			result.Error = err.Error()
		} else {
			applyVerdict(&result, res.Work.Verdict)
			result.Comparison = metadata.CompareWork(record, res.Work)
		}
		out = append(out, result)

		if (i+1)%10 == 0 {
			fmt.Printf("Progress: %d/%d records processed\n", i+1, len(records))
		}
	}

	return out, nil
}
