package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/metrics"
	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Mode        string `yaml:"mode"`
	Country     string `yaml:"country"`
	CurrentYear int    `yaml:"currentyear,omitempty"`
	DatasetPath string `yaml:"datasetpath"`
	SampleSize  int    `yaml:"samplesize"`
	Timestamp   string `yaml:"timestamp"`
}

// EvalSummary carries the headline numbers
type EvalSummary struct {
	Evaluated         int     `yaml:"evaluated"`
	Skipped           int     `yaml:"skipped"`
	Failed            int     `yaml:"failed"`
	AgreementRate     float64 `yaml:"agreementrate"`
	FalsePublicDomain int     `yaml:"falsepublicdomain"`
}

// EvalResult represents a single evaluation result
type EvalResult struct {
	Identifier       string             `yaml:"identifier"`
	Title            string             `yaml:"title"`
	Author           string             `yaml:"author,omitempty"`
	RightsCode       string             `yaml:"rightscode"`
	Expected         string             `yaml:"expected"`
	Predicted        string             `yaml:"predicted"`
	Agree            bool               `yaml:"agree"`
	PublicDomainYear *int               `yaml:"publicdomainyear,omitempty"`
	Explanation      string             `yaml:"explanation,omitempty"`
	FieldScores      map[string]float64 `yaml:"fieldscores,omitempty"`
}

// EvalSpec represents the complete evaluation file
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary EvalSummary  `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// Build converts aggregated results into the YAML document. Failed and
// skipped records are counted in the summary but not listed.
func Build(cfg EvalConfig, agg *metrics.AggregateResults) EvalSpec {
	spec := EvalSpec{
		Config: cfg,
		Summary: EvalSummary{
			Evaluated:         agg.Evaluated,
			Skipped:           agg.Skipped,
			Failed:            agg.FailureCount,
			AgreementRate:     agg.AgreementRate,
			FalsePublicDomain: agg.FalsePublicDomain,
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}

	for _, r := range agg.Results {
		if r.Error != "" || r.Skipped() {
			continue
		}

		result := EvalResult{
			Identifier:       r.Barcode,
			Title:            r.Title,
			Author:           r.Author,
			RightsCode:       r.RightsCode,
			Expected:         string(r.Expected),
			Predicted:        string(r.Predicted),
			Agree:            r.Agrees(),
			PublicDomainYear: r.PublicDomainYear,
			Explanation:      r.Explanation,
		}
		if r.Comparison != nil {
			result.FieldScores = make(map[string]float64)
			for name, field := range r.Comparison.Fields {
				result.FieldScores[name] = field.Score
			}
		}
		spec.Results = append(spec.Results, result)
	}

	return spec
}

// SaveToYAML writes the evaluation into dir as <mode>-<timestamp>.yaml and
// returns the file's absolute path
func SaveToYAML(dir string, cfg EvalConfig, agg *metrics.AggregateResults) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	if cfg.Timestamp == "" {
		cfg.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", cfg.Mode, cfg.Timestamp))
	if err := WriteYAML(filename, Build(cfg, agg)); err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(filename)
	if err != nil {
		return filename, nil
	}
	return absPath, nil
}

// WriteYAML marshals v to path
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
