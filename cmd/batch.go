package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/lehigh-university-libraries/pdcheck/internal/eval/results"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/storage"
	"github.com/spf13/cobra"
)

func newBatchCmd() *cobra.Command {
	var inputPath string
	var outputPath string
	var country string
	var concurrency int
	var persist bool

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every work listed in a JSONL, YAML or parquet file",
		Long: `Analyze a list of works with bounded concurrency.

Each input row has a title and optionally author, work_type, country,
category and work_category. Results come back in input order; a row that
cannot be reconciled gets an Unknown verdict instead of failing the batch.
An unsupported country anywhere in the input fails the batch before any
source is queried.`,
		Example: `  pdcheck batch --input works.jsonl --output results.yaml
  pdcheck batch --input works.yaml --country GB --concurrency 8 --store`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if concurrency > 0 {
				cfg.BatchConcurrency = concurrency
			}

			rows, err := dataset.Load[dataset.WorkRow](inputPath, 0)
			if err != nil {
				return fmt.Errorf("failed to load input: %w", err)
			}
			reqs := make([]analyzer.Request, 0, len(rows))
			for _, row := range rows {
				req := requestFromRow(row)
				if req.Country == "" {
					req.Country = country
				}
				reqs = append(reqs, req)
			}

			var store identity.Store
			if persist {
				s, err := storage.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}

			a, err := analyzer.Build(cfg, store)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.AnalyzeBatch(cmd.Context(), reqs)
			if err != nil {
				return err
			}

			if outputPath == "" {
				printBatchSummary(out)
				return nil
			}
			if err := writeResults(outputPath, out); err != nil {
				return err
			}
			fmt.Printf("Wrote %d results to %s\n", len(out), outputPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (.jsonl, .yaml or .parquet)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write full results to a .yaml or .json file")
	cmd.Flags().StringVar(&country, "country", "", "Jurisdiction for rows that do not name one")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Works analyzed at once (defaults to the configured value)")
	cmd.Flags().BoolVar(&persist, "store", false, "Resolve and persist every work in the SQLite store")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func requestFromRow(row dataset.WorkRow) analyzer.Request {
	return analyzer.Request{
		Title:        row.Title,
		Author:       row.Author,
		WorkType:     row.WorkType,
		Country:      row.Country,
		Category:     models.Category(strings.ToLower(row.Category)),
		WorkCategory: models.WorkCategory(row.WorkCategory),
	}
}

func writeResults(path string, out []analyzer.Result) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return results.WriteYAML(path, out)
	case ".json":
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write JSON file: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported output format: %s (supported: .yaml, .json)", filepath.Ext(path))
}

func printBatchSummary(out []analyzer.Result) {
	counts := make(map[models.Status]int)

	fmt.Println(strings.Repeat("=", 70))
	for i, res := range out {
		status := models.StatusUnknown
		if res.Work.Verdict != nil {
			status = res.Work.Verdict.Status
		}
		counts[status]++

		marker := ""
		if res.Excluded {
			marker = " [excluded]"
		}
		fmt.Printf("%3d. %-40.40s %-16s %s%s\n", i+1, res.Work.Title, status, yearOr(res.Work.PublicationYear), marker)
	}
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Public Domain: %d, Under Copyright: %d, Unknown: %d\n",
		counts[models.StatusPublicDomain], counts[models.StatusUnderCopyright], counts[models.StatusUnknown])
	fmt.Println(strings.Repeat("=", 70))
}
