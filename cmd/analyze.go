package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/analyzer"
	"github.com/lehigh-university-libraries/pdcheck/internal/identity"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/storage"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var req analyzer.Request
	var category string
	var workCategory string
	var persist bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze TITLE [AUTHOR]",
		Short: "Reconcile one work across sources and determine its copyright status",
		Example: `  pdcheck analyze "Pride and Prejudice" "Jane Austen"
  pdcheck analyze "Clair de lune" "Debussy" --work-type musical --country GB
  pdcheck analyze "The Great Gatsby" "F. Scott Fitzgerald" --store --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			req.Title = args[0]
			if len(args) > 1 {
				req.Author = args[1]
			}
			req.Category = models.Category(strings.ToLower(category))
			req.WorkCategory = models.WorkCategory(workCategory)

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

			res, err := a.Analyze(cmd.Context(), req)
			if errors.Is(err, reconcile.ErrNoCandidates) {
				res = a.Unknown(req, err)
			} else if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.WorkType, "work-type", "auto", "Which sources to favour: auto, literary or musical")
	cmd.Flags().StringVar(&req.Country, "country", "", "Jurisdiction code, e.g. US or GB (defaults to the configured country)")
	cmd.Flags().StringVar(&category, "category", "", "Only report works classified as literary or musical")
	cmd.Flags().StringVar(&workCategory, "work-category", "", "Override authorship: individual, work_for_hire, anonymous or pseudonymous")
	cmd.Flags().BoolVar(&persist, "store", false, "Resolve and persist the work in the SQLite store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func printResult(w io.Writer, res analyzer.Result) {
	work := res.Work
	separator := strings.Repeat("=", 70)

	fmt.Fprintln(w, separator)
	fmt.Fprintf(w, "Title:        %s\n", work.Title)
	fmt.Fprintf(w, "Author:       %s\n", valueOr(work.AuthorName, "-"))
	fmt.Fprintf(w, "Published:    %s\n", yearOr(work.PublicationYear))
	fmt.Fprintf(w, "Author Died:  %s\n", yearOr(work.AuthorDeathYear))
	if work.CategoryBasis != "" {
		fmt.Fprintf(w, "Category:     %s (%s)\n", work.Category, work.CategoryBasis)
	} else {
		fmt.Fprintf(w, "Category:     %s\n", work.Category)
	}
	fmt.Fprintf(w, "Authorship:   %s\n", work.WorkCategory)
	fmt.Fprintf(w, "Country:      %s\n", work.Country)
	fmt.Fprintf(w, "Confidence:   %.2f\n", work.ConfidenceScore)
	fmt.Fprintln(w, strings.Repeat("-", 70))

	if v := work.Verdict; v != nil {
		fmt.Fprintf(w, "Status:       %s\n", v.Status)
		if v.PublicDomainYear != nil {
			fmt.Fprintf(w, "Public Domain: January 1, %d\n", *v.PublicDomainYear)
		}
		fmt.Fprintf(w, "Explanation:  %s\n", v.Explanation)
	}
	if res.Excluded {
		fmt.Fprintf(w, "Excluded:     classified %s, filter was %s\n", work.Category, res.Request.Category)
	}

	if len(work.SourceLinks) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 70))
		for _, source := range slices.Sorted(maps.Keys(work.SourceLinks)) {
			fmt.Fprintf(w, "%-13s %s\n", source+":", work.SourceLinks[source])
		}
	}
	for _, note := range work.Notes {
		fmt.Fprintf(w, "Note: %s\n", note)
	}

	if r := res.Resolution; r != nil {
		fmt.Fprintln(w, strings.Repeat("-", 70))
		fmt.Fprintf(w, "Stored:       %s (%s, id %s)\n", r.Outcome, r.Record.ContentKey, r.Record.ID)
	}
	fmt.Fprintln(w, separator)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func yearOr(y *int) string {
	if y == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *y)
}
