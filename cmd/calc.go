package cmd

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/spf13/cobra"
)

func newCalcCmd() *cobra.Command {
	var published int
	var died int
	var category string
	var country string
	var currentYear int

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Determine copyright status from known facts, without querying sources",
		Example: `  pdcheck calc --published 1925 --died 1940
  pdcheck calc --published 1990 --category work_for_hire --country GB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if country == "" {
				country = cfg.Country
			}
			if currentYear == 0 {
				currentYear = cfg.CurrentYear
			}

			facts := copyright.Facts{Country: country}
			if cmd.Flags().Changed("published") {
				facts.PublicationYear = models.Year(published)
			}
			if cmd.Flags().Changed("died") {
				facts.AuthorDeathYear = models.Year(died)
			}
			if category != "" {
				wc, ok := models.ParseWorkCategory(category)
				if !ok {
					return &copyright.InvalidInputError{Field: "work_category", Value: category, Reason: "must be individual, work_for_hire, anonymous or pseudonymous"}
				}
				facts.Category = wc
			}

			out := cmd.OutOrStdout()
			registry := copyright.DefaultRegistry(currentYear)
			v, err := registry.Calculate(facts)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, strings.Repeat("=", 70))
			fmt.Fprintf(out, "Country:      %s\n", copyright.NormalizeCountry(country))
			fmt.Fprintf(out, "Status:       %s\n", v.Status)
			if v.PublicDomainYear != nil {
				fmt.Fprintf(out, "Public Domain: January 1, %d\n", *v.PublicDomainYear)
			}
			fmt.Fprintf(out, "Explanation:  %s\n", v.Explanation)
			fmt.Fprintln(out, strings.Repeat("=", 70))
			return nil
		},
	}

	cmd.Flags().IntVar(&published, "published", 0, "Year of first publication")
	cmd.Flags().IntVar(&died, "died", 0, "Year the author died")
	cmd.Flags().StringVar(&category, "category", "", "Authorship: individual, work_for_hire, anonymous or pseudonymous")
	cmd.Flags().StringVar(&country, "country", "", "Jurisdiction code (defaults to the configured country)")
	cmd.Flags().IntVar(&currentYear, "current-year", 0, "Pin the current year")

	return cmd
}
