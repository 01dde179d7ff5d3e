package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/pdcheck/internal/copyright"
	"github.com/spf13/cobra"
)

func newCountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List supported jurisdictions and their term rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			registry := copyright.DefaultRegistry(0)
			for _, code := range registry.Countries() {
				calc, err := registry.Lookup(code)
				if err != nil {
					return err
				}
				info := calc.Info()
				fmt.Fprintf(out, "%s  %s (%s)\n", info.Country, info.Name, info.Statute)
				for _, rule := range info.Rules {
					fmt.Fprintf(out, "    - %s\n", rule)
				}
			}
			return nil
		},
	}
}
