package cmd

import (
	"github.com/lehigh-university-libraries/pdcheck/internal/evalcmd"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Copyright determination evaluation tools",
		Long: `Evaluation tools for measuring how often pdcheck's determinations agree
with HathiTrust's rights codes on the Institutional Books 1.0 dataset.

Supports downloading dataset shards, inspecting records and the facts
parsed from them, and running the evaluation with a summary, a detailed
report and a YAML record of the run.`,
	}

	// Add eval subcommands
	cmd.AddCommand(evalcmd.NewFetchCmd())
	cmd.AddCommand(evalcmd.NewInspectCmd())
	cmd.AddCommand(evalcmd.NewRightsCmd())

	return cmd
}
