package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/pdcheck/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "pdcheck",
		Short: "Cross-source work reconciliation and copyright determination",
		Long: `pdcheck looks a work up in several bibliographic sources, reconciles what
they return into one normalized record and determines its copyright status
under the rules of a chosen jurisdiction.

Sources: Library of Congress (SRU/MODS), MusicBrainz and HathiTrust.
Jurisdictions: United States and United Kingdom.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.PersistentFlags().String("config", "", "Path to a YAML config file (defaults to $PDCHECK_CONFIG)")

	// Add subcommands
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newCalcCmd())
	cmd.AddCommand(newCountriesCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newEvalCmd())

	return cmd
}

// loadConfig reads the file named by --config, falling back to defaults
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
