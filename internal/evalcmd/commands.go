package evalcmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/spf13/cobra"
)

// DefaultShard is the first parquet shard of Institutional Books 1.0
const DefaultShard = "data/train-00000-of-09831.parquet"

// NewRightsCmd creates the rights command for evaluating copyright
// determinations against HathiTrust
func NewRightsCmd() *cobra.Command {
	var opts rightsOptions
	var shard string
	var cacheDir string

	cmd := &cobra.Command{
		Use:   "rights",
		Short: "Evaluate copyright determinations against HathiTrust rights codes",
		Long: `Evaluate copyright determinations using the Institutional Books 1.0 dataset.

Every record carries a HathiTrust rights code, which is the reference verdict.
By default the dataset's own publication date and the life dates in the author
heading are fed straight to the calculator. With --analyze each record is
instead looked up through the live sources and reconciled first, and the
reconciled title, author and date are scored against the dataset.

Dataset: https://huggingface.co/datasets/instdin/institutional-books-1.0`,
		Example: `  # Evaluate the calculator on 500 records
  pdcheck eval rights --dataset ./train-00000-of-09831.parquet --sample 500

  # Download the first shard (needs HF_TOKEN) and evaluate
  pdcheck eval rights --shard data/train-00000-of-09831.parquet --sample 100

  # Run the full pipeline against live sources
  pdcheck eval rights --dataset ./sample.jsonl --sample 20 --analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if opts.datasetPath == "" {
				if shard == "" {
					return fmt.Errorf("one of --dataset or --shard is required")
				}
				path, err := downloadShard(ctx, shard, cacheDir)
				if err != nil {
					return err
				}
				opts.datasetPath = path
			}

			if _, err := os.Stat(opts.datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", opts.datasetPath)
			}

			opts.configPath, _ = cmd.Flags().GetString("config")
			return executeRights(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "Path to an Institutional Books parquet or jsonl file")
	cmd.Flags().StringVar(&shard, "shard", "", "Dataset shard to download from HuggingFace, e.g. "+DefaultShard)
	cmd.Flags().StringVar(&cacheDir, "cache-dir", dataset.DefaultCacheDir, "Download cache directory")
	cmd.Flags().IntVar(&opts.sampleSize, "sample", 100, "Number of records to evaluate (-1 for all)")
	cmd.Flags().StringVar(&opts.country, "country", "", "Jurisdiction to evaluate (defaults to the configured country)")
	cmd.Flags().IntVar(&opts.currentYear, "current-year", 0, "Pin the calculator's current year")
	cmd.Flags().BoolVar(&opts.analyze, "analyze", false, "Reconcile each record through the live sources first")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "evals", "Directory for the YAML evaluation file")
	cmd.Flags().StringVar(&opts.outputJSON, "output-json", "eval_results.json", "Path to output JSON results file")
	cmd.Flags().StringVar(&opts.outputReport, "output-report", "eval_report.txt", "Path to output detailed report file")

	return cmd
}

// NewFetchCmd creates the fetch command for downloading dataset shards
func NewFetchCmd() *cobra.Command {
	var shard string
	var cacheDir string
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download an Institutional Books shard into the local cache",
		Long: `Download one parquet shard of Institutional Books 1.0 from HuggingFace.

The dataset is gated: accept its terms on HuggingFace and export HF_TOKEN.
Shards already in the cache are not downloaded again unless --force is set.`,
		Example: `  pdcheck eval fetch
  pdcheck eval fetch --shard data/train-00001-of-09831.parquet --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := dataset.NewDownloader(dataset.DownloadConfig{
				CacheDir:      cacheDir,
				ForceDownload: force,
				Token:         os.Getenv("HF_TOKEN"),
			})
			path, err := d.Download(cmd.Context(), shard)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	cmd.Flags().StringVar(&shard, "shard", DefaultShard, "Shard path within the dataset repository")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", dataset.DefaultCacheDir, "Download cache directory")
	cmd.Flags().BoolVar(&force, "force", false, "Download even if the shard is cached")

	return cmd
}

func downloadShard(ctx context.Context, shard, cacheDir string) (string, error) {
	d := dataset.NewDownloader(dataset.DownloadConfig{
		CacheDir: cacheDir,
		Token:    os.Getenv("HF_TOKEN"),
	})
	return d.Download(ctx, shard)
}
