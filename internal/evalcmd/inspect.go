package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lehigh-university-libraries/pdcheck/internal/eval/dataset"
	"github.com/lehigh-university-libraries/pdcheck/internal/models"
	"github.com/lehigh-university-libraries/pdcheck/internal/reconcile"
	"github.com/lehigh-university-libraries/pdcheck/internal/sources"
	"github.com/spf13/cobra"
)

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var showIdentifiers bool

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset records and the facts the calculator sees",
		Long: `Inspect records from a parquet or jsonl dataset file.

Shows each record's bibliographic fields next to the publication year,
death year and authorship category parsed from them, and the HathiTrust
rights code the evaluation treats as the reference.`,
		Example: `  # Inspect first 5 records interactively
  pdcheck eval inspect --dataset ./data.parquet --limit 5 --interactive

  # Inspect all records (no limit)
  pdcheck eval inspect --dataset ./data.parquet --limit 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				return fmt.Errorf("--dataset is required")
			}

			// Create a context that gets canceled on an interrupt signal (Ctrl+C)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var in io.Reader
			if interactive {
				in = os.Stdin
			}
			return executeInspect(ctx, os.Stdout, in, datasetPath, limit, showIdentifiers)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to parquet or jsonl dataset file (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of records to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each record (press Enter to continue)")
	cmd.Flags().BoolVar(&showIdentifiers, "identifiers", true, "Show ISBN, LCCN and OCLC identifiers")

	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

// executeInspect prints records to w. A non-nil in makes it pause for a
// line of input after each record.
func executeInspect(ctx context.Context, w io.Writer, in io.Reader, datasetPath string, limit int, showIdentifiers bool) error {
	loader := dataset.NewLoader(datasetPath)

	var records []dataset.InstitutionalBooksRecord
	var err error
	if limit > 0 {
		records, err = loader.LoadSample(limit)
	} else {
		records, err = loader.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d records from %s\n", len(records), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	var reader *bufio.Reader
	if in != nil {
		reader = bufio.NewReader(in)
	}

	for i, record := range records {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "RECORD %d/%d\n", i+1, len(records))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		printRecord(w, record, showIdentifiers)
		fmt.Fprintln(w)

		if reader == nil {
			continue
		}

		fmt.Fprint(w, "Press Enter to continue to next record (or Ctrl+C to quit)...")
		inputCh := make(chan struct{})
		go func() {
			_, _ = reader.ReadString('\n')
			close(inputCh)
		}()

		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		case <-inputCh:
			fmt.Fprintln(w)
		}
	}

	return nil
}

func printRecord(w io.Writer, record dataset.InstitutionalBooksRecord, showIdentifiers bool) {
	author := reconcile.CanonicalAuthor(record.AuthorSource)

	fmt.Fprintf(w, "Barcode:        %s\n", record.BarcodeSource)
	fmt.Fprintf(w, "Title:          %s\n", record.TitleSource)
	fmt.Fprintf(w, "Author:         %s\n", record.AuthorSource)
	fmt.Fprintf(w, "Date1:          %s\n", record.Date1Source)
	fmt.Fprintf(w, "Date2:          %s\n", record.Date2Source)
	fmt.Fprintf(w, "Date Types:     %s\n", record.DateTypesSource)
	fmt.Fprintf(w, "Language:       %s\n", record.LanguageSource)
	fmt.Fprintf(w, "Genre/Form:     %s\n", record.GenreOrFormSource)

	if showIdentifiers {
		if len(record.IdentifiersSource.ISBN) > 0 {
			fmt.Fprintf(w, "ISBN(s):        %s\n", strings.Join(record.IdentifiersSource.ISBN, ", "))
		}
		if len(record.IdentifiersSource.LCCN) > 0 {
			fmt.Fprintf(w, "LCCN(s):        %s\n", strings.Join(record.IdentifiersSource.LCCN, ", "))
		}
		if len(record.IdentifiersSource.OCLC) > 0 {
			fmt.Fprintf(w, "OCLC(s):        %s\n", strings.Join(record.IdentifiersSource.OCLC, ", "))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Canonical Name: %s\n", author)
	fmt.Fprintf(w, "Published:      %s\n", yearString(record.PublicationYear()))
	fmt.Fprintf(w, "Author Died:    %s\n", yearString(record.AuthorDeathYear()))
	fmt.Fprintf(w, "Authorship:     %s\n", reconcile.InferWorkCategory(author))

	if ht := record.HathitrustDataExt; ht.RightsCode != "" {
		fmt.Fprintf(w, "Rights Code:    %s (%s)\n", ht.RightsCode, sources.RightsMeaning(ht.RightsCode))
		fmt.Fprintf(w, "Reference:      %s\n", sources.RightsStatus(ht.RightsCode))
		fmt.Fprintf(w, "Reason Code:    %s\n", ht.ReasonCode)
		if ht.URL != "" {
			fmt.Fprintf(w, "HathiTrust URL: %s\n", ht.URL)
		}
	} else {
		fmt.Fprintf(w, "Reference:      %s (no rights code)\n", models.StatusUnknown)
	}
}

func yearString(y *int) string {
	if y == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *y)
}
