package evalcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkmark-app/inkmark/internal/transcribe"
)

// EngineFactory builds the configured transcription engine along with the
// provider and model names it runs against. Provider wiring lives in the
// cmd package, so the eval commands receive it as a callback.
type EngineFactory func(ctx context.Context) (*transcribe.Engine, string, string, error)

// NewRunCmd creates the eval run command
func NewRunCmd(newEngine EngineFactory) *cobra.Command {
	var datasetPath string
	var outputDir string
	var outputJSON string
	var sampleSize int
	var concurrency int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate transcription quality against a labelled dataset",
		Long: `Evaluate transcription quality against a dataset of photographed note
pages with reference transcriptions.

Each sampled page runs through the full transcription engine and is scored
against its reference text using normalized edit distance. Datasets are
JSONL or Parquet files with one {id, image_path, reference} row per page.`,
		Example: `  # Evaluate 10 pages
  inkmark eval run --dataset ./notes-bench/pages.jsonl --sample 10

  # Evaluate the full dataset with 4 pages in flight
  inkmark eval run --dataset ./notes-bench/pages.parquet --sample -1 --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}

			engine, provider, model, err := newEngine(cmd.Context())
			if err != nil {
				return err
			}

			_, err = Run(cmd.Context(), engine, provider, model, RunOptions{
				DatasetPath: datasetPath,
				Sample:      sampleSize,
				Concurrency: concurrency,
				OutputDir:   outputDir,
				OutputJSON:  outputJSON,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to dataset file (.jsonl or .parquet)")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for YAML results")
	cmd.Flags().StringVar(&outputJSON, "output-json", "", "Optional path for JSON results")
	cmd.Flags().IntVar(&sampleSize, "sample", 10, "Number of pages to evaluate (-1 for all)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 2, "Pages to transcribe in parallel")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the eval report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a saved evaluation run",
		Example: `  # Human-readable report
  inkmark eval report --results evals/gemini-2.0-flash-2025-01-02_15-04-05.yaml

  # Export to CSV
  inkmark eval report --results evals/latest.yaml --format csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Report(resultsPath, format)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a saved YAML results file")
	cmd.Flags().StringVar(&format, "format", "text", "Report format (text, json, or csv)")

	_ = cmd.MarkFlagRequired("results")
	return cmd
}
