package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/inkmark-app/inkmark/internal/eval/dataset"
	"github.com/inkmark-app/inkmark/internal/eval/metrics"
	"github.com/inkmark-app/inkmark/internal/eval/results"
	"github.com/inkmark-app/inkmark/internal/schedule"
	"github.com/inkmark-app/inkmark/internal/transcribe"
)

// RunOptions configures a single evaluation run.
type RunOptions struct {
	DatasetPath string
	Sample      int
	Concurrency int
	OutputDir   string
	OutputJSON  string
}

// Run transcribes every sampled dataset page through the engine and scores
// it against its reference text. Per-page failures are recorded in the
// results; only dataset or output problems abort the run.
func Run(ctx context.Context, engine *transcribe.Engine, provider, model string, opts RunOptions) (*metrics.AggregateResults, error) {
	slog.Info("Starting evaluation run", "dataset", opts.DatasetPath, "provider", provider, "model", model)

	loader := dataset.NewLoader(opts.DatasetPath)
	records, err := loader.LoadSample(opts.Sample)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset has no records")
	}
	slog.Info("Dataset loaded", "pages", len(records))

	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	slog.Info("Processing pages", "concurrency", opts.Concurrency)

	total := len(records)
	tasks := make([]func(context.Context) (metrics.PageResult, error), total)
	for i, record := range records {
		tasks[i] = func(ctx context.Context) (metrics.PageResult, error) {
			slog.Info("Processing page", "id", record.ID, "progress", fmt.Sprintf("%d/%d", i+1, total))
			return evaluatePage(ctx, engine, opts.DatasetPath, record), nil
		}
	}

	pageResults, err := schedule.RunBounded(ctx, opts.Concurrency, tasks)
	if err != nil {
		return nil, err
	}

	agg := metrics.Aggregate(pageResults, provider, model)

	path, err := results.SaveToYAML(opts.OutputDir, opts.DatasetPath, agg)
	if err != nil {
		return nil, fmt.Errorf("failed to save results: %w", err)
	}

	if opts.OutputJSON != "" {
		if err := agg.SaveToJSON(opts.OutputJSON); err != nil {
			return nil, fmt.Errorf("failed to save JSON results: %w", err)
		}
	}

	agg.PrintSummary()
	fmt.Printf("\nResults saved to: %s\n", path)
	fmt.Printf("\nGenerate a report with:\n")
	fmt.Printf("  inkmark eval report --results %s\n", path)

	return agg, nil
}

func evaluatePage(ctx context.Context, engine *transcribe.Engine, datasetPath string, record dataset.NotePageRecord) metrics.PageResult {
	result := metrics.PageResult{
		ID:        record.ID,
		ImagePath: record.ResolveImagePath(datasetPath),
		Kind:      record.Kind,
	}

	if result.ImagePath == "" {
		result.Error = "no image available for page"
		return result
	}

	page, err := os.ReadFile(result.ImagePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read page image: %v", err)
		return result
	}

	start := time.Now()
	text, err := engine.TranscribePage(ctx, page, nil)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		result.Error = fmt.Sprintf("failed to transcribe page: %v", err)
		return result
	}

	result.Transcription = text
	result.Comparison = metrics.Compare(record.Reference, text)

	return result
}
