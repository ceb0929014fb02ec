package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/inkmark-app/inkmark/internal/eval/results"
)

// Report prints a previously saved evaluation run in the given format.
func Report(resultsPath, format string) error {
	spec, err := results.LoadFromYAML(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	switch format {
	case "text":
		return printTextReport(spec)
	case "json":
		return printJSONReport(spec)
	case "csv":
		return printCSVReport(spec)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(spec *results.EvalSpec) error {
	fmt.Println("========================================")
	fmt.Println("Transcription Evaluation Report")
	fmt.Println("========================================")
	fmt.Printf("Provider: %s\n", spec.Config.Provider)
	fmt.Printf("Model:    %s\n", spec.Config.Model)
	fmt.Printf("Dataset:  %s\n", spec.Config.DatasetPath)
	fmt.Printf("Date:     %s\n", spec.Config.Timestamp)
	fmt.Println()
	fmt.Printf("Average Similarity: %.2f%%\n", spec.Config.AverageSim*100)
	fmt.Printf("Median Similarity:  %.2f%%\n", spec.Config.MedianSim*100)
	fmt.Printf("Exact Match Rate:   %.2f%%\n", spec.Config.ExactRate*100)

	fmt.Println("\nDetailed Results:")
	fmt.Println("========================================")

	for i, result := range spec.Results {
		fmt.Printf("\n[%d] Page ID: %s\n", i+1, result.Identifier)

		if result.Error != "" {
			fmt.Printf("  Error: %s\n", result.Error)
			continue
		}

		fmt.Printf("  Similarity: %.2f%% (%s)\n", result.Similarity*100, result.Method)
		if result.Unresolved > 0 {
			fmt.Printf("  Unresolved Markers: %d\n", result.Unresolved)
		}

		// Show the texts only where they diverged
		if result.Similarity < 0.8 {
			fmt.Printf("  Reference:     %s\n", truncate(result.Reference, 80))
			fmt.Printf("  Transcription: %s\n", truncate(result.Transcription, 80))
		}
	}

	return nil
}

func printJSONReport(spec *results.EvalSpec) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(spec *results.EvalSpec) error {
	writer := csv.NewWriter(os.Stdout)
	defer writer.Flush()

	header := []string{"ID", "Kind", "Similarity", "Distance", "Unresolved", "Method", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, result := range spec.Results {
		row := []string{
			result.Identifier,
			result.Kind,
			strconv.FormatFloat(result.Similarity, 'f', 4, 64),
			strconv.Itoa(result.Distance),
			strconv.Itoa(result.Unresolved),
			result.Method,
			result.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
