package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// PageResult represents the outcome for a single evaluated page
type PageResult struct {
	ID             string
	ImagePath      string
	Kind           string
	Transcription  string
	Comparison     *TranscriptionComparison
	ProcessingTime time.Duration
	Error          string // If transcription failed
}

// AggregateResults represents aggregated evaluation metrics
type AggregateResults struct {
	TotalPages   int
	SuccessCount int
	FailureCount int

	// Match quality
	ExactMatches int
	FuzzyMatches int
	NoMatches    int

	// Similarity distribution
	AverageSimilarity float64
	MedianSimilarity  float64
	MinSimilarity     float64
	MaxSimilarity     float64

	// Transcription quality
	TotalUnresolved int
	TotalDistance   int

	// Timing
	AverageProcessingTime time.Duration
	TotalProcessingTime   time.Duration

	// Detailed results
	Results []PageResult

	// Metadata
	EvaluationDate time.Time
	Provider       string
	Model          string
	SampleSize     int
}

// Aggregate folds per-page results into summary metrics
func Aggregate(results []PageResult, provider, model string) *AggregateResults {
	agg := &AggregateResults{
		TotalPages:     len(results),
		Results:        results,
		EvaluationDate: time.Now(),
		Provider:       provider,
		Model:          model,
		SampleSize:     len(results),
	}

	var scores []float64
	var successDuration time.Duration

	for _, result := range results {
		agg.TotalProcessingTime += result.ProcessingTime

		if result.Error != "" {
			agg.FailureCount++
			continue
		}

		agg.SuccessCount++
		successDuration += result.ProcessingTime

		if result.Comparison == nil {
			continue
		}

		scores = append(scores, result.Comparison.Similarity)
		agg.TotalUnresolved += result.Comparison.Unresolved
		agg.TotalDistance += result.Comparison.Distance

		switch result.Comparison.Method {
		case "exact", "both_empty":
			agg.ExactMatches++
		case "fuzzy_high", "fuzzy_medium":
			agg.FuzzyMatches++
		default:
			agg.NoMatches++
		}
	}

	if len(scores) > 0 {
		agg.AverageSimilarity = calculateAverage(scores)

		sort.Float64s(scores)
		mid := len(scores) / 2
		if len(scores)%2 == 0 {
			agg.MedianSimilarity = (scores[mid-1] + scores[mid]) / 2
		} else {
			agg.MedianSimilarity = scores[mid]
		}
		agg.MinSimilarity = scores[0]
		agg.MaxSimilarity = scores[len(scores)-1]
	}

	if agg.SuccessCount > 0 {
		agg.AverageProcessingTime = successDuration / time.Duration(agg.SuccessCount)
	}

	return agg
}

// calculateAverage calculates the average of a slice of scores
func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range scores {
		sum += score
	}

	return sum / float64(len(scores))
}

// PrintSummary prints a human-readable summary of the evaluation
func (a *AggregateResults) PrintSummary() {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("TRANSCRIPTION EVALUATION SUMMARY")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Evaluation Date: %s\n", a.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Printf("Provider: %s\n", a.Provider)
	fmt.Printf("Model: %s\n", a.Model)
	fmt.Printf("Sample Size: %d pages\n", a.SampleSize)
	fmt.Println()

	fmt.Println("PROCESSING STATISTICS")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Total Pages: %d\n", a.TotalPages)
	if a.TotalPages > 0 {
		fmt.Printf("Successful: %d (%.1f%%)\n", a.SuccessCount, float64(a.SuccessCount)/float64(a.TotalPages)*100)
		fmt.Printf("Failed: %d (%.1f%%)\n", a.FailureCount, float64(a.FailureCount)/float64(a.TotalPages)*100)
	}
	fmt.Printf("Average Processing Time: %s\n", a.AverageProcessingTime)
	fmt.Printf("Total Processing Time: %s\n", a.TotalProcessingTime)
	fmt.Println()

	fmt.Println("TRANSCRIPTION ACCURACY")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Exact Matches: %d\n", a.ExactMatches)
	fmt.Printf("Fuzzy Matches: %d\n", a.FuzzyMatches)
	fmt.Printf("No Matches: %d\n", a.NoMatches)
	fmt.Printf("Unresolved Markers: %d\n", a.TotalUnresolved)
	fmt.Printf("Total Edit Distance: %d\n", a.TotalDistance)
	fmt.Println()

	fmt.Println("SIMILARITY")
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("Average: %.2f%% (%.3f)\n", a.AverageSimilarity*100, a.AverageSimilarity)
	fmt.Printf("Median:  %.2f%% (%.3f)\n", a.MedianSimilarity*100, a.MedianSimilarity)
	fmt.Printf("Min:     %.2f%% (%.3f)\n", a.MinSimilarity*100, a.MinSimilarity)
	fmt.Printf("Max:     %.2f%% (%.3f)\n", a.MaxSimilarity*100, a.MaxSimilarity)
	fmt.Println(strings.Repeat("=", 70))
}

// SaveToJSON saves the aggregate results to a JSON file
func (a *AggregateResults) SaveToJSON(filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(a); err != nil {
		return fmt.Errorf("failed to encode results to JSON: %w", err)
	}

	return nil
}
