package metrics

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAggregate(t *testing.T) {
	results := []PageResult{
		{
			ID:             "p1",
			Transcription:  "Buy milk",
			ProcessingTime: 2 * time.Second,
			Comparison: &TranscriptionComparison{
				Similarity: 1.0,
				ExactMatch: true,
				Method:     "exact",
			},
		},
		{
			ID:             "p2",
			Transcription:  "Call the [?] today",
			ProcessingTime: 4 * time.Second,
			Comparison: &TranscriptionComparison{
				Similarity: 0.96,
				Distance:   2,
				Unresolved: 1,
				Method:     "fuzzy_high",
			},
		},
		{
			ID:             "p3",
			Error:          "transcription failed",
			ProcessingTime: 1 * time.Second,
		},
	}

	agg := Aggregate(results, "gemini", "gemini-2.0-flash")

	if agg.TotalPages != 3 || agg.SuccessCount != 2 || agg.FailureCount != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", agg.TotalPages, agg.SuccessCount, agg.FailureCount)
	}
	if agg.Provider != "gemini" || agg.Model != "gemini-2.0-flash" {
		t.Errorf("provider/model = %s/%s", agg.Provider, agg.Model)
	}
	if agg.ExactMatches != 1 || agg.FuzzyMatches != 1 || agg.NoMatches != 0 {
		t.Errorf("matches = %d/%d/%d, want 1/1/0", agg.ExactMatches, agg.FuzzyMatches, agg.NoMatches)
	}
	if agg.TotalUnresolved != 1 {
		t.Errorf("TotalUnresolved = %d, want 1", agg.TotalUnresolved)
	}
	if agg.TotalDistance != 2 {
		t.Errorf("TotalDistance = %d, want 2", agg.TotalDistance)
	}
	if math.Abs(agg.AverageSimilarity-0.98) > 1e-9 {
		t.Errorf("AverageSimilarity = %.5f, want 0.98", agg.AverageSimilarity)
	}
	if math.Abs(agg.MedianSimilarity-0.98) > 1e-9 {
		t.Errorf("MedianSimilarity = %.5f, want 0.98", agg.MedianSimilarity)
	}
	if agg.MinSimilarity != 0.96 || agg.MaxSimilarity != 1.0 {
		t.Errorf("min/max = %.3f/%.3f, want 0.96/1.0", agg.MinSimilarity, agg.MaxSimilarity)
	}
	if agg.AverageProcessingTime != 3*time.Second {
		t.Errorf("AverageProcessingTime = %s, want 3s", agg.AverageProcessingTime)
	}
	if agg.TotalProcessingTime != 7*time.Second {
		t.Errorf("TotalProcessingTime = %s, want 7s", agg.TotalProcessingTime)
	}
}

func TestAggregateEmptyResults(t *testing.T) {
	agg := Aggregate(nil, "gemini", "gemini-2.0-flash")

	if agg.TotalPages != 0 || agg.SuccessCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", agg.TotalPages, agg.SuccessCount)
	}
	if agg.AverageSimilarity != 0 || agg.MedianSimilarity != 0 {
		t.Errorf("similarity on empty input = %.3f/%.3f, want 0/0", agg.AverageSimilarity, agg.MedianSimilarity)
	}
}

func TestSaveToJSON(t *testing.T) {
	agg := Aggregate([]PageResult{
		{ID: "p1", Comparison: &TranscriptionComparison{Similarity: 1.0, Method: "exact"}},
	}, "openai", "gpt-4o")

	path := filepath.Join(t.TempDir(), "results.json")
	if err := agg.SaveToJSON(path); err != nil {
		t.Fatalf("SaveToJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read results: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if decoded["Provider"] != "openai" {
		t.Errorf("Provider = %v, want openai", decoded["Provider"])
	}
	if decoded["TotalPages"] != float64(1) {
		t.Errorf("TotalPages = %v, want 1", decoded["TotalPages"])
	}
}
