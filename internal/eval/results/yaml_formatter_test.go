package results

import (
	"os"
	"strings"
	"testing"

	"github.com/inkmark-app/inkmark/internal/eval/metrics"
)

func TestSaveAndLoadYAML(t *testing.T) {
	agg := metrics.Aggregate([]metrics.PageResult{
		{
			ID:            "p1",
			ImagePath:     "pages/p1.png",
			Kind:          "handwritten",
			Transcription: "Buy milk",
			Comparison: &metrics.TranscriptionComparison{
				Reference:  "Buy milk",
				Similarity: 1.0,
				ExactMatch: true,
				Method:     "exact",
			},
		},
		{
			ID:    "p2",
			Error: "transcription failed",
		},
	}, "gemini", "gemini-2.0-flash")

	dir := t.TempDir()
	path, err := SaveToYAML(dir, "pages.jsonl", agg)
	if err != nil {
		t.Fatalf("SaveToYAML failed: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path = %q, want under %q", path, dir)
	}
	if !strings.Contains(path, "gemini-2.0-flash") {
		t.Errorf("path = %q, want model in filename", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("results file missing: %v", err)
	}

	spec, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}
	if spec.Config.Provider != "gemini" || spec.Config.Model != "gemini-2.0-flash" {
		t.Errorf("config = %s/%s", spec.Config.Provider, spec.Config.Model)
	}
	if spec.Config.DatasetPath != "pages.jsonl" {
		t.Errorf("dataset path = %q", spec.Config.DatasetPath)
	}
	if spec.Config.ExactRate != 1.0 {
		t.Errorf("exact rate = %.3f, want 1.0", spec.Config.ExactRate)
	}
	if len(spec.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(spec.Results))
	}
	if spec.Results[0].Identifier != "p1" || spec.Results[0].Similarity != 1.0 {
		t.Errorf("first result = %+v", spec.Results[0])
	}
	if spec.Results[1].Error == "" {
		t.Error("expected second result to carry the error")
	}
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	if _, err := LoadFromYAML("/nonexistent/results.yaml"); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}
