package results

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inkmark-app/inkmark/internal/eval/metrics"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	DatasetPath string  `yaml:"datasetpath"`
	SampleSize  int     `yaml:"samplesize"`
	Timestamp   string  `yaml:"timestamp"`
	AverageSim  float64 `yaml:"averagesimilarity"`
	MedianSim   float64 `yaml:"mediansimilarity"`
	ExactRate   float64 `yaml:"exactmatchrate"`
}

// EvalResult represents a single page evaluation result
type EvalResult struct {
	Identifier    string  `yaml:"identifier"`
	ImagePath     string  `yaml:"imagepath"`
	Kind          string  `yaml:"kind,omitempty"`
	Transcription string  `yaml:"transcription"`
	Reference     string  `yaml:"reference"`
	Similarity    float64 `yaml:"similarity"`
	Distance      int     `yaml:"distance"`
	Unresolved    int     `yaml:"unresolved"`
	Method        string  `yaml:"method"`
	Error         string  `yaml:"error,omitempty"`
}

// EvalSpec represents the complete evaluation record written to disk
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Results []EvalResult `yaml:"results"`
}

// SaveToYAML writes an evaluation run to a YAML file under outputDir and
// returns the file's path.
func SaveToYAML(outputDir, datasetPath string, agg *metrics.AggregateResults) (string, error) {
	if outputDir == "" {
		outputDir = "evals"
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	spec := EvalSpec{
		Config: EvalConfig{
			Provider:    agg.Provider,
			Model:       agg.Model,
			DatasetPath: datasetPath,
			SampleSize:  agg.SampleSize,
			Timestamp:   timestamp,
			AverageSim:  agg.AverageSimilarity,
			MedianSim:   agg.MedianSimilarity,
		},
		Results: make([]EvalResult, 0, len(agg.Results)),
	}
	if agg.SuccessCount > 0 {
		spec.Config.ExactRate = float64(agg.ExactMatches) / float64(agg.SuccessCount)
	}

	for _, r := range agg.Results {
		evalResult := EvalResult{
			Identifier:    r.ID,
			ImagePath:     r.ImagePath,
			Kind:          r.Kind,
			Transcription: r.Transcription,
			Error:         r.Error,
		}

		if r.Comparison != nil {
			evalResult.Reference = r.Comparison.Reference
			evalResult.Similarity = r.Comparison.Similarity
			evalResult.Distance = r.Comparison.Distance
			evalResult.Unresolved = r.Comparison.Unresolved
			evalResult.Method = r.Comparison.Method
		}

		spec.Results = append(spec.Results, evalResult)
	}

	filename := filepath.Join(outputDir, fmt.Sprintf("%s-%s.yaml", agg.Model, timestamp))

	data, err := yaml.Marshal(&spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}

// LoadFromYAML reads a previously saved evaluation run
func LoadFromYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse results file: %w", err)
	}

	return &spec, nil
}
