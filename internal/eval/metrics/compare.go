package metrics

import (
	"fmt"
	"strings"

	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/similarity"
)

// TranscriptionComparison represents the comparison of a produced
// transcription against the page's reference text
type TranscriptionComparison struct {
	Reference  string
	Actual     string
	Similarity float64 // 0.0 to 1.0, on normalized text
	Distance   int     // Levenshtein distance on normalized text
	ExactMatch bool
	Unresolved int    // illegibility markers left in the output
	Method     string // "exact", "fuzzy_high", "fuzzy_medium", "no_match", ...
	Notes      string
}

// Compare scores a transcription against its reference text. Scoring runs on
// normalized text, so casing, punctuation and spacing differences do not
// count against the transcription.
func Compare(reference, actual string) *TranscriptionComparison {
	comparison := &TranscriptionComparison{
		Reference:  reference,
		Actual:     actual,
		Unresolved: strings.Count(actual, providers.IllegibilityMarker),
	}

	refNorm := similarity.Normalize(reference)
	actNorm := similarity.Normalize(actual)

	// Handle empty sides
	if refNorm == "" && actNorm == "" {
		comparison.Similarity = 1.0
		comparison.ExactMatch = true
		comparison.Method = "both_empty"
		comparison.Notes = "Blank page transcribed as blank"
		return comparison
	}

	if refNorm == "" {
		comparison.Method = "reference_missing"
		comparison.Notes = "Reference is empty but a transcription was produced"
		comparison.Distance = len([]rune(actNorm))
		return comparison
	}

	if actNorm == "" {
		comparison.Method = "transcription_missing"
		comparison.Notes = "Transcription came back empty"
		comparison.Distance = len([]rune(refNorm))
		return comparison
	}

	comparison.Similarity = similarity.Score(reference, actual)
	comparison.Distance = similarity.Distance(refNorm, actNorm)

	if refNorm == actNorm {
		comparison.ExactMatch = true
		comparison.Method = "exact"
		comparison.Notes = "Exact match"
		return comparison
	}

	if comparison.Similarity >= 0.95 {
		comparison.Method = "fuzzy_high"
		comparison.Notes = fmt.Sprintf("High similarity (%.2f)", comparison.Similarity)
	} else if comparison.Similarity >= 0.80 {
		comparison.Method = "fuzzy_medium"
		comparison.Notes = fmt.Sprintf("Medium similarity (%.2f)", comparison.Similarity)
	} else {
		comparison.Method = "no_match"
		comparison.Notes = fmt.Sprintf("Low similarity (%.2f)", comparison.Similarity)
	}

	return comparison
}
