package metrics

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		reference  string
		actual     string
		method     string
		exact      bool
		unresolved int
	}{
		{
			name:      "identical text",
			reference: "Buy milk",
			actual:    "Buy milk",
			method:    "exact",
			exact:     true,
		},
		{
			name:      "case and punctuation ignored",
			reference: "Buy milk, eggs.",
			actual:    "buy MILK eggs",
			method:    "exact",
			exact:     true,
		},
		{
			name:      "single character slip",
			reference: "Buy milk",
			actual:    "Buy nilk",
			method:    "fuzzy_medium",
		},
		{
			name:      "one typo in a long line",
			reference: "Meeting notes from Tuesday morning",
			actual:    "Meeting notes from Tuesdey morning",
			method:    "fuzzy_high",
		},
		{
			name:      "unrelated text",
			reference: "Buy milk",
			actual:    "Quarterly earnings report",
			method:    "no_match",
		},
		{
			name:       "markers counted",
			reference:  "Call the plumber about the sink",
			actual:     "Call the [?] about the [?]",
			method:     "no_match",
			unresolved: 2,
		},
		{
			name:      "both empty",
			reference: "",
			actual:    "",
			method:    "both_empty",
			exact:     true,
		},
		{
			name:      "reference empty",
			reference: "",
			actual:    "Buy milk",
			method:    "reference_missing",
		},
		{
			name:      "transcription empty",
			reference: "Buy milk",
			actual:    "",
			method:    "transcription_missing",
		},
		{
			name:      "punctuation-only transcription counts as empty",
			reference: "Buy milk",
			actual:    "...",
			method:    "transcription_missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.reference, tt.actual)
			if got.Method != tt.method {
				t.Errorf("Method = %q, want %q (similarity %.3f)", got.Method, tt.method, got.Similarity)
			}
			if got.ExactMatch != tt.exact {
				t.Errorf("ExactMatch = %v, want %v", got.ExactMatch, tt.exact)
			}
			if got.Unresolved != tt.unresolved {
				t.Errorf("Unresolved = %d, want %d", got.Unresolved, tt.unresolved)
			}
		})
	}
}

func TestCompareScoresAndDistance(t *testing.T) {
	got := Compare("Buy milk", "Buy nilk")
	if got.Distance != 1 {
		t.Errorf("Distance = %d, want 1", got.Distance)
	}
	if got.Similarity <= 0.8 || got.Similarity >= 0.95 {
		t.Errorf("Similarity = %.3f, want in (0.80, 0.95)", got.Similarity)
	}

	exact := Compare("Buy milk", "Buy milk")
	if exact.Similarity != 1.0 || exact.Distance != 0 {
		t.Errorf("exact comparison = %.3f/%d, want 1.0/0", exact.Similarity, exact.Distance)
	}
}

func TestCompareEmptySidesReportDistance(t *testing.T) {
	missing := Compare("Buy milk", "")
	if missing.Distance != len("buymilk") {
		t.Errorf("Distance = %d, want %d", missing.Distance, len("buymilk"))
	}
	if missing.Similarity != 0 {
		t.Errorf("Similarity = %.3f, want 0", missing.Similarity)
	}

	hallucinated := Compare("", "Buy milk")
	if hallucinated.Distance != len("buymilk") {
		t.Errorf("Distance = %d, want %d", hallucinated.Distance, len("buymilk"))
	}
}
