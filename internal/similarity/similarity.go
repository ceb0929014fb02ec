// Package similarity provides the normalized edit-distance scoring and word
// tokenization used to compare line transcription candidates.
package similarity

import (
	"strings"
	"unicode"
)

// Normalize lowercases s and strips every rune that is not a letter or digit.
// Whitespace is removed too, so scoring is insensitive to spacing differences.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpace collapses internal whitespace runs (including newlines) to
// single spaces and trims leading/trailing whitespace.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Score returns a similarity ratio in [0,1] between two strings, computed as
// 1 - levenshtein/maxLen over their Normalize()d forms. Two empty strings are
// identical (1.0); one empty and one non-empty share nothing (0.0).
func Score(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)

	if na == nb {
		return 1.0
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0.0
	}

	ra := []rune(na)
	rb := []rune(nb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// Distance returns the Levenshtein edit distance between a and b, counted in
// runes. The inputs are compared as given, with no normalization.
func Distance(a, b string) int {
	if a == b {
		return 0
	}
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	rows := len(a) + 1
	cols := len(b) + 1
	matrix := make([][]int, rows)
	for i := range matrix {
		matrix[i] = make([]int, cols)
		matrix[i][0] = i
	}
	for j := 0; j < cols; j++ {
		matrix[0][j] = j
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			deletion := matrix[i-1][j] + 1
			insertion := matrix[i][j-1] + 1
			substitution := matrix[i-1][j-1] + cost

			matrix[i][j] = min(deletion, insertion, substitution)
		}
	}

	return matrix[rows-1][cols-1]
}

// WordTokens splits s into comparison tokens: lowercased runs of letters and
// digits, with every occurrence of marker preserved as a single token. Used to
// verify that a reformatted page kept exactly the words of the raw page.
func WordTokens(s, marker string) []string {
	s = strings.ToLower(s)
	marker = strings.ToLower(marker)

	tokens := []string{}
	appendWords := func(segment string) {
		var word strings.Builder
		for _, r := range segment {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				word.WriteRune(r)
				continue
			}
			if word.Len() > 0 {
				tokens = append(tokens, word.String())
				word.Reset()
			}
		}
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
		}
	}

	if marker == "" {
		appendWords(s)
		return tokens
	}

	for {
		idx := strings.Index(s, marker)
		if idx < 0 {
			appendWords(s)
			return tokens
		}
		appendWords(s[:idx])
		tokens = append(tokens, marker)
		s = s[idx+len(marker):]
	}
}
