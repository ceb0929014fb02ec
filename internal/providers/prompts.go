package providers

import (
	"fmt"
	"strings"
)

// IllegibilityMarker is the sentinel token a transcription must emit in place
// of unreadable content. A line whose final text still contains it is flagged
// unresolved.
const IllegibilityMarker = "[?]"

// JudgePrompt builds the arbitration prompt shown alongside the line image
// when two candidate transcriptions disagree.
func JudgePrompt(candidateA, candidateB string) string {
	return fmt.Sprintf(`Two independent transcriptions of the handwritten line in this image disagree.

Transcription A: %s
Transcription B: %s

Your task is to read the image yourself and return the single correct transcription of the line.

INSTRUCTIONS:
1. Look at the image, not just the candidates - either candidate may be wrong
2. Transcribe the line exactly as written, preserving capitalization and punctuation
3. Use %s for any portion you cannot read
4. Do not merge the candidates; return one line of text

OUTPUT FORMAT:
Provide ONLY the corrected line. Do not include explanations or phrases like "The correct transcription is:".`,
		candidateA, candidateB, IllegibilityMarker)
}

// FormatPrompt builds the page-level reformatting prompt. The instructions
// are deliberately strict: the caller verifies word-for-word preservation and
// discards the result if a single word changed.
func FormatPrompt(raw string) string {
	return fmt.Sprintf(`The following text was transcribed line by line from a photographed page of notes:

%s

Your task is to reflow it as clean Markdown.

INSTRUCTIONS:
1. Preserve every word exactly as transcribed - do not add, drop, or correct any word
2. Keep the lines in their original order
3. Only adjust spacing, line breaks, and Markdown markers (headings, lists, emphasis)
4. Keep %s tokens exactly where they appear

OUTPUT FORMAT:
Provide ONLY the reformatted Markdown. Do not include commentary or code fences.`,
		raw, IllegibilityMarker)
}

// TitlePrompt builds the prompt used to derive a short note title from the
// transcribed text.
func TitlePrompt(text string) string {
	return fmt.Sprintf(`The following is a transcribed note:

%s

Suggest a short descriptive title for this note.

INSTRUCTIONS:
1. At most eight words
2. No quotes, no trailing punctuation
3. Use words from the note where possible

OUTPUT FORMAT:
Provide ONLY the title text.`, text)
}

// StripCodeFence removes a wrapping Markdown code fence if the model added
// one despite instructions.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
