package transcribe

import (
	"fmt"

	"github.com/inkmark-app/inkmark/internal/providers"
)

// systemPrompt frames every transcribe-line call.
const systemPrompt = `You are transcribing one cropped line from a photographed page of handwritten or printed notes. Copy the text exactly as written and never invent text that is not visible.`

// The two user prompts are worded independently so the consensus check
// compares genuinely independent readings of the same line.
var (
	promptPrimary = fmt.Sprintf(`Transcribe the single line of text in this image.

INSTRUCTIONS:
1. Copy the text exactly as written, preserving capitalization and punctuation
2. Do not correct spelling or grammar
3. Use %s for any portion you cannot read
4. Treat the image as one line; do not add line breaks

OUTPUT FORMAT:
Provide ONLY the transcribed text. Do not include phrases like "The line says:".`, providers.IllegibilityMarker)

	promptSecondary = fmt.Sprintf(`Read the writing in this image and type out its text.

INSTRUCTIONS:
1. Write every word and symbol you can see, in order
2. Keep the original capitalization, punctuation, and numbers
3. Put %s in place of anything you cannot make out
4. Return a single line with no commentary

OUTPUT FORMAT:
Provide ONLY the text of the line. Do not include phrases like "The text reads:".`, providers.IllegibilityMarker)
)
