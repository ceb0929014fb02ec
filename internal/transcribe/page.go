package transcribe

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/segment"
	"github.com/inkmark-app/inkmark/internal/similarity"
)

// TranscribePage converts one page image to text, rerunning the whole page
// pipeline on recoverable failures. An empty string with a nil error means
// the page had no transcribable content.
func (e *Engine) TranscribePage(ctx context.Context, page []byte, progress *Progress) (string, error) {
	return retryText(ctx, "page", e.opts.MaxPageRetries, pageRetryStep, func(ctx context.Context) (string, error) {
		return e.transcribePage(ctx, page, progress)
	})
}

func (e *Engine) transcribePage(ctx context.Context, page []byte, progress *Progress) (string, error) {
	var segProgress segment.ProgressFunc
	if progress != nil {
		segProgress = progress.Segment
	}

	lineSlices, err := e.segmenter.Segment(ctx, page, segProgress)
	if err != nil {
		return "", err
	}

	total := len(lineSlices)
	lines := make([]string, 0, total)
	for i, slice := range lineSlices {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		res, err := e.resolveLine(ctx, slice)
		if err != nil {
			return "", err
		}
		lines = append(lines, res.Text)
		if progress != nil && progress.Lines != nil {
			progress.Lines(i+1, total)
		}
	}

	raw := strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)
	if raw == "" {
		return "", nil
	}

	formatted, err := e.client.FormatTranscription(ctx, raw)
	if err != nil {
		return "", err
	}
	if wordsPreserved(raw, formatted) {
		return formatted, nil
	}

	slog.Warn("Reformatted page changed its words, keeping raw transcription")
	return raw, nil
}

// wordsPreserved reports whether formatted carries exactly the same word
// sequence as raw. This is the safety net against the reformat call silently
// dropping or rewriting content.
func wordsPreserved(raw, formatted string) bool {
	return slices.Equal(
		similarity.WordTokens(raw, providers.IllegibilityMarker),
		similarity.WordTokens(formatted, providers.IllegibilityMarker),
	)
}
