package transcribe

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/segment"
	"github.com/inkmark-app/inkmark/internal/similarity"
)

// LineResult is the outcome of resolving one line slice.
type LineResult struct {
	Text       string
	Confidence float64
	Unresolved bool
}

// resolveLine obtains two independent readings of the slice, accepts them on
// close agreement, and otherwise asks the judge to arbitrate.
func (e *Engine) resolveLine(ctx context.Context, slice segment.Slice) (LineResult, error) {
	img := providers.Image{Data: slice.Image, MIME: slice.MIME}

	first, err := e.lineCall(ctx, "transcribe line", func(ctx context.Context) (string, error) {
		return e.client.TranscribeLine(ctx, img, systemPrompt, promptPrimary)
	})
	if err != nil {
		return LineResult{}, err
	}
	second, err := e.lineCall(ctx, "transcribe line", func(ctx context.Context) (string, error) {
		return e.client.TranscribeLine(ctx, img, systemPrompt, promptSecondary)
	})
	if err != nil {
		return LineResult{}, err
	}

	a := similarity.CollapseSpace(first)
	b := similarity.CollapseSpace(second)

	sim := similarity.Score(a, b)
	if sim >= e.opts.ConsensusThreshold {
		text := betterCandidate(a, b)
		return LineResult{Text: text, Confidence: sim, Unresolved: unresolved(text)}, nil
	}

	slog.Debug("Readings disagree, arbitrating", "similarity", sim)
	judged, err := e.lineCall(ctx, "judge line", func(ctx context.Context) (string, error) {
		return e.client.JudgeLine(ctx, img, a, b)
	})
	if err != nil {
		return LineResult{}, err
	}

	text := similarity.CollapseSpace(judged)
	if text == "" {
		text = betterCandidate(a, b)
	}
	confidence := max(sim, similarity.Score(text, a), similarity.Score(text, b))
	return LineResult{Text: text, Confidence: confidence, Unresolved: unresolved(text)}, nil
}

func (e *Engine) lineCall(ctx context.Context, what string, call func(context.Context) (string, error)) (string, error) {
	return retryText(ctx, what, e.opts.MaxLineRetries, lineRetryStep, call)
}

// betterCandidate picks between two agreeing readings: fewer illegibility
// markers wins, then the longer string (in runes, so multi-byte text does
// not skew the comparison), then the first.
func betterCandidate(a, b string) string {
	ma := strings.Count(a, providers.IllegibilityMarker)
	mb := strings.Count(b, providers.IllegibilityMarker)
	if ma != mb {
		if ma < mb {
			return a
		}
		return b
	}
	if utf8.RuneCountInString(b) > utf8.RuneCountInString(a) {
		return b
	}
	return a
}

func unresolved(text string) bool {
	return strings.Contains(text, providers.IllegibilityMarker)
}
