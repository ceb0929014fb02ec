// Package transcribe orchestrates note conversion: page segmentation,
// dual-prompt line consensus with judge arbitration, page reformatting, and
// the retry layers around both.
package transcribe

import (
	"context"
	"strings"

	"github.com/inkmark-app/inkmark/internal/providers"
	"github.com/inkmark-app/inkmark/internal/schedule"
	"github.com/inkmark-app/inkmark/internal/segment"
)

const (
	DefaultConsensusThreshold = 0.96
	DefaultMaxLineRetries     = 3
	DefaultMaxPageRetries     = 2
	DefaultPageConcurrency    = 2
)

// Options bundles the runtime knobs for a conversion run.
type Options struct {
	Segment segment.Options
	// ConsensusThreshold is the similarity at or above which two candidate
	// readings agree without arbitration.
	ConsensusThreshold float64
	// MaxLineRetries bounds retries around each provider call per line.
	MaxLineRetries int
	// MaxPageRetries bounds reruns of a whole page pipeline.
	MaxPageRetries int
	// PageConcurrency bounds how many pages convert at once.
	PageConcurrency int
}

func DefaultOptions() Options {
	return Options{
		Segment:            segment.DefaultOptions(),
		ConsensusThreshold: DefaultConsensusThreshold,
		MaxLineRetries:     DefaultMaxLineRetries,
		MaxPageRetries:     DefaultMaxPageRetries,
		PageConcurrency:    DefaultPageConcurrency,
	}
}

// Progress receives observational callbacks while a page converts. Both
// fields may be nil; callbacks must not block.
type Progress struct {
	Segment segment.ProgressFunc
	Lines   func(completed, total int)
}

// Engine converts photographed note pages to text through a provider backend.
type Engine struct {
	client    providers.Client
	segmenter *segment.Segmenter
	opts      Options
}

func New(client providers.Client, opts Options) *Engine {
	if opts.ConsensusThreshold <= 0 {
		opts.ConsensusThreshold = DefaultConsensusThreshold
	}
	if opts.PageConcurrency < 1 {
		opts.PageConcurrency = DefaultPageConcurrency
	}
	return &Engine{
		client:    client,
		segmenter: segment.New(opts.Segment),
		opts:      opts,
	}
}

// Clear drops cached segmentation results.
func (e *Engine) Clear() {
	e.segmenter.Clear()
}

// ConvertPages transcribes every page with bounded parallelism and joins the
// non-empty page texts with blank lines, in page order. The first
// unrecovered page failure aborts the whole run with no partial output.
func (e *Engine) ConvertPages(ctx context.Context, pages [][]byte, progress func(page, completed, total int)) (string, error) {
	tasks := make([]func(context.Context) (string, error), len(pages))
	for i, page := range pages {
		tasks[i] = func(ctx context.Context) (string, error) {
			var p *Progress
			if progress != nil {
				p = &Progress{Lines: func(completed, total int) {
					progress(i, completed, total)
				}}
			}
			return e.TranscribePage(ctx, page, p)
		}
	}

	texts, err := schedule.RunBounded(ctx, e.opts.PageConcurrency, tasks)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// Provider exposes the backend for connection checks and title generation.
func (e *Engine) Provider() providers.Client {
	return e.client
}
