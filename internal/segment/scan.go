package segment

import (
	"context"
	"fmt"
	"image"
)

// span is a contiguous run of ink-bearing rows. bottom is exclusive.
type span struct {
	top    int
	bottom int
}

// scanner computes ink spans for a decoded page. Implementations must
// produce identical spans for identical inputs.
type scanner interface {
	spans(ctx context.Context, img image.Image, opts Options) ([]span, error)
}

// inlineScanner runs the pixel scan on the calling goroutine.
type inlineScanner struct{}

func (inlineScanner) spans(_ context.Context, img image.Image, opts Options) ([]span, error) {
	return inkSpans(img, opts), nil
}

// workerScanner offloads the pixel scan to a dedicated goroutine so the
// caller can observe cancellation while a large page is being scanned.
type workerScanner struct{}

func (workerScanner) spans(ctx context.Context, img image.Image, opts Options) ([]span, error) {
	type result struct {
		spans []span
		err   error
	}

	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("row scan worker: %v", r)}
			}
		}()
		ch <- result{spans: inkSpans(img, opts)}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.spans, res.err
	}
}

// inkSpans counts dark pixels per row, smooths the profile, and groups rows
// that clear the ink threshold into merged spans.
func inkSpans(img image.Image, opts Options) []span {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	// Luminance is compared in thousandths so the 0.299/0.587/0.114 weights
	// stay in integer arithmetic.
	cutoff := opts.BrightnessThreshold * 1000
	counts := make([]float64, height)
	for y := 0; y < height; y++ {
		n := 0
		for x := 0; x < width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := 299*int(r>>8) + 587*int(g>>8) + 114*int(bl>>8)
			if lum <= cutoff {
				n++
			}
		}
		counts[y] = float64(n)
	}

	smoothed := smooth3(counts)
	minInk := max(6.0, float64(width)*opts.MinInkPixelsRatio)

	var spans []span
	start := -1
	for y := 0; y <= height; y++ {
		ink := y < height && smoothed[y] >= minInk
		if ink && start < 0 {
			start = y
		}
		if !ink && start >= 0 {
			spans = append(spans, span{top: start, bottom: y})
			start = -1
		}
	}

	spans = mergeSpans(spans, opts.MergeGapPx)

	kept := spans[:0]
	for _, s := range spans {
		if s.bottom-s.top >= opts.MinHeightPx {
			kept = append(kept, s)
		}
	}
	return kept
}

// smooth3 applies a 3-tap moving average. Edge rows average over the
// neighbors that exist.
func smooth3(counts []float64) []float64 {
	out := make([]float64, len(counts))
	for i := range counts {
		sum, n := counts[i], 1.0
		if i > 0 {
			sum += counts[i-1]
			n++
		}
		if i < len(counts)-1 {
			sum += counts[i+1]
			n++
		}
		out[i] = sum / n
	}
	return out
}

func mergeSpans(spans []span, gap int) []span {
	if len(spans) == 0 {
		return spans
	}
	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.top-last.bottom <= gap {
			last.bottom = s.bottom
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}
