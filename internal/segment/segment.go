// Package segment splits a photographed note page into horizontal line
// slices by scanning rows for ink-dark pixels.
package segment

import (
	"context"
	"crypto/sha256"
	"fmt"
	"image"
	"image/draw"

	"github.com/inkmark-app/inkmark/internal/images"
)

const (
	DefaultMaxImageDimension   = 1536
	DefaultBrightnessThreshold = 140
	DefaultMinInkPixelsRatio   = 0.01
	DefaultMergeGapPx          = 8
	DefaultMinHeightPx         = 12
	DefaultVerticalPaddingPx   = 6
	DefaultFormat              = images.FormatPNG
	DefaultQuality             = 85
	DefaultCacheSize           = 24
)

// Options controls page decomposition.
type Options struct {
	// MaxImageDimension bounds the longest page edge before scanning.
	MaxImageDimension int
	// BrightnessThreshold is the 0-255 luminance at or below which a pixel
	// counts as ink.
	BrightnessThreshold int
	// MinInkPixelsRatio scales with page width to set the per-row ink floor.
	MinInkPixelsRatio float64
	// MergeGapPx merges spans separated by at most this many rows.
	MergeGapPx int
	// MinHeightPx drops spans shorter than this after merging.
	MinHeightPx int
	// VerticalPaddingPx grows each span on both sides, clamped to the page.
	VerticalPaddingPx int
	// Format and Quality control line slice encoding.
	Format  string
	Quality int
	// CacheSize bounds the result cache; 0 disables caching.
	CacheSize int
	// UseWorker offloads the pixel scan to a dedicated goroutine.
	UseWorker bool
}

// DefaultOptions returns the tuned segmentation defaults.
func DefaultOptions() Options {
	return Options{
		MaxImageDimension:   DefaultMaxImageDimension,
		BrightnessThreshold: DefaultBrightnessThreshold,
		MinInkPixelsRatio:   DefaultMinInkPixelsRatio,
		MergeGapPx:          DefaultMergeGapPx,
		MinHeightPx:         DefaultMinHeightPx,
		VerticalPaddingPx:   DefaultVerticalPaddingPx,
		Format:              DefaultFormat,
		Quality:             DefaultQuality,
		CacheSize:           DefaultCacheSize,
	}
}

// Slice is one horizontal line region cropped from a page, top to bottom.
// Top is inclusive and Bottom exclusive, in downscaled-page coordinates.
type Slice struct {
	Image  []byte
	MIME   string
	Top    int
	Bottom int
}

// ProgressFunc receives coarse phase updates while a page is segmented.
type ProgressFunc func(phase string, fraction float64)

// Segmenter decomposes pages into ordered line slices.
type Segmenter struct {
	opts  Options
	scan  scanner
	cache *sliceCache
}

func New(opts Options) *Segmenter {
	if opts.Format == "" {
		opts.Format = DefaultFormat
	}

	var sc scanner = inlineScanner{}
	if opts.UseWorker {
		sc = workerScanner{}
	}

	var cache *sliceCache
	if opts.CacheSize > 0 {
		cache = newSliceCache(opts.CacheSize)
	}

	return &Segmenter{opts: opts, scan: sc, cache: cache}
}

// Segment splits page into ordered line slices. A page with no detectable
// ink yields exactly one slice covering the whole page.
func (s *Segmenter) Segment(ctx context.Context, page []byte, progress ProgressFunc) ([]Slice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := func(phase string, fraction float64) {
		if progress != nil {
			progress(phase, fraction)
		}
	}

	key := s.cacheKey(page)
	if s.cache != nil {
		if slices, ok := s.cache.get(key); ok {
			report("done", 1)
			return slices, nil
		}
	}

	report("decode", 0.1)
	img, _, err := images.Decode(page)
	if err != nil {
		return nil, err
	}
	img = images.Downscale(img, s.opts.MaxImageDimension)

	report("scan", 0.4)
	spans, err := s.scan.spans(ctx, img, s.opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Worker trouble never fails the page; rescan inline.
		spans = inkSpans(img, s.opts)
	}

	report("encode", 0.7)
	b := img.Bounds()
	height := b.Dy()
	if len(spans) == 0 {
		spans = []span{{top: 0, bottom: height}}
	}

	out := make([]Slice, 0, len(spans))
	for _, sp := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		top := max(sp.top-s.opts.VerticalPaddingPx, 0)
		bottom := min(sp.bottom+s.opts.VerticalPaddingPx, height)
		rect := image.Rect(b.Min.X, b.Min.Y+top, b.Max.X, b.Min.Y+bottom)

		data, mime, err := images.Encode(cropRegion(img, rect), s.opts.Format, s.opts.Quality)
		if err != nil {
			return nil, fmt.Errorf("failed to encode line slice: %w", err)
		}
		out = append(out, Slice{Image: data, MIME: mime, Top: top, Bottom: bottom})
	}

	if s.cache != nil {
		s.cache.put(key, out)
	}
	report("done", 1)
	return out, nil
}

// Clear drops all cached segmentation results.
func (s *Segmenter) Clear() {
	if s.cache != nil {
		s.cache.clear()
	}
}

func (s *Segmenter) cacheKey(page []byte) string {
	sum := sha256.Sum256(page)
	return fmt.Sprintf("%x|%d|%s|%d", sum, s.opts.MaxImageDimension, s.opts.Format, s.opts.Quality)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropRegion(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}
