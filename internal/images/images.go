package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Decode parses raw image bytes and reports the detected format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// Dimensions reports width and height without decoding pixel data.
func Dimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// Downscale resizes img so its longest edge is at most maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	scale := float64(maxDim) / float64(max(w, h))
	targetW := max(int(float64(w)*scale), 1)
	targetH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// Encode serializes img in the given format ("png" or "jpeg") and returns
// the encoded bytes together with their MIME type. Quality applies to JPEG
// only; values outside 1-100 fall back to the encoder default.
func Encode(img image.Image, format string, quality int) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case FormatJPEG, "jpg":
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("failed to encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	case FormatPNG, "":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("failed to encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
}

// MIMEForFormat maps an encode format name to its MIME type. Unknown formats
// map to the generic octet-stream type.
func MIMEForFormat(format string) string {
	switch format {
	case FormatJPEG, "jpg":
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
