package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Loader reads page images from local paths, http(s) URLs, or data URIs.
type Loader struct {
	HTTPClient *http.Client
}

// NewLoader creates a loader with a sensible download timeout.
func NewLoader() *Loader {
	return &Loader{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads the raw bytes of a page image from the given source.
func (l *Loader) Load(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "data:"):
		return decodeDataURI(source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.download(ctx, source)
	default:
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read image file: %w", err)
		}
		return data, nil
	}
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image response from %s", url)
	}

	return data, nil
}

func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding, expected base64")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URI: %w", err)
	}
	return data, nil
}
