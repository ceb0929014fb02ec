// Package note assembles the finished Markdown document: title, YAML
// frontmatter, and the output file sink.
package note

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/inkmark-app/inkmark/internal/providers"
)

const maxTitleRunes = 80

// Frontmatter is the YAML block prepended to a finished note.
type Frontmatter struct {
	Title    string    `yaml:"title"`
	Created  time.Time `yaml:"created"`
	Pages    int       `yaml:"pages"`
	Provider string    `yaml:"provider"`
	Model    string    `yaml:"model"`
}

// Document is a finished note ready to render and write.
type Document struct {
	Title    string
	Body     string
	Created  time.Time
	Pages    int
	Provider string
	Model    string
}

// Render produces the full Markdown document with YAML frontmatter.
func (d Document) Render() (string, error) {
	fm := Frontmatter{
		Title:    d.Title,
		Created:  d.Created,
		Pages:    d.Pages,
		Provider: d.Provider,
		Model:    d.Model,
	}

	data, err := yaml.Marshal(&fm)
	if err != nil {
		return "", fmt.Errorf("failed to marshal frontmatter: %w", err)
	}
	return "---\n" + string(data) + "---\n\n" + d.Body + "\n", nil
}

// Write renders the document to path, creating parent directories.
func (d Document) Write(path string) error {
	content, err := d.Render()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	return nil
}

// Title asks the backend for a short title and falls back to a dated default
// when the call fails or returns nothing usable.
func Title(ctx context.Context, client providers.Client, text string, now time.Time) string {
	suggested, err := client.GenerateTitle(ctx, text)
	if err != nil {
		slog.Warn("Title generation failed, using fallback", "error", err)
		return FallbackTitle(now)
	}

	title := SanitizeTitle(suggested)
	if title == "" {
		return FallbackTitle(now)
	}
	return title
}

// FallbackTitle is the deterministic title used when generation fails.
func FallbackTitle(now time.Time) string {
	return "Notes " + now.Format("2006-01-02")
}

// SanitizeTitle reduces a model-suggested title to a single display- and
// filename-safe line.
func SanitizeTitle(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune(' ')
		case unicode.IsControl(r):
		default:
			b.WriteRune(r)
		}
	}

	collapsed := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(collapsed)
	if len(runes) > maxTitleRunes {
		collapsed = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return collapsed
}

// Filename derives an output file name from a note title.
func Filename(title string) string {
	fields := strings.Fields(strings.ToLower(SanitizeTitle(title)))
	if len(fields) == 0 {
		return "notes.md"
	}
	return strings.Join(fields, "-") + ".md"
}
