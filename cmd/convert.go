package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkmark-app/inkmark/internal/images"
	"github.com/inkmark-app/inkmark/internal/note"
)

// pageExtensions are the image types accepted when scanning a directory.
var pageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

func newConvertCmd() *cobra.Command {
	var engine engineFlags
	var dir string
	var out string
	var title string

	cmd := &cobra.Command{
		Use:   "convert [image...]",
		Short: "Transcribe photographed note pages into one Markdown file",
		Long: `Transcribes one or more photographed note pages and writes a single
Markdown note with YAML frontmatter.

Pages are given as file paths, http(s) URLs, or data URIs, in note order.
With --dir, all image files in the directory are used in name order.`,
		Example: `  # Two pages into notes.md
  inkmark convert page1.jpg page2.jpg --out notes.md

  # A directory of pages, output named after the generated title
  inkmark convert --dir ./scans

  # Slow provider: one page at a time, one request per second
  inkmark convert page.png --concurrency 1 --rps 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sources := args
			if dir != "" {
				found, err := listPageFiles(dir)
				if err != nil {
					return err
				}
				sources = append(sources, found...)
			}
			if len(sources) == 0 {
				return errors.New("no page images given (pass files or --dir)")
			}

			loader := images.NewLoader()
			pages := make([][]byte, len(sources))
			for i, source := range sources {
				data, err := loader.Load(ctx, source)
				if err != nil {
					return fmt.Errorf("failed to load page %d (%s): %w", i+1, source, err)
				}
				pages[i] = data
			}
			slog.Info("Pages loaded", "count", len(pages))

			eng, provider, model, err := engine.buildEngine(ctx)
			if err != nil {
				return err
			}
			slog.Info("Starting conversion", "provider", provider, "model", model)

			start := time.Now()
			body, err := eng.ConvertPages(ctx, pages, func(page, completed, total int) {
				slog.Info("Line transcribed", "page", page+1, "completed", completed, "total", total)
			})
			if err != nil {
				return fmt.Errorf("conversion failed: %w", err)
			}
			slog.Info("Conversion finished", "elapsed", time.Since(start).Round(time.Millisecond))

			if strings.TrimSpace(body) == "" {
				slog.Warn("No text detected on any page; nothing written")
				return nil
			}

			if title == "" {
				title = note.Title(ctx, eng.Provider(), body, time.Now())
			}
			doc := note.Document{
				Title:    title,
				Body:     body,
				Created:  time.Now(),
				Pages:    len(pages),
				Provider: provider,
				Model:    model,
			}

			if out == "" {
				out = note.Filename(title)
			}
			if err := doc.Write(out); err != nil {
				return err
			}
			slog.Info("Note written", "path", out, "title", title)
			return nil
		},
	}

	engine.register(cmd)
	cmd.Flags().StringVar(&dir, "dir", "", "Directory of page images, used in name order")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (default derived from the title)")
	cmd.Flags().StringVar(&title, "title", "", "Note title (default generated by the model)")

	return cmd
}

func listPageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read page directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}
	return paths, nil
}
