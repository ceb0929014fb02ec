package dataset

import (
	"path/filepath"
	"strings"
)

// NotePageRecord represents one labelled page in a transcription dataset.
// Datasets ship as JSONL or Parquet with one row per photographed page.
type NotePageRecord struct {
	ID        string `json:"id" parquet:"id"`
	ImagePath string `json:"image_path" parquet:"image_path"`
	Reference string `json:"reference" parquet:"reference"`
	Kind      string `json:"kind" parquet:"kind"` // "handwritten", "printed", "mixed"
}

// ResolveImagePath anchors a relative image path to the dataset file's
// directory. Absolute paths pass through untouched.
func (r *NotePageRecord) ResolveImagePath(datasetPath string) string {
	if r.ImagePath == "" || filepath.IsAbs(r.ImagePath) {
		return r.ImagePath
	}
	return filepath.Join(filepath.Dir(datasetPath), r.ImagePath)
}

// HasReference reports whether the record carries usable ground truth.
func (r *NotePageRecord) HasReference() bool {
	return strings.TrimSpace(r.Reference) != ""
}
