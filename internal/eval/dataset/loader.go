package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Loader reads labelled note pages from a dataset file
type Loader struct {
	datasetPath string
}

// NewLoader creates a loader for the given dataset file
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load loads every record from the dataset file (JSONL or Parquet)
func (l *Loader) Load() ([]NotePageRecord, error) {
	return l.LoadSample(-1)
}

// LoadSample loads up to limit records. A negative limit loads everything.
func (l *Loader) LoadSample(limit int) ([]NotePageRecord, error) {
	ext := strings.ToLower(filepath.Ext(l.datasetPath))

	switch ext {
	case ".parquet":
		return l.loadParquet(limit)
	case ".jsonl", ".json":
		return l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

// LoadWithFilter loads records matching a filter function
func (l *Loader) LoadWithFilter(filterFn func(*NotePageRecord) bool) ([]NotePageRecord, error) {
	records, err := l.Load()
	if err != nil {
		return nil, err
	}

	filtered := records[:0]
	for i := range records {
		if filterFn(&records[i]) {
			filtered = append(filtered, records[i])
		}
	}
	return filtered, nil
}

func (l *Loader) loadJSONL(limit int) ([]NotePageRecord, error) {
	slog.Debug("Opening JSONL dataset", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []NotePageRecord
	scanner := bufio.NewScanner(file)

	// Reference transcriptions can run long
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		if limit >= 0 && len(records) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()

		if len(line) == 0 {
			continue
		}

		var record NotePageRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL dataset", "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

func (l *Loader) loadParquet(limit int) ([]NotePageRecord, error) {
	slog.Debug("Opening Parquet dataset", "path", l.datasetPath)

	file, err := os.Open(l.datasetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet dataset opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[NotePageRecord](pf)
	defer reader.Close()

	var records []NotePageRecord
	rows := make([]NotePageRecord, 128) // Read in batches

	for limit < 0 || len(records) < limit {
		n, err := reader.Read(rows)
		if n > 0 {
			if limit >= 0 && n > limit-len(records) {
				n = limit - len(records)
			}
			records = append(records, rows[:n]...)
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet dataset", "total_records", len(records))

	return records, nil
}
