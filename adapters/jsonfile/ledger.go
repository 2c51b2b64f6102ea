package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mcnemar/domain/core"
	"mcnemar/domain/mcnemar"
	"mcnemar/ports"
)

// Ledger persists result records as one JSON file per record under a base
// directory. It is the default ledger when no database is configured.
type Ledger struct {
	BaseDir string
}

var _ ports.ResultLedger = (*Ledger)(nil)

// NewLedger creates a new file-based ledger rooted at baseDir
func NewLedger(baseDir string) *Ledger {
	return &Ledger{BaseDir: baseDir}
}

// EnsureBaseDir creates the base directory if it doesn't exist
func (l *Ledger) EnsureBaseDir() error {
	return os.MkdirAll(l.BaseDir, 0755)
}

// StoreResult writes one record to disk. Filenames start with the creation
// time so lexicographic order is chronological.
func (l *Ledger) StoreResult(ctx context.Context, record mcnemar.ResultRecord) error {
	if err := l.EnsureBaseDir(); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json",
		record.CreatedAt.Time().Format("2006-01-02_15-04-05"), record.ID)
	path := filepath.Join(l.BaseDir, filename)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

// GetResult retrieves a record by its ID
func (l *Ledger) GetResult(ctx context.Context, id core.ResultID) (*mcnemar.ResultRecord, error) {
	files, err := l.listRecordFiles()
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		record, err := l.loadRecordFile(file)
		if err != nil {
			continue // Skip corrupted files
		}

		if record.ID == id {
			return record, nil
		}
	}

	return nil, core.NewNotFoundError("result", id.String())
}

// ListResults returns stored records, newest first, honoring the filters
func (l *Ledger) ListResults(ctx context.Context, filters ports.ResultFilters) ([]mcnemar.ResultRecord, error) {
	files, err := l.listRecordFiles()
	if err != nil {
		return nil, err
	}

	// Filenames are timestamp-prefixed, so reverse lexicographic order is
	// newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	var records []mcnemar.ResultRecord
	skipped := 0
	for _, file := range files {
		record, err := l.loadRecordFile(file)
		if err != nil {
			continue // Skip corrupted files
		}

		if filters.Label != "" && record.Label != filters.Label {
			continue
		}
		if skipped < filters.Offset {
			skipped++
			continue
		}

		records = append(records, *record)
		if filters.Limit > 0 && len(records) >= filters.Limit {
			break
		}
	}

	return records, nil
}

func (l *Ledger) listRecordFiles() ([]string, error) {
	entries, err := os.ReadDir(l.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read ledger directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(l.BaseDir, entry.Name()))
	}
	return files, nil
}

func (l *Ledger) loadRecordFile(path string) (*mcnemar.ResultRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var record mcnemar.ResultRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
