package toodle

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/mesh-intelligence/toodle/pkg/types"
)

// Export file names, one JSON record per line.
const (
	LabelsFile = "labels.jsonl"
	ItemsFile  = "items.jsonl"
)

// Export writes a snapshot of every label and item in s to dir. Each file is
// replaced atomically, so a reader sees either the old or the new snapshot.
func Export(s *Store, dir string) (err error) {
	labels, err := s.AllLabels()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		for _, l := range labels {
			err = errors.Join(err, l.Close())
		}
	}()
	labelRecs := make([]types.LabelRecord, 0, len(labels))
	for _, l := range labels {
		rec, err := l.Snapshot()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		labelRecs = append(labelRecs, rec)
	}

	items, err := s.AllItems()
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer func() {
		for _, item := range items {
			err = errors.Join(err, item.Close())
		}
	}()
	itemRecs := make([]types.ItemRecord, 0, len(items))
	for _, item := range items {
		rec, err := item.Snapshot()
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		itemRecs = append(itemRecs, rec)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := writeJSONL(filepath.Join(dir, LabelsFile), labelRecs); err != nil {
		return err
	}
	return writeJSONL(filepath.Join(dir, ItemsFile), itemRecs)
}

// ReadExport loads the records written by Export from dir.
func ReadExport(dir string) ([]types.LabelRecord, []types.ItemRecord, error) {
	labels, err := readJSONL[types.LabelRecord](filepath.Join(dir, LabelsFile))
	if err != nil {
		return nil, nil, err
	}
	items, err := readJSONL[types.ItemRecord](filepath.Join(dir, ItemsFile))
	if err != nil {
		return nil, nil, err
	}
	return labels, items, nil
}

func writeJSONL[T any](path string, records []T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record for %s: %w", path, err)
		}
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// readJSONL decodes one record per non-empty line. Malformed lines are
// skipped.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []T
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}
