package dictionary

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DropColumn removes the first column whose header matches column
// (case- and whitespace-insensitive) from the CSV at inPath and writes the
// result to outPath, which may equal inPath. It returns the matched header,
// or "" when no column matched, in which case nothing is written.
func DropColumn(inPath, outPath, column string) (string, error) {
	f, err := os.Open(inPath)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", inPath, err)
	}
	reader := csv.NewReader(skipBOM(f))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	_ = f.Close()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", inPath, err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("%s: empty file, header row required", inPath)
	}

	target := strings.ToLower(strings.TrimSpace(column))
	idx := -1
	for i, h := range rows[0] {
		if strings.ToLower(strings.TrimSpace(h)) == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", nil
	}
	matched := rows[0][idx]

	for i, row := range rows {
		if idx < len(row) {
			rows[i] = append(row[:idx:idx], row[idx+1:]...)
		}
	}

	// Rewrites go through a temp file in the target directory
	tmp, err := os.CreateTemp(filepath.Dir(outPath), ".newstag-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return "", fmt.Errorf("replace %s: %w", outPath, err)
	}

	return matched, nil
}
