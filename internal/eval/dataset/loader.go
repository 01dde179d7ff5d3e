package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// maxLineBytes bounds a single JSONL line
const maxLineBytes = 10 * 1024 * 1024

// Loader reads Institutional Books records
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// Load reads every record in the dataset
func (l *Loader) Load() ([]InstitutionalBooksRecord, error) {
	return Load[InstitutionalBooksRecord](l.datasetPath, 0)
}

// LoadSample reads at most limit records
func (l *Loader) LoadSample(limit int) ([]InstitutionalBooksRecord, error) {
	return Load[InstitutionalBooksRecord](l.datasetPath, limit)
}

// Load reads rows of T from a .parquet, .jsonl/.json or .yaml/.yml file.
// A positive limit stops after that many rows.
func Load[T any](path string, limit int) ([]T, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		rows []T
		err  error
	)
	switch ext {
	case ".parquet":
		rows, err = loadParquet[T](path, limit)
	case ".jsonl", ".json":
		rows, err = loadJSONL[T](path, limit)
	case ".yaml", ".yml":
		rows, err = loadYAML[T](path, limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .yaml)", ext)
	}
	if err != nil {
		return nil, err
	}

	slog.Debug("Dataset loaded", "path", path, "rows", len(rows))
	return rows, nil
}

func loadJSONL[T any](path string, limit int) ([]T, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var rows []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		if limit > 0 && len(rows) >= limit {
			break
		}
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}
	return rows, nil
}

func loadParquet[T any](path string, limit int) ([]T, error) {
	file, err := os.Open(path)
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
	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	var rows []T
	batch := make([]T, 128)
	for limit <= 0 || len(rows) < limit {
		n, err := reader.Read(batch)
		if n > 0 {
			if limit > 0 {
				n = min(n, limit-len(rows))
			}
			rows = append(rows, batch[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return rows, nil
}

// loadYAML reads a YAML sequence of rows
func loadYAML[T any](path string, limit int) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	var rows []T
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
