package seed

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/parquet-go/parquet-go"
)

const utf8BOM = "\ufeff"

// Loader reads seed files by extension.
type Loader struct {
	path string
}

// NewLoader creates a new seed loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load reads the seed file and maps it onto seed rows.
func (l *Loader) Load() ([]models.SeedRow, error) {
	table, err := l.Table()
	if err != nil {
		return nil, err
	}
	rows := Rows(table)
	slog.Debug("Loaded seed rows", "path", l.path, "rows", len(rows), "columns", len(table.Header))
	return rows, nil
}

// Table reads the seed file without interpreting its columns.
func (l *Loader) Table() (*Table, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".csv":
		return l.loadCSV()
	case ".jsonl", ".json":
		return l.loadJSONL()
	case ".parquet":
		return l.loadParquet()
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .csv, .jsonl, .parquet)", ext)
	}
}

func (l *Loader) loadCSV() (*Table, error) {
	slog.Debug("Opening CSV file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads a header-driven CSV table. Fully blank rows are skipped.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("seed file has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	table := &Table{Header: header}
	for index := 0; ; index++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV at row %d: %w", index+2, err)
		}
		if blank(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
		table.Lines = append(table.Lines, index+2)
	}

	return table, nil
}

// loadJSONL loads one JSON object per line. Columns are ordered by first
// appearance, keys within a record sorted.
func (l *Loader) loadJSONL() (*Table, error) {
	slog.Debug("Opening JSONL file", "path", l.path)

	file, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024 // 1MB per line
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	table := &Table{}
	var records []map[string]string
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		keys := make([]string, 0, len(raw))
		for k := range raw {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		record := make(map[string]string, len(raw))
		for _, k := range keys {
			if !slices.Contains(table.Header, k) {
				table.Header = append(table.Header, k)
			}
			record[k] = cellString(raw[k])
		}
		records = append(records, record)
		table.Lines = append(table.Lines, lineNum)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading seed file: %w", err)
	}

	for _, record := range records {
		row := make([]string, len(table.Header))
		for i, h := range table.Header {
			row[i] = record[h]
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func (l *Loader) loadParquet() (*Table, error) {
	slog.Debug("Opening Parquet file", "path", l.path)

	file, err := os.Open(l.path)
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

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	table := &Table{}
	for _, path := range pf.Schema().Columns() {
		table.Header = append(table.Header, strings.Join(path, "."))
	}

	batch := make([]parquet.Row, 128)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(batch)
			for _, values := range batch[:n] {
				row := make([]string, len(table.Header))
				for _, v := range values {
					if col := v.Column(); col >= 0 && col < len(row) && !v.IsNull() {
						row[col] = v.String()
					}
				}
				if blank(row) {
					continue
				}
				table.Rows = append(table.Rows, row)
				table.Lines = append(table.Lines, len(table.Rows)+1)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to read parquet rows: %w", err)
			}
		}
		rows.Close()
	}

	return table, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "Y"
		}
		return "N"
	case float64:
		return models.FormatNumber(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
