// Package seed reads seed files (CSV, JSONL or Parquet) into tables and
// seed rows.
package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a seed file as header plus rows of cells, in file order.
type Table struct {
	Header []string
	Rows   [][]string
	// Lines holds the 1-based source line of each row (header = 1).
	Lines []int
}

// Index returns the position of column in the header, matched
// case-insensitively, or -1.
func (t *Table) Index(column string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(column)) {
			return i
		}
	}
	return -1
}

// Has reports whether the header contains column.
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Get returns the trimmed cell for row and column, or "".
func (t *Table) Get(row int, column string) string {
	i := t.Index(column)
	if i < 0 || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// Set writes a cell, appending the column to the header when missing.
func (t *Table) Set(row int, column, value string) {
	i := t.Index(column)
	if i < 0 {
		t.Header = append(t.Header, column)
		i = len(t.Header) - 1
	}
	for len(t.Rows[row]) <= i {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][i] = value
}

// WriteCSV writes the table as CSV with every row padded to the header.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range t.Rows {
		padded := make([]string, len(t.Header))
		copy(padded, row)
		if err := writer.Write(padded); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the table to path.
func (t *Table) SaveCSV(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := t.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
