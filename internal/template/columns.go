package template

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\ufeff"

// LoadColumns reads the template header from the first row of a CSV file.
// Trailing empty cells are dropped.
func LoadColumns(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	return ReadColumns(file)
}

// ReadColumns reads the header row of a template from r.
func ReadColumns(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("template has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read template header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	end := len(header)
	for end > 0 && header[end-1] == "" {
		end--
	}
	if end == 0 {
		return nil, fmt.Errorf("template header is empty")
	}

	return header[:end], nil
}
