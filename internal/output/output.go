// Package output writes the final upload CSV and the side-by-side preview
// CSV.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

// Default output basenames, written beside the seed file.
const (
	FinalBase   = "FINAL_EBAY_UPLOAD"
	PreviewBase = "EBAY_PREVIEW"
)

// TimestampLayout formats the suffix of default output paths.
const TimestampLayout = "2006-01-02_15-04"

// SnippetLength caps preview description snippets, in characters.
const SnippetLength = 400

// PreviewColumns is the preview CSV header.
var PreviewColumns = []string{
	"URL",
	"Title_Scraped",
	"Title_Optimized",
	"TitleLen_Scraped",
	"TitleLen_Optimized",
	"Desc_Scraped_Snippet",
	"Desc_Optimized_Snippet",
	"PhotoURL",
	"PostagePaidBy",
}

// DefaultPath returns <dir of seed>/<base>_<timestamp>.csv.
func DefaultPath(seedPath, base string, now time.Time) string {
	dir := filepath.Dir(seedPath)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", base, now.Format(TimestampLayout)))
}

// CSVWriter writes rows under a fixed header.
type CSVWriter struct {
	closer io.Closer
	writer *csv.Writer
	rows   int
}

// NewCSVWriter writes header to w. When w is an io.Closer, Close closes it.
func NewCSVWriter(w io.Writer, header []string) (*CSVWriter, error) {
	cw := &CSVWriter{writer: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	if err := cw.writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	return cw, nil
}

// Create opens path for writing and writes header.
func Create(path string, header []string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	w, err := NewCSVWriter(file, header)
	if err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// WriteTemplateRow appends one final output row.
func (w *CSVWriter) WriteTemplateRow(row models.TemplateRow) error {
	return w.write(row.Values)
}

// WritePreviewRow appends one preview row.
func (w *CSVWriter) WritePreviewRow(row models.PreviewRow) error {
	return w.write([]string{
		row.URL,
		row.TitleScraped,
		row.TitleOptimized,
		strconv.Itoa(utf8.RuneCountInString(row.TitleScraped)),
		strconv.Itoa(utf8.RuneCountInString(row.TitleOptimized)),
		Snippet(row.DescScrapedSnippet),
		Snippet(row.DescOptimizedSnippet),
		row.PhotoURL,
		row.PostagePaidBy,
	})
}

func (w *CSVWriter) write(values []string) error {
	if err := w.writer.Write(values); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	w.rows++
	return nil
}

// Rows is the number of data rows written.
func (w *CSVWriter) Rows() int {
	return w.rows
}

// Close flushes buffered rows and closes the underlying file.
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	err := w.writer.Error()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// Snippet cuts s to SnippetLength characters.
func Snippet(s string) string {
	if utf8.RuneCountInString(s) <= SnippetLength {
		return s
	}
	return string([]rune(s)[:SnippetLength])
}
