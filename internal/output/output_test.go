package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

func TestDefaultPath(t *testing.T) {
	tmpDir := t.TempDir()
	now := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	got := DefaultPath(filepath.Join(tmpDir, "seed.csv"), FinalBase, now)
	expected := filepath.Join(tmpDir, "FINAL_EBAY_UPLOAD_2024-03-09_14-05.csv")
	if got != expected {
		t.Errorf("Expected %s, got %s", expected, got)
	}

	if !filepath.IsAbs(DefaultPath("seed.csv", PreviewBase, now)) {
		t.Error("Expected an absolute path for a relative seed")
	}
}

func TestWriteTemplateRows(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewCSVWriter(&buf, []string{"*Title", "*StartPrice"})
	if err != nil {
		t.Fatalf("NewCSVWriter failed: %v", err)
	}

	rows := []models.TemplateRow{
		{Columns: []string{"*Title", "*StartPrice"}, Values: []string{"Card, vintage", "12.50"}},
		{Columns: []string{"*Title", "*StartPrice"}, Values: []string{"Other", "3.00"}},
	}
	for _, row := range rows {
		if err := w.WriteTemplateRow(row); err != nil {
			t.Fatalf("WriteTemplateRow failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	expected := "*Title,*StartPrice\n\"Card, vintage\",12.50\nOther,3.00\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, buf.String())
	}
	if w.Rows() != 2 {
		t.Errorf("Expected 2 rows, got %d", w.Rows())
	}
}

func TestWritePreviewRow(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "preview.csv")

	w, err := Create(path, PreviewColumns)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	err = w.WritePreviewRow(models.PreviewRow{
		URL:                  "http://x/1",
		TitleScraped:         "Old",
		TitleOptimized:       "Newer",
		DescScrapedSnippet:   strings.Repeat("d", 500),
		DescOptimizedSnippet: "short",
		PostagePaidBy:        "Buyer",
	})
	if err != nil {
		t.Fatalf("WritePreviewRow failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != strings.Join(PreviewColumns, ",") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	expected := "http://x/1,Old,Newer,3,5," + strings.Repeat("d", SnippetLength) + ",short,,Buyer"
	if lines[1] != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, lines[1])
	}
}

func TestCreateUnwritable(t *testing.T) {
	if _, err := Create(filepath.Join(t.TempDir(), "missing", "out.csv"), []string{"a"}); err == nil {
		t.Error("Expected error for unwritable path, got nil")
	}
}
