package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/lehigh-university-libraries/fxprep/internal/pipeline"
	"gopkg.in/yaml.v3"
)

func testResult() *pipeline.Result {
	return &pipeline.Result{
		StartedAt: time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Rows: []pipeline.RowResult{
			{
				Line: 2,
				URL:  "http://x/gone",
				Err: errors.Join(
					&models.MissingFieldError{Fields: []string{"Title"}},
					&models.ValidationError{Violations: []models.Violation{{Field: "Width_in", Reason: "required for Calculated shipping"}}},
				),
				Warnings: []string{"failed to scrape http://x/gone: status 404"},
			},
			{Line: 3, URL: "http://x/ok"},
			{Line: 4, URL: "http://x/warn", Warnings: []string{"no image found"}},
		},
		Total:                   3,
		Succeeded:               2,
		Failed:                  1,
		ScrapeFailed:            1,
		OptimizationUnavailable: 2,
	}
}

func TestNew(t *testing.T) {
	r := New(RunConfig{Seed: "seed.csv"}, testResult())

	if r.Config.Timestamp != "2024-03-09_14-05-00" {
		t.Errorf("Expected timestamp from start time, got %s", r.Config.Timestamp)
	}
	if r.Summary.Duration != "1.5s" {
		t.Errorf("Expected duration 1.5s, got %s", r.Summary.Duration)
	}

	expected := []RowReport{
		{
			Line:     2,
			URL:      "http://x/gone",
			Status:   StatusFailed,
			Reasons:  []string{"Title: required value is missing", "Width_in: required for Calculated shipping"},
			Warnings: []string{"failed to scrape http://x/gone: status 404"},
		},
		{Line: 4, URL: "http://x/warn", Status: StatusOK, Warnings: []string{"no image found"}},
	}
	if diff := cmp.Diff(expected, r.Rows); diff != "" {
		t.Error(diff)
	}

	expectedNotes := []string{
		"optimization unavailable for 2 row(s); original text kept",
		"scraping failed for 1 row(s)",
	}
	if diff := cmp.Diff(expectedNotes, r.Notes); diff != "" {
		t.Error(diff)
	}
}

func TestSaveYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "reports", "run.yaml")

	saved, err := SaveYAML(path, New(RunConfig{Seed: "seed.csv", Provider: "openai"}, testResult()))
	if err != nil {
		t.Fatalf("SaveYAML failed: %v", err)
	}
	if !filepath.IsAbs(saved) {
		t.Errorf("Expected absolute path, got %s", saved)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var loaded Report
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	if loaded.Config.Provider != "openai" || loaded.Summary.Failed != 1 || len(loaded.Rows) != 2 {
		t.Errorf("Unexpected report: %+v", loaded)
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, New(RunConfig{FinalPath: "/tmp/final.csv", PreviewPath: "/tmp/Preview_Run.csv"}, testResult()))

	out := buf.String()
	for _, want := range []string{"FXPREP RUN SUMMARY", "Succeeded", "/tmp/final.csv", "/tmp/Preview_Run.csv", "http://x/gone", "scraping failed for 1 row(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "http://x/warn") {
		t.Error("Expected rows with only warnings to stay out of the failure table")
	}
}

func TestWriteIssues(t *testing.T) {
	issues := FromResult(testResult())
	issues = append(issues, FromViolations(5, []models.Violation{{Field: "Price", Reason: `"abc" is not a number`}})...)

	var buf bytes.Buffer
	if err := WriteIssues(&buf, issues); err != nil {
		t.Fatalf("WriteIssues failed: %v", err)
	}

	expected := "row,field,issue\n" +
		"2,Title,required value is missing\n" +
		"2,Width_in,required for Calculated shipping\n" +
		"5,Price,\"\"\"abc\"\" is not a number\"\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\nGot:\n%s", expected, buf.String())
	}
}

func TestSaveIssuesUnwritable(t *testing.T) {
	if err := SaveIssues(filepath.Join(t.TempDir(), "missing", "issues.csv"), nil); err == nil {
		t.Error("Expected error for unwritable path, got nil")
	}
}
