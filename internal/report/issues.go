package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/lehigh-university-libraries/fxprep/internal/pipeline"
)

// IssueColumns is the issues CSV header.
var IssueColumns = []string{"row", "field", "issue"}

// Issue is one line of the issues CSV. Row is the spreadsheet line of the
// seed row, with the header on line 1.
type Issue struct {
	Row   int
	Field string
	Issue string
}

// FromViolations lists seed pre-flight violations for the row on line.
func FromViolations(line int, violations []models.Violation) []Issue {
	issues := make([]Issue, 0, len(violations))
	for _, v := range violations {
		issues = append(issues, Issue{Row: line, Field: v.Field, Issue: v.Reason})
	}
	return issues
}

// FromResult lists the failure reasons of every failed row.
func FromResult(result *pipeline.Result) []Issue {
	var issues []Issue
	for _, row := range result.Failures() {
		for _, is := range row.Issues() {
			issues = append(issues, Issue{Row: row.Line, Field: is.Field, Issue: is.Message})
		}
	}
	return issues
}

// WriteIssues writes the header and issues to w.
func WriteIssues(w io.Writer, issues []Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(IssueColumns); err != nil {
		return fmt.Errorf("failed to write issues header: %w", err)
	}
	for _, is := range issues {
		if err := cw.Write([]string{strconv.Itoa(is.Row), is.Field, is.Issue}); err != nil {
			return fmt.Errorf("failed to write issue: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush issues: %w", err)
	}
	return nil
}

// SaveIssues writes the issues CSV to path.
func SaveIssues(path string, issues []Issue) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create issues file: %w", err)
	}
	if err := WriteIssues(file, issues); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
