package pipeline

import (
	"errors"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/scraper"
)

// RowResult is the outcome of one seed row.
type RowResult struct {
	Index int
	Line  int
	URL   string

	// Row and Preview are set when the row succeeded.
	Row     *models.TemplateRow
	Preview *models.PreviewRow

	Scraped       bool
	ScrapeSkipped bool
	ScrapeFailed  bool

	TitleOptimized          bool
	DescriptionOptimized    bool
	TitleTruncated          bool
	OptimizationUnavailable bool
	OptimizationErrors      int

	Warnings []string
	Err      error
}

func (r RowResult) Failed() bool {
	return r.Err != nil
}

// Issue is one reportable problem with a row.
type Issue struct {
	Field   string
	Message string
}

// Issues flattens the row error into field-level problems.
func (r RowResult) Issues() []Issue {
	if r.Err == nil {
		return nil
	}
	var issues []Issue
	for _, err := range unjoin(r.Err) {
		var missing *models.MissingFieldError
		var invalid *models.ValidationError
		switch {
		case errors.As(err, &missing):
			for _, f := range missing.Fields {
				issues = append(issues, Issue{Field: f, Message: "required value is missing"})
			}
		case errors.As(err, &invalid):
			for _, v := range invalid.Violations {
				issues = append(issues, Issue{Field: v.Field, Message: v.Reason})
			}
		case errors.Is(err, scraper.ErrScrape):
			issues = append(issues, Issue{Field: normalize.FieldURL, Message: err.Error()})
		default:
			issues = append(issues, Issue{Message: err.Error()})
		}
	}
	return issues
}

// Reasons renders Issues as "field: message" strings.
func (r RowResult) Reasons() []string {
	issues := r.Issues()
	reasons := make([]string, 0, len(issues))
	for _, is := range issues {
		if is.Field == "" {
			reasons = append(reasons, is.Message)
			continue
		}
		reasons = append(reasons, is.Field+": "+is.Message)
	}
	return reasons
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range j.Unwrap() {
			out = append(out, unjoin(e)...)
		}
		return out
	}
	return []error{err}
}

// Result summarizes a run.
type Result struct {
	StartedAt time.Time
	Duration  time.Duration
	Rows      []RowResult

	Total                   int
	Succeeded               int
	Failed                  int
	Scraped                 int
	ScrapeSkipped           int
	ScrapeFailed            int
	TitlesOptimized         int
	DescriptionsOptimized   int
	TitlesTruncated         int
	OptimizationUnavailable int
	OptimizationErrors      int
}

func (r *Result) tally() {
	r.Total = len(r.Rows)
	for _, row := range r.Rows {
		if row.Failed() {
			r.Failed++
		} else {
			r.Succeeded++
		}
		if row.Scraped {
			r.Scraped++
		}
		if row.ScrapeSkipped {
			r.ScrapeSkipped++
		}
		if row.ScrapeFailed {
			r.ScrapeFailed++
		}
		if row.TitleOptimized {
			r.TitlesOptimized++
		}
		if row.DescriptionOptimized {
			r.DescriptionsOptimized++
		}
		if row.TitleTruncated {
			r.TitlesTruncated++
		}
		if row.OptimizationUnavailable {
			r.OptimizationUnavailable++
		}
		r.OptimizationErrors += row.OptimizationErrors
	}
}

// AnyFailed reports whether at least one row failed.
func (r *Result) AnyFailed() bool {
	return r.Failed > 0
}

// Failures returns the failed rows in seed order.
func (r *Result) Failures() []RowResult {
	var out []RowResult
	for _, row := range r.Rows {
		if row.Failed() {
			out = append(out, row)
		}
	}
	return out
}
