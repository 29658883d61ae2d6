// Package report renders run results: a YAML report file, a summary table on
// the terminal, and an issues CSV.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// TimestampLayout formats the report timestamp.
const TimestampLayout = "2006-01-02_15-04-05"

// RunConfig is the configuration section of the report.
type RunConfig struct {
	Seed        string  `yaml:"seed"`
	Template    string  `yaml:"template,omitempty"`
	Catalog     string  `yaml:"catalog,omitempty"`
	FinalPath   string  `yaml:"finalpath,omitempty"`
	PreviewPath string  `yaml:"previewpath,omitempty"`
	ScrapeMode  string  `yaml:"scrapemode,omitempty"`
	Optimize    bool    `yaml:"optimize"`
	Provider    string  `yaml:"provider,omitempty"`
	Model       string  `yaml:"model,omitempty"`
	Temperature float64 `yaml:"temperature,omitempty"`
	TitlePolicy string  `yaml:"titlepolicy,omitempty"`
	DryRun      bool    `yaml:"dryrun"`
	WriteFinal  bool    `yaml:"writefinal"`
	Concurrency int     `yaml:"concurrency"`
	Timestamp   string  `yaml:"timestamp"`
}

// Summary holds the run counters.
type Summary struct {
	Total                   int    `yaml:"total"`
	Succeeded               int    `yaml:"succeeded"`
	Failed                  int    `yaml:"failed"`
	Scraped                 int    `yaml:"scraped"`
	ScrapeSkipped           int    `yaml:"scrapeskipped"`
	ScrapeFailed            int    `yaml:"scrapefailed"`
	TitlesOptimized         int    `yaml:"titlesoptimized"`
	DescriptionsOptimized   int    `yaml:"descriptionsoptimized"`
	TitlesTruncated         int    `yaml:"titlestruncated"`
	OptimizationUnavailable int    `yaml:"optimizationunavailable"`
	OptimizationErrors      int    `yaml:"optimizationerrors"`
	Duration                string `yaml:"duration"`
}

// RowReport describes one row that failed or carried warnings.
type RowReport struct {
	Line     int      `yaml:"line"`
	URL      string   `yaml:"url"`
	Status   string   `yaml:"status"`
	Reasons  []string `yaml:"reasons,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
}

// Report is the complete YAML document.
type Report struct {
	Config  RunConfig   `yaml:"config"`
	Summary Summary     `yaml:"summary"`
	Notes   []string    `yaml:"notes,omitempty"`
	Rows    []RowReport `yaml:"rows,omitempty"`
}

// Row statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// New builds a report from a run result. Rows that succeeded without
// warnings are left out.
func New(cfg RunConfig, result *pipeline.Result) Report {
	if cfg.Timestamp == "" {
		cfg.Timestamp = result.StartedAt.Format(TimestampLayout)
	}

	r := Report{
		Config: cfg,
		Summary: Summary{
			Total:                   result.Total,
			Succeeded:               result.Succeeded,
			Failed:                  result.Failed,
			Scraped:                 result.Scraped,
			ScrapeSkipped:           result.ScrapeSkipped,
			ScrapeFailed:            result.ScrapeFailed,
			TitlesOptimized:         result.TitlesOptimized,
			DescriptionsOptimized:   result.DescriptionsOptimized,
			TitlesTruncated:         result.TitlesTruncated,
			OptimizationUnavailable: result.OptimizationUnavailable,
			OptimizationErrors:      result.OptimizationErrors,
			Duration:                result.Duration.Round(time.Millisecond).String(),
		},
		Notes: Notes(result),
	}

	for _, row := range result.Rows {
		if !row.Failed() && len(row.Warnings) == 0 {
			continue
		}
		rr := RowReport{
			Line:     row.Line,
			URL:      row.URL,
			Status:   StatusOK,
			Warnings: row.Warnings,
		}
		if row.Failed() {
			rr.Status = StatusFailed
			rr.Reasons = row.Reasons()
		}
		r.Rows = append(r.Rows, rr)
	}
	return r
}

// Notes are the summary lines for fallbacks that did not fail any row.
func Notes(result *pipeline.Result) []string {
	var notes []string
	if result.OptimizationUnavailable > 0 {
		notes = append(notes, fmt.Sprintf("optimization unavailable for %d row(s); original text kept", result.OptimizationUnavailable))
	}
	if result.OptimizationErrors > 0 {
		notes = append(notes, fmt.Sprintf("%d optimization call(s) failed; original text kept", result.OptimizationErrors))
	}
	if result.ScrapeFailed > 0 {
		notes = append(notes, fmt.Sprintf("scraping failed for %d row(s)", result.ScrapeFailed))
	}
	if result.TitlesTruncated > 0 {
		notes = append(notes, fmt.Sprintf("%d title(s) truncated", result.TitlesTruncated))
	}
	return notes
}

// SaveYAML writes the report to path and returns its absolute path.
func SaveYAML(path string, r Report) (string, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return absPath, nil
}
