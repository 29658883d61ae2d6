package report

import (
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// PrintSummary renders the counters, notes and failed rows as tables.
func PrintSummary(w io.Writer, r Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("FXPREP RUN SUMMARY")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Rows", r.Summary.Total},
		{"Succeeded", r.Summary.Succeeded},
		{"Failed", r.Summary.Failed},
		{"Scraped", r.Summary.Scraped},
		{"Scrape skipped", r.Summary.ScrapeSkipped},
		{"Scrape failed", r.Summary.ScrapeFailed},
		{"Titles optimized", r.Summary.TitlesOptimized},
		{"Descriptions optimized", r.Summary.DescriptionsOptimized},
		{"Titles truncated", r.Summary.TitlesTruncated},
		{"Duration", r.Summary.Duration},
	})
	// paths go in the body; footers are upper-cased by the style
	if r.Config.FinalPath != "" || r.Config.PreviewPath != "" {
		t.AppendSeparator()
	}
	if r.Config.FinalPath != "" {
		t.AppendRow(table.Row{"Final", r.Config.FinalPath})
	}
	if r.Config.PreviewPath != "" {
		t.AppendRow(table.Row{"Preview", r.Config.PreviewPath})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(r.Notes) > 0 {
		n := table.NewWriter()
		n.SetOutputMirror(w)
		n.AppendHeader(table.Row{"Notes"})
		for _, note := range r.Notes {
			n.AppendRow(table.Row{note})
		}
		n.SetStyle(table.StyleRounded)
		n.Render()
	}

	var failed []RowReport
	for _, row := range r.Rows {
		if row.Status == StatusFailed {
			failed = append(failed, row)
		}
	}
	if len(failed) == 0 {
		return
	}

	f := table.NewWriter()
	f.SetOutputMirror(w)
	f.AppendHeader(table.Row{"Line", "URL", "Reasons"})
	for _, row := range failed {
		f.AppendRow(table.Row{row.Line, row.URL, strings.Join(row.Reasons, "\n")})
	}
	f.SetStyle(table.StyleRounded)
	f.Render()
}
