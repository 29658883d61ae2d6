package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lehigh-university-libraries/fxprep/internal/catalog"
	"github.com/lehigh-university-libraries/fxprep/internal/config"
	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/report"
	"github.com/lehigh-university-libraries/fxprep/internal/seed"
	"github.com/spf13/cobra"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var seedPath string
	var reportPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a seed file without scraping or writing uploads",
		Long: `Validate checks every seed row against the catalog of allowed values and
the shipping rules, without any network access.

Issues are listed by spreadsheet row (the header is row 1).`,
		Example: `  fxprep validate --seed seed.csv
  fxprep validate --seed seed.csv --report issues.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, root, map[string]string{config.KeyCatalog: "catalog"})
			if err != nil {
				return err
			}

			cat, err := catalog.Load(settings.Catalog)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			seeds, err := seed.NewLoader(seedPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load seed: %w", err)
			}

			n := normalize.New(cat, normalize.TitleTruncate)
			var issues []report.Issue
			for _, s := range seeds {
				issues = append(issues, report.FromViolations(s.Line, n.CheckSeed(s))...)
			}

			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "%d row(s) checked, no issues found\n", len(seeds))
			} else {
				t := table.NewWriter()
				t.SetOutputMirror(out)
				t.AppendHeader(table.Row{"Row", "Field", "Issue"})
				for _, is := range issues {
					t.AppendRow(table.Row{is.Row, is.Field, is.Issue})
				}
				t.SetStyle(table.StyleRounded)
				t.Render()
			}

			if reportPath != "" {
				if err := report.SaveIssues(reportPath, issues); err != nil {
					return err
				}
				fmt.Fprintf(out, "Issues saved to: %s\n", reportPath)
			}

			if len(issues) > 0 {
				return fmt.Errorf("%d issue(s) found in %d row(s)", len(issues), len(seeds))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seedPath, "seed", "", "Seed file (.csv, .jsonl or .parquet)")
	cmd.Flags().String("catalog", "", "Allowed-values catalog (default built in)")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write issues as CSV (row, field, issue) to this path")
	_ = cmd.MarkFlagRequired("seed")

	return cmd
}
