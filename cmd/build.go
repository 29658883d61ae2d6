package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/catalog"
	"github.com/lehigh-university-libraries/fxprep/internal/config"
	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/optimizer"
	"github.com/lehigh-university-libraries/fxprep/internal/output"
	"github.com/lehigh-university-libraries/fxprep/internal/pipeline"
	"github.com/lehigh-university-libraries/fxprep/internal/report"
	"github.com/lehigh-university-libraries/fxprep/internal/scraper"
	"github.com/lehigh-university-libraries/fxprep/internal/seed"
	"github.com/lehigh-university-libraries/fxprep/internal/template"
	"github.com/spf13/cobra"
)

type buildOptions struct {
	seedPath     string
	templatePath string
	outPath      string
	previewPath  string
	reportPath   string
	issuesPath   string
	optimize     bool
	dryRun       bool
	writeFinal   bool
}

var buildSettingFlags = map[string]string{
	config.KeyProvider:      "provider",
	config.KeyModel:         "model",
	config.KeyTemperature:   "temperature",
	config.KeyCatalog:       "catalog",
	config.KeyTitlePolicy:   "title-policy",
	config.KeyScrapeMode:    "scrape-mode",
	config.KeyScrapeTimeout: "scrape-timeout",
	config.KeyUserAgent:     "user-agent",
	config.KeyConcurrency:   "concurrency",
}

func newBuildCmd(root *rootOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the upload CSV from a seed file and a template",
		Long: `Build reads every seed row, fills gaps by scraping the row's listing page,
optionally rewrites titles and descriptions, validates the result and writes
one upload row per valid seed row with exactly the template's columns.

Rows that fail are reported and left out; the command exits non-zero when
any row failed.`,
		Example: `  # Build the final upload file beside the seed
  fxprep build --seed seed.csv --template template.csv

  # Preview optimized titles without writing the final file
  fxprep build --seed seed.csv --template template.csv --optimize --dry-run

  # Build from seed data only, four rows at a time
  fxprep build --seed seed.parquet --template template.csv --scrape-mode off --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd, root, buildSettingFlags)
			if err != nil {
				return err
			}
			return runBuild(cmd, opts, settings)
		},
	}

	cmd.Flags().StringVar(&opts.seedPath, "seed", "", "Seed file (.csv, .jsonl or .parquet)")
	cmd.Flags().StringVar(&opts.templatePath, "template", "", "Template CSV whose header defines the output columns")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "Final upload CSV (default FINAL_EBAY_UPLOAD_<timestamp>.csv beside the seed)")
	cmd.Flags().StringVar(&opts.previewPath, "preview", "", "Preview CSV for dry runs (default EBAY_PREVIEW_<timestamp>.csv beside the seed)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "Write a YAML run report to this path")
	cmd.Flags().StringVar(&opts.issuesPath, "issues", "", "Write failed-row issues as CSV to this path")
	cmd.Flags().BoolVar(&opts.optimize, "optimize", false, "Rewrite titles and descriptions flagged in the seed")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Write the preview CSV instead of the final file")
	cmd.Flags().BoolVar(&opts.writeFinal, "write-final", false, "With --dry-run, also write the final file")
	cmd.Flags().String("scrape-mode", string(scraper.ModeHTTP), "Scrape mode (off, http or bypass)")
	cmd.Flags().Duration("scrape-timeout", scraper.DefaultTimeout, "Per-page scrape timeout")
	cmd.Flags().String("user-agent", scraper.DefaultUserAgent, "User agent for scrape requests")
	cmd.Flags().String("catalog", "", "Allowed-values catalog (.json5, .json or .yaml; default built in)")
	cmd.Flags().String("title-policy", string(normalize.TitleTruncate), "Over-long titles: truncate or reject")
	cmd.Flags().String("provider", "", "LLM provider (openai, gemini or ollama; default first configured)")
	cmd.Flags().String("model", "", "Model name (defaults to provider's default)")
	cmd.Flags().Float64("temperature", optimizer.DefaultTemperature, "Sampling temperature for rewrites")
	cmd.Flags().Int("concurrency", 1, "Rows processed at once")

	_ = cmd.MarkFlagRequired("seed")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *buildOptions, settings config.Settings) error {
	for _, path := range []string{opts.seedPath, opts.templatePath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
	}

	policy, err := normalize.ParseTitlePolicy(settings.TitlePolicy)
	if err != nil {
		return err
	}
	mode, err := scraper.ParseMode(settings.ScrapeMode)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(settings.Catalog)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	seeds, err := seed.NewLoader(opts.seedPath).Load()
	if err != nil {
		return fmt.Errorf("failed to load seed: %w", err)
	}
	columns, err := template.LoadColumns(opts.templatePath)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	slog.Info("Loaded inputs", "seed", opts.seedPath, "rows", len(seeds), "columns", len(columns), "catalog", cat.Version())

	runOpts := pipeline.Options{
		DryRun:      opts.dryRun,
		WriteFinal:  opts.writeFinal,
		Optimize:    opts.optimize,
		Concurrency: settings.Concurrency,
	}
	pcfg := pipeline.Config{
		Normalizer: normalize.New(cat, policy),
		Binder:     template.NewBinder(settings.TemplateDefaults),
		Columns:    columns,
		Options:    runOpts,
	}
	if mode != scraper.ModeOff {
		pcfg.Scraper = scraper.New(scraper.Options{
			Mode:      mode,
			Timeout:   settings.ScrapeTimeout,
			UserAgent: settings.UserAgent,
		})
	}

	providerName := ""
	if opts.optimize {
		opt, err := newOptimizer(settings)
		if err != nil {
			return err
		}
		providerName = opt.Name()
		pcfg.Optimizer = opt
		if !opt.Available() {
			slog.Warn("Optimization requested but no provider is configured; original text will be kept", "provider", providerName)
		}
	}

	now := time.Now()
	var final pipeline.FinalSink
	var preview pipeline.PreviewSink
	var finalPath, previewPath string
	var writers []*output.CSVWriter
	defer func() {
		for _, w := range writers {
			_ = w.Close()
		}
	}()

	if runOpts.WritesFinal() {
		finalPath = opts.outPath
		if finalPath == "" {
			finalPath = output.DefaultPath(opts.seedPath, output.FinalBase, now)
		}
		w, err := output.Create(finalPath, columns)
		if err != nil {
			return err
		}
		writers = append(writers, w)
		final = w
	}
	if runOpts.WritesPreview() {
		previewPath = opts.previewPath
		if previewPath == "" {
			previewPath = output.DefaultPath(opts.seedPath, output.PreviewBase, now)
		}
		w, err := output.Create(previewPath, output.PreviewColumns)
		if err != nil {
			return err
		}
		writers = append(writers, w)
		preview = w
	}

	result, runErr := pipeline.New(pcfg).Run(cmd.Context(), seeds, final, preview)

	for _, w := range writers {
		if err := w.Close(); err != nil && runErr == nil {
			runErr = err
		}
	}
	writers = nil
	if runErr != nil {
		return runErr
	}

	rep := report.New(report.RunConfig{
		Seed:        opts.seedPath,
		Template:    opts.templatePath,
		Catalog:     settings.Catalog,
		FinalPath:   finalPath,
		PreviewPath: previewPath,
		ScrapeMode:  string(mode),
		Optimize:    opts.optimize,
		Provider:    providerName,
		Model:       settings.Model,
		Temperature: settings.Temperature,
		TitlePolicy: string(policy),
		DryRun:      opts.dryRun,
		WriteFinal:  opts.writeFinal,
		Concurrency: settings.Concurrency,
	}, result)
	report.PrintSummary(cmd.OutOrStdout(), rep)

	if opts.reportPath != "" {
		saved, err := report.SaveYAML(opts.reportPath, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report saved to: %s\n", saved)
	}
	if opts.issuesPath != "" {
		if err := report.SaveIssues(opts.issuesPath, report.FromResult(result)); err != nil {
			return err
		}
	}

	if result.AnyFailed() {
		return fmt.Errorf("%d of %d row(s) failed", result.Failed, result.Total)
	}
	return nil
}

func newOptimizer(settings config.Settings) (*optimizer.Optimizer, error) {
	p, err := optimizer.NewProvider(settings.Provider)
	if err != nil {
		return nil, err
	}
	return optimizer.New(p, settings.Model, settings.Temperature), nil
}
