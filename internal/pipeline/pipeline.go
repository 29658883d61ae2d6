// Package pipeline drives a build run: scrape, optimize, normalize and bind
// every seed row, then route the results to the preview and final outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/lehigh-university-libraries/fxprep/internal/normalize"
	"github.com/lehigh-university-libraries/fxprep/internal/optimizer"
	"github.com/lehigh-university-libraries/fxprep/internal/scraper"
	"github.com/lehigh-university-libraries/fxprep/internal/storage"
	"github.com/lehigh-university-libraries/fxprep/internal/template"
	"golang.org/x/sync/errgroup"
)

// TextOptimizer is the rewrite collaborator. Implementations return
// optimizer.ErrOptimizationUnavailable when they cannot be called.
type TextOptimizer interface {
	Available() bool
	OptimizeTitle(ctx context.Context, text, listingContext string) (string, error)
	OptimizeDescription(ctx context.Context, text, listingContext string) (string, error)
}

// FinalSink receives final upload rows in seed order.
type FinalSink interface {
	WriteTemplateRow(row models.TemplateRow) error
}

// PreviewSink receives preview rows in seed order.
type PreviewSink interface {
	WritePreviewRow(row models.PreviewRow) error
}

// Options are the run toggles.
type Options struct {
	DryRun     bool
	WriteFinal bool
	Optimize   bool
	// Concurrency is the number of rows processed at once; < 1 means 1.
	Concurrency int
}

// WritesFinal reports whether the run produces the final upload file.
func (o Options) WritesFinal() bool {
	return !o.DryRun || o.WriteFinal
}

// WritesPreview reports whether the run produces the preview file.
func (o Options) WritesPreview() bool {
	return o.DryRun
}

// Config wires a Pipeline. Scraper and Optimizer may be nil.
type Config struct {
	Normalizer *normalize.Normalizer
	Binder     *template.Binder
	Columns    []string
	Scraper    scraper.Scraper
	Optimizer  TextOptimizer
	Options    Options
}

type Pipeline struct {
	normalizer *normalize.Normalizer
	binder     *template.Binder
	columns    []string
	scraper    scraper.Scraper
	optimizer  TextOptimizer
	cache      *storage.ScrapeStore
	opts       Options
}

func New(cfg Config) *Pipeline {
	if cfg.Options.Concurrency < 1 {
		cfg.Options.Concurrency = 1
	}
	return &Pipeline{
		normalizer: cfg.Normalizer,
		binder:     cfg.Binder,
		columns:    cfg.Columns,
		scraper:    cfg.Scraper,
		optimizer:  cfg.Optimizer,
		cache:      storage.New(),
		opts:       cfg.Options,
	}
}

// Run processes seeds and writes each successful row to the sinks the run
// mode selects, in seed order. Row failures are recorded in the result and
// never stop the run; the returned error is reserved for sink failures and
// cancellation.
func (p *Pipeline) Run(ctx context.Context, seeds []models.SeedRow, final FinalSink, preview PreviewSink) (*Result, error) {
	if !p.opts.WritesFinal() {
		final = nil
	}
	if !p.opts.WritesPreview() {
		preview = nil
	}

	result := &Result{
		StartedAt: time.Now(),
		Rows:      make([]RowResult, len(seeds)),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	done := make([]chan struct{}, len(seeds))
	for i := range done {
		done[i] = make(chan struct{})
	}
	launched := make(chan struct{})
	go func() {
		defer close(launched)
		for i := range seeds {
			g.Go(func() error {
				defer close(done[i])
				result.Rows[i] = p.processRow(gctx, i, len(seeds), seeds[i])
				return nil
			})
		}
	}()

	var emitErr error
	for i := range seeds {
		<-done[i]
		if emitErr = p.emit(result.Rows[i], final, preview); emitErr != nil {
			cancel()
			break
		}
	}
	<-launched
	_ = g.Wait()

	result.Duration = time.Since(result.StartedAt)
	result.tally()

	if emitErr != nil {
		return result, emitErr
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (p *Pipeline) emit(row RowResult, final FinalSink, preview PreviewSink) error {
	if row.Err != nil {
		slog.Warn("Row failed", "line", row.Line, "url", row.URL, "error", row.Err)
		return nil
	}
	if preview != nil && row.Preview != nil {
		if err := preview.WritePreviewRow(*row.Preview); err != nil {
			return fmt.Errorf("failed to write preview row: %w", err)
		}
	}
	if final != nil && row.Row != nil {
		if err := final.WriteTemplateRow(*row.Row); err != nil {
			return fmt.Errorf("failed to write final row: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) processRow(ctx context.Context, index, total int, seed models.SeedRow) RowResult {
	url := strings.TrimSpace(seed.URL)
	res := RowResult{
		Index: index,
		Line:  seed.Line,
		URL:   url,
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	slog.Info("Processing row", "index", index+1, "total", total, "url", url)

	scraped, scrapeErr := p.scrape(ctx, seed, &res)

	optimized := p.optimize(ctx, seed, scraped, &res)

	canonical, err := p.normalizer.Normalize(seed, scraped, optimized)
	if err != nil {
		if scrapeErr != nil {
			err = errors.Join(err, scrapeErr)
		}
		res.Err = err
		return res
	}
	res.Warnings = append(res.Warnings, canonical.Warnings...)
	res.TitleTruncated = canonical.TitleTruncated

	row := p.binder.Bind(canonical, p.columns)
	res.Row = &row
	res.Preview = &models.PreviewRow{
		URL:                  canonical.URL,
		TitleScraped:         firstNonEmpty(scrapedTitle(scraped), seed.Title),
		TitleOptimized:       canonical.Title,
		DescScrapedSnippet:   firstNonEmpty(scrapedDescription(scraped), seed.Description),
		DescOptimizedSnippet: canonical.Description,
		PhotoURL:             canonical.PhotoURL,
		PostagePaidBy:        canonical.Shipping.CostPaidBy,
	}
	return res
}

// scrape returns nil data when scraping is off, unnecessary, or failed.
// A failure is recorded as a warning and returned for later reporting.
func (p *Pipeline) scrape(ctx context.Context, seed models.SeedRow, res *RowResult) (*models.ScrapeResult, error) {
	switch {
	case p.scraper == nil:
		res.ScrapeSkipped = true
		return nil, nil
	case res.URL == "":
		return nil, nil
	case seedComplete(seed):
		slog.Debug("Seed carries title, description and price, skipping scrape", "url", res.URL)
		res.ScrapeSkipped = true
		return nil, nil
	}

	scraped, err := p.cache.Fetch(ctx, res.URL, p.scraper.Scrape)
	if err != nil {
		if !errors.Is(err, scraper.ErrScrape) {
			err = &scraper.ScrapeError{URL: res.URL, Err: err}
		}
		slog.Warn("Scrape failed, continuing with seed data", "url", res.URL, "error", err)
		res.ScrapeFailed = true
		res.Warnings = append(res.Warnings, err.Error())
		return nil, err
	}
	res.Scraped = true
	return scraped, nil
}

func (p *Pipeline) optimize(ctx context.Context, seed models.SeedRow, scraped *models.ScrapeResult, res *RowResult) *models.OptimizedText {
	if !p.opts.Optimize || (!seed.OptimizeTitle && !seed.OptimizeDescription) {
		return nil
	}
	if p.optimizer == nil || !p.optimizer.Available() {
		res.OptimizationUnavailable = true
		return nil
	}

	listingContext := describe(seed, scraped)
	optimized := &models.OptimizedText{}

	if title := firstNonEmpty(seed.Title, scrapedTitle(scraped)); seed.OptimizeTitle && title != "" {
		out, err := p.optimizer.OptimizeTitle(ctx, title, listingContext)
		if p.recordOptimization(res, "title", err) {
			optimized.Title = out
			res.TitleOptimized = true
		}
	}
	if desc := firstNonEmpty(seed.Description, scrapedDescription(scraped)); seed.OptimizeDescription && desc != "" {
		out, err := p.optimizer.OptimizeDescription(ctx, desc, listingContext)
		if p.recordOptimization(res, "description", err) {
			optimized.Description = out
			res.DescriptionOptimized = true
		}
	}
	return optimized
}

// recordOptimization reports whether the rewrite can be used.
func (p *Pipeline) recordOptimization(res *RowResult, field string, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, optimizer.ErrOptimizationUnavailable):
		res.OptimizationUnavailable = true
	default:
		slog.Warn("Optimization failed, keeping original text", "url", res.URL, "field", field, "error", err)
		res.OptimizationErrors++
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s optimization failed: %v", field, err))
	}
	return false
}

func seedComplete(seed models.SeedRow) bool {
	return strings.TrimSpace(seed.Title) != "" &&
		strings.TrimSpace(seed.Description) != "" &&
		strings.TrimSpace(seed.Price) != ""
}

// describe summarizes the item details a rewrite may mention.
func describe(seed models.SeedRow, scraped *models.ScrapeResult) string {
	var parts []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	condition := seed.Condition
	if condition == "" && scraped != nil {
		condition = scraped.ConditionText
	}
	add("Condition", condition)
	add("Card condition", seed.CardCondition)
	add("Grader", seed.ProfessionalGrader)
	add("Grade", seed.Grade)
	add("Notes", seed.Notes)
	return strings.Join(parts, "; ")
}

func scrapedTitle(s *models.ScrapeResult) string {
	if s == nil {
		return ""
	}
	return s.Title
}

func scrapedDescription(s *models.ScrapeResult) string {
	if s == nil {
		return ""
	}
	return s.Description
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
