// Package scraper fetches marketplace listing pages and extracts the fields
// the normalizer can use.
package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

// DefaultUserAgent is sent unless Options.UserAgent overrides it.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultTimeout bounds each page request.
const DefaultTimeout = 20 * time.Second

// ErrScrape is matched by every error returned from Scrape.
var ErrScrape = errors.New("scrape failed")

// ScrapeError records why one URL could not be scraped.
type ScrapeError struct {
	URL string
	Err error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("failed to scrape %s: %v", e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

func (e *ScrapeError) Is(target error) bool {
	return target == ErrScrape
}

// Scraper is the listing-page collaborator consumed by the pipeline.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*models.ScrapeResult, error)
}

// Mode selects how pages are fetched.
type Mode string

const (
	ModeOff    Mode = "off"
	ModeHTTP   Mode = "http"
	ModeBypass Mode = "bypass"
)

// ParseMode accepts off, http or bypass. An empty string is http.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeHTTP:
		return ModeHTTP, nil
	case ModeOff:
		return ModeOff, nil
	case ModeBypass:
		return ModeBypass, nil
	default:
		return "", fmt.Errorf("unknown scrape mode %q (use off, http or bypass)", s)
	}
}

type Options struct {
	Mode      Mode
	Timeout   time.Duration
	UserAgent string
}

// HTTPScraper fetches pages with a plain HTTP client.
type HTTPScraper struct {
	client *resty.Client
}

// New returns a scraper for opts. ModeOff is handled by the caller, which
// runs without a scraper.
func New(opts Options) *HTTPScraper {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	if opts.Mode == ModeBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(opts.Timeout)

	return &HTTPScraper{client: client}
}

// Scrape fetches url and extracts listing fields. Any failure is a
// *ScrapeError.
func (s *HTTPScraper) Scrape(ctx context.Context, pageURL string) (*models.ScrapeResult, error) {
	doc, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, &ScrapeError{URL: pageURL, Err: err}
	}

	result := parseListing(doc)

	if result.DescriptionHTML == "" {
		if src := descriptionFrameURL(doc, pageURL); src != "" {
			slog.Debug("Following description frame", "url", pageURL, "frame", src)
			frame, err := s.fetch(ctx, src)
			if err != nil {
				slog.Warn("Failed to fetch description frame", "url", pageURL, "frame", src, "error", err)
			} else {
				result.DescriptionHTML = frameDescription(frame)
			}
		}
	}
	result.Description = htmlToText(result.DescriptionHTML)

	if result.Title == "" && result.Description == "" && !result.HasPrice {
		return nil, &ScrapeError{URL: pageURL, Err: errors.New("no listing fields found on page")}
	}

	slog.Debug("Scraped listing",
		"url", pageURL,
		"title", result.Title,
		"price", result.Price,
		"images", len(result.Images),
		"specifics", len(result.ItemSpecifics))

	return result, nil
}

func (s *HTTPScraper) fetch(ctx context.Context, pageURL string) (*goquery.Document, error) {
	res, err := s.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	doc.Url, _ = url.Parse(pageURL)
	return doc, nil
}
