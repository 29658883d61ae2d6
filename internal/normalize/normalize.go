// Package normalize merges a seed row, scraped page data and provider
// rewrites into a single validated CanonicalRow.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/fxprep/internal/catalog"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
	"github.com/lehigh-university-libraries/fxprep/internal/shipping"
)

// MaxTitleLength is the upload format's title limit in characters.
const MaxTitleLength = 80

// Seed column names cited in errors.
const (
	FieldURL                = "URL"
	FieldTitle              = "Title"
	FieldDescription        = "Description"
	FieldPrice              = "Price"
	FieldQuantity           = "Quantity"
	FieldCondition          = "Condition"
	FieldProfessionalGrader = "ProfessionalGrader"
)

// TitlePolicy decides what happens to a merged title over MaxTitleLength.
type TitlePolicy string

const (
	TitleTruncate TitlePolicy = "truncate"
	TitleReject   TitlePolicy = "reject"
)

// ParseTitlePolicy accepts "truncate", "reject" or "" (truncate).
func ParseTitlePolicy(s string) (TitlePolicy, error) {
	switch TitlePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TitleTruncate:
		return TitleTruncate, nil
	case TitleReject:
		return TitleReject, nil
	default:
		return "", fmt.Errorf("unknown title policy %q (use truncate or reject)", s)
	}
}

// fuzzyConditionThreshold is the Jaro-Winkler score a scraped condition must
// reach to be accepted as a catalog condition.
const fuzzyConditionThreshold = 0.9

// conditionAliases maps marketplace condition wording onto catalog values.
var conditionAliases = map[string]string{
	"pre-owned":                "Used",
	"preowned":                 "Used",
	"used":                     "Used",
	"new other":                "New (Other)",
	"new other (see details)":  "New (Other)",
	"open box":                 "New (Other)",
	"new with tags":            "New",
	"brand new":                "New",
	"damaged":                  "For parts or not working",
	"for parts":                "For parts or not working",
	"for parts or not working": "For parts or not working",
}

// Normalizer is safe for concurrent use; it holds only immutable state.
type Normalizer struct {
	catalog     *catalog.Catalog
	shipping    *shipping.Resolver
	titlePolicy TitlePolicy
}

// New returns a Normalizer validating against cat.
func New(cat *catalog.Catalog, policy TitlePolicy) *Normalizer {
	if policy == "" {
		policy = TitleTruncate
	}
	return &Normalizer{
		catalog:     cat,
		shipping:    shipping.NewResolver(cat),
		titlePolicy: policy,
	}
}

// CheckSeed runs every check that needs only the seed row. Condition is
// checked for catalog membership when present; inference is left to
// Normalize.
func (n *Normalizer) CheckSeed(seed models.SeedRow) []models.Violation {
	var violations []models.Violation
	if strings.TrimSpace(seed.URL) == "" {
		violations = append(violations, models.Violation{Field: FieldURL, Reason: "required"})
	}
	var scratch models.CanonicalRow
	return append(violations, n.checkSeed(seed, &scratch)...)
}

// checkSeed validates the seed-local fields and fills row with what resolved.
func (n *Normalizer) checkSeed(seed models.SeedRow, row *models.CanonicalRow) []models.Violation {
	var violations []models.Violation

	if price := strings.TrimSpace(seed.Price); price != "" {
		f, ok := models.ParseNumber(price)
		switch {
		case !ok:
			violations = append(violations, models.Violation{Field: FieldPrice, Reason: fmt.Sprintf("%q must be numeric", price)})
		case f <= 0:
			violations = append(violations, models.Violation{Field: FieldPrice, Reason: "must be > 0"})
		default:
			row.Price = f
		}
	}

	row.Quantity = 1
	if qty := strings.TrimSpace(seed.Quantity); qty != "" {
		q, err := strconv.Atoi(qty)
		switch {
		case err != nil:
			violations = append(violations, models.Violation{Field: FieldQuantity, Reason: fmt.Sprintf("%q must be a whole number", qty)})
		case q < 1:
			violations = append(violations, models.Violation{Field: FieldQuantity, Reason: "must be >= 1"})
		default:
			row.Quantity = q
		}
	}

	if cond := strings.TrimSpace(seed.Condition); cond != "" {
		if canonical, ok := n.catalog.Lookup(catalog.FieldCondition, cond); ok {
			row.Condition = canonical
		} else {
			violations = append(violations, n.enumViolation(FieldCondition, catalog.FieldCondition, cond))
		}
	}

	if grader := strings.TrimSpace(seed.ProfessionalGrader); grader != "" {
		if canonical, ok := n.catalog.Lookup(catalog.FieldProfessionalGrader, grader); ok {
			row.ProfessionalGrader = canonical
		} else {
			violations = append(violations, n.enumViolation(FieldProfessionalGrader, catalog.FieldProfessionalGrader, grader))
		}
	}

	return append(violations, n.shipping.Check(seed, &row.Shipping)...)
}

// Normalize merges the three sources into a CanonicalRow. scrape and
// optimized may be nil. On failure the error wraps a *models.MissingFieldError,
// a *models.ValidationError, or both.
func (n *Normalizer) Normalize(seed models.SeedRow, scrape *models.ScrapeResult, optimized *models.OptimizedText) (models.CanonicalRow, error) {
	if scrape == nil {
		scrape = &models.ScrapeResult{}
	}
	if optimized == nil {
		optimized = &models.OptimizedText{}
	}

	row := models.CanonicalRow{
		URL:                strings.TrimSpace(seed.URL),
		CustomLabel:        strings.TrimSpace(seed.CustomLabel),
		CardCondition:      strings.TrimSpace(seed.CardCondition),
		ProfessionalGrader: strings.TrimSpace(seed.ProfessionalGrader),
		Grade:              strings.TrimSpace(seed.Grade),
		CertNumber:         strings.TrimSpace(seed.CertNumber),
		Format:             strings.TrimSpace(seed.Format),
		Duration:           strings.TrimSpace(seed.Duration),
		Location:           strings.TrimSpace(seed.Location),
	}

	var missing []string
	if row.URL == "" {
		missing = append(missing, FieldURL)
	}

	violations := n.checkSeed(seed, &row)

	row.Title = firstNonEmpty(optimizedValue(seed.OptimizeTitle, optimized.Title), seed.Title, scrape.Title)
	if row.Title == "" {
		missing = append(missing, FieldTitle)
	} else if utf8.RuneCountInString(row.Title) > MaxTitleLength {
		if n.titlePolicy == TitleReject {
			violations = append(violations, models.Violation{
				Field:  FieldTitle,
				Reason: fmt.Sprintf("%d characters exceeds the %d character limit", utf8.RuneCountInString(row.Title), MaxTitleLength),
			})
		} else {
			row.Title = TruncateTitle(row.Title)
			if row.Title == "" {
				missing = append(missing, FieldTitle)
			}
			row.TitleTruncated = true
			row.Warnings = append(row.Warnings, fmt.Sprintf("title truncated to %d characters", MaxTitleLength))
			slog.Warn("Title truncated", "url", row.URL, "length", MaxTitleLength)
		}
	}

	row.Description = firstNonEmpty(optimizedValue(seed.OptimizeDescription, optimized.Description), seed.Description, scrape.Description)
	if row.Description == "" {
		missing = append(missing, FieldDescription)
	}

	if strings.TrimSpace(seed.Price) == "" {
		if scrape.HasPrice && scrape.Price > 0 {
			row.Price = scrape.Price
		} else {
			missing = append(missing, FieldPrice)
		}
	}

	row.PhotoURL = strings.TrimSpace(seed.PhotoURL)
	if row.PhotoURL == "" && len(scrape.Images) > 0 {
		row.PhotoURL = scrape.Images[0]
	}
	if row.PhotoURL == "" {
		row.Warnings = append(row.Warnings, "no image found")
	}

	if strings.TrimSpace(seed.Condition) == "" {
		if cond, ok := n.inferCondition(seed, scrape.ConditionText); ok {
			row.Condition = cond
		} else {
			violations = append(violations, models.Violation{Field: FieldCondition, Reason: "could not be determined from seed or scraped page"})
		}
	}
	if row.Condition != "" {
		row.ConditionID, _ = n.catalog.ConditionID(row.Condition)
	}

	row.Category = firstNonEmpty(seed.Category, scrape.CategoryID)

	row.ItemSpecifics = maps.Clone(scrape.ItemSpecifics)
	row.Extra = maps.Clone(seed.Extra)

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, &models.MissingFieldError{Fields: missing})
	}
	if len(violations) > 0 {
		errs = append(errs, &models.ValidationError{Violations: violations})
	}
	if err := errors.Join(errs...); err != nil {
		return models.CanonicalRow{}, err
	}
	return row, nil
}

// inferCondition resolves a blank seed condition: scraped text first, then
// grading fields imply Used, then the catalog default.
func (n *Normalizer) inferCondition(seed models.SeedRow, scraped string) (string, bool) {
	if cond, ok := n.matchCondition(scraped); ok {
		return cond, true
	}

	graded := strings.TrimSpace(seed.ProfessionalGrader) != "" ||
		strings.TrimSpace(seed.Grade) != "" ||
		strings.TrimSpace(seed.CertNumber) != "" ||
		strings.TrimSpace(seed.CardCondition) != ""
	if graded {
		if cond, ok := n.catalog.Lookup(catalog.FieldCondition, "Used"); ok {
			return cond, true
		}
	}

	if def := n.catalog.DefaultCondition(); def != "" {
		return def, true
	}
	return "", false
}

func (n *Normalizer) matchCondition(text string) (string, bool) {
	text = cleanConditionText(text)
	if text == "" {
		return "", false
	}

	if cond, ok := n.catalog.Lookup(catalog.FieldCondition, text); ok {
		return cond, true
	}
	if alias, ok := conditionAliases[text]; ok {
		if cond, ok := n.catalog.Lookup(catalog.FieldCondition, alias); ok {
			return cond, true
		}
	}

	// longest allowed value that prefixes the text, so "New (Other)" beats "New"
	var best string
	for _, v := range n.catalog.AllowedValues(catalog.FieldCondition) {
		if strings.HasPrefix(text, strings.ToLower(v)) && len(v) > len(best) {
			best = v
		}
	}
	if best != "" {
		return best, true
	}

	if cond, score := n.catalog.Closest(catalog.FieldCondition, text); score >= fuzzyConditionThreshold {
		return cond, true
	}
	return "", false
}

// cleanConditionText lowercases text and reduces schema.org condition URLs
// such as https://schema.org/UsedCondition to "used".
func cleanConditionText(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.LastIndex(text, "/"); i >= 0 && strings.Contains(text, "schema.org") {
		text = strings.TrimSuffix(text[i+1:], "Condition")
	}
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	return strings.TrimSuffix(strings.TrimSpace(strings.SplitN(text, ":", 2)[0]), ".")
}

func (n *Normalizer) enumViolation(column, field, value string) models.Violation {
	reason := fmt.Sprintf("%q is not an allowed value", value)
	if s := n.catalog.Suggest(field, value); s != "" {
		reason += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return models.Violation{Field: column, Reason: reason}
}

// TruncateTitle cuts s to MaxTitleLength characters, preferring a word
// boundary when one falls in the last quarter of the limit. Trailing
// punctuation is dropped unless nothing else would remain.
func TruncateTitle(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= MaxTitleLength {
		return s
	}
	runes := []rune(s)[:MaxTitleLength]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i >= 0 && utf8.RuneCountInString(cut[:i]) >= MaxTitleLength*3/4 {
		cut = cut[:i]
	}
	if trimmed := strings.TrimRight(cut, " -,;:"); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(string(runes))
}

func optimizedValue(flag bool, value string) string {
	if !flag {
		return ""
	}
	return value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
