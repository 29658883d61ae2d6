package models

// Shipping types understood by the resolver and the template.
const (
	ShippingFlat       = "Flat"
	ShippingCalculated = "Calculated"
)

// SeedRow is one user-authored input record describing a listing to produce.
// Values are kept as the raw text from the seed file; validation happens in
// the normalizer so every problem with a row can be reported at once.
type SeedRow struct {
	// Line is the 1-based line of the row in its source file (header = 1).
	Line int

	URL                 string
	Price               string
	Quantity            string
	PhotoURL            string
	OptimizeTitle       bool
	OptimizeDescription bool
	Condition           string

	// Grading
	CardCondition      string
	ProfessionalGrader string
	Grade              string
	CertNumber         string

	// Shipping
	ShippingType  string
	FlatService   string
	FlatCost      string
	WeightLbs     string
	WeightOz      string
	LengthIn      string
	WidthIn       string
	DepthIn       string
	PostagePaidBy string

	CustomLabel string
	Notes       string

	// Optional overrides
	Title       string
	Description string
	Category    string
	Format      string
	Duration    string
	Location    string

	// Extra holds seed columns that have no dedicated field, keyed by header.
	Extra map[string]string
}

// ScrapeResult is what the scraper could recover from a listing page.
type ScrapeResult struct {
	Title           string
	Description     string
	DescriptionHTML string
	Price           float64
	HasPrice        bool
	CategoryID      string
	ConditionText   string
	Images          []string
	ItemSpecifics   map[string]string
}

// OptimizedText holds provider rewrites. An empty field means no rewrite.
type OptimizedText struct {
	Title       string
	Description string
}

// ShippingFieldSet is the output of the shipping resolver. Only the fields of
// the selected Type are populated.
type ShippingFieldSet struct {
	Type        string
	FlatService string
	FlatCost    float64

	WeightLbs float64
	WeightOz  float64
	LengthIn  float64
	WidthIn   float64
	DepthIn   float64

	// CostPaidBy is Buyer or Seller.
	CostPaidBy string
}

// CanonicalRow is the merged, validated, template-independent listing.
type CanonicalRow struct {
	URL         string
	CustomLabel string

	Title          string
	TitleTruncated bool
	Description    string
	Price          float64
	Quantity       int
	PhotoURL       string

	Condition   string
	ConditionID int
	Category    string

	CardCondition      string
	ProfessionalGrader string
	Grade              string
	CertNumber         string

	Shipping ShippingFieldSet

	Format   string
	Duration string
	Location string

	// ItemSpecifics are keyed by specific name (without the "C:" prefix).
	ItemSpecifics map[string]string
	// Extra carries seed columns that may match template columns verbatim.
	Extra map[string]string

	Warnings []string
}

// TemplateRow is one output line, aligned with Columns.
type TemplateRow struct {
	Columns []string
	Values  []string
}

// Get returns the value bound to column, or "" when the column is absent.
func (r TemplateRow) Get(column string) string {
	for i, c := range r.Columns {
		if c == column && i < len(r.Values) {
			return r.Values[i]
		}
	}
	return ""
}

// PreviewRow is a side-by-side comparison of scraped and optimized text.
type PreviewRow struct {
	URL                  string
	TitleScraped         string
	TitleOptimized       string
	DescScrapedSnippet   string
	DescOptimizedSnippet string
	PhotoURL             string
	PostagePaidBy        string
}
