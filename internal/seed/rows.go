package seed

import (
	"strings"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

// column binds seed headers to a SeedRow field. The first non-blank header
// in names wins; later names are legacy aliases.
type column struct {
	names []string
	set   func(*models.SeedRow, string)
}

var columns = []column{
	{[]string{"URL"}, func(r *models.SeedRow, v string) { r.URL = v }},
	{[]string{"Price", "PriceOverride"}, func(r *models.SeedRow, v string) { r.Price = v }},
	{[]string{"Quantity", "QuantityOverride"}, func(r *models.SeedRow, v string) { r.Quantity = v }},
	{[]string{"PhotoURL"}, func(r *models.SeedRow, v string) { r.PhotoURL = v }},
	{[]string{"Condition", "ConditionOverride"}, func(r *models.SeedRow, v string) { r.Condition = v }},
	{[]string{"CardCondition"}, func(r *models.SeedRow, v string) { r.CardCondition = v }},
	{[]string{"ProfessionalGrader"}, func(r *models.SeedRow, v string) { r.ProfessionalGrader = v }},
	{[]string{"Grade"}, func(r *models.SeedRow, v string) { r.Grade = v }},
	{[]string{"CertNumber"}, func(r *models.SeedRow, v string) { r.CertNumber = v }},
	{[]string{"ShippingType", "ShippingTypeOverride"}, func(r *models.SeedRow, v string) { r.ShippingType = v }},
	{[]string{"FlatService", "ShippingService1_Option"}, func(r *models.SeedRow, v string) { r.FlatService = v }},
	{[]string{"FlatCost", "ShippingService1_Cost"}, func(r *models.SeedRow, v string) { r.FlatCost = v }},
	{[]string{"Weight_lbs", "WeightMajor_lbs"}, func(r *models.SeedRow, v string) { r.WeightLbs = v }},
	{[]string{"Weight_oz", "WeightMinor_oz"}, func(r *models.SeedRow, v string) { r.WeightOz = v }},
	{[]string{"Length_in", "PackageLength_in"}, func(r *models.SeedRow, v string) { r.LengthIn = v }},
	{[]string{"Width_in", "PackageWidth_in"}, func(r *models.SeedRow, v string) { r.WidthIn = v }},
	{[]string{"Depth_in", "PackageDepth_in"}, func(r *models.SeedRow, v string) { r.DepthIn = v }},
	{[]string{"PostagePaidBy"}, func(r *models.SeedRow, v string) { r.PostagePaidBy = v }},
	{[]string{"CustomLabel"}, func(r *models.SeedRow, v string) { r.CustomLabel = v }},
	{[]string{"Notes"}, func(r *models.SeedRow, v string) { r.Notes = v }},
	{[]string{"Title", "TitleOverride"}, func(r *models.SeedRow, v string) { r.Title = v }},
	{[]string{"Description", "DescriptionOverride"}, func(r *models.SeedRow, v string) { r.Description = v }},
	{[]string{"Category", "CategoryOverride"}, func(r *models.SeedRow, v string) { r.Category = v }},
	{[]string{"Format", "FormatOverride"}, func(r *models.SeedRow, v string) { r.Format = v }},
	{[]string{"Duration", "DurationOverride"}, func(r *models.SeedRow, v string) { r.Duration = v }},
	{[]string{"Location", "LocationOverride"}, func(r *models.SeedRow, v string) { r.Location = v }},
}

// Flag columns. A flag column missing from the file means Y.
const (
	ColumnOptimizeTitle       = "OptimizeTitle"
	ColumnOptimizeDescription = "OptimizeDescription"
)

// Rows maps a table onto seed rows. Headers with no SeedRow field are kept
// in SeedRow.Extra.
func Rows(t *Table) []models.SeedRow {
	known := map[string]bool{
		strings.ToLower(ColumnOptimizeTitle):       true,
		strings.ToLower(ColumnOptimizeDescription): true,
	}
	for _, c := range columns {
		for _, name := range c.names {
			known[strings.ToLower(name)] = true
		}
	}

	rows := make([]models.SeedRow, 0, len(t.Rows))
	for i := range t.Rows {
		row := models.SeedRow{
			OptimizeTitle:       flag(t, i, ColumnOptimizeTitle),
			OptimizeDescription: flag(t, i, ColumnOptimizeDescription),
		}
		if i < len(t.Lines) {
			row.Line = t.Lines[i]
		}

		for _, c := range columns {
			for _, name := range c.names {
				if v := t.Get(i, name); v != "" {
					c.set(&row, v)
					break
				}
			}
		}

		for _, h := range t.Header {
			if known[strings.ToLower(h)] || h == "" {
				continue
			}
			if v := t.Get(i, h); v != "" {
				if row.Extra == nil {
					row.Extra = map[string]string{}
				}
				row.Extra[h] = v
			}
		}

		rows = append(rows, row)
	}
	return rows
}

func flag(t *Table, row int, column string) bool {
	if !t.Has(column) {
		return true
	}
	return ParseFlag(t.Get(row, column))
}

// ParseFlag reads Y/Yes/True/1 as true, case-insensitively.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}
