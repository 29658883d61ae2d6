// Package template maps canonical rows onto the column layout of a bulk
// upload template.
package template

import (
	"maps"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

// Default values for template columns that have no row source. Keys are
// column names without the leading "*" required marker.
var DefaultValues = map[string]string{
	"Action":                "Add",
	"Format":                "FixedPrice",
	"ReturnsAcceptedOption": "ReturnsAccepted",
	"Subtitle":              "",
	"Location":              "",
}

// DurationFixedPrice is the only duration fixed-price listings accept.
// DurationAuction applies when neither the row nor the defaults name one.
const (
	DurationFixedPrice = "GTC"
	DurationAuction    = "Days_7"
	formatFixedPrice   = "FixedPrice"
)

// Item specific columns fed by the seed's grading fields.
const (
	ColumnCardCondition      = "C:Card Condition"
	ColumnProfessionalGrader = "CD:Professional Grader - (ID: 27501)"
	ColumnGrade              = "CD:Grade - (ID: 27502)"
	ColumnCertNumber         = "CDA:Certification Number - (ID: 27503)"
)

// Binder fills template columns from canonical rows.
type Binder struct {
	defaults map[string]string
}

// NewBinder returns a Binder using DefaultValues overlaid with overrides.
// Override keys match default keys case-insensitively.
func NewBinder(overrides map[string]string) *Binder {
	b := &Binder{defaults: maps.Clone(DefaultValues)}
	for k, v := range overrides {
		key := columnKey(k)
		if known, ok := b.defaultKey(key); ok {
			key = known
		}
		b.defaults[key] = v
	}
	return b
}

func (b *Binder) defaultKey(key string) (string, bool) {
	if _, ok := b.defaults[key]; ok {
		return key, true
	}
	for k := range b.defaults {
		if strings.EqualFold(k, key) {
			return k, true
		}
	}
	return "", false
}

func (b *Binder) defaultValue(key string) string {
	if k, ok := b.defaultKey(key); ok {
		return b.defaults[k]
	}
	return ""
}

// Bind produces one TemplateRow with exactly the given columns, in order.
// Row fields without a matching column are dropped.
func (b *Binder) Bind(row models.CanonicalRow, columns []string) models.TemplateRow {
	values := make([]string, len(columns))
	for i, column := range columns {
		values[i] = b.value(row, column)
	}
	return models.TemplateRow{
		Columns: columns,
		Values:  values,
	}
}

func (b *Binder) value(row models.CanonicalRow, column string) string {
	key := columnKey(column)
	ship := row.Shipping
	flat := ship.Type == models.ShippingFlat
	calculated := ship.Type == models.ShippingCalculated

	switch {
	case strings.HasPrefix(key, "Action("):
		return b.defaultValue("Action")
	case key == "CustomLabel":
		return row.CustomLabel
	case key == "Category":
		return b.orDefault(row.Category, key)
	case key == "Title":
		return row.Title
	case key == "ConditionID":
		if row.ConditionID == 0 {
			return ""
		}
		return strconv.Itoa(row.ConditionID)
	case key == "Description":
		return row.Description
	case key == "Format":
		return b.format(row)
	case key == "Duration":
		return b.duration(row)
	case key == "StartPrice":
		return strconv.FormatFloat(row.Price, 'f', 2, 64)
	case key == "Quantity":
		return strconv.Itoa(row.Quantity)
	case key == "PictureURL":
		return row.PhotoURL
	case key == "ShippingType":
		return ship.Type
	case key == "Location":
		return b.orDefault(row.Location, key)
	case key == "ShippingService-1:Option":
		return ifSet(flat, ship.FlatService)
	case key == "ShippingService-1:Cost":
		return ifSet(flat, strconv.FormatFloat(ship.FlatCost, 'f', 2, 64))
	case key == "WeightMajor":
		return ifSet(calculated, models.FormatNumber(ship.WeightLbs))
	case key == "WeightMinor":
		return ifSet(calculated, models.FormatNumber(ship.WeightOz))
	case key == "PackageLength":
		return ifSet(calculated, models.FormatNumber(ship.LengthIn))
	case key == "PackageWidth":
		return ifSet(calculated, models.FormatNumber(ship.WidthIn))
	case key == "PackageDepth":
		return ifSet(calculated, models.FormatNumber(ship.DepthIn))
	case key == "ShippingCostPaidByOption", key == "ReturnShippingCostPaidBy":
		return ship.CostPaidBy
	case key == ColumnCardCondition:
		return b.extraOr(row, column, row.CardCondition)
	case key == ColumnProfessionalGrader:
		return b.extraOr(row, column, row.ProfessionalGrader)
	case key == ColumnGrade:
		return b.extraOr(row, column, row.Grade)
	case key == ColumnCertNumber:
		return b.extraOr(row, column, row.CertNumber)
	case strings.HasPrefix(key, "C:"):
		if v, ok := extra(row, column); ok {
			return v
		}
		return row.ItemSpecifics[strings.TrimSpace(strings.TrimPrefix(key, "C:"))]
	}

	if v, ok := extra(row, column); ok {
		return v
	}
	return b.defaultValue(key)
}

func (b *Binder) format(row models.CanonicalRow) string {
	return b.orDefault(row.Format, "Format")
}

func (b *Binder) duration(row models.CanonicalRow) string {
	// fixed-price listings only accept GTC
	if b.format(row) == formatFixedPrice {
		return DurationFixedPrice
	}
	if row.Duration != "" {
		return row.Duration
	}
	if d := b.defaultValue("Duration"); d != "" {
		return d
	}
	return DurationAuction
}

func (b *Binder) orDefault(value, key string) string {
	if value != "" {
		return value
	}
	return b.defaultValue(key)
}

// extraOr prefers a seed column with the template column's exact name.
func (b *Binder) extraOr(row models.CanonicalRow, column, value string) string {
	if value != "" {
		return value
	}
	v, _ := extra(row, column)
	return v
}

func extra(row models.CanonicalRow, column string) (string, bool) {
	if v, ok := row.Extra[column]; ok && v != "" {
		return v, true
	}
	if v, ok := row.Extra[columnKey(column)]; ok && v != "" {
		return v, true
	}
	return "", false
}

func ifSet(cond bool, value string) string {
	if !cond {
		return ""
	}
	return value
}

func columnKey(column string) string {
	return strings.TrimPrefix(strings.TrimSpace(column), "*")
}
