// Package shipping selects and populates the flat or calculated shipping
// field set for a seed row.
package shipping

import (
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/fxprep/internal/catalog"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

// DefaultPostagePaidBy applies when the seed leaves PostagePaidBy blank.
const DefaultPostagePaidBy = "Buyer"

// Seed column names cited in violations.
const (
	FieldShippingType  = "ShippingType"
	FieldFlatService   = "FlatService"
	FieldFlatCost      = "FlatCost"
	FieldWeightLbs     = "Weight_lbs"
	FieldWeightOz      = "Weight_oz"
	FieldLengthIn      = "Length_in"
	FieldWidthIn       = "Width_in"
	FieldDepthIn       = "Depth_in"
	FieldPostagePaidBy = "PostagePaidBy"
)

// Resolver validates shipping fields against a catalog.
type Resolver struct {
	catalog *catalog.Catalog
}

// NewResolver returns a Resolver backed by cat.
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{catalog: cat}
}

// Resolve builds the shipping field set for seed. On failure it returns a
// *models.ValidationError listing every shipping violation.
func (r *Resolver) Resolve(seed models.SeedRow) (models.ShippingFieldSet, error) {
	var set models.ShippingFieldSet
	violations := r.Check(seed, &set)
	if len(violations) > 0 {
		return models.ShippingFieldSet{}, &models.ValidationError{Violations: violations}
	}
	return set, nil
}

// Check validates seed and fills set with whatever resolved. It returns the
// violations instead of an error so callers can merge them with their own.
func (r *Resolver) Check(seed models.SeedRow, set *models.ShippingFieldSet) []models.Violation {
	var violations []models.Violation

	paidBy := strings.TrimSpace(seed.PostagePaidBy)
	if paidBy == "" {
		set.CostPaidBy = DefaultPostagePaidBy
	} else if canonical, ok := r.catalog.Lookup(catalog.FieldPostagePaidBy, paidBy); ok {
		set.CostPaidBy = canonical
	} else {
		violations = append(violations, r.enumViolation(FieldPostagePaidBy, catalog.FieldPostagePaidBy, paidBy))
	}

	shipType := strings.TrimSpace(seed.ShippingType)
	if shipType == "" {
		violations = append(violations, models.Violation{
			Field:  FieldShippingType,
			Reason: fmt.Sprintf("required (one of %s, %s)", models.ShippingFlat, models.ShippingCalculated),
		})
		return violations
	}

	canonical, ok := r.catalog.Lookup(catalog.FieldShippingType, shipType)
	switch {
	case ok && canonical == models.ShippingFlat:
		set.Type = models.ShippingFlat
		violations = append(violations, r.checkFlat(seed, set)...)
	case ok && canonical == models.ShippingCalculated:
		set.Type = models.ShippingCalculated
		violations = append(violations, checkCalculated(seed, set)...)
	default:
		violations = append(violations, models.Violation{
			Field:  FieldShippingType,
			Reason: fmt.Sprintf("%q is not %s or %s", shipType, models.ShippingFlat, models.ShippingCalculated),
		})
	}

	return violations
}

func (r *Resolver) checkFlat(seed models.SeedRow, set *models.ShippingFieldSet) []models.Violation {
	var violations []models.Violation

	service := strings.TrimSpace(seed.FlatService)
	if service == "" {
		violations = append(violations, models.Violation{Field: FieldFlatService, Reason: "required for Flat shipping"})
	} else if canonical, ok := r.catalog.Lookup(catalog.FieldFlatService, service); ok {
		set.FlatService = canonical
	} else {
		violations = append(violations, r.enumViolation(FieldFlatService, catalog.FieldFlatService, service))
	}

	cost := strings.TrimSpace(seed.FlatCost)
	switch f, ok := models.ParseNumber(cost); {
	case cost == "":
		violations = append(violations, models.Violation{Field: FieldFlatCost, Reason: "required for Flat shipping"})
	case !ok:
		violations = append(violations, models.Violation{Field: FieldFlatCost, Reason: fmt.Sprintf("%q must be numeric", cost)})
	case f <= 0:
		violations = append(violations, models.Violation{Field: FieldFlatCost, Reason: "must be > 0"})
	default:
		set.FlatCost = f
	}

	return violations
}

func checkCalculated(seed models.SeedRow, set *models.ShippingFieldSet) []models.Violation {
	var violations []models.Violation

	dims := []struct {
		field string
		value string
		dst   *float64
	}{
		{FieldWeightLbs, seed.WeightLbs, &set.WeightLbs},
		{FieldWeightOz, seed.WeightOz, &set.WeightOz},
		{FieldLengthIn, seed.LengthIn, &set.LengthIn},
		{FieldWidthIn, seed.WidthIn, &set.WidthIn},
		{FieldDepthIn, seed.DepthIn, &set.DepthIn},
	}

	for _, d := range dims {
		value := strings.TrimSpace(d.value)
		f, ok := models.ParseNumber(value)
		switch {
		case value == "":
			violations = append(violations, models.Violation{Field: d.field, Reason: "required for Calculated shipping"})
		case !ok:
			violations = append(violations, models.Violation{Field: d.field, Reason: fmt.Sprintf("%q must be numeric", value)})
		case f < 0:
			violations = append(violations, models.Violation{Field: d.field, Reason: "must be >= 0"})
		default:
			*d.dst = f
		}
	}

	return violations
}

func (r *Resolver) enumViolation(column, field, value string) models.Violation {
	reason := fmt.Sprintf("%q is not an allowed value", value)
	if s := r.catalog.Suggest(field, value); s != "" {
		reason += fmt.Sprintf(" (did you mean %q?)", s)
	}
	return models.Violation{Field: column, Reason: reason}
}
