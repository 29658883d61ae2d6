package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"
)

// Enumerated fields known to the catalog.
const (
	FieldCondition          = "Condition"
	FieldProfessionalGrader = "ProfessionalGrader"
	FieldShippingType       = "ShippingType"
	FieldFlatService        = "FlatService"
	FieldPostagePaidBy      = "PostagePaidBy"
)

// KnownFields lists every field a definition must provide, in display order.
var KnownFields = []string{
	FieldCondition,
	FieldProfessionalGrader,
	FieldShippingType,
	FieldFlatService,
	FieldPostagePaidBy,
}

// suggestThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const suggestThreshold = 0.8

// Definition is the on-disk shape of an allowed-values file.
type Definition struct {
	Version          string              `json:"version" yaml:"version"`
	Fields           map[string][]string `json:"fields" yaml:"fields"`
	ConditionIDs     map[string]int      `json:"condition_ids" yaml:"condition_ids"`
	DefaultCondition string              `json:"default_condition" yaml:"default_condition"`
}

// Catalog is an immutable lookup table of allowed values per field.
type Catalog struct {
	version          string
	fields           map[string][]string
	index            map[string]map[string]string // field -> folded value -> canonical value
	conditionIDs     map[string]int
	defaultCondition string
}

// New validates def and builds a Catalog from it.
func New(def Definition) (*Catalog, error) {
	c := &Catalog{
		version:      def.Version,
		fields:       make(map[string][]string, len(KnownFields)),
		index:        make(map[string]map[string]string, len(KnownFields)),
		conditionIDs: make(map[string]int, len(def.ConditionIDs)),
	}

	for _, field := range KnownFields {
		values, ok := def.Fields[field]
		if !ok || len(values) == 0 {
			return nil, fmt.Errorf("catalog %q: field %s has no allowed values", def.Version, field)
		}
		idx := make(map[string]string, len(values))
		ordered := make([]string, 0, len(values))
		for _, v := range values {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if _, dup := idx[fold(v)]; dup {
				return nil, fmt.Errorf("catalog %q: duplicate value %q for field %s", def.Version, v, field)
			}
			idx[fold(v)] = v
			ordered = append(ordered, v)
		}
		c.fields[field] = ordered
		c.index[field] = idx
	}

	for cond, id := range def.ConditionIDs {
		canonical, ok := c.index[FieldCondition][fold(cond)]
		if !ok {
			return nil, fmt.Errorf("catalog %q: condition_ids references unknown condition %q", def.Version, cond)
		}
		c.conditionIDs[canonical] = id
	}
	for _, cond := range c.fields[FieldCondition] {
		if _, ok := c.conditionIDs[cond]; !ok {
			return nil, fmt.Errorf("catalog %q: condition %q has no condition id", def.Version, cond)
		}
	}

	if def.DefaultCondition != "" {
		canonical, ok := c.index[FieldCondition][fold(def.DefaultCondition)]
		if !ok {
			return nil, fmt.Errorf("catalog %q: default_condition %q is not an allowed condition", def.Version, def.DefaultCondition)
		}
		c.defaultCondition = canonical
	}

	return c, nil
}

// Version returns the definition version string.
func (c *Catalog) Version() string {
	return c.version
}

// IsValid reports whether value is an allowed value for field.
// It panics if field is not a catalog field.
func (c *Catalog) IsValid(field, value string) bool {
	_, ok := c.Lookup(field, value)
	return ok
}

// AllowedValues returns the ordered allowed values for field.
// It panics if field is not a catalog field.
func (c *Catalog) AllowedValues(field string) []string {
	return slices.Clone(c.mustField(field))
}

// Lookup matches value case-insensitively and returns its canonical spelling.
func (c *Catalog) Lookup(field, value string) (string, bool) {
	c.mustField(field)
	canonical, ok := c.index[field][fold(value)]
	return canonical, ok
}

// Suggest returns the allowed value most similar to value, or "" when
// nothing is close enough.
func (c *Catalog) Suggest(field, value string) string {
	best, score := c.closest(field, value)
	if score < suggestThreshold {
		return ""
	}
	return best
}

// Closest returns the most similar allowed value and its similarity in [0,1].
func (c *Catalog) Closest(field, value string) (string, float64) {
	return c.closest(field, value)
}

func (c *Catalog) closest(field, value string) (string, float64) {
	values := c.mustField(field)
	value = fold(value)
	if value == "" {
		return "", 0
	}
	var best string
	var bestScore float64
	for _, v := range values {
		score := matchr.JaroWinkler(value, fold(v), false)
		if score > bestScore {
			best = v
			bestScore = score
		}
	}
	return best, bestScore
}

// ConditionID returns the numeric condition id for an allowed condition.
func (c *Catalog) ConditionID(condition string) (int, bool) {
	canonical, ok := c.Lookup(FieldCondition, condition)
	if !ok {
		return 0, false
	}
	id, ok := c.conditionIDs[canonical]
	return id, ok
}

// DefaultCondition is the last-resort condition, or "" when none is set.
func (c *Catalog) DefaultCondition() string {
	return c.defaultCondition
}

func (c *Catalog) mustField(field string) []string {
	values, ok := c.fields[field]
	if !ok {
		panic(fmt.Sprintf("catalog: unknown field %q", field))
	}
	return values
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
