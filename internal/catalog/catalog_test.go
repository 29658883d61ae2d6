package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testDefinition() Definition {
	return Definition{
		Version: "test",
		Fields: map[string][]string{
			FieldCondition:          {"New", "New (Other)", "Used"},
			FieldProfessionalGrader: {"PSA", "BGS"},
			FieldShippingType:       {"Flat", "Calculated"},
			FieldFlatService:        {"USPSFirstClass", "USPSPriority"},
			FieldPostagePaidBy:      {"Buyer", "Seller"},
		},
		ConditionIDs: map[string]int{"New": 1000, "New (Other)": 1500, "Used": 3000},
	}
}

func TestDefaultCatalog(t *testing.T) {
	cat, err := Default()
	if err != nil {
		t.Fatalf("Default failed: %v", err)
	}

	for _, field := range KnownFields {
		if len(cat.AllowedValues(field)) == 0 {
			t.Errorf("Expected allowed values for %s", field)
		}
	}

	if id, ok := cat.ConditionID("Used"); !ok || id != 3000 {
		t.Errorf("Expected Used -> 3000, got %d (%v)", id, ok)
	}
	if cat.DefaultCondition() != "Used" {
		t.Errorf("Expected default condition Used, got %q", cat.DefaultCondition())
	}
}

func TestIsValid(t *testing.T) {
	cat, err := New(testDefinition())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	tests := []struct {
		field    string
		value    string
		expected bool
	}{
		{FieldCondition, "Used", true},
		{FieldCondition, "used", true},
		{FieldCondition, "  New  (Other) ", true},
		{FieldCondition, "Refurbished", false},
		{FieldCondition, "", false},
		{FieldShippingType, "Calculated", true},
		{FieldFlatService, "UPSGround", false},
		{FieldPostagePaidBy, "Seller", true},
	}

	for _, tt := range tests {
		t.Run(tt.field+"/"+tt.value, func(t *testing.T) {
			if got := cat.IsValid(tt.field, tt.value); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLookupReturnsCanonicalSpelling(t *testing.T) {
	cat, err := New(testDefinition())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, ok := cat.Lookup(FieldCondition, "new (other)")
	if !ok || got != "New (Other)" {
		t.Errorf("Expected New (Other), got %q (%v)", got, ok)
	}
}

func TestAllowedValuesIsOrderedCopy(t *testing.T) {
	cat, err := New(testDefinition())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	values := cat.AllowedValues(FieldCondition)
	if diff := cmp.Diff([]string{"New", "New (Other)", "Used"}, values); diff != "" {
		t.Fatal(diff)
	}

	values[0] = "mutated"
	if cat.AllowedValues(FieldCondition)[0] != "New" {
		t.Error("Expected AllowedValues to return a copy")
	}
}

func TestUnknownFieldPanics(t *testing.T) {
	cat, err := New(testDefinition())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for unknown field")
		}
	}()
	cat.IsValid("Colour", "Red")
}

func TestSuggest(t *testing.T) {
	cat, err := New(testDefinition())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if got := cat.Suggest(FieldFlatService, "USPSFirstClas"); got != "USPSFirstClass" {
		t.Errorf("Expected USPSFirstClass, got %q", got)
	}
	if got := cat.Suggest(FieldPostagePaidBy, "zzzz"); got != "" {
		t.Errorf("Expected no suggestion, got %q", got)
	}
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{
			name:   "missing field",
			mutate: func(d *Definition) { delete(d.Fields, FieldFlatService) },
		},
		{
			name:   "duplicate value",
			mutate: func(d *Definition) { d.Fields[FieldPostagePaidBy] = []string{"Buyer", "buyer"} },
		},
		{
			name:   "condition without id",
			mutate: func(d *Definition) { delete(d.ConditionIDs, "Used") },
		},
		{
			name:   "id for unknown condition",
			mutate: func(d *Definition) { d.ConditionIDs["Mint"] = 1 },
		},
		{
			name:   "bad default condition",
			mutate: func(d *Definition) { d.DefaultCondition = "Mint" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := testDefinition()
			tt.mutate(&def)
			if _, err := New(def); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "allowed.yaml")

	data := `version: "y1"
fields:
  Condition: [New, Used]
  ProfessionalGrader: [PSA]
  ShippingType: [Flat, Calculated]
  FlatService: [USPSPriority]
  PostagePaidBy: [Buyer, Seller]
condition_ids:
  New: 1000
  Used: 3000
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Version() != "y1" {
		t.Errorf("Expected version y1, got %s", cat.Version())
	}
	if !cat.IsValid(FieldFlatService, "USPSPriority") {
		t.Error("Expected USPSPriority to be valid")
	}
}

func TestLoadMergesLocalOverride(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "allowed.json5")
	local := filepath.Join(tmpDir, "allowed.local.json5")

	base := `{
  // base definition
  version: "base",
  fields: {
    Condition: ["New", "Used"],
    ProfessionalGrader: ["PSA"],
    ShippingType: ["Flat", "Calculated"],
    FlatService: ["USPSPriority"],
    PostagePaidBy: ["Buyer", "Seller"],
  },
  condition_ids: {"New": 1000, "Used": 3000},
}`
	override := `{
  version: "local",
  fields: {FlatService: ["UPSGround", "USPSPriority"]},
}`
	if err := os.WriteFile(path, []byte(base), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	if err := os.WriteFile(local, []byte(override), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cat.Version() != "local" {
		t.Errorf("Expected version local, got %s", cat.Version())
	}
	if diff := cmp.Diff([]string{"UPSGround", "USPSPriority"}, cat.AllowedValues(FieldFlatService)); diff != "" {
		t.Error(diff)
	}
	if !cat.IsValid(FieldCondition, "New") {
		t.Error("Expected base fields to survive the merge")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "allowed.txt")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for unsupported format, got nil")
	}
}

func TestLoadNonExistentFile(t *testing.T) {
	if _, err := Load("/nonexistent/allowed.json"); err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}
