package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lehigh-university-libraries/fxprep/internal/models"
)

var ebayColumns = []string{
	"*Action(SiteID=US|Country=US|Currency=USD|Version=1193)",
	"CustomLabel",
	"*Category",
	"*Title",
	"Subtitle",
	"*ConditionID",
	"*Description",
	"*Format",
	"*Duration",
	"*StartPrice",
	"*Quantity",
	"PictureURL",
	"ShippingType",
	"*Location",
	"ShippingService-1:Option",
	"ShippingService-1:Cost",
	"WeightMajor",
	"WeightMinor",
	"PackageLength",
	"PackageWidth",
	"PackageDepth",
	"*ReturnsAcceptedOption",
	"ShippingCostPaidByOption",
	ColumnCardCondition,
	ColumnProfessionalGrader,
	"C:Brand",
	"C:Year Manufactured",
	"StoreCategory",
}

func flatRow() models.CanonicalRow {
	return models.CanonicalRow{
		URL:         "http://x/item1",
		CustomLabel: "SKU-1",
		Title:       "Vintage Card",
		Description: "A vintage card.",
		Price:       12.5,
		Quantity:    1,
		Condition:   "Used",
		ConditionID: 3000,
		Shipping: models.ShippingFieldSet{
			Type:        models.ShippingFlat,
			FlatService: "USPSFirstClass",
			FlatCost:    4.5,
			CostPaidBy:  "Buyer",
		},
		CardCondition: "Near Mint",
		ItemSpecifics: map[string]string{"Brand": "Topps", "Year Manufactured": "1987"},
	}
}

func TestBindFlatRow(t *testing.T) {
	b := NewBinder(nil)
	got := b.Bind(flatRow(), ebayColumns)

	expected := map[string]string{
		ebayColumns[0]:             "Add",
		"CustomLabel":              "SKU-1",
		"*Category":                "",
		"*Title":                   "Vintage Card",
		"*ConditionID":             "3000",
		"*Format":                  "FixedPrice",
		"*Duration":                "GTC",
		"*StartPrice":              "12.50",
		"*Quantity":                "1",
		"ShippingType":             "Flat",
		"ShippingService-1:Option": "USPSFirstClass",
		"ShippingService-1:Cost":   "4.50",
		"WeightMajor":              "",
		"WeightMinor":              "",
		"PackageLength":            "",
		"PackageWidth":             "",
		"PackageDepth":             "",
		"*ReturnsAcceptedOption":   "ReturnsAccepted",
		"ShippingCostPaidByOption": "Buyer",
		ColumnCardCondition:        "Near Mint",
		ColumnProfessionalGrader:   "",
		"C:Brand":                  "Topps",
		"C:Year Manufactured":      "1987",
		"StoreCategory":            "",
	}

	for column, want := range expected {
		if v := got.Get(column); v != want {
			t.Errorf("%s: Expected %q, got %q", column, want, v)
		}
	}
}

func TestBindCalculatedRow(t *testing.T) {
	row := flatRow()
	row.Shipping = models.ShippingFieldSet{
		Type:       models.ShippingCalculated,
		WeightLbs:  1,
		WeightOz:   4.5,
		LengthIn:   10,
		WidthIn:    8,
		DepthIn:    2,
		CostPaidBy: "Seller",
	}

	got := NewBinder(nil).Bind(row, ebayColumns)

	expected := map[string]string{
		"ShippingType":             "Calculated",
		"ShippingService-1:Option": "",
		"ShippingService-1:Cost":   "",
		"WeightMajor":              "1",
		"WeightMinor":              "4.5",
		"PackageLength":            "10",
		"PackageWidth":             "8",
		"PackageDepth":             "2",
		"ShippingCostPaidByOption": "Seller",
	}
	for column, want := range expected {
		if v := got.Get(column); v != want {
			t.Errorf("%s: Expected %q, got %q", column, want, v)
		}
	}
}

func TestBindKeepsTemplateColumns(t *testing.T) {
	got := NewBinder(nil).Bind(flatRow(), ebayColumns)

	if diff := cmp.Diff(ebayColumns, got.Columns); diff != "" {
		t.Error(diff)
	}
	if len(got.Values) != len(ebayColumns) {
		t.Errorf("Expected %d values, got %d", len(ebayColumns), len(got.Values))
	}
}

func TestBindSubsetTemplate(t *testing.T) {
	columns := []string{"*Title", "*StartPrice"}
	got := NewBinder(nil).Bind(flatRow(), columns)

	if diff := cmp.Diff([]string{"Vintage Card", "12.50"}, got.Values); diff != "" {
		t.Error(diff)
	}
}

func TestBindDefaultsAndExtras(t *testing.T) {
	row := flatRow()
	row.Format = "Auction"
	row.Extra = map[string]string{
		"StoreCategory": "42",
		"C:Brand":       "Fleer",
	}

	b := NewBinder(map[string]string{"*Location": "Bethlehem, PA", "Category": "261328"})
	got := b.Bind(row, ebayColumns)

	expected := map[string]string{
		"*Location":     "Bethlehem, PA",
		"*Category":     "261328",
		"*Format":       "Auction",
		"*Duration":     "Days_7",
		"StoreCategory": "42",
		"C:Brand":       "Fleer",
	}
	for column, want := range expected {
		if v := got.Get(column); v != want {
			t.Errorf("%s: Expected %q, got %q", column, want, v)
		}
	}
}

func TestBindDuration(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		duration string
		defaults map[string]string
		expected string
	}{
		{"fixed price default", "", "", nil, "GTC"},
		{"fixed price ignores row duration", "FixedPrice", "Days_7", nil, "GTC"},
		{"fixed price ignores default duration", "", "", map[string]string{"Duration": "Days_10"}, "GTC"},
		{"auction default", "Auction", "", nil, "Days_7"},
		{"auction row duration", "Auction", "Days_3", nil, "Days_3"},
		{"auction default duration", "Auction", "", map[string]string{"Duration": "Days_5"}, "Days_5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := flatRow()
			row.Format = tt.format
			row.Duration = tt.duration
			got := NewBinder(tt.defaults).Bind(row, ebayColumns)
			if v := got.Get("*Duration"); v != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, v)
			}
		})
	}
}

func TestBindOverrideKeysIgnoreCase(t *testing.T) {
	b := NewBinder(map[string]string{"location": "Easton, PA", "returnsacceptedoption": "ReturnsNotAccepted", "storecategory": "7"})
	got := b.Bind(flatRow(), ebayColumns)

	if v := got.Get("*Location"); v != "Easton, PA" {
		t.Errorf("Expected Easton, PA, got %q", v)
	}
	if v := got.Get("*ReturnsAcceptedOption"); v != "ReturnsNotAccepted" {
		t.Errorf("Expected ReturnsNotAccepted, got %q", v)
	}
	if v := got.Get("StoreCategory"); v != "7" {
		t.Errorf("Expected 7, got %q", v)
	}
}

func TestReadColumns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
		wantErr  bool
	}{
		{
			name:     "trailing empties dropped",
			input:    "*Title,*StartPrice,,,\nrow,1\n",
			expected: []string{"*Title", "*StartPrice"},
		},
		{
			name:     "bom stripped",
			input:    "\ufeff*Action(SiteID=US),*Title\n",
			expected: []string{"*Action(SiteID=US)", "*Title"},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
		},
		{
			name:    "blank header",
			input:   ",,\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadColumns(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Error(diff)
			}
		})
	}
}

func TestLoadColumns(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "template.csv")
	if err := os.WriteFile(path, []byte("*Title,PictureURL\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := LoadColumns(path)
	if err != nil {
		t.Fatalf("LoadColumns failed: %v", err)
	}
	if diff := cmp.Diff([]string{"*Title", "PictureURL"}, got); diff != "" {
		t.Error(diff)
	}

	if _, err := LoadColumns(filepath.Join(tmpDir, "missing.csv")); err == nil {
		t.Error("Expected error for missing template, got nil")
	}
}
