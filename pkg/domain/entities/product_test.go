package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestProduct_Validation(t *testing.T) {
	product, err := NewProduct("P1", "RM-001", "Steel sheet", "KG", Purchased)
	if err != nil {
		t.Fatalf("Expected valid product creation to succeed: %v", err)
	}
	if product.SupplyType != Purchased {
		t.Errorf("Expected Purchased, got %s", product.SupplyType)
	}
	if product.UnitName() != "" {
		t.Errorf("Expected empty unit name when unit is not loaded, got %q", product.UnitName())
	}

	testCases := []struct {
		name        string
		code        string
		unitID      string
		expectError string
	}{
		{"empty code", "", "KG", "product code cannot be empty"},
		{"blank code", "   ", "KG", "product code cannot be empty"},
		{"empty unit", "RM-001", "", "product unit cannot be empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProduct("P1", tc.code, "name", tc.unitID, Purchased)
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestParseSupplyType(t *testing.T) {
	got, err := ParseSupplyType("manufactured")
	if err != nil || got != Manufactured {
		t.Errorf("Expected Manufactured, got %s (%v)", got, err)
	}
	if _, err := ParseSupplyType("made"); err == nil {
		t.Error("Expected error for unknown supply type")
	}
}

func TestUnit_ToBase(t *testing.T) {
	kg := "KG"
	gram, err := NewUnit("G", "Gram", "g", &kg, decimal.RequireFromString("0.001"))
	if err != nil {
		t.Fatalf("Expected valid unit: %v", err)
	}

	got := gram.ToBase(decimal.NewFromInt(2500))
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("Expected 2.5, got %s", got)
	}

	base, _ := NewUnit("KG", "Kilogram", "kg", nil, decimal.Zero)
	if !base.IsBase() {
		t.Error("Expected unit without base to be a base unit")
	}
	if !base.ToBase(decimal.NewFromInt(3)).Equal(decimal.NewFromInt(3)) {
		t.Error("Base unit conversion must be identity")
	}
}

func TestUnit_Validation(t *testing.T) {
	kg := "KG"
	self := "G"

	testCases := []struct {
		name   string
		id     string
		title  string
		base   *string
		factor decimal.Decimal
	}{
		{"empty title", "G", "", nil, decimal.Zero},
		{"zero factor", "G", "Gram", &kg, decimal.Zero},
		{"negative factor", "G", "Gram", &kg, decimal.NewFromInt(-1)},
		{"own base", "G", "Gram", &self, decimal.NewFromInt(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewUnit(tc.id, tc.title, "", tc.base, tc.factor); err == nil {
				t.Errorf("Expected error for %s", tc.name)
			}
		})
	}
}
