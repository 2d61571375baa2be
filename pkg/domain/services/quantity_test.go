package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEffectiveQuantity(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name      string
		lineQty   string
		waste     string
		inherited string
		expected  string
	}{
		{"root_multiplier", "2", "0", "1", "2"},
		{"nested_multiplier", "3", "0", "2", "6"},
		{"waste_not_compounded", "3", "10", "2", "6"},
		{"six_fractional_digits", "0.000125", "5", "0.000002", "0.00000000025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveQuantity(d(tt.lineQty), d(tt.waste), d(tt.inherited))
			if !got.Equal(d(tt.expected)) {
				t.Errorf("EffectiveQuantity(%s, %s, %s) = %s, want %s",
					tt.lineQty, tt.waste, tt.inherited, got, tt.expected)
			}
		})
	}
}

func TestWastedQuantity(t *testing.T) {
	got := WastedQuantity(decimal.NewFromInt(6), decimal.NewFromInt(10))
	if !got.Equal(decimal.RequireFromString("0.6")) {
		t.Errorf("Expected 0.6, got %s", got)
	}
}
