package services

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectiveQuantity is the cumulative consumption of a line: lineQty × inherited.
// Waste is reported next to the quantity and deliberately not compounded into it.
func EffectiveQuantity(lineQty, wastePercentage, inherited decimal.Decimal) decimal.Decimal {
	return lineQty.Mul(inherited)
}

// WastedQuantity is the informational amount lost to waste for a cumulative quantity
func WastedQuantity(total, wastePercentage decimal.Decimal) decimal.Decimal {
	return total.Mul(wastePercentage).Div(hundred)
}
