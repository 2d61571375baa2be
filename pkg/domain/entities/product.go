package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// SupplyType describes how a product is sourced
type SupplyType int

const (
	Purchased SupplyType = iota
	Manufactured
	Service
)

// String method for SupplyType enum
func (s SupplyType) String() string {
	switch s {
	case Purchased:
		return "Purchased"
	case Manufactured:
		return "Manufactured"
	case Service:
		return "Service"
	default:
		return "Unknown"
	}
}

// ParseSupplyType maps a case-insensitive name to a SupplyType
func ParseSupplyType(s string) (SupplyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "purchased":
		return Purchased, nil
	case "manufactured":
		return Manufactured, nil
	case "service":
		return Service, nil
	default:
		return Purchased, fmt.Errorf("invalid supply type: %s (expected: Purchased, Manufactured, or Service)", s)
	}
}

// Product is the node type of both the explosion tree and the where-used closure
type Product struct {
	ID         string
	Code       string
	Name       string
	UnitID     string
	Unit       *Unit
	SupplyType SupplyType
	IsDeleted  bool
	RowVersion int64
}

// NewProduct creates a validated Product
func NewProduct(id, code, name, unitID string, supplyType SupplyType) (*Product, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("product code cannot be empty")
	}
	if strings.TrimSpace(unitID) == "" {
		return nil, fmt.Errorf("product unit cannot be empty")
	}

	return &Product{
		ID:         id,
		Code:       code,
		Name:       name,
		UnitID:     unitID,
		SupplyType: supplyType,
	}, nil
}

// UnitName returns the unit title, or an empty string when the unit was not loaded
func (p *Product) UnitName() string {
	if p == nil || p.Unit == nil {
		return ""
	}
	return p.Unit.Title
}

// Unit is a unit of measure, optionally defined relative to a base unit
type Unit struct {
	ID               string
	Title            string
	Symbol           string
	BaseUnitID       *string
	ConversionFactor decimal.Decimal
}

// NewUnit creates a validated Unit. A base unit requires a positive conversion factor.
func NewUnit(id, title, symbol string, baseUnitID *string, factor decimal.Decimal) (*Unit, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("unit title cannot be empty")
	}
	if baseUnitID != nil {
		if *baseUnitID == id && id != "" {
			return nil, fmt.Errorf("unit %s cannot be its own base unit", id)
		}
		if !factor.IsPositive() {
			return nil, fmt.Errorf("conversion factor must be positive, got %s", factor)
		}
	}

	return &Unit{
		ID:               id,
		Title:            title,
		Symbol:           symbol,
		BaseUnitID:       baseUnitID,
		ConversionFactor: factor,
	}, nil
}

// IsBase reports whether the unit has no base unit of its own
func (u *Unit) IsBase() bool {
	return u.BaseUnitID == nil
}

// ToBase converts a quantity expressed in this unit into its base unit
func (u *Unit) ToBase(qty decimal.Decimal) decimal.Decimal {
	if u.IsBase() {
		return qty
	}
	return qty.Mul(u.ConversionFactor)
}
