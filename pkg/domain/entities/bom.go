package entities

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BOMStatus is the lifecycle state of a formula header
type BOMStatus int

const (
	Draft BOMStatus = iota
	Approved
	Active
	Obsolete
)

// String method for BOMStatus enum
func (s BOMStatus) String() string {
	switch s {
	case Draft:
		return "Draft"
	case Approved:
		return "Approved"
	case Active:
		return "Active"
	case Obsolete:
		return "Obsolete"
	default:
		return "Unknown"
	}
}

// ParseBOMStatus maps a case-insensitive name to a BOMStatus
func ParseBOMStatus(s string) (BOMStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "draft":
		return Draft, nil
	case "approved":
		return Approved, nil
	case "active":
		return Active, nil
	case "obsolete":
		return Obsolete, nil
	default:
		return Draft, fmt.Errorf("invalid BOM status: %s (expected: Draft, Approved, Active, or Obsolete)", s)
	}
}

// BOMType classifies the purpose of a formula
type BOMType int

const (
	Manufacturing BOMType = iota
	Engineering
	Sales
)

// String method for BOMType enum
func (t BOMType) String() string {
	switch t {
	case Manufacturing:
		return "Manufacturing"
	case Engineering:
		return "Engineering"
	case Sales:
		return "Sales"
	default:
		return "Unknown"
	}
}

// ParseBOMType maps a case-insensitive name to a BOMType
func ParseBOMType(s string) (BOMType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "manufacturing":
		return Manufacturing, nil
	case "engineering":
		return Engineering, nil
	case "sales":
		return Sales, nil
	default:
		return Manufacturing, fmt.Errorf("invalid BOM type: %s (expected: Manufacturing, Engineering, or Sales)", s)
	}
}

// BOMHeader is the formula producing one unit of ProductID
type BOMHeader struct {
	ID         string
	ProductID  string
	Product    *Product
	Title      string
	Version    string
	Status     BOMStatus
	Type       BOMType
	FromDate   *time.Time
	ToDate     *time.Time
	IsActive   bool
	IsDeleted  bool
	RowVersion int64
	Details    []BOMDetail
}

// ChildProductIDs returns the consumed product ids in line order
func (h *BOMHeader) ChildProductIDs() []string {
	ids := make([]string, 0, len(h.Details))
	for _, d := range h.Details {
		ids = append(ids, d.ChildProductID)
	}
	return ids
}

// Consumes reports whether any line of the header consumes productID as its primary material
func (h *BOMHeader) Consumes(productID string) bool {
	for _, d := range h.Details {
		if d.ChildProductID == productID {
			return true
		}
	}
	return false
}

// IsTraversable reports whether explosion treats the header as the product's formula
func (h *BOMHeader) IsTraversable() bool {
	return h.Status == Active && !h.IsDeleted
}

// Clone returns a deep copy of the header, its lines and substitutes
func (h *BOMHeader) Clone() *BOMHeader {
	c := *h
	c.Details = make([]BOMDetail, len(h.Details))
	for i, d := range h.Details {
		dc := d
		dc.Substitutes = append([]BOMSubstitute(nil), d.Substitutes...)
		c.Details[i] = dc
	}
	return &c
}

// BOMDetail is one consumed material within a formula
type BOMDetail struct {
	ID              string
	BOMHeaderID     string
	ChildProductID  string
	ChildProduct    *Product
	Quantity        decimal.Decimal
	WastePercentage decimal.Decimal
	InputQuantity   decimal.Decimal
	InputUnitID     *string
	Substitutes     []BOMSubstitute
}

// BOMSubstitute is an alternate material for a line
type BOMSubstitute struct {
	ID                  string
	BOMDetailID         string
	SubstituteProductID string
	SubstituteProduct   *Product
	Priority            int
	Factor              decimal.Decimal
	IsMixAllowed        bool
	MaxMixPercentage    decimal.Decimal
}

// SortSubstitutesByPriority returns a copy of subs ordered ascending by priority (1 = preferred)
func SortSubstitutesByPriority(subs []BOMSubstitute) []BOMSubstitute {
	sorted := make([]BOMSubstitute, len(subs))
	copy(sorted, subs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	return sorted
}
