package gormrepo

import (
	"github.com/vsinha/bom/pkg/domain/entities"
)

func toUnit(r *UnitRecord) *entities.Unit {
	if r == nil {
		return nil
	}
	return &entities.Unit{
		ID:               r.ID,
		Title:            r.Title,
		Symbol:           r.Symbol,
		BaseUnitID:       r.BaseUnitID,
		ConversionFactor: r.ConversionFactor,
	}
}

func fromUnit(u *entities.Unit) *UnitRecord {
	return &UnitRecord{
		ID:               u.ID,
		Title:            u.Title,
		Symbol:           u.Symbol,
		BaseUnitID:       u.BaseUnitID,
		ConversionFactor: u.ConversionFactor,
	}
}

func toProduct(r *ProductRecord) *entities.Product {
	if r == nil {
		return nil
	}
	return &entities.Product{
		ID:         r.ID,
		Code:       r.Code,
		Name:       r.Name,
		UnitID:     r.UnitID,
		Unit:       toUnit(r.Unit),
		SupplyType: entities.SupplyType(r.SupplyType),
		IsDeleted:  r.DeletedAt.Valid,
		RowVersion: r.RowVersion,
	}
}

func fromProduct(p *entities.Product) *ProductRecord {
	return &ProductRecord{
		ID:         p.ID,
		Code:       p.Code,
		Name:       p.Name,
		UnitID:     p.UnitID,
		SupplyType: int(p.SupplyType),
		RowVersion: p.RowVersion,
	}
}

func toHeader(r *BOMHeaderRecord) *entities.BOMHeader {
	h := &entities.BOMHeader{
		ID:         r.ID,
		ProductID:  r.ProductID,
		Product:    toProduct(r.Product),
		Title:      r.Title,
		Version:    r.Version,
		Status:     entities.BOMStatus(r.Status),
		Type:       entities.BOMType(r.Type),
		FromDate:   r.FromDate,
		ToDate:     r.ToDate,
		IsActive:   r.IsActive,
		IsDeleted:  r.DeletedAt.Valid,
		RowVersion: r.RowVersion,
		Details:    make([]entities.BOMDetail, 0, len(r.Details)),
	}
	for i := range r.Details {
		h.Details = append(h.Details, toDetail(&r.Details[i]))
	}
	return h
}

func toDetail(r *BOMDetailRecord) entities.BOMDetail {
	d := entities.BOMDetail{
		ID:              r.ID,
		BOMHeaderID:     r.BOMHeaderID,
		ChildProductID:  r.ChildProductID,
		ChildProduct:    toProduct(r.ChildProduct),
		Quantity:        r.Quantity,
		WastePercentage: r.WastePercentage,
		InputQuantity:   r.InputQuantity,
		InputUnitID:     r.InputUnitID,
		Substitutes:     make([]entities.BOMSubstitute, 0, len(r.Substitutes)),
	}
	for i := range r.Substitutes {
		s := &r.Substitutes[i]
		d.Substitutes = append(d.Substitutes, entities.BOMSubstitute{
			ID:                  s.ID,
			BOMDetailID:         s.BOMDetailID,
			SubstituteProductID: s.SubstituteProductID,
			SubstituteProduct:   toProduct(s.SubstituteProduct),
			Priority:            s.Priority,
			Factor:              s.Factor,
			IsMixAllowed:        s.IsMixAllowed,
			MaxMixPercentage:    s.MaxMixPercentage,
		})
	}
	return d
}

// fromHeader maps a header without its lines
func fromHeader(h *entities.BOMHeader) *BOMHeaderRecord {
	return &BOMHeaderRecord{
		ID:         h.ID,
		ProductID:  h.ProductID,
		Title:      h.Title,
		Version:    h.Version,
		Status:     int(h.Status),
		Type:       int(h.Type),
		FromDate:   h.FromDate,
		ToDate:     h.ToDate,
		IsActive:   h.IsActive,
		RowVersion: h.RowVersion,
	}
}

// fromDetail maps a line without its substitutes
func fromDetail(headerID string, position int, d *entities.BOMDetail) *BOMDetailRecord {
	return &BOMDetailRecord{
		ID:              d.ID,
		BOMHeaderID:     headerID,
		Position:        position,
		ChildProductID:  d.ChildProductID,
		Quantity:        d.Quantity,
		WastePercentage: d.WastePercentage,
		InputQuantity:   d.InputQuantity,
		InputUnitID:     d.InputUnitID,
	}
}

func fromSubstitute(detailID string, position int, s *entities.BOMSubstitute) *BOMSubstituteRecord {
	return &BOMSubstituteRecord{
		ID:                  s.ID,
		BOMDetailID:         detailID,
		Position:            position,
		SubstituteProductID: s.SubstituteProductID,
		Priority:            s.Priority,
		Factor:              s.Factor,
		IsMixAllowed:        s.IsMixAllowed,
		MaxMixPercentage:    s.MaxMixPercentage,
	}
}
