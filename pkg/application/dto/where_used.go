package dto

import (
	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/application/services/whereused"
)

// UsageRecordDTO is the wire shape of one where-used row
type UsageRecordDTO struct {
	ID                string `json:"id"`
	BOMID             string `json:"bomId"`
	BOMTitle          string `json:"bomTitle"`
	BOMVersion        string `json:"bomVersion"`
	BOMStatus         string `json:"bomStatus"`
	ParentProductID   string `json:"parentProductId"`
	ParentProductName string `json:"parentProductName"`
	ParentProductCode string `json:"parentProductCode"`
	UsageType         string `json:"usageType"`
	Quantity          string `json:"quantity"`
	UnitName          string `json:"unitName"`
	Level             int    `json:"level"`
	Path              string `json:"path"`
}

// PageDTO is the page envelope
type PageDTO[T any] struct {
	Items      []T `json:"items"`
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// FromUsageRecord projects one where-used record
func FromUsageRecord(r whereused.UsageRecord) UsageRecordDTO {
	return UsageRecordDTO{
		ID:                r.ID,
		BOMID:             r.BOMID,
		BOMTitle:          r.BOMTitle,
		BOMVersion:        r.BOMVersion,
		BOMStatus:         r.BOMStatus.String(),
		ParentProductID:   r.ParentProductID,
		ParentProductName: r.ParentProductName,
		ParentProductCode: r.ParentProductCode,
		UsageType:         r.UsageType,
		Quantity:          r.Quantity.String(),
		UnitName:          r.UnitName,
		Level:             r.Level,
		Path:              r.Path,
	}
}

// FromUsagePage projects a where-used page
func FromUsagePage(p pagination.Page[whereused.UsageRecord]) PageDTO[UsageRecordDTO] {
	items := make([]UsageRecordDTO, 0, len(p.Items))
	for _, r := range p.Items {
		items = append(items, FromUsageRecord(r))
	}
	return PageDTO[UsageRecordDTO]{
		Items:      items,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
		TotalCount: p.TotalCount,
		TotalPages: p.TotalPages,
	}
}
