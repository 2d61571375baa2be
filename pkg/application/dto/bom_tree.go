package dto

import (
	"github.com/vsinha/bom/pkg/application/services/explosion"
	"github.com/vsinha/bom/pkg/domain/entities"
)

// TreeNodeDTO is the wire shape of an exploded formula node
type TreeNodeDTO struct {
	Key             string          `json:"key"`
	BOMID           *string         `json:"bomId"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductCode     string          `json:"productCode"`
	UnitName        string          `json:"unitName"`
	Quantity        string          `json:"quantity"`
	TotalQuantity   string          `json:"totalQuantity"`
	WastePercentage string          `json:"wastePercentage"`
	Type            string          `json:"type"`
	IsRecursive     bool            `json:"isRecursive"`
	CycleDetected   bool            `json:"cycleDetected,omitempty"`
	DepthLimited    bool            `json:"depthLimited,omitempty"`
	Substitutes     []SubstituteDTO `json:"substitutes,omitempty"`
	Children        []TreeNodeDTO   `json:"children"`
}

// SubstituteDTO is an alternate material of a node, in priority order
type SubstituteDTO struct {
	ProductID        string `json:"productId"`
	ProductName      string `json:"productName,omitempty"`
	ProductCode      string `json:"productCode,omitempty"`
	Priority         int    `json:"priority"`
	Factor           string `json:"factor"`
	IsMixAllowed     bool   `json:"isMixAllowed"`
	MaxMixPercentage string `json:"maxMixPercentage"`
}

// FromTreeNode projects an explosion tree
func FromTreeNode(n *explosion.TreeNode) TreeNodeDTO {
	out := TreeNodeDTO{
		Key:             n.Key,
		ProductID:       n.ProductID,
		ProductName:     n.ProductName,
		ProductCode:     n.ProductCode,
		UnitName:        n.UnitName,
		Quantity:        n.Quantity.String(),
		TotalQuantity:   n.TotalQuantity.String(),
		WastePercentage: n.WastePercentage.String(),
		Type:            n.Type,
		IsRecursive:     n.IsRecursive(),
		CycleDetected:   n.CycleDetected,
		DepthLimited:    n.DepthLimited,
		Children:        make([]TreeNodeDTO, 0, len(n.Children)),
	}
	if n.BOMID != "" {
		id := n.BOMID
		out.BOMID = &id
	}
	for _, s := range n.Substitutes {
		out.Substitutes = append(out.Substitutes, fromSubstitute(s))
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, FromTreeNode(c))
	}
	return out
}

func fromSubstitute(s entities.BOMSubstitute) SubstituteDTO {
	out := SubstituteDTO{
		ProductID:        s.SubstituteProductID,
		Priority:         s.Priority,
		Factor:           s.Factor.String(),
		IsMixAllowed:     s.IsMixAllowed,
		MaxMixPercentage: s.MaxMixPercentage.String(),
	}
	if s.SubstituteProduct != nil {
		out.ProductName = s.SubstituteProduct.Name
		out.ProductCode = s.SubstituteProduct.Code
	}
	return out
}

// RequirementDTO is one summarized raw material
type RequirementDTO struct {
	ProductID     string `json:"productId"`
	ProductCode   string `json:"productCode"`
	ProductName   string `json:"productName"`
	UnitName      string `json:"unitName"`
	TotalQuantity string `json:"totalQuantity"`
	Occurrences   int    `json:"occurrences"`
}

// FromRequirements projects an explosion summary
func FromRequirements(reqs []explosion.Requirement) []RequirementDTO {
	out := make([]RequirementDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RequirementDTO{
			ProductID:     r.ProductID,
			ProductCode:   r.ProductCode,
			ProductName:   r.ProductName,
			UnitName:      r.UnitName,
			TotalQuantity: r.TotalQuantity.String(),
			Occurrences:   r.Occurrences,
		})
	}
	return out
}
