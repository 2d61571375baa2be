package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/application/services/explosion"
	"github.com/vsinha/bom/pkg/application/services/whereused"
	"github.com/vsinha/bom/pkg/domain/entities"
)

func TestFromTreeNode(t *testing.T) {
	tree := &explosion.TreeNode{
		Key:             "A",
		BOMID:           "H-A",
		ProductID:       "A",
		Quantity:        decimal.NewFromInt(1),
		TotalQuantity:   decimal.NewFromInt(1),
		WastePercentage: decimal.Zero,
		Type:            explosion.TypeFinalProduct,
		Children: []*explosion.TreeNode{
			{
				Key:             "A-B",
				ProductID:       "B",
				Quantity:        decimal.RequireFromString("0.000125"),
				TotalQuantity:   decimal.RequireFromString("0.000125"),
				WastePercentage: decimal.RequireFromString("2.5"),
				Type:            explosion.TypeRawMaterial,
				Substitutes: []entities.BOMSubstitute{{
					SubstituteProductID: "S",
					SubstituteProduct:   &entities.Product{ID: "S", Code: "P-S", Name: "Steel"},
					Priority:            1,
					Factor:              decimal.RequireFromString("1.25"),
				}},
			},
		},
	}

	out := FromTreeNode(tree)
	require.NotNil(t, out.BOMID)
	assert.Equal(t, "H-A", *out.BOMID)
	assert.True(t, out.IsRecursive)
	require.Len(t, out.Children, 1)

	leaf := out.Children[0]
	assert.Nil(t, leaf.BOMID)
	assert.False(t, leaf.IsRecursive)
	assert.Equal(t, "0.000125", leaf.TotalQuantity)
	assert.Equal(t, "2.5", leaf.WastePercentage)
	require.Len(t, leaf.Substitutes, 1)
	assert.Equal(t, "P-S", leaf.Substitutes[0].ProductCode)
	assert.Equal(t, "1.25", leaf.Substitutes[0].Factor)
	assert.NotNil(t, leaf.Children)

	raw, err := json.Marshal(leaf)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bomId":null`)
	assert.Contains(t, string(raw), `"children":[]`)
}

func TestFromUsagePage(t *testing.T) {
	page := pagination.Page[whereused.UsageRecord]{
		Items: []whereused.UsageRecord{{
			ID:              "L1",
			BOMID:           "H-A",
			BOMStatus:       entities.Active,
			ParentProductID: "A",
			UsageType:       "indirect raw material (level 2)",
			Quantity:        decimal.NewFromInt(2),
			Level:           2,
			Path:            "B → A",
		}},
		PageNumber: 2,
		PageSize:   1,
		TotalCount: 2,
		TotalPages: 2,
	}

	out := FromUsagePage(page)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "Active", out.Items[0].BOMStatus)
	assert.Equal(t, "2", out.Items[0].Quantity)
	assert.Equal(t, 2, out.TotalCount)

	empty := FromUsagePage(pagination.Page[whereused.UsageRecord]{})
	raw, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"items":[]`)
}
