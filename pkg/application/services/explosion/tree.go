package explosion

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// Node category labels
const (
	TypeFinalProduct = "final/semi-finished product"
	TypeSemiFinished = "semi-finished"
	TypeRawMaterial  = "raw material"
)

// TreeNode is one product in an exploded formula tree
type TreeNode struct {
	// Key is the parent key joined with the product id, unique within one tree
	Key         string
	BOMID       string // empty for leaves
	ProductID   string
	ProductName string
	ProductCode string
	UnitName    string

	Quantity        decimal.Decimal
	TotalQuantity   decimal.Decimal
	WastePercentage decimal.Decimal

	Type  string
	Level int

	// CycleDetected marks a product already present on the path from the root; it is not expanded
	CycleDetected bool
	// DepthLimited marks a node whose formula was not expanded because the depth bound was reached
	DepthLimited bool

	Substitutes []entities.BOMSubstitute
	Children    []*TreeNode
}

// IsRecursive reports whether the node has children
func (n *TreeNode) IsRecursive() bool {
	return len(n.Children) > 0
}

// FlatRow is a tree node with its depth, in depth-first order
type FlatRow struct {
	Depth     int
	ParentKey string
	Node      *TreeNode
}

// Flatten lists the tree depth-first, parents before children
func Flatten(root *TreeNode) []FlatRow {
	if root == nil {
		return nil
	}
	var rows []FlatRow
	var walk func(n *TreeNode, parentKey string, depth int)
	walk = func(n *TreeNode, parentKey string, depth int) {
		rows = append(rows, FlatRow{Depth: depth, ParentKey: parentKey, Node: n})
		for _, c := range n.Children {
			walk(c, n.Key, depth+1)
		}
	}
	walk(root, "", 0)
	return rows
}

// Requirement is the total leaf consumption of one product across a tree
type Requirement struct {
	ProductID     string
	ProductCode   string
	ProductName   string
	UnitName      string
	TotalQuantity decimal.Decimal
	Occurrences   int
}

// Summarize sums TotalQuantity of every leaf below root by product, ordered by product code
func Summarize(root *TreeNode) []Requirement {
	if root == nil {
		return nil
	}

	byProduct := make(map[string]*Requirement)
	var walk func(n *TreeNode)
	walk = func(n *TreeNode) {
		for _, c := range n.Children {
			if c.IsRecursive() {
				walk(c)
				continue
			}
			req, ok := byProduct[c.ProductID]
			if !ok {
				req = &Requirement{
					ProductID:     c.ProductID,
					ProductCode:   c.ProductCode,
					ProductName:   c.ProductName,
					UnitName:      c.UnitName,
					TotalQuantity: decimal.Zero,
				}
				byProduct[c.ProductID] = req
			}
			req.TotalQuantity = req.TotalQuantity.Add(c.TotalQuantity)
			req.Occurrences++
		}
	}
	walk(root)

	result := make([]Requirement, 0, len(byProduct))
	for _, req := range byProduct {
		result = append(result, *req)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ProductCode != result[j].ProductCode {
			return result[i].ProductCode < result[j].ProductCode
		}
		return result[i].ProductID < result[j].ProductID
	})
	return result
}
