package explosion

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/domain/services"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// DefaultMaxDepth bounds recursion when no depth is configured
const DefaultMaxDepth = 64

// Config controls explosion behavior
type Config struct {
	MaxDepth int
}

// Engine explodes formulas into multi-level component trees
type Engine struct {
	repo   repositories.BOMReader
	config Config
	log    *logger.Logger
}

// NewEngine creates an explosion engine reading formulas from repo
func NewEngine(repo repositories.BOMReader, config Config, log *logger.Logger) *Engine {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultMaxDepth
	}
	return &Engine{
		repo:   repo,
		config: config,
		log:    logger.OrNop(log).With("component", "explosion"),
	}
}

// walk holds the state of one Explode call
type walk struct {
	engine *Engine
	// active formulas by product id; a nil entry records a product without one
	formulas map[string]*entities.BOMHeader
	// products on the path from the root to the node being expanded
	onPath map[string]bool
}

// Explode builds the component tree of rootHeaderID. The root carries quantity 1 and every
// line's totalQuantity is its quantity times the parent's totalQuantity. Returns an error
// matching entities.ErrNotFound when the header does not exist.
func (e *Engine) Explode(ctx context.Context, rootHeaderID string) (*TreeNode, error) {
	header, err := e.repo.GetHeader(ctx, rootHeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load BOM header %s: %w", rootHeaderID, err)
	}
	if header == nil {
		return nil, entities.NotFoundf("BOM header %s", rootHeaderID)
	}

	w := &walk{
		engine:   e,
		formulas: make(map[string]*entities.BOMHeader),
		onPath:   make(map[string]bool),
	}

	root, err := w.explodeHeader(ctx, header, header.ProductID, decimal.NewFromInt(1), 0)
	if err != nil {
		return nil, err
	}
	root.Type = TypeFinalProduct
	return root, nil
}

// explodeHeader computes the composition of one formula scaled by multiplier
func (w *walk) explodeHeader(
	ctx context.Context,
	header *entities.BOMHeader,
	key string,
	multiplier decimal.Decimal,
	level int,
) (*TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	node := &TreeNode{
		Key:             key,
		BOMID:           header.ID,
		Quantity:        decimal.NewFromInt(1),
		TotalQuantity:   multiplier,
		WastePercentage: decimal.Zero,
		Type:            TypeSemiFinished,
		Level:           level,
		Children:        make([]*TreeNode, 0, len(header.Details)),
	}
	setProduct(node, header.ProductID, header.Product)

	w.onPath[header.ProductID] = true
	defer delete(w.onPath, header.ProductID)

	for i := range header.Details {
		child, err := w.explodeLine(ctx, &header.Details[i], key, multiplier, level+1)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// explodeLine turns one formula line into a leaf or, when the child has its own active
// formula, into that formula's subtree reframed with the line's consumption figures
func (w *walk) explodeLine(
	ctx context.Context,
	line *entities.BOMDetail,
	parentKey string,
	multiplier decimal.Decimal,
	level int,
) (*TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := parentKey + "-" + line.ChildProductID
	total := services.EffectiveQuantity(line.Quantity, line.WastePercentage, multiplier)

	leaf := &TreeNode{
		Key:             key,
		Quantity:        line.Quantity,
		TotalQuantity:   total,
		WastePercentage: line.WastePercentage,
		Type:            TypeRawMaterial,
		Level:           level,
		Substitutes:     entities.SortSubstitutesByPriority(line.Substitutes),
		Children:        []*TreeNode{},
	}
	setProduct(leaf, line.ChildProductID, line.ChildProduct)

	if w.onPath[line.ChildProductID] {
		w.engine.log.Warn("formula cycle reached, not expanding",
			"product", line.ChildProductID,
			"key", key,
		)
		leaf.CycleDetected = true
		return leaf, nil
	}

	formula, err := w.activeFormula(ctx, line.ChildProductID)
	if err != nil {
		return nil, err
	}
	if formula == nil {
		return leaf, nil
	}

	if level >= w.engine.config.MaxDepth {
		w.engine.log.Warn("explosion depth limit reached",
			"product", line.ChildProductID,
			"max_depth", w.engine.config.MaxDepth,
		)
		leaf.DepthLimited = true
		return leaf, nil
	}

	sub, err := w.explodeHeader(ctx, formula, key, total, level)
	if err != nil {
		return nil, err
	}

	sub.Quantity = line.Quantity
	sub.TotalQuantity = total
	sub.WastePercentage = line.WastePercentage
	sub.Substitutes = leaf.Substitutes
	setProduct(sub, line.ChildProductID, line.ChildProduct)

	return sub, nil
}

func (w *walk) activeFormula(ctx context.Context, productID string) (*entities.BOMHeader, error) {
	if formula, seen := w.formulas[productID]; seen {
		return formula, nil
	}

	formula, err := w.engine.repo.GetActiveHeader(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active formula for %s: %w", productID, err)
	}
	w.formulas[productID] = formula
	return formula, nil
}

func setProduct(node *TreeNode, productID string, product *entities.Product) {
	node.ProductID = productID
	if product == nil {
		return
	}
	node.ProductName = product.Name
	node.ProductCode = product.Code
	node.UnitName = product.UnitName()
}
