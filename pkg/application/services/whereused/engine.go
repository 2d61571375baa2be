package whereused

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// Usage types reported at level 1
const (
	UsageRawMaterial = "raw material"
	UsageSubstitute  = "substitute"
)

// PathSeparator joins the parent product ids of a usage path
const PathSeparator = " → "

// UsageRecord is one formula that consumes a product, directly or transitively
type UsageRecord struct {
	// ID is the consuming line, or the substitute row for substitute usages
	ID                string
	BOMID             string
	BOMTitle          string
	BOMVersion        string
	BOMStatus         entities.BOMStatus
	ParentProductID   string
	ParentProductName string
	ParentProductCode string
	// ConsumedProductID is the product consumed by the parent at this level
	ConsumedProductID string
	UsageType         string
	Quantity          decimal.Decimal
	UnitName          string
	Level             int
	// Path joins parent product ids from the queried product upward. In a closure it is
	// the first route that reached the consuming product, not every route.
	Path string
}

// Query selects a where-used result
type Query struct {
	ProductID    string
	MultiLevel   bool
	EndItemsOnly bool
	Page         pagination.Request
}

// Config controls where-used behavior
type Config struct {
	DefaultPageSize int
}

// Engine answers where-used queries against the formula graph
type Engine struct {
	repo   repositories.BOMReader
	config Config
	log    *logger.Logger
}

// NewEngine creates a where-used engine reading formulas from repo
func NewEngine(repo repositories.BOMReader, config Config, log *logger.Logger) *Engine {
	if config.DefaultPageSize <= 0 {
		config.DefaultPageSize = pagination.DefaultPageSize
	}
	return &Engine{
		repo:   repo,
		config: config,
		log:    logger.OrNop(log).With("component", "where-used"),
	}
}

// WhereUsed builds the complete usage list for q.ProductID, filters it and pages it last.
// No usage is an empty page, not an error.
func (e *Engine) WhereUsed(ctx context.Context, q Query) (pagination.Page[UsageRecord], error) {
	if strings.TrimSpace(q.ProductID) == "" {
		verr := &entities.ValidationError{}
		verr.Add("field", "product is required")
		return pagination.Page[UsageRecord]{}, verr
	}

	var (
		records []UsageRecord
		err     error
	)
	if q.MultiLevel {
		records, err = e.closure(ctx, q.ProductID)
	} else {
		records, err = e.direct(ctx, q.ProductID, 1, "")
	}
	if err != nil {
		return pagination.Page[UsageRecord]{}, err
	}

	if q.EndItemsOnly {
		records, err = e.endItems(ctx, records)
		if err != nil {
			return pagination.Page[UsageRecord]{}, err
		}
	}

	e.log.Debug("where-used resolved",
		"product", q.ProductID,
		"multi_level", q.MultiLevel,
		"end_items_only", q.EndItemsOnly,
		"records", len(records),
	)

	return pagination.Paginate(records, q.Page, e.config.DefaultPageSize), nil
}

// direct returns line usages followed by substitute usages of productID
func (e *Engine) direct(ctx context.Context, productID string, level int, basePath string) ([]UsageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		lines []repositories.LineUsage
		subs  []repositories.SubstituteUsage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = e.repo.GetLinesConsuming(gctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load lines consuming %s: %w", productID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		subs, err = e.repo.GetSubstituteUsages(gctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load substitute usages of %s: %w", productID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]UsageRecord, 0, len(lines)+len(subs))
	for _, u := range lines {
		r := newRecord(u.Header, level, basePath)
		r.ID = u.Detail.ID
		r.ConsumedProductID = u.Detail.ChildProductID
		r.UsageType = usageType(UsageRawMaterial, level)
		r.Quantity = u.Detail.Quantity
		r.UnitName = u.Detail.ChildProduct.UnitName()
		records = append(records, r)
	}
	for _, u := range subs {
		r := newRecord(u.Header, level, basePath)
		r.ID = u.Substitute.ID
		r.ConsumedProductID = u.Substitute.SubstituteProductID
		r.UsageType = usageType(UsageSubstitute, level)
		r.Quantity = u.Substitute.Factor
		r.UnitName = u.Substitute.SubstituteProduct.UnitName()
		records = append(records, r)
	}
	return records, nil
}

type frontierItem struct {
	productID string
	path      string
}

// closure walks consumers breadth-first. Every usage found is reported, but a product is
// expanded only once, from the first path that reaches it. Records above a product reachable
// along several paths therefore carry one representative Path, the shortest discovered.
func (e *Engine) closure(ctx context.Context, productID string) ([]UsageRecord, error) {
	var records []UsageRecord

	visited := map[string]bool{productID: true}
	frontier := []frontierItem{{productID: productID}}

	for level := 1; len(frontier) > 0; level++ {
		var next []frontierItem
		for _, item := range frontier {
			found, err := e.direct(ctx, item.productID, level, item.path)
			if err != nil {
				return nil, err
			}
			records = append(records, found...)

			for _, r := range found {
				if visited[r.ParentProductID] {
					continue
				}
				visited[r.ParentProductID] = true
				next = append(next, frontierItem{productID: r.ParentProductID, path: r.Path})
			}
		}
		frontier = next
	}

	return records, nil
}

// endItems keeps records whose parent product is not consumed by any active formula line
func (e *Engine) endItems(ctx context.Context, records []UsageRecord) ([]UsageRecord, error) {
	consumed, err := e.repo.GetAllActiveLinesChildIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load consumed products: %w", err)
	}

	kept := make([]UsageRecord, 0, len(records))
	for _, r := range records {
		if _, ok := consumed[r.ParentProductID]; !ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

func newRecord(header *entities.BOMHeader, level int, basePath string) UsageRecord {
	r := UsageRecord{
		BOMID:           header.ID,
		BOMTitle:        header.Title,
		BOMVersion:      header.Version,
		BOMStatus:       header.Status,
		ParentProductID: header.ProductID,
		Level:           level,
		Path:            header.ProductID,
	}
	if basePath != "" {
		r.Path = basePath + PathSeparator + header.ProductID
	}
	if header.Product != nil {
		r.ParentProductName = header.Product.Name
		r.ParentProductCode = header.Product.Code
	}
	return r
}

func usageType(base string, level int) string {
	if level <= 1 {
		return base
	}
	return fmt.Sprintf("indirect %s (level %d)", base, level)
}
