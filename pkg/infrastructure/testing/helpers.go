package testing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/memory"
)

// EachUnitID is the unit every fixture product is measured in
const EachUnitID = "u-ea"

// mustCreateProduct is a helper for tests - panics on validation error
func mustCreateProduct(id, name string, supplyType entities.SupplyType) *entities.Product {
	product, err := entities.NewProduct(id, "P-"+id, name, EachUnitID, supplyType)
	if err != nil {
		panic(err)
	}
	return product
}

// NewRepository returns an empty in-memory gateway holding the "each" unit
func NewRepository() *memory.Repository {
	repo := memory.NewRepository()
	AddEachUnit(repo)
	return repo
}

// AddEachUnit registers the "each" unit every fixture product uses
func AddEachUnit(repo repositories.UnitRepository) {
	unit, err := entities.NewUnit(EachUnitID, "each", "ea", nil, decimal.Zero)
	if err != nil {
		panic(err)
	}
	if err := repo.CreateUnit(context.Background(), unit); err != nil {
		panic(err)
	}
}

// AddProducts registers one product per id, named after the id
func AddProducts(repo repositories.ProductRepository, ids ...string) {
	for _, id := range ids {
		if err := repo.CreateProduct(context.Background(), mustCreateProduct(id, id, entities.Manufactured)); err != nil {
			panic(err)
		}
	}
}

// Line builds a formula line consuming qty of child
func Line(child, qty string, subs ...entities.BOMSubstitute) entities.BOMDetail {
	return entities.BOMDetail{
		ChildProductID:  child,
		Quantity:        decimal.RequireFromString(qty),
		WastePercentage: decimal.Zero,
		Substitutes:     subs,
	}
}

// Substitute builds a substitute row
func Substitute(product string, priority int, factor string) entities.BOMSubstitute {
	return entities.BOMSubstitute{
		SubstituteProductID: product,
		Priority:            priority,
		Factor:              decimal.RequireFromString(factor),
	}
}

// ActiveHeader builds an Active, IsActive formula
func ActiveHeader(id, productID, version string, lines ...entities.BOMDetail) *entities.BOMHeader {
	return &entities.BOMHeader{
		ID:        id,
		ProductID: productID,
		Title:     productID + " formula",
		Version:   version,
		Status:    entities.Active,
		Type:      entities.Manufacturing,
		IsActive:  true,
		Details:   lines,
	}
}

// MustCreateHeaders stores headers, panicking on failure
func MustCreateHeaders(repo repositories.BOMWriter, headers ...*entities.BOMHeader) {
	for _, h := range headers {
		if err := repo.CreateHeader(context.Background(), h); err != nil {
			panic(err)
		}
	}
}

// BuildChainTestData builds A -> B -> C: A consumes 2 B, B consumes 3 C
func BuildChainTestData() *memory.Repository {
	repo := NewRepository()
	AddProducts(repo, "A", "B", "C")
	MustCreateHeaders(repo,
		ActiveHeader("H-A", "A", "1.0", Line("B", "2")),
		ActiveHeader("H-B", "B", "1.0", Line("C", "3")),
	)
	return repo
}

// BuildWhereUsedTestData builds the consumption graph around raw material Z:
// A consumes 2 B, B consumes 3 Z, and Y consumes 5 Z while X accepts Z as a substitute (factor 2) for W.
func BuildWhereUsedTestData() *memory.Repository {
	repo := NewRepository()
	AddProducts(repo, "A", "B", "W", "X", "Y", "Z")
	MustCreateHeaders(repo,
		ActiveHeader("H-A", "A", "1.0", Line("B", "2")),
		ActiveHeader("H-B", "B", "1.0", Line("Z", "3")),
		ActiveHeader("H-Y", "Y", "1.0", Line("Z", "5")),
		ActiveHeader("H-X", "X", "1.0", Line("W", "4", Substitute("Z", 1, "2"))),
	)
	return repo
}
