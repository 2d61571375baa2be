package repositories

import (
	"context"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// ProductRepository provides access to product master data
type ProductRepository interface {
	// GetProduct returns the product with its unit, or nil when it does not exist
	GetProduct(ctx context.Context, id string) (*entities.Product, error)
	GetProductByCode(ctx context.Context, code string) (*entities.Product, error)
	ListProducts(ctx context.Context) ([]*entities.Product, error)
	CreateProduct(ctx context.Context, product *entities.Product) error
	SoftDeleteProduct(ctx context.Context, id string) error
	// HasHeaders reports whether any non-deleted formula produces the product
	HasHeaders(ctx context.Context, productID string) (bool, error)
}
