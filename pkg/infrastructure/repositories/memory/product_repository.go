package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// GetProduct returns the non-deleted product with its unit, or nil
func (r *Repository) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.products[id]; !ok || p.IsDeleted {
		return nil, nil
	}
	return r.productView(id), nil
}

// GetProductByCode returns the non-deleted product with the given code, or nil
func (r *Repository) GetProductByCode(ctx context.Context, code string) (*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.productIDs {
		if p := r.products[id]; p.Code == code && !p.IsDeleted {
			return r.productView(id), nil
		}
	}
	return nil, nil
}

// ListProducts returns every non-deleted product in insertion order
func (r *Repository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	products := make([]*entities.Product, 0, len(r.productIDs))
	for _, id := range r.productIDs {
		if !r.products[id].IsDeleted {
			products = append(products, r.productView(id))
		}
	}
	return products, nil
}

// CreateProduct stores a product, assigning an id when missing
func (r *Repository) CreateProduct(ctx context.Context, product *entities.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if _, exists := r.products[product.ID]; exists {
		return fmt.Errorf("product %s already exists", product.ID)
	}
	if product.RowVersion == 0 {
		product.RowVersion = 1
	}

	stored := *product
	stored.Unit = nil
	r.products[product.ID] = &stored
	r.productIDs = append(r.productIDs, product.ID)
	return nil
}

// SoftDeleteProduct flags the product deleted
func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok || p.IsDeleted {
		return entities.NotFoundf("product %s", id)
	}
	p.IsDeleted = true
	p.RowVersion++
	return nil
}

// HasHeaders reports whether a non-deleted formula produces productID
func (r *Repository) HasHeaders(ctx context.Context, productID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.headers {
		if h.ProductID == productID && !h.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}
