package gormrepo

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// GetProduct returns the non-deleted product with its unit, or nil
func (r *Repository) GetProduct(ctx context.Context, id string) (*entities.Product, error) {
	var record ProductRecord
	if err := r.db.WithContext(ctx).Preload("Unit").First(&record, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load product %s: %w", id, err)
	}
	return toProduct(&record), nil
}

// GetProductByCode returns the non-deleted product with the given code, or nil
func (r *Repository) GetProductByCode(ctx context.Context, code string) (*entities.Product, error) {
	var record ProductRecord
	if err := r.db.WithContext(ctx).Preload("Unit").First(&record, "code = ?", code).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load product %s: %w", code, err)
	}
	return toProduct(&record), nil
}

// ListProducts returns every non-deleted product ordered by code
func (r *Repository) ListProducts(ctx context.Context) ([]*entities.Product, error) {
	var records []ProductRecord
	if err := r.db.WithContext(ctx).Preload("Unit").Order("code ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	products := make([]*entities.Product, 0, len(records))
	for i := range records {
		products = append(products, toProduct(&records[i]))
	}
	return products, nil
}

// CreateProduct stores a product, assigning an id when missing
func (r *Repository) CreateProduct(ctx context.Context, product *entities.Product) error {
	if product.RowVersion == 0 {
		product.RowVersion = 1
	}
	record := fromProduct(product)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.Code, err)
	}
	product.ID = record.ID
	return nil
}

// SoftDeleteProduct flags the product deleted
func (r *Repository) SoftDeleteProduct(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&ProductRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"row_version": gorm.Expr("row_version + 1"),
			"deleted_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.NotFoundf("product %s", id)
	}
	return nil
}

// HasHeaders reports whether a non-deleted formula produces productID
func (r *Repository) HasHeaders(ctx context.Context, productID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BOMHeaderRecord{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
