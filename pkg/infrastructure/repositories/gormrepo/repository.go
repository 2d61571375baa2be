package gormrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/domain/services"
)

// Repository is the relational gateway over units, products and formulas
type Repository struct {
	db       *gorm.DB
	versions *services.VersionComparator
}

// NewRepository wraps an open, migrated database
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:       db,
		versions: services.NewVersionComparator(),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*Repository)(nil)
var _ repositories.ProductRepository = (*Repository)(nil)
var _ repositories.UnitRepository = (*Repository)(nil)

// unscoped lets references resolve to soft-deleted products so old formulas keep their names
func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// headerQuery preloads everything a header view needs, lines and substitutes in authored order
func (r *Repository) headerQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Product", unscoped).
		Preload("Product.Unit").
		Preload("Details", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Details.ChildProduct", unscoped).
		Preload("Details.ChildProduct.Unit").
		Preload("Details.Substitutes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Details.Substitutes.SubstituteProduct", unscoped).
		Preload("Details.Substitutes.SubstituteProduct.Unit")
}

// loadHeaders returns the headers with the given ids, oldest first
func (r *Repository) loadHeaders(ctx context.Context, ids []string) ([]*entities.BOMHeader, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var records []BOMHeaderRecord
	if err := r.headerQuery(ctx).Where("id IN ?", ids).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	headers := make([]*entities.BOMHeader, 0, len(records))
	for i := range records {
		headers = append(headers, toHeader(&records[i]))
	}
	return headers, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func assignLineIDs(header *entities.BOMHeader) {
	for i := range header.Details {
		d := &header.Details[i]
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		d.BOMHeaderID = header.ID
		for j := range d.Substitutes {
			s := &d.Substitutes[j]
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			s.BOMDetailID = d.ID
		}
	}
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
