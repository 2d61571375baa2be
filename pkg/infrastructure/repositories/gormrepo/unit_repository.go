package gormrepo

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// GetUnit returns the unit, or nil
func (r *Repository) GetUnit(ctx context.Context, id string) (*entities.Unit, error) {
	var record UnitRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load unit %s: %w", id, err)
	}
	return toUnit(&record), nil
}

// CreateUnit stores a unit, assigning an id when missing
func (r *Repository) CreateUnit(ctx context.Context, unit *entities.Unit) error {
	record := fromUnit(unit)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create unit %s: %w", unit.Title, err)
	}
	unit.ID = record.ID
	return nil
}

// DeleteUnit removes the unit
func (r *Repository) DeleteUnit(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&UnitRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete unit %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return entities.NotFoundf("unit %s", id)
	}
	return nil
}

// IsBaseUnitInUse reports whether another unit converts to id
func (r *Repository) IsBaseUnitInUse(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&UnitRecord{}).Where("base_unit_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsUnitInUse reports whether a non-deleted product is measured in id
func (r *Repository) IsUnitInUse(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ProductRecord{}).Where("unit_id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
