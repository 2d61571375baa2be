package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// GetUnit returns the unit, or nil
func (r *Repository) GetUnit(ctx context.Context, id string) (*entities.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return copyUnit(r.units[id]), nil
}

// CreateUnit stores a unit, assigning an id when missing
func (r *Repository) CreateUnit(ctx context.Context, unit *entities.Unit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	if _, exists := r.units[unit.ID]; exists {
		return fmt.Errorf("unit %s already exists", unit.ID)
	}

	r.units[unit.ID] = copyUnit(unit)
	return nil
}

// DeleteUnit removes the unit
func (r *Repository) DeleteUnit(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.units[id]; !ok {
		return entities.NotFoundf("unit %s", id)
	}
	delete(r.units, id)
	return nil
}

// IsBaseUnitInUse reports whether another unit converts to id
func (r *Repository) IsBaseUnitInUse(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.units {
		if u.BaseUnitID != nil && *u.BaseUnitID == id {
			return true, nil
		}
	}
	return false, nil
}

// IsUnitInUse reports whether a non-deleted product is measured in id
func (r *Repository) IsUnitInUse(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.UnitID == id && !p.IsDeleted {
			return true, nil
		}
	}
	return false, nil
}
