package repositories

import (
	"context"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// UnitRepository provides access to units of measure
type UnitRepository interface {
	// GetUnit returns the unit, or nil when it does not exist
	GetUnit(ctx context.Context, id string) (*entities.Unit, error)
	CreateUnit(ctx context.Context, unit *entities.Unit) error
	DeleteUnit(ctx context.Context, id string) error
	// IsBaseUnitInUse reports whether another unit converts to id
	IsBaseUnitInUse(ctx context.Context, id string) (bool, error)
	// IsUnitInUse reports whether a non-deleted product uses id as its unit
	IsUnitInUse(ctx context.Context, id string) (bool, error)
}
