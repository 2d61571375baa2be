package formula

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/services"
)

// normalize resolves every referenced product and converts quantities entered in an
// alternate unit into the child product's own unit. Unknown references become violations;
// gateway failures are returned.
func (s *Service) normalize(ctx context.Context, header *entities.BOMHeader, verr *entities.ValidationError) error {
	products := make(map[string]*entities.Product)
	resolve := func(id string) (*entities.Product, error) {
		if p, ok := products[id]; ok {
			return p, nil
		}
		p, err := s.products.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load product %s: %w", id, err)
		}
		products[id] = p
		return p, nil
	}

	if header.ProductID != "" {
		p, err := resolve(header.ProductID)
		if err != nil {
			return err
		}
		if p == nil {
			verr.Add(services.RuleField, "product %s does not exist", header.ProductID)
		}
	}

	for i := range header.Details {
		d := &header.Details[i]
		if d.ChildProductID == "" {
			continue
		}

		child, err := resolve(d.ChildProductID)
		if err != nil {
			return err
		}
		if child == nil {
			verr.Add(services.RuleField, "material %s does not exist", d.ChildProductID)
			continue
		}

		if err := s.convertInput(ctx, d, child, verr); err != nil {
			return err
		}

		for _, sub := range d.Substitutes {
			p, err := resolve(sub.SubstituteProductID)
			if err != nil {
				return err
			}
			if p == nil {
				verr.Add(services.RuleField, "substitute %s does not exist", sub.SubstituteProductID)
			}
		}
	}
	return nil
}

// convertInput derives Quantity from InputQuantity when the line was entered in another unit
func (s *Service) convertInput(ctx context.Context, d *entities.BOMDetail, child *entities.Product, verr *entities.ValidationError) error {
	if d.InputUnitID == nil || *d.InputUnitID == "" {
		return nil
	}
	if !d.InputQuantity.IsPositive() {
		verr.Add(services.RuleField, "input quantity of %s must be positive, got %s", d.ChildProductID, d.InputQuantity)
		return nil
	}

	if *d.InputUnitID == child.UnitID {
		d.Quantity = d.InputQuantity
		return nil
	}

	unit, err := s.units.GetUnit(ctx, *d.InputUnitID)
	if err != nil {
		return fmt.Errorf("failed to load unit %s: %w", *d.InputUnitID, err)
	}
	if unit == nil {
		verr.Add(services.RuleField, "unit %s does not exist", *d.InputUnitID)
		return nil
	}
	if unit.BaseUnitID == nil || *unit.BaseUnitID != child.UnitID {
		verr.Add(services.RuleField, "unit %s does not convert to the unit of %s", unit.Title, d.ChildProductID)
		return nil
	}

	d.Quantity = unit.ToBase(d.InputQuantity)
	return nil
}
