package masterdata

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/domain/services"
	"github.com/vsinha/bom/pkg/infrastructure/cache"
	"github.com/vsinha/bom/pkg/infrastructure/events"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// RuleDuplicateCode rejects a product code already in use
const RuleDuplicateCode = "duplicate-code"

// Service maintains products and units of measure
type Service struct {
	products repositories.ProductRepository
	units    repositories.UnitRepository
	boms     repositories.BOMReader
	audit    events.EventStore
	cache    cache.Store
	log      *logger.Logger
}

// NewService creates a master data service. audit and store may be nil.
func NewService(
	products repositories.ProductRepository,
	units repositories.UnitRepository,
	boms repositories.BOMReader,
	audit events.EventStore,
	store cache.Store,
	log *logger.Logger,
) *Service {
	return &Service{
		products: products,
		units:    units,
		boms:     boms,
		audit:    audit,
		cache:    store,
		log:      logger.OrNop(log).With("component", "masterdata"),
	}
}

// CreateUnit stores a unit. A derived unit must point at an existing base unit that is
// itself a base, keeping conversion chains one level deep.
func (s *Service) CreateUnit(ctx context.Context, id, title, symbol string, baseUnitID *string, factor decimal.Decimal) (*entities.Unit, error) {
	unit, err := entities.NewUnit(id, title, symbol, baseUnitID, factor)
	if err != nil {
		return nil, fieldError(err)
	}

	if baseUnitID != nil {
		base, err := s.units.GetUnit(ctx, *baseUnitID)
		if err != nil {
			return nil, fmt.Errorf("failed to load unit %s: %w", *baseUnitID, err)
		}
		if base == nil {
			return nil, fieldError(fmt.Errorf("base unit %s does not exist", *baseUnitID))
		}
		if !base.IsBase() {
			return nil, fieldError(fmt.Errorf("base unit %s is itself derived from another unit", base.Title))
		}
	}

	if err := s.units.CreateUnit(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create unit %s: %w", title, err)
	}

	s.log.Info("unit created", "unit", unit.ID, "title", unit.Title)
	s.record(events.NewUnitCreatedEvent(events.UnitChanged{UnitID: unit.ID, Title: unit.Title}))
	return unit, nil
}

// DeleteUnit removes a unit no other unit or product refers to
func (s *Service) DeleteUnit(ctx context.Context, id string) error {
	unit, err := s.units.GetUnit(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load unit %s: %w", id, err)
	}
	if unit == nil {
		return entities.NotFoundf("unit %s", id)
	}

	isBase, err := s.units.IsBaseUnitInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check derived units of %s: %w", id, err)
	}
	if isBase {
		return entities.NewIntegrityError("unit %s is the base of another unit", unit.Title)
	}

	inUse, err := s.units.IsUnitInUse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check products measured in %s: %w", id, err)
	}
	if inUse {
		return entities.NewIntegrityError("unit %s is used by a product", unit.Title)
	}

	if err := s.units.DeleteUnit(ctx, id); err != nil {
		return fmt.Errorf("failed to delete unit %s: %w", id, err)
	}

	s.log.Info("unit deleted", "unit", id)
	s.record(events.NewUnitDeletedEvent(events.UnitChanged{UnitID: id, Title: unit.Title}))
	s.invalidate(ctx)
	return nil
}

// CreateProduct stores a product with a unique code measured in an existing unit
func (s *Service) CreateProduct(ctx context.Context, id, code, name, unitID string, supplyType entities.SupplyType) (*entities.Product, error) {
	product, err := entities.NewProduct(id, code, name, unitID, supplyType)
	if err != nil {
		return nil, fieldError(err)
	}

	verr := &entities.ValidationError{}

	existing, err := s.products.GetProductByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check product code %s: %w", code, err)
	}
	if existing != nil {
		verr.Add(RuleDuplicateCode, "product code %s is already used by %s", code, existing.ID)
	}

	unit, err := s.units.GetUnit(ctx, unitID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unit %s: %w", unitID, err)
	}
	if unit == nil {
		verr.Add(services.RuleField, "unit %s does not exist", unitID)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product %s: %w", code, err)
	}
	product.Unit = unit

	s.log.Info("product created", "product", product.ID, "code", code)
	s.record(events.NewProductCreatedEvent(events.ProductChanged{ProductID: product.ID, Code: code}))
	return product, nil
}

// DeleteProduct soft-deletes a product that no active formula line consumes and that owns
// no formula of its own
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load product %s: %w", id, err)
	}
	if product == nil {
		return entities.NotFoundf("product %s", id)
	}

	consumers, err := s.boms.GetLinesConsuming(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check consumers of %s: %w", id, err)
	}
	if len(consumers) > 0 {
		return entities.NewIntegrityError("product %s is consumed by formula %s of %s",
			product.Code, consumers[0].Header.Version, consumers[0].Header.ProductID)
	}

	hasFormulas, err := s.products.HasHeaders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check formulas of %s: %w", id, err)
	}
	if hasFormulas {
		return entities.NewIntegrityError("product %s still has formulas, delete them first", product.Code)
	}

	if err := s.products.SoftDeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}

	s.log.Info("product deleted", "product", id)
	s.record(events.NewProductDeletedEvent(events.ProductChanged{ProductID: id, Code: product.Code}))
	s.invalidate(ctx)
	return nil
}

func fieldError(err error) error {
	verr := &entities.ValidationError{}
	verr.Add(services.RuleField, "%s", err.Error())
	return verr
}

func (s *Service) record(event events.Event) {
	if s.audit == nil {
		return
	}
	if err := s.audit.AppendEvent(event.StreamID(), event); err != nil {
		s.log.Error("failed to record audit event", "event", event.Type(), "error", err)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTags(ctx, cache.TagBOM); err != nil {
		s.log.Warn("cache invalidation failed", "error", err)
	}
}
