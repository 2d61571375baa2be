package formula

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/domain/services"
	"github.com/vsinha/bom/pkg/infrastructure/cache"
	"github.com/vsinha/bom/pkg/infrastructure/events"
	"github.com/vsinha/bom/pkg/infrastructure/logger"
)

// Service authors formulas. Every write runs normalize, validate, persist, audit and
// cache invalidation in that order; nothing is persisted when validation fails.
type Service struct {
	boms      repositories.BOMRepository
	products  repositories.ProductRepository
	units     repositories.UnitRepository
	validator *services.BOMValidator
	audit     events.EventStore
	cache     cache.Store
	log       *logger.Logger
}

// NewService creates a formula service. audit and store may be nil.
func NewService(
	boms repositories.BOMRepository,
	products repositories.ProductRepository,
	units repositories.UnitRepository,
	audit events.EventStore,
	store cache.Store,
	log *logger.Logger,
) *Service {
	return &Service{
		boms:      boms,
		products:  products,
		units:     units,
		validator: services.NewBOMValidator(boms),
		audit:     audit,
		cache:     store,
		log:       logger.OrNop(log).With("component", "formula"),
	}
}

// Create stores a new formula and returns it with its assigned ids and row version
func (s *Service) Create(ctx context.Context, header *entities.BOMHeader) (*entities.BOMHeader, error) {
	if err := s.prepare(ctx, header); err != nil {
		return nil, err
	}

	if err := s.boms.CreateHeader(ctx, header); err != nil {
		return nil, fmt.Errorf("failed to create formula for %s: %w", header.ProductID, err)
	}

	s.log.Info("formula created", "header", header.ID, "product", header.ProductID, "version", header.Version)
	s.record(events.NewFormulaCreatedEvent(changeOf(header)))
	s.invalidate(ctx)
	return header, nil
}

// Update replaces a formula's fields and reconciles its lines. expectedRowVersion is the
// version the caller loaded; a mismatch fails with entities.ErrConcurrencyConflict.
func (s *Service) Update(ctx context.Context, header *entities.BOMHeader, expectedRowVersion int64) (*entities.BOMHeader, error) {
	existing, err := s.boms.GetHeader(ctx, header.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load formula %s: %w", header.ID, err)
	}
	if existing == nil {
		return nil, entities.NotFoundf("BOM header %s", header.ID)
	}

	if err := s.prepare(ctx, header); err != nil {
		return nil, err
	}

	if err := s.boms.UpdateHeader(ctx, header, expectedRowVersion); err != nil {
		return nil, fmt.Errorf("failed to update formula %s: %w", header.ID, err)
	}

	s.log.Info("formula updated", "header", header.ID, "row_version", header.RowVersion)
	s.record(events.NewFormulaUpdatedEvent(changeOf(header)))
	s.invalidate(ctx)
	return header, nil
}

// Copy deep-clones sourceHeaderID into a new Draft formula for targetProductID
func (s *Service) Copy(ctx context.Context, sourceHeaderID, targetProductID, version string) (*entities.BOMHeader, error) {
	source, err := s.boms.GetHeader(ctx, sourceHeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load formula %s: %w", sourceHeaderID, err)
	}
	if source == nil {
		return nil, entities.NotFoundf("BOM header %s", sourceHeaderID)
	}

	if err := s.validator.ValidateCopy(ctx, source, targetProductID, version); err != nil {
		return nil, err
	}

	target, err := s.products.GetProduct(ctx, targetProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %s: %w", targetProductID, err)
	}
	if target == nil {
		return nil, entities.NotFoundf("product %s", targetProductID)
	}

	clone := cloneForCopy(source, target, version)
	if err := s.boms.CreateHeader(ctx, clone); err != nil {
		return nil, fmt.Errorf("failed to copy formula %s: %w", sourceHeaderID, err)
	}

	s.log.Info("formula copied", "source", sourceHeaderID, "header", clone.ID, "product", targetProductID)
	s.record(events.NewFormulaCopiedEvent(events.FormulaCopied{
		SourceHeaderID:  sourceHeaderID,
		HeaderID:        clone.ID,
		TargetProductID: targetProductID,
		Version:         version,
	}))
	s.invalidate(ctx)
	return clone, nil
}

// Delete soft-deletes a formula. It is refused while the formula's product is still consumed
// by an active formula line.
func (s *Service) Delete(ctx context.Context, headerID string, expectedRowVersion int64) error {
	header, err := s.boms.GetHeader(ctx, headerID)
	if err != nil {
		return fmt.Errorf("failed to load formula %s: %w", headerID, err)
	}
	if header == nil {
		return entities.NotFoundf("BOM header %s", headerID)
	}

	consumers, err := s.boms.GetLinesConsuming(ctx, header.ProductID)
	if err != nil {
		return fmt.Errorf("failed to check consumers of %s: %w", header.ProductID, err)
	}
	if len(consumers) > 0 {
		return entities.NewIntegrityError("product %s is still consumed by formula %s (%s)",
			header.ProductID, consumers[0].Header.ID, consumers[0].Header.Version)
	}

	if err := s.boms.SoftDeleteHeader(ctx, headerID, expectedRowVersion); err != nil {
		return fmt.Errorf("failed to delete formula %s: %w", headerID, err)
	}

	s.log.Info("formula deleted", "header", headerID, "product", header.ProductID)
	s.record(events.NewFormulaDeletedEvent(events.FormulaDeleted{HeaderID: headerID, ProductID: header.ProductID}))
	s.invalidate(ctx)
	return nil
}

// Audit reports cycles anywhere in the stored formula graph
func (s *Service) Audit(ctx context.Context) (*services.AuditResult, error) {
	headers, err := s.boms.ListHeaders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list formulas: %w", err)
	}
	result := s.validator.AuditGraph(headers)
	if result.HasCycles {
		s.log.Warn("formula graph has cycles", "cycles", len(result.CyclePaths))
	}
	return result, nil
}

// prepare normalizes input quantities, checks references and runs the write guard
func (s *Service) prepare(ctx context.Context, header *entities.BOMHeader) error {
	verr := &entities.ValidationError{}
	if err := s.normalize(ctx, header, verr); err != nil {
		return err
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	return s.validator.ValidateHeader(ctx, header)
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

func changeOf(h *entities.BOMHeader) events.FormulaChanged {
	return events.FormulaChanged{
		HeaderID:   h.ID,
		ProductID:  h.ProductID,
		Version:    h.Version,
		Status:     h.Status.String(),
		Lines:      len(h.Details),
		RowVersion: h.RowVersion,
	}
}

func cloneForCopy(source *entities.BOMHeader, target *entities.Product, version string) *entities.BOMHeader {
	clone := source.Clone()
	clone.ID = ""
	clone.ProductID = target.ID
	clone.Product = target
	clone.Version = version
	clone.Status = entities.Draft
	clone.IsActive = false
	clone.IsDeleted = false
	clone.RowVersion = 0
	for i := range clone.Details {
		clone.Details[i].ID = ""
		clone.Details[i].BOMHeaderID = ""
		for j := range clone.Details[i].Substitutes {
			clone.Details[i].Substitutes[j].ID = ""
			clone.Details[i].Substitutes[j].BOMDetailID = ""
		}
	}
	return clone
}
