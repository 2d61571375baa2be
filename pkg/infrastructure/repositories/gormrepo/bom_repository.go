package gormrepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
)

const activeHeaderJoin = "JOIN bom_headers ON bom_headers.id = bom_details.bom_header_id AND bom_headers.deleted_at IS NULL"

// GetActiveHeader returns the product's highest-version Active formula, or nil
func (r *Repository) GetActiveHeader(ctx context.Context, productID string) (*entities.BOMHeader, error) {
	var records []BOMHeaderRecord
	err := r.headerQuery(ctx).
		Where("product_id = ? AND status = ?", productID, int(entities.Active)).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load formulas of %s: %w", productID, err)
	}

	candidates := make([]*entities.BOMHeader, 0, len(records))
	for i := range records {
		candidates = append(candidates, toHeader(&records[i]))
	}
	return r.versions.SelectActiveHeader(candidates), nil
}

// GetHeader returns the non-deleted header, or nil
func (r *Repository) GetHeader(ctx context.Context, headerID string) (*entities.BOMHeader, error) {
	var record BOMHeaderRecord
	if err := r.headerQuery(ctx).First(&record, "id = ?", headerID).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load formula %s: %w", headerID, err)
	}
	return toHeader(&record), nil
}

// GetLinesConsuming returns lines of active headers whose child is productID
func (r *Repository) GetLinesConsuming(ctx context.Context, productID string) ([]repositories.LineUsage, error) {
	var headerIDs []string
	err := r.db.WithContext(ctx).Model(&BOMDetailRecord{}).
		Joins(activeHeaderJoin).
		Where("bom_details.child_product_id = ? AND bom_headers.is_active = ?", productID, true).
		Pluck("bom_details.bom_header_id", &headerIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find consumers of %s: %w", productID, err)
	}

	headers, err := r.loadHeaders(ctx, unique(headerIDs))
	if err != nil {
		return nil, err
	}

	usages := make([]repositories.LineUsage, 0)
	for _, h := range headers {
		for i := range h.Details {
			if h.Details[i].ChildProductID == productID {
				usages = append(usages, repositories.LineUsage{Header: h, Detail: &h.Details[i]})
			}
		}
	}
	return usages, nil
}

// GetSubstituteUsages returns substitutes for productID on lines of active headers
func (r *Repository) GetSubstituteUsages(ctx context.Context, productID string) ([]repositories.SubstituteUsage, error) {
	var headerIDs []string
	err := r.db.WithContext(ctx).Model(&BOMSubstituteRecord{}).
		Joins("JOIN bom_details ON bom_details.id = bom_substitutes.bom_detail_id").
		Joins(activeHeaderJoin).
		Where("bom_substitutes.substitute_product_id = ? AND bom_headers.is_active = ?", productID, true).
		Pluck("bom_details.bom_header_id", &headerIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find substitute usages of %s: %w", productID, err)
	}

	headers, err := r.loadHeaders(ctx, unique(headerIDs))
	if err != nil {
		return nil, err
	}

	usages := make([]repositories.SubstituteUsage, 0)
	for _, h := range headers {
		for i := range h.Details {
			for j := range h.Details[i].Substitutes {
				if h.Details[i].Substitutes[j].SubstituteProductID == productID {
					usages = append(usages, repositories.SubstituteUsage{
						Header:     h,
						Detail:     &h.Details[i],
						Substitute: &h.Details[i].Substitutes[j],
					})
				}
			}
		}
	}
	return usages, nil
}

// GetAllActiveLinesChildIDs returns the child product ids of every active line
func (r *Repository) GetAllActiveLinesChildIDs(ctx context.Context) (map[string]struct{}, error) {
	var childIDs []string
	err := r.db.WithContext(ctx).Model(&BOMDetailRecord{}).
		Joins(activeHeaderJoin).
		Where("bom_headers.is_active = ?", true).
		Pluck("bom_details.child_product_id", &childIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list consumed products: %w", err)
	}

	ids := make(map[string]struct{}, len(childIDs))
	for _, id := range childIDs {
		ids[id] = struct{}{}
	}
	return ids, nil
}

// CreateHeader inserts the header with its lines and substitutes in one transaction
func (r *Repository) CreateHeader(ctx context.Context, header *entities.BOMHeader) error {
	if header.ID == "" {
		header.ID = uuid.NewString()
	}
	if header.RowVersion == 0 {
		header.RowVersion = 1
	}
	assignLineIDs(header)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(fromHeader(header)).Error; err != nil {
			return fmt.Errorf("failed to create formula %s: %w", header.ID, err)
		}
		for i := range header.Details {
			if err := insertLine(tx, header.ID, i, &header.Details[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertLine(tx *gorm.DB, headerID string, position int, d *entities.BOMDetail) error {
	if err := tx.Omit(clause.Associations).Create(fromDetail(headerID, position, d)).Error; err != nil {
		return fmt.Errorf("failed to create line %s: %w", d.ID, err)
	}
	for j := range d.Substitutes {
		if err := tx.Omit(clause.Associations).Create(fromSubstitute(d.ID, j, &d.Substitutes[j])).Error; err != nil {
			return fmt.Errorf("failed to create substitute %s: %w", d.Substitutes[j].ID, err)
		}
	}
	return nil
}

// UpdateHeader bumps the row version guarded by expectedRowVersion, then reconciles lines
// and substitutes: unknown ids are inserted, known ids updated, missing ids deleted.
func (r *Repository) UpdateHeader(ctx context.Context, header *entities.BOMHeader, expectedRowVersion int64) error {
	assignLineIDs(header)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BOMHeaderRecord{}).
			Where("id = ? AND row_version = ?", header.ID, expectedRowVersion).
			Updates(map[string]interface{}{
				"product_id":  header.ProductID,
				"title":       header.Title,
				"version":     header.Version,
				"status":      int(header.Status),
				"type":        int(header.Type),
				"from_date":   header.FromDate,
				"to_date":     header.ToDate,
				"is_active":   header.IsActive,
				"row_version": expectedRowVersion + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update formula %s: %w", header.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return staleOrMissing(tx, header.ID, expectedRowVersion)
		}
		return reconcileLines(tx, header)
	})
	if err != nil {
		return err
	}

	header.RowVersion = expectedRowVersion + 1
	header.IsDeleted = false
	return nil
}

func reconcileLines(tx *gorm.DB, header *entities.BOMHeader) error {
	var storedIDs []string
	if err := tx.Model(&BOMDetailRecord{}).Where("bom_header_id = ?", header.ID).Pluck("id", &storedIDs).Error; err != nil {
		return fmt.Errorf("failed to load lines of %s: %w", header.ID, err)
	}
	stale := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		stale[id] = true
	}

	for i := range header.Details {
		d := &header.Details[i]
		if !stale[d.ID] {
			if err := insertLine(tx, header.ID, i, d); err != nil {
				return err
			}
			continue
		}
		delete(stale, d.ID)

		rec := fromDetail(header.ID, i, d)
		err := tx.Model(rec).
			Select("position", "child_product_id", "quantity", "waste_percentage", "input_quantity", "input_unit_id").
			Updates(rec).Error
		if err != nil {
			return fmt.Errorf("failed to update line %s: %w", d.ID, err)
		}
		if err := reconcileSubstitutes(tx, d); err != nil {
			return err
		}
	}

	if len(stale) == 0 {
		return nil
	}
	removed := make([]string, 0, len(stale))
	for id := range stale {
		removed = append(removed, id)
	}
	if err := tx.Where("bom_detail_id IN ?", removed).Delete(&BOMSubstituteRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete substitutes of removed lines: %w", err)
	}
	if err := tx.Where("id IN ?", removed).Delete(&BOMDetailRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete removed lines: %w", err)
	}
	return nil
}

func reconcileSubstitutes(tx *gorm.DB, d *entities.BOMDetail) error {
	var storedIDs []string
	if err := tx.Model(&BOMSubstituteRecord{}).Where("bom_detail_id = ?", d.ID).Pluck("id", &storedIDs).Error; err != nil {
		return fmt.Errorf("failed to load substitutes of %s: %w", d.ID, err)
	}
	stale := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		stale[id] = true
	}

	for j := range d.Substitutes {
		rec := fromSubstitute(d.ID, j, &d.Substitutes[j])
		if !stale[rec.ID] {
			if err := tx.Omit(clause.Associations).Create(rec).Error; err != nil {
				return fmt.Errorf("failed to create substitute %s: %w", rec.ID, err)
			}
			continue
		}
		delete(stale, rec.ID)

		err := tx.Model(rec).
			Select("position", "substitute_product_id", "priority", "factor", "is_mix_allowed", "max_mix_percentage").
			Updates(rec).Error
		if err != nil {
			return fmt.Errorf("failed to update substitute %s: %w", rec.ID, err)
		}
	}

	if len(stale) == 0 {
		return nil
	}
	removed := make([]string, 0, len(stale))
	for id := range stale {
		removed = append(removed, id)
	}
	if err := tx.Where("id IN ?", removed).Delete(&BOMSubstituteRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete removed substitutes: %w", err)
	}
	return nil
}

// staleOrMissing explains why a guarded write touched no row
func staleOrMissing(tx *gorm.DB, headerID string, expectedRowVersion int64) error {
	var current BOMHeaderRecord
	if err := tx.Select("id", "row_version").First(&current, "id = ?", headerID).Error; err != nil {
		if isNotFound(err) {
			return entities.NotFoundf("BOM header %s", headerID)
		}
		return err
	}
	return fmt.Errorf("BOM header %s at version %d, expected %d: %w",
		headerID, current.RowVersion, expectedRowVersion, entities.ErrConcurrencyConflict)
}

// SoftDeleteHeader flags the header deleted, Obsolete and inactive
func (r *Repository) SoftDeleteHeader(ctx context.Context, headerID string, expectedRowVersion int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BOMHeaderRecord{}).
			Where("id = ? AND row_version = ?", headerID, expectedRowVersion).
			Updates(map[string]interface{}{
				"status":      int(entities.Obsolete),
				"is_active":   false,
				"row_version": expectedRowVersion + 1,
				"deleted_at":  time.Now().UTC(),
			})
		if res.Error != nil {
			return fmt.Errorf("failed to delete formula %s: %w", headerID, res.Error)
		}
		if res.RowsAffected == 0 {
			return staleOrMissing(tx, headerID, expectedRowVersion)
		}
		return nil
	})
}

// HeaderVersionExists reports whether another non-deleted header of productID uses version
func (r *Repository) HeaderVersionExists(ctx context.Context, productID, version, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BOMHeaderRecord{}).
		Where("product_id = ? AND version = ? AND id <> ?", productID, version, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListHeaders returns every non-deleted header, oldest first
func (r *Repository) ListHeaders(ctx context.Context) ([]*entities.BOMHeader, error) {
	var records []BOMHeaderRecord
	if err := r.headerQuery(ctx).Order("created_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list formulas: %w", err)
	}
	headers := make([]*entities.BOMHeader, 0, len(records))
	for i := range records {
		headers = append(headers, toHeader(&records[i]))
	}
	return headers, nil
}
