package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
)

// GetActiveHeader returns the product's highest-version Active formula, or nil
func (r *Repository) GetActiveHeader(ctx context.Context, productID string) (*entities.BOMHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var candidates []*entities.BOMHeader
	for _, id := range r.headerOrder {
		h := r.headers[id]
		if h.ProductID == productID {
			candidates = append(candidates, h)
		}
	}

	selected := r.versions.SelectActiveHeader(candidates)
	if selected == nil {
		return nil, nil
	}
	return r.headerView(selected), nil
}

// GetHeader returns the non-deleted header, or nil
func (r *Repository) GetHeader(ctx context.Context, headerID string) (*entities.BOMHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.headers[headerID]
	if !ok || h.IsDeleted {
		return nil, nil
	}
	return r.headerView(h), nil
}

// activeHeaders returns non-deleted headers flagged IsActive in insertion order; caller holds the lock
func (r *Repository) activeHeaders() []*entities.BOMHeader {
	var active []*entities.BOMHeader
	for _, id := range r.headerOrder {
		h := r.headers[id]
		if h.IsActive && !h.IsDeleted {
			active = append(active, h)
		}
	}
	return active
}

// GetLinesConsuming returns lines of active headers whose child is productID
func (r *Repository) GetLinesConsuming(ctx context.Context, productID string) ([]repositories.LineUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	usages := make([]repositories.LineUsage, 0)
	for _, h := range r.activeHeaders() {
		if !h.Consumes(productID) {
			continue
		}
		view := r.headerView(h)
		for i := range view.Details {
			if view.Details[i].ChildProductID == productID {
				usages = append(usages, repositories.LineUsage{Header: view, Detail: &view.Details[i]})
			}
		}
	}
	return usages, nil
}

// GetSubstituteUsages returns substitutes for productID on lines of active headers
func (r *Repository) GetSubstituteUsages(ctx context.Context, productID string) ([]repositories.SubstituteUsage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	usages := make([]repositories.SubstituteUsage, 0)
	for _, h := range r.activeHeaders() {
		var view *entities.BOMHeader
		for i := range h.Details {
			for j := range h.Details[i].Substitutes {
				if h.Details[i].Substitutes[j].SubstituteProductID != productID {
					continue
				}
				if view == nil {
					view = r.headerView(h)
				}
				usages = append(usages, repositories.SubstituteUsage{
					Header:     view,
					Detail:     &view.Details[i],
					Substitute: &view.Details[i].Substitutes[j],
				})
			}
		}
	}
	return usages, nil
}

// GetAllActiveLinesChildIDs returns the child product ids of every active line
func (r *Repository) GetAllActiveLinesChildIDs(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make(map[string]struct{})
	for _, h := range r.activeHeaders() {
		for _, d := range h.Details {
			ids[d.ChildProductID] = struct{}{}
		}
	}
	return ids, nil
}

// CreateHeader stores a new formula, assigning ids where missing
func (r *Repository) CreateHeader(ctx context.Context, header *entities.BOMHeader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	header.RowVersion = 1
	return r.insertHeader(header)
}

// insertHeader assigns ids and stores a copy; caller holds the write lock
func (r *Repository) insertHeader(header *entities.BOMHeader) error {
	if header.ID == "" {
		header.ID = uuid.NewString()
	}
	if _, exists := r.headers[header.ID]; exists {
		return fmt.Errorf("header %s already exists", header.ID)
	}
	if header.RowVersion == 0 {
		header.RowVersion = 1
	}
	assignLineIDs(header)

	r.headers[header.ID] = stripRefs(header)
	r.headerOrder = append(r.headerOrder, header.ID)
	return nil
}

// UpdateHeader replaces the stored header and reconciles its lines with header.Details
func (r *Repository) UpdateHeader(ctx context.Context, header *entities.BOMHeader, expectedRowVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.headers[header.ID]
	if !ok || stored.IsDeleted {
		return entities.NotFoundf("BOM header %s", header.ID)
	}
	if stored.RowVersion != expectedRowVersion {
		return fmt.Errorf("BOM header %s at version %d, expected %d: %w",
			header.ID, stored.RowVersion, expectedRowVersion, entities.ErrConcurrencyConflict)
	}

	// Lines absent from header.Details are dropped with the old copy; new ones get ids here
	assignLineIDs(header)
	header.RowVersion = stored.RowVersion + 1
	header.IsDeleted = false

	r.headers[header.ID] = stripRefs(header)
	return nil
}

// SoftDeleteHeader flags the header deleted, Obsolete and inactive
func (r *Repository) SoftDeleteHeader(ctx context.Context, headerID string, expectedRowVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.headers[headerID]
	if !ok || stored.IsDeleted {
		return entities.NotFoundf("BOM header %s", headerID)
	}
	if stored.RowVersion != expectedRowVersion {
		return fmt.Errorf("BOM header %s at version %d, expected %d: %w",
			headerID, stored.RowVersion, expectedRowVersion, entities.ErrConcurrencyConflict)
	}

	stored.IsDeleted = true
	stored.IsActive = false
	stored.Status = entities.Obsolete
	stored.RowVersion++
	return nil
}

// HeaderVersionExists reports whether another non-deleted header of productID uses version
func (r *Repository) HeaderVersionExists(ctx context.Context, productID, version, excludeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, h := range r.headers {
		if h.ID != excludeID && !h.IsDeleted && h.ProductID == productID && h.Version == version {
			return true, nil
		}
	}
	return false, nil
}

// ListHeaders returns every non-deleted header in insertion order
func (r *Repository) ListHeaders(ctx context.Context) ([]*entities.BOMHeader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	headers := make([]*entities.BOMHeader, 0, len(r.headers))
	for _, id := range r.headerOrder {
		if h := r.headers[id]; !h.IsDeleted {
			headers = append(headers, r.headerView(h))
		}
	}
	return headers, nil
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

// stripRefs copies a header without resolved product pointers; they are rebuilt on read
func stripRefs(header *entities.BOMHeader) *entities.BOMHeader {
	c := header.Clone()
	c.Product = nil
	for i := range c.Details {
		c.Details[i].ChildProduct = nil
		for j := range c.Details[i].Substitutes {
			c.Details[i].Substitutes[j].SubstituteProduct = nil
		}
	}
	return c
}
