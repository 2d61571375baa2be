package memory

import (
	"context"
	"sync"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	"github.com/vsinha/bom/pkg/domain/services"
)

// Repository is an in-memory gateway over units, products and formulas.
// Stored values are copied on the way in and out, so callers never share state with the store.
type Repository struct {
	mu sync.RWMutex

	units       map[string]*entities.Unit
	products    map[string]*entities.Product
	productIDs  []string
	headers     map[string]*entities.BOMHeader
	headerOrder []string

	versions *services.VersionComparator
}

// NewRepository creates an empty in-memory gateway
func NewRepository() *Repository {
	return &Repository{
		units:    make(map[string]*entities.Unit),
		products: make(map[string]*entities.Product),
		headers:  make(map[string]*entities.BOMHeader),
		versions: services.NewVersionComparator(),
	}
}

// Verify interface compliance
var _ repositories.BOMRepository = (*Repository)(nil)
var _ repositories.ProductRepository = (*Repository)(nil)
var _ repositories.UnitRepository = (*Repository)(nil)

// LoadUnits loads units keeping their ids
func (r *Repository) LoadUnits(units []*entities.Unit) error {
	for _, u := range units {
		if err := r.CreateUnit(context.Background(), u); err != nil {
			return err
		}
	}
	return nil
}

// LoadProducts loads products keeping their ids
func (r *Repository) LoadProducts(products []*entities.Product) error {
	for _, p := range products {
		if err := r.CreateProduct(context.Background(), p); err != nil {
			return err
		}
	}
	return nil
}

// LoadHeaders loads formulas keeping their ids and row versions
func (r *Repository) LoadHeaders(headers []*entities.BOMHeader) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range headers {
		if err := r.insertHeader(h); err != nil {
			return err
		}
	}
	return nil
}

func copyUnit(u *entities.Unit) *entities.Unit {
	if u == nil {
		return nil
	}
	c := *u
	if u.BaseUnitID != nil {
		base := *u.BaseUnitID
		c.BaseUnitID = &base
	}
	return &c
}

// productView returns a detached product with its unit attached; caller holds the lock
func (r *Repository) productView(id string) *entities.Product {
	p, ok := r.products[id]
	if !ok {
		return nil
	}
	c := *p
	c.Unit = copyUnit(r.units[p.UnitID])
	return &c
}

// headerView returns a detached copy of a stored header with product references resolved
func (r *Repository) headerView(h *entities.BOMHeader) *entities.BOMHeader {
	c := h.Clone()
	c.Product = r.productView(c.ProductID)
	for i := range c.Details {
		d := &c.Details[i]
		d.ChildProduct = r.productView(d.ChildProductID)
		for j := range d.Substitutes {
			d.Substitutes[j].SubstituteProduct = r.productView(d.Substitutes[j].SubstituteProductID)
		}
	}
	return c
}
