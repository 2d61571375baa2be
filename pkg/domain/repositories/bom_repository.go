package repositories

import (
	"context"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// LineUsage is a formula line together with the header that owns it
type LineUsage struct {
	Header *entities.BOMHeader
	Detail *entities.BOMDetail
}

// SubstituteUsage is a substitute row together with its owning line and header
type SubstituteUsage struct {
	Header     *entities.BOMHeader
	Detail     *entities.BOMDetail
	Substitute *entities.BOMSubstitute
}

// BOMReader is the read side of the BOM gateway consumed by the traversal engines.
// Soft-deleted rows are never returned.
type BOMReader interface {
	// GetActiveHeader returns the product's Active formula (highest version when several qualify)
	// with ordered lines and substitutes, or nil when the product has none.
	GetActiveHeader(ctx context.Context, productID string) (*entities.BOMHeader, error)

	// GetHeader returns full header detail, or nil when it does not exist.
	GetHeader(ctx context.Context, headerID string) (*entities.BOMHeader, error)

	// GetLinesConsuming returns lines whose ChildProductID is productID, owned by headers with IsActive set.
	GetLinesConsuming(ctx context.Context, productID string) ([]LineUsage, error)

	// GetSubstituteUsages returns substitutes whose SubstituteProductID is productID, owned by headers
	// with IsActive set.
	GetSubstituteUsages(ctx context.Context, productID string) ([]SubstituteUsage, error)

	// GetAllActiveLinesChildIDs returns every ChildProductID found on lines of headers with IsActive set.
	GetAllActiveLinesChildIDs(ctx context.Context) (map[string]struct{}, error)
}

// BOMWriter is the write side of the BOM gateway. Every method is atomic.
type BOMWriter interface {
	CreateHeader(ctx context.Context, header *entities.BOMHeader) error

	// UpdateHeader reconciles the persisted lines and substitutes with header.Details: new ids are
	// inserted, matching ids updated and missing ids removed. It fails with ErrConcurrencyConflict when
	// the stored row version differs from expectedRowVersion.
	UpdateHeader(ctx context.Context, header *entities.BOMHeader, expectedRowVersion int64) error

	// SoftDeleteHeader flags the header deleted, forcing Obsolete and inactive.
	SoftDeleteHeader(ctx context.Context, headerID string, expectedRowVersion int64) error

	// HeaderVersionExists reports whether a non-deleted header other than excludeID already uses version.
	HeaderVersionExists(ctx context.Context, productID, version, excludeID string) (bool, error)

	// ListHeaders returns every non-deleted header with its lines, used for graph audits.
	ListHeaders(ctx context.Context) ([]*entities.BOMHeader, error)
}

// BOMRepository is the full BOM gateway
type BOMRepository interface {
	BOMReader
	BOMWriter
}
