package masterdata

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/services"
	"github.com/vsinha/bom/pkg/infrastructure/events"
	"github.com/vsinha/bom/pkg/infrastructure/repositories/memory"
	fixtures "github.com/vsinha/bom/pkg/infrastructure/testing"
)

func newTestService(repo *memory.Repository) (*Service, *events.InMemoryEventStore) {
	audit := events.NewInMemoryEventStore(nil)
	return NewService(repo, repo, repo, audit, nil, nil), audit
}

func TestService_CreateUnit(t *testing.T) {
	repo := fixtures.NewRepository()
	svc, audit := newTestService(repo)
	ctx := context.Background()

	base := fixtures.EachUnitID
	box, err := svc.CreateUnit(ctx, "", "box", "bx", &base, decimal.NewFromInt(12))
	require.NoError(t, err)
	assert.NotEmpty(t, box.ID)

	tests := []struct {
		name   string
		base   *string
		factor decimal.Decimal
	}{
		{"missing_base", strPtr("nope"), decimal.NewFromInt(2)},
		{"derived_base", &box.ID, decimal.NewFromInt(2)},
		{"zero_factor", &base, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUnit(ctx, "", "pallet", "pl", tt.base, tt.factor)
			assert.ErrorIs(t, err, entities.ErrValidationFailed)
		})
	}

	trail, err := audit.ReadEvents(events.UnitStream(box.ID), 1)
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestService_DeleteUnit(t *testing.T) {
	repo := fixtures.NewRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	base := fixtures.EachUnitID
	box, err := svc.CreateUnit(ctx, "u-box", "box", "bx", &base, decimal.NewFromInt(12))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUnit(ctx, fixtures.EachUnitID), entities.ErrIntegrityConflict, "base of box")
	require.NoError(t, svc.DeleteUnit(ctx, box.ID))

	fixtures.AddProducts(repo, "A")
	assert.ErrorIs(t, svc.DeleteUnit(ctx, fixtures.EachUnitID), entities.ErrIntegrityConflict, "used by A")

	assert.ErrorIs(t, svc.DeleteUnit(ctx, "missing"), entities.ErrNotFound)
}

func TestService_CreateProduct(t *testing.T) {
	repo := fixtures.NewRepository()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, "", "STEEL-01", "Steel sheet", fixtures.EachUnitID, entities.Purchased)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "each", p.UnitName())

	_, err = svc.CreateProduct(ctx, "", "STEEL-01", "Another", fixtures.EachUnitID, entities.Purchased)
	require.ErrorIs(t, err, entities.ErrValidationFailed)
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule(RuleDuplicateCode))

	_, err = svc.CreateProduct(ctx, "", "BOLT", "Bolt", "u-none", entities.Purchased)
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule(services.RuleField))

	_, err = svc.CreateProduct(ctx, "", "", "No code", fixtures.EachUnitID, entities.Purchased)
	assert.ErrorIs(t, err, entities.ErrValidationFailed)
}

func TestService_DeleteProduct(t *testing.T) {
	repo := fixtures.BuildChainTestData()
	svc, _ := newTestService(repo)
	ctx := context.Background()

	// C is consumed by B's formula
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "C"), entities.ErrIntegrityConflict)
	// A is consumed by nothing but owns a formula
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "A"), entities.ErrIntegrityConflict)

	fixtures.AddProducts(repo, "loose")
	require.NoError(t, svc.DeleteProduct(ctx, "loose"))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, "loose"), entities.ErrNotFound)
}

func strPtr(s string) *string { return &s }
