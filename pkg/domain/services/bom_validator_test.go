package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
)

type fakeVersions struct {
	taken map[string]string // productID|version -> header id
	err   error
}

func (f *fakeVersions) HeaderVersionExists(_ context.Context, productID, version, excludeID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	id, ok := f.taken[productID+"|"+version]
	return ok && id != excludeID, nil
}

func line(child string, qty int64, subs ...entities.BOMSubstitute) entities.BOMDetail {
	return entities.BOMDetail{
		ChildProductID: child,
		Quantity:       decimal.NewFromInt(qty),
		Substitutes:    subs,
	}
}

func sub(product string, priority int) entities.BOMSubstitute {
	return entities.BOMSubstitute{SubstituteProductID: product, Priority: priority, Factor: decimal.NewFromInt(1)}
}

func requireRule(t *testing.T, err error, rule string) {
	t.Helper()
	if !errors.Is(err, entities.ErrValidationFailed) {
		t.Fatalf("Expected validation failure, got %v", err)
	}
	var verr *entities.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if !verr.HasRule(rule) {
		t.Errorf("Expected rule %s to be violated, got %v", rule, verr.Violations)
	}
}

func TestBOMValidator_ValidHeader(t *testing.T) {
	v := NewBOMValidator(&fakeVersions{})
	header := &entities.BOMHeader{
		ProductID: "A",
		Version:   "1.0",
		Details:   []entities.BOMDetail{line("B", 2, sub("B2", 1)), line("C", 1)},
	}

	if err := v.ValidateHeader(context.Background(), header); err != nil {
		t.Fatalf("Expected valid header, got %v", err)
	}
}

func TestBOMValidator_RejectsSelfConsumption(t *testing.T) {
	v := NewBOMValidator(&fakeVersions{})
	header := &entities.BOMHeader{
		ProductID: "X",
		Version:   "1.0",
		Details:   []entities.BOMDetail{line("X", 1)},
	}

	requireRule(t, v.ValidateHeader(context.Background(), header), RuleSelfConsumption)
}

func TestBOMValidator_RejectsDuplicateVersion(t *testing.T) {
	versions := &fakeVersions{taken: map[string]string{"A|1.0": "H1"}}
	v := NewBOMValidator(versions)

	header := &entities.BOMHeader{ProductID: "A", Version: "1.0", Details: []entities.BOMDetail{line("B", 1)}}
	requireRule(t, v.ValidateHeader(context.Background(), header), RuleDuplicateVersion)

	// Updating H1 itself keeps its own version
	header.ID = "H1"
	if err := v.ValidateHeader(context.Background(), header); err != nil {
		t.Errorf("Expected update of the same header to pass, got %v", err)
	}
}

func TestBOMValidator_RejectsDuplicates(t *testing.T) {
	v := NewBOMValidator(&fakeVersions{})

	t.Run("duplicate_child", func(t *testing.T) {
		header := &entities.BOMHeader{
			ProductID: "A",
			Version:   "1.0",
			Details:   []entities.BOMDetail{line("B", 1), line("B", 2)},
		}
		requireRule(t, v.ValidateHeader(context.Background(), header), RuleDuplicateChild)
	})

	t.Run("duplicate_substitute", func(t *testing.T) {
		header := &entities.BOMHeader{
			ProductID: "A",
			Version:   "1.0",
			Details:   []entities.BOMDetail{line("B", 1, sub("S", 1), sub("S", 2))},
		}
		requireRule(t, v.ValidateHeader(context.Background(), header), RuleDuplicateSubstitute)
	})
}

func TestBOMValidator_FieldChecks(t *testing.T) {
	v := NewBOMValidator(&fakeVersions{})

	badWaste := line("B", 1)
	badWaste.WastePercentage = decimal.NewFromInt(101)

	badSub := line("C", 1, entities.BOMSubstitute{SubstituteProductID: "C", Priority: 0, Factor: decimal.Zero})

	mixWithoutFlag := line("D", 1, entities.BOMSubstitute{
		SubstituteProductID: "D2", Priority: 1, Factor: decimal.NewFromInt(1), MaxMixPercentage: decimal.NewFromInt(30),
	})

	tests := []struct {
		name   string
		detail entities.BOMDetail
	}{
		{"zero_quantity", line("B", 0)},
		{"waste_over_100", badWaste},
		{"invalid_substitute", badSub},
		{"mix_percentage_without_mixing", mixWithoutFlag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &entities.BOMHeader{ProductID: "A", Version: "1.0", Details: []entities.BOMDetail{tt.detail}}
			requireRule(t, v.ValidateHeader(context.Background(), header), RuleField)
		})
	}
}

func TestBOMValidator_ValidateCopy(t *testing.T) {
	v := NewBOMValidator(&fakeVersions{})
	source := &entities.BOMHeader{
		ID:        "H",
		ProductID: "A",
		Version:   "1.0",
		Details:   []entities.BOMDetail{line("B", 1), line("C", 1)},
	}

	requireRule(t, v.ValidateCopy(context.Background(), source, "B", "1.0"), RuleCopyCycle)

	if err := v.ValidateCopy(context.Background(), source, "D", "1.0"); err != nil {
		t.Errorf("Expected copy to unrelated product to pass, got %v", err)
	}
}

func TestBOMValidator_PropagatesLookupFailure(t *testing.T) {
	boom := errors.New("connection reset")
	v := NewBOMValidator(&fakeVersions{err: boom})
	header := &entities.BOMHeader{ProductID: "A", Version: "1.0"}

	err := v.ValidateHeader(context.Background(), header)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected lookup failure to propagate, got %v", err)
	}
	if errors.Is(err, entities.ErrValidationFailed) {
		t.Error("Gateway failure must not be reported as a validation failure")
	}
}

func TestBOMValidator_AuditGraph(t *testing.T) {
	v := NewBOMValidator(nil)

	t.Run("detects_longer_cycle", func(t *testing.T) {
		headers := []*entities.BOMHeader{
			{ProductID: "A", Details: []entities.BOMDetail{line("B", 1)}},
			{ProductID: "B", Details: []entities.BOMDetail{line("C", 1)}},
			{ProductID: "C", Details: []entities.BOMDetail{line("A", 1)}},
		}
		result := v.AuditGraph(headers)
		if !result.HasCycles || len(result.CyclePaths) == 0 {
			t.Fatal("Expected cycle to be detected")
		}
		if len(result.Errors) == 0 {
			t.Error("Expected validation errors for cycles")
		}
	})

	t.Run("cycle_through_substitute", func(t *testing.T) {
		headers := []*entities.BOMHeader{
			{ProductID: "A", Details: []entities.BOMDetail{line("B", 1)}},
			{ProductID: "B", Details: []entities.BOMDetail{line("C", 1, sub("A", 1))}},
		}
		if !v.AuditGraph(headers).HasCycles {
			t.Error("Expected substitute edge to close the cycle")
		}
	})

	t.Run("no_cycles", func(t *testing.T) {
		headers := []*entities.BOMHeader{
			{ProductID: "A", Details: []entities.BOMDetail{line("B", 1), line("C", 1)}},
			{ProductID: "B", Details: []entities.BOMDetail{line("D", 1)}},
			{ProductID: "Z", Details: []entities.BOMDetail{line("A", 1)}, IsDeleted: true},
		}
		result := v.AuditGraph(headers)
		if result.HasCycles {
			t.Errorf("Expected no cycles, got %v", result.CyclePaths)
		}
	})

	t.Run("empty_graph", func(t *testing.T) {
		if v.AuditGraph(nil).HasCycles {
			t.Error("Empty graph should not have cycles")
		}
	})
}
