package explosion

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/repositories"
	fixtures "github.com/vsinha/bom/pkg/infrastructure/testing"
)

func newTestEngine(repo repositories.BOMReader) *Engine {
	return NewEngine(repo, Config{}, nil)
}

func requireQty(t *testing.T, what string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("Expected %s = %s, got %s", what, want, got)
	}
}

// countingReader records GetActiveHeader round-trips
type countingReader struct {
	repositories.BOMReader
	activeCalls map[string]int
}

func (c *countingReader) GetActiveHeader(ctx context.Context, productID string) (*entities.BOMHeader, error) {
	c.activeCalls[productID]++
	return c.BOMReader.GetActiveHeader(ctx, productID)
}

func TestEngine_Explode_SingleLevel(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A", "B", "C")
	fixtures.MustCreateHeaders(repo, fixtures.ActiveHeader("H-A", "A", "1.0",
		fixtures.Line("B", "2"),
		fixtures.Line("C", "0.125"),
	))

	tree, err := newTestEngine(repo).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if tree.Type != TypeFinalProduct || tree.BOMID != "H-A" || tree.Key != "A" {
		t.Errorf("Unexpected root: type=%s bom=%s key=%s", tree.Type, tree.BOMID, tree.Key)
	}
	requireQty(t, "root quantity", tree.Quantity, "1")
	requireQty(t, "root total", tree.TotalQuantity, "1")

	if len(tree.Children) != 2 {
		t.Fatalf("Expected 2 children, got %d", len(tree.Children))
	}
	for _, child := range tree.Children {
		if child.IsRecursive() {
			t.Errorf("Expected %s to be a leaf", child.ProductID)
		}
		if child.Type != TypeRawMaterial || child.BOMID != "" {
			t.Errorf("Expected raw material leaf without formula, got %s/%q", child.Type, child.BOMID)
		}
		if !child.TotalQuantity.Equal(child.Quantity) {
			t.Errorf("Expected total == quantity for %s, got %s vs %s", child.ProductID, child.TotalQuantity, child.Quantity)
		}
	}
	if tree.Children[0].Key != "A-B" || tree.Children[1].Key != "A-C" {
		t.Errorf("Unexpected keys %s, %s", tree.Children[0].Key, tree.Children[1].Key)
	}
	if tree.Children[0].UnitName != "each" || tree.Children[0].ProductCode != "P-B" {
		t.Errorf("Expected product fields resolved, got %+v", tree.Children[0])
	}
}

func TestEngine_Explode_MultipliesDownTheChain(t *testing.T) {
	tree, err := newTestEngine(fixtures.BuildChainTestData()).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if len(tree.Children) != 1 {
		t.Fatalf("Expected 1 child, got %d", len(tree.Children))
	}
	b := tree.Children[0]
	if b.ProductID != "B" || b.Type != TypeSemiFinished || b.BOMID != "H-B" || b.Level != 1 {
		t.Errorf("Unexpected B node: %+v", b)
	}
	requireQty(t, "B quantity", b.Quantity, "2")
	requireQty(t, "B total", b.TotalQuantity, "2")

	if len(b.Children) != 1 {
		t.Fatalf("Expected B to have 1 child, got %d", len(b.Children))
	}
	c := b.Children[0]
	if c.Key != "A-B-C" || c.Level != 2 {
		t.Errorf("Unexpected C node key=%s level=%d", c.Key, c.Level)
	}
	requireQty(t, "C quantity", c.Quantity, "3")
	requireQty(t, "C total", c.TotalQuantity, "6")
}

func TestEngine_Explode_EmptyFormula(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A")
	fixtures.MustCreateHeaders(repo, fixtures.ActiveHeader("H-A", "A", "1.0"))

	tree, err := newTestEngine(repo).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if len(tree.Children) != 0 || tree.IsRecursive() {
		t.Errorf("Expected no children, got %d", len(tree.Children))
	}
}

func TestEngine_Explode_NotFound(t *testing.T) {
	_, err := newTestEngine(fixtures.NewRepository()).Explode(context.Background(), "missing")
	if !errors.Is(err, entities.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestEngine_Explode_WasteIsNotCompounded(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A", "B", "C")

	line := fixtures.Line("B", "2")
	line.WastePercentage = decimal.NewFromInt(10)
	fixtures.MustCreateHeaders(repo,
		fixtures.ActiveHeader("H-A", "A", "1.0", line),
		fixtures.ActiveHeader("H-B", "B", "1.0", fixtures.Line("C", "3")),
	)

	tree, err := newTestEngine(repo).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	b := tree.Children[0]
	requireQty(t, "B waste", b.WastePercentage, "10")
	requireQty(t, "B total", b.TotalQuantity, "2")
	requireQty(t, "C total", b.Children[0].TotalQuantity, "6")
}

func TestEngine_Explode_TerminatesOnStoredCycle(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A", "B", "C")
	// Written straight to storage, past any validation
	fixtures.MustCreateHeaders(repo,
		fixtures.ActiveHeader("H-A", "A", "1.0", fixtures.Line("B", "1")),
		fixtures.ActiveHeader("H-B", "B", "1.0", fixtures.Line("C", "1")),
		fixtures.ActiveHeader("H-C", "C", "1.0", fixtures.Line("A", "1")),
	)

	tree, err := newTestEngine(repo).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	a := tree.Children[0].Children[0].Children[0]
	if a.ProductID != "A" || !a.CycleDetected || a.IsRecursive() {
		t.Errorf("Expected A to be a cycle leaf, got %+v", a)
	}
	if a.Type != TypeRawMaterial {
		t.Errorf("Expected cycle leaf type %s, got %s", TypeRawMaterial, a.Type)
	}
}

func TestEngine_Explode_SharedComponentIsNotACycle(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A", "B", "C", "D", "E")
	fixtures.MustCreateHeaders(repo,
		fixtures.ActiveHeader("H-A", "A", "1.0", fixtures.Line("B", "1"), fixtures.Line("C", "2")),
		fixtures.ActiveHeader("H-B", "B", "1.0", fixtures.Line("D", "1")),
		fixtures.ActiveHeader("H-C", "C", "1.0", fixtures.Line("D", "1")),
		fixtures.ActiveHeader("H-D", "D", "1.0", fixtures.Line("E", "5")),
	)

	counting := &countingReader{BOMReader: repo, activeCalls: make(map[string]int)}
	tree, err := newTestEngine(counting).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	viaB := tree.Children[0].Children[0]
	viaC := tree.Children[1].Children[0]
	if viaB.CycleDetected || viaC.CycleDetected {
		t.Error("A component reached by two branches is not a cycle")
	}
	if viaB.Key == viaC.Key {
		t.Errorf("Expected path-unique keys, both are %s", viaB.Key)
	}
	requireQty(t, "E via B", viaB.Children[0].TotalQuantity, "5")
	requireQty(t, "E via C", viaC.Children[0].TotalQuantity, "10")

	if counting.activeCalls["D"] != 1 {
		t.Errorf("Expected one formula lookup for D, got %d", counting.activeCalls["D"])
	}
}

func TestEngine_Explode_DepthLimit(t *testing.T) {
	engine := NewEngine(fixtures.BuildChainTestData(), Config{MaxDepth: 1}, nil)

	tree, err := engine.Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	b := tree.Children[0]
	if !b.DepthLimited || b.IsRecursive() {
		t.Errorf("Expected B to be cut at the depth limit, got %+v", b)
	}
}

func TestEngine_Explode_SortsSubstitutesByPriority(t *testing.T) {
	repo := fixtures.NewRepository()
	fixtures.AddProducts(repo, "A", "B", "S1", "S2", "S3")
	fixtures.MustCreateHeaders(repo, fixtures.ActiveHeader("H-A", "A", "1.0",
		fixtures.Line("B", "1",
			fixtures.Substitute("S3", 3, "1"),
			fixtures.Substitute("S1", 1, "1"),
			fixtures.Substitute("S2", 2, "1.5"),
		),
	))

	tree, err := newTestEngine(repo).Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	subs := tree.Children[0].Substitutes
	if len(subs) != 3 {
		t.Fatalf("Expected 3 substitutes, got %d", len(subs))
	}
	for i, want := range []string{"S1", "S2", "S3"} {
		if subs[i].SubstituteProductID != want {
			t.Errorf("Position %d: expected %s, got %s", i, want, subs[i].SubstituteProductID)
		}
	}
}

func TestEngine_Explode_Idempotent(t *testing.T) {
	engine := newTestEngine(fixtures.BuildChainTestData())

	first, err := engine.Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	second, err := engine.Explode(context.Background(), "H-A")
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical trees for repeated explosions")
	}
}

func TestEngine_Explode_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(fixtures.BuildChainTestData()).Explode(ctx, "H-A")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
