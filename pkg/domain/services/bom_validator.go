package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/bom/pkg/domain/entities"
)

// Guard rule identifiers reported in ValidationError violations
const (
	RuleSelfConsumption     = "self-consumption"
	RuleCopyCycle           = "copy-cycle"
	RuleDuplicateVersion    = "duplicate-version"
	RuleDuplicateChild      = "duplicate-child"
	RuleDuplicateSubstitute = "duplicate-substitute"
	RuleField               = "field"
)

// VersionLookup answers the (product, version) uniqueness question against persisted headers
type VersionLookup interface {
	HeaderVersionExists(ctx context.Context, productID, version, excludeID string) (bool, error)
}

// BOMValidator guards formula writes against cycles and broken uniqueness invariants.
// It checks direct self-consumption and the copy-target case only; it does not search
// for longer cycles on update.
type BOMValidator struct {
	versions VersionLookup
}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator(versions VersionLookup) *BOMValidator {
	return &BOMValidator{versions: versions}
}

// ValidateHeader checks a header about to be created or updated. Every violated rule is
// collected into one *entities.ValidationError. Gateway failures are returned as-is.
func (v *BOMValidator) ValidateHeader(ctx context.Context, header *entities.BOMHeader) error {
	verr := &entities.ValidationError{}

	v.checkFields(header, verr)

	for _, d := range header.Details {
		if d.ChildProductID == header.ProductID {
			verr.Add(RuleSelfConsumption, "product %s cannot consume itself", header.ProductID)
			break
		}
	}

	if err := v.checkVersion(ctx, header.ProductID, header.Version, header.ID, verr); err != nil {
		return err
	}

	v.checkDuplicates(header, verr)

	return verr.OrNil()
}

// ValidateCopy checks cloning source into a new formula for targetProductID with version
func (v *BOMValidator) ValidateCopy(ctx context.Context, source *entities.BOMHeader, targetProductID, version string) error {
	verr := &entities.ValidationError{}

	if strings.TrimSpace(targetProductID) == "" {
		verr.Add(RuleField, "target product is required")
	}
	if strings.TrimSpace(version) == "" {
		verr.Add(RuleField, "version is required")
	}

	for _, childID := range source.ChildProductIDs() {
		if childID == targetProductID {
			verr.Add(RuleCopyCycle, "formula %s consumes %s and cannot be copied to it", source.ID, targetProductID)
			break
		}
	}

	if err := v.checkVersion(ctx, targetProductID, version, "", verr); err != nil {
		return err
	}

	return verr.OrNil()
}

func (v *BOMValidator) checkVersion(ctx context.Context, productID, version, excludeID string, verr *entities.ValidationError) error {
	if v.versions == nil || productID == "" || strings.TrimSpace(version) == "" {
		return nil
	}
	exists, err := v.versions.HeaderVersionExists(ctx, productID, version, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check version uniqueness for %s: %w", productID, err)
	}
	if exists {
		verr.Add(RuleDuplicateVersion, "product %s already has a formula with version %s", productID, version)
	}
	return nil
}

// checkDuplicates enforces unique child products per header and unique substitutes per line
func (v *BOMValidator) checkDuplicates(header *entities.BOMHeader, verr *entities.ValidationError) {
	seenChildren := make(map[string]bool, len(header.Details))
	for _, d := range header.Details {
		if seenChildren[d.ChildProductID] {
			verr.Add(RuleDuplicateChild, "product %s appears on more than one line, merge the quantities", d.ChildProductID)
		}
		seenChildren[d.ChildProductID] = true

		seenSubs := make(map[string]bool, len(d.Substitutes))
		for _, s := range d.Substitutes {
			if seenSubs[s.SubstituteProductID] {
				verr.Add(RuleDuplicateSubstitute, "substitute %s is listed more than once for %s", s.SubstituteProductID, d.ChildProductID)
			}
			seenSubs[s.SubstituteProductID] = true
		}
	}
}

func (v *BOMValidator) checkFields(header *entities.BOMHeader, verr *entities.ValidationError) {
	if strings.TrimSpace(header.ProductID) == "" {
		verr.Add(RuleField, "product is required")
	}
	if strings.TrimSpace(header.Version) == "" {
		verr.Add(RuleField, "version is required")
	}
	if header.FromDate != nil && header.ToDate != nil && header.ToDate.Before(*header.FromDate) {
		verr.Add(RuleField, "validity ends before it starts")
	}

	for _, d := range header.Details {
		if strings.TrimSpace(d.ChildProductID) == "" {
			verr.Add(RuleField, "line child product is required")
			continue
		}
		if !d.Quantity.IsPositive() {
			verr.Add(RuleField, "quantity of %s must be positive, got %s", d.ChildProductID, d.Quantity)
		}
		if !inPercentRange(d.WastePercentage) {
			verr.Add(RuleField, "waste percentage of %s must be between 0 and 100, got %s", d.ChildProductID, d.WastePercentage)
		}

		for _, s := range d.Substitutes {
			if s.SubstituteProductID == d.ChildProductID {
				verr.Add(RuleField, "%s cannot substitute itself", d.ChildProductID)
			}
			if s.Priority < 1 {
				verr.Add(RuleField, "priority of substitute %s must be at least 1, got %d", s.SubstituteProductID, s.Priority)
			}
			if !s.Factor.IsPositive() {
				verr.Add(RuleField, "factor of substitute %s must be positive, got %s", s.SubstituteProductID, s.Factor)
			}
			if !inPercentRange(s.MaxMixPercentage) {
				verr.Add(RuleField, "max mix percentage of substitute %s must be between 0 and 100, got %s", s.SubstituteProductID, s.MaxMixPercentage)
			}
			if !s.IsMixAllowed && !s.MaxMixPercentage.IsZero() {
				verr.Add(RuleField, "substitute %s does not allow mixing but has a max mix percentage", s.SubstituteProductID)
			}
		}
	}
}

func inPercentRange(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// AuditResult contains the results of a stored-graph audit
type AuditResult struct {
	HasCycles  bool
	CyclePaths [][]string
	Errors     []string
}

// AuditGraph inspects the whole stored formula graph (product -> consumed products) for
// cycles that bypassed the write guard, e.g. rows edited directly in storage.
// It reports; it never rejects.
func (v *BOMValidator) AuditGraph(headers []*entities.BOMHeader) *AuditResult {
	result := &AuditResult{
		CyclePaths: make([][]string, 0),
		Errors:     make([]string, 0),
	}

	adjacencyMap := buildAdjacencyMap(headers)
	cycles := detectCycles(adjacencyMap)
	result.HasCycles = len(cycles) > 0
	result.CyclePaths = cycles

	for _, cycle := range cycles {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %s", strings.Join(cycle, " -> ")))
	}

	return result
}

// buildAdjacencyMap creates a map of parent product -> consumed products, substitutes included
func buildAdjacencyMap(headers []*entities.BOMHeader) map[string][]string {
	adjacencyMap := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	add := func(parent, child string) {
		if seen[parent] == nil {
			seen[parent] = make(map[string]bool)
		}
		if seen[parent][child] {
			return
		}
		seen[parent][child] = true
		adjacencyMap[parent] = append(adjacencyMap[parent], child)
	}

	for _, h := range headers {
		if h.IsDeleted {
			continue
		}
		for _, d := range h.Details {
			add(h.ProductID, d.ChildProductID)
			for _, s := range d.Substitutes {
				add(h.ProductID, s.SubstituteProductID)
			}
		}
	}

	return adjacencyMap
}

// detectCycles uses DFS to find cycles; parents are visited in sorted order for stable output
func detectCycles(adjacencyMap map[string][]string) [][]string {
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)
	cycles := make([][]string, 0)

	parents := make([]string, 0, len(adjacencyMap))
	for parent := range adjacencyMap {
		parents = append(parents, parent)
	}
	sort.Strings(parents)

	for _, parent := range parents {
		if !visited[parent] {
			dfsDetectCycle(parent, adjacencyMap, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

func dfsDetectCycle(
	current string,
	adjacencyMap map[string][]string,
	visited map[string]bool,
	recursionStack map[string]bool,
	path []string,
	cycles *[][]string,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacencyMap[current] {
		if !visited[child] {
			dfsDetectCycle(child, adjacencyMap, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, part := range path {
				if part == child {
					cycle := make([]string, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child)
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}
