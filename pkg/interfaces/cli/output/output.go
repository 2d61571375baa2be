package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vsinha/bom/pkg/application/dto"
	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/application/services/explosion"
	"github.com/vsinha/bom/pkg/application/services/whereused"
	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/domain/services"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Config holds configuration for output generation
type Config struct {
	Format string
	// OutputDir receives json/csv files; when empty everything goes to Out
	OutputDir string
	Out       io.Writer
	Verbose   bool
}

// Writer returns Out, defaulting to stdout
func (c Config) Writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// ValidateFormat rejects unknown format names
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatCSV:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (expected: text, json, or csv)", format)
	}
}

type explosionDocument struct {
	Tree         dto.TreeNodeDTO      `json:"tree"`
	Requirements []dto.RequirementDTO `json:"requirements,omitempty"`
}

// WriteTree renders an exploded formula, optionally followed by its raw-material summary
func WriteTree(tree *explosion.TreeNode, summary bool, config Config) error {
	var reqs []explosion.Requirement
	if summary {
		reqs = explosion.Summarize(tree)
	}

	switch config.Format {
	case FormatText:
		writeTreeText(config.Writer(), tree, reqs)
		return nil
	case FormatJSON:
		doc := explosionDocument{Tree: dto.FromTreeNode(tree)}
		if summary {
			doc.Requirements = dto.FromRequirements(reqs)
		}
		return writeJSON(doc, "explosion.json", config)
	case FormatCSV:
		if err := writeCSV(treeRows(tree), "explosion.csv", config); err != nil {
			return err
		}
		if summary {
			return writeCSV(requirementRows(reqs), "requirements.csv", config)
		}
		return nil
	default:
		return ValidateFormat(config.Format)
	}
}

func writeTreeText(w io.Writer, tree *explosion.TreeNode, reqs []explosion.Requirement) {
	fmt.Fprintf(w, "Formula %s for %s %s\n\n", tree.BOMID, tree.ProductCode, tree.ProductName)
	fmt.Fprintf(w, "%-40s %-12s %-12s %-8s %-10s %s\n", "Product", "Qty", "Total", "Waste%", "Unit", "Type")
	fmt.Fprintf(w, "%-40s %-12s %-12s %-8s %-10s %s\n",
		strings.Repeat("-", 40), strings.Repeat("-", 12), strings.Repeat("-", 12),
		strings.Repeat("-", 8), strings.Repeat("-", 10), strings.Repeat("-", 10))

	for _, row := range explosion.Flatten(tree) {
		n := row.Node
		label := strings.Repeat("  ", row.Depth) + n.ProductCode
		if n.ProductName != "" {
			label += " " + n.ProductName
		}
		kind := n.Type
		switch {
		case n.CycleDetected:
			kind += " (cycle)"
		case n.DepthLimited:
			kind += " (depth limit)"
		}
		fmt.Fprintf(w, "%-40s %-12s %-12s %-8s %-10s %s\n",
			label, n.Quantity, n.TotalQuantity, n.WastePercentage, n.UnitName, kind)
		for _, s := range n.Substitutes {
			fmt.Fprintf(w, "%s  alt #%d %s x%s\n", strings.Repeat("  ", row.Depth), s.Priority, s.SubstituteProductID, s.Factor)
		}
	}

	if len(reqs) == 0 {
		return
	}
	fmt.Fprintf(w, "\nRaw material requirements:\n")
	fmt.Fprintf(w, "%-15s %-25s %-12s %-10s\n", "Code", "Name", "Total", "Unit")
	for _, r := range reqs {
		fmt.Fprintf(w, "%-15s %-25s %-12s %-10s\n", r.ProductCode, r.ProductName, r.TotalQuantity, r.UnitName)
	}
}

func treeRows(tree *explosion.TreeNode) [][]string {
	rows := [][]string{{"key", "parent_key", "level", "bom_id", "product_id", "product_code", "product_name",
		"quantity", "total_quantity", "waste_percentage", "unit", "type", "cycle_detected"}}
	for _, row := range explosion.Flatten(tree) {
		n := row.Node
		rows = append(rows, []string{
			n.Key, row.ParentKey, strconv.Itoa(n.Level), n.BOMID, n.ProductID, n.ProductCode, n.ProductName,
			n.Quantity.String(), n.TotalQuantity.String(), n.WastePercentage.String(), n.UnitName, n.Type,
			strconv.FormatBool(n.CycleDetected),
		})
	}
	return rows
}

func requirementRows(reqs []explosion.Requirement) [][]string {
	rows := [][]string{{"product_id", "product_code", "product_name", "total_quantity", "unit", "occurrences"}}
	for _, r := range reqs {
		rows = append(rows, []string{
			r.ProductID, r.ProductCode, r.ProductName, r.TotalQuantity.String(), r.UnitName, strconv.Itoa(r.Occurrences),
		})
	}
	return rows
}

// WriteUsages renders one where-used page
func WriteUsages(page pagination.Page[whereused.UsageRecord], config Config) error {
	switch config.Format {
	case FormatText:
		w := config.Writer()
		if page.TotalCount == 0 {
			fmt.Fprintln(w, "Not used by any active formula")
			return nil
		}
		fmt.Fprintf(w, "%-5s %-15s %-25s %-10s %-10s %-30s %s\n", "Level", "Parent", "Name", "Version", "Qty", "Usage", "Path")
		for _, r := range page.Items {
			fmt.Fprintf(w, "%-5d %-15s %-25s %-10s %-10s %-30s %s\n",
				r.Level, r.ParentProductCode, r.ParentProductName, r.BOMVersion, r.Quantity, r.UsageType, r.Path)
		}
		fmt.Fprintf(w, "\nPage %d of %d (%d records)\n", page.PageNumber, page.TotalPages, page.TotalCount)
		return nil
	case FormatJSON:
		return writeJSON(dto.FromUsagePage(page), "where_used.json", config)
	case FormatCSV:
		rows := [][]string{{"id", "bom_id", "bom_version", "bom_status", "parent_product_id", "parent_product_code",
			"parent_product_name", "usage_type", "quantity", "unit", "level", "path"}}
		for _, r := range page.Items {
			rows = append(rows, []string{
				r.ID, r.BOMID, r.BOMVersion, r.BOMStatus.String(), r.ParentProductID, r.ParentProductCode,
				r.ParentProductName, r.UsageType, r.Quantity.String(), r.UnitName, strconv.Itoa(r.Level), r.Path,
			})
		}
		return writeCSV(rows, "where_used.csv", config)
	default:
		return ValidateFormat(config.Format)
	}
}

type auditDocument struct {
	HasCycles bool       `json:"hasCycles"`
	Cycles    [][]string `json:"cycles"`
}

// WriteAudit renders a graph audit
func WriteAudit(result *services.AuditResult, config Config) error {
	switch config.Format {
	case FormatText:
		w := config.Writer()
		if !result.HasCycles {
			fmt.Fprintln(w, "No cycles found")
			return nil
		}
		fmt.Fprintf(w, "Found %d cycle(s):\n", len(result.CyclePaths))
		for _, msg := range result.Errors {
			fmt.Fprintf(w, "  %s\n", msg)
		}
		return nil
	case FormatJSON:
		return writeJSON(auditDocument{HasCycles: result.HasCycles, Cycles: result.CyclePaths}, "audit.json", config)
	case FormatCSV:
		rows := [][]string{{"cycle", "path"}}
		for i, c := range result.CyclePaths {
			rows = append(rows, []string{strconv.Itoa(i + 1), strings.Join(c, " -> ")})
		}
		return writeCSV(rows, "audit.csv", config)
	default:
		return ValidateFormat(config.Format)
	}
}

// WriteHeader prints a one-line summary of a stored formula
func WriteHeader(action string, header *entities.BOMHeader, config Config) {
	fmt.Fprintf(config.Writer(), "%s formula %s for %s version %s (%s, row version %d)\n",
		action, header.ID, header.ProductID, header.Version, header.Status, header.RowVersion)
}

func writeJSON(v interface{}, filename string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.Writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(config.OutputDir, filename)
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.Writer(), "JSON results saved to: %s\n", path)
	}
	return nil
}

func writeCSV(rows [][]string, filename string, config Config) error {
	w := config.Writer()
	var path string
	if config.OutputDir != "" {
		if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path = filepath.Join(config.OutputDir, filename)
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer file.Close()
		w = file
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	if path != "" && config.Verbose {
		fmt.Fprintf(config.Writer(), "CSV results saved to: %s\n", path)
	}
	return nil
}
