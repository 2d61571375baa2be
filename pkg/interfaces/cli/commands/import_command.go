package commands

import (
	"context"
	"fmt"
	"sort"

	"github.com/vsinha/bom/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// ImportConfig holds configuration for the import command
type ImportConfig struct {
	DataDir string
	Output  output.Config
}

// ImportCommand loads a CSV dataset through the master data and formula services,
// so every row passes the same checks as an interactive write
type ImportCommand struct {
	config  ImportConfig
	runtime *Runtime
}

// NewImportCommand creates a new import command
func NewImportCommand(config ImportConfig, runtime *Runtime) *ImportCommand {
	return &ImportCommand{config: config, runtime: runtime}
}

// Execute runs the import command
func (c *ImportCommand) Execute(ctx context.Context) error {
	dataset, err := csv.NewLoader().LoadDir(c.config.DataDir)
	if err != nil {
		return err
	}

	// base units before the units converting to them
	units := dataset.Units
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].IsBase() && !units[j].IsBase()
	})
	for _, u := range units {
		if _, err := c.runtime.MasterData.CreateUnit(ctx, u.ID, u.Title, u.Symbol, u.BaseUnitID, u.ConversionFactor); err != nil {
			return fmt.Errorf("unit %s: %w", u.ID, err)
		}
	}

	for _, p := range dataset.Products {
		if _, err := c.runtime.MasterData.CreateProduct(ctx, p.ID, p.Code, p.Name, p.UnitID, p.SupplyType); err != nil {
			return fmt.Errorf("product %s: %w", p.Code, err)
		}
	}

	for _, h := range dataset.Headers {
		if _, err := c.runtime.Formulas.Create(ctx, h); err != nil {
			return fmt.Errorf("formula %s: %w", h.ID, err)
		}
	}

	w := c.config.Output.Writer()
	fmt.Fprintf(w, "Imported %d units, %d products, %d formulas\n",
		len(dataset.Units), len(dataset.Products), len(dataset.Headers))
	return nil
}
