package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// DeleteProductConfig holds configuration for the product delete command
type DeleteProductConfig struct {
	ProductID   string
	ProductCode string
	Output      output.Config
}

// DeleteProductCommand soft-deletes a product nothing consumes
type DeleteProductCommand struct {
	config  DeleteProductConfig
	runtime *Runtime
}

// NewDeleteProductCommand creates a new product delete command
func NewDeleteProductCommand(config DeleteProductConfig, runtime *Runtime) *DeleteProductCommand {
	return &DeleteProductCommand{config: config, runtime: runtime}
}

// Execute runs the product delete command
func (c *DeleteProductCommand) Execute(ctx context.Context) error {
	product, err := resolveProduct(ctx, c.runtime, c.config.ProductID, c.config.ProductCode)
	if err != nil {
		return err
	}
	if err := c.runtime.MasterData.DeleteProduct(ctx, product.ID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintf(c.config.Output.Writer(), "Deleted product %s (%s)\n", product.Code, product.ID)
	return nil
}

// DeleteUnitConfig holds configuration for the unit delete command
type DeleteUnitConfig struct {
	UnitID string
	Output output.Config
}

// DeleteUnitCommand removes a unit no product or derived unit refers to
type DeleteUnitCommand struct {
	config  DeleteUnitConfig
	runtime *Runtime
}

func NewDeleteUnitCommand(config DeleteUnitConfig, runtime *Runtime) *DeleteUnitCommand {
	return &DeleteUnitCommand{config: config, runtime: runtime}
}

// Execute runs the unit delete command
func (c *DeleteUnitCommand) Execute(ctx context.Context) error {
	if err := c.runtime.MasterData.DeleteUnit(ctx, c.config.UnitID); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintf(c.config.Output.Writer(), "Deleted unit %s\n", c.config.UnitID)
	return nil
}
