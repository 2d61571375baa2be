package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/application/pagination"
	"github.com/vsinha/bom/pkg/application/services/whereused"
	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// WhereUsedConfig holds configuration for the where-used command
type WhereUsedConfig struct {
	ProductID    string
	ProductCode  string
	MultiLevel   bool
	EndItemsOnly bool
	PageNumber   int
	PageSize     int
	Output       output.Config
}

// WhereUsedCommand lists the formulas consuming a product
type WhereUsedCommand struct {
	config  WhereUsedConfig
	runtime *Runtime
}

// NewWhereUsedCommand creates a new where-used command
func NewWhereUsedCommand(config WhereUsedConfig, runtime *Runtime) *WhereUsedCommand {
	return &WhereUsedCommand{config: config, runtime: runtime}
}

// Execute runs the where-used command
func (c *WhereUsedCommand) Execute(ctx context.Context) error {
	if err := output.ValidateFormat(c.config.Output.Format); err != nil {
		return err
	}

	product, err := resolveProduct(ctx, c.runtime, c.config.ProductID, c.config.ProductCode)
	if err != nil {
		return err
	}

	page, err := c.runtime.WhereUsed.WhereUsed(ctx, whereused.Query{
		ProductID:    product.ID,
		MultiLevel:   c.config.MultiLevel,
		EndItemsOnly: c.config.EndItemsOnly,
		Page: pagination.Request{
			PageNumber: c.config.PageNumber,
			PageSize:   c.config.PageSize,
		},
	})
	if err != nil {
		return fmt.Errorf("where-used failed: %w", err)
	}

	return output.WriteUsages(page, c.config.Output)
}
