package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/domain/entities"
	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// ExplodeConfig holds configuration for the explode command
type ExplodeConfig struct {
	HeaderID string
	// ProductCode explodes the product's active formula when HeaderID is empty
	ProductCode string
	Summary     bool
	Output      output.Config
}

// ExplodeCommand prints the multi-level component tree of a formula
type ExplodeCommand struct {
	config  ExplodeConfig
	runtime *Runtime
}

// NewExplodeCommand creates a new explode command
func NewExplodeCommand(config ExplodeConfig, runtime *Runtime) *ExplodeCommand {
	return &ExplodeCommand{config: config, runtime: runtime}
}

// Execute runs the explode command
func (c *ExplodeCommand) Execute(ctx context.Context) error {
	if err := output.ValidateFormat(c.config.Output.Format); err != nil {
		return err
	}

	headerID := c.config.HeaderID
	if headerID == "" {
		id, err := c.activeHeaderOf(ctx, c.config.ProductCode)
		if err != nil {
			return err
		}
		headerID = id
	}

	tree, err := c.runtime.Explorer.Explode(ctx, headerID)
	if err != nil {
		return fmt.Errorf("explosion failed: %w", err)
	}

	return output.WriteTree(tree, c.config.Summary, c.config.Output)
}

func (c *ExplodeCommand) activeHeaderOf(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("a formula id or a product code is required")
	}
	product, err := resolveProduct(ctx, c.runtime, "", code)
	if err != nil {
		return "", err
	}
	header, err := c.runtime.Repo.GetActiveHeader(ctx, product.ID)
	if err != nil {
		return "", err
	}
	if header == nil {
		return "", entities.NotFoundf("active formula for product %s", code)
	}
	return header.ID, nil
}

// resolveProduct looks a product up by id, or by code when id is empty
func resolveProduct(ctx context.Context, rt *Runtime, id, code string) (*entities.Product, error) {
	var (
		product *entities.Product
		err     error
	)
	switch {
	case id != "":
		product, err = rt.Repo.GetProduct(ctx, id)
	case code != "":
		product, err = rt.Repo.GetProductByCode(ctx, code)
	default:
		return nil, fmt.Errorf("a product id or code is required")
	}
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, entities.NotFoundf("product %s%s", id, code)
	}
	return product, nil
}
