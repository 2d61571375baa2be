package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// UpdateConfig holds configuration for the update command
type UpdateConfig struct {
	DataDir    string
	RowVersion int64
	Output     output.Config
}

// UpdateCommand rewrites stored formulas from the formula files of a CSV directory.
// Lines and substitutes are matched by id: known ids are updated, new ids inserted and
// stored rows missing from the files removed.
type UpdateCommand struct {
	config  UpdateConfig
	runtime *Runtime
}

// NewUpdateCommand creates a new update command
func NewUpdateCommand(config UpdateConfig, runtime *Runtime) *UpdateCommand {
	return &UpdateCommand{config: config, runtime: runtime}
}

// Execute runs the update command. A zero RowVersion expects each formula's current row
// version; a non-zero one is only accepted for a directory holding a single formula.
func (c *UpdateCommand) Execute(ctx context.Context) error {
	headers, err := csv.NewLoader().LoadFormulas(c.config.DataDir)
	if err != nil {
		return err
	}
	if c.config.RowVersion != 0 && len(headers) != 1 {
		return fmt.Errorf("--row-version needs exactly one formula, %s holds %d", c.config.DataDir, len(headers))
	}

	for _, h := range headers {
		expected := c.config.RowVersion
		if expected == 0 {
			stored, err := c.runtime.Repo.GetHeader(ctx, h.ID)
			if err != nil {
				return err
			}
			if stored != nil {
				expected = stored.RowVersion
			}
		}

		updated, err := c.runtime.Formulas.Update(ctx, h, expected)
		if err != nil {
			return fmt.Errorf("update of %s failed: %w", h.ID, err)
		}
		output.WriteHeader("Updated", updated, c.config.Output)
	}
	return nil
}
