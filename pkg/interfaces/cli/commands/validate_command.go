package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// ValidateConfig holds configuration for the validate command
type ValidateConfig struct {
	// FailOnCycles turns a detected cycle into a command error
	FailOnCycles bool
	Output       output.Config
}

// ValidateCommand audits the stored formula graph for cycles
type ValidateCommand struct {
	config  ValidateConfig
	runtime *Runtime
}

// NewValidateCommand creates a new validate command
func NewValidateCommand(config ValidateConfig, runtime *Runtime) *ValidateCommand {
	return &ValidateCommand{config: config, runtime: runtime}
}

// Execute runs the validate command
func (c *ValidateCommand) Execute(ctx context.Context) error {
	if err := output.ValidateFormat(c.config.Output.Format); err != nil {
		return err
	}

	result, err := c.runtime.Formulas.Audit(ctx)
	if err != nil {
		return err
	}
	if err := output.WriteAudit(result, c.config.Output); err != nil {
		return err
	}

	if result.HasCycles && c.config.FailOnCycles {
		return fmt.Errorf("formula graph has %d cycle(s)", len(result.CyclePaths))
	}
	return nil
}
