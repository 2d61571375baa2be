package commands

import (
	"context"
	"fmt"

	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// CopyConfig holds configuration for the copy command
type CopyConfig struct {
	SourceHeaderID  string
	TargetProductID string
	Version         string
	Output          output.Config
}

// CopyCommand clones a formula onto another product as a new Draft
type CopyCommand struct {
	config  CopyConfig
	runtime *Runtime
}

// NewCopyCommand creates a new copy command
func NewCopyCommand(config CopyConfig, runtime *Runtime) *CopyCommand {
	return &CopyCommand{config: config, runtime: runtime}
}

// Execute runs the copy command
func (c *CopyCommand) Execute(ctx context.Context) error {
	clone, err := c.runtime.Formulas.Copy(ctx, c.config.SourceHeaderID, c.config.TargetProductID, c.config.Version)
	if err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	output.WriteHeader("Created", clone, c.config.Output)
	return nil
}

// DeleteConfig holds configuration for the delete command
type DeleteConfig struct {
	HeaderID   string
	RowVersion int64
	Output     output.Config
}

// DeleteCommand soft-deletes a formula
type DeleteCommand struct {
	config  DeleteConfig
	runtime *Runtime
}

// NewDeleteCommand creates a new delete command
func NewDeleteCommand(config DeleteConfig, runtime *Runtime) *DeleteCommand {
	return &DeleteCommand{config: config, runtime: runtime}
}

// Execute runs the delete command. A zero RowVersion uses the currently stored one.
func (c *DeleteCommand) Execute(ctx context.Context) error {
	rowVersion := c.config.RowVersion
	if rowVersion == 0 {
		header, err := c.runtime.Repo.GetHeader(ctx, c.config.HeaderID)
		if err != nil {
			return err
		}
		if header != nil {
			rowVersion = header.RowVersion
		}
	}

	if err := c.runtime.Formulas.Delete(ctx, c.config.HeaderID, rowVersion); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	fmt.Fprintf(c.config.Output.Writer(), "Deleted formula %s\n", c.config.HeaderID)
	return nil
}
