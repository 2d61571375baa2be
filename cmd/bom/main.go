package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vsinha/bom/pkg/interfaces/cli/commands"
	"github.com/vsinha/bom/pkg/interfaces/cli/output"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	dataDir    string
	format     string
	outputDir  string
	verbose    bool
}

func (g *globalFlags) output() output.Config {
	return output.Config{
		Format:    g.format,
		OutputDir: g.outputDir,
		Out:       os.Stdout,
		Verbose:   g.verbose,
	}
}

// run opens a runtime for the duration of one command
func (g *globalFlags) run(ctx context.Context, exec func(rt *commands.Runtime) error) error {
	rt, err := commands.NewRuntime(ctx, commands.Options{
		ConfigFile: g.configFile,
		DataDir:    g.dataDir,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	return exec(rt)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "bom",
		Short:         "Explore and maintain bills of materials",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Config file (default ./bom.yaml when present)")
	pf.StringVar(&g.dataDir, "data", "", "Read a CSV snapshot directory instead of the database")
	pf.StringVar(&g.format, "format", output.FormatText, "Output format: text, json, csv")
	pf.StringVar(&g.outputDir, "output", "", "Write json/csv results to this directory")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output")

	root.AddCommand(
		newExplodeCommand(g),
		newWhereUsedCommand(g),
		newValidateCommand(g),
		newImportCommand(g),
		newUpdateCommand(g),
		newCopyCommand(g),
		newDeleteCommand(g),
		newProductCommand(g),
		newUnitCommand(g),
	)
	return root
}

func newExplodeCommand(g *globalFlags) *cobra.Command {
	cfg := commands.ExplodeConfig{}
	cmd := &cobra.Command{
		Use:   "explode [formula-id]",
		Short: "Print the multi-level component tree of a formula",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.HeaderID = args[0]
			}
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewExplodeCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	cmd.Flags().StringVar(&cfg.ProductCode, "product", "", "Explode the active formula of this product code")
	cmd.Flags().BoolVar(&cfg.Summary, "summary", false, "Append total raw material requirements")
	return cmd
}

func newWhereUsedCommand(g *globalFlags) *cobra.Command {
	cfg := commands.WhereUsedConfig{}
	cmd := &cobra.Command{
		Use:   "where-used [product-id]",
		Short: "List the formulas that consume a product",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.ProductID = args[0]
			}
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewWhereUsedCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.ProductCode, "code", "", "Look the product up by code")
	f.BoolVar(&cfg.MultiLevel, "multi-level", false, "Follow consumers transitively")
	f.BoolVar(&cfg.EndItemsOnly, "end-items", false, "Keep only consumers no active formula consumes")
	f.IntVar(&cfg.PageNumber, "page", 1, "Page number")
	f.IntVar(&cfg.PageSize, "page-size", 0, "Page size (default from config)")
	return cmd
}

func newValidateCommand(g *globalFlags) *cobra.Command {
	cfg := commands.ValidateConfig{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Audit the stored formula graph for cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewValidateCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	cmd.Flags().BoolVar(&cfg.FailOnCycles, "strict", false, "Exit non-zero when a cycle is found")
	return cmd
}

func newImportCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Import a CSV dataset into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.dataDir != "" {
				return fmt.Errorf("import writes to the database and cannot be combined with --data")
			}
			cfg := commands.ImportConfig{DataDir: args[0], Output: g.output()}
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewImportCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
}

func newUpdateCommand(g *globalFlags) *cobra.Command {
	cfg := commands.UpdateConfig{}
	cmd := &cobra.Command{
		Use:   "update <dir>",
		Short: "Rewrite stored formulas from the formula CSV files of a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.dataDir != "" {
				return fmt.Errorf("update writes to the database and cannot be combined with --data")
			}
			cfg.DataDir = args[0]
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewUpdateCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	cmd.Flags().Int64Var(&cfg.RowVersion, "row-version", 0, "Expected row version of a single formula (default: current)")
	return cmd
}

func newCopyCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <formula-id> <target-product-id> <version>",
		Short: "Copy a formula to another product as a new draft",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := commands.CopyConfig{
				SourceHeaderID:  args[0],
				TargetProductID: args[1],
				Version:         args[2],
				Output:          g.output(),
			}
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewCopyCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
}

func newDeleteCommand(g *globalFlags) *cobra.Command {
	cfg := commands.DeleteConfig{}
	cmd := &cobra.Command{
		Use:   "delete <formula-id>",
		Short: "Soft-delete a formula",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.HeaderID = args[0]
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewDeleteCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	cmd.Flags().Int64Var(&cfg.RowVersion, "row-version", 0, "Expected row version (default: current)")
	return cmd
}

func newProductCommand(g *globalFlags) *cobra.Command {
	product := &cobra.Command{
		Use:   "product",
		Short: "Maintain products",
	}

	cfg := commands.DeleteProductConfig{}
	remove := &cobra.Command{
		Use:   "delete [product-id]",
		Short: "Soft-delete a product no formula consumes or owns",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.ProductID = args[0]
			}
			cfg.Output = g.output()
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewDeleteProductCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	}
	remove.Flags().StringVar(&cfg.ProductCode, "code", "", "Look the product up by code")

	product.AddCommand(remove)
	return product
}

func newUnitCommand(g *globalFlags) *cobra.Command {
	unit := &cobra.Command{
		Use:   "unit",
		Short: "Maintain units of measure",
	}
	unit.AddCommand(&cobra.Command{
		Use:   "delete <unit-id>",
		Short: "Delete a unit no product or derived unit refers to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := commands.DeleteUnitConfig{UnitID: args[0], Output: g.output()}
			return g.run(cmd.Context(), func(rt *commands.Runtime) error {
				return commands.NewDeleteUnitCommand(cfg, rt).Execute(cmd.Context())
			})
		},
	})
	return unit
}
