package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/operations"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/tui"
	bundled "github.com/jaspreet-dot-casa/lxcrun/scripts/operations"
)

// runOperations lists all operations in the operations directory.
func runOperations(cmd *cobra.Command, d deps, install, force bool) error {
	out := cmd.OutOrStdout()

	cfg, err := d.config()
	if err != nil {
		return err
	}

	if install {
		written, err := operations.Install(bundled.Scripts, cfg.OperationsDir, force)
		if err != nil {
			return usageError(err)
		}
		for _, name := range written {
			fmt.Fprintln(out, tui.SuccessStyle.Render("  installed "+name))
		}
		if len(written) == 0 {
			fmt.Fprintln(out, tui.DimStyle.Render("  bundled operations already installed"))
		}
		fmt.Fprintln(out)
	}

	registry, err := operations.Discover(cfg.OperationsDir)
	if err != nil {
		return usageError(fmt.Errorf("failed to discover operations: %w", err))
	}

	fmt.Fprintf(out, "Found %d operations in %s:\n\n", len(registry.Operations), cfg.OperationsDir)

	for _, op := range registry.Operations {
		desc := op.Description
		if desc == "" {
			desc = "(no description)"
		}
		line := fmt.Sprintf("  - %s: %s", op.Name, desc)
		if !op.Executable {
			line += tui.WarningStyle.Render(" [not executable]")
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
