package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/tui"
)

// runList prints the container inventory.
func runList(cmd *cobra.Command, d deps, all bool) error {
	out := cmd.OutOrStdout()

	cfg, err := d.config()
	if err != nil {
		return err
	}

	records, err := d.newHost(cfg.PctPath).ListAll(cmd.Context())
	if err != nil {
		return usageError(fmt.Errorf("failed to list containers: %w", err))
	}

	ids := fanout.Filter(records, fanout.Selection{IncludeStopped: all})
	if len(ids) == 0 {
		fmt.Fprintln(out, tui.WarningStyle.Render("No containers found."))
		return nil
	}

	byID := make(map[string]pct.Container, len(records))
	for _, c := range records {
		byID[c.ID] = c
	}

	fmt.Fprintf(out, "%-8s %-10s %s\n", "VMID", "STATUS", "NAME")
	for _, id := range ids {
		c := byID[id]
		status := c.Status.String()
		if c.Status.IsRunning() {
			status = tui.SuccessStyle.Render(fmt.Sprintf("%-10s", status))
		} else {
			status = tui.DimStyle.Render(fmt.Sprintf("%-10s", status))
		}
		fmt.Fprintf(out, "%-8s %s %s\n", c.ID, status, c.Name)
	}

	return nil
}
