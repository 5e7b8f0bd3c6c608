package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/doctor"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/tui"
)

// runDoctor runs the host checks and optionally fixes what it can.
func runDoctor(cmd *cobra.Command, d deps, fix, yes bool) error {
	out := cmd.OutOrStdout()

	cfg, err := d.config()
	if err != nil {
		return err
	}

	checker := d.newChecker(cfg)
	groups := checker.CheckAll()
	printGroups(out, groups)

	if fix {
		fixer := d.newFixer()
		for _, check := range doctor.Fixable(groups) {
			if !yes {
				ok, err := d.confirm(
					fmt.Sprintf("Fix %s?", check.Name),
					fmt.Sprintf("%s: %s", check.FixCommand.Description, check.FixCommand.Command),
					"Yes, fix",
				)
				if err != nil {
					return usageError(err)
				}
				if !ok {
					continue
				}
			}
			if err := fixer.RunFix(check.FixCommand); err != nil {
				fmt.Fprintln(out, tui.ErrorStyle.Render(fmt.Sprintf("  %s: %v", check.Name, err)))
				continue
			}
			fmt.Fprintln(out, tui.SuccessStyle.Render(fmt.Sprintf("  %s: fixed", check.Name)))
		}

		groups = checker.CheckAll()
		fmt.Fprintln(out)
		printGroups(out, groups)
	}

	summary := doctor.GetSummary(groups)
	fmt.Fprintf(out, "%d checks: %d ok, %d warnings, %d missing, %d errors\n",
		summary.Total, summary.OK, summary.Warnings, summary.Missing, summary.Errors)

	if doctor.HasIssues(groups) {
		return usageError(errors.New("host is not ready to run operations"))
	}
	return nil
}

// printGroups renders check results grouped by area.
func printGroups(out io.Writer, groups []doctor.CheckGroup) {
	for _, group := range groups {
		fmt.Fprintln(out, tui.InfoStyle.Render(group.Name))
		for _, check := range group.Checks {
			fmt.Fprintf(out, "  %s %-22s %s\n", statusIcon(check.Status), check.Name, tui.DimStyle.Render(check.Message))
			if check.FixCommand != nil && (check.Status == doctor.StatusMissing || check.Status == doctor.StatusError) {
				fmt.Fprintf(out, "      fix: %s\n", check.FixCommand.Command)
			}
		}
		fmt.Fprintln(out)
	}
}

func statusIcon(s doctor.CheckStatus) string {
	switch s {
	case doctor.StatusOK:
		return tui.SuccessStyle.Render("✓")
	case doctor.StatusWarning:
		return tui.WarningStyle.Render("!")
	default:
		return tui.ErrorStyle.Render("✗")
	}
}
