// Package main provides lxcrun, a tool that runs one operation script across
// the LXC containers of a Proxmox VE host.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/doctor"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/tui"
)

// version is set via -ldflags during build
var version = "dev"

func main() {
	rootCmd := newRootCmd(defaultDeps())

	// Cobra handles error printing
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// usageError marks err as a usage or preflight problem (exit 1).
func usageError(err error) error {
	return &exitError{code: fanout.ExitUsage, err: err}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return fanout.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return fanout.ExitUsage
}

// inventory lists containers and runs jobs against them.
type inventory interface {
	ListAll(ctx context.Context) ([]pct.Container, error)
	fanout.Host
}

// deps holds the host-facing pieces of the commands so tests can replace them.
type deps struct {
	loadConfig func() (*globalconfig.Config, error)
	newHost    func(binary string) inventory
	newChecker func(cfg *globalconfig.Config) *doctor.Checker
	newFixer   func() *doctor.Fixer
	confirm    func(title, description, affirmative string) (bool, error)
	isTerminal func() bool
}

func defaultDeps() deps {
	return deps{
		loadConfig: globalconfig.Load,
		newHost: func(binary string) inventory {
			return pct.NewClient(binary)
		},
		newChecker: func(cfg *globalconfig.Config) *doctor.Checker {
			return doctor.NewChecker(cfg.PctPath, cfg.OperationsDir)
		},
		newFixer: doctor.NewFixer,
		confirm:  tui.Confirm,
		isTerminal: func() bool {
			return tui.IsTerminal(os.Stderr) && tui.IsTerminal(os.Stdin)
		},
	}
}

// newRootCmd creates the root command for lxcrun
func newRootCmd(d deps) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "lxcrun",
		Short: "Run an operation across Proxmox LXC containers",
		Long: `lxcrun copies an operation script into LXC containers on this Proxmox VE
host and executes it in each of them, optionally several at a time.

Containers are discovered with pct, filtered by status and by include or
exclude lists, and the per-container results are tallied at the end:
exit 0 when nothing failed, 2 when at least one container failed.`,
		Version: version,
	}

	rootCmd.AddCommand(
		newRunCmd(d),
		newListCmd(d),
		newOperationsCmd(d),
		newDoctorCmd(d),
	)

	return rootCmd
}

// config loads the global config, mapping failures to a usage error.
func (d deps) config() (*globalconfig.Config, error) {
	cfg, err := d.loadConfig()
	if err != nil {
		return nil, usageError(fmt.Errorf("failed to load config: %w", err))
	}
	return cfg, nil
}
