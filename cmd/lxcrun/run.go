package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/cli"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/logging"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/operations"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/report"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/tui"
)

const runUsage = `Run an operation in every selected container.

Usage:
  lxcrun run [flags] <operation> [args...]

The operation script is copied into each container, executed with --fanout
followed by args, and removed again. lxcrun flags go before the operation
name; everything after the name is passed to the operation untouched. Leading
flags lxcrun does not know are passed on as well, and "--" ends lxcrun's flags.
Unknown leading flags that take a value must be written as --flag=value.

Flags:
  -a, --all               Include stopped containers
  -p, --parallel N        Run on up to N containers at once (1-20, default 1)
  -e, --exclude LIST      Skip these container IDs (comma or space separated)
  -i, --include LIST      Only these container IDs (cannot be used with --exclude)
  -y, --yes               Do not ask for confirmation
  -d, --dry-run           Show what would run without touching containers
      --timeout DURATION  Limit for each remote step, e.g. 10m (0 disables)
      --retries N         Extra attempts when copying the operation fails
      --report PATH       Write a YAML report of the run
      --plain             Plain log output instead of the live view
  -v, --verbose           Debug logging
  -h, --help              Show this help

Exit codes: 0 nothing failed, 1 usage error or aborted, 2 at least one container failed.
`

// errAborted is returned when the confirmation prompt is declined.
var errAborted = errors.New("aborted")

// settings merges the config file with the command line; flags win.
func settings(cfg *globalconfig.Config, inv cli.Invocation) (parallelism int, timeout time.Duration, retries int) {
	parallelism = cfg.Parallelism
	if inv.Parallelism > 0 {
		parallelism = inv.Parallelism
	}
	timeout = cfg.StepTimeout
	if inv.TimeoutSet {
		timeout = inv.Timeout
	}
	retries = cfg.Retries
	if inv.RetriesSet {
		retries = inv.Retries
	}
	return parallelism, timeout, retries
}

// runRun executes the run subcommand.
func runRun(cmd *cobra.Command, args []string, d deps) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	inv, err := cli.Parse(args)
	if err != nil {
		return usageError(err)
	}
	if inv.Help {
		fmt.Fprint(out, runUsage)
		return nil
	}

	cfg, err := d.config()
	if err != nil {
		return err
	}
	parallelism, timeout, retries := settings(cfg, inv)

	runID := report.NewRunID()
	logger := logging.New(errOut, logging.Options{Verbose: inv.Verbose})
	log := logging.ForRun(logger, runID, inv.Operation)

	if err := d.newChecker(cfg).Preflight(); err != nil {
		return usageError(err)
	}

	op, err := operations.Resolve(cfg.OperationsDir, inv.Operation)
	if err != nil {
		return usageError(err)
	}

	ctx := cmd.Context()
	host := d.newHost(cfg.PctPath)

	records, err := host.ListAll(ctx)
	if err != nil {
		return usageError(fmt.Errorf("failed to list containers: %w", err))
	}
	if len(records) == 0 {
		log.Warn("no containers found on this host")
		return nil
	}

	targets := fanout.Filter(records, inv.Selection())
	if len(targets) == 0 {
		fmt.Fprintln(out, tui.WarningStyle.Render("No containers match the selection."))
		return nil
	}

	fmt.Fprint(out, tui.RenderTargets(op.Name, inv.Args, targets))
	if inv.DryRun {
		fmt.Fprintln(out, tui.InfoStyle.Render("Dry run: no container will be changed."))
	}

	if !inv.AssumeYes && !inv.DryRun {
		ok, err := d.confirm(
			fmt.Sprintf("Run %s on %d container(s)?", op.Name, len(targets)),
			"The operation is copied into each container and executed as root",
			"Yes, run",
		)
		if err != nil {
			return usageError(err)
		}
		if !ok {
			return usageError(errAborted)
		}
	}

	runner := fanout.NewRunner(host, fanout.Options{
		Payload:     op.Path,
		Args:        inv.Args,
		DryRun:      inv.DryRun,
		RemoteDir:   cfg.RemoteDir,
		StepTimeout: timeout,
		Retries:     retries,
	})
	runner.SetLogger(log)
	scheduler := fanout.NewScheduler(runner, parallelism)

	log.WithFields(logrus.Fields{
		"targets":     len(targets),
		"parallelism": scheduler.Parallelism(),
		"remote_path": runner.RemotePath(),
	}).Debug("starting run")

	started := time.Now()
	var outcomes []fanout.Outcome

	if !inv.Plain && d.isTerminal() {
		outcomes = runLive(ctx, scheduler, runner, logger, out, errOut, op.Name, targets)
	} else {
		runner.SetEvents(debugEvents(log))
		outcomes = scheduler.RunAll(ctx, targets, func(o fanout.Outcome) {
			fmt.Fprintln(out, tui.RenderOutcome(o))
		})
	}
	finished := time.Now()

	tally := fanout.Aggregate(outcomes)
	fmt.Fprintln(out)
	fmt.Fprintln(out, tui.RenderTally(tally))

	if inv.ReportPath != "" {
		r := report.New(runID, op.Name, inv.Args, inv.DryRun, started, finished, outcomes)
		if err := r.Write(inv.ReportPath); err != nil {
			log.WithError(err).Error("report not written")
		} else {
			log.WithField("path", inv.ReportPath).Debug("report written")
		}
	}

	if code := tally.ExitCode(); code != fanout.ExitOK {
		return &exitError{code: code, err: fmt.Errorf("%d of %d container(s) failed", tally.Failed, tally.Total())}
	}
	return nil
}

// runLive runs the scheduler behind the live progress view. Log lines are
// printed above the view while it is active.
func runLive(ctx context.Context, scheduler *fanout.Scheduler, runner *fanout.Runner, logger *logrus.Logger, out, errOut io.Writer, operation string, targets []string) []fanout.Outcome {
	view := tui.NewLiveView(fmt.Sprintf("Running %s", operation), len(targets), errOut)
	logger.SetOutput(view.Writer())
	runner.SetEvents(view.Events())

	view.Start()
	outcomes := scheduler.RunAll(ctx, targets, nil)
	view.Stop()

	logger.SetOutput(errOut)
	for _, o := range fanout.SortByTarget(outcomes) {
		fmt.Fprintln(out, tui.RenderOutcome(o))
	}
	return outcomes
}

// debugEvents logs job progress at debug level.
func debugEvents(log logrus.FieldLogger) fanout.EventFunc {
	return func(e fanout.Event) {
		log.WithFields(logrus.Fields{
			logging.FieldTarget: e.TargetID,
			"stage":             e.Stage,
		}).Debug(e.Message)
	}
}
