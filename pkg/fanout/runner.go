// Package fanout runs one operation across many LXC containers with a bounded
// number of containers in flight, and tallies the per-container outcomes.
package fanout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

const (
	// ChildFlag is passed to every operation so it can tell it runs under
	// lxcrun and skip its own banner and prompts.
	ChildFlag = "--fanout"

	// SkipExitCode is the exit code an operation uses to report that the
	// container is not a supported environment.
	SkipExitCode = 100

	// DefaultRemoteDir is where payloads are copied inside containers.
	DefaultRemoteDir = "/tmp"

	// DefaultRetryDelay is the pause between transfer attempts.
	DefaultRetryDelay = 2 * time.Second
)

// Host is the subset of the container toolkit a job needs.
type Host interface {
	Status(ctx context.Context, id string) (pct.Status, error)
	Push(ctx context.Context, id, localPath, remotePath string) error
	Exec(ctx context.Context, id string, out io.Writer, argv ...string) (int, error)
}

// Options configures a Runner.
type Options struct {
	Payload     string        // Local path of the operation script
	Args        []string      // Forwarded to the operation
	DryRun      bool          // Report what would happen without touching targets
	RemoteDir   string        // Directory inside the container, defaults to /tmp
	StepTimeout time.Duration // Per remote step; 0 disables
	Retries     int           // Extra transfer attempts; exec is never retried
	RetryDelay  time.Duration
}

// Runner executes the operation on a single container.
type Runner struct {
	host   Host
	opts   Options
	events EventFunc
	logger logrus.FieldLogger
}

// NewRunner creates a new runner.
func NewRunner(host Host, opts Options) *Runner {
	if opts.RemoteDir == "" {
		opts.RemoteDir = DefaultRemoteDir
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	return &Runner{
		host:   host,
		opts:   opts,
		events: NoOpEvents,
		logger: logrus.StandardLogger(),
	}
}

// SetEvents sets the progress callback.
func (r *Runner) SetEvents(fn EventFunc) {
	if fn == nil {
		fn = NoOpEvents
	}
	r.events = fn
}

// SetLogger sets the logger used for inline failure reporting.
func (r *Runner) SetLogger(l logrus.FieldLogger) {
	r.logger = l
}

// RemotePath returns the payload location inside every container.
func (r *Runner) RemotePath() string {
	return path.Join(r.opts.RemoteDir, filepath.Base(r.opts.Payload))
}

// Command returns the argv executed inside the container.
func (r *Runner) Command() []string {
	argv := make([]string, 0, len(r.opts.Args)+2)
	argv = append(argv, r.RemotePath(), ChildFlag)
	return append(argv, r.opts.Args...)
}

// Run executes the operation on one container and classifies the outcome.
func (r *Runner) Run(ctx context.Context, id string) Outcome {
	start := time.Now()
	log := r.logger.WithField("ct", id)

	// Status may have changed since the inventory was taken.
	r.events(NewEvent(id, StageChecking, "checking status"))
	status, err := r.status(ctx, id)
	if err != nil {
		log.WithError(err).Error("status check failed")
		return r.finish(id, start, Failed, "status check failed", -1)
	}
	if !status.IsRunning() {
		log.Info("skipped: not running")
		return r.finish(id, start, Skipped, "not running", -1)
	}

	remote := r.RemotePath()

	if r.opts.DryRun {
		r.events(NewEvent(id, StageDryRun, fmt.Sprintf("would copy %s to %s and run %v",
			r.opts.Payload, remote, r.Command())))
		return r.finish(id, start, Success, "", -1)
	}

	r.events(NewEvent(id, StageTransfer, fmt.Sprintf("copying %s to %s", filepath.Base(r.opts.Payload), remote)))
	if err := r.push(ctx, id, remote, log); err != nil {
		log.WithError(err).Error("copy failed")
		return r.finish(id, start, Failed, "copy failed", -1)
	}

	result, detail, code := r.execute(ctx, id, remote, log)
	return r.finish(id, start, result, detail, code)
}

// execute runs the transferred payload and always removes it afterwards.
func (r *Runner) execute(ctx context.Context, id, remote string, log logrus.FieldLogger) (Result, string, int) {
	defer r.cleanup(ctx, id, remote, log)

	var chmodOut bytes.Buffer
	code, err := r.exec(ctx, id, &chmodOut, "chmod", "+x", remote)
	if err != nil || code != 0 {
		log.WithError(err).WithFields(logrus.Fields{
			"exit_code": code,
			"output":    strings.TrimSpace(chmodOut.String()),
		}).Error("chmod failed")
		return Failed, "chmod failed", code
	}

	r.events(NewEvent(id, StageExecuting, fmt.Sprintf("running %s", remote)))
	output := newOutputLog(log, DefaultTailLines)
	code, err = r.exec(ctx, id, output, r.Command()...)
	output.Flush()
	switch {
	case err != nil:
		log.WithError(err).Error("exec failed")
		return Failed, fmt.Sprintf("exec failed: %v", err), code
	case code == SkipExitCode:
		log.Info("skipped: unsupported environment")
		return Skipped, "unsupported environment", code
	case code != 0:
		tail := output.Tail()
		log.WithFields(logrus.Fields{
			"exit_code": code,
			"output":    strings.Join(tail, "\n"),
		}).Error("operation failed")
		return Failed, failureDetail(code, tail), code
	}

	return Success, "", 0
}

func (r *Runner) finish(id string, start time.Time, result Result, detail string, code int) Outcome {
	o := Outcome{
		TargetID: id,
		Result:   result,
		Detail:   detail,
		ExitCode: code,
		Duration: time.Since(start),
	}
	r.events(NewDoneEvent(o))
	return o
}

// stepContext bounds a single remote step.
func (r *Runner) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.StepTimeout)
}

func (r *Runner) status(ctx context.Context, id string) (pct.Status, error) {
	sctx, cancel := r.stepContext(ctx)
	defer cancel()
	return r.host.Status(sctx, id)
}

func (r *Runner) exec(ctx context.Context, id string, out io.Writer, argv ...string) (int, error) {
	sctx, cancel := r.stepContext(ctx)
	defer cancel()
	return r.host.Exec(sctx, id, out, argv...)
}

// failureDetail names the exit code and the last line the operation printed.
func failureDetail(code int, tail []string) string {
	detail := fmt.Sprintf("exit code %d", code)
	if len(tail) > 0 {
		detail += ": " + tail[len(tail)-1]
	}
	return detail
}

func (r *Runner) push(ctx context.Context, id, remote string, log logrus.FieldLogger) error {
	attempt := func() error {
		sctx, cancel := r.stepContext(ctx)
		defer cancel()
		return r.host.Push(sctx, id, r.opts.Payload, remote)
	}

	if r.opts.Retries <= 0 {
		return attempt()
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.opts.RetryDelay), uint64(r.opts.Retries)),
		ctx,
	)
	return backoff.RetryNotify(attempt, b, func(err error, wait time.Duration) {
		log.WithError(err).Warnf("copy failed, retrying in %s", wait)
	})
}

// cleanup removes the payload; failures are logged and never change the outcome.
func (r *Runner) cleanup(ctx context.Context, id, remote string, log logrus.FieldLogger) {
	r.events(NewEvent(id, StageCleanup, fmt.Sprintf("removing %s", remote)))
	var out bytes.Buffer
	code, err := r.exec(ctx, id, &out, "rm", "-f", remote)
	if err != nil || code != 0 {
		log.WithError(err).WithFields(logrus.Fields{
			"exit_code": code,
			"output":    strings.TrimSpace(out.String()),
		}).Warn("cleanup failed")
	}
}
