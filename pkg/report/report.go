// Package report writes a YAML record of a run.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
)

// Report is the persisted record of one run.
type Report struct {
	RunID     string    `yaml:"run_id"`
	Operation string    `yaml:"operation"`
	Args      []string  `yaml:"args,omitempty"`
	DryRun    bool      `yaml:"dry_run,omitempty"`
	Started   time.Time `yaml:"started"`
	Finished  time.Time `yaml:"finished"`
	Tally     Tally     `yaml:"tally"`
	ExitCode  int       `yaml:"exit_code"`
	Targets   []Target  `yaml:"targets"`
}

// Tally mirrors fanout.Tally with YAML keys.
type Tally struct {
	Success int `yaml:"success"`
	Skipped int `yaml:"skipped"`
	Failed  int `yaml:"failed"`
}

// Target is the outcome of one container.
type Target struct {
	ID       string `yaml:"id"`
	Result   string `yaml:"result"`
	Detail   string `yaml:"detail,omitempty"`
	ExitCode int    `yaml:"exit_code"`
	Duration string `yaml:"duration"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// New builds a report from the outcomes of a run. Targets are sorted by id.
func New(runID, operation string, args []string, dryRun bool, started, finished time.Time, outcomes []fanout.Outcome) *Report {
	tally := fanout.Aggregate(outcomes)

	r := &Report{
		RunID:     runID,
		Operation: operation,
		Args:      args,
		DryRun:    dryRun,
		Started:   started.UTC(),
		Finished:  finished.UTC(),
		Tally: Tally{
			Success: tally.Success,
			Skipped: tally.Skipped,
			Failed:  tally.Failed,
		},
		ExitCode: tally.ExitCode(),
		Targets:  make([]Target, 0, len(outcomes)),
	}

	for _, o := range fanout.SortByTarget(outcomes) {
		r.Targets = append(r.Targets, Target{
			ID:       o.TargetID,
			Result:   o.Result.String(),
			Detail:   o.Detail,
			ExitCode: o.ExitCode,
			Duration: o.Duration.Round(time.Millisecond).String(),
		})
	}

	return r
}

// Marshal encodes the report as YAML.
func (r *Report) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// Write atomically replaces path with the report.
func (r *Report) Write(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
