package fanout

import (
	"sort"
	"time"
)

// Result classifies how a job ended.
type Result int

const (
	Success Result = iota
	Skipped
	Failed
)

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the immutable result of running the operation on one target.
type Outcome struct {
	TargetID string
	Result   Result
	Detail   string // Why a job was skipped or failed; empty on success
	ExitCode int    // Remote exit code, -1 when the operation never ran
	Duration time.Duration
}

// Exit codes of a run.
const (
	ExitOK     = 0
	ExitUsage  = 1
	ExitFailed = 2
)

// Tally counts outcomes by result.
type Tally struct {
	Success int
	Skipped int
	Failed  int
}

// Aggregate tallies outcomes. The result does not depend on outcome order.
func Aggregate(outcomes []Outcome) Tally {
	var t Tally
	for _, o := range outcomes {
		t.Add(o.Result)
	}
	return t
}

// Add counts one result.
func (t *Tally) Add(r Result) {
	switch r {
	case Success:
		t.Success++
	case Skipped:
		t.Skipped++
	case Failed:
		t.Failed++
	}
}

// Total returns the number of tallied outcomes.
func (t Tally) Total() int {
	return t.Success + t.Skipped + t.Failed
}

// ExitCode returns ExitFailed if any target failed, ExitOK otherwise.
func (t Tally) ExitCode() int {
	if t.Failed > 0 {
		return ExitFailed
	}
	return ExitOK
}

// FilterByResult returns the outcomes with the given result.
func FilterByResult(outcomes []Outcome, r Result) []Outcome {
	var out []Outcome
	for _, o := range outcomes {
		if o.Result == r {
			out = append(out, o)
		}
	}
	return out
}

// SortByTarget returns a copy of outcomes ordered by target id.
func SortByTarget(outcomes []Outcome) []Outcome {
	sorted := make([]Outcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessID(sorted[i].TargetID, sorted[j].TargetID)
	})
	return sorted
}

// lessID orders numeric VMIDs numerically and falls back to string order.
func lessID(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return a < b
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
