package doctor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

// ErrPreflightFailed is returned when a required check fails.
var ErrPreflightFailed = errors.New("preflight failed")

// Checker runs host checks.
type Checker struct {
	executor      CommandExecutor
	pctBinary     string
	operationsDir string
}

// NewChecker creates a new Checker with the real command executor.
func NewChecker(pctBinary, operationsDir string) *Checker {
	return NewCheckerWithExecutor(&RealExecutor{}, pctBinary, operationsDir)
}

// NewCheckerWithExecutor creates a new Checker with a custom executor (for testing).
func NewCheckerWithExecutor(exec CommandExecutor, pctBinary, operationsDir string) *Checker {
	if pctBinary == "" {
		pctBinary = pct.DefaultBinary
	}
	return &Checker{
		executor:      exec,
		pctBinary:     pctBinary,
		operationsDir: operationsDir,
	}
}

// CheckAll runs all checks concurrently and returns groups in display order.
func (c *Checker) CheckAll() []CheckGroup {
	ids := GetAllGroupIDs()
	result := make([]CheckGroup, len(ids))
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, groupID string) {
			defer wg.Done()
			result[idx] = c.CheckGroup(groupID)
		}(i, id)
	}

	wg.Wait()
	return result
}

// CheckGroup runs all checks for a specific group.
func (c *Checker) CheckGroup(groupID string) CheckGroup {
	def, ok := GetGroupDefinition(groupID)
	if !ok {
		return CheckGroup{
			ID:   groupID,
			Name: "Unknown",
		}
	}

	group := CheckGroup{
		ID:          groupID,
		Name:        def.Name,
		Description: def.Description,
	}

	for _, checkID := range def.CheckIDs {
		group.Checks = append(group.Checks, c.runCheck(checkID))
	}

	return group
}

// runCheck runs a specific check by ID.
func (c *Checker) runCheck(checkID string) Check {
	switch checkID {
	case IDRoot:
		return CheckRoot(c.executor)
	case IDPct:
		return CheckPct(c.executor, c.pctBinary)
	case IDPctList:
		return CheckPctList(c.executor, c.pctBinary)
	case IDPveVersion:
		return CheckPveVersion(c.executor)
	case IDOperationsDir:
		return CheckOperationsDir(c.executor, c.operationsDir)
	case IDOperations:
		return CheckOperations(c.operationsDir)
	default:
		return Check{
			ID:      checkID,
			Name:    checkID,
			Status:  StatusError,
			Message: "unknown check",
		}
	}
}

// Preflight runs the checks that gate a run: privileges, pct, and the
// operations directory. It returns ErrPreflightFailed listing every failure.
func (c *Checker) Preflight() error {
	checks := []Check{
		CheckRoot(c.executor),
		CheckPct(c.executor, c.pctBinary),
		CheckOperationsDir(c.executor, c.operationsDir),
	}

	var problems []string
	for _, check := range checks {
		if check.Failed() {
			problems = append(problems, fmt.Sprintf("%s: %s", check.Name, check.Message))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrPreflightFailed, strings.Join(problems, "; "))
	}
	return nil
}

// Summary represents an overall health summary.
type Summary struct {
	Total    int
	OK       int
	Missing  int
	Warnings int
	Errors   int
}

// GetSummary returns a summary of check results.
func GetSummary(groups []CheckGroup) Summary {
	var summary Summary

	for _, group := range groups {
		for _, check := range group.Checks {
			summary.Total++
			switch check.Status {
			case StatusOK:
				summary.OK++
			case StatusMissing:
				summary.Missing++
			case StatusWarning:
				summary.Warnings++
			case StatusError:
				summary.Errors++
			}
		}
	}

	return summary
}

// HasIssues returns true if any required check failed.
func HasIssues(groups []CheckGroup) bool {
	for _, group := range groups {
		for _, check := range group.Checks {
			if check.Failed() {
				return true
			}
		}
	}
	return false
}
