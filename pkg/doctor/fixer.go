package doctor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoFix is returned when a check has no automatic fix.
var ErrNoFix = errors.New("no fix command available")

// GetFixCommand returns the fix command for a check. arg is the pct binary
// or operations directory the check was run against.
func GetFixCommand(checkID, arg string) *FixCommand {
	switch checkID {
	case IDPct:
		return &FixCommand{
			Description: "Install the Proxmox container toolkit",
			Command:     "apt-get install -y pve-container",
		}
	case IDOperationsDir:
		if arg == "" {
			return nil
		}
		return &FixCommand{
			Description: "Create the operations directory",
			Command:     "mkdir -p -- " + shellQuote(arg),
		}
	default:
		return nil
	}
}

// shellQuote wraps s in single quotes for sh, escaping embedded quotes.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Fixer provides functionality to run fix commands.
type Fixer struct {
	executor CommandExecutor
}

// NewFixer creates a new Fixer.
func NewFixer() *Fixer {
	return &Fixer{
		executor: &RealExecutor{},
	}
}

// NewFixerWithExecutor creates a new Fixer with a custom executor.
func NewFixerWithExecutor(exec CommandExecutor) *Fixer {
	return &Fixer{
		executor: exec,
	}
}

// RunFix executes a fix command.
func (f *Fixer) RunFix(fix *FixCommand) error {
	if fix == nil {
		return ErrNoFix
	}

	output, err := f.executor.CombinedOutput("sh", "-c", fix.Command)
	if err != nil {
		return fmt.Errorf("fix failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// Fixable returns the failed checks that carry a fix command.
func Fixable(groups []CheckGroup) []Check {
	var checks []Check
	for _, group := range groups {
		for _, check := range group.Checks {
			if check.FixCommand != nil && (check.Status == StatusMissing || check.Status == StatusError) {
				checks = append(checks, check)
			}
		}
	}
	return checks
}
