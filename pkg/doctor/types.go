// Package doctor provides host preflight checks for lxcrun.
package doctor

// CheckStatus represents the status of a host check.
type CheckStatus int

const (
	// StatusOK indicates the requirement is met.
	StatusOK CheckStatus = iota
	// StatusMissing indicates a tool or directory is absent.
	StatusMissing
	// StatusError indicates the requirement is present but unusable.
	StatusError
	// StatusWarning indicates an issue that does not block a run.
	StatusWarning
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check represents a single check result.
type Check struct {
	ID          string      // Unique identifier, e.g., "root", "pct"
	Name        string      // Display name
	Description string      // What is being verified
	Required    bool        // A failed required check blocks run
	Status      CheckStatus // Current status
	Message     string      // Status message (version info, error, etc.)
	FixCommand  *FixCommand // How to fix (nil if not fixable)
}

// Failed reports whether the check blocks a run.
func (c Check) Failed() bool {
	return c.Required && (c.Status == StatusMissing || c.Status == StatusError)
}

// FixCommand describes how to fix a failed check.
type FixCommand struct {
	Description string // Human-readable description of what the fix does
	Command     string // Shell command to run
}

// CheckGroup represents a group of related checks.
type CheckGroup struct {
	ID          string  // Unique identifier, e.g., "host", "operations"
	Name        string  // Display name
	Description string  // What this group is for
	Checks      []Check // Individual checks in this group
}

// GroupID constants for check groups.
const (
	GroupHost       = "host"
	GroupOperations = "operations"
)

// CheckID constants for individual checks.
const (
	IDRoot          = "root"
	IDPct           = "pct"
	IDPctList       = "pct-list"
	IDPveVersion    = "pveversion"
	IDOperationsDir = "operations-dir"
	IDOperations    = "operations"
)
