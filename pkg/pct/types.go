// Package pct wraps the Proxmox VE container toolkit (pct) used to list,
// inspect and run commands inside LXC containers on the local host.
package pct

// Status represents the run state of a container.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsRunning reports whether the container is running.
func (s Status) IsRunning() bool {
	return s == StatusRunning
}

// Container is a single row from pct list.
type Container struct {
	ID     string // Numeric VMID, kept as a string
	Status Status
	Name   string // Hostname column, may be empty
}

// ParseStatus converts a pct state string to Status.
// The comparison is case-sensitive: pct always prints lowercase states.
func ParseStatus(state string) Status {
	switch state {
	case "running":
		return StatusRunning
	case "stopped":
		return StatusStopped
	default:
		return StatusUnknown
	}
}
