package doctor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/operations"
)

// CommandExecutor is an interface for executing commands, allowing for testing.
type CommandExecutor interface {
	LookPath(file string) (string, error)
	Run(name string, args ...string) (string, error)
	CombinedOutput(name string, args ...string) ([]byte, error)
	IsDir(path string) bool
	Geteuid() int
}

// RealExecutor is the default command executor that uses the real system.
type RealExecutor struct{}

// LookPath finds the path to an executable.
func (e *RealExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes a command and returns its output.
func (e *RealExecutor) Run(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if stderr.Len() > 0 {
			return stderr.String(), err
		}
		return stdout.String(), err
	}
	return stdout.String(), nil
}

// CombinedOutput runs a command and returns combined stdout and stderr.
func (e *RealExecutor) CombinedOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// IsDir checks if path is an existing directory.
func (e *RealExecutor) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Geteuid returns the effective user id of the process.
func (e *RealExecutor) Geteuid() int {
	return os.Geteuid()
}

var pveVersionRe = regexp.MustCompile(`pve-manager/(\d+\.\d+(?:[.-]\d+)?)`)

// CheckRoot checks that lxcrun runs with root privileges.
func CheckRoot(exec CommandExecutor) Check {
	check := Check{
		ID:          IDRoot,
		Name:        "Root privileges",
		Description: "pct requires root",
		Required:    true,
	}

	if euid := exec.Geteuid(); euid != 0 {
		check.Status = StatusError
		check.Message = fmt.Sprintf("running as uid %d, re-run with sudo", euid)
		return check
	}

	check.Status = StatusOK
	check.Message = "running as root"
	return check
}

// CheckPct checks that the pct binary is installed.
func CheckPct(exec CommandExecutor, binary string) Check {
	check := Check{
		ID:          IDPct,
		Name:        "pct",
		Description: "Proxmox container toolkit",
		Required:    true,
		FixCommand:  GetFixCommand(IDPct, binary),
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed (is this a Proxmox VE node?)"
		return check
	}

	check.Status = StatusOK
	check.Message = path
	return check
}

// CheckPctList checks that pct can enumerate containers.
func CheckPctList(exec CommandExecutor, binary string) Check {
	check := Check{
		ID:          IDPctList,
		Name:        "pct list",
		Description: "Container inventory",
		Required:    true,
	}

	if _, err := exec.LookPath(binary); err != nil {
		check.Status = StatusMissing
		check.Message = "pct not available"
		return check
	}

	output, err := exec.Run(binary, "list")
	if err != nil {
		check.Status = StatusError
		check.Message = firstLine(output, err.Error())
		return check
	}

	count := 0
	for i, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if i == 0 || strings.TrimSpace(line) == "" {
			continue
		}
		count++
	}

	check.Status = StatusOK
	check.Message = fmt.Sprintf("%d container(s)", count)
	if count == 0 {
		check.Status = StatusWarning
		check.Message = "no containers defined"
	}
	return check
}

// CheckPveVersion reports the Proxmox VE version when pveversion is available.
func CheckPveVersion(exec CommandExecutor) Check {
	check := Check{
		ID:          IDPveVersion,
		Name:        "Proxmox VE",
		Description: "Host platform version",
	}

	path, err := exec.LookPath("pveversion")
	if err != nil {
		check.Status = StatusWarning
		check.Message = "pveversion not found"
		return check
	}

	output, err := exec.Run(path)
	if err != nil {
		check.Status = StatusWarning
		check.Message = "version unknown"
		return check
	}

	check.Status = StatusOK
	check.Message = "installed"
	if matches := pveVersionRe.FindStringSubmatch(output); len(matches) >= 2 {
		check.Message = matches[1]
	}
	return check
}

// CheckOperationsDir checks that the operations directory exists.
func CheckOperationsDir(exec CommandExecutor, dir string) Check {
	check := Check{
		ID:          IDOperationsDir,
		Name:        "Operations directory",
		Description: dir,
		Required:    true,
		FixCommand:  GetFixCommand(IDOperationsDir, dir),
	}

	if !exec.IsDir(dir) {
		check.Status = StatusMissing
		check.Message = "not found: " + dir
		return check
	}

	check.Status = StatusOK
	check.Message = dir
	return check
}

// CheckOperations checks that at least one executable operation is available.
func CheckOperations(dir string) Check {
	check := Check{
		ID:          IDOperations,
		Name:        "Operation scripts",
		Description: "Executable payloads in the operations directory",
	}

	registry, err := operations.Discover(dir)
	if err != nil {
		check.Status = StatusWarning
		check.Message = "directory unreadable"
		return check
	}

	var executable, other []string
	for _, op := range registry.Operations {
		if op.Executable {
			executable = append(executable, op.Name)
		} else {
			other = append(other, op.Name)
		}
	}

	switch {
	case len(executable) == 0:
		check.Status = StatusWarning
		check.Message = "no executable operations"
	case len(other) > 0:
		check.Status = StatusWarning
		check.Message = fmt.Sprintf("%d usable, not executable: %s", len(executable), strings.Join(other, ", "))
	default:
		check.Status = StatusOK
		check.Message = strings.Join(executable, ", ")
	}
	return check
}

// firstLine returns the first non-empty line of output, or fallback.
func firstLine(output, fallback string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return fallback
}
