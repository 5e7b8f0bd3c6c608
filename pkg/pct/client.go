package pct

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// DefaultBinary is the container toolkit executable on a Proxmox VE host.
const DefaultBinary = "pct"

// Client provides direct access to pct commands.
type Client struct {
	binary string
}

// NewClient creates a new pct client.
func NewClient(binary string) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{binary: binary}
}

// Binary returns the executable the client invokes.
func (c *Client) Binary() string {
	return c.binary
}

// ListAll returns all containers (running and stopped) known to the host.
func (c *Client) ListAll(ctx context.Context) ([]Container, error) {
	cmd := exec.CommandContext(ctx, c.binary, "list")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pct list failed: %w\n%s", err, stderr.String())
	}

	return parsePctList(stdout.String()), nil
}

// Status returns the current status of a container.
func (c *Client) Status(ctx context.Context, id string) (Status, error) {
	cmd := exec.CommandContext(ctx, c.binary, "status", id)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if strings.Contains(stderr.String(), "does not exist") {
			return StatusUnknown, nil
		}
		return StatusUnknown, fmt.Errorf("pct status %s failed: %w", id, err)
	}

	return parsePctStatus(stdout.String()), nil
}

// Push copies a local file into the container filesystem.
func (c *Client) Push(ctx context.Context, id, localPath, remotePath string) error {
	return c.run(ctx, "push", id, localPath, remotePath, "--perms", "0755")
}

// Exec runs argv inside the container and returns its exit code.
// Stdout and stderr of the command are both written to out; a nil out
// discards them. A non-zero exit is not an error; err is set only when the
// command could not be started or the context expired.
func (c *Client) Exec(ctx context.Context, id string, out io.Writer, argv ...string) (int, error) {
	args := append([]string{"exec", id, "--"}, argv...)
	cmd := exec.CommandContext(ctx, c.binary, args...)

	if out == nil {
		out = io.Discard
	}
	// Same writer for both streams so os/exec serializes the writes.
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, fmt.Errorf("pct exec %s: %w", id, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, fmt.Errorf("pct exec %s failed: %w", id, err)
}

// IsAvailable checks if pct is installed and can talk to the host.
func (c *Client) IsAvailable(ctx context.Context) error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("%s is not installed: %w", c.binary, err)
	}

	if _, err := c.ListAll(ctx); err != nil {
		return fmt.Errorf("cannot query containers: %w", err)
	}

	return nil
}

// run executes a simple pct command.
func (c *Client) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pct %s failed: %w\n%s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}

	return nil
}

// parsePctList parses the output of pct list.
func parsePctList(output string) []Container {
	var containers []Container

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "VMID") {
			continue
		}

		// Columns: VMID Status Lock Name, Lock is usually blank.
		// Example: "101        running                 web01"
		// Example: "102        stopped    backup       db01"
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		ct := Container{
			ID:     fields[0],
			Status: ParseStatus(fields[1]),
		}
		if len(fields) >= 3 {
			ct.Name = fields[len(fields)-1]
		}

		containers = append(containers, ct)
	}

	return containers
}

// parsePctStatus parses "status: running" output of pct status.
func parsePctStatus(output string) Status {
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.TrimSpace(key) == "status" {
			return ParseStatus(strings.TrimSpace(value))
		}
	}
	return StatusUnknown
}
