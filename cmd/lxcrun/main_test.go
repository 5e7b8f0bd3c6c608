package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/doctor"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/globalconfig"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

// fakeInventory is an in-memory container host.
type fakeInventory struct {
	mu         sync.Mutex
	containers []pct.Container
	listErr    error
	exitCodes  map[string]int
	outputs    map[string]string
	pushes     []string
	execs      []string
	argv       map[string][]string
}

func (f *fakeInventory) ListAll(_ context.Context) ([]pct.Container, error) {
	return f.containers, f.listErr
}

func (f *fakeInventory) Status(_ context.Context, id string) (pct.Status, error) {
	for _, c := range f.containers {
		if c.ID == id {
			return c.Status, nil
		}
	}
	return pct.StatusUnknown, nil
}

func (f *fakeInventory) Push(_ context.Context, id, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, id)
	return nil
}

func (f *fakeInventory) Exec(_ context.Context, id string, out io.Writer, argv ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(argv) > 0 && (argv[0] == "chmod" || argv[0] == "rm") {
		return 0, nil
	}
	f.execs = append(f.execs, id)
	if f.argv == nil {
		f.argv = make(map[string][]string)
	}
	f.argv[id] = argv
	if text := f.outputs[id]; text != "" {
		_, _ = io.WriteString(out, text)
	}
	return f.exitCodes[id], nil
}

// fakeExecutor satisfies doctor.CommandExecutor on a healthy host.
type fakeExecutor struct {
	euid    int
	noPct   bool
	fixRuns []string
}

func (e *fakeExecutor) LookPath(file string) (string, error) {
	if e.noPct && file == "pct" {
		return "", errors.New("not found")
	}
	return "/usr/sbin/" + file, nil
}

func (e *fakeExecutor) Run(string, ...string) (string, error) {
	return "VMID Status Lock Name\n101 running  web\n", nil
}

func (e *fakeExecutor) CombinedOutput(_ string, args ...string) ([]byte, error) {
	e.fixRuns = append(e.fixRuns, args[len(args)-1])
	return nil, nil
}

func (e *fakeExecutor) IsDir(string) bool { return true }

func (e *fakeExecutor) Geteuid() int { return e.euid }

type harness struct {
	host      *fakeInventory
	exec      *fakeExecutor
	cfg       *globalconfig.Config
	confirmed bool
	asked     int
	logs      string // log output of the last execute
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	opsDir := t.TempDir()
	script := "#!/bin/bash\n# update Operation\n#\n# Upgrade packages\n"
	require.NoError(t, os.WriteFile(filepath.Join(opsDir, "update.sh"), []byte(script), 0755))

	cfg := globalconfig.NewConfig()
	cfg.OperationsDir = opsDir

	return &harness{
		host: &fakeInventory{
			containers: []pct.Container{
				{ID: "101", Status: pct.StatusRunning, Name: "web"},
				{ID: "102", Status: pct.StatusStopped, Name: "db"},
				{ID: "103", Status: pct.StatusRunning, Name: "cache"},
			},
			exitCodes: map[string]int{},
			outputs:   map[string]string{},
		},
		exec:      &fakeExecutor{},
		cfg:       cfg,
		confirmed: true,
	}
}

func (h *harness) deps() deps {
	return deps{
		loadConfig: func() (*globalconfig.Config, error) { return h.cfg, nil },
		newHost:    func(string) inventory { return h.host },
		newChecker: func(cfg *globalconfig.Config) *doctor.Checker {
			return doctor.NewCheckerWithExecutor(h.exec, cfg.PctPath, cfg.OperationsDir)
		},
		newFixer: func() *doctor.Fixer { return doctor.NewFixerWithExecutor(h.exec) },
		confirm: func(string, string, string) (bool, error) {
			h.asked++
			return h.confirmed, nil
		},
		isTerminal: func() bool { return false },
	}
}

func (h *harness) execute(args ...string) (string, error) {
	rootCmd := newRootCmd(h.deps())
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	// Logs go to a separate buffer; jobs log from their own goroutines.
	var out, logs bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&logs)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	h.logs = logs.String()
	return out.String(), err
}

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd(defaultDeps())

	assert.Equal(t, "lxcrun", rootCmd.Use)
	assert.Equal(t, "Run an operation across Proxmox LXC containers", rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"run", "list", "operations", "doctor"})
}

func TestRootCmdHelp(t *testing.T) {
	rootCmd := newRootCmd(defaultDeps())
	rootCmd.SetArgs([]string{"--help"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	require.NoError(t, rootCmd.Execute())

	output := buf.String()
	assert.Contains(t, output, "lxcrun")
	assert.Contains(t, output, "run")
	assert.Contains(t, output, "list")
	assert.Contains(t, output, "doctor")
}

func TestRootCmdVersion(t *testing.T) {
	rootCmd := newRootCmd(defaultDeps())
	rootCmd.SetArgs([]string{"--version"})

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "lxcrun version")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(usageError(errors.New("bad flag"))))
	assert.Equal(t, 2, exitCode(&exitError{code: 2, err: errors.New("failed")}))

	wrapped := &exitError{code: 2, err: context.Canceled}
	assert.ErrorIs(t, wrapped, context.Canceled)
}

func TestListCmd(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("list")
	require.NoError(t, err)
	assert.Contains(t, out, "VMID")
	assert.Contains(t, out, "web")
	assert.Contains(t, out, "cache")
	assert.NotContains(t, out, "db")

	out, err = h.execute("list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "db")
	assert.Contains(t, out, "stopped")
}

func TestListCmd_Empty(t *testing.T) {
	h := newHarness(t)
	h.host.containers = nil

	out, err := h.execute("list")
	require.NoError(t, err)
	assert.Contains(t, out, "No containers found.")
}

func TestListCmd_Error(t *testing.T) {
	h := newHarness(t)
	h.host.listErr = errors.New("pct: command not found")

	_, err := h.execute("list")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestOperationsCmd(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.cfg.OperationsDir, "motd.sh"), []byte("#!/bin/sh\n"), 0644))

	out, err := h.execute("operations")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 operations")
	assert.Contains(t, out, "update: Upgrade packages")
	assert.Contains(t, out, "motd: (no description)")
	assert.Contains(t, out, "[not executable]")
}

func TestOperationsCmd_Install(t *testing.T) {
	h := newHarness(t)
	h.cfg.OperationsDir = filepath.Join(t.TempDir(), "ops")

	out, err := h.execute("operations", "--install")
	require.NoError(t, err)
	assert.Contains(t, out, "installed uptime.sh")
	assert.Contains(t, out, "uptime: Print hostname, uptime and load average of each container")
	assert.NotContains(t, out, "template:")
	assert.FileExists(t, filepath.Join(h.cfg.OperationsDir, "_template.sh"))

	out, err = h.execute("operations", "--install")
	require.NoError(t, err)
	assert.Contains(t, out, "bundled operations already installed")
}

func TestOperationsCmd_MissingDir(t *testing.T) {
	h := newHarness(t)
	h.cfg.OperationsDir = filepath.Join(t.TempDir(), "missing")

	_, err := h.execute("ops")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestDoctorCmd(t *testing.T) {
	h := newHarness(t)

	out, err := h.execute("doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "Proxmox host")
	assert.Contains(t, out, "Root privileges")
	assert.Contains(t, out, "checks:")
}

func TestDoctorCmd_Issues(t *testing.T) {
	h := newHarness(t)
	h.exec.euid = 1000

	out, err := h.execute("doctor")
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
	assert.Contains(t, out, "uid 1000")
}

func TestDoctorCmd_Fix(t *testing.T) {
	h := newHarness(t)
	h.exec.noPct = true

	out, err := h.execute("doctor", "--fix", "--yes")
	require.Error(t, err)
	assert.Equal(t, 0, h.asked)
	assert.Equal(t, []string{"apt-get install -y pve-container"}, h.exec.fixRuns)
	assert.Contains(t, out, "pct: fixed")
}

func TestDoctorCmd_FixDeclined(t *testing.T) {
	h := newHarness(t)
	h.exec.noPct = true
	h.confirmed = false

	_, err := h.execute("doctor", "--fix")
	require.Error(t, err)
	assert.Equal(t, 1, h.asked)
	assert.Empty(t, h.exec.fixRuns)
}

// Compile-time check that the real client satisfies the command seam.
var _ inventory = (*pct.Client)(nil)
