package cli

import (
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Invocation
	}{
		{
			name:     "operation only",
			args:     []string{"update"},
			expected: Invocation{Operation: "update"},
		},
		{
			name: "flags before operation",
			args: []string{"-a", "-p", "4", "-y", "-d", "update"},
			expected: Invocation{
				Operation:      "update",
				IncludeStopped: true,
				Parallelism:    4,
				AssumeYes:      true,
				DryRun:         true,
			},
		},
		{
			name: "long flags with inline values",
			args: []string{"--all", "--parallel=20", "--exclude=101,102", "update"},
			expected: Invocation{
				Operation:      "update",
				IncludeStopped: true,
				Parallelism:    20,
				ExcludeIDs:     []string{"101", "102"},
			},
		},
		{
			name: "include list with spaces",
			args: []string{"--include", "101 102,103", "update"},
			expected: Invocation{
				Operation:  "update",
				IncludeIDs: []string{"101", "102", "103"},
			},
		},
		{
			name: "unknown leading flags are forwarded",
			args: []string{"--force", "-x", "update", "pkg1"},
			expected: Invocation{
				Operation: "update",
				Args:      []string{"--force", "-x", "pkg1"},
			},
		},
		{
			name: "flags after operation belong to the operation",
			args: []string{"backup", "-d", "/var", "-p", "5", "-v", "-y"},
			expected: Invocation{
				Operation: "backup",
				Args:      []string{"-d", "/var", "-p", "5", "-v", "-y"},
			},
		},
		{
			name: "double dash after operation is forwarded",
			args: []string{"-y", "update", "--", "-y", "--all", "x"},
			expected: Invocation{
				Operation: "update",
				AssumeYes: true,
				Args:      []string{"--", "-y", "--all", "x"},
			},
		},
		{
			name: "double dash before operation",
			args: []string{"-p", "2", "--", "update", "-a"},
			expected: Invocation{
				Operation:   "update",
				Parallelism: 2,
				Args:        []string{"-a"},
			},
		},
		{
			name: "supplemental flags",
			args: []string{"--timeout", "90s", "--retries", "2", "--report", "/tmp/r.yaml", "--plain", "-v", "update"},
			expected: Invocation{
				Operation:  "update",
				Timeout:    90 * time.Second,
				TimeoutSet: true,
				Retries:    2,
				RetriesSet: true,
				ReportPath: "/tmp/r.yaml",
				Plain:      true,
				Verbose:    true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, inv)
		})
	}
}

func TestParse_Help(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {"--help"}, {"-a", "--help", "update"}} {
		inv, err := Parse(args)
		require.NoError(t, err)
		assert.True(t, inv.Help)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"empty args", []string{}, ErrMissingOperation},
		{"only flags", []string{"-a", "-y"}, ErrMissingOperation},
		{"parallel zero", []string{"-p", "0", "update"}, ErrParallelismRange},
		{"parallel too high", []string{"--parallel", "21", "update"}, ErrParallelismRange},
		{"parallel not a number", []string{"-p", "many", "update"}, ErrInvalidValue},
		{"parallel missing value", []string{"-p"}, ErrMissingFlagValue},
		{"exclude missing value", []string{"-a", "--exclude"}, ErrMissingFlagValue},
		{"double dash without operation", []string{"-y", "--"}, ErrMissingOperation},
		{"bad timeout", []string{"--timeout", "soon", "update"}, ErrInvalidValue},
		{"negative retries", []string{"--retries", "-1", "update"}, ErrInvalidValue},
		{"include and exclude", []string{"-i", "101", "-e", "102", "update"}, fanout.ErrIncludeExcludeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.args)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"101", "102", "103"}, SplitList("101,102 103"))
	assert.Equal(t, []string{"101"}, SplitList(" 101, "))
	assert.Empty(t, SplitList(""))
}

func TestParse_ParallelismRangeProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("only 1..20 is accepted", prop.ForAll(
		func(n int) bool {
			inv, err := Parse([]string{"-p", strconv.Itoa(n), "update"})
			if n >= 1 && n <= 20 {
				return err == nil && inv.Parallelism == n
			}
			return err == ErrParallelismRange
		},
		gen.IntRange(-50, 50),
	))

	properties.TestingRun(t)
}

func TestParse_ForwardsEverythingAfterOperationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	token := gen.OneConstOf("-y", "-d", "-a", "-v", "-h", "-p", "5", "-i", "101", "--", "--plain", "x", "")

	properties.Property("operation arguments are never interpreted", prop.ForAll(
		func(rest []string) bool {
			inv, err := Parse(append([]string{"-p", "2", "backup"}, rest...))
			if err != nil {
				return false
			}
			return inv.Operation == "backup" &&
				inv.Parallelism == 2 &&
				!inv.AssumeYes && !inv.DryRun && !inv.IncludeStopped &&
				!inv.Verbose && !inv.Help && !inv.Plain &&
				len(inv.IncludeIDs) == 0 &&
				assert.ObjectsAreEqual(append([]string(nil), rest...), append([]string(nil), inv.Args...))
		},
		gen.SliceOf(token),
	))

	properties.TestingRun(t)
}
