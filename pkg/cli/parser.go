// Package cli parses the argument grammar of the run command.
//
// Executor flags come first. The first positional argument names the
// operation and everything after it is forwarded to the operation verbatim.
// A leading flag the executor does not recognise is forwarded too, ahead of
// the operation's own arguments. "--" ends executor parsing; the token after
// it names the operation when none was given yet.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
)

var (
	// ErrMissingOperation is returned when no operation name is given.
	ErrMissingOperation = errors.New("no operation given: usage: lxcrun run [flags] <operation> [args...]")

	// ErrMissingFlagValue is returned when a flag requires a value but none is provided.
	ErrMissingFlagValue = errors.New("flag requires a value")

	// ErrParallelismRange is returned for --parallel outside 1..20.
	ErrParallelismRange = fmt.Errorf("--parallel must be between %d and %d", fanout.MinParallelism, fanout.MaxParallelism)

	// ErrInvalidValue is returned when a flag value cannot be parsed.
	ErrInvalidValue = errors.New("invalid flag value")
)

// Invocation is the parsed run command line.
type Invocation struct {
	Operation string   // Operation name
	Args      []string // Forwarded to the operation

	IncludeStopped bool     // --all, -a
	Parallelism    int      // --parallel, -p; 0 when not given
	ExcludeIDs     []string // --exclude, -e
	IncludeIDs     []string // --include, -i
	AssumeYes      bool     // --yes, -y
	DryRun         bool     // --dry-run, -d
	Help           bool     // --help, -h

	Timeout    time.Duration // --timeout
	TimeoutSet bool
	Retries    int // --retries
	RetriesSet bool
	ReportPath string // --report
	Plain      bool   // --plain
	Verbose    bool   // --verbose, -v
}

// Selection returns the target selection described by the flags.
func (inv Invocation) Selection() fanout.Selection {
	return fanout.Selection{
		IncludeStopped: inv.IncludeStopped,
		IncludeIDs:     inv.IncludeIDs,
		ExcludeIDs:     inv.ExcludeIDs,
	}
}

// Parse parses the arguments following "run".
func Parse(args []string) (Invocation, error) {
	var inv Invocation

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			rest := args[i+1:]
			if len(rest) > 0 {
				inv.Operation = rest[0]
				inv.Args = append(inv.Args, rest[1:]...)
			}
			break
		}

		if !strings.HasPrefix(arg, "-") || arg == "-" {
			inv.Operation = arg
			inv.Args = append(inv.Args, args[i+1:]...)
			break
		}

		name, inlineValue, hasInline := strings.Cut(arg, "=")

		// value consumes the flag argument, inline or from the next token.
		value := func() (string, error) {
			if hasInline {
				return inlineValue, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%s: %w", name, ErrMissingFlagValue)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "-a", "--all":
			inv.IncludeStopped = true
		case "-y", "--yes":
			inv.AssumeYes = true
		case "-d", "--dry-run":
			inv.DryRun = true
		case "-h", "--help":
			inv.Help = true
			return inv, nil
		case "--plain":
			inv.Plain = true
		case "-v", "--verbose":
			inv.Verbose = true
		case "-p", "--parallel":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return Invocation{}, fmt.Errorf("%s %q: %w", name, v, ErrInvalidValue)
			}
			if n < fanout.MinParallelism || n > fanout.MaxParallelism {
				return Invocation{}, ErrParallelismRange
			}
			inv.Parallelism = n
		case "-e", "--exclude":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			inv.ExcludeIDs = append(inv.ExcludeIDs, SplitList(v)...)
		case "-i", "--include":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			inv.IncludeIDs = append(inv.IncludeIDs, SplitList(v)...)
		case "--timeout":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			d, err := time.ParseDuration(v)
			if err != nil || d < 0 {
				return Invocation{}, fmt.Errorf("%s %q: %w", name, v, ErrInvalidValue)
			}
			inv.Timeout = d
			inv.TimeoutSet = true
		case "--retries":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return Invocation{}, fmt.Errorf("%s %q: %w", name, v, ErrInvalidValue)
			}
			inv.Retries = n
			inv.RetriesSet = true
		case "--report":
			v, err := value()
			if err != nil {
				return Invocation{}, err
			}
			inv.ReportPath = v
		default:
			// Not ours: the operation gets it verbatim.
			inv.Args = append(inv.Args, arg)
		}
	}

	if inv.Operation == "" {
		return Invocation{}, ErrMissingOperation
	}

	if err := fanout.ValidateSelection(inv.Selection()); err != nil {
		return Invocation{}, err
	}

	return inv, nil
}

// SplitList splits a container id list on commas and whitespace.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
