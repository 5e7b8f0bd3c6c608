package fanout

import (
	"errors"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

// ErrIncludeExcludeConflict is returned when both an include and an exclude
// list are supplied.
var ErrIncludeExcludeConflict = errors.New("--include and --exclude are mutually exclusive")

// Selection describes which containers a run should target.
type Selection struct {
	IncludeStopped bool     // Target containers that are not running
	IncludeIDs     []string // Allow-list; empty means every container
	ExcludeIDs     []string // Deny-list; applied regardless of status
}

// ValidateSelection checks the selection before any filtering happens.
func ValidateSelection(sel Selection) error {
	if len(sel.IncludeIDs) > 0 && len(sel.ExcludeIDs) > 0 {
		return ErrIncludeExcludeConflict
	}
	return nil
}

// Filter returns the ids of the records that survive the selection, in
// inventory order. Callers must run ValidateSelection first.
func Filter(records []pct.Container, sel Selection) []string {
	exclude := toSet(sel.ExcludeIDs)
	include := toSet(sel.IncludeIDs)

	targets := make([]string, 0, len(records))
	for _, rec := range records {
		if len(exclude) > 0 {
			if _, ok := exclude[rec.ID]; ok {
				continue
			}
		}
		if len(include) > 0 {
			if _, ok := include[rec.ID]; !ok {
				continue
			}
		}
		if !sel.IncludeStopped && !rec.Status.IsRunning() {
			continue
		}
		targets = append(targets, rec.ID)
	}

	return targets
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
