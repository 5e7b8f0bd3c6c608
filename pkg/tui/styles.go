// Package tui provides terminal output for lxcrun: styles, the run
// confirmation prompt and the live progress view.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
)

// Theme returns the custom theme for prompts.
func Theme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = t.Focused.Title.Foreground(lipgloss.Color("39"))            // Cyan
	t.Focused.Description = t.Focused.Description.Foreground(lipgloss.Color("8")) // Gray
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(lipgloss.Color("40")).Bold(true)

	return t
}

// Styles for terminal output
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

var titleCaser = cases.Title(language.English)

// ResultLabel returns the display label of a result, e.g. "Success".
func ResultLabel(r fanout.Result) string {
	return titleCaser.String(r.String())
}

// ResultStyle returns the style used to render a result.
func ResultStyle(r fanout.Result) lipgloss.Style {
	switch r {
	case fanout.Success:
		return SuccessStyle
	case fanout.Skipped:
		return WarningStyle
	case fanout.Failed:
		return ErrorStyle
	default:
		return DimStyle
	}
}

// RenderOutcome renders a one-line summary of an outcome.
func RenderOutcome(o fanout.Outcome) string {
	line := fmt.Sprintf("  %-8s %s", o.TargetID, ResultStyle(o.Result).Render(ResultLabel(o.Result)))
	if o.Detail != "" {
		line += DimStyle.Render(" (" + o.Detail + ")")
	}
	return line
}

// RenderTally renders the final counts of a run.
func RenderTally(t fanout.Tally) string {
	parts := []string{
		SuccessStyle.Render(fmt.Sprintf("%d %s", t.Success, strings.ToLower(ResultLabel(fanout.Success)))),
		WarningStyle.Render(fmt.Sprintf("%d %s", t.Skipped, strings.ToLower(ResultLabel(fanout.Skipped)))),
	}
	if t.Failed > 0 {
		parts = append(parts, ErrorStyle.Render(fmt.Sprintf("%d failed", t.Failed)))
	} else {
		parts = append(parts, DimStyle.Render("0 failed"))
	}
	return fmt.Sprintf("Done: %s (%d total)", strings.Join(parts, ", "), t.Total())
}

// RenderTargets renders the target list shown before a run.
func RenderTargets(operation string, args, targets []string) string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render(fmt.Sprintf("Operation: %s", operation)))
	s.WriteString("\n")
	if len(args) > 0 {
		s.WriteString(SubtitleStyle.Render("Arguments: " + strings.Join(args, " ")))
		s.WriteString("\n")
	}
	s.WriteString(InfoStyle.Render(fmt.Sprintf("Targets (%d):", len(targets))))
	s.WriteString(" ")
	s.WriteString(strings.Join(targets, " "))
	s.WriteString("\n")

	return s.String()
}
