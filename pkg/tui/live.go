package tui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Message types for the live view.
type (
	// eventMsg carries a job progress event.
	eventMsg fanout.Event

	// finishMsg ends the view.
	finishMsg struct{}
)

// liveModel is a Bubble Tea model showing run progress.
type liveModel struct {
	title  string
	total  int
	tally  fanout.Tally
	active map[string]fanout.Stage
	last   *fanout.Outcome

	spinner spinner.Model
	bar     progress.Model
	done    bool
}

func newLiveModel(title string, total int) liveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return liveModel{
		title:   title,
		total:   total,
		active:  make(map[string]fanout.Stage),
		spinner: s,
		bar:     p,
	}
}

func (m liveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, min(msg.Width-30, 60))
		return m, nil

	case spinner.TickMsg:
		if !m.done {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case progress.FrameMsg:
		model, cmd := m.bar.Update(msg)
		m.bar = model.(progress.Model)
		return m, cmd

	case eventMsg:
		if msg.Outcome == nil {
			m.active[msg.TargetID] = msg.Stage
			return m, nil
		}
		delete(m.active, msg.TargetID)
		m.tally.Add(msg.Outcome.Result)
		o := *msg.Outcome
		m.last = &o
		return m, m.bar.SetPercent(m.fraction())

	case finishMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}

func (m liveModel) fraction() float64 {
	if m.total == 0 {
		return 1
	}
	return float64(m.tally.Total()) / float64(m.total)
}

func (m liveModel) View() string {
	if m.done {
		return ""
	}

	var s strings.Builder

	s.WriteString(TitleStyle.Render(m.title))
	s.WriteString("\n")

	s.WriteString(m.bar.ViewAs(m.fraction()))
	s.WriteString(fmt.Sprintf(" %d/%d", m.tally.Total(), m.total))
	s.WriteString("  ")
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("%d ok", m.tally.Success)))
	s.WriteString(" ")
	s.WriteString(WarningStyle.Render(fmt.Sprintf("%d skipped", m.tally.Skipped)))
	s.WriteString(" ")
	if m.tally.Failed > 0 {
		s.WriteString(ErrorStyle.Render(fmt.Sprintf("%d failed", m.tally.Failed)))
	} else {
		s.WriteString(DimStyle.Render("0 failed"))
	}
	s.WriteString("\n")

	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.WriteString("  ")
		s.WriteString(m.spinner.View())
		s.WriteString(" ")
		s.WriteString(activeStyle.Render(id))
		s.WriteString(" ")
		s.WriteString(DimStyle.Render(m.active[id].DisplayName()))
		s.WriteString("\n")
	}

	if m.last != nil {
		s.WriteString(DimStyle.Render("  last:"))
		s.WriteString(RenderOutcome(*m.last))
		s.WriteString("\n")
	}

	return s.String()
}

// LiveView renders run progress in the terminal while jobs execute.
type LiveView struct {
	program *tea.Program
	done    chan struct{}
	once    sync.Once
}

// NewLiveView creates a live view writing to out.
func NewLiveView(title string, total int, out io.Writer) *LiveView {
	program := tea.NewProgram(
		newLiveModel(title, total),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &LiveView{
		program: program,
		done:    make(chan struct{}),
	}
}

// Start runs the view in the background.
func (v *LiveView) Start() {
	go func() {
		defer close(v.done)
		_, _ = v.program.Run()
	}()
}

// Events returns an event callback feeding the view.
func (v *LiveView) Events() fanout.EventFunc {
	return func(e fanout.Event) {
		v.program.Send(eventMsg(e))
	}
}

// Writer returns a writer that prints complete lines above the view.
// Use it as the log output while the view runs.
func (v *LiveView) Writer() io.Writer {
	return &lineWriter{println: func(s string) { v.program.Println(s) }}
}

// Stop ends the view and waits for the terminal to be restored.
func (v *LiveView) Stop() {
	v.once.Do(func() {
		v.program.Send(finishMsg{})
		<-v.done
	})
}

// lineWriter hands each written line to println.
type lineWriter struct {
	mu      sync.Mutex
	println func(string)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		w.println(line)
	}
	return len(p), nil
}
