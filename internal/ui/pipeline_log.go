package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neuralscan/internal/progress"
	"neuralscan/internal/trace"
)

const (
	defaultLogWidth  = 70
	defaultLogHeight = 18
	maxLogEvents     = 200
)

// PipelineLog lists stage events of simulated runs and the durations of the
// most recent runs. Shown as an overlay (SPC l); Esc dismisses.
type PipelineLog struct {
	events   []progress.Event
	traces   *trace.Manager
	viewport viewport.Model
	width    int
	height   int
}

var _ View = (*PipelineLog)(nil)

// NewPipelineLog creates an empty log. traces may be nil.
func NewPipelineLog(traces *trace.Manager) *PipelineLog {
	vp := viewport.New(defaultLogWidth, defaultLogHeight)
	vp.Style = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1)
	p := &PipelineLog{
		traces:   traces,
		viewport: vp,
		width:    defaultLogWidth,
		height:   defaultLogHeight,
	}
	p.refreshContent()
	return p
}

// Append records an event. The log keeps collecting while it is hidden.
func (p *PipelineLog) Append(ev progress.Event) {
	p.events = append(p.events, ev)
	if len(p.events) > maxLogEvents {
		p.events = p.events[len(p.events)-maxLogEvents:]
	}
	p.refreshContent()
}

// Events returns the recorded events, oldest first.
func (p *PipelineLog) Events() []progress.Event {
	return p.events
}

// Init implements View.
func (p *PipelineLog) Init() tea.Cmd {
	p.refreshContent()
	return nil
}

// Update implements View.
func (p *PipelineLog) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case progress.Event:
		p.Append(msg)
		return p, nil
	case tea.KeyMsg:
		if msg.String() == "esc" {
			return p, func() tea.Msg { return DismissModalMsg{} }
		}
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		p.viewport.Width = max(40, msg.Width-8)
		p.viewport.Height = max(10, msg.Height/2+4)
		p.refreshContent()
		return p, nil
	}

	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View implements View.
func (p *PipelineLog) View() string {
	header := Styles.Title.Render("Pipeline log") + Styles.Hint.Render("  Esc: close")
	return header + "\n" + p.viewport.View()
}

// refreshContent rebuilds the viewport from the events and recent runs.
func (p *PipelineLog) refreshContent() {
	var lines []string
	if len(p.events) == 0 {
		lines = append(lines, Styles.Muted.Render("No runs yet. Press u on the upload screen."))
	}
	for _, ev := range p.events {
		line := fmt.Sprintf("[%s] %s %s", ev.Timestamp.Format("15:04:05"), statusIcon(ev.Status), ev.Message)
		if meta := formatMetadata(ev.Metadata); meta != "" {
			line += "  " + Styles.Muted.Render(meta)
		}
		lines = append(lines, line)
	}

	if runs := p.recentRuns(); len(runs) > 0 {
		lines = append(lines, "", Styles.Heading.Render("Recent runs"))
		lines = append(lines, runs...)
	}

	p.viewport.SetContent(strings.Join(lines, "\n"))
	p.viewport.GotoBottom()
}

// recentRuns renders each stored trace as a small tree, newest first.
func (p *PipelineLog) recentRuns() []string {
	if p.traces == nil {
		return nil
	}
	var lines []string
	for _, t := range p.traces.GetRecentTraces() {
		dur := "running…"
		if d := t.Duration(); d > 0 {
			dur = formatDuration(d)
		}
		lines = append(lines, fmt.Sprintf("run %s  %s  %s", shortID(t.ID), dur, runStatus(t.Status)))
		if t.RootSpan == nil {
			continue
		}
		for i, span := range t.RootSpan.Children {
			connector := "├─"
			if i == len(t.RootSpan.Children)-1 {
				connector = "└─"
			}
			sd := "…"
			if span.Duration > 0 {
				sd = formatDuration(span.Duration)
			}
			lines = append(lines, fmt.Sprintf("  %s %s %s", connector, span.Name, Styles.Muted.Render(sd)))
		}
	}
	return lines
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Round(time.Second).String()
}

func formatMetadata(m map[string]string) string {
	if len(m) == 0 {
		return ""
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := m[k]
		if k == "run" {
			v = shortID(v)
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runStatus(s string) string {
	switch s {
	case trace.OutcomeCompleted:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Render("✓ " + s)
	case trace.OutcomeCancelled:
		return Styles.Error.Render("✗ " + s)
	default:
		return Styles.Accent.Render("● " + s)
	}
}

func statusIcon(s progress.Status) string {
	switch s {
	case progress.StatusRunning:
		return "●"
	case progress.StatusDone:
		return "✓"
	case progress.StatusError, progress.StatusAborted:
		return "✗"
	default:
		return "•"
	}
}
