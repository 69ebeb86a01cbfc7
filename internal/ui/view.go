package ui

import tea "github.com/charmbracelet/bubbletea"

// View is the unit of composition; implements Bubble Tea's Init/Update/View.
// Screens and overlays are Views.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}

// Screen is a routed View. Unmount releases everything the screen started:
// pending timers are invalidated and render sessions disposed.
type Screen interface {
	View
	Unmount()
}
