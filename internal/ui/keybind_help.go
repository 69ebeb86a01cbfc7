package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// newHelpModel returns a bubbles/help model in the app's colors.
func newHelpModel() help.Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)).
		Bold(true)
	h.Styles.ShortDesc = Styles.Muted
	h.Styles.ShortSeparator = Styles.Muted
	return h
}

// RenderKeybindHelp produces the transient help bar shown after SPC.
// In a submenu (e.g. "SPC g") it shows the next-level keys.
func RenderKeybindHelp(keyHandler *KeyHandler, route Route) string {
	if keyHandler == nil || keyHandler.Registry == nil {
		return ""
	}
	seq := keyHandler.CurrentSeq()
	bindings := keyHandler.Registry.Bindings(seq, route)
	if len(bindings) == 0 {
		return ""
	}
	if seq == "" {
		seq = keyHandler.LeaderSeq
	}
	content := Styles.Muted.Render(seq) + " " + newHelpModel().ShortHelpView(bindings)
	return Styles.BoxActive.Render(content)
}

// renderFooter shows a screen's own key map.
func renderFooter(bindings []key.Binding, width int) string {
	h := newHelpModel()
	h.Width = width
	return h.ShortHelpView(bindings)
}
