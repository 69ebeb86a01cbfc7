package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"neuralscan/internal/catalog"
	"neuralscan/internal/ui/textutil"
)

const networkNodeGap = 5

var (
	networkNode = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHighlight)).Render("●")
	networkEdge = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim))
)

// networkDiagram draws a fully connected feed-forward network of layers
// columns with nodes each.
func networkDiagram(layers, nodes int) string {
	if layers <= 0 || nodes <= 0 {
		return ""
	}
	row := networkNode + strings.Repeat(networkEdge.Render(strings.Repeat("─", networkNodeGap))+networkNode, layers-1)
	cross := strings.Repeat(" "+networkEdge.Render("  ╳  "), layers-1) + " "
	lines := make([]string, 0, 2*nodes-1)
	for i := 0; i < nodes; i++ {
		if i > 0 {
			lines = append(lines, cross)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

// renderFigure draws one pipeline figure card of the given outer width.
// Pictures cannot be shown in a terminal, so image figures show their alt
// text and source.
func renderFigure(f catalog.Figure, width int) string {
	inner := max(10, width-4)
	var body string
	switch f.Kind {
	case catalog.FigureNetwork:
		body = lipgloss.PlaceHorizontal(inner, lipgloss.Center, networkDiagram(f.Layers, f.Nodes))
	default:
		alt := f.Alt
		if alt == "" {
			alt = f.Title
		}
		body = lipgloss.JoinVertical(lipgloss.Center,
			Styles.Normal.Render("▣ "+textutil.Truncate(alt, inner-2)),
			Styles.Muted.Render(textutil.Truncate(f.Src, inner)),
		)
		body = lipgloss.PlaceHorizontal(inner, lipgloss.Center, body)
	}
	caption := Styles.Caption.Width(inner).Render(textutil.Truncate(f.Title, inner))
	return Styles.BoxCompact.Width(width - 2).Render(body + "\n" + caption)
}

// renderFigures stacks the figures with arrows between them.
func renderFigures(figs []catalog.Figure, width int) string {
	if len(figs) == 0 {
		return ""
	}
	parts := make([]string, 0, 2*len(figs)-1)
	arrow := lipgloss.PlaceHorizontal(width, lipgloss.Center, Styles.Arrow.Render("↓"))
	for i, f := range figs {
		if i > 0 {
			parts = append(parts, arrow)
		}
		parts = append(parts, renderFigure(f, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
