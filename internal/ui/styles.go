package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors used throughout the UI
const (
	ColorAccent      = "#33C3F0" // Cyan - active tabs, key chips
	ColorHighlight   = "#A456F0" // Medical purple - titles, borders
	ColorHighlightLt = "#D6BCFA" // Light purple - panel headings
	ColorDanger      = "#EA384C" // Red - inline errors
	ColorMuted       = "241"     // Gray - hints, disabled buttons
	ColorText        = "252"     // Light gray - body text
	ColorDim         = "243"     // Darker gray - captions
	ColorSurface     = "#1A1F2C" // Dark blue - render background
)

// Styles contains shared style definitions used across screens and overlays.
var Styles = struct {
	// Title styles
	Title        lipgloss.Style // Bold highlight - screen titles
	Heading      lipgloss.Style // Panel headings
	TitleWarning lipgloss.Style // Bold danger - error titles

	// Box styles
	Box        lipgloss.Style // Panel with rounded border
	BoxActive  lipgloss.Style // Panel border in accent color
	BoxCompact lipgloss.Style // Less padding, for cards and overlays

	// Buttons
	Button         lipgloss.Style
	ButtonPrimary  lipgloss.Style
	ButtonDisabled lipgloss.Style

	// Header navigation
	Brand     lipgloss.Style
	NavActive lipgloss.Style
	NavItem   lipgloss.Style

	// Text styles
	Muted   lipgloss.Style // Dimmed text
	Normal  lipgloss.Style // Body text
	Hint    lipgloss.Style // Help/hint text
	Chip    lipgloss.Style // Key name chips
	Accent  lipgloss.Style // Chip descriptions, status
	Error   lipgloss.Style // Inline errors
	Caption lipgloss.Style // Figure captions
	Arrow   lipgloss.Style // Arrows between figures
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlight)),
	Heading: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlightLt)),
	TitleWarning: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1),
	BoxActive: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	BoxCompact: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDim)).
		Padding(0, 1),
	Button: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("237")).
		Padding(0, 2),
	ButtonPrimary: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color(ColorHighlight)).
		Padding(0, 2),
	ButtonDisabled: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Background(lipgloss.Color("236")).
		Padding(0, 2),
	Brand: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorHighlight)).
		PaddingRight(2),
	NavActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	NavItem: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Padding(0, 1),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Hint: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Chip: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)).
		Background(lipgloss.Color("237")).
		Padding(0, 1),
	Accent: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)),
	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDanger)),
	Caption: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorDim)).
		Align(lipgloss.Center),
	Arrow: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true),
}

// button renders label as a button in the given state.
func button(label string, primary, disabled bool) string {
	switch {
	case disabled:
		return Styles.ButtonDisabled.Render(label)
	case primary:
		return Styles.ButtonPrimary.Render(label)
	default:
		return Styles.Button.Render(label)
	}
}
