// Package textutil provides unicode-aware text utilities for TUI rendering.
package textutil

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// TruncateEllipsis is appended to truncated text.
const TruncateEllipsis = "…"

// VisualWidth returns the number of terminal columns s occupies.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// VisualWidthStyled returns the width of a string that may contain ANSI escapes.
func VisualWidthStyled(s string) int {
	return lipgloss.Width(s)
}

// Truncate cuts s to at most maxWidth columns, ending in an ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxWidth {
		return s
	}
	avail := maxWidth - VisualWidth(TruncateEllipsis)
	if avail < 0 {
		return TruncateEllipsis
	}
	return runewidth.Truncate(s, avail, "") + TruncateEllipsis
}

// PadRightVisual pads s with spaces to targetWidth columns, truncating when wider.
func PadRightVisual(s string, targetWidth int) string {
	w := VisualWidth(s)
	if w >= targetWidth {
		return Truncate(s, targetWidth)
	}
	return s + strings.Repeat(" ", targetWidth-w)
}

// Wrap word-wraps plain text to width columns. Words longer than width are
// left intact. A width below 1 returns s unchanged.
func Wrap(s string, width int) string {
	if width < 1 {
		return s
	}
	return wordwrap.String(s, width)
}

// Bullets renders items as a wrapped bullet list; continuation lines are
// indented under the text.
func Bullets(items []string, width int) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		wrapped := strings.Split(Wrap(item, width-2), "\n")
		for i, l := range wrapped {
			prefix := "  "
			if i == 0 {
				prefix = "• "
			}
			lines = append(lines, prefix+l)
		}
	}
	return strings.Join(lines, "\n")
}
