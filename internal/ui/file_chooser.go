package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neuralscan/internal/ui/textutil"
)

// FileChooser browses the filesystem for scan files. Every chosen file is
// reported with a FileChosenMsg and the chooser stays open, so several files
// can be picked in a row. Esc closes it.
type FileChooser struct {
	picker  filepicker.Model
	exts    []string
	chosen  int
	last    string
	lastErr string
	width   int
}

var _ View = (*FileChooser)(nil)

// NewFileChooser starts in dir and only enables files with one of exts.
// Extension matching is case-insensitive.
func NewFileChooser(dir string, exts []string) *FileChooser {
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = caseVariants(exts)
	fp.AutoHeight = true
	fp.ShowPermissions = false
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(lipgloss.Color(ColorAccent))
	fp.Styles.Selected = fp.Styles.Selected.Foreground(lipgloss.Color(ColorHighlight))
	return &FileChooser{picker: fp, exts: exts, width: 60}
}

// caseVariants adds upper and lower case forms; the picker matches suffixes exactly.
func caseVariants(exts []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range exts {
		for _, v := range []string{e, strings.ToLower(e), strings.ToUpper(e)} {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// Init implements View.
func (c *FileChooser) Init() tea.Cmd {
	return c.picker.Init()
}

// Update implements View.
func (c *FileChooser) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The picker binds esc to "parent directory"; here it closes.
		if msg.String() == "esc" {
			return c, func() tea.Msg { return DismissModalMsg{} }
		}
	case tea.WindowSizeMsg:
		c.width = max(40, msg.Width-10)
		// Leave room for the title, status line and border.
		msg.Height = max(8, msg.Height-10)
		var cmd tea.Cmd
		c.picker, cmd = c.picker.Update(msg)
		return c, cmd
	}

	var cmd tea.Cmd
	c.picker, cmd = c.picker.Update(msg)

	if ok, path := c.picker.DidSelectFile(msg); ok {
		c.chosen++
		c.last = path
		c.lastErr = ""
		return c, tea.Batch(cmd, func() tea.Msg { return FileChosenMsg{Path: path} })
	}
	if ok, path := c.picker.DidSelectDisabledFile(msg); ok {
		c.lastErr = fmt.Sprintf("%s is not a %s file", textutil.Truncate(filepath.Base(path), c.width-20), strings.Join(c.exts, "/"))
	}
	return c, cmd
}

// View implements View.
func (c *FileChooser) View() string {
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Choose DICOM Files"))
	b.WriteString(Styles.Hint.Render("  enter: choose  esc: done"))
	b.WriteString("\n")
	b.WriteString(Styles.Muted.Render(textutil.Truncate(c.picker.CurrentDirectory, c.width)))
	b.WriteString("\n\n")
	b.WriteString(c.picker.View())
	b.WriteString("\n")
	switch {
	case c.lastErr != "":
		b.WriteString(Styles.Error.Render(c.lastErr))
	case c.chosen > 0:
		b.WriteString(Styles.Accent.Render(fmt.Sprintf("%d chosen, last: %s", c.chosen, textutil.Truncate(filepath.Base(c.last), c.width-20))))
	}
	return Styles.Box.Width(c.width).Render(b.String())
}
