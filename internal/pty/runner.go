// Package pty runs programs on a pseudo terminal so the TUI can be driven
// end to end.
package pty

import (
	"io"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Size is a terminal size in cells.
type Size struct {
	Rows uint16
	Cols uint16
}

func (s Size) winsize() *pty.Winsize {
	return &pty.Winsize{Rows: s.Rows, Cols: s.Cols}
}

// Runner starts a command on a terminal and resizes that terminal later.
// The returned ReadWriteCloser is the controlling side: reads return the
// program's output, writes arrive as keyboard input.
type Runner interface {
	Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error)
	Resize(term io.ReadWriteCloser, size Size) error
}

// Creack implements Runner with github.com/creack/pty.
type Creack struct{}

var _ Runner = Creack{}

// Start implements Runner.
func (Creack) Start(cmd *exec.Cmd, size Size) (io.ReadWriteCloser, error) {
	return pty.StartWithSize(cmd, size.winsize())
}

// Resize implements Runner. The program receives SIGWINCH. Terminals not
// returned by Start are left alone.
func (Creack) Resize(term io.ReadWriteCloser, size Size) error {
	f, ok := term.(*os.File)
	if !ok {
		return nil
	}
	return pty.Setsize(f, size.winsize())
}

// GetSize reports the current size of a terminal returned by Start.
func GetSize(term io.ReadWriteCloser) (Size, error) {
	f, ok := term.(*os.File)
	if !ok {
		return Size{}, os.ErrInvalid
	}
	rows, cols, err := pty.Getsize(f)
	if err != nil {
		return Size{}, err
	}
	return Size{Rows: uint16(rows), Cols: uint16(cols)}, nil
}
