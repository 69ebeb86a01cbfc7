// Package tuitest drives a built neuralscan binary on a pseudo terminal and
// records what it draws.
package tuitest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"neuralscan/internal/pty"
)

const (
	defaultWidth   = 120
	defaultHeight  = 36
	defaultTimeout = 10 * time.Second
)

// Step is one scripted interaction: wait Delay, then resize the terminal if
// Resize is set, then type Input.
type Step struct {
	Delay  time.Duration
	Resize *pty.Size
	Input  []byte
}

// Keys sends s as typed input.
func Keys(s string) Step {
	return Step{Input: []byte(s)}
}

// Wait pauses the script.
func Wait(d time.Duration) Step {
	return Step{Delay: d}
}

// ResizeTo changes the terminal size.
func ResizeTo(cols, rows int) Step {
	return Step{Resize: &pty.Size{Rows: uint16(rows), Cols: uint16(cols)}}
}

// Config describes the program to run and the script to replay.
type Config struct {
	Command          []string
	Dir              string
	Env              []string
	Width            int
	Height           int
	Steps            []Step
	Timeout          time.Duration
	AllowedExitCodes []int

	// Runner starts the terminal. Defaults to pty.Creack.
	Runner pty.Runner
}

// Recording holds the raw terminal stream and the frames parsed from it.
type Recording struct {
	Raw      []byte
	Frames   []Frame
	Duration time.Duration
}

// Plain returns the whole stream with escape sequences removed.
func (r *Recording) Plain() string {
	if r == nil {
		return ""
	}
	return stripANSI(strings.ReplaceAll(string(r.Raw), "\r", ""))
}

// Contains reports whether s was drawn at any point.
func (r *Recording) Contains(s string) bool {
	return strings.Contains(r.Plain(), s)
}

// Run starts the command on a terminal, replays the steps and waits for the
// program to exit. The last step should make it quit.
func Run(ctx context.Context, cfg Config) (*Recording, error) {
	if len(cfg.Command) == 0 {
		return nil, errors.New("tuitest: command is required")
	}
	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	runner := cfg.Runner
	if runner == nil {
		runner = pty.Creack{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command[0], cfg.Command[1:]...)
	cmd.Dir = cfg.Dir
	cmd.Env = buildEnv(cfg.Env)

	term, err := runner.Start(cmd, pty.Size{Rows: uint16(height), Cols: uint16(width)})
	if err != nil {
		return nil, fmt.Errorf("tuitest: start program: %w", err)
	}
	defer func() { _ = term.Close() }()

	var (
		mu     sync.Mutex
		output bytes.Buffer
	)
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		responder := newResponder(term)
		buf := make([]byte, 4096)
		for {
			n, readErr := term.Read(buf)
			if n > 0 {
				responder.Process(buf[:n])
				mu.Lock()
				output.Write(buf[:n])
				mu.Unlock()
			}
			if readErr != nil {
				return
			}
		}
	}()

	start := time.Now()
	for i, step := range cfg.Steps {
		if step.Delay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tuitest: step %d: %w", i, ctx.Err())
			case <-time.After(step.Delay):
			}
		}
		if step.Resize != nil {
			if err := runner.Resize(term, *step.Resize); err != nil {
				return nil, fmt.Errorf("tuitest: step %d: resize: %w", i, err)
			}
		}
		if len(step.Input) > 0 {
			if _, err := term.Write(step.Input); err != nil {
				return nil, fmt.Errorf("tuitest: step %d: write input: %w", i, err)
			}
		}
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	select {
	case err := <-waitErr:
		if err != nil && !allowedExit(err, cfg.AllowedExitCodes) {
			return nil, fmt.Errorf("tuitest: program exited: %w", err)
		}
	case <-ctx.Done():
		return nil, fmt.Errorf("tuitest: waiting for exit: %w", ctx.Err())
	}

	// Closing the terminal ends the reader once the buffered output is drained.
	_ = term.Close()
	<-copyDone

	mu.Lock()
	raw := append([]byte(nil), output.Bytes()...)
	mu.Unlock()
	return &Recording{Raw: raw, Frames: parseFrames(raw), Duration: time.Since(start)}, nil
}

func allowedExit(err error, codes []int) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	for _, c := range codes {
		if exitErr.ExitCode() == c {
			return true
		}
	}
	return false
}

func buildEnv(extra []string) []string {
	env := append(os.Environ(), extra...)
	for _, entry := range env {
		if strings.HasPrefix(entry, "TERM=") {
			return env
		}
	}
	return append(env, "TERM=xterm-256color")
}

// Key sequences as a terminal sends them.
var (
	KeyEnter = []byte{'\r'}
	KeyTab   = []byte{'\t'}
	KeyEsc   = []byte{27}
	KeyCtrlC = []byte{3}
	KeySpace = []byte{' '}
)
