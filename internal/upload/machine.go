// Package upload simulates the two-stage upload and processing pipeline.
//
// The Machine never sleeps or starts timers itself. Trigger and Elapsed return the
// next Step to schedule, and the caller turns that into a timer (a tea.Tick in the
// UI). A fired timer comes back as an ElapsedMsg. The run ID on every message is the
// cancellation token, so a timer that fires after Cancel is ignored.
package upload

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDelay is the length of both simulated stages.
const DefaultDelay = 2000 * time.Millisecond

// Phase is the pipeline phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseProcessing
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// State is the pair of flags the upload screen renders from.
// At most one of them is true.
type State struct {
	IsUploading  bool
	IsProcessing bool
}

// Busy reports whether a run is in flight.
func (s State) Busy() bool {
	return s.IsUploading || s.IsProcessing
}

// Config holds the stage delays.
type Config struct {
	UploadDelay     time.Duration
	ProcessingDelay time.Duration
}

// DefaultConfig returns the 2000 ms / 2000 ms configuration.
func DefaultConfig() Config {
	return Config{UploadDelay: DefaultDelay, ProcessingDelay: DefaultDelay}
}

// Step is a transition waiting on a timer: once After has elapsed, the machine
// leaves Phase.
type Step struct {
	RunID string
	Phase Phase
	After time.Duration
}

// Msg builds the message to deliver when the step's timer fires.
func (s Step) Msg() ElapsedMsg {
	return ElapsedMsg{RunID: s.RunID, Phase: s.Phase}
}

// ElapsedMsg reports that the delay of a scheduled Step has elapsed.
type ElapsedMsg struct {
	RunID string
	Phase Phase
}

// Transition records a phase change.
type Transition struct {
	RunID string
	From  Phase
	To    Phase
	At    time.Time
}

// Machine is the Idle -> Uploading -> Processing -> Idle state machine.
// It is not safe for concurrent use; the UI drives it from its Update loop.
type Machine struct {
	cfg   Config
	phase Phase
	runID string

	// OnTransition, when set, is called after every phase change.
	OnTransition func(Transition)

	now   func() time.Time
	newID func() string
}

// NewMachine returns an idle machine. Zero delays fall back to DefaultDelay.
func NewMachine(cfg Config) *Machine {
	if cfg.UploadDelay <= 0 {
		cfg.UploadDelay = DefaultDelay
	}
	if cfg.ProcessingDelay <= 0 {
		cfg.ProcessingDelay = DefaultDelay
	}
	return &Machine{
		cfg:   cfg,
		phase: PhaseIdle,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// State returns the flags for the current phase.
func (m *Machine) State() State {
	return State{
		IsUploading:  m.phase == PhaseUploading,
		IsProcessing: m.phase == PhaseProcessing,
	}
}

// RunID returns the ID of the run in flight, or "" when idle.
func (m *Machine) RunID() string {
	return m.runID
}

// Config returns the effective delays.
func (m *Machine) Config() Config {
	return m.cfg
}

// Trigger starts a run. It is a no-op returning false unless the machine is idle.
func (m *Machine) Trigger() (Step, bool) {
	if m.phase != PhaseIdle {
		return Step{}, false
	}
	m.runID = m.newID()
	m.transition(PhaseUploading)
	return Step{RunID: m.runID, Phase: PhaseUploading, After: m.cfg.UploadDelay}, true
}

// Elapsed applies a fired timer. Messages for another run or another phase are
// ignored. The returned Step is the next timer to schedule, if any.
func (m *Machine) Elapsed(msg ElapsedMsg) (Step, bool) {
	if m.runID == "" || msg.RunID != m.runID || msg.Phase != m.phase {
		return Step{}, false
	}
	switch m.phase {
	case PhaseUploading:
		m.transition(PhaseProcessing)
		return Step{RunID: m.runID, Phase: PhaseProcessing, After: m.cfg.ProcessingDelay}, true
	case PhaseProcessing:
		m.transition(PhaseIdle)
		m.runID = ""
	}
	return Step{}, false
}

// Cancel invalidates the run in flight and resets to idle without reporting a
// transition. Timers already scheduled for that run are ignored when they fire.
func (m *Machine) Cancel() {
	m.runID = ""
	m.phase = PhaseIdle
}

func (m *Machine) transition(to Phase) {
	tr := Transition{RunID: m.runID, From: m.phase, To: to, At: m.now()}
	m.phase = to
	if m.OnTransition != nil {
		m.OnTransition(tr)
	}
}
