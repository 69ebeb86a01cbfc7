package upload

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m := NewMachine(DefaultConfig())
	n := 0
	m.newID = func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
	m.now = func() time.Time { return time.Unix(0, 0) }
	return m
}

// timeline is a virtual clock that fires scheduled steps in order.
type timeline struct {
	now     time.Duration
	pending []scheduled
}

type scheduled struct {
	at  time.Duration
	msg ElapsedMsg
}

func (tl *timeline) schedule(s Step) {
	tl.pending = append(tl.pending, scheduled{at: tl.now + s.After, msg: s.Msg()})
	sort.SliceStable(tl.pending, func(i, j int) bool { return tl.pending[i].at < tl.pending[j].at })
}

// advance moves the clock to t and delivers every step due by then.
func (tl *timeline) advance(m *Machine, t time.Duration) {
	for len(tl.pending) > 0 && tl.pending[0].at <= t {
		next := tl.pending[0]
		tl.pending = tl.pending[1:]
		tl.now = next.at
		if step, ok := m.Elapsed(next.msg); ok {
			tl.schedule(step)
		}
	}
	tl.now = t
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "uploading", PhaseUploading.String())
	assert.Equal(t, "processing", PhaseProcessing.String())
	assert.Equal(t, "unknown", Phase(42).String())
}

func TestNewMachine_DefaultsZeroDelays(t *testing.T) {
	m := NewMachine(Config{})
	assert.Equal(t, DefaultDelay, m.Config().UploadDelay)
	assert.Equal(t, DefaultDelay, m.Config().ProcessingDelay)
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.False(t, m.State().Busy())
}

func TestTrigger_FromIdle(t *testing.T) {
	m := newTestMachine(t)

	step, ok := m.Trigger()
	require.True(t, ok)
	assert.Equal(t, "run-1", step.RunID)
	assert.Equal(t, PhaseUploading, step.Phase)
	assert.Equal(t, 2000*time.Millisecond, step.After)
	assert.Equal(t, State{IsUploading: true}, m.State())
}

func TestTrigger_IgnoredWhileBusy(t *testing.T) {
	m := newTestMachine(t)
	step, ok := m.Trigger()
	require.True(t, ok)

	_, ok = m.Trigger()
	assert.False(t, ok, "trigger while uploading")
	assert.Equal(t, PhaseUploading, m.Phase())
	assert.Equal(t, "run-1", m.RunID())

	_, ok = m.Elapsed(step.Msg())
	require.True(t, ok)
	require.Equal(t, PhaseProcessing, m.Phase())

	_, ok = m.Trigger()
	assert.False(t, ok, "trigger while processing")
	assert.Equal(t, PhaseProcessing, m.Phase())
	assert.Equal(t, "run-1", m.RunID())
}

func TestRun_PassesThroughEveryPhase(t *testing.T) {
	m := newTestMachine(t)
	var got []Transition
	m.OnTransition = func(tr Transition) { got = append(got, tr) }

	step, ok := m.Trigger()
	require.True(t, ok)
	step, ok = m.Elapsed(step.Msg())
	require.True(t, ok)
	_, ok = m.Elapsed(step.Msg())
	assert.False(t, ok, "final transition schedules nothing")

	require.Len(t, got, 3)
	assert.Equal(t, PhaseIdle, got[0].From)
	assert.Equal(t, PhaseUploading, got[0].To)
	assert.Equal(t, PhaseUploading, got[1].From)
	assert.Equal(t, PhaseProcessing, got[1].To)
	assert.Equal(t, PhaseProcessing, got[2].From)
	assert.Equal(t, PhaseIdle, got[2].To)
	for _, tr := range got {
		assert.Equal(t, "run-1", tr.RunID)
	}
	assert.Equal(t, "", m.RunID())
}

func TestTimeline(t *testing.T) {
	m := newTestMachine(t)
	tl := &timeline{}

	step, ok := m.Trigger()
	require.True(t, ok)
	tl.schedule(step)
	assert.Equal(t, State{IsUploading: true}, m.State(), "t=0")

	tl.advance(m, 1999*time.Millisecond)
	assert.Equal(t, State{IsUploading: true}, m.State(), "t=1999ms")

	tl.advance(m, 2000*time.Millisecond)
	assert.Equal(t, State{IsProcessing: true}, m.State(), "t=2000ms")

	tl.advance(m, 3999*time.Millisecond)
	assert.Equal(t, State{IsProcessing: true}, m.State(), "t=3999ms")

	tl.advance(m, 4000*time.Millisecond)
	assert.Equal(t, State{}, m.State(), "t=4000ms")
	assert.Empty(t, tl.pending)
}

func TestElapsed_IgnoresMismatches(t *testing.T) {
	m := newTestMachine(t)
	step, _ := m.Trigger()

	tests := []struct {
		name string
		msg  ElapsedMsg
	}{
		{"other run", ElapsedMsg{RunID: "run-99", Phase: PhaseUploading}},
		{"other phase", ElapsedMsg{RunID: step.RunID, Phase: PhaseProcessing}},
		{"empty", ElapsedMsg{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := m.Elapsed(tt.msg)
			assert.False(t, ok)
			assert.Equal(t, PhaseUploading, m.Phase())
		})
	}
}

func TestCancel_DropsPendingTimers(t *testing.T) {
	m := newTestMachine(t)
	transitions := 0
	m.OnTransition = func(Transition) { transitions++ }

	step, _ := m.Trigger()
	m.Cancel()
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, "", m.RunID())

	_, ok := m.Elapsed(step.Msg())
	assert.False(t, ok, "timer from cancelled run must be ignored")
	assert.Equal(t, PhaseIdle, m.Phase())
	assert.Equal(t, 1, transitions)

	// A new run does not pick up the old timer either.
	next, ok := m.Trigger()
	require.True(t, ok)
	assert.NotEqual(t, step.RunID, next.RunID)
	_, ok = m.Elapsed(step.Msg())
	assert.False(t, ok)
	assert.Equal(t, PhaseUploading, m.Phase())
}

func TestCustomDelays(t *testing.T) {
	m := NewMachine(Config{UploadDelay: 50 * time.Millisecond, ProcessingDelay: 75 * time.Millisecond})
	step, ok := m.Trigger()
	require.True(t, ok)
	assert.Equal(t, 50*time.Millisecond, step.After)
	step, ok = m.Elapsed(step.Msg())
	require.True(t, ok)
	assert.Equal(t, 75*time.Millisecond, step.After)
}
