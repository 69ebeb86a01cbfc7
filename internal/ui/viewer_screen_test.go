package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"neuralscan/internal/catalog"
	"neuralscan/internal/render"
	"neuralscan/internal/testutil"
)

type viewerHarness struct {
	screen   *ViewerScreen
	sessions []*render.Session
}

func newViewerHarness(t *testing.T) *viewerHarness {
	t.Helper()
	h := &viewerHarness{}
	scene := render.DefaultConfig()
	scene.Segments = 12
	scene.Rand = render.SeededRand(1)
	scene.Logger = testutil.NewTestLogger(t)
	h.screen = NewViewerScreen(ViewerOptions{
		NewSession: func(w, ht int) (*render.Session, error) {
			s, err := render.NewSession(scene, w, ht)
			if err == nil {
				h.sessions = append(h.sessions, s)
			}
			return s, err
		},
		Profile: termenv.TrueColor,
		Logger:  scene.Logger,
	})
	return h
}

func (h *viewerHarness) active() int {
	n := 0
	for _, s := range h.sessions {
		if s.State() == render.SessionActive {
			n++
		}
	}
	return n
}

// frame delivers one frame tick for the current session.
func (h *viewerHarness) frame() tea.Cmd {
	s := h.screen.Session()
	if s == nil {
		return nil
	}
	_, cmd := h.screen.Update(frameMsg{SessionID: s.ID()})
	return cmd
}

func TestViewerScreen_SessionStartsWithSize(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	if v.Session() != nil {
		t.Fatal("no session before the container size is known")
	}

	_, cmd := v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	sess := v.Session()
	if sess == nil || cmd == nil {
		t.Fatalf("expected a session and a first frame, got %v %v", sess, cmd)
	}
	first, ok := cmd().(frameMsg)
	if !ok || first.SessionID != sess.ID() {
		t.Fatalf("first frame: %#v", cmd())
	}
	w, ht := sess.Surface().Size()
	if w != 41 || ht != 40 {
		t.Errorf("surface %dx%d, want 41x40", w, ht)
	}

	if next := h.frame(); next == nil {
		t.Error("a running session schedules the next frame")
	}
	if sess.Surface().Frames() != 1 {
		t.Errorf("frames rendered: %d", sess.Surface().Frames())
	}
	if !strings.Contains(v.View(), render.HalfBlock) {
		t.Error("view should contain the rendered surface")
	}
}

func TestViewerScreen_ToggleNeverHoldsTwoSessions(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	first := v.Session()

	for i := 0; i < 3; i++ {
		v.Update(keyMsg("tab"))
		if v.Mode != ViewSlices || v.Session() != nil {
			t.Fatalf("round %d: expected slices without a session", i)
		}
		if h.active() != 0 {
			t.Fatalf("round %d: %d sessions still active in slices view", i, h.active())
		}
		v.Update(keyMsg("tab"))
		if v.Mode != ViewModel3D || v.Session() == nil {
			t.Fatalf("round %d: expected a new session", i)
		}
		if h.active() != 1 {
			t.Fatalf("round %d: %d active sessions", i, h.active())
		}
	}

	if first.State() != render.SessionDisposed {
		t.Error("the first session should be disposed")
	}
	if v.Session().ID() == first.ID() {
		t.Error("returning to the model view builds a new session")
	}
	_, cmd := v.Update(frameMsg{SessionID: first.ID()})
	if cmd != nil {
		t.Error("frames of a disposed session must not reschedule")
	}
	if first.Surface().Frames() != 0 {
		t.Error("a disposed session must not render")
	}
}

func TestViewerScreen_ModeKeys(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	v.Update(keyMsg("s"))
	if v.Mode != ViewSlices {
		t.Fatal("s should show slices")
	}
	v.Update(keyMsg("s"))
	if v.Mode != ViewSlices || len(h.sessions) != 1 {
		t.Error("selecting the current mode again is a no-op")
	}
	v.Update(keyMsg("m"))
	if v.Mode != ViewModel3D || len(h.sessions) != 2 {
		t.Errorf("m should start a second session, have %d", len(h.sessions))
	}

	for _, k := range []string{"b", "esc"} {
		_, cmd := v.Update(keyMsg(k))
		if cmd == nil {
			t.Fatalf("%s: expected a command", k)
		}
		if msg, ok := cmd().(NavigateMsg); !ok || msg.Route != RouteUpload {
			t.Errorf("%s: got %#v", k, cmd())
		}
	}
}

func TestViewerScreen_ResizeAppliesOnNextFrame(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	cam := v.Session().Camera()
	before := cam.Aspect

	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if cam.Aspect != before {
		t.Fatal("resize must wait for the next frame")
	}
	h.frame()

	// 120 columns: main area 85 wide, 81 render columns; 40 rows: 30 render rows.
	w, ht := v.Session().Surface().Size()
	if w != 81 || ht != 60 {
		t.Fatalf("surface %dx%d, want 81x60", w, ht)
	}
	if want := 81.0 / 60.0; cam.Aspect != want {
		t.Errorf("aspect %v, want %v", cam.Aspect, want)
	}
}

func TestViewerScreen_UnmountDisposes(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	sess := v.Session()

	v.Unmount()
	if sess.State() != render.SessionDisposed || sess.Running() {
		t.Fatal("unmount should dispose the session")
	}
	if _, cmd := v.Update(frameMsg{SessionID: sess.ID()}); cmd != nil {
		t.Error("no frame after unmount")
	}
	v.Unmount()
}

func TestViewerScreen_SurfaceUnavailable(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen

	v.Update(tea.WindowSizeMsg{Width: 4, Height: 5})
	if v.Session() != nil {
		t.Fatal("no session for an empty container")
	}
	if !errors.Is(v.Err(), render.ErrSurfaceUnavailable) {
		t.Fatalf("err = %v", v.Err())
	}
	if !strings.Contains(v.View(), "Graphics context unavailable") {
		t.Error("the failure is shown inline")
	}

	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	if v.Session() == nil || v.Err() != nil {
		t.Error("a usable size retries the session")
	}
}

func TestViewerScreen_ShrinkBelowUsableSizeSuspendsSession(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	first := v.Session()
	if first == nil {
		t.Fatal("expected a session at 80x30")
	}
	h.frame()

	_, cmd := v.Update(tea.WindowSizeMsg{Width: 4, Height: 5})
	if cmd != nil {
		t.Error("a suspended viewer schedules no frames")
	}
	if v.Session() != nil {
		t.Fatal("the session is disposed while the container is unusable")
	}
	if first.State() != render.SessionDisposed {
		t.Errorf("old session state = %s", first.State())
	}
	if !errors.Is(v.Err(), render.ErrSurfaceUnavailable) {
		t.Fatalf("err = %v", v.Err())
	}
	if out := v.View(); !strings.Contains(out, "Graphics context unavailable") {
		t.Errorf("the notice replaces the stale frame:\n%s", out)
	}
	// A tick queued before the shrink is dropped.
	v.Update(frameMsg{SessionID: first.ID()})
	if v.Session() != nil {
		t.Error("a stale frame must not revive the session")
	}

	_, cmd = v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	again := v.Session()
	if again == nil || cmd == nil || v.Err() != nil {
		t.Fatalf("a usable size rebuilds the session: %v %v %v", again, cmd, v.Err())
	}
	if again.ID() == first.ID() {
		t.Error("expected a fresh session")
	}
	if h.active() != 1 {
		t.Errorf("active sessions = %d, want 1", h.active())
	}
}

func TestViewerScreen_KeyboardControls(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	cam := v.Session().Camera()
	h.frame()

	start := cam.Position
	v.Update(keyMsg("left"))
	h.frame()
	if cam.Position == start {
		t.Error("left should orbit the camera")
	}

	dist := cam.Position.Sub(cam.Target()).Len()
	v.Update(keyMsg("+"))
	for i := 0; i < 5; i++ {
		h.frame()
	}
	if got := cam.Position.Sub(cam.Target()).Len(); got >= dist {
		t.Errorf("+ should zoom in: %v -> %v", dist, got)
	}

	target := cam.Target()
	v.Update(keyMsg("shift+left"))
	h.frame()
	if cam.Target() == target {
		t.Error("shift+left should pan the target")
	}
}

func TestViewerScreen_MouseControls(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	cam := v.Session().Camera()
	h.frame()

	start := cam.Position
	v.Update(tea.MouseMsg{X: 50, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	v.Update(tea.MouseMsg{X: 60, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	v.Update(tea.MouseMsg{X: 60, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionRelease})
	h.frame()
	if cam.Position == start {
		t.Error("dragging should orbit the camera")
	}

	if v.drag.active {
		t.Fatal("release should end the drag")
	}
	v.Update(tea.MouseMsg{X: 70, Y: 12, Action: tea.MouseActionMotion})
	if v.drag.active {
		t.Error("motion without a press is not a drag")
	}

	dist := cam.Position.Sub(cam.Target()).Len()
	v.Update(tea.MouseMsg{X: 50, Y: 10, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	h.frame()
	if got := cam.Position.Sub(cam.Target()).Len(); got >= dist {
		t.Errorf("wheel up should zoom in: %v -> %v", dist, got)
	}

	// Presses on the side panel do not start a drag.
	v.Update(tea.MouseMsg{X: 5, Y: 10, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	if v.drag.active {
		t.Error("press outside the render area started a drag")
	}
}

func TestViewerScreen_SlicesView(t *testing.T) {
	h := newViewerHarness(t)
	v := h.screen
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	v.Update(keyMsg("s"))

	view := v.View()
	for _, want := range []string{"3D CT Scan Rendering", "3D Model", "CT Slices", "CT Scan Slices",
		"Slice 1", "Slice 4", "These slices show", "Rendering Quality", "High",
		"Model Controls", "Shift+Drag", "Render Settings", "Back to Upload"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	v.Update(slicesLoadedMsg{Slices: []catalog.Slice{{ID: 9, Src: "https://example.org/9.png", Label: "Axial 9"}}})
	if !strings.Contains(v.View(), "Axial 9") {
		t.Error("loaded slices should replace the gallery")
	}

	v.Update(slicesLoadedMsg{Err: errors.New("bad catalog")})
	if !strings.Contains(v.View(), "bad catalog") {
		t.Error("load errors are shown inline")
	}

	_, cmd := v.Update(CatalogChangedMsg{})
	if cmd == nil {
		t.Fatal("a catalog change reloads the slices")
	}
	if msg, ok := cmd().(slicesLoadedMsg); !ok || len(msg.Slices) != 4 {
		t.Errorf("reload: %#v", cmd())
	}
}
