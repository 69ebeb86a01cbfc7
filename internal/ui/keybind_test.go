package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeybindRegistry_BindLookup(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	reg.Bind("SPC q", tea.Quit)
	reg.Bind("j", nil)

	if reg.Lookup("q") == nil {
		t.Error("expected q to be bound")
	}
	if reg.Lookup("space q") == nil {
		t.Error("expected space q to normalize to SPC q")
	}
	if reg.Lookup("unknown") != nil {
		t.Error("expected unknown to be unbound")
	}
}

func TestKeyHandler_LeaderKey(t *testing.T) {
	reg := NewKeybindRegistry()
	var executed bool
	reg.Bind("SPC x", func() tea.Msg {
		executed = true
		return nil
	})
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyMsg(" "))
	if !consumed || cmd != nil {
		t.Errorf("space: consumed=%v cmd=%v", consumed, cmd)
	}
	if !h.LeaderWaiting {
		t.Error("expected leader waiting after space")
	}

	consumed, cmd = h.Handle(keyMsg("x"))
	if !consumed || cmd == nil {
		t.Fatalf("x: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("leader should not be waiting after completing sequence")
	}
	cmd()
	if !executed {
		t.Error("expected command to execute")
	}
}

func TestKeyHandler_Submenu(t *testing.T) {
	h := NewKeyHandler(newRegistry())

	h.Handle(keyMsg(" "))
	consumed, cmd := h.Handle(keyMsg("g"))
	if !consumed || cmd != nil {
		t.Fatalf("g: consumed=%v cmd=%v", consumed, cmd)
	}
	if !h.LeaderWaiting || h.CurrentSeq() != "SPC g" {
		t.Fatalf("expected to wait in SPC g, got waiting=%v seq=%q", h.LeaderWaiting, h.CurrentSeq())
	}

	_, cmd = h.Handle(keyMsg("r"))
	if cmd == nil {
		t.Fatal("SPC g r: expected a command")
	}
	if msg, ok := cmd().(NavigateMsg); !ok || msg.Route != RouteRender {
		t.Errorf("SPC g r: got %#v", cmd())
	}
}

func TestKeyHandler_UnknownLeaderSequenceResets(t *testing.T) {
	h := NewKeyHandler(newRegistry())
	h.Handle(keyMsg(" "))
	consumed, cmd := h.Handle(keyMsg("z"))
	if !consumed || cmd != nil {
		t.Errorf("z: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("unknown sequence should leave leader mode")
	}
}

func TestKeyHandler_EscCancelsLeader(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC x", tea.Quit)
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "))
	consumed, cmd := h.Handle(keyMsg("esc"))
	if !consumed || cmd != nil {
		t.Errorf("esc: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("esc should cancel leader mode")
	}

	// Outside leader mode esc belongs to the screen.
	if consumed, _ := h.Handle(keyMsg("esc")); consumed {
		t.Error("esc outside leader mode should fall through")
	}
}

func TestKeyHandler_SingleKey(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyMsg("q"))
	if !consumed || cmd == nil {
		t.Errorf("q: consumed=%v cmd=%v", consumed, cmd)
	}
	if consumed, _ := h.Handle(keyMsg("j")); consumed {
		t.Error("unbound j should not be consumed")
	}
}

func TestLeaderHints_RouteFilterAndSubmenus(t *testing.T) {
	reg := newRegistry()

	upload := reg.LeaderHints("", RouteUpload)
	if upload["g"] != "Go" {
		t.Errorf("g should show the submenu label, got %q", upload["g"])
	}
	if upload["l"] != "Pipeline log" {
		t.Errorf("l: got %q", upload["l"])
	}
	if upload["o"] != "Choose files" {
		t.Errorf("o should be offered on the upload route, got %q", upload["o"])
	}

	render := reg.LeaderHints("", RouteRender)
	if _, ok := render["o"]; ok {
		t.Error("o should be hidden on the render route")
	}

	next := reg.LeaderHints("SPC g", RouteRender)
	if next["u"] != "Upload" || next["r"] != "3D Render" {
		t.Errorf("SPC g hints: %v", next)
	}
}

func TestBindings_SortedWithCancel(t *testing.T) {
	reg := newRegistry()
	b := reg.Bindings("", RouteUpload)
	if len(b) < 2 {
		t.Fatalf("expected bindings, got %d", len(b))
	}
	var keys []string
	for _, kb := range b {
		keys = append(keys, kb.Help().Key)
	}
	if keys[len(keys)-1] != "esc" {
		t.Errorf("last binding should be esc, got %v", keys)
	}
	for i := 1; i < len(keys)-1; i++ {
		if keys[i-1] > keys[i] {
			t.Errorf("bindings not sorted: %v", keys)
		}
	}
}

// keyMsg creates a tea.KeyMsg for testing. Bubble Tea uses KeyType and Runes.
// KeySpace.String() returns " ", KeyEsc returns "esc", etc.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "shift+left":
		return tea.KeyMsg{Type: tea.KeyShiftLeft}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
