package progress

import (
	"errors"
	"strings"
	"testing"
	"time"

	"neuralscan/internal/upload"
)

func TestForTransition(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		from, to upload.Phase
		status   Status
		contains string
	}{
		{upload.PhaseIdle, upload.PhaseUploading, StatusRunning, "Uploading"},
		{upload.PhaseUploading, upload.PhaseProcessing, StatusRunning, "processing"},
		{upload.PhaseProcessing, upload.PhaseIdle, StatusDone, "complete"},
	}
	for _, tt := range tests {
		ev := ForTransition(upload.Transition{RunID: "run-1", From: tt.from, To: tt.to, At: at})
		if ev.Status != tt.status {
			t.Errorf("%s->%s: status %q, want %q", tt.from, tt.to, ev.Status, tt.status)
		}
		if !strings.Contains(ev.Message, tt.contains) {
			t.Errorf("%s->%s: message %q should contain %q", tt.from, tt.to, ev.Message, tt.contains)
		}
		if !ev.Timestamp.Equal(at) {
			t.Errorf("%s->%s: timestamp %v, want %v", tt.from, tt.to, ev.Timestamp, at)
		}
		if ev.Metadata["run"] != "run-1" {
			t.Errorf("%s->%s: run metadata %q", tt.from, tt.to, ev.Metadata["run"])
		}
	}
}

func TestAbortedAndFailed(t *testing.T) {
	ev := Aborted("run-2", upload.PhaseProcessing, time.Now())
	if ev.Status != StatusAborted || !strings.Contains(ev.Message, "processing") {
		t.Errorf("Aborted: got %+v", ev)
	}

	ev = Failed(errors.New("collector unreachable"))
	if ev.Status != StatusError || ev.Message != "collector unreachable" {
		t.Errorf("Failed: got %+v", ev)
	}
	if !ev.Timestamp.IsZero() {
		t.Error("Failed: timestamp is left to the emitter")
	}
}

func TestChanEmitter_Emit_SetsTimestampWhenZero(t *testing.T) {
	ch := make(chan Event, 1)
	emitter := &ChanEmitter{Ch: ch}

	emitter.Emit(Event{Message: "test", Status: StatusRunning})

	got := <-ch
	if got.Timestamp.IsZero() {
		t.Error("Emit: expected timestamp to be set when zero")
	}
	if got.Message != "test" || got.Status != StatusRunning {
		t.Errorf("Emit: got Message=%q Status=%q", got.Message, got.Status)
	}
}

func TestChanEmitter_Emit_PreservesTimestamp(t *testing.T) {
	ch := make(chan Event, 1)
	emitter := &ChanEmitter{Ch: ch}

	ts := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	emitter.Emit(Event{Message: "test", Status: StatusDone, Timestamp: ts})

	got := <-ch
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Emit: expected preserved timestamp %v, got %v", ts, got.Timestamp)
	}
}

func TestChanEmitter_Emit_DropsWhenFull(t *testing.T) {
	ch := make(chan Event, 1)
	emitter := &ChanEmitter{Ch: ch}

	emitter.Emit(Event{Message: "first"})
	emitter.Emit(Event{Message: "dropped"})

	got := <-ch
	if got.Message != "first" {
		t.Errorf("Emit full: expected 'first', got %q", got.Message)
	}
	select {
	case <-ch:
		t.Error("Emit full: expected dropped event not to be sent")
	default:
	}
}
