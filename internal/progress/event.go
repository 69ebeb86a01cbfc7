// Package progress carries pipeline log events from their producers to the UI.
package progress

import (
	"fmt"
	"time"

	"neuralscan/internal/upload"
)

// Status indicates the state of a pipeline stage.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusAborted Status = "aborted"
)

// Event is one line of the pipeline log.
type Event struct {
	Message   string
	Status    Status
	Timestamp time.Time
	Metadata  map[string]string // optional: run, stage, files
}

// ForTransition describes an upload state machine transition.
func ForTransition(tr upload.Transition) Event {
	ev := Event{
		Timestamp: tr.At,
		Metadata:  map[string]string{"run": tr.RunID},
	}
	switch tr.To {
	case upload.PhaseUploading:
		ev.Message = "Uploading scan files"
		ev.Status = StatusRunning
	case upload.PhaseProcessing:
		ev.Message = "Upload finished, processing"
		ev.Status = StatusRunning
	case upload.PhaseIdle:
		ev.Message = "Processing complete"
		ev.Status = StatusDone
	default:
		ev.Message = fmt.Sprintf("%s -> %s", tr.From, tr.To)
	}
	return ev
}

// Aborted describes a run torn down before it finished.
func Aborted(runID string, phase upload.Phase, at time.Time) Event {
	return Event{
		Message:   fmt.Sprintf("Run abandoned while %s", phase),
		Status:    StatusAborted,
		Timestamp: at,
		Metadata:  map[string]string{"run": runID},
	}
}

// Failed wraps an error reported off the UI goroutine, e.g. by the trace exporter.
func Failed(err error) Event {
	return Event{Message: err.Error(), Status: StatusError}
}

// ChanEmitter emits events to a channel the UI drains.
type ChanEmitter struct {
	Ch chan<- Event
}

// Emit sends the event to the channel (non-blocking; drops if full).
func (e *ChanEmitter) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case e.Ch <- ev:
	default:
		// Channel full; the log is advisory.
	}
}
