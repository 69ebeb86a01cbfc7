package trace

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// EventType identifies the kind of trace event
type EventType string

const (
	EventRunStart   EventType = "run_start"   // Upload & Process triggered
	EventRunEnd     EventType = "run_end"     // Pipeline back to idle
	EventStageStart EventType = "stage_start" // Upload or processing stage begins
	EventStageEnd   EventType = "stage_end"   // Stage delay elapsed
)

// Run outcomes recorded on the root span.
const (
	OutcomeCompleted = "completed"
	OutcomeCancelled = "cancelled"
)

// TraceEvent is a single event in a pipeline run trace
type TraceEvent struct {
	TraceID    string            `json:"trace_id"`  // One per pipeline run
	SpanID     string            `json:"span_id"`   // Unique ID for this span
	ParentID   string            `json:"parent_id"` // Parent span ID (empty for root)
	Type       EventType         `json:"type"`
	Name       string            `json:"name"` // "pipeline", "upload" or "processing"
	Timestamp  time.Time         `json:"timestamp"`
	Attributes map[string]string `json:"attributes"`
}

// NewTraceID generates a random 16-byte trace ID as hex string (32 characters)
func NewTraceID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NewSpanID generates a random 8-byte span ID as hex string (16 characters)
func NewSpanID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// TraceIDFromRunID maps a run UUID onto a trace ID, so the run ID shown in the
// pipeline log can be searched for in a tracing backend. Anything that is not
// a UUID gets a fresh random ID.
func TraceIDFromRunID(runID string) string {
	id := strings.ReplaceAll(runID, "-", "")
	if len(id) != 32 {
		return NewTraceID()
	}
	if _, err := hex.DecodeString(id); err != nil {
		return NewTraceID()
	}
	return strings.ToLower(id)
}
