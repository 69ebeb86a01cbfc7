package trace

import (
	"context"
	"sync"
	"time"
)

// Span represents a span with start time and duration. Duration is zero while
// the span is in progress.
type Span struct {
	TraceID    string
	SpanID     string
	ParentID   string
	Name       string
	StartTime  time.Time
	Duration   time.Duration
	Attributes map[string]string
	Children   []*Span
}

// Trace is one pipeline run
type Trace struct {
	ID        string
	StartTime time.Time
	EndTime   time.Time
	RootSpan  *Span
	Status    string // "running", "completed" or "cancelled"
}

// Duration returns how long the run took, or zero while it is running.
func (t *Trace) Duration() time.Duration {
	if t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}

// Exporter ships finished traces somewhere
type Exporter interface {
	ExportTrace(ctx context.Context, t *Trace) error
	Shutdown(ctx context.Context) error
}

// Manager stores and manages traces
type Manager struct {
	mu           sync.RWMutex
	traces       map[string]*Trace      // traceID -> Trace
	pendingSpans map[string]*TraceEvent // spanID -> start event (waiting for end)
	recentIDs    []string               // Ring buffer of recent trace IDs
	maxTraces    int                    // Max traces to keep (default 10)
	onChange     func()                 // Callback when trace state changes
	onError      func(error)            // Callback for export failures
	exporter     Exporter               // Optional; nil disables export
}

// NewManager creates a new trace manager. exporter may be nil.
func NewManager(maxTraces int, exporter Exporter) *Manager {
	if maxTraces <= 0 {
		maxTraces = 10
	}
	return &Manager{
		traces:       make(map[string]*Trace),
		pendingSpans: make(map[string]*TraceEvent),
		recentIDs:    make([]string, 0, maxTraces),
		maxTraces:    maxTraces,
		exporter:     exporter,
	}
}

// HandleEvent processes a trace event
// - For *_start events: creates span immediately with Duration=0 (in-progress)
// - For *_end events: finds matching span and updates Duration
// Returns the affected Trace (for UI updates)
func (m *Manager) HandleEvent(event TraceEvent) *Trace {
	m.mu.Lock()
	defer m.mu.Unlock()

	trace := m.traces[event.TraceID]
	switch event.Type {
	case EventRunStart, EventStageStart:
		return m.handleStartEvent(event, trace)
	case EventRunEnd, EventStageEnd:
		return m.handleEndEvent(event, trace)
	}
	return nil
}

// handleStartEvent must be called with m.mu held
func (m *Manager) handleStartEvent(event TraceEvent, trace *Trace) *Trace {
	m.pendingSpans[event.SpanID] = &event

	span := &Span{
		TraceID:    event.TraceID,
		SpanID:     event.SpanID,
		ParentID:   event.ParentID,
		Name:       event.Name,
		StartTime:  event.Timestamp,
		Attributes: make(map[string]string, len(event.Attributes)),
	}
	for k, v := range event.Attributes {
		span.Attributes[k] = v
	}

	if event.Type == EventRunStart {
		if trace == nil {
			trace = &Trace{ID: event.TraceID}
			m.traces[event.TraceID] = trace
			m.addToRecentIDs(event.TraceID)
		}
		trace.StartTime = event.Timestamp
		trace.Status = "running"
		trace.RootSpan = span
		m.callOnChange()
		return trace
	}

	// Stages only make sense inside a known run.
	if trace == nil || trace.RootSpan == nil {
		delete(m.pendingSpans, event.SpanID)
		return nil
	}
	parent := findSpanByID(trace.RootSpan, event.ParentID)
	if parent == nil {
		parent = trace.RootSpan
	}
	parent.Children = append(parent.Children, span)
	m.callOnChange()
	return trace
}

// handleEndEvent must be called with m.mu held
func (m *Manager) handleEndEvent(event TraceEvent, trace *Trace) *Trace {
	start, found := m.pendingSpans[event.SpanID]
	if !found {
		return nil
	}
	delete(m.pendingSpans, event.SpanID)

	if trace != nil && trace.RootSpan != nil {
		if span := findSpanByID(trace.RootSpan, event.SpanID); span != nil {
			span.Duration = event.Timestamp.Sub(start.Timestamp)
			for k, v := range event.Attributes {
				span.Attributes[k] = v
			}
		}
	}

	if event.Type == EventRunEnd && trace != nil {
		trace.EndTime = event.Timestamp
		trace.Status = OutcomeCompleted
		if outcome := event.Attributes["outcome"]; outcome != "" {
			trace.Status = outcome
		}
		// The batch exporter only queues here; the network send happens on
		// its own goroutine.
		if m.exporter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := m.exporter.ExportTrace(ctx, trace); err != nil && m.onError != nil {
				m.onError(err)
			}
			cancel()
		}
	}

	m.callOnChange()
	return trace
}

// findSpanByID recursively searches for a span by ID in the trace tree
func findSpanByID(root *Span, spanID string) *Span {
	if root == nil {
		return nil
	}
	if root.SpanID == spanID {
		return root
	}
	for _, child := range root.Children {
		if found := findSpanByID(child, spanID); found != nil {
			return found
		}
	}
	return nil
}

// addToRecentIDs adds a trace ID to the recent list, evicting old ones if needed
func (m *Manager) addToRecentIDs(traceID string) {
	for i, id := range m.recentIDs {
		if id == traceID {
			m.recentIDs = append(append(m.recentIDs[:i], m.recentIDs[i+1:]...), traceID)
			return
		}
	}

	m.recentIDs = append(m.recentIDs, traceID)
	if len(m.recentIDs) > m.maxTraces {
		oldestID := m.recentIDs[0]
		m.recentIDs = m.recentIDs[1:]
		if old := m.traces[oldestID]; old != nil && old.RootSpan != nil {
			dropPending(m.pendingSpans, old.RootSpan)
		}
		delete(m.traces, oldestID)
	}
}

func dropPending(pending map[string]*TraceEvent, span *Span) {
	delete(pending, span.SpanID)
	for _, c := range span.Children {
		dropPending(pending, c)
	}
}

// callOnChange calls the onChange callback if set (must be called with lock held)
func (m *Manager) callOnChange() {
	if m.onChange != nil {
		m.onChange()
	}
}

// GetTrace returns a trace by ID
func (m *Manager) GetTrace(id string) *Trace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.traces[id]
}

// GetActiveTrace returns the currently running trace (if any)
func (m *Manager) GetActiveTrace() *Trace {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, trace := range m.traces {
		if trace.Status == "running" {
			return trace
		}
	}
	return nil
}

// GetRecentTraces returns recent traces (newest first)
func (m *Manager) GetRecentTraces() []*Trace {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Trace, 0, len(m.recentIDs))
	for i := len(m.recentIDs) - 1; i >= 0; i-- {
		if trace, exists := m.traces[m.recentIDs[i]]; exists {
			result = append(result, trace)
		}
	}
	return result
}

// SetOnChange sets callback for state changes (thread-safe)
func (m *Manager) SetOnChange(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = fn
}

// SetOnError sets the callback for export failures (thread-safe)
func (m *Manager) SetOnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = fn
}

// Shutdown flushes pending exports and closes the exporter.
// Must be called before process exit to ensure traces are exported.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	exporter := m.exporter
	m.mu.Unlock()

	if exporter != nil {
		return exporter.Shutdown(ctx)
	}
	return nil
}
