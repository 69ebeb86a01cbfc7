package trace

import (
	"strconv"
	"sync"
	"time"

	"neuralscan/internal/upload"
)

// span names of a pipeline run
const (
	SpanPipeline   = "pipeline"
	SpanUpload     = "upload"
	SpanProcessing = "processing"
)

type runSpans struct {
	traceID string
	rootID  string
	stageID string
}

// PipelineRecorder turns upload state machine transitions into trace events:
// one root span per run with a child span per stage.
type PipelineRecorder struct {
	manager *Manager

	mu    sync.Mutex
	runs  map[string]runSpans
	files int
	delay map[upload.Phase]time.Duration
}

// NewPipelineRecorder records into m. cfg supplies the stage delays that are
// attached to each stage span.
func NewPipelineRecorder(m *Manager, cfg upload.Config) *PipelineRecorder {
	return &PipelineRecorder{
		manager: m,
		runs:    make(map[string]runSpans),
		delay: map[upload.Phase]time.Duration{
			upload.PhaseUploading:  cfg.UploadDelay,
			upload.PhaseProcessing: cfg.ProcessingDelay,
		},
	}
}

// Manager returns the manager the recorder writes to.
func (r *PipelineRecorder) Manager() *Manager {
	return r.manager
}

// SetFileCount records how many files the next run uploads.
func (r *PipelineRecorder) SetFileCount(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = n
}

// Observe records one transition. Its signature matches
// upload.Machine.OnTransition.
func (r *PipelineRecorder) Observe(tr upload.Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case tr.From == upload.PhaseIdle && tr.To == upload.PhaseUploading:
		run := runSpans{traceID: TraceIDFromRunID(tr.RunID), rootID: NewSpanID()}
		r.manager.HandleEvent(TraceEvent{
			TraceID:   run.traceID,
			SpanID:    run.rootID,
			Type:      EventRunStart,
			Name:      SpanPipeline,
			Timestamp: tr.At,
			Attributes: map[string]string{
				"run_id": tr.RunID,
				"files":  strconv.Itoa(r.files),
			},
		})
		run.stageID = r.startStage(run, SpanUpload, upload.PhaseUploading, tr.At)
		r.runs[tr.RunID] = run

	case tr.From == upload.PhaseUploading && tr.To == upload.PhaseProcessing:
		run, ok := r.runs[tr.RunID]
		if !ok {
			return
		}
		r.endStage(run, tr.At)
		run.stageID = r.startStage(run, SpanProcessing, upload.PhaseProcessing, tr.At)
		r.runs[tr.RunID] = run

	case tr.From == upload.PhaseProcessing && tr.To == upload.PhaseIdle:
		run, ok := r.runs[tr.RunID]
		if !ok {
			return
		}
		r.endStage(run, tr.At)
		r.endRun(run, OutcomeCompleted, tr.At)
		delete(r.runs, tr.RunID)
	}
}

// Abandon closes the trace of a run torn down before it finished.
func (r *PipelineRecorder) Abandon(runID string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[runID]
	if !ok {
		return
	}
	r.endStage(run, at)
	r.endRun(run, OutcomeCancelled, at)
	delete(r.runs, runID)
}

func (r *PipelineRecorder) startStage(run runSpans, name string, phase upload.Phase, at time.Time) string {
	id := NewSpanID()
	r.manager.HandleEvent(TraceEvent{
		TraceID:    run.traceID,
		SpanID:     id,
		ParentID:   run.rootID,
		Type:       EventStageStart,
		Name:       name,
		Timestamp:  at,
		Attributes: map[string]string{"delay": r.delay[phase].String()},
	})
	return id
}

func (r *PipelineRecorder) endStage(run runSpans, at time.Time) {
	r.manager.HandleEvent(TraceEvent{
		TraceID:   run.traceID,
		SpanID:    run.stageID,
		ParentID:  run.rootID,
		Type:      EventStageEnd,
		Timestamp: at,
	})
}

func (r *PipelineRecorder) endRun(run runSpans, outcome string, at time.Time) {
	r.manager.HandleEvent(TraceEvent{
		TraceID:    run.traceID,
		SpanID:     run.rootID,
		Type:       EventRunEnd,
		Name:       SpanPipeline,
		Timestamp:  at,
		Attributes: map[string]string{"outcome": outcome},
	})
}
