package trace

import (
	"testing"
	"time"

	"neuralscan/internal/upload"
)

func runMachine(t *testing.T, rec *PipelineRecorder) (*upload.Machine, upload.Step) {
	t.Helper()
	m := upload.NewMachine(upload.DefaultConfig())
	m.OnTransition = rec.Observe
	step, ok := m.Trigger()
	if !ok {
		t.Fatal("Trigger: expected a run to start")
	}
	return m, step
}

func TestPipelineRecorder_FullRun(t *testing.T) {
	exp := &fakeExporter{}
	rec := NewPipelineRecorder(NewManager(10, exp), upload.DefaultConfig())
	rec.SetFileCount(3)

	m, step := runMachine(t, rec)
	if active := rec.Manager().GetActiveTrace(); active == nil {
		t.Fatal("expected a running trace after trigger")
	}

	step, _ = m.Elapsed(step.Msg())
	m.Elapsed(step.Msg())

	recent := rec.Manager().GetRecentTraces()
	if len(recent) != 1 {
		t.Fatalf("expected 1 trace, got %d", len(recent))
	}
	tr := recent[0]
	if tr.Status != OutcomeCompleted {
		t.Errorf("expected status %q, got %q", OutcomeCompleted, tr.Status)
	}
	root := tr.RootSpan
	if root.Name != SpanPipeline {
		t.Errorf("expected root span %q, got %q", SpanPipeline, root.Name)
	}
	if root.Attributes["files"] != "3" {
		t.Errorf("expected files=3, got %q", root.Attributes["files"])
	}
	if root.Attributes["run_id"] == "" {
		t.Error("expected run_id attribute")
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected upload and processing spans, got %d", len(root.Children))
	}
	if root.Children[0].Name != SpanUpload || root.Children[1].Name != SpanProcessing {
		t.Errorf("unexpected stage order: %s, %s", root.Children[0].Name, root.Children[1].Name)
	}
	if !root.Children[1].StartTime.Equal(root.Children[0].StartTime.Add(root.Children[0].Duration)) {
		t.Error("processing must start when upload ends")
	}
	if root.Children[0].Attributes["delay"] != "2s" {
		t.Errorf("expected delay=2s, got %q", root.Children[0].Attributes["delay"])
	}
	if len(exp.exported) != 1 {
		t.Errorf("expected 1 export, got %d", len(exp.exported))
	}
	if len(rec.runs) != 0 {
		t.Errorf("expected finished run to be forgotten, %d left", len(rec.runs))
	}
}

func TestPipelineRecorder_TraceIDMatchesRun(t *testing.T) {
	rec := NewPipelineRecorder(NewManager(10, nil), upload.DefaultConfig())
	m, _ := runMachine(t, rec)
	want := TraceIDFromRunID(m.RunID())
	if rec.Manager().GetTrace(want) == nil {
		t.Errorf("expected trace %s for run %s", want, m.RunID())
	}
}

func TestPipelineRecorder_Abandon(t *testing.T) {
	rec := NewPipelineRecorder(NewManager(10, nil), upload.DefaultConfig())
	m, _ := runMachine(t, rec)
	runID := m.RunID()
	m.Cancel()
	rec.Abandon(runID, time.Now())

	recent := rec.Manager().GetRecentTraces()
	if len(recent) != 1 || recent[0].Status != OutcomeCancelled {
		t.Fatalf("expected one cancelled trace, got %+v", recent)
	}
	if recent[0].RootSpan.Children[0].Duration < 0 {
		t.Error("abandoned stage must be closed")
	}

	rec.Abandon(runID, time.Now())
	rec.Abandon("unknown", time.Now())
	if n := len(rec.Manager().GetRecentTraces()); n != 1 {
		t.Errorf("repeat abandon must be a no-op, got %d traces", n)
	}
}

func TestPipelineRecorder_IgnoresUnknownRuns(t *testing.T) {
	rec := NewPipelineRecorder(NewManager(10, nil), upload.DefaultConfig())
	rec.Observe(upload.Transition{RunID: "ghost", From: upload.PhaseUploading, To: upload.PhaseProcessing, At: time.Now()})
	rec.Observe(upload.Transition{RunID: "ghost", From: upload.PhaseProcessing, To: upload.PhaseIdle, At: time.Now()})
	if n := len(rec.Manager().GetRecentTraces()); n != 0 {
		t.Errorf("expected no traces, got %d", n)
	}
}
