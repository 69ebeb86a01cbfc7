package ui

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"neuralscan/internal/catalog"
	"neuralscan/internal/logging"
	"neuralscan/internal/progress"
	"neuralscan/internal/trace"
	"neuralscan/internal/ui/textutil"
	"neuralscan/internal/upload"
)

const catalogTimeout = 5 * time.Second

// Button labels of the trigger per phase.
const (
	LabelUpload     = "Upload & Process"
	LabelUploading  = "Uploading..."
	LabelProcessing = "Processing..."
)

var uploadBenefits = []string{
	"Fill in missing slices between scans",
	"Reduce radiation exposure",
	"Improve 3D model quality",
	"Enable faster diagnoses",
}

// UploadOptions configures an UploadScreen.
type UploadOptions struct {
	Machine    upload.Config
	Extensions []string
	Catalog    catalog.Provider
	Recorder   *trace.PipelineRecorder // optional
	Emit       func(progress.Event)    // optional pipeline log sink
	Logger     *slog.Logger
	Now        func() time.Time
}

type uploadKeyMap struct {
	Choose key.Binding
	Upload key.Binding
	View   key.Binding
}

func newUploadKeyMap() uploadKeyMap {
	return uploadKeyMap{
		Choose: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "choose files")),
		Upload: key.NewBinding(key.WithKeys("u", "enter"), key.WithHelp("u/enter", "upload & process")),
		View:   key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view 3D render")),
	}
}

func (k uploadKeyMap) bindings() []key.Binding {
	return []key.Binding{k.Choose, k.Upload, k.View}
}

// UploadScreen lets the user choose scan files and run the simulated
// upload and processing pipeline.
type UploadScreen struct {
	Machine   *upload.Machine
	Selection *upload.Selection
	Figures   []catalog.Figure
	Notice    string // inline error, cleared by the next successful action

	opts    UploadOptions
	keys    uploadKeyMap
	spinner spinner.Model
	log     *slog.Logger
	width   int
	height  int
}

var _ Screen = (*UploadScreen)(nil)

// NewUploadScreen returns an idle screen with an empty selection.
func NewUploadScreen(opts UploadOptions) *UploadScreen {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Static{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{upload.DICOMExtension}
	}
	s := &UploadScreen{
		Machine:   upload.NewMachine(opts.Machine),
		Selection: upload.NewSelection(opts.Extensions...),
		Figures:   catalog.DefaultFigures(),
		opts:      opts,
		keys:      newUploadKeyMap(),
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent))),
		),
		log: opts.Logger.With("screen", "upload"),
	}
	s.Machine.OnTransition = s.onTransition
	return s
}

func (s *UploadScreen) onTransition(tr upload.Transition) {
	if s.opts.Recorder != nil {
		s.opts.Recorder.Observe(tr)
	}
	s.emit(progress.ForTransition(tr))
	s.log.Info("pipeline stage", "run", tr.RunID, "from", tr.From, "to", tr.To)
}

func (s *UploadScreen) emit(ev progress.Event) {
	if s.opts.Emit != nil {
		s.opts.Emit(ev)
	}
}

// Init implements View.
func (s *UploadScreen) Init() tea.Cmd {
	return loadFigures(s.opts.Catalog)
}

// Update implements View.
func (s *UploadScreen) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width, s.height = msg.Width, msg.Height
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, s.keys.Choose):
			return s, func() tea.Msg { return ShowFileChooserMsg{} }
		case key.Matches(msg, s.keys.Upload):
			return s, s.trigger()
		case key.Matches(msg, s.keys.View):
			return s, func() tea.Msg { return NavigateMsg{Route: RouteRender} }
		}
		return s, nil

	case FileChosenMsg:
		s.choose(msg.Path)
		return s, nil

	case upload.ElapsedMsg:
		if next, ok := s.Machine.Elapsed(msg); ok {
			return s, schedule(next)
		}
		return s, nil

	case spinner.TickMsg:
		// Let the tick chain end once the run is over.
		if !s.Machine.State().Busy() {
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case figuresLoadedMsg:
		if msg.Err != nil {
			s.Notice = "Could not load pipeline figures: " + msg.Err.Error()
			s.log.Warn("load figures", "err", msg.Err)
			return s, nil
		}
		s.Figures = msg.Figures
		return s, nil

	case CatalogChangedMsg:
		return s, loadFigures(s.opts.Catalog)
	}
	return s, nil
}

// trigger starts a run unless one is in flight.
func (s *UploadScreen) trigger() tea.Cmd {
	if s.opts.Recorder != nil && !s.Machine.State().Busy() {
		s.opts.Recorder.SetFileCount(s.Selection.Len())
	}
	step, ok := s.Machine.Trigger()
	if !ok {
		s.log.Debug("trigger ignored", "phase", s.Machine.Phase())
		return nil
	}
	s.Notice = ""
	s.log.Info("upload triggered", "run", step.RunID, "files", s.Selection.Len())
	return tea.Batch(schedule(step), s.spinner.Tick)
}

// choose adds a picked file to the selection. Contents are never read.
func (s *UploadScreen) choose(path string) {
	if err := s.Selection.Add(path); err != nil {
		s.Notice = err.Error()
		s.log.Warn("file rejected", "path", path, "err", err)
		return
	}
	s.Notice = ""
	s.log.Info("files selected", "count", s.Selection.Len(), "path", path)
}

// schedule delivers the step's ElapsedMsg once its delay has passed.
func schedule(step upload.Step) tea.Cmd {
	return tea.Tick(step.After, func(time.Time) tea.Msg { return step.Msg() })
}

func loadFigures(p catalog.Provider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		figs, err := p.Figures(ctx)
		return figuresLoadedMsg{Figures: figs, Err: err}
	}
}

// Unmount implements Screen. A run in flight is abandoned; its timers are
// ignored when they fire.
func (s *UploadScreen) Unmount() {
	if phase := s.Machine.Phase(); phase != upload.PhaseIdle {
		runID, at := s.Machine.RunID(), s.opts.Now()
		if s.opts.Recorder != nil {
			s.opts.Recorder.Abandon(runID, at)
		}
		s.emit(progress.Aborted(runID, phase, at))
		s.log.Info("run abandoned", "run", runID, "phase", phase)
	}
	s.Machine.Cancel()
}

// TriggerLabel is the text of the upload button in the current phase.
func (s *UploadScreen) TriggerLabel() string {
	switch s.Machine.Phase() {
	case upload.PhaseUploading:
		return LabelUploading
	case upload.PhaseProcessing:
		return LabelProcessing
	default:
		return LabelUpload
	}
}

// View implements View.
func (s *UploadScreen) View() string {
	width := s.width
	if width <= 0 {
		width = 100
	}
	twoColumns := width >= 96
	leftW := width
	if twoColumns {
		leftW = width/2 - 1
	}

	left := s.renderControls(leftW)
	if !twoColumns {
		return lipgloss.JoinVertical(lipgloss.Left, left, renderFigures(s.Figures, min(width, 60)))
	}
	right := renderFigures(s.Figures, width-leftW-2)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

func (s *UploadScreen) renderControls(width int) string {
	inner := width - 4
	var b strings.Builder
	b.WriteString(Styles.Title.Render("Upload CT Scan Images"))
	b.WriteString("\n\n")

	b.WriteString(button("Choose DICOM Files", false, false))
	b.WriteString("  ")
	b.WriteString(Styles.Muted.Render(textutil.Truncate(s.Selection.Label(), max(8, inner-24))))
	b.WriteString("\n\n")

	busy := s.Machine.State().Busy()
	label := s.TriggerLabel()
	if busy {
		label = s.spinner.View() + " " + label
	}
	b.WriteString(button(label, true, busy))
	b.WriteString("\n\n")
	b.WriteString(button("View 3D Render", false, false))
	b.WriteString("\n")

	if s.Notice != "" {
		b.WriteString("\n")
		b.WriteString(Styles.Error.Render(textutil.Wrap(s.Notice, inner)))
		b.WriteString("\n")
	}

	info := Styles.Normal.Render("Using ML-enhanced CT reconstruction to:") + "\n" +
		Styles.Muted.Render(textutil.Bullets(uploadBenefits, inner-4))
	b.WriteString("\n")
	b.WriteString(Styles.BoxCompact.Width(inner).Render(info))
	b.WriteString("\n\n")
	b.WriteString(renderFooter(s.keys.bindings(), inner))

	return Styles.Box.Width(width - 2).Render(b.String())
}
