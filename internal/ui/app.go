package ui

import (
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"neuralscan/internal/catalog"
	"neuralscan/internal/logging"
	"neuralscan/internal/progress"
	"neuralscan/internal/render"
	"neuralscan/internal/trace"
	"neuralscan/internal/upload"
)

// headerRows is the navigation header plus the blank line below it.
const headerRows = 2

const eventBuffer = 64

// Options wires the application to its collaborators.
type Options struct {
	StartRoute    Route
	Upload        upload.Config
	Extensions    []string
	Scene         render.Config
	FrameInterval time.Duration
	Profile       termenv.Profile
	Catalog       catalog.Provider
	Watcher       *catalog.Watcher        // optional; owned by the caller
	Recorder      *trace.PipelineRecorder // optional
	StartDir      string                  // file chooser start directory
	Logger        *slog.Logger
	Now           func() time.Time

	// NewSession overrides how the viewer builds render sessions.
	NewSession func(width, height int) (*render.Session, error)
}

// AppModel is the root model: a two-route shell with a header, a leader
// key system and an overlay stack. Exactly one screen is mounted.
type AppModel struct {
	Route       Route
	Upload      *UploadScreen
	Viewer      *ViewerScreen
	KeyHandler  *KeyHandler
	Overlays    OverlayStack
	PipelineLog *PipelineLog

	opts    Options
	log     *slog.Logger
	events  chan progress.Event
	emitter *progress.ChanEmitter
	size    tea.WindowSizeMsg
	sized   bool
}

var _ tea.Model = (*appModelAdapter)(nil)

// appModelAdapter wraps AppModel to implement tea.Model.
type appModelAdapter struct {
	*AppModel
}

// NewAppModel creates the root model with opts.StartRoute mounted.
func NewAppModel(opts Options) *AppModel {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Static{}
	}
	if opts.StartDir == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.StartDir = wd
		}
	}
	events := make(chan progress.Event, eventBuffer)
	var traces *trace.Manager
	if opts.Recorder != nil {
		traces = opts.Recorder.Manager()
	}
	a := &AppModel{
		KeyHandler:  NewKeyHandler(newRegistry()),
		PipelineLog: NewPipelineLog(traces),
		opts:        opts,
		log:         opts.Logger,
		events:      events,
		emitter:     &progress.ChanEmitter{Ch: events},
	}
	a.mount(opts.StartRoute)
	return a
}

func newRegistry() *KeybindRegistry {
	reg := NewKeybindRegistry()
	reg.BindWithDesc("q", tea.Quit, "Quit")
	reg.BindWithDesc("ctrl+c", tea.Quit, "Quit")
	reg.BindWithDesc("SPC q", tea.Quit, "Quit")
	reg.BindWithDesc("SPC g u", func() tea.Msg { return NavigateMsg{Route: RouteUpload} }, "Upload")
	reg.BindWithDesc("SPC g r", func() tea.Msg { return NavigateMsg{Route: RouteRender} }, "3D Render")
	reg.BindWithDesc("SPC l", func() tea.Msg { return ShowPipelineLogMsg{} }, "Pipeline log")
	reg.BindForRoutes("SPC o", func() tea.Msg { return ShowFileChooserMsg{} }, "Choose files", []Route{RouteUpload})
	return reg
}

// Emitter returns the sink for events produced off the UI goroutine, such
// as trace export failures. Events appear in the pipeline log.
func (m *AppModel) Emitter() *progress.ChanEmitter {
	return m.emitter
}

// AsTeaModel returns a tea.Model adapter for use with tea.NewProgram.
func (m *AppModel) AsTeaModel() tea.Model {
	return &appModelAdapter{AppModel: m}
}

// Screen returns the mounted screen.
func (m *AppModel) Screen() Screen {
	switch m.Route {
	case RouteRender:
		if m.Viewer != nil {
			return m.Viewer
		}
	default:
		if m.Upload != nil {
			return m.Upload
		}
	}
	return nil
}

// mount unmounts the current screen and mounts a fresh instance of r.
// The returned cmd starts the new screen.
func (m *AppModel) mount(r Route) tea.Cmd {
	if cur := m.Screen(); cur != nil {
		cur.Unmount()
		m.log.Debug("screen unmounted", "route", m.Route.Path())
	}
	m.Upload, m.Viewer = nil, nil
	m.Route = r

	var screen Screen
	switch r {
	case RouteRender:
		m.Viewer = NewViewerScreen(ViewerOptions{
			NewSession:    m.opts.NewSession,
			Scene:         m.opts.Scene,
			FrameInterval: m.opts.FrameInterval,
			Profile:       m.opts.Profile,
			Catalog:       m.opts.Catalog,
			Logger:        m.log,
		})
		screen = m.Viewer
	default:
		m.Upload = NewUploadScreen(UploadOptions{
			Machine:    m.opts.Upload,
			Extensions: m.opts.Extensions,
			Catalog:    m.opts.Catalog,
			Recorder:   m.opts.Recorder,
			Emit:       m.emitter.Emit,
			Logger:     m.log,
			Now:        m.opts.Now,
		})
		screen = m.Upload
	}
	m.log.Info("screen mounted", "route", r.Path())

	cmds := []tea.Cmd{screen.Init()}
	if m.sized {
		// New screens learn the container size without waiting for a resize.
		cmds = append(cmds, m.updateScreen(m.screenSize()))
	}
	return tea.Batch(cmds...)
}

// screenSize is the window minus the header.
func (m *AppModel) screenSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.size.Width, Height: max(0, m.size.Height-headerRows)}
}

func (m *AppModel) updateScreen(msg tea.Msg) tea.Cmd {
	screen := m.Screen()
	if screen == nil {
		return nil
	}
	v, cmd := screen.Update(msg)
	switch s := v.(type) {
	case *UploadScreen:
		m.Upload = s
	case *ViewerScreen:
		m.Viewer = s
	}
	return cmd
}

// waitForEvent delivers the next pipeline event.
func waitForEvent(ch <-chan progress.Event) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// waitForCatalog delivers the next catalog change. A closed watcher ends
// the chain.
func waitForCatalog(w *catalog.Watcher) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-w.Changes(); !ok {
			return nil
		}
		return CatalogChangedMsg{}
	}
}

// Init implements tea.Model.
func (a *appModelAdapter) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(a.events)}
	if s := a.Screen(); s != nil {
		cmds = append(cmds, s.Init())
	}
	if a.opts.Watcher != nil {
		cmds = append(cmds, waitForCatalog(a.opts.Watcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (a *appModelAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.size, a.sized = msg, true
		return a, tea.Batch(a.updateScreen(a.screenSize()), a.Overlays.UpdateAll(msg), a.resizeLog(msg))

	case NavigateMsg:
		if msg.Route == a.Route {
			return a, nil
		}
		a.Overlays = OverlayStack{}
		return a, a.mount(msg.Route)

	case progress.Event:
		a.PipelineLog.Append(msg)
		return a, waitForEvent(a.events)

	case CatalogChangedMsg:
		if a.opts.Watcher == nil {
			return a, a.updateScreen(msg)
		}
		a.log.Info("catalog changed", "path", a.opts.Watcher.Path())
		return a, tea.Batch(a.updateScreen(msg), waitForCatalog(a.opts.Watcher))

	case ShowPipelineLogMsg:
		if top, ok := a.Overlays.Peek(); ok && top.View == View(a.PipelineLog) {
			return a, nil
		}
		a.Overlays.Push(Overlay{View: a.PipelineLog, Dismiss: "esc"})
		return a, a.PipelineLog.Init()

	case ShowFileChooserMsg:
		if a.Route != RouteUpload {
			return a, nil
		}
		fc := NewFileChooser(a.opts.StartDir, a.opts.Extensions)
		a.Overlays.Push(Overlay{View: fc, Dismiss: "esc"})
		var cmds []tea.Cmd
		cmds = append(cmds, fc.Init())
		if a.sized {
			_, cmd := fc.Update(a.size)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case DismissModalMsg:
		a.Overlays.Pop()
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.Overlays.Len() > 0 {
			cmd, _ := a.Overlays.UpdateTop(msg)
			return a, cmd
		}
		if a.KeyHandler != nil {
			if consumed, keyCmd := a.KeyHandler.Handle(msg); consumed {
				return a, keyCmd
			}
		}
		return a, a.updateScreen(msg)

	case tea.MouseMsg:
		if a.Overlays.Len() > 0 {
			return a, nil
		}
		msg.Y -= headerRows
		return a, a.updateScreen(msg)
	}

	// Everything else (timers, spinner and picker messages, loaded data) goes
	// to the top overlay and the screen; each ignores what is not its own.
	var cmds []tea.Cmd
	if cmd, ok := a.Overlays.UpdateTop(msg); ok {
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.updateScreen(msg))
	return a, tea.Batch(cmds...)
}

// resizeLog keeps the log sized while it is closed.
func (a *appModelAdapter) resizeLog(msg tea.WindowSizeMsg) tea.Cmd {
	for _, o := range a.Overlays.Stack {
		if o.View == View(a.PipelineLog) {
			return nil
		}
	}
	_, cmd := a.PipelineLog.Update(msg)
	return cmd
}

// View implements tea.Model.
func (a *appModelAdapter) View() string {
	header := a.renderHeader()
	var body string
	if a.Overlays.Len() > 0 {
		h := 0
		if a.sized {
			h = max(0, a.size.Height-headerRows)
		}
		body = a.Overlays.Render(a.size.Width, h)
	} else if s := a.Screen(); s != nil {
		body = s.View()
	}
	out := header + "\n\n" + body
	if a.KeyHandler != nil && a.KeyHandler.LeaderWaiting {
		out += "\n" + RenderKeybindHelp(a.KeyHandler, a.Route)
	}
	return out
}

// renderHeader draws the brand and the route links, the active one highlighted.
func (a *appModelAdapter) renderHeader() string {
	var links []string
	for _, r := range Routes {
		label := r.String() + " " + r.Path()
		if r == a.Route {
			links = append(links, Styles.NavActive.Render(label))
		} else {
			links = append(links, Styles.NavItem.Render(label))
		}
	}
	left := Styles.Brand.Render("NeuralScan") + strings.Join(links, " ")
	hint := Styles.Hint.Render("SPC menu · q quit")
	if !a.sized {
		return left + "  " + hint
	}
	gap := max(2, a.size.Width-lipgloss.Width(left)-lipgloss.Width(hint))
	return left + strings.Repeat(" ", gap) + hint
}
