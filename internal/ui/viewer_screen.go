package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	progressbar "github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"neuralscan/internal/catalog"
	"neuralscan/internal/logging"
	"neuralscan/internal/render"
	"neuralscan/internal/ui/textutil"
)

// ViewMode is what the viewer's main area shows.
type ViewMode int

const (
	ViewModel3D ViewMode = iota
	ViewSlices
)

func (m ViewMode) String() string {
	switch m {
	case ViewModel3D:
		return "3D Model"
	case ViewSlices:
		return "CT Slices"
	default:
		return "Unknown"
	}
}

// RenderQuality is the fixed value of the Rendering Quality bar.
const RenderQuality = 0.8

const (
	sidePanelWidth = 34
	titleRows      = 2 // title and toggle line plus a blank line
	qualityRows    = 5 // bordered quality panel
	keyRotateStep  = math.Pi / 30
	keyPanPixels   = 8
)

var renderSettingsPoints = []string{
	"Higher resolution between slices",
	"Smoother surfaces from AI enhancement",
	"Improved detail with less radiation exposure",
}

const (
	modelControlsText  = "Click and drag to rotate the model. Use scroll to zoom in and out."
	renderSettingsText = "This view represents an enhanced 3D model created from CT scan data with neural network-processed interpolation."
	slicesCaption      = "These slices show the original and enhanced CT scan data. Our AI processing improves the resolution and detail between slices, reducing the need for additional radiation exposure."
	qualityHint        = "Enhance model quality by uploading more DICOM slices"
)

// ViewerOptions configures a ViewerScreen.
type ViewerOptions struct {
	// NewSession builds a render session of width x height pixels. Defaults
	// to render.NewSession with Scene.
	NewSession    func(width, height int) (*render.Session, error)
	Scene         render.Config
	FrameInterval time.Duration
	Profile       termenv.Profile
	Catalog       catalog.Provider
	Logger        *slog.Logger
}

type viewerKeyMap struct {
	Toggle  key.Binding
	Model   key.Binding
	Slices  key.Binding
	Back    key.Binding
	Rotate  key.Binding
	Pan     key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
}

func newViewerKeyMap() viewerKeyMap {
	return viewerKeyMap{
		Toggle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "toggle view")),
		Model:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "3D model")),
		Slices:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "CT slices")),
		Back:    key.NewBinding(key.WithKeys("b", "esc"), key.WithHelp("b", "back to upload")),
		Rotate:  key.NewBinding(key.WithKeys("left", "right", "up", "down", "h", "j", "k", "l"), key.WithHelp("←↑↓→", "rotate")),
		Pan:     key.NewBinding(key.WithKeys("shift+left", "shift+right", "shift+up", "shift+down"), key.WithHelp("shift+←↑↓→", "pan")),
		ZoomIn:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut: key.NewBinding(key.WithKeys("-")),
	}
}

func (k viewerKeyMap) bindings(mode ViewMode) []key.Binding {
	if mode == ViewSlices {
		return []key.Binding{k.Toggle, k.Model, k.Back}
	}
	return []key.Binding{k.Toggle, k.Slices, k.Rotate, k.Pan, k.ZoomIn, k.Back}
}

type dragState struct {
	active bool
	pan    bool
	x, y   int
}

// ViewerScreen shows the rendered placeholder model or the CT slice gallery.
// It owns at most one render session at a time: the session exists only
// while the model view is shown.
type ViewerScreen struct {
	Mode   ViewMode
	Slices []catalog.Slice

	opts     ViewerOptions
	keys     viewerKeyMap
	session  *render.Session
	encoder  *render.Encoder
	quality  progressbar.Model
	frame    string
	err      error
	notice   string
	drag     dragState
	log      *slog.Logger
	sized    bool
	width    int
	height   int
	mainX    int // main area origin, in cells relative to the screen
	mainY    int
	cols     int // render area size in cells
	rows     int
	sidebar  bool
}

var _ Screen = (*ViewerScreen)(nil)

// NewViewerScreen returns a viewer in model mode. The session is created
// once the first window size arrives.
func NewViewerScreen(opts ViewerOptions) *ViewerScreen {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Static{}
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = time.Second / 30
	}
	if opts.NewSession == nil {
		scene := opts.Scene
		if scene.Logger == nil {
			scene.Logger = opts.Logger
		}
		opts.NewSession = func(w, h int) (*render.Session, error) {
			return render.NewSession(scene, w, h)
		}
	}
	return &ViewerScreen{
		Mode:    ViewModel3D,
		Slices:  catalog.DefaultSlices(),
		opts:    opts,
		keys:    newViewerKeyMap(),
		encoder: render.NewEncoder(opts.Profile),
		quality: progressbar.New(
			progressbar.WithGradient(ColorHighlight, ColorAccent),
			progressbar.WithoutPercentage(),
		),
		log: opts.Logger.With("screen", "render"),
	}
}

// Session returns the active render session, or nil in slices mode.
func (s *ViewerScreen) Session() *render.Session {
	return s.session
}

// Err returns the error of the last failed session start.
func (s *ViewerScreen) Err() error {
	return s.err
}

// Init implements View.
func (s *ViewerScreen) Init() tea.Cmd {
	return loadSlices(s.opts.Catalog)
}

// Update implements View.
func (s *ViewerScreen) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.layout(msg.Width, msg.Height)
		if s.session != nil {
			if s.cols <= 0 || s.rows <= 0 {
				// Too small to draw into; rebuilt once a usable size returns.
				s.disposeSession()
				s.err = fmt.Errorf("resize render area to %dx%d: %w", s.cols, s.rows*2, render.ErrSurfaceUnavailable)
				s.log.Warn("render session suspended", "cols", s.cols, "rows", s.rows)
				return s, nil
			}
			s.session.Resize(s.cols, s.rows*2)
			return s, nil
		}
		return s, s.ensureSession()

	case frameMsg:
		// Frames of a disposed session stop here, ending its tick chain.
		if s.session == nil || msg.SessionID != s.session.ID() {
			return s, nil
		}
		if !s.session.Step() {
			return s, nil
		}
		s.frame = s.encoder.Encode(s.session.Surface())
		return s, s.nextFrame(msg.SessionID)

	case tea.KeyMsg:
		return s, s.handleKey(msg)

	case tea.MouseMsg:
		s.handleMouse(msg)
		return s, nil

	case slicesLoadedMsg:
		if msg.Err != nil {
			s.notice = "Could not load slices: " + msg.Err.Error()
			s.log.Warn("load slices", "err", msg.Err)
			return s, nil
		}
		s.notice = ""
		s.Slices = msg.Slices
		return s, nil

	case CatalogChangedMsg:
		return s, loadSlices(s.opts.Catalog)
	}
	return s, nil
}

func (s *ViewerScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, s.keys.Toggle):
		if s.Mode == ViewModel3D {
			return s.SetMode(ViewSlices)
		}
		return s.SetMode(ViewModel3D)
	case key.Matches(msg, s.keys.Model):
		return s.SetMode(ViewModel3D)
	case key.Matches(msg, s.keys.Slices):
		return s.SetMode(ViewSlices)
	case key.Matches(msg, s.keys.Back):
		return func() tea.Msg { return NavigateMsg{Route: RouteUpload} }
	}

	if s.session == nil {
		return nil
	}
	c := s.session.Controls()
	_, h := s.session.Surface().Size()
	switch msg.String() {
	case "left", "h":
		c.RotateLeft(keyRotateStep)
	case "right", "l":
		c.RotateLeft(-keyRotateStep)
	case "up", "k":
		c.RotateUp(keyRotateStep)
	case "down", "j":
		c.RotateUp(-keyRotateStep)
	case "shift+left":
		c.Pan(keyPanPixels, 0, h)
	case "shift+right":
		c.Pan(-keyPanPixels, 0, h)
	case "shift+up":
		c.Pan(0, keyPanPixels, h)
	case "shift+down":
		c.Pan(0, -keyPanPixels, h)
	case "+", "=":
		c.ZoomIn()
	case "-":
		c.ZoomOut()
	}
	return nil
}

// handleMouse maps drags and the wheel inside the render area onto the
// orbit controls. Left drag rotates; shift+drag or a right/middle drag pans.
func (s *ViewerScreen) handleMouse(m tea.MouseMsg) {
	if s.session == nil {
		return
	}
	c := s.session.Controls()
	switch m.Button {
	case tea.MouseButtonWheelUp:
		if s.inRenderArea(m.X, m.Y) {
			c.ZoomIn()
		}
		return
	case tea.MouseButtonWheelDown:
		if s.inRenderArea(m.X, m.Y) {
			c.ZoomOut()
		}
		return
	}

	switch m.Action {
	case tea.MouseActionPress:
		if s.inRenderArea(m.X, m.Y) {
			s.drag = dragState{
				active: true,
				pan:    m.Shift || m.Button != tea.MouseButtonLeft,
				x:      m.X,
				y:      m.Y,
			}
		}
	case tea.MouseActionMotion:
		if !s.drag.active {
			return
		}
		// One cell is one pixel wide and two pixels tall.
		dx := float64(m.X - s.drag.x)
		dy := float64(2 * (m.Y - s.drag.y))
		_, h := s.session.Surface().Size()
		if s.drag.pan {
			c.Pan(dx, dy, h)
		} else {
			c.RotateByPixels(dx, dy, h)
		}
		s.drag.x, s.drag.y = m.X, m.Y
	case tea.MouseActionRelease:
		s.drag = dragState{}
	}
}

func (s *ViewerScreen) inRenderArea(x, y int) bool {
	return x >= s.mainX && x < s.mainX+s.cols && y >= s.mainY && y < s.mainY+s.rows
}

// SetMode switches the main area. Leaving the model view disposes the
// session; entering it starts a new one.
func (s *ViewerScreen) SetMode(mode ViewMode) tea.Cmd {
	if mode == s.Mode {
		return nil
	}
	s.Mode = mode
	s.log.Debug("view toggled", "mode", mode)
	if mode == ViewSlices {
		s.disposeSession()
		return nil
	}
	return s.ensureSession()
}

// ensureSession starts a session when the model view is shown and the
// container size is known. The first frame is requested immediately.
func (s *ViewerScreen) ensureSession() tea.Cmd {
	if s.Mode != ViewModel3D || s.session != nil || !s.sized {
		return nil
	}
	sess, err := s.opts.NewSession(s.cols, s.rows*2)
	if err != nil {
		s.err = err
		s.log.Error("start render session", "err", err, "cols", s.cols, "rows", s.rows)
		return nil
	}
	s.err = nil
	s.session = sess
	s.frame = ""
	id := sess.ID()
	return func() tea.Msg { return frameMsg{SessionID: id} }
}

func (s *ViewerScreen) nextFrame(id uint64) tea.Cmd {
	return tea.Tick(s.opts.FrameInterval, func(time.Time) tea.Msg { return frameMsg{SessionID: id} })
}

func (s *ViewerScreen) disposeSession() {
	if s.session == nil {
		return
	}
	s.session.Dispose()
	s.session = nil
	s.frame = ""
	s.drag = dragState{}
}

// Unmount implements Screen.
func (s *ViewerScreen) Unmount() {
	s.disposeSession()
}

func loadSlices(p catalog.Provider) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), catalogTimeout)
		defer cancel()
		slices, err := p.Slices(ctx)
		return slicesLoadedMsg{Slices: slices, Err: err}
	}
}

// layout derives the render area from the screen size.
func (s *ViewerScreen) layout(width, height int) {
	s.width, s.height = width, height
	s.sized = true
	s.sidebar = width >= 70
	mainW := width
	s.mainX = 1 // left border
	if s.sidebar {
		mainW = width - sidePanelWidth - 1
		s.mainX = sidePanelWidth + 1 + 1
	}
	s.cols = mainW - 4 // border and padding
	s.mainX++           // padding
	s.mainY = titleRows + 1
	s.rows = height - titleRows - qualityRows - 2 - 1 // main border, footer
	s.quality.Width = max(10, mainW-6)
}

// View implements View.
func (s *ViewerScreen) View() string {
	width := s.width
	if width <= 0 {
		width = 100
	}
	title := Styles.Title.Render("3D CT Scan Rendering") + "  " + s.renderToggle()

	mainW := width
	if s.sidebar {
		mainW = width - sidePanelWidth - 1
	}
	main := lipgloss.JoinVertical(lipgloss.Left, s.renderMain(mainW), s.renderQuality(mainW))
	body := main
	if s.sidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, s.renderSidebar(), " ", main)
	}
	footer := renderFooter(s.keys.bindings(s.Mode), width)
	return title + "\n\n" + body + "\n" + footer
}

func (s *ViewerScreen) renderToggle() string {
	var parts []string
	for _, m := range []ViewMode{ViewModel3D, ViewSlices} {
		if m == s.Mode {
			parts = append(parts, Styles.NavActive.Render(m.String()))
		} else {
			parts = append(parts, Styles.NavItem.Render(m.String()))
		}
	}
	return strings.Join(parts, " ")
}

func (s *ViewerScreen) renderMain(width int) string {
	inner := max(10, width-4)
	var content string
	switch {
	case s.Mode == ViewSlices:
		content = s.renderGallery(inner)
	case s.err != nil:
		content = Styles.TitleWarning.Render("Graphics context unavailable") + "\n" +
			Styles.Error.Render(textutil.Wrap(s.err.Error(), inner))
		if errors.Is(s.err, render.ErrSurfaceUnavailable) {
			content += "\n" + Styles.Hint.Render("Enlarge the terminal to retry.")
		}
	case s.frame == "":
		content = Styles.Muted.Render("Initializing renderer…")
	default:
		content = s.frame
	}
	box := Styles.Box.Width(width - 2)
	if s.rows > 0 && s.Mode == ViewModel3D {
		box = box.Height(s.rows)
	}
	return box.Render(content)
}

func (s *ViewerScreen) renderGallery(width int) string {
	var b strings.Builder
	b.WriteString(Styles.Heading.Render("CT Scan Slices"))
	b.WriteString("\n\n")
	if s.notice != "" {
		b.WriteString(Styles.Error.Render(textutil.Wrap(s.notice, width)))
		b.WriteString("\n\n")
	}

	perRow := 2
	if width >= 96 {
		perRow = 4
	}
	cardW := max(12, width/perRow-1)
	var rows []string
	var row []string
	for i, sl := range s.Slices {
		row = append(row, renderSliceCard(sl, cardW))
		if len(row) == perRow || i == len(s.Slices)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")
	b.WriteString(Styles.Muted.Render(textutil.Wrap(slicesCaption, width)))
	return b.String()
}

func renderSliceCard(sl catalog.Slice, width int) string {
	inner := width - 4
	thumb := lipgloss.PlaceHorizontal(inner, lipgloss.Center, Styles.Muted.Render("▒▒▓▓██▓▓▒▒"))
	src := Styles.Hint.Render(textutil.Truncate(sl.Src, inner))
	label := Styles.Caption.Width(inner).Render(textutil.Truncate(sl.Label, inner))
	return Styles.BoxCompact.Width(width - 2).Render(thumb + "\n" + src + "\n" + label)
}

func (s *ViewerScreen) renderQuality(width int) string {
	inner := max(10, width-4)
	head := Styles.Heading.Render("Rendering Quality")
	level := Styles.Accent.Render("High")
	gap := max(1, inner-lipgloss.Width(head)-lipgloss.Width(level))
	content := head + strings.Repeat(" ", gap) + level + "\n" +
		s.quality.ViewAs(RenderQuality) + "\n" +
		Styles.Hint.Render(textutil.Truncate(qualityHint, inner))
	return Styles.BoxCompact.Width(width - 2).Render(content)
}

func (s *ViewerScreen) renderSidebar() string {
	inner := sidePanelWidth - 4
	chip := func(k, desc string) string {
		return Styles.Chip.Render(textutil.PadRightVisual(k, 10)) + " " + Styles.Accent.Render(desc)
	}
	controls := Styles.Heading.Render("Model Controls") + "\n" +
		Styles.Muted.Render(textutil.Wrap(modelControlsText, inner)) + "\n\n" +
		chip("Drag", "Rotate") + "\n" +
		chip("Scroll", "Zoom") + "\n" +
		chip("Shift+Drag", "Pan")

	settings := Styles.Heading.Render("Render Settings") + "\n" +
		Styles.Muted.Render(textutil.Wrap(renderSettingsText, inner)) + "\n\n" +
		Styles.Normal.Render(textutil.Bullets(renderSettingsPoints, inner))

	status := Styles.Hint.Render("session: none")
	if s.session != nil {
		w, h := s.session.Surface().Size()
		status = Styles.Hint.Render(fmt.Sprintf("session %d · %dx%d px · %s", s.session.ID(), w, h, s.session.State()))
	}

	panel := func(content string) string {
		return Styles.Box.Width(sidePanelWidth - 2).Render(content)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		panel(controls),
		panel(settings),
		panel(button("← Back to Upload", false, false)+"\n"+status),
	)
}
