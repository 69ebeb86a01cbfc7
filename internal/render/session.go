// Package render is a small software renderer for the 3D viewer: a perspective
// camera, orbit controls, a deformed-sphere placeholder mesh with a wireframe
// overlay, and a rasteriser that draws into a colour and depth surface which
// can be encoded as terminal half blocks.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// SessionState is the lifecycle of a viewer session.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionActive
	SessionDisposed
)

func (s SessionState) String() string {
	switch s {
	case SessionUninitialized:
		return "uninitialized"
	case SessionActive:
		return "active"
	case SessionDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Config describes the scene a session builds.
type Config struct {
	Background Color
	MeshColor  Color
	WireColor  Color
	Opacity    float64
	Shininess  float64

	Radius   float64
	Segments int

	Fov      float64
	Distance float64

	AutoRotate    bool
	RotationSpeed float64 // radians per frame
	DampingFactor float64

	// Rand drives the mesh deformation. Nil means a time-seeded source.
	Rand RandSource

	Logger *slog.Logger
}

// DefaultConfig returns the viewer's standard scene.
func DefaultConfig() Config {
	return Config{
		Background:    Hex(0x1A1F2C),
		MeshColor:     Hex(0xA456F0),
		WireColor:     Hex(0xE5E5E7),
		Opacity:       0.7,
		Shininess:     50,
		Radius:        2,
		Segments:      32,
		Fov:           DefaultFov,
		Distance:      DefaultDistance,
		AutoRotate:    true,
		RotationSpeed: 0.001,
		DampingFactor: 0.05,
	}
}

// SeededRand returns a deterministic source for seed, or a time-seeded one
// for seed 0.
func SeededRand(seed uint64) RandSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var sessionSeq atomic.Uint64

// Session owns every graphics resource of one viewer instance. It is driven
// from a single goroutine, but Running may be read from anywhere.
type Session struct {
	id    uint64
	state SessionState
	run   atomic.Bool

	scene     *Scene
	camera    *PerspectiveCamera
	controls  *OrbitControls
	surface   *Surface
	mesh      *Mesh
	wireframe *LineSegments

	autoRotate    bool
	rotationSpeed float64

	resizeHook    bool
	pendingW      int
	pendingH      int
	resizePending bool

	log *slog.Logger
}

// NewSession builds the scene and a width x height surface and starts the
// session. It fails with ErrSurfaceUnavailable for an empty container.
func NewSession(cfg Config, width, height int) (*Session, error) {
	surface, err := NewSurface(width, height)
	if err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}
	if cfg.Segments <= 0 {
		cfg.Segments = 32
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 2
	}
	if cfg.Fov <= 0 {
		cfg.Fov = DefaultFov
	}
	if cfg.Distance <= 0 {
		cfg.Distance = DefaultDistance
	}
	if cfg.Rand == nil {
		cfg.Rand = SeededRand(0)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	scene := &Scene{Background: cfg.Background}

	camera := NewPerspectiveCamera(cfg.Fov, float64(width)/float64(height), DefaultNear, DefaultFar)
	camera.Position = mgl64.Vec3{0, 0, cfg.Distance}

	surface.Attach()

	controls := NewOrbitControls(camera)
	controls.EnableDamping = true
	controls.DampingFactor = cfg.DampingFactor

	scene.Ambient = append(scene.Ambient, AmbientLight{Color: Hex(0x404040), Intensity: 1})
	scene.Directional = append(scene.Directional, DirectionalLight{
		Color:     Hex(0xFFFFFF),
		Intensity: 1,
		Position:  mgl64.Vec3{1, 1, 1},
	})

	geometry := NewSphereGeometry(cfg.Radius, cfg.Segments, cfg.Segments)
	geometry.Deform(cfg.Rand)
	mesh := &Mesh{
		Geometry: geometry,
		Material: PhongMaterial{
			Color:     cfg.MeshColor,
			Specular:  Hex(0x111111),
			Shininess: cfg.Shininess,
			Opacity:   cfg.Opacity,
		},
	}
	scene.Add(mesh)

	wireframe := &LineSegments{
		Geometry: NewWireframeGeometry(geometry),
		Material: LineMaterial{Color: cfg.WireColor},
	}
	mesh.Add(wireframe)

	s := &Session{
		id:            sessionSeq.Add(1),
		state:         SessionActive,
		scene:         scene,
		camera:        camera,
		controls:      controls,
		surface:       surface,
		mesh:          mesh,
		wireframe:     wireframe,
		autoRotate:    cfg.AutoRotate,
		rotationSpeed: cfg.RotationSpeed,
		resizeHook:    true,
		log:           log,
	}
	s.run.Store(true)
	log.Debug("render session started",
		"session", s.id,
		"width", width,
		"height", height,
		"triangles", geometry.Triangles(),
		"edges", len(wireframe.Geometry.Segments))
	return s, nil
}

// ID identifies the session. IDs are unique within the process.
func (s *Session) ID() uint64 { return s.id }

// State returns the lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Running reports whether frames are still being produced.
func (s *Session) Running() bool { return s.run.Load() }

func (s *Session) Camera() *PerspectiveCamera { return s.camera }
func (s *Session) Controls() *OrbitControls   { return s.controls }
func (s *Session) Surface() *Surface          { return s.surface }
func (s *Session) Mesh() *Mesh                { return s.mesh }
func (s *Session) Wireframe() *LineSegments   { return s.wireframe }
func (s *Session) Scene() *Scene              { return s.scene }

// SetAutoRotate turns the idle spin on or off.
func (s *Session) SetAutoRotate(on bool) { s.autoRotate = on }

// AutoRotate reports whether the idle spin is on.
func (s *Session) AutoRotate() bool { return s.autoRotate }

// Resize records a new container size. It takes effect on the next Step.
// Non-positive sizes are ignored.
func (s *Session) Resize(width, height int) {
	if !s.resizeHook || width <= 0 || height <= 0 {
		return
	}
	s.pendingW, s.pendingH = width, height
	s.resizePending = true
}

func (s *Session) applyResize() {
	if !s.resizePending {
		return
	}
	s.resizePending = false
	if err := s.surface.SetSize(s.pendingW, s.pendingH); err != nil {
		s.log.Warn("resize surface", "session", s.id, "error", err)
		return
	}
	s.camera.Aspect = float64(s.pendingW) / float64(s.pendingH)
	s.camera.UpdateProjectionMatrix()
}

// Step advances one display frame and renders it. It returns false, doing
// nothing, once the session has stopped; the caller should then stop
// scheduling frames.
func (s *Session) Step() bool {
	if !s.run.Load() {
		return false
	}
	s.applyResize()
	if s.autoRotate {
		s.mesh.Rotation[1] += s.rotationSpeed
	}
	s.controls.Update()
	if err := s.surface.Render(s.scene, s.camera); err != nil {
		s.log.Warn("render frame", "session", s.id, "error", err)
		return false
	}
	return true
}

// Dispose stops the session and releases its resources. The run flag is
// cleared before anything is released. Safe to call more than once.
func (s *Session) Dispose() {
	s.run.Store(false)
	if s.state != SessionActive {
		return
	}
	s.state = SessionDisposed

	s.surface.Detach()
	s.surface.Dispose()
	s.resizeHook = false
	s.resizePending = false

	s.mesh.Remove(s.wireframe)
	s.wireframe.Geometry.Dispose()
	s.mesh.Geometry.Dispose()
	s.controls.Dispose()
	s.scene.Clear()

	s.log.Debug("render session disposed", "session", s.id)
}
