package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const controlsEPS = 1e-6

// spherical is a (radius, polar angle phi from +Y, azimuth theta around Y) triple.
type spherical struct {
	radius, phi, theta float64
}

func sphericalFromVec(v mgl64.Vec3) spherical {
	r := v.Len()
	if r == 0 {
		return spherical{}
	}
	return spherical{
		radius: r,
		theta:  math.Atan2(v.X(), v.Z()),
		phi:    math.Acos(mgl64.Clamp(v.Y()/r, -1, 1)),
	}
}

func (s spherical) vec() mgl64.Vec3 {
	sinPhi := math.Sin(s.phi)
	return mgl64.Vec3{
		s.radius * sinPhi * math.Sin(s.theta),
		s.radius * math.Cos(s.phi),
		s.radius * sinPhi * math.Cos(s.theta),
	}
}

// OrbitControls moves a camera around a target point. Input methods only
// accumulate deltas; Update applies them, so it must run once per frame.
// With damping enabled each Update applies DampingFactor of the outstanding
// delta and keeps the rest, which is what makes motion ease out.
type OrbitControls struct {
	Target mgl64.Vec3

	EnableDamping bool
	DampingFactor float64

	RotateSpeed float64
	ZoomSpeed   float64
	PanSpeed    float64

	MinDistance   float64
	MaxDistance   float64
	MinPolarAngle float64
	MaxPolarAngle float64

	camera    *PerspectiveCamera
	delta     spherical
	scale     float64
	panOffset mgl64.Vec3
	disposed  bool
}

// NewOrbitControls binds controls to cam, orbiting the origin.
func NewOrbitControls(cam *PerspectiveCamera) *OrbitControls {
	c := &OrbitControls{
		DampingFactor: 0.05,
		RotateSpeed:   1,
		ZoomSpeed:     1,
		PanSpeed:      1,
		MinDistance:   0,
		MaxDistance:   math.Inf(1),
		MinPolarAngle: 0,
		MaxPolarAngle: math.Pi,
		camera:        cam,
		scale:         1,
	}
	cam.LookAt(c.Target)
	return c
}

// RotateLeft orbits around the vertical axis by angle radians.
func (c *OrbitControls) RotateLeft(angle float64) {
	c.delta.theta -= angle
}

// RotateUp tilts the orbit by angle radians.
func (c *OrbitControls) RotateUp(angle float64) {
	c.delta.phi -= angle
}

// RotateByPixels applies a pointer drag of (dx, dy) pixels over a viewport of
// the given height. A drag across the full height is one full turn.
func (c *OrbitControls) RotateByPixels(dx, dy float64, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	h := float64(viewportHeight)
	c.RotateLeft(2 * math.Pi * dx / h * c.RotateSpeed)
	c.RotateUp(2 * math.Pi * dy / h * c.RotateSpeed)
}

func (c *OrbitControls) zoomScale() float64 {
	return math.Pow(0.95, c.ZoomSpeed)
}

// ZoomIn moves the camera one wheel step towards the target.
func (c *OrbitControls) ZoomIn() {
	c.scale *= c.zoomScale()
}

// ZoomOut moves the camera one wheel step away from the target.
func (c *OrbitControls) ZoomOut() {
	c.scale /= c.zoomScale()
}

// Pan shifts the target by a pointer drag of (dx, dy) pixels, scaled so the
// point under the pointer stays under it at the target's depth.
func (c *OrbitControls) Pan(dx, dy float64, viewportHeight int) {
	if viewportHeight <= 0 {
		return
	}
	offset := c.camera.Position.Sub(c.Target)
	dist := offset.Len() * math.Tan(c.camera.Fov/2*math.Pi/180)
	h := float64(viewportHeight)

	view := c.camera.ViewMatrix()
	// Rows of the view rotation are the camera's right and up axes.
	right := view.Row(0).Vec3()
	up := view.Row(1).Vec3()

	left := right.Mul(-2 * dx * dist / h * c.PanSpeed)
	upward := up.Mul(2 * dy * dist / h * c.PanSpeed)
	c.panOffset = c.panOffset.Add(left).Add(upward)
}

// Update moves the camera by the accumulated input and reports whether it moved.
func (c *OrbitControls) Update() bool {
	if c.disposed {
		return false
	}
	before := c.camera.Position

	s := sphericalFromVec(c.camera.Position.Sub(c.Target))
	if c.EnableDamping {
		s.theta += c.delta.theta * c.DampingFactor
		s.phi += c.delta.phi * c.DampingFactor
	} else {
		s.theta += c.delta.theta
		s.phi += c.delta.phi
	}
	s.phi = mgl64.Clamp(s.phi, math.Max(c.MinPolarAngle, controlsEPS), math.Min(c.MaxPolarAngle, math.Pi-controlsEPS))
	s.radius = mgl64.Clamp(s.radius*c.scale, c.MinDistance, c.MaxDistance)

	if c.EnableDamping {
		c.Target = c.Target.Add(c.panOffset.Mul(c.DampingFactor))
	} else {
		c.Target = c.Target.Add(c.panOffset)
	}

	c.camera.Position = c.Target.Add(s.vec())
	c.camera.LookAt(c.Target)

	if c.EnableDamping {
		c.delta.theta *= 1 - c.DampingFactor
		c.delta.phi *= 1 - c.DampingFactor
		c.panOffset = c.panOffset.Mul(1 - c.DampingFactor)
	} else {
		c.delta = spherical{}
		c.panOffset = mgl64.Vec3{}
	}
	c.scale = 1

	return c.camera.Position.Sub(before).Len() > controlsEPS
}

// Dispose unbinds the controls; later Updates do nothing.
func (c *OrbitControls) Dispose() {
	c.disposed = true
}
