package render

import "github.com/go-gl/mathgl/mgl64"

// Camera defaults for the viewer.
const (
	DefaultFov      = 75.0
	DefaultNear     = 0.1
	DefaultFar      = 1000.0
	DefaultDistance = 5.0
)

// PerspectiveCamera is a pinhole camera. Callers that change Fov, Aspect, Near or
// Far must call UpdateProjectionMatrix for the change to take effect.
type PerspectiveCamera struct {
	Fov    float64
	Aspect float64
	Near   float64
	Far    float64

	Position mgl64.Vec3
	Up       mgl64.Vec3

	target     mgl64.Vec3
	projection mgl64.Mat4
}

// NewPerspectiveCamera returns a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		Fov:    fov,
		Aspect: aspect,
		Near:   near,
		Far:    far,
		Up:     mgl64.Vec3{0, 1, 0},
		target: mgl64.Vec3{0, 0, -1},
	}
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection from the frustum fields.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	c.projection = perspective(c.Fov, aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the matrix computed by the last UpdateProjectionMatrix.
func (c *PerspectiveCamera) ProjectionMatrix() mgl64.Mat4 {
	return c.projection
}

// LookAt points the camera at target.
func (c *PerspectiveCamera) LookAt(target mgl64.Vec3) {
	c.target = target
}

// Target returns the point the camera looks at.
func (c *PerspectiveCamera) Target() mgl64.Vec3 {
	return c.target
}

// ViewMatrix returns the world-to-camera transform.
func (c *PerspectiveCamera) ViewMatrix() mgl64.Mat4 {
	return lookAt(c.Position, c.target, c.Up)
}
