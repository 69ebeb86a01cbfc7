package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a linear RGB colour with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Hex builds a colour from 0xRRGGBB.
func Hex(v uint32) Color {
	return Color{
		R: float64(v>>16&0xff) / 255,
		G: float64(v>>8&0xff) / 255,
		B: float64(v&0xff) / 255,
	}
}

// ParseColor parses "#RRGGBB" or "RRGGBB".
func ParseColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid colour %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return Hex(uint32(v)), nil
}

func (c Color) Add(o Color) Color      { return Color{c.R + o.R, c.G + o.G, c.B + o.B} }
func (c Color) Mul(o Color) Color      { return Color{c.R * o.R, c.G * o.G, c.B * o.B} }
func (c Color) Scale(s float64) Color  { return Color{c.R * s, c.G * s, c.B * s} }
func (c Color) Clamp() Color           { return Color{mgl64.Clamp(c.R, 0, 1), mgl64.Clamp(c.G, 0, 1), mgl64.Clamp(c.B, 0, 1)} }
func (c Color) Luminance() float64     { return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B }
func (c Color) Lerp(o Color, t float64) Color {
	return c.Scale(1 - t).Add(o.Scale(t))
}

// RGB8 returns the colour quantised to 8 bits per channel.
func (c Color) RGB8() (r, g, b uint8) {
	c = c.Clamp()
	return uint8(c.R*255 + 0.5), uint8(c.G*255 + 0.5), uint8(c.B*255 + 0.5)
}

// HexString formats the colour as "#rrggbb".
func (c Color) HexString() string {
	r, g, b := c.RGB8()
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// PhongMaterial is a Blinn-Phong surface.
type PhongMaterial struct {
	Color     Color
	Specular  Color
	Shininess float64
	Opacity   float64
}

// LineMaterial colours line segments.
type LineMaterial struct {
	Color Color
}

// AmbientLight lights every surface equally.
type AmbientLight struct {
	Color     Color
	Intensity float64
}

// DirectionalLight shines from Position towards the origin.
type DirectionalLight struct {
	Color     Color
	Intensity float64
	Position  mgl64.Vec3
}

// Object3D carries a transform.
type Object3D struct {
	Position mgl64.Vec3
	Rotation mgl64.Vec3 // Euler angles, XYZ order.
}

// Matrix returns the local-to-parent transform.
func (o *Object3D) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(o.Position.Elem()).Mul4(eulerXYZ(o.Rotation))
}

// LineSegments draws a wireframe.
type LineSegments struct {
	Object3D
	Geometry *WireframeGeometry
	Material LineMaterial
}

// Mesh is a shaded triangle mesh with optional child line sets.
type Mesh struct {
	Object3D
	Geometry *Geometry
	Material PhongMaterial
	Children []*LineSegments
}

// Add parents l to the mesh so it follows the mesh's transform.
func (m *Mesh) Add(l *LineSegments) {
	m.Children = append(m.Children, l)
}

// Remove detaches l.
func (m *Mesh) Remove(l *LineSegments) {
	for i, c := range m.Children {
		if c == l {
			m.Children = append(m.Children[:i], m.Children[i+1:]...)
			return
		}
	}
}

// Scene is everything drawn into a surface.
type Scene struct {
	Background  Color
	Ambient     []AmbientLight
	Directional []DirectionalLight
	Meshes      []*Mesh
}

// Add places m in the scene.
func (s *Scene) Add(m *Mesh) {
	s.Meshes = append(s.Meshes, m)
}

// Clear removes every object and light.
func (s *Scene) Clear() {
	s.Ambient = nil
	s.Directional = nil
	s.Meshes = nil
}
