package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// lineDepthBias pulls wireframe lines towards the camera so they win the depth
// test against the faces they lie on.
const lineDepthBias = 5e-4

// screenVertex is a projected vertex: pixel coordinates plus NDC depth.
type screenVertex struct {
	x, y, z float64
	ok      bool
}

func (s *Surface) project(clip mgl64.Vec4) screenVertex {
	w := clip.W()
	if w <= DefaultNear*0.5 {
		return screenVertex{}
	}
	nx, ny, nz := clip.X()/w, clip.Y()/w, clip.Z()/w
	return screenVertex{
		x:  (nx + 1) / 2 * float64(s.width),
		y:  (1 - ny) / 2 * float64(s.height),
		z:  nz,
		ok: true,
	}
}

// Render draws scene as seen from cam. Wireframes are drawn first; the shaded
// meshes are then depth-tested and blended over them by their opacity.
func (s *Surface) Render(scene *Scene, cam *PerspectiveCamera) error {
	if s.disposed {
		return ErrDisposed
	}
	s.clear(scene.Background)

	vp := cam.ProjectionMatrix().Mul4(cam.ViewMatrix())
	for _, m := range scene.Meshes {
		model := m.Matrix()
		for _, l := range m.Children {
			s.drawLines(l, vp.Mul4(model.Mul4(l.Matrix())))
		}
	}
	for _, m := range scene.Meshes {
		s.drawMesh(scene, cam, m, vp)
	}
	s.frames++
	return nil
}

func (s *Surface) drawLines(l *LineSegments, mvp mgl64.Mat4) {
	g := l.Geometry
	if g == nil || g.Disposed() {
		return
	}
	proj := make([]screenVertex, len(g.Positions))
	for i, p := range g.Positions {
		proj[i] = s.project(transformPoint(mvp, p))
	}
	for _, e := range g.Segments {
		a, b := proj[e[0]], proj[e[1]]
		if !a.ok || !b.ok {
			continue
		}
		s.line(a, b, l.Material.Color)
	}
}

// line is Bresenham with depth interpolated along the major axis.
func (s *Surface) line(a, b screenVertex, c Color) {
	x0, y0 := int(math.Floor(a.x)), int(math.Floor(a.y))
	x1, y1 := int(math.Floor(b.x)), int(math.Floor(b.y))
	dx := absInt(x1 - x0)
	dy := -absInt(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	steps := max(dx, -dy)
	err := dx + dy
	for i := 0; ; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		s.plotLine(x0, y0, a.z+(b.z-a.z)*t-lineDepthBias, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func (s *Surface) plotLine(x, y int, z float64, c Color) {
	if x < 0 || y < 0 || x >= s.width || y >= s.height || z < -1 || z > 1 {
		return
	}
	i := y*s.width + x
	if z < s.depth[i] {
		s.depth[i] = z
		s.color[i] = c
	}
}

// shade lights a vertex with ambient plus Blinn-Phong directional terms.
func shade(scene *Scene, mat PhongMaterial, pos, n, eye mgl64.Vec3) Color {
	var out Color
	for _, a := range scene.Ambient {
		out = out.Add(mat.Color.Mul(a.Color).Scale(a.Intensity))
	}
	view := unit(eye.Sub(pos))
	for _, d := range scene.Directional {
		l := unit(d.Position)
		diff := n.Dot(l)
		if diff <= 0 {
			continue
		}
		out = out.Add(mat.Color.Mul(d.Color).Scale(d.Intensity * diff))
		h := unit(l.Add(view))
		spec := math.Pow(math.Max(n.Dot(h), 0), mat.Shininess)
		out = out.Add(mat.Specular.Mul(d.Color).Scale(d.Intensity * spec))
	}
	return out.Clamp()
}

func (s *Surface) drawMesh(scene *Scene, cam *PerspectiveCamera, m *Mesh, vp mgl64.Mat4) {
	g := m.Geometry
	if g == nil || g.Disposed() {
		return
	}
	model := m.Matrix()
	mvp := vp.Mul4(model)

	proj := make([]screenVertex, len(g.Positions))
	lit := make([]Color, len(g.Positions))
	for i, p := range g.Positions {
		proj[i] = s.project(transformPoint(mvp, p))
		world := transformPoint(model, p).Vec3()
		n := unit(transformDir(model, g.Normals[i]))
		lit[i] = shade(scene, m.Material, world, n, cam.Position)
	}

	opacity := mgl64.Clamp(m.Material.Opacity, 0, 1)
	for t := 0; t+2 < len(g.Indices); t += 3 {
		i0, i1, i2 := g.Indices[t], g.Indices[t+1], g.Indices[t+2]
		v0, v1, v2 := proj[i0], proj[i1], proj[i2]
		if !v0.ok || !v1.ok || !v2.ok {
			continue
		}
		area := edge(v0, v1, v2.x, v2.y)
		// Counter-clockwise in NDC is positive here once Y is flipped.
		// Anything else is a back face.
		if area <= 0 {
			continue
		}
		s.triangle(v0, v1, v2, lit[i0], lit[i1], lit[i2], area, opacity)
	}
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (px-a.x)*(b.y-a.y) - (py-a.y)*(b.x-a.x)
}

func (s *Surface) triangle(v0, v1, v2 screenVertex, c0, c1, c2 Color, area, opacity float64) {
	minX := max(int(math.Floor(min(v0.x, v1.x, v2.x))), 0)
	maxX := min(int(math.Ceil(max(v0.x, v1.x, v2.x))), s.width-1)
	minY := max(int(math.Floor(min(v0.y, v1.y, v2.y))), 0)
	maxY := min(int(math.Ceil(max(v0.y, v1.y, v2.y))), s.height-1)

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(v1, v2, px, py) / area
			w1 := edge(v2, v0, px, py) / area
			w2 := edge(v0, v1, px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*v0.z + w1*v1.z + w2*v2.z
			if z < -1 || z > 1 {
				continue
			}
			i := y*s.width + x
			if z >= s.depth[i] {
				continue
			}
			src := c0.Scale(w0).Add(c1.Scale(w1)).Add(c2.Scale(w2))
			s.color[i] = s.color[i].Lerp(src, opacity)
			s.depth[i] = z
		}
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
