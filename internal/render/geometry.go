package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is an indexed triangle mesh.
type Geometry struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	// Indices holds three vertex indices per triangle, counter-clockwise when
	// seen from the front.
	Indices []int

	disposed bool
}

// Triangles returns the number of triangles.
func (g *Geometry) Triangles() int {
	return len(g.Indices) / 3
}

// Dispose releases the vertex and index buffers.
func (g *Geometry) Dispose() {
	g.Positions = nil
	g.Normals = nil
	g.Indices = nil
	g.disposed = true
}

// Disposed reports whether Dispose was called.
func (g *Geometry) Disposed() bool {
	return g.disposed
}

// NewSphereGeometry builds a UV sphere with widthSegments around the equator and
// heightSegments from pole to pole. Each ring carries one duplicated seam vertex
// so the grid is (widthSegments+1) x (heightSegments+1).
func NewSphereGeometry(radius float64, widthSegments, heightSegments int) *Geometry {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	g := &Geometry{}
	grid := make([][]int, heightSegments+1)
	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		row := make([]int, widthSegments+1)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			sinPhi, cosPhi := math.Sincos(u * 2 * math.Pi)
			sinTheta, cosTheta := math.Sincos(v * math.Pi)
			p := mgl64.Vec3{
				-radius * cosPhi * sinTheta,
				radius * cosTheta,
				radius * sinPhi * sinTheta,
			}
			row[ix] = len(g.Positions)
			g.Positions = append(g.Positions, p)
			g.Normals = append(g.Normals, unit(p))
		}
		grid[iy] = row
	}

	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			// The pole rows collapse to a single point, so they get one
			// triangle per quad instead of two.
			if iy != 0 {
				g.Indices = append(g.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				g.Indices = append(g.Indices, b, c, d)
			}
		}
	}
	return g
}

// RandSource supplies uniform values in [0, 1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// Deform displaces every vertex by an organic-looking noise term. Each component
// gets its own random scale, so the result depends on the source's sequence.
// Normals are left untouched.
func (g *Geometry) Deform(rng RandSource) {
	for i, p := range g.Positions {
		noise := 0.2 * math.Sin(5*p[0]) * math.Sin(5*p[1]) * math.Sin(5*p[2])
		for k := range p {
			p[k] += noise * (rng.Float64() * 0.1)
		}
		g.Positions[i] = p
	}
}

// Edge is a pair of vertex indices, lower index first.
type Edge [2]int

// Edges returns every distinct triangle edge in first-seen order.
func (g *Geometry) Edges() []Edge {
	seen := make(map[Edge]struct{}, len(g.Indices))
	edges := make([]Edge, 0, len(g.Indices))
	for t := 0; t+2 < len(g.Indices); t += 3 {
		tri := [3]int{g.Indices[t], g.Indices[t+1], g.Indices[t+2]}
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			e := Edge{a, b}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}

// WireframeGeometry is a set of line segments over shared vertices.
type WireframeGeometry struct {
	Positions []mgl64.Vec3
	Segments  []Edge

	disposed bool
}

// NewWireframeGeometry copies g's vertices and collects its distinct edges.
func NewWireframeGeometry(g *Geometry) *WireframeGeometry {
	return &WireframeGeometry{
		Positions: append([]mgl64.Vec3(nil), g.Positions...),
		Segments:  g.Edges(),
	}
}

// Dispose releases the line buffers.
func (w *WireframeGeometry) Dispose() {
	w.Positions = nil
	w.Segments = nil
	w.disposed = true
}

// Disposed reports whether Dispose was called.
func (w *WireframeGeometry) Disposed() bool {
	return w.disposed
}
