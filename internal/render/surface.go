package render

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSurfaceUnavailable is returned when a surface cannot be created,
	// e.g. for an empty container.
	ErrSurfaceUnavailable = errors.New("render surface unavailable")

	// ErrDisposed is returned by operations on a released surface.
	ErrDisposed = errors.New("render surface disposed")
)

// Surface is a colour and depth framebuffer. Pixels are square; the terminal
// encoder packs two pixel rows into one character row.
type Surface struct {
	width, height int
	color         []Color
	depth         []float64

	attached bool
	disposed bool
	frames   int
}

// NewSurface allocates a width x height surface.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new surface %dx%d: %w", width, height, ErrSurfaceUnavailable)
	}
	s := &Surface{}
	s.alloc(width, height)
	return s, nil
}

func (s *Surface) alloc(width, height int) {
	s.width, s.height = width, height
	s.color = make([]Color, width*height)
	s.depth = make([]float64, width*height)
}

// Size returns the surface dimensions in pixels.
func (s *Surface) Size() (width, height int) {
	return s.width, s.height
}

// SetSize reallocates the buffers when the size changes.
func (s *Surface) SetSize(width, height int) error {
	if s.disposed {
		return ErrDisposed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("resize surface %dx%d: %w", width, height, ErrSurfaceUnavailable)
	}
	if width == s.width && height == s.height {
		return nil
	}
	s.alloc(width, height)
	return nil
}

// Attach marks the surface as shown in its container.
func (s *Surface) Attach() {
	if !s.disposed {
		s.attached = true
	}
}

// Detach removes the surface from its container.
func (s *Surface) Detach() {
	s.attached = false
}

// Attached reports whether the surface is shown.
func (s *Surface) Attached() bool {
	return s.attached
}

// Disposed reports whether the buffers were released.
func (s *Surface) Disposed() bool {
	return s.disposed
}

// Frames returns how many frames have been rendered into the surface.
func (s *Surface) Frames() int {
	return s.frames
}

// Dispose releases the buffers. Safe to call more than once.
func (s *Surface) Dispose() {
	s.attached = false
	s.disposed = true
	s.color = nil
	s.depth = nil
}

// Pixel returns the colour at (x, y); out of range reads return black.
func (s *Surface) Pixel(x, y int) Color {
	if x < 0 || y < 0 || x >= s.width || y >= s.height || s.disposed {
		return Color{}
	}
	return s.color[y*s.width+x]
}

func (s *Surface) clear(bg Color) {
	inf := math.Inf(1)
	for i := range s.color {
		s.color[i] = bg
		s.depth[i] = inf
	}
}
