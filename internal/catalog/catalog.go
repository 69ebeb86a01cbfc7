// Package catalog supplies the static imagery the screens show: the CT slice
// gallery of the viewer and the pipeline figures of the upload screen.
package catalog

import (
	"context"
	"errors"
)

// ErrInvalidCatalog is returned when catalog data fails validation.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Slice is one image of the CT slice gallery.
type Slice struct {
	ID    int    `yaml:"id"`
	Src   string `yaml:"src"`
	Label string `yaml:"label"`
}

// FigureKind says how a figure is drawn.
type FigureKind string

const (
	// FigureImage is a bundled or hosted picture.
	FigureImage FigureKind = "image"
	// FigureNetwork is the generated neural network diagram.
	FigureNetwork FigureKind = "network"
)

// Figure is one illustration of the processing pipeline.
type Figure struct {
	Title string     `yaml:"title"`
	Src   string     `yaml:"src,omitempty"`
	Alt   string     `yaml:"alt,omitempty"`
	Kind  FigureKind `yaml:"kind,omitempty"`

	// Layers and Nodes size a FigureNetwork diagram.
	Layers int `yaml:"layers,omitempty"`
	Nodes  int `yaml:"nodes,omitempty"`
}

// Provider returns catalog content.
type Provider interface {
	Slices(ctx context.Context) ([]Slice, error)
	Figures(ctx context.Context) ([]Figure, error)
}

// DefaultSlices returns the four sample slices.
func DefaultSlices() []Slice {
	return []Slice{
		{ID: 1, Src: "https://i.imgur.com/5KvmQgJ.png", Label: "Slice 1"},
		{ID: 2, Src: "https://i.imgur.com/FBQxOt2.png", Label: "Slice 2"},
		{ID: 3, Src: "https://i.imgur.com/uCZjrz3.png", Label: "Slice 3"},
		{ID: 4, Src: "https://i.imgur.com/5KvmQgJ.png", Label: "Slice 4"},
	}
}

// DefaultFigures returns the pipeline figures in display order.
func DefaultFigures() []Figure {
	return []Figure{
		{
			Title: "Original CT Scan Images",
			Src:   "/lovable-uploads/a8bd27c8-73c4-4fac-8865-1b6ffa1256c2.png",
			Alt:   "Original CT Scans",
			Kind:  FigureImage,
		},
		{
			Title: "Fourier Transform Applied",
			Src:   "https://i.imgur.com/FBQxOt2.png",
			Alt:   "Fourier Transform",
			Kind:  FigureImage,
		},
		{
			Title:  "Neural Network Processing",
			Kind:   FigureNetwork,
			Layers: 4,
			Nodes:  5,
		},
		{
			Title: "Enhanced 3D Model Reconstruction",
			Src:   "https://i.imgur.com/uCZjrz3.png",
			Alt:   "3D Model",
			Kind:  FigureImage,
		},
	}
}

// Static serves the built-in defaults.
type Static struct{}

func (Static) Slices(ctx context.Context) ([]Slice, error) {
	return DefaultSlices(), nil
}

func (Static) Figures(ctx context.Context) ([]Figure, error) {
	return DefaultFigures(), nil
}
