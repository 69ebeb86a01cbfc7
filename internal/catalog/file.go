package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk catalog format.
//
//	slices:
//	  - id: 1
//	    src: https://example.com/slice-1.png
//	    label: Slice 1
//	figures:
//	  - title: Original CT Scan Images
//	    src: /images/original.png
//	    kind: image
//
// A missing section keeps the built-in defaults.
type Document struct {
	Slices  []Slice  `yaml:"slices"`
	Figures []Figure `yaml:"figures"`
}

// FileProvider reads a YAML catalog on every call, so edits show up on the
// next load without a restart.
type FileProvider struct {
	Path string
}

// NewFileProvider returns a provider for the catalog at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{Path: path}
}

func (p *FileProvider) load() (Document, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return Document{}, fmt.Errorf("read catalog %s: %w", p.Path, err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse catalog %s: %w: %w", p.Path, ErrInvalidCatalog, err)
	}
	return doc, nil
}

// Slices returns the file's slices, or the defaults when the file has none.
func (p *FileProvider) Slices(ctx context.Context) ([]Slice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	if len(doc.Slices) == 0 {
		return DefaultSlices(), nil
	}
	if err := ValidateSlices(doc.Slices); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", p.Path, err)
	}
	return doc.Slices, nil
}

// Figures returns the file's figures, or the defaults when the file has none.
func (p *FileProvider) Figures(ctx context.Context) ([]Figure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := p.load()
	if err != nil {
		return nil, err
	}
	if len(doc.Figures) == 0 {
		return DefaultFigures(), nil
	}
	for i := range doc.Figures {
		if doc.Figures[i].Kind == "" {
			doc.Figures[i].Kind = FigureImage
		}
	}
	if err := ValidateFigures(doc.Figures); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", p.Path, err)
	}
	return doc.Figures, nil
}

// ValidateSlices checks that IDs are positive and unique and every slice has
// an image source.
func ValidateSlices(slices []Slice) error {
	seen := make(map[int]bool, len(slices))
	for i, s := range slices {
		if s.ID <= 0 {
			return fmt.Errorf("%w: slice %d: id must be positive, got %d", ErrInvalidCatalog, i, s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("%w: slice %d: duplicate id %d", ErrInvalidCatalog, i, s.ID)
		}
		seen[s.ID] = true
		if strings.TrimSpace(s.Src) == "" {
			return fmt.Errorf("%w: slice %d: src is required", ErrInvalidCatalog, s.ID)
		}
	}
	return nil
}

// ValidateFigures checks that every figure has a title and that image figures
// have a source.
func ValidateFigures(figures []Figure) error {
	for i, f := range figures {
		if strings.TrimSpace(f.Title) == "" {
			return fmt.Errorf("%w: figure %d: title is required", ErrInvalidCatalog, i)
		}
		switch f.Kind {
		case FigureImage:
			if strings.TrimSpace(f.Src) == "" {
				return fmt.Errorf("%w: figure %q: src is required", ErrInvalidCatalog, f.Title)
			}
		case FigureNetwork:
			if f.Layers < 0 || f.Nodes < 0 {
				return fmt.Errorf("%w: figure %q: layers and nodes must not be negative", ErrInvalidCatalog, f.Title)
			}
		default:
			return fmt.Errorf("%w: figure %q: unknown kind %q", ErrInvalidCatalog, f.Title, f.Kind)
		}
	}
	return nil
}
