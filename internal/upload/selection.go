package upload

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DICOMExtension is the only extension the file chooser accepts.
const DICOMExtension = ".dcm"

// ErrUnsupportedFile is returned for a path outside the extension filter.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Selection is the set of chosen files. Only the paths are kept; file contents
// are never opened.
type Selection struct {
	allowed []string
	paths   []string
	seen    map[string]struct{}
}

// NewSelection returns an empty selection filtered to the given extensions,
// or to DICOMExtension when none are given.
func NewSelection(extensions ...string) *Selection {
	if len(extensions) == 0 {
		extensions = []string{DICOMExtension}
	}
	allowed := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed = append(allowed, ext)
	}
	return &Selection{allowed: allowed, seen: make(map[string]struct{})}
}

// Extensions returns the extension filter.
func (s *Selection) Extensions() []string {
	return append([]string(nil), s.allowed...)
}

// Accepts reports whether path passes the extension filter.
func (s *Selection) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range s.allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// Add records a chosen file. Choosing the same file twice keeps one entry.
func (s *Selection) Add(path string) error {
	if !s.Accepts(path) {
		return fmt.Errorf("%s: %w (want %s)", filepath.Base(path), ErrUnsupportedFile, strings.Join(s.allowed, ", "))
	}
	clean := filepath.Clean(path)
	if _, ok := s.seen[clean]; ok {
		return nil
	}
	s.seen[clean] = struct{}{}
	s.paths = append(s.paths, clean)
	return nil
}

// Paths returns the chosen files in the order they were chosen.
func (s *Selection) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Len returns the number of chosen files.
func (s *Selection) Len() int {
	return len(s.paths)
}

// Clear forgets every chosen file.
func (s *Selection) Clear() {
	s.paths = nil
	s.seen = make(map[string]struct{})
}

// Label is the text a file input shows next to its button.
func (s *Selection) Label() string {
	switch len(s.paths) {
	case 0:
		return "No file chosen"
	case 1:
		return filepath.Base(s.paths[0])
	default:
		return fmt.Sprintf("%d files", len(s.paths))
	}
}
