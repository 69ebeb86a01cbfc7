package upload

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_Accepts(t *testing.T) {
	s := NewSelection()
	tests := []struct {
		path string
		want bool
	}{
		{"scan.dcm", true},
		{"SCAN.DCM", true},
		{"/data/ct/slice-001.Dcm", true},
		{"scan.png", false},
		{"scan.dcm.bak", false},
		{"dcm", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Accepts(tt.path))
		})
	}
}

func TestSelection_AddAndLabel(t *testing.T) {
	s := NewSelection()
	assert.Equal(t, "No file chosen", s.Label())

	require.NoError(t, s.Add("/tmp/a.dcm"))
	assert.Equal(t, "a.dcm", s.Label())

	require.NoError(t, s.Add("/tmp/b.DCM"))
	require.NoError(t, s.Add("/tmp/./a.dcm"), "duplicate is accepted silently")
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "2 files", s.Label())
	assert.Equal(t, []string{filepath.Clean("/tmp/a.dcm"), filepath.Clean("/tmp/b.DCM")}, s.Paths())

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "No file chosen", s.Label())
}

func TestSelection_RejectsOtherExtensions(t *testing.T) {
	s := NewSelection()
	err := s.Add("/tmp/photo.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFile))
	assert.Contains(t, err.Error(), "photo.jpg")
	assert.Equal(t, 0, s.Len())
}

func TestSelection_CustomExtensions(t *testing.T) {
	s := NewSelection("DCM", ".ima", " ")
	assert.Equal(t, []string{".dcm", ".ima"}, s.Extensions())
	assert.True(t, s.Accepts("x.IMA"))
}
