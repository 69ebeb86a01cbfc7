package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "scan.dcm", Truncate("scan.dcm", 10))
	assert.Equal(t, "scan…", Truncate("scan-0001.dcm", 5))
	assert.Equal(t, "…", Truncate("scan", 1))
	assert.Equal(t, "", Truncate("scan", 0))
	assert.Equal(t, "断層…", Truncate("断層撮影", 5), "wide runes count two columns")
}

func TestPadRightVisual(t *testing.T) {
	assert.Equal(t, "Drag  ", PadRightVisual("Drag", 6))
	assert.Equal(t, "Shif…", PadRightVisual("Shift+Drag", 5))
}

func TestWrap(t *testing.T) {
	got := Wrap("Fill in missing slices between scans", 12)
	for _, l := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, VisualWidth(l), 12, l)
	}
	assert.Equal(t, "unchanged", Wrap("unchanged", 0))
}

func TestBullets(t *testing.T) {
	got := Bullets([]string{"Reduce radiation exposure", "Enable faster diagnoses"}, 16)
	lines := strings.Split(got, "\n")
	assert.Equal(t, "• Reduce", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  "), "continuation is indented")
	assert.Equal(t, 2, strings.Count(got, "•"))
}
