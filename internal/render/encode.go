package render

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/muesli/termenv"
)

// HalfBlock draws the top pixel in the foreground colour and the bottom pixel
// in the background colour.
const HalfBlock = "▀"

// asciiRamp maps luminance to glyphs for terminals without colour.
const asciiRamp = " .:-=+*#%@"

// Encoder turns surfaces into terminal text for one colour profile. It caches
// the escape sequence of every colour it has seen, so reuse one Encoder across
// frames.
type Encoder struct {
	profile termenv.Profile
	fg      map[uint32]string
	bg      map[uint32]string
}

// NewEncoder returns an encoder for profile.
func NewEncoder(profile termenv.Profile) *Encoder {
	return &Encoder{
		profile: profile,
		fg:      make(map[uint32]string),
		bg:      make(map[uint32]string),
	}
}

// Profile returns the colour profile the encoder targets.
func (e *Encoder) Profile() termenv.Profile {
	return e.profile
}

func pack(c Color) uint32 {
	r, g, b := c.RGB8()
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

func (e *Encoder) sequence(cache map[uint32]string, c Color, bg bool) string {
	key := pack(c)
	if seq, ok := cache[key]; ok {
		return seq
	}
	seq := e.profile.Color(c.HexString()).Sequence(bg)
	cache[key] = seq
	return seq
}

// Encode renders s as height/2 rounded-up lines of width cells. A disposed
// surface encodes as the empty string.
func (e *Encoder) Encode(s *Surface) string {
	if s.Disposed() || s.width == 0 || s.height == 0 {
		return ""
	}
	if e.profile == termenv.Ascii {
		return e.encodeASCII(s)
	}

	var b strings.Builder
	b.Grow(s.width * ((s.height + 1) / 2) * 24)
	for y := 0; y < s.height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		last := ""
		for x := 0; x < s.width; x++ {
			top := s.color[y*s.width+x]
			bottom := top
			if y+1 < s.height {
				bottom = s.color[(y+1)*s.width+x]
			}
			seq := e.sequence(e.fg, top, false)
			if bgSeq := e.sequence(e.bg, bottom, true); bgSeq != "" {
				if seq != "" {
					seq += ";"
				}
				seq += bgSeq
			}
			if seq != last && seq != "" {
				b.WriteString(termenv.CSI + seq + "m")
				last = seq
			}
			b.WriteString(HalfBlock)
		}
		b.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	}
	return b.String()
}

func (e *Encoder) encodeASCII(s *Surface) string {
	var b strings.Builder
	b.Grow((s.width + 1) * ((s.height + 1) / 2))
	last := len(asciiRamp) - 1
	for y := 0; y < s.height; y += 2 {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < s.width; x++ {
			l := s.color[y*s.width+x].Luminance()
			if y+1 < s.height {
				l = (l + s.color[(y+1)*s.width+x].Luminance()) / 2
			}
			b.WriteByte(asciiRamp[int(mgl64.Clamp(l, 0, 1)*float64(last))])
		}
	}
	return b.String()
}
