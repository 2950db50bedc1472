package detection

import (
	"image"

	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

// Mask is a binary image. Pixel (x, y) is stored at Bits[y*Width+x].
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask returns an all-false mask of the given size.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// At reports whether (x, y) is set. Points outside the mask are false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set assigns (x, y). Points outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of m.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Width, m.Height)
	copy(out.Bits, m.Bits)
	return out
}

// Gray renders the mask as a black and white image, set pixels white.
func (m *Mask) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, b := range m.Bits {
		if b {
			img.Pix[i] = 0xff
		}
	}
	return img
}

// ColorMask selects the pixels whose color could belong to a red sign rim:
//
//	(H > HueMin OR H < HueMax) AND S > SaturationThreshold AND V > ValueThreshold
//
// The OR on hue covers red at both ends of the cyclic hue scale. All
// comparisons are strict.
func ColorMask(hsv *imaging.HSV, cfg ProposerConfig) *Mask {
	m := NewMask(hsv.Width, hsv.Height)
	for i := range m.Bits {
		h := hsv.H[i]
		m.Bits[i] = (h > cfg.HueMin || h < cfg.HueMax) &&
			hsv.S[i] > cfg.SaturationThreshold &&
			hsv.V[i] > cfg.ValueThreshold
	}
	return m
}

// HasFullLine reports whether any row or column of m inside b, with both
// corners inclusive, is entirely set.
func (m *Mask) HasFullLine(b BoundingBox) bool {
	for y := b.Y1; y <= b.Y2; y++ {
		full := true
		for x := b.X1; x <= b.X2; x++ {
			if !m.At(x, y) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}
	for x := b.X1; x <= b.X2; x++ {
		full := true
		for y := b.Y1; y <= b.Y2; y++ {
			if !m.At(x, y) {
				full = false
				break
			}
		}
		if full {
			return true
		}
	}
	return false
}
