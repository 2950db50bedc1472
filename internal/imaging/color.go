package imaging

import (
	"github.com/lucasb-eyer/go-colorful"
)

// HSV holds the hue, saturation and value planes of an image.
//
// All three channels are scaled to [0, 1]. Hue is cyclic: pure red sits at
// both ends of the scale (0.0 and just below 1.0), so a "red" selection has
// to combine a high and a low hue threshold with OR.
//
// Planes are stored row-major; the value for pixel (x, y), relative to the
// source image's top-left corner, is at index y*Width + x.
type HSV struct {
	Width  int
	Height int
	H      []float64
	S      []float64
	V      []float64
}

// ToHSV converts an RGB image into hue/saturation/value planes.
//
// # Conversion
//
// Each pixel is scaled to [0,1] and converted with go-colorful:
//   - V = max(R, G, B)
//   - S = (max - min) / max, or 0 for black
//   - H = the usual hexcone hue, divided by 360
//
// Achromatic pixels (max == min) get hue 0.
func ToHSV(img *RGB) *HSV {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &HSV{
		Width:  w,
		Height: h,
		H:      make([]float64, w*h),
		S:      make([]float64, w*h),
		V:      make([]float64, w*h),
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := img.RGBAt(x+bounds.Min.X, y+bounds.Min.Y)
			c := colorful.Color{
				R: float64(r) / 255.0,
				G: float64(g) / 255.0,
				B: float64(b) / 255.0,
			}
			hue, sat, val := c.Hsv()
			i := y*w + x
			out.H[i] = hue / 360.0
			out.S[i] = sat
			out.V[i] = val
		}
	}

	return out
}
