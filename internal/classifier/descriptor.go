package classifier

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	rgbimg "github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

const (
	// DescriptorSide is the width and height of the resampled patch.
	DescriptorSide = 64

	// DescriptorLength is the number of values in a descriptor.
	DescriptorLength = DescriptorSide * DescriptorSide

	// ExemplarColumns is the row width of an exemplar matrix: one label
	// column followed by a descriptor.
	ExemplarColumns = DescriptorLength + 1
)

// Luminance weights applied to R, G and B.
const (
	lumaR = 0.2125
	lumaG = 0.7154
	lumaB = 0.0721
)

// Descriptor is a zero-mean, unit-norm grayscale patch in row-major order.
type Descriptor []float64

// Preprocess computes the descriptor of a region of interest.
//
// The region is converted to luminance, resampled to 64x64 with a Lanczos
// filter, scaled to 0..255, shifted to zero mean and divided by its L2
// norm. A uniform region has norm 0 and is left unscaled, giving the zero
// vector.
//
// The luminance image and the resampled patch are both stored as 8-bit
// samples, so descriptors agree with a float32 pipeline only to within that
// rounding and not bit for bit. Exemplars should be generated with this
// function.
//
// An empty region yields an empty descriptor and no error; callers treat
// any descriptor whose length is not DescriptorLength as NotASign.
// Single-channel images fail with ErrInvalidImageFormat.
func Preprocess(roi image.Image) (Descriptor, error) {
	rgb, err := rgbimg.Normalize(roi)
	if err != nil {
		return nil, fmt.Errorf("failed to preprocess region: %w", err)
	}
	if rgb.Bounds().Empty() {
		return Descriptor{}, nil
	}

	gray := effect.GrayscaleWithWeights(rgb, lumaR, lumaG, lumaB)
	patch := imaging.Resize(gray, DescriptorSide, DescriptorSide, imaging.Lanczos)

	d := make(Descriptor, DescriptorLength)
	for i := range d {
		// grayscale: R, G and B carry the same value
		d[i] = float64(patch.Pix[i*4])
	}

	floats.AddConst(-stat.Mean(d, nil), d)
	if norm := floats.Norm(d, 2); norm > 0 {
		floats.Scale(1/norm, d)
	}
	return d, nil
}
