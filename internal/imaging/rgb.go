package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ErrInvalidImageFormat is returned when an image does not carry three color
// channels once any alpha channel has been dropped.
var ErrInvalidImageFormat = errors.New("invalid image format: expected 3 color channels")

// RGB is an in-memory image with three 8-bit color channels and no alpha.
//
// Pixels are stored row-major as consecutive R, G, B triples. RGB implements
// image.Image so it can be handed to any library that consumes the standard
// interface; every pixel reports full opacity.
type RGB struct {
	// Pix holds the image's pixels in R, G, B order. The pixel at (x, y)
	// starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix []uint8

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int

	// Rect is the image's bounds.
	Rect image.Rectangle
}

// NewRGB returns a new, black RGB image with the given bounds.
func NewRGB(r image.Rectangle) *RGB {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &RGB{Rect: r.Canon()}
	}
	return &RGB{
		Pix:    make([]uint8, 3*w*h),
		Stride: 3 * w,
		Rect:   r,
	}
}

// ColorModel returns color.RGBAModel; RGB pixels are always opaque.
func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

// Bounds returns the domain for which At can return non-zero color.
func (p *RGB) Bounds() image.Rectangle { return p.Rect }

// At returns the color of the pixel at (x, y).
func (p *RGB) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*3
}

// RGBAt returns the raw channel values at (x, y). The caller must ensure the
// point lies within Rect.
func (p *RGB) RGBAt(x, y int) (r, g, b uint8) {
	i := p.PixOffset(x, y)
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// SetRGB sets the pixel at (x, y). Points outside Rect are ignored.
func (p *RGB) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i], p.Pix[i+1], p.Pix[i+2] = r, g, b
}

// SubImage returns an image representing the portion of p visible through r.
// The returned value shares pixels with the original image. An r that does
// not overlap p yields an empty image.
func (p *RGB) SubImage(r image.Rectangle) *RGB {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &RGB{}
	}
	i := p.PixOffset(r.Min.X, r.Min.Y)
	return &RGB{
		Pix:    p.Pix[i:],
		Stride: p.Stride,
		Rect:   r,
	}
}

// Normalize converts a decoded image into a three-channel RGB image.
//
// Any alpha channel is dropped: the stored (non-premultiplied) color values
// are kept as they are, matching what a decoder exposes for RGBA files.
// Single-channel images (gray or alpha-only) cannot be normalized and yield
// ErrInvalidImageFormat.
//
// An *RGB argument is returned unchanged.
func Normalize(img image.Image) (*RGB, error) {
	switch src := img.(type) {
	case *RGB:
		return src, nil
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return nil, fmt.Errorf("%w: %T has a single channel", ErrInvalidImageFormat, img)
	case *image.NRGBA:
		return fromNRGBA(src), nil
	}

	// imaging.Clone converts every other model to non-premultiplied NRGBA,
	// re-anchored at the origin.
	dst := fromNRGBA(imaging.Clone(img))
	dst.Rect = img.Bounds()
	return dst, nil
}

func fromNRGBA(src *image.NRGBA) *RGB {
	bounds := src.Bounds()
	dst := NewRGB(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		si := src.PixOffset(bounds.Min.X, y)
		di := dst.PixOffset(bounds.Min.X, y)
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst.Pix[di] = src.Pix[si]
			dst.Pix[di+1] = src.Pix[si+1]
			dst.Pix[di+2] = src.Pix[si+2]
			si += 4
			di += 3
		}
	}
	return dst
}
