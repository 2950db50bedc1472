package detection

import (
	"fmt"
	"image"
)

// BoundingBox is an axis-aligned box in pixel coordinates.
//
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right corner of
// the pixels that produced the box. Width and Height are computed as
// X2-X1 and Y2-Y1, so a region cropped with Rect excludes the last row
// and column. Both conventions are relied on by downstream consumers and
// must not be "fixed" independently.
type BoundingBox struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width returns X2 - X1.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Area returns Width * Height.
func (b BoundingBox) Area() int { return b.Width() * b.Height() }

// AspectRatio returns Width / Height, or 0 for a box with no height.
func (b BoundingBox) AspectRatio() float64 {
	if b.Height() == 0 {
		return 0
	}
	return float64(b.Width()) / float64(b.Height())
}

// Rect returns the crop rectangle [X1, X2) x [Y1, Y2).
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Translate returns b shifted by p.
func (b BoundingBox) Translate(p image.Point) BoundingBox {
	return BoundingBox{X1: b.X1 + p.X, Y1: b.Y1 + p.Y, X2: b.X2 + p.X, Y2: b.Y2 + p.Y}
}

// Array returns the box as [x1, y1, x2, y2].
func (b BoundingBox) Array() [4]int {
	return [4]int{b.X1, b.Y1, b.X2, b.Y2}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[(%d,%d) to (%d,%d)]", b.X1, b.Y1, b.X2, b.Y2)
}
