package imaging

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// DefaultBoxColor is the outline color used when an Annotation has none.
var DefaultBoxColor = color.RGBA{R: 255, A: 255}

// Annotation is a labeled rectangle to draw on top of an image.
type Annotation struct {
	// Rect is the box to outline, in source image coordinates.
	Rect image.Rectangle

	// Label is drawn just above the top-left corner. Empty labels are skipped.
	Label string

	// Color of the outline and label; DefaultBoxColor when nil.
	Color color.Color
}

// AnnotateResult contains an annotated image encoded as base64 PNG.
type AnnotateResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
	Boxes       int    `json:"boxes"`
}

// Annotate draws each annotation as an outlined box with its label and
// returns the result as a new image. The source image is not modified.
//
// Parameters:
//   - img: The image to draw on.
//   - anns: Boxes to draw, in drawing order.
//   - fontSize: Label size in points. Values <= 0 use 14.
func Annotate(img image.Image, anns []Annotation, fontSize float64) image.Image {
	if fontSize <= 0 {
		fontSize = 14
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(truetype.NewFace(labelFont, &truetype.Options{Size: fontSize}))
	dc.SetLineWidth(2)

	for _, a := range anns {
		c := a.Color
		if c == nil {
			c = DefaultBoxColor
		}
		dc.SetColor(c)

		r := a.Rect.Canon()
		dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
		dc.Stroke()

		if a.Label == "" {
			continue
		}
		// Keep the label inside the image when the box touches the top edge.
		y := float64(r.Min.Y) - 4
		if y < fontSize {
			y = float64(r.Max.Y) + fontSize
		}
		dc.DrawString(a.Label, float64(r.Min.X), y)
	}

	return dc.Image()
}

// AnnotateBase64 annotates img and encodes the result as base64 PNG.
func AnnotateBase64(img image.Image, anns []Annotation) (*AnnotateResult, error) {
	out := Annotate(img, anns, 0)
	encoded, err := EncodePNGBase64(out)
	if err != nil {
		return nil, err
	}
	return &AnnotateResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Boxes:       len(anns),
	}, nil
}
