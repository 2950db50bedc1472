package detection

import (
	"image"
	"testing"

	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

func TestMask_AtSetOutOfBounds(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(-1, 0, true)
	m.Set(3, 3, true)

	if m.Count() != 0 {
		t.Errorf("out-of-bounds Set should be ignored, Count=%d", m.Count())
	}
	if m.At(-1, -1) || m.At(5, 0) {
		t.Error("out-of-bounds At should be false")
	}
}

func TestMask_NegativeSize(t *testing.T) {
	m := NewMask(-2, 4)
	if m.Width != 0 || len(m.Bits) != 0 {
		t.Errorf("negative width should clamp to 0, got %dx%d", m.Width, m.Height)
	}
}

func TestMask_Gray(t *testing.T) {
	m := NewMask(4, 2)
	m.Set(3, 1, true)

	g := m.Gray()
	if g.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds: got %v", g.Bounds())
	}
	if g.GrayAt(3, 1).Y != 255 || g.GrayAt(0, 0).Y != 0 {
		t.Error("set pixels should be white and unset pixels black")
	}
}

func TestMask_HasFullLine(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want bool
	}{
		{"ring", []string{
			".###.",
			"#...#",
			"#...#",
			".###.",
		}, false},
		{"full row", []string{
			".###.",
			"#####",
			"#...#",
			".###.",
		}, true},
		{"full column", []string{
			"..#..",
			"#.#.#",
			"#.#.#",
			".##..",
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := maskFromRows(tt.rows...)
			box := BoundingBox{X1: 0, Y1: 0, X2: m.Width - 1, Y2: m.Height - 1}
			if got := m.HasFullLine(box); got != tt.want {
				t.Errorf("HasFullLine: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColorMask(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    bool
	}{
		{"pure red", 255, 0, 0, true},
		{"red leaning blue", 255, 0, 10, true},
		{"magenta-red", 255, 0, 51, true},
		{"dark red", 51, 0, 0, false},
		{"pink", 255, 150, 150, false},
		{"orange", 255, 100, 0, false},
		{"white", 255, 255, 255, false},
		{"green", 0, 200, 0, false},
	}

	img := imaging.NewRGB(image.Rect(0, 0, len(tests), 1))
	for i, tt := range tests {
		img.SetRGB(i, 0, tt.r, tt.g, tt.b)
	}
	m := ColorMask(imaging.ToHSV(img), DefaultProposerConfig())

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.At(i, 0); got != tt.want {
				t.Errorf("ColorMask: got %v, want %v", got, tt.want)
			}
		})
	}
}
