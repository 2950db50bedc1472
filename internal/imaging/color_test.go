package imaging

import (
	"image"
	"math"
	"testing"
)

// createSolidRGB creates an RGB image filled with a single color
func createSolidRGB(width, height int, r, g, b uint8) *RGB {
	img := NewRGB(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGB(x, y, r, g, b)
		}
	}
	return img
}

func TestToHSV_KnownColors(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		h, s, v float64
	}{
		{"red", 255, 0, 0, 0, 1, 1},
		{"green", 0, 255, 0, 1.0 / 3.0, 1, 1},
		{"blue", 0, 0, 255, 2.0 / 3.0, 1, 1},
		{"white", 255, 255, 255, 0, 0, 1},
		{"black", 0, 0, 0, 0, 0, 0},
		{"dark red", 128, 0, 0, 0, 1, 128.0 / 255.0},
		{"magenta-red", 255, 0, 51, 1 - 0.2/6, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hsv := ToHSV(createSolidRGB(1, 1, tt.r, tt.g, tt.b))
			if math.Abs(hsv.H[0]-tt.h) > 1e-9 {
				t.Errorf("H: got %v, want %v", hsv.H[0], tt.h)
			}
			if math.Abs(hsv.S[0]-tt.s) > 1e-9 {
				t.Errorf("S: got %v, want %v", hsv.S[0], tt.s)
			}
			if math.Abs(hsv.V[0]-tt.v) > 1e-9 {
				t.Errorf("V: got %v, want %v", hsv.V[0], tt.v)
			}
		})
	}
}

func TestToHSV_HueRange(t *testing.T) {
	img := NewRGB(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetRGB(x, y, uint8(x*16), uint8(y*16), uint8((x+y)*8))
		}
	}

	hsv := ToHSV(img)
	for i := range hsv.H {
		if hsv.H[i] < 0 || hsv.H[i] >= 1 {
			t.Fatalf("hue out of [0,1) at %d: %v", i, hsv.H[i])
		}
		if hsv.S[i] < 0 || hsv.S[i] > 1 || hsv.V[i] < 0 || hsv.V[i] > 1 {
			t.Fatalf("saturation/value out of range at %d: %v %v", i, hsv.S[i], hsv.V[i])
		}
	}
}

func TestToHSV_Layout(t *testing.T) {
	img := NewRGB(image.Rect(0, 0, 5, 3))
	img.SetRGB(4, 2, 0, 0, 255)

	hsv := ToHSV(img)
	if hsv.Width != 5 || hsv.Height != 3 {
		t.Fatalf("dimensions: got %dx%d, want 5x3", hsv.Width, hsv.Height)
	}
	if hsv.V[2*5+4] != 1 {
		t.Errorf("expected the blue pixel at index 14, got V=%v", hsv.V[14])
	}
}

func TestToHSV_SubImageOffset(t *testing.T) {
	img := NewRGB(image.Rect(0, 0, 10, 10))
	img.SetRGB(6, 6, 255, 0, 0)

	hsv := ToHSV(img.SubImage(image.Rect(5, 5, 10, 10)))
	if hsv.Width != 5 || hsv.Height != 5 {
		t.Fatalf("dimensions: got %dx%d, want 5x5", hsv.Width, hsv.Height)
	}
	if hsv.S[1*5+1] != 1 {
		t.Errorf("expected the red pixel at plane index 6, got S=%v", hsv.S[6])
	}
}
