package detection

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned for a ProposerConfig that cannot be run.
var ErrInvalidConfig = errors.New("invalid proposer configuration")

// ProposerConfig holds the tunable parameters of region proposal.
//
// The struct is a plain value: copy it, change fields, and pass it to
// NewProposer. A Proposer never modifies its config after construction.
type ProposerConfig struct {
	// HueMin and HueMax bound red on the cyclic hue scale [0, 1):
	// a pixel qualifies when hue > HueMin or hue < HueMax.
	HueMin float64 `json:"hue_min"`
	HueMax float64 `json:"hue_max"`

	// SaturationThreshold and ValueThreshold are strict lower bounds.
	SaturationThreshold float64 `json:"saturation_threshold"`
	ValueThreshold      float64 `json:"value_threshold"`

	// Structuring square sizes for each morphology step.
	CloseSize          int `json:"close_size"`
	OpenSize           int `json:"open_size"`
	ErodeSize          int `json:"erode_size"`
	FallbackDilateSize int `json:"fallback_dilate_size"`

	// Box acceptance: area > MinArea, width and height > MinSide,
	// MinAspect < width/height < MaxAspect.
	MinArea   int     `json:"min_area"`
	MinSide   int     `json:"min_side"`
	MinAspect float64 `json:"min_aspect"`
	MaxAspect float64 `json:"max_aspect"`

	// Connectivity is 4 or 8.
	Connectivity int `json:"connectivity"`

	// DisableFallback skips the recovery stage when the primary stage
	// finds nothing.
	DisableFallback bool `json:"disable_fallback"`
}

// DefaultProposerConfig returns the stock detection parameters.
func DefaultProposerConfig() ProposerConfig {
	return ProposerConfig{
		HueMin:              0.95,
		HueMax:              0.05,
		SaturationThreshold: 0.5,
		ValueThreshold:      0.3,
		CloseSize:           5,
		OpenSize:            3,
		ErodeSize:           3,
		FallbackDilateSize:  3,
		MinArea:             100,
		MinSide:             20,
		MinAspect:           0.5,
		MaxAspect:           2.0,
		Connectivity:        4,
	}
}

// Validate checks that every parameter is usable.
func (c ProposerConfig) Validate() error {
	for name, v := range map[string]float64{
		"hue_min":              c.HueMin,
		"hue_max":              c.HueMax,
		"saturation_threshold": c.SaturationThreshold,
		"value_threshold":      c.ValueThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidConfig, name, v)
		}
	}

	for _, s := range []struct {
		name string
		v    int
	}{
		{"close_size", c.CloseSize},
		{"open_size", c.OpenSize},
		{"erode_size", c.ErodeSize},
		{"fallback_dilate_size", c.FallbackDilateSize},
	} {
		if s.v < 1 || s.v%2 == 0 {
			return fmt.Errorf("%w: %s must be a positive odd number, got %d", ErrInvalidConfig, s.name, s.v)
		}
	}

	if c.MinArea < 0 || c.MinSide < 0 {
		return fmt.Errorf("%w: min_area and min_side must not be negative", ErrInvalidConfig)
	}
	if c.MinAspect < 0 || c.MinAspect >= c.MaxAspect {
		return fmt.Errorf("%w: aspect window (%v, %v) is empty", ErrInvalidConfig, c.MinAspect, c.MaxAspect)
	}
	if c.Connectivity != 4 && c.Connectivity != 8 {
		return fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidConfig, c.Connectivity)
	}
	return nil
}

// Accepts reports whether b passes the size and aspect filter. All bounds
// are strict.
func (c ProposerConfig) Accepts(b BoundingBox) bool {
	w, h := b.Width(), b.Height()
	if w <= c.MinSide || h <= c.MinSide {
		return false
	}
	if w*h <= c.MinArea {
		return false
	}
	aspect := b.AspectRatio()
	return aspect > c.MinAspect && aspect < c.MaxAspect
}
