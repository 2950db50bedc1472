package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

// Stage names passed to a MaskObserver.
const (
	StageCombined        = "combined"
	StageClosed          = "closed"
	StageOpened          = "opened"
	StageEroded          = "eroded"
	StageFallbackDilated = "fallback-dilated"
)

// MaskObserver receives intermediate masks for diagnostics. The mask must
// not be modified.
type MaskObserver func(stage string, m *Mask)

// Stage turns the combined color mask into candidate boxes.
type Stage interface {
	Name() string
	Detect(combined *Mask) []BoundingBox
}

// PrimaryStage cleans the color mask with closing, opening and a final
// erosion, then keeps every component whose box passes the filter.
type PrimaryStage struct {
	cfg      ProposerConfig
	observer MaskObserver
}

// NewPrimaryStage returns the main detection stage. observer may be nil.
func NewPrimaryStage(cfg ProposerConfig, observer MaskObserver) *PrimaryStage {
	return &PrimaryStage{cfg: cfg, observer: observer}
}

// Name implements Stage.
func (s *PrimaryStage) Name() string { return "primary" }

// Detect implements Stage. Boxes are returned in component label order.
func (s *PrimaryStage) Detect(combined *Mask) []BoundingBox {
	closed := Close(combined, s.cfg.CloseSize)
	notify(s.observer, StageClosed, closed)

	opened := Open(closed, s.cfg.OpenSize)
	notify(s.observer, StageOpened, opened)

	eroded := Erode(opened, s.cfg.ErodeSize)
	notify(s.observer, StageEroded, eroded)

	labels, err := Label(eroded, s.cfg.Connectivity)
	if err != nil {
		return []BoundingBox{}
	}

	boxes := make([]BoundingBox, 0)
	for _, c := range labels.Components {
		if s.cfg.Accepts(c.Box) {
			boxes = append(boxes, c.Box)
		}
	}
	return boxes
}

// FallbackStage recovers a sign whose rim is too thin to survive the
// primary cleanup. It dilates the raw color mask, picks the component with
// the largest box that passes the filter, and rejects it when the region
// looks like a solid band rather than a ring.
type FallbackStage struct {
	cfg      ProposerConfig
	observer MaskObserver
}

// NewFallbackStage returns the recovery stage. observer may be nil.
func NewFallbackStage(cfg ProposerConfig, observer MaskObserver) *FallbackStage {
	return &FallbackStage{cfg: cfg, observer: observer}
}

// Name implements Stage.
func (s *FallbackStage) Name() string { return "fallback" }

// Detect implements Stage. It returns at most one box.
func (s *FallbackStage) Detect(combined *Mask) []BoundingBox {
	dilated := Dilate(combined, s.cfg.FallbackDilateSize)
	notify(s.observer, StageFallbackDilated, dilated)

	labels, err := Label(dilated, s.cfg.Connectivity)
	if err != nil {
		return []BoundingBox{}
	}

	var (
		best     BoundingBox
		bestArea = -1
	)
	for _, c := range labels.Components {
		if !s.cfg.Accepts(c.Box) {
			continue
		}
		// strictly greater: the first component wins ties
		if area := c.Box.Area(); area > bestArea {
			best, bestArea = c.Box, area
		}
	}
	if bestArea < 0 {
		return []BoundingBox{}
	}

	// A full row or column means a filled blob or a band crossing the
	// region, not a sign rim.
	if dilated.HasFullLine(best) {
		return []BoundingBox{}
	}
	return []BoundingBox{best}
}

// Option configures a Proposer.
type Option func(*Proposer)

// WithObserver installs a MaskObserver that sees every intermediate mask.
func WithObserver(fn MaskObserver) Option {
	return func(p *Proposer) {
		p.observer = fn
	}
}

// Proposer finds candidate sign regions in a color image.
//
// It runs the primary stage and, only when that yields nothing, the
// fallback stage. A Proposer is immutable and safe for concurrent use as
// long as the installed observer is.
type Proposer struct {
	cfg      ProposerConfig
	observer MaskObserver
	primary  Stage
	fallback Stage
}

// NewProposer validates cfg and builds a Proposer.
func NewProposer(cfg ProposerConfig, opts ...Option) (*Proposer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Proposer{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	p.primary = NewPrimaryStage(cfg, p.observer)
	if !cfg.DisableFallback {
		p.fallback = NewFallbackStage(cfg, p.observer)
	}
	return p, nil
}

// Config returns the proposer's configuration.
func (p *Proposer) Config() ProposerConfig {
	return p.cfg
}

// Propose returns candidate boxes for img in image coordinates.
//
// Primary boxes come first in component label order. The fallback box, if
// any, is appended last. An image with no qualifying region gives an empty,
// non-nil slice. Single-channel images fail with
// imaging.ErrInvalidImageFormat.
func (p *Proposer) Propose(img image.Image) ([]BoundingBox, error) {
	rgb, err := imaging.Normalize(img)
	if err != nil {
		return nil, fmt.Errorf("failed to propose regions: %w", err)
	}

	combined := ColorMask(imaging.ToHSV(rgb), p.cfg)
	notify(p.observer, StageCombined, combined)

	boxes := p.primary.Detect(combined)
	if len(boxes) == 0 && p.fallback != nil {
		boxes = append(boxes, p.fallback.Detect(combined)...)
	}

	origin := rgb.Bounds().Min
	for i := range boxes {
		boxes[i] = boxes[i].Translate(origin)
	}
	return boxes, nil
}

// Propose is a convenience wrapper that builds a Proposer for a single call.
func Propose(img image.Image, cfg ProposerConfig) ([]BoundingBox, error) {
	p, err := NewProposer(cfg)
	if err != nil {
		return nil, err
	}
	return p.Propose(img)
}

func notify(fn MaskObserver, stage string, m *Mask) {
	if fn != nil {
		fn(stage, m)
	}
}
