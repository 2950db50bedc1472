package speedsign

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/speed-sign-mcp/internal/classifier"
	"github.com/ironsheep/speed-sign-mcp/internal/detection"
	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

// Result is one detected sign.
type Result struct {
	BBox  detection.BoundingBox `json:"bbox"`
	Speed classifier.Speed      `json:"speed"`
}

type resultJSON struct {
	BBox  [4]int `json:"bbox"`
	Speed int    `json:"speed"`
}

// MarshalJSON encodes r as {"bbox":[x1,y1,x2,y2],"speed":N}.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{BBox: r.BBox.Array(), Speed: int(r.Speed)})
}

func (r Result) String() string {
	return fmt.Sprintf("%s at %s", r.Speed, r.BBox)
}

// Option configures a Detector.
type Option func(*Detector)

// WithWorkers classifies up to n regions concurrently. Values below 2 keep
// classification sequential.
func WithWorkers(n int) Option {
	return func(d *Detector) {
		d.workers = n
	}
}

// WithLogger sets the logger used for per-region diagnostics.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Detector runs region proposal followed by classification.
type Detector struct {
	proposer   *detection.Proposer
	classifier *classifier.Classifier
	workers    int
	logger     *zap.SugaredLogger
}

// NewDetector composes a proposer and a classifier.
func NewDetector(p *detection.Proposer, c *classifier.Classifier, opts ...Option) *Detector {
	d := &Detector{
		proposer:   p,
		classifier: c,
		workers:    1,
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Proposer returns the detector's region proposer.
func (d *Detector) Proposer() *detection.Proposer { return d.proposer }

// Detect finds and classifies speed-limit signs in img.
//
// Results keep the order of the proposed regions. Regions classified as
// NotASign are dropped. An image without signs gives an empty result.
func (d *Detector) Detect(ctx context.Context, img image.Image) ([]Result, error) {
	rgb, err := imaging.Normalize(img)
	if err != nil {
		return nil, fmt.Errorf("failed to detect signs: %w", err)
	}

	boxes, err := d.proposer.Propose(rgb)
	if err != nil {
		return nil, err
	}
	d.logger.Debugw("proposed regions", "count", len(boxes))

	speeds, err := d.ClassifyRegions(ctx, rgb, boxes)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(boxes))
	for i, box := range boxes {
		if speeds[i] == classifier.NotASign {
			d.logger.Debugw("dropped region", "bbox", box.String())
			continue
		}
		results = append(results, Result{BBox: box, Speed: speeds[i]})
	}
	return results, nil
}

// ClassifyRegions classifies the crop of img under each box. The crop
// rectangle is box.Rect(), which excludes the last row and column. The
// returned slice is parallel to boxes and may contain NotASign.
func (d *Detector) ClassifyRegions(ctx context.Context, img image.Image, boxes []detection.BoundingBox) ([]classifier.Speed, error) {
	rgb, err := imaging.Normalize(img)
	if err != nil {
		return nil, fmt.Errorf("failed to classify regions: %w", err)
	}

	speeds := make([]classifier.Speed, len(boxes))
	classify := func(i int) error {
		speed, err := d.classifier.Classify(imaging.CropRoI(rgb, boxes[i].Rect()))
		if err != nil {
			return fmt.Errorf("failed to classify region %s: %w", boxes[i], err)
		}
		speeds[i] = speed
		return nil
	}

	if d.workers < 2 || len(boxes) < 2 {
		for i := range boxes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := classify(i); err != nil {
				return nil, err
			}
		}
		return speeds, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i := range boxes {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return classify(i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return speeds, nil
}
