package classifier

import (
	"image"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Option configures a Classifier.
type Option func(*options)

type options struct {
	allowUnknownLabels bool
}

// WithAllowUnknownLabels accepts exemplar labels outside KnownSpeeds. Such
// labels are returned unchanged by Classify.
func WithAllowUnknownLabels() Option {
	return func(o *options) {
		o.allowUnknownLabels = true
	}
}

// Classifier assigns a speed to a region of interest by 1-nearest-neighbor
// matching against an exemplar set.
//
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	set *ExemplarSet
}

// NewClassifier builds a classifier over set. Unless WithAllowUnknownLabels
// is given, every exemplar label must be one of KnownSpeeds.
func NewClassifier(set *ExemplarSet, opts ...Option) (*Classifier, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrNoExemplars
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if !o.allowUnknownLabels {
		for i := 0; i < set.Len(); i++ {
			if l := set.Label(i); !l.IsKnown() {
				return nil, errors.Wrapf(ErrUnknownLabel, "exemplar %d has label %d", i, int(l))
			}
		}
	}

	return &Classifier{set: set}, nil
}

// NewClassifierFromFile loads exemplars with LoadExemplars and builds a
// classifier over them.
func NewClassifierFromFile(path string, opts ...Option) (*Classifier, error) {
	set, err := LoadExemplars(path)
	if err != nil {
		return nil, err
	}
	return NewClassifier(set, opts...)
}

// Exemplars returns the classifier's exemplar set.
func (c *Classifier) Exemplars() *ExemplarSet {
	return c.set
}

// Classify returns the speed of the exemplar nearest to roi, or NotASign
// when no valid descriptor can be computed. The only error is
// ErrInvalidImageFormat for single-channel input.
func (c *Classifier) Classify(roi image.Image) (Speed, error) {
	d, err := Preprocess(roi)
	if err != nil {
		return NotASign, err
	}
	return c.ClassifyDescriptor(d), nil
}

// ClassifyDescriptor returns the label of the exemplar at the smallest
// Euclidean distance from d. On equal distances the earlier exemplar wins.
// A descriptor of the wrong length gives NotASign.
func (c *Classifier) ClassifyDescriptor(d Descriptor) Speed {
	if len(d) != DescriptorLength {
		return NotASign
	}

	best := NotASign
	bestDist := math.Inf(1)
	for i := 0; i < c.set.Len(); i++ {
		if dist := floats.Distance(d, c.set.Features(i), 2); dist < bestDist {
			best, bestDist = c.set.Label(i), dist
		}
	}
	return best
}
