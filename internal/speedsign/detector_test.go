package speedsign

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ironsheep/speed-sign-mcp/internal/classifier"
	"github.com/ironsheep/speed-sign-mcp/internal/detection"
	"github.com/ironsheep/speed-sign-mcp/internal/imaging"
)

var (
	rimRed = color.RGBA{210, 25, 25, 255}
	ink    = color.RGBA{10, 10, 10, 255}
)

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// drawSign paints a square red frame with a dark mark inside
func drawSign(img *image.RGBA, r image.Rectangle, mark image.Rectangle) {
	fill(img, r, rimRed)
	fill(img, r.Inset(8), color.RGBA{255, 255, 255, 255})
	fill(img, mark, ink)
}

// twoSignScene returns an image with two signs whose proposals are
// (121,11)-(158,48) and (11,41)-(48,78), in that order.
func twoSignScene() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	fill(img, img.Bounds(), color.RGBA{255, 255, 255, 255})
	drawSign(img, image.Rect(120, 10, 160, 50), image.Rect(136, 20, 142, 40)) // vertical bar
	drawSign(img, image.Rect(10, 40, 50, 80), image.Rect(20, 56, 40, 62))     // horizontal bar
	return img
}

// sceneClassifier builds exemplars from the scene's own crops, labeled in
// proposal order.
func sceneClassifier(t *testing.T, scene image.Image, labels []classifier.Speed, opts ...classifier.Option) (*detection.Proposer, *classifier.Classifier) {
	t.Helper()
	proposer, err := detection.NewProposer(detection.DefaultProposerConfig())
	if err != nil {
		t.Fatalf("NewProposer failed: %v", err)
	}

	boxes, err := proposer.Propose(scene)
	if err != nil {
		t.Fatalf("Propose failed: %v", err)
	}
	if len(boxes) != len(labels) {
		t.Fatalf("got %d proposals, want %d", len(boxes), len(labels))
	}

	rgb, err := imaging.Normalize(scene)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	descriptors := make([]classifier.Descriptor, len(boxes))
	for i, b := range boxes {
		d, err := classifier.Preprocess(imaging.CropRoI(rgb, b.Rect()))
		if err != nil {
			t.Fatalf("Preprocess failed: %v", err)
		}
		descriptors[i] = d
	}

	set, err := classifier.NewExemplarSetFromDescriptors(labels, descriptors)
	if err != nil {
		t.Fatalf("NewExemplarSetFromDescriptors failed: %v", err)
	}
	c, err := classifier.NewClassifier(set, opts...)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	return proposer, c
}

func TestDetect(t *testing.T) {
	scene := twoSignScene()
	p, c := sceneClassifier(t, scene, []classifier.Speed{60, 80})

	for _, workers := range []int{1, 4} {
		d := NewDetector(p, c, WithWorkers(workers))

		results, err := d.Detect(context.Background(), scene)
		if err != nil {
			t.Fatalf("workers=%d: Detect failed: %v", workers, err)
		}

		want := []Result{
			{BBox: detection.BoundingBox{X1: 121, Y1: 11, X2: 158, Y2: 48}, Speed: 60},
			{BBox: detection.BoundingBox{X1: 11, Y1: 41, X2: 48, Y2: 78}, Speed: 80},
		}
		if diff := cmp.Diff(want, results); diff != "" {
			t.Errorf("workers=%d: results mismatch (-want +got):\n%s", workers, diff)
		}
	}
}

func TestDetect_DropsNotASign(t *testing.T) {
	scene := twoSignScene()
	p, c := sceneClassifier(t, scene, []classifier.Speed{classifier.NotASign, 100}, classifier.WithAllowUnknownLabels())

	core, logs := observer.New(zap.DebugLevel)
	d := NewDetector(p, c, WithLogger(zap.New(core).Sugar()))

	results, err := d.Detect(context.Background(), scene)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	want := []Result{{BBox: detection.BoundingBox{X1: 11, Y1: 41, X2: 48, Y2: 78}, Speed: 100}}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if n := logs.FilterMessage("dropped region").Len(); n != 1 {
		t.Errorf("expected one dropped-region log entry, got %d", n)
	}
}

func TestDetect_NoSigns(t *testing.T) {
	scene := twoSignScene()
	p, c := sceneClassifier(t, scene, []classifier.Speed{60, 80})

	blank := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fill(blank, blank.Bounds(), color.RGBA{255, 255, 255, 255})

	results, err := NewDetector(p, c).Detect(context.Background(), blank)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected an empty, non-nil result, got %v", results)
	}
}

func TestDetect_Grayscale(t *testing.T) {
	p, c := sceneClassifier(t, twoSignScene(), []classifier.Speed{60, 80})

	_, err := NewDetector(p, c).Detect(context.Background(), image.NewGray(image.Rect(0, 0, 10, 10)))
	if !errors.Is(err, imaging.ErrInvalidImageFormat) {
		t.Errorf("expected ErrInvalidImageFormat, got %v", err)
	}
}

func TestDetect_CancelledContext(t *testing.T) {
	scene := twoSignScene()
	p, c := sceneClassifier(t, scene, []classifier.Speed{60, 80})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, workers := range []int{1, 4} {
		_, err := NewDetector(p, c, WithWorkers(workers)).Detect(ctx, scene)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("workers=%d: expected context.Canceled, got %v", workers, err)
		}
	}
}

func TestClassifyRegions_DegenerateBox(t *testing.T) {
	scene := twoSignScene()
	p, c := sceneClassifier(t, scene, []classifier.Speed{60, 80})

	speeds, err := NewDetector(p, c).ClassifyRegions(context.Background(), scene, []detection.BoundingBox{
		{X1: 10, Y1: 10, X2: 10, Y2: 40},
	})
	if err != nil {
		t.Fatalf("ClassifyRegions failed: %v", err)
	}
	if speeds[0] != classifier.NotASign {
		t.Errorf("zero-width region: got %v, want NotASign", speeds[0])
	}
}

func TestResult_JSON(t *testing.T) {
	r := Result{BBox: detection.BoundingBox{X1: 1, Y1: 2, X2: 30, Y2: 40}, Speed: 60}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"bbox":[1,2,30,40],"speed":60}` {
		t.Errorf("JSON: got %s", data)
	}

	results, err := json.Marshal([]Result{r})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(results) != `[{"bbox":[1,2,30,40],"speed":60}]` {
		t.Errorf("JSON list: got %s", results)
	}
}

func TestResult_String(t *testing.T) {
	r := Result{BBox: detection.BoundingBox{X1: 1, Y1: 2, X2: 30, Y2: 40}, Speed: 120}
	if got := r.String(); got != "120 km/h at [(1,2) to (30,40)]" {
		t.Errorf("String: got %q", got)
	}
}
