package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/multierr"

	"github.com/ironsheep/speed-sign-mcp/internal/classifier"
	"github.com/ironsheep/speed-sign-mcp/internal/speedsign"
)

// expectedPattern matches labeled test images such as 50-0004x2.png: a
// speed of 50 km/h, image id 0004, and two signs in the image.
var expectedPattern = regexp.MustCompile(`^(\d+)-\d+x(\d+)\.png`)

// Expectation is the ground truth encoded in a test image file name.
type Expectation struct {
	Speed classifier.Speed `json:"speed"`
	Count int              `json:"count"`
}

// ParseExpected extracts the expected speed and sign count from a file
// name of the form <speed>-<id>x<count>.png. Directories are ignored.
func ParseExpected(filename string) (Expectation, bool) {
	m := expectedPattern.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return Expectation{}, false
	}
	speed, err := strconv.Atoi(m[1])
	if err != nil {
		return Expectation{}, false
	}
	count, err := strconv.Atoi(m[2])
	if err != nil {
		return Expectation{}, false
	}
	return Expectation{Speed: classifier.Speed(speed), Count: count}, true
}

// DetectFunc runs detection on the image at path.
type DetectFunc func(ctx context.Context, path string) ([]speedsign.Result, error)

// CaseResult is the outcome for one test image.
type CaseResult struct {
	File     string             `json:"file"`
	Expected Expectation        `json:"expected"`
	Detected []classifier.Speed `json:"detected"`
	Passed   bool               `json:"passed"`
	Skipped  bool               `json:"skipped,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// BatchSummary collects the outcome of a batch evaluation.
type BatchSummary struct {
	Cases  []CaseResult `json:"cases"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
}

// Evaluate runs detect on every .png file in dir, in name order, and
// compares the detections with the expectation encoded in each file name.
//
// A case passes when the number of detections equals the expected count and
// every detected speed equals the expected speed. Files whose names do not
// carry an expectation are skipped but still counted in Total. Detection
// failures mark the case as failed; they are combined into the returned
// error while the remaining files are still evaluated.
func Evaluate(ctx context.Context, dir string, detect DetectFunc) (*BatchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	summary := &BatchSummary{Cases: make([]CaseResult, 0, len(names))}
	var errs error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return summary, multierr.Append(errs, err)
		}
		summary.Total++

		c := CaseResult{File: name}
		expected, ok := ParseExpected(name)
		if !ok {
			c.Skipped = true
			summary.Cases = append(summary.Cases, c)
			continue
		}
		c.Expected = expected

		results, err := detect(ctx, filepath.Join(dir, name))
		if err != nil {
			c.Error = err.Error()
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			summary.Cases = append(summary.Cases, c)
			continue
		}

		c.Detected = make([]classifier.Speed, len(results))
		c.Passed = len(results) == expected.Count
		for i, r := range results {
			c.Detected[i] = r.Speed
			if r.Speed != expected.Speed {
				c.Passed = false
			}
		}
		if c.Passed {
			summary.Passed++
		}
		summary.Cases = append(summary.Cases, c)
	}

	return summary, errs
}

// WriteLog prints one line per case followed by the pass count.
func (s *BatchSummary) WriteLog(w io.Writer) error {
	for _, c := range s.Cases {
		var line string
		switch {
		case c.Skipped:
			line = fmt.Sprintf("Skipping file with unexpected format: %s", c.File)
		case c.Error != "":
			line = fmt.Sprintf("[FAIL] %s: %s", c.File, c.Error)
		case c.Passed:
			line = fmt.Sprintf("[PASS] %s: Detected %d sign(s) with speed %d.", c.File, len(c.Detected), int(c.Expected.Speed))
		default:
			line = fmt.Sprintf("[FAIL] %s: Expected %d sign(s) with speed %d but detected %d sign(s) with speeds %s.",
				c.File, c.Expected.Count, int(c.Expected.Speed), len(c.Detected), formatSpeeds(c.Detected))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Passed %d out of %d tests.\n", s.Passed, s.Total)
	return err
}

// Table renders the summary as a text table.
func (s *BatchSummary) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "File", "Expected", "Detected", "Result"})
	for i, c := range s.Cases {
		expected, detected, result := "", "", "FAIL"
		switch {
		case c.Skipped:
			result = "SKIP"
		case c.Error != "":
			expected = fmt.Sprintf("%d x %d", c.Expected.Count, int(c.Expected.Speed))
			detected = "error"
		default:
			expected = fmt.Sprintf("%d x %d", c.Expected.Count, int(c.Expected.Speed))
			detected = formatSpeeds(c.Detected)
			if c.Passed {
				result = "PASS"
			}
		}
		t.AppendRow(table.Row{i + 1, c.File, expected, detected, result})
	}
	t.AppendFooter(table.Row{"", "", "", "Passed", fmt.Sprintf("%d/%d", s.Passed, s.Total)})
	return t.Render()
}

func formatSpeeds(speeds []classifier.Speed) string {
	parts := make([]string, len(speeds))
	for i, s := range speeds {
		parts[i] = strconv.Itoa(int(s))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
