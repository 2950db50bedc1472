package classifier

import (
	"bufio"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDescriptorShape is returned when an exemplar matrix does not have
	// ExemplarColumns columns.
	ErrDescriptorShape = errors.New("exemplar descriptor shape mismatch")

	// ErrNoExemplars is returned for an exemplar matrix without rows.
	ErrNoExemplars = errors.New("exemplar set is empty")

	// ErrMalformedExemplars is returned for unparseable exemplar data.
	ErrMalformedExemplars = errors.New("malformed exemplar data")

	// ErrUnknownLabel is returned when an exemplar label is not one of
	// KnownSpeeds.
	ErrUnknownLabel = errors.New("unknown exemplar label")
)

// maxLineBytes bounds one text row; a float64 row of ExemplarColumns
// values written with full precision stays well below it.
const maxLineBytes = 16 << 20

// ExemplarSet is an immutable set of labeled reference descriptors.
type ExemplarSet struct {
	labels   []Speed
	features *mat.Dense
}

// NewExemplarSet builds a set from an N x ExemplarColumns matrix whose first
// column holds integral speed labels.
func NewExemplarSet(m mat.Matrix) (*ExemplarSet, error) {
	r, c := m.Dims()
	if c != ExemplarColumns {
		return nil, errors.Wrapf(ErrDescriptorShape, "got %d columns, want %d", c, ExemplarColumns)
	}
	if r == 0 {
		return nil, ErrNoExemplars
	}

	labels := make([]Speed, r)
	for i := 0; i < r; i++ {
		v := m.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.Wrapf(ErrMalformedExemplars, "row %d: label %v is not an integer", i, v)
		}
		labels[i] = Speed(v)
	}

	features := mat.NewDense(r, DescriptorLength, nil)
	for i := 0; i < r; i++ {
		row := features.RawRowView(i)
		for j := range row {
			row[j] = m.At(i, j+1)
		}
	}

	return &ExemplarSet{labels: labels, features: features}, nil
}

// NewExemplarSetFromDescriptors builds a set from parallel label and
// descriptor slices.
func NewExemplarSetFromDescriptors(labels []Speed, descriptors []Descriptor) (*ExemplarSet, error) {
	if len(labels) != len(descriptors) {
		return nil, errors.Errorf("got %d labels for %d descriptors", len(labels), len(descriptors))
	}
	if len(labels) == 0 {
		return nil, ErrNoExemplars
	}

	m := mat.NewDense(len(labels), ExemplarColumns, nil)
	for i, d := range descriptors {
		if len(d) != DescriptorLength {
			return nil, errors.Wrapf(ErrDescriptorShape, "descriptor %d has length %d, want %d", i, len(d), DescriptorLength)
		}
		row := m.RawRowView(i)
		row[0] = float64(labels[i])
		copy(row[1:], d)
	}
	return NewExemplarSet(m)
}

// Len returns the number of exemplars.
func (s *ExemplarSet) Len() int {
	return len(s.labels)
}

// Label returns the label of exemplar i.
func (s *ExemplarSet) Label(i int) Speed {
	return s.labels[i]
}

// Features returns the descriptor of exemplar i. The slice aliases the set
// and must not be modified.
func (s *ExemplarSet) Features(i int) []float64 {
	return s.features.RawRowView(i)
}

// LabelCounts returns how many exemplars carry each label, sorted by label.
func (s *ExemplarSet) LabelCounts() []LabelCount {
	counts := make(map[Speed]int)
	for _, l := range s.labels {
		counts[l]++
	}

	out := make([]LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// LabelCount is one entry of ExemplarSet.LabelCounts.
type LabelCount struct {
	Label Speed `json:"label"`
	Count int   `json:"count"`
}

// Matrix returns the set as an N x ExemplarColumns matrix, label first.
func (s *ExemplarSet) Matrix() *mat.Dense {
	m := mat.NewDense(s.Len(), ExemplarColumns, nil)
	for i := range s.labels {
		row := m.RawRowView(i)
		row[0] = float64(s.labels[i])
		copy(row[1:], s.Features(i))
	}
	return m
}

// LoadExemplars reads an exemplar matrix from path.
//
// Files ending in .npy are read as NumPy arrays. Any other extension is read
// as text with one exemplar per line and values separated by commas or
// whitespace; blank lines and lines starting with '#' are skipped.
func LoadExemplars(path string) (*ExemplarSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open exemplar file")
	}
	defer f.Close()

	var m *mat.Dense
	if isNPY(path) {
		m, err = readNPY(f)
	} else {
		m, err = readText(f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read exemplars from %s", path)
	}

	set, err := NewExemplarSet(m)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid exemplars in %s", path)
	}
	return set, nil
}

// SaveExemplars writes set to path, as NumPy when path ends in .npy and as
// whitespace-separated text otherwise.
func SaveExemplars(path string, set *ExemplarSet) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create exemplar file")
	}

	if isNPY(path) {
		err = writeNPY(f, set.Matrix())
	} else {
		err = writeText(f, set.Matrix())
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "failed to write exemplars to %s", path)
}

func isNPY(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// readText parses comma- or whitespace-separated rows of floats.
func readText(r io.Reader) (*mat.Dense, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		data []float64
		cols int
		rows int
		line int
	)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var fields []string
		if strings.Contains(text, ",") {
			fields = strings.Split(text, ",")
		} else {
			fields = strings.Fields(text)
		}

		if rows == 0 {
			cols = len(fields)
		}
		if len(fields) != cols {
			return nil, errors.Wrapf(ErrDescriptorShape, "line %d has %d values, want %d", line, len(fields), cols)
		}
		for _, field := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedExemplars, "line %d: %v", line, err)
			}
			data = append(data, v)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNoExemplars
	}
	if cols != ExemplarColumns {
		return nil, errors.Wrapf(ErrDescriptorShape, "got %d columns, want %d", cols, ExemplarColumns)
	}

	return mat.NewDense(rows, cols, data), nil
}

func writeText(w io.Writer, m *mat.Dense) error {
	bw := bufio.NewWriter(w)
	r, c := m.Dims()
	buf := make([]byte, 0, 32)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'g', -1, 64)
			if _, err := bw.Write(buf); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
