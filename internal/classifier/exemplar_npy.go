package classifier

import (
	"io"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// number lists the NumPy element types an exemplar matrix may be stored as.
type number interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~float32 | ~float64
}

// readNPY decodes a two-dimensional numeric NumPy array of any integer or
// floating point dtype into a float64 matrix.
func readNPY(r io.Reader) (*mat.Dense, error) {
	rd, err := npyio.NewReader(r)
	if err != nil {
		return nil, err
	}

	shape := rd.Header.Descr.Shape
	if len(shape) != 2 {
		return nil, errors.Wrapf(ErrMalformedExemplars, "npy array has shape %v, want 2 dimensions", shape)
	}
	rows, cols := shape[0], shape[1]
	if rows == 0 {
		return nil, ErrNoExemplars
	}
	if cols == 0 {
		return nil, errors.Wrapf(ErrDescriptorShape, "got 0 columns, want %d", ExemplarColumns)
	}

	rt := npyio.TypeFrom(rd.Header.Descr.Type)
	if rt == nil {
		return nil, errors.Wrapf(ErrMalformedExemplars, "unsupported npy dtype %q", rd.Header.Descr.Type)
	}

	var data []float64
	switch rt.Kind() {
	case reflect.Float64:
		data, err = readNPYAs[float64](rd)
	case reflect.Float32:
		data, err = readNPYAs[float32](rd)
	case reflect.Int64:
		data, err = readNPYAs[int64](rd)
	case reflect.Int32:
		data, err = readNPYAs[int32](rd)
	case reflect.Int16:
		data, err = readNPYAs[int16](rd)
	case reflect.Int8:
		data, err = readNPYAs[int8](rd)
	case reflect.Uint64:
		data, err = readNPYAs[uint64](rd)
	case reflect.Uint32:
		data, err = readNPYAs[uint32](rd)
	case reflect.Uint16:
		data, err = readNPYAs[uint16](rd)
	case reflect.Uint8:
		data, err = readNPYAs[uint8](rd)
	default:
		return nil, errors.Wrapf(ErrMalformedExemplars, "npy dtype %q is not numeric", rd.Header.Descr.Type)
	}
	if err != nil {
		return nil, err
	}
	if len(data) != rows*cols {
		return nil, errors.Wrapf(ErrMalformedExemplars, "npy array holds %d values, want %d", len(data), rows*cols)
	}

	if rd.Header.Descr.Fortran {
		var m mat.Dense
		m.CloneFrom(mat.NewDense(cols, rows, data).T())
		return &m, nil
	}
	return mat.NewDense(rows, cols, data), nil
}

// readNPYAs reads the whole array as T and widens it to float64.
func readNPYAs[T number](rd *npyio.Reader) ([]float64, error) {
	var raw []T
	if err := rd.Read(&raw); err != nil {
		return nil, err
	}
	if f, ok := any(raw).([]float64); ok {
		return f, nil
	}

	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out, nil
}

func writeNPY(w io.Writer, m *mat.Dense) error {
	return npyio.Write(w, m)
}
