package detection

import "fmt"

// Component is one connected region of set pixels.
type Component struct {
	// Label is the 1-based component number, assigned in raster order of
	// each component's first pixel.
	Label int `json:"label"`

	// Pixels is the number of pixels in the component.
	Pixels int `json:"pixels"`

	// Box spans the minimum and maximum column and row of the component.
	Box BoundingBox `json:"bbox"`
}

// Labeling is the result of connected-component labeling.
type Labeling struct {
	Width  int
	Height int

	// Labels holds the component label of each pixel, 0 for background.
	Labels []int

	// Components lists the components ordered by label.
	Components []Component
}

type point struct{ x, y int }

var (
	neighbors4 = []point{{0, -1}, {-1, 0}, {1, 0}, {0, 1}}
	neighbors8 = []point{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}}
)

// Label finds the connected components of m.
//
// connectivity selects 4-connected (edge neighbors) or 8-connected (edge
// and corner neighbors) grouping. The scan runs row by row, left to right,
// so component labels follow the position of each component's first pixel.
func Label(m *Mask, connectivity int) (*Labeling, error) {
	var offsets []point
	switch connectivity {
	case 4:
		offsets = neighbors4
	case 8:
		offsets = neighbors8
	default:
		return nil, fmt.Errorf("%w: connectivity must be 4 or 8, got %d", ErrInvalidConfig, connectivity)
	}

	l := &Labeling{
		Width:      m.Width,
		Height:     m.Height,
		Labels:     make([]int, len(m.Bits)),
		Components: make([]Component, 0),
	}

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Bits[i] || l.Labels[i] != 0 {
				continue
			}
			label := len(l.Components) + 1
			l.Components = append(l.Components, l.fill(m, x, y, label, offsets))
		}
	}

	return l, nil
}

// fill labels every pixel reachable from (startX, startY) using an explicit
// stack.
func (l *Labeling) fill(m *Mask, startX, startY, label int, offsets []point) Component {
	c := Component{
		Label: label,
		Box:   BoundingBox{X1: startX, Y1: startY, X2: startX, Y2: startY},
	}

	l.Labels[startY*m.Width+startX] = label
	stack := []point{{startX, startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c.Pixels++
		c.Box.X1 = min(c.Box.X1, p.x)
		c.Box.Y1 = min(c.Box.Y1, p.y)
		c.Box.X2 = max(c.Box.X2, p.x)
		c.Box.Y2 = max(c.Box.Y2, p.y)

		for _, o := range offsets {
			nx, ny := p.x+o.x, p.y+o.y
			if nx < 0 || nx >= m.Width || ny < 0 || ny >= m.Height {
				continue
			}
			j := ny*m.Width + nx
			if !m.Bits[j] || l.Labels[j] != 0 {
				continue
			}
			l.Labels[j] = label
			stack = append(stack, point{nx, ny})
		}
	}

	return c
}
