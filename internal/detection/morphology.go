package detection

// Binary morphology with a size x size square structuring element.
//
// Pixels outside the mask are treated as unset for both dilation and
// erosion, so erosion clears a band of size/2 pixels along every image edge.
// The square element is separable, so each operator is a horizontal pass
// followed by a vertical pass.

// Dilate sets every pixel that has a set pixel within its size x size
// neighborhood. A size below 2 returns a copy of m.
func Dilate(m *Mask, size int) *Mask {
	r := size / 2
	if r <= 0 {
		return m.Clone()
	}
	return pass(pass(m, r, true, true), r, false, true)
}

// Erode keeps only pixels whose whole size x size neighborhood is set.
// A size below 2 returns a copy of m.
func Erode(m *Mask, size int) *Mask {
	r := size / 2
	if r <= 0 {
		return m.Clone()
	}
	return pass(pass(m, r, true, false), r, false, false)
}

// Close is Dilate followed by Erode. It bridges gaps narrower than size.
func Close(m *Mask, size int) *Mask {
	return Erode(Dilate(m, size), size)
}

// Open is Erode followed by Dilate. It removes structures thinner than size.
func Open(m *Mask, size int) *Mask {
	return Dilate(Erode(m, size), size)
}

// pass runs a one-dimensional window of radius r along rows (horizontal)
// or columns. With dilate the output is the OR over the window, otherwise
// the AND, and window positions outside the mask read as unset.
func pass(m *Mask, r int, horizontal, dilate bool) *Mask {
	out := NewMask(m.Width, m.Height)
	lines, length := m.Height, m.Width
	if !horizontal {
		lines, length = m.Width, m.Height
	}

	at := func(line, i int) bool {
		if horizontal {
			return m.Bits[line*m.Width+i]
		}
		return m.Bits[i*m.Width+line]
	}

	window := 2*r + 1
	for line := 0; line < lines; line++ {
		// count holds the number of set pixels in [i-r, i+r] clipped to the line
		count := 0
		for i := 0; i <= r && i < length; i++ {
			if at(line, i) {
				count++
			}
		}
		for i := 0; i < length; i++ {
			var v bool
			if dilate {
				v = count > 0
			} else {
				v = i-r >= 0 && i+r < length && count == window
			}
			if v {
				if horizontal {
					out.Bits[line*m.Width+i] = true
				} else {
					out.Bits[i*m.Width+line] = true
				}
			}

			if leaving := i - r; leaving >= 0 && at(line, leaving) {
				count--
			}
			if entering := i + r + 1; entering < length && at(line, entering) {
				count++
			}
		}
	}
	return out
}
