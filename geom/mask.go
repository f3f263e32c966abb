package geom

import (
	"fmt"
)

// Mask marks which pixels of a rectangular image take part in a
// calculation. A true entry is masked out. A Mask also carries the geometry
// needed to turn pixel indices into arc-second coordinates and the
// sub-gridding factor used when evaluating on it.
type Mask struct {
	// Shape is the native (rows, cols) shape.
	Shape [2]int
	// PixelScales is the (y, x) arc-second width of a pixel.
	PixelScales [2]float64
	// Origin is the arc-second coordinate of the image centre.
	Origin  Vec2
	SubSize int

	masked []bool
}

// NewMask creates a mask from a row-major table of masked flags. Every row
// must have the same length.
func NewMask(masked [][]bool, pixelScales [2]float64, subSize int) *Mask {
	if len(masked) == 0 || len(masked[0]) == 0 {
		panic("Mask must have at least one pixel.")
	}
	rows, cols := len(masked), len(masked[0])
	flat := make([]bool, 0, rows*cols)
	for i := range masked {
		if len(masked[i]) != cols {
			panic(fmt.Sprintf("Row %d of mask has length %d, not %d.",
				i, len(masked[i]), cols))
		}
		flat = append(flat, masked[i]...)
	}

	m := &Mask{}
	m.Init(flat, [2]int{rows, cols}, pixelScales, subSize)
	return m
}

// Unmasked returns a mask of the given shape where every pixel is used.
func Unmasked(shape [2]int, pixelScale float64, subSize int) *Mask {
	m := &Mask{}
	m.Init(make([]bool, shape[0]*shape[1]), shape,
		[2]float64{pixelScale, pixelScale}, subSize)
	return m
}

// CircularMask returns a mask which keeps every pixel whose centre lies
// within radius arc-seconds of centre.
func CircularMask(
	shape [2]int, pixelScale, radius float64, centre Vec2, subSize int,
) *Mask {
	m := Unmasked(shape, pixelScale, subSize)
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			if m.PixelCentre(i, j).Sub(centre).Norm() > radius {
				m.masked[i*shape[1]+j] = true
			}
		}
	}
	return m
}

// Init initializes a Mask instance.
func (m *Mask) Init(
	masked []bool, shape [2]int, pixelScales [2]float64, subSize int,
) {
	if shape[0] <= 0 || shape[1] <= 0 {
		panic("Mask shape must be positive.")
	} else if shape[0]*shape[1] != len(masked) {
		panic("rows * cols must equal len(masked).")
	} else if pixelScales[0] <= 0 || pixelScales[1] <= 0 {
		panic("Pixel scales must be positive.")
	} else if subSize <= 0 {
		panic("Sub size must be positive.")
	}

	m.Shape = shape
	m.PixelScales = pixelScales
	m.SubSize = subSize
	m.masked = masked
}

// IsMasked returns true if native pixel (i, j) is excluded.
func (m *Mask) IsMasked(i, j int) bool {
	return m.masked[i*m.Shape[1]+j]
}

// Pixels returns the number of unmasked pixels.
func (m *Mask) Pixels() int {
	n := 0
	for _, b := range m.masked {
		if !b {
			n++
		}
	}
	return n
}

// WithSubSize returns a copy of the mask which uses a different sub-gridding
// factor. The masked flags are shared.
func (m *Mask) WithSubSize(subSize int) *Mask {
	out := &Mask{}
	out.Init(m.masked, m.Shape, m.PixelScales, subSize)
	out.Origin = m.Origin
	return out
}

// Full returns a copy of the mask with no pixels masked.
func (m *Mask) Full() *Mask {
	out := &Mask{}
	out.Init(make([]bool, len(m.masked)), m.Shape, m.PixelScales, m.SubSize)
	out.Origin = m.Origin
	return out
}

// Select returns a copy of the mask where only the listed native pixels are
// left unmasked.
func (m *Mask) Select(pixels [][2]int, subSize int) *Mask {
	masked := make([]bool, len(m.masked))
	for i := range masked {
		masked[i] = true
	}
	for _, p := range pixels {
		masked[p[0]*m.Shape[1]+p[1]] = false
	}
	out := &Mask{}
	out.Init(masked, m.Shape, m.PixelScales, subSize)
	out.Origin = m.Origin
	return out
}

// PixelCentre returns the arc-second coordinate of the centre of native
// pixel (i, j).
func (m *Mask) PixelCentre(i, j int) Vec2 {
	return m.PixelToCoord(float64(i), float64(j), 1)
}

// PixelToCoord converts a continuous pixel position (row, col) on a grid
// sub-gridded by sub into arc-seconds. Integer positions are sub-pixel
// centres.
func (m *Mask) PixelToCoord(row, col float64, sub int) Vec2 {
	rows, cols := float64(m.Shape[0]*sub), float64(m.Shape[1]*sub)
	dy, dx := m.PixelScales[0]/float64(sub), m.PixelScales[1]/float64(sub)
	return Vec2{
		-(row-(rows-1)/2)*dy + m.Origin[0],
		(col-(cols-1)/2)*dx + m.Origin[1],
	}
}
