package geom

// Grid is the ordered sequence of (y, x) sub-pixel coordinates covering the
// unmasked pixels of a Mask.
//
// Coordinates are stored "slim": pixels appear in row-major order and the
// SubSize*SubSize sub-pixels of each pixel are stored contiguously, also in
// row-major order. This ordering is stable, so a field evaluated on Coords
// can always be mapped back onto the native image.
type Grid struct {
	Mask   *Mask
	Coords []Vec2

	pixels [][2]int
	binned *Grid
}

// NewGrid returns the sub-gridded coordinates of a mask.
func NewGrid(m *Mask) *Grid {
	g := &Grid{}
	g.Init(m)
	return g
}

// Uniform returns a grid over an unmasked image.
func Uniform(shape [2]int, pixelScale float64, subSize int) *Grid {
	return NewGrid(Unmasked(shape, pixelScale, subSize))
}

// Init initializes a Grid instance.
func (g *Grid) Init(m *Mask) {
	g.Mask = m
	g.binned = nil
	sub := m.SubSize

	g.pixels = g.pixels[:0]
	for i := 0; i < m.Shape[0]; i++ {
		for j := 0; j < m.Shape[1]; j++ {
			if !m.IsMasked(i, j) {
				g.pixels = append(g.pixels, [2]int{i, j})
			}
		}
	}

	g.Coords = make([]Vec2, 0, len(g.pixels)*sub*sub)
	for _, p := range g.pixels {
		for si := 0; si < sub; si++ {
			for sj := 0; sj < sub; sj++ {
				g.Coords = append(g.Coords, m.PixelToCoord(
					float64(p[0]*sub+si), float64(p[1]*sub+sj), sub,
				))
			}
		}
	}
}

// SubSize returns the sub-gridding factor.
func (g *Grid) SubSize() int { return g.Mask.SubSize }

// Len returns the number of sub-pixel coordinates.
func (g *Grid) Len() int { return len(g.Coords) }

// Pixels returns the number of unmasked native pixels.
func (g *Grid) Pixels() int { return len(g.pixels) }

// Pixel returns the native (row, col) index of the i-th slim pixel.
func (g *Grid) Pixel(i int) [2]int { return g.pixels[i] }

// SubShape returns the (rows, cols) shape of the sub-gridded native image.
func (g *Grid) SubShape() [2]int {
	sub := g.SubSize()
	return [2]int{g.Mask.Shape[0] * sub, g.Mask.Shape[1] * sub}
}

// SubIdx returns the sub-native (row, col) index of slim coordinate i.
func (g *Grid) SubIdx(i int) (row, col int) {
	sub := g.SubSize()
	p := g.pixels[i/(sub*sub)]
	s := i % (sub * sub)
	return p[0]*sub + s/sub, p[1]*sub + s%sub
}

// Binned returns the grid of pixel centres, i.e. the same mask evaluated
// with a sub size of one.
func (g *Grid) Binned() *Grid {
	if g.SubSize() == 1 {
		return g
	}
	if g.binned == nil {
		g.binned = NewGrid(g.Mask.WithSubSize(1))
	}
	return g.binned
}

// WithSubSize returns a grid over the same pixels with a different
// sub-gridding factor.
func (g *Grid) WithSubSize(subSize int) *Grid {
	if subSize == g.SubSize() {
		return g
	}
	return NewGrid(g.Mask.WithSubSize(subSize))
}
