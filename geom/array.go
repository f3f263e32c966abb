package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Array is a scalar field sampled on the slim coordinates of a Grid.
type Array struct {
	Slim []float64
	Grid *Grid
}

// NewArray wraps values evaluated on g.
func NewArray(values []float64, g *Grid) *Array {
	if len(values) != g.Len() {
		panic("Length of values does not match the grid.")
	}
	return &Array{Slim: values, Grid: g}
}

// ZerosArray returns an all-zero field shaped like g.
func ZerosArray(g *Grid) *Array {
	return &Array{Slim: make([]float64, g.Len()), Grid: g}
}

// Binned averages the sub-pixels of every native pixel and returns the
// field on the grid's binned (sub size one) counterpart.
func (a *Array) Binned() *Array {
	sub := a.Grid.SubSize()
	if sub == 1 {
		return a
	}
	n := sub * sub
	out := make([]float64, a.Grid.Pixels())
	for i := range out {
		out[i] = floats.Sum(a.Slim[i*n:(i+1)*n]) / float64(n)
	}
	return &Array{Slim: out, Grid: a.Grid.Binned()}
}

// Native returns the field on its sub-gridded native image. Masked entries
// take the value fill.
func (a *Array) Native(fill float64) [][]float64 {
	shape := a.Grid.SubShape()
	out := make([][]float64, shape[0])
	for i := range out {
		out[i] = make([]float64, shape[1])
		for j := range out[i] {
			out[i][j] = fill
		}
	}
	for k, v := range a.Slim {
		i, j := a.Grid.SubIdx(k)
		out[i][j] = v
	}
	return out
}

// Add returns a + b.
func (a *Array) Add(b *Array) *Array {
	out := make([]float64, len(a.Slim))
	floats.AddTo(out, a.Slim, b.Slim)
	return &Array{Slim: out, Grid: a.Grid}
}

// Sub returns a - b.
func (a *Array) Sub(b *Array) *Array {
	out := make([]float64, len(a.Slim))
	floats.SubTo(out, a.Slim, b.Slim)
	return &Array{Slim: out, Grid: a.Grid}
}

// Scale returns k*a.
func (a *Array) Scale(k float64) *Array {
	out := make([]float64, len(a.Slim))
	floats.ScaleTo(out, k, a.Slim)
	return &Array{Slim: out, Grid: a.Grid}
}

// ArgMax returns the slim index of the largest value.
func (a *Array) ArgMax() int { return floats.MaxIdx(a.Slim) }

// ArgMin returns the slim index of the smallest value.
func (a *Array) ArgMin() int { return floats.MinIdx(a.Slim) }

// VectorYX is a (y, x) vector field sampled on the slim coordinates of a
// Grid.
type VectorYX struct {
	Slim []Vec2
	Grid *Grid
}

// NewVectorYX wraps vectors evaluated on g.
func NewVectorYX(values []Vec2, g *Grid) *VectorYX {
	if len(values) != g.Len() {
		panic("Length of values does not match the grid.")
	}
	return &VectorYX{Slim: values, Grid: g}
}

// ZerosVectorYX returns an all-zero vector field shaped like g.
func ZerosVectorYX(g *Grid) *VectorYX {
	return &VectorYX{Slim: make([]Vec2, g.Len()), Grid: g}
}

// Binned averages the sub-pixels of every native pixel.
func (v *VectorYX) Binned() *VectorYX {
	sub := v.Grid.SubSize()
	if sub == 1 {
		return v
	}
	n := sub * sub
	out := make([]Vec2, v.Grid.Pixels())
	for i := range out {
		var sum Vec2
		for _, u := range v.Slim[i*n : (i+1)*n] {
			sum = sum.Add(u)
		}
		out[i] = sum.Scale(1 / float64(n))
	}
	return &VectorYX{Slim: out, Grid: v.Grid.Binned()}
}

// Native returns the field on its sub-gridded native image with masked
// entries set to zero.
func (v *VectorYX) Native() [][]Vec2 {
	shape := v.Grid.SubShape()
	out := make([][]Vec2, shape[0])
	for i := range out {
		out[i] = make([]Vec2, shape[1])
	}
	for k, u := range v.Slim {
		i, j := v.Grid.SubIdx(k)
		out[i][j] = u
	}
	return out
}

// Component returns the y (0) or x (1) component as an Array.
func (v *VectorYX) Component(dim int) *Array {
	out := make([]float64, len(v.Slim))
	for i := range v.Slim {
		out[i] = v.Slim[i][dim]
	}
	return &Array{Slim: out, Grid: v.Grid}
}

// Magnitudes returns the length of every vector.
func (v *VectorYX) Magnitudes() *Array {
	out := make([]float64, len(v.Slim))
	for i := range v.Slim {
		out[i] = v.Slim[i].Norm()
	}
	return &Array{Slim: out, Grid: v.Grid}
}

// Add returns v + u.
func (v *VectorYX) Add(u *VectorYX) *VectorYX {
	out := make([]Vec2, len(v.Slim))
	for i := range out {
		out[i] = v.Slim[i].Add(u.Slim[i])
	}
	return &VectorYX{Slim: out, Grid: v.Grid}
}

// Sub returns v - u.
func (v *VectorYX) Sub(u *VectorYX) *VectorYX {
	out := make([]Vec2, len(v.Slim))
	for i := range out {
		out[i] = v.Slim[i].Sub(u.Slim[i])
	}
	return &VectorYX{Slim: out, Grid: v.Grid}
}

// AllFinite returns false if any entry is NaN or infinite.
func (a *Array) AllFinite() bool {
	for _, x := range a.Slim {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
