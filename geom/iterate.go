package geom

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/lensfish/logging"
)

// Iterator adaptively raises the sub-gridding factor of a mask only where a
// quantity has not converged.
//
// A pixel has converged at sub size s(k+1) once
// |high - low| / |high| <= 1 - FractionalAccuracy, where low and high are its
// binned values at s(k) and s(k+1). Converged pixels keep the value at
// s(k+1). Pixels that never converge keep the value at the largest sub
// size, so the driver always terminates and silently returns a best-effort
// answer.
type Iterator struct {
	Mask               *Mask
	FractionalAccuracy float64
	SubSteps           []int
}

// NewIterator checks and stores the iteration settings.
func NewIterator(
	m *Mask, fractionalAccuracy float64, subSteps []int,
) (*Iterator, error) {
	if fractionalAccuracy <= 0 || fractionalAccuracy > 1 {
		return nil, fmt.Errorf("The fractional accuracy %g is not in the "+
			"range (0, 1].", fractionalAccuracy)
	} else if len(subSteps) == 0 {
		return nil, fmt.Errorf("I need at least one sub step.")
	}
	for i := range subSteps {
		if subSteps[i] <= 0 {
			return nil, fmt.Errorf("Sub step %d is %d, but sub steps must "+
				"be positive.", i, subSteps[i])
		} else if i > 0 && subSteps[i] <= subSteps[i-1] {
			return nil, fmt.Errorf("Sub steps %v are not strictly "+
				"increasing.", subSteps)
		}
	}
	return &Iterator{m, fractionalAccuracy, subSteps}, nil
}

// ArrayFunc evaluates a scalar quantity on the slim coordinates of a grid.
type ArrayFunc func(g *Grid) []float64

// VectorFunc evaluates a vector quantity on the slim coordinates of a grid.
type VectorFunc func(g *Grid) []Vec2

// Array evaluates f adaptively and returns its binned values on the mask's
// pixels. Steps reports the sub size each pixel's value came from.
func (it *Iterator) Array(f ArrayFunc) (values *Array, steps []int) {
	scalar := func(g *Grid) [][]float64 {
		vals := (&Array{Slim: f(g), Grid: g}).Binned().Slim
		out := make([][]float64, len(vals))
		for i := range vals {
			out[i] = []float64{vals[i]}
		}
		return out
	}
	res, steps := it.iterate(scalar)
	out := make([]float64, len(res))
	for i := range res {
		out[i] = res[i][0]
	}
	return &Array{Slim: out, Grid: it.binnedGrid()}, steps
}

// Vector evaluates f adaptively and returns its binned values on the mask's
// pixels. Both components must meet the accuracy target.
func (it *Iterator) Vector(f VectorFunc) (values *VectorYX, steps []int) {
	vector := func(g *Grid) [][]float64 {
		vals := (&VectorYX{Slim: f(g), Grid: g}).Binned().Slim
		out := make([][]float64, len(vals))
		for i := range vals {
			out[i] = []float64{vals[i][0], vals[i][1]}
		}
		return out
	}
	res, steps := it.iterate(vector)
	out := make([]Vec2, len(res))
	for i := range res {
		out[i] = Vec2{res[i][0], res[i][1]}
	}
	return &VectorYX{Slim: out, Grid: it.binnedGrid()}, steps
}

func (it *Iterator) binnedGrid() *Grid {
	return NewGrid(it.Mask.WithSubSize(1))
}

// iterate runs the driver loop. f returns binned per-pixel component lists
// for the pixels of the grid it is given, in slim order.
func (it *Iterator) iterate(
	f func(g *Grid) [][]float64,
) ([][]float64, []int) {
	base := it.binnedGrid()
	n := base.Pixels()
	result := make([][]float64, n)
	steps := make([]int, n)

	// active holds the slim indices (into base) of unconverged pixels.
	active := make([]int, n)
	for i := range active {
		active[i] = i
	}

	low := f(NewGrid(it.Mask.WithSubSize(it.SubSteps[0])))
	for i := range low {
		result[i] = low[i]
		steps[i] = it.SubSteps[0]
	}

	for _, sub := range it.SubSteps[1:] {
		pixels := make([][2]int, len(active))
		for k, i := range active {
			pixels[k] = base.Pixel(i)
		}
		high := f(NewGrid(it.Mask.Select(pixels, sub)))

		next := active[:0]
		for k, i := range active {
			converged := true
			for d := range high[k] {
				if !withinAccuracy(low[k][d], high[k][d],
					it.FractionalAccuracy) {
					converged = false
				}
			}
			result[i] = high[k]
			steps[i] = sub
			if !converged {
				next = append(next, i)
				low[len(next)-1] = high[k]
			}
		}
		active = next
		low = low[:len(active)]
		if len(active) == 0 {
			break
		}
	}

	if len(active) > 0 {
		logging.L().Debug("geom.iterate.unconverged",
			"pixels", len(active), "sub_size", it.SubSteps[len(it.SubSteps)-1])
	}
	return result, steps
}

func withinAccuracy(low, high, accuracy float64) bool {
	if high == low {
		return true
	}
	return math.Abs(high-low)/math.Abs(high) <= 1-accuracy
}
