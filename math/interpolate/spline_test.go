package interpolate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestSplineLinear(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{2, 3, 4, 5, 6}
	sp := NewSpline(xs, ys)

	for i, x := range linspace(0, 4, 17) {
		assert.InDelta(t, x+2, sp.Eval(x), 1e-12, "%d) x = %g", i+1, x)
		assert.InDelta(t, 1, sp.Deriv(x, 1), 1e-12, "%d) x = %g", i+1, x)
	}
}

func TestSplineSmooth(t *testing.T) {
	table := []struct {
		xs []float64
		f  func(float64) float64
	}{
		{linspace(0, math.Pi, 200), math.Sin},
		{linspace(2, -1, 300), math.Exp},
	}

	for i, test := range table {
		ys := make([]float64, len(test.xs))
		for j := range ys {
			ys[j] = test.f(test.xs[j])
		}
		sp := NewSpline(test.xs, ys)

		// Natural boundaries hurt the ends, so only check the interior.
		n := len(test.xs)
		for j := n / 10; j < n-n/10-1; j++ {
			x := (test.xs[j] + test.xs[j+1]) / 2
			assert.InDelta(t, test.f(x), sp.Eval(x), 1e-7,
				"%d) x = %g", i+1, x)
		}

		out := make([]float64, 3)
		sp.EvalAll(test.xs[:3], out)
		assert.InDeltaSlice(t, ys[:3], out, 1e-12, "%d) EvalAll", i+1)
	}
}

func TestSplineBounds(t *testing.T) {
	sp := NewSpline([]float64{0, 1, 2}, []float64{0, 1, 4})
	assert.True(t, sp.Contains(0))
	assert.True(t, sp.Contains(2))
	assert.False(t, sp.Contains(2.5))
	assert.InDelta(t, 4.0, sp.Eval(2), 1e-12)
	assert.Panics(t, func() { sp.Eval(-1) })
	assert.Panics(t, func() { NewSpline([]float64{0, 2, 1}, []float64{0, 1, 2}) })
	assert.Panics(t, func() { NewSpline([]float64{0, 1}, []float64{0, 1}) })
}

func TestTriDiag(t *testing.T) {
	as := []float64{0, 1, 1}
	bs := []float64{4, 4, 4}
	cs := []float64{1, 1, 0}
	rs := []float64{5, 6, 5}
	out := make([]float64, 3)
	TriDiagAt(as, bs, cs, rs, out)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, out, 1e-12)
}
