package fit

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularInversion is returned when the amplitudes of the linear light
// profiles cannot be solved for, usually because two profiles produce the
// same image or one produces no flux in the masked region.
var ErrSingularInversion = errors.New("linear light profile inversion is singular")

// solveAmplitudes finds the amplitudes a minimising
// sum_i ((residual_i - sum_j a_j columns_j[i]) / noise_i)^2.
func solveAmplitudes(columns [][]float64, residual, noise []float64) ([]float64, error) {
	n, k := len(residual), len(columns)
	if k == 0 {
		return nil, nil
	}

	// Weighted mapping matrix, rows scaled by 1 / noise.
	m := mat.NewDense(n, k, nil)
	d := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		w := 1 / noise[i]
		d.SetVec(i, residual[i]*w)
		for j := 0; j < k; j++ {
			m.Set(i, j, columns[j][i]*w)
		}
	}

	var curvature mat.Dense
	curvature.Mul(m.T(), m)
	sym := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			sym.SetSym(i, j, curvature.At(i, j))
		}
	}
	var b mat.VecDense
	b.MulVec(m.T(), d)

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, ErrSingularInversion
	}
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, &b); err != nil {
		return nil, ErrSingularInversion
	}
	return x.RawVector().Data, nil
}
