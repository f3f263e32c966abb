/*
package lensing derives lensing quantities from deflection fields.

Everything here works on a Deflector, so the same code serves single mass
profiles, galaxies, planes and multi-plane tracers. Derivatives are taken
numerically with centred finite differences, which makes the results valid
for mass distributions with no closed-form Jacobian.
*/
package lensing

import (
	"math"

	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/math/calc"
)

// DefaultOffset is the default finite-difference spacing in arc-seconds.
const DefaultOffset = 1e-3

// Deflector is anything with a deflection field.
type Deflector interface {
	Deflections(coords []geom.Vec2) []geom.Vec2
}

// PotentialSource is anything with a lensing potential.
type PotentialSource interface {
	Potential(coords []geom.Vec2) []float64
}

type params struct {
	offset float64
	order  int
}

// Option configures the finite differences used by this package.
type Option func(p *params)

// Offset sets the finite-difference spacing.
func Offset(h float64) Option {
	if h <= 0 {
		panic("Finite-difference offset must be positive.")
	}
	return func(p *params) { p.offset = h }
}

// Order sets the order of the finite-difference stencil, 2 or 4.
func Order(n int) Option {
	if n != 2 && n != 4 {
		panic("Finite-difference order must be 2 or 4.")
	}
	return func(p *params) { p.order = n }
}

func loadOptions(opts []Option) *params {
	p := &params{offset: DefaultOffset, order: 2}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// stencil returns the offsets (in units of the spacing) of a centred
// stencil of the given order.
func stencil(order int) []float64 {
	if order == 4 {
		return []float64{-2, -1, 0, 1, 2}
	}
	return []float64{-1, 0, 1}
}

// shifted returns every coordinate displaced by each offset along dim. The
// coordinates for offset i occupy [i*len(coords), (i+1)*len(coords)).
func shifted(coords []geom.Vec2, offsets []float64, h float64, dim int) []geom.Vec2 {
	n := len(coords)
	out := make([]geom.Vec2, n*len(offsets))
	for i, o := range offsets {
		for k, c := range coords {
			c[dim] += o * h
			out[i*n+k] = c
		}
	}
	return out
}

// partials differentiates the nc-component field f along dim at every
// coordinate. The result is indexed [component][coordinate].
func partials(
	coords []geom.Vec2, dim, nc int, p *params,
	f func(coords []geom.Vec2) [][]float64,
) [][]float64 {
	offsets := stencil(p.order)
	m, n, mid := len(offsets), len(coords), len(offsets)/2
	vals := f(shifted(coords, offsets, p.offset, dim))

	ts := make([]float64, m)
	for i := range ts {
		ts[i] = offsets[i] * p.offset
	}
	ys, buf := make([]float64, m), make([]float64, m)

	out := make([][]float64, nc)
	for c := range out {
		out[c] = make([]float64, n)
		for k := 0; k < n; k++ {
			for i := 0; i < m; i++ {
				ys[i] = vals[c][i*n+k]
			}
			out[c][k] = calc.Deriv(ts, ys, p.order, calc.Out(buf))[mid]
		}
	}
	return out
}

func deflectionComponents(d Deflector) func([]geom.Vec2) [][]float64 {
	return func(coords []geom.Vec2) [][]float64 {
		alpha := d.Deflections(coords)
		ay, ax := make([]float64, len(alpha)), make([]float64, len(alpha))
		for i := range alpha {
			ay[i], ax[i] = alpha[i][0], alpha[i][1]
		}
		return [][]float64{ay, ax}
	}
}

// Jacobian is the lensing Jacobian A = I - d(alpha)/d(theta) at one point,
// indexed in (y, x) order: A[0][1] = -d(alpha_y)/dx and
// A[1][0] = -d(alpha_x)/dy.
type Jacobian [2][2]float64

// Jacobians evaluates the lensing Jacobian of d at every coordinate.
func Jacobians(d Deflector, coords []geom.Vec2, opts ...Option) []Jacobian {
	p := loadOptions(opts)
	f := deflectionComponents(d)
	dY := partials(coords, 0, 2, p, f)
	dX := partials(coords, 1, 2, p, f)

	out := make([]Jacobian, len(coords))
	for k := range out {
		out[k] = Jacobian{
			{1 - dY[0][k], -dX[0][k]},
			{-dY[1][k], 1 - dX[1][k]},
		}
	}
	return out
}

// Convergence returns 1 - trace(A)/2.
func (a Jacobian) Convergence() float64 {
	return 1 - 0.5*(a[0][0]+a[1][1])
}

// ShearYX returns the shear components (gamma_2, gamma_1). Off-diagonal
// elements are averaged.
func (a Jacobian) ShearYX() geom.Vec2 {
	gamma1 := 0.5 * (a[0][0] - a[1][1])
	gamma2 := -0.5 * (a[0][1] + a[1][0])
	return geom.Vec2{gamma2, gamma1}
}

// Shear returns the shear magnitude
// sqrt((A[0][0] - A[1][1])^2 + 4 A[0][1]^2) / 2.
func (a Jacobian) Shear() float64 {
	d := a[0][0] - a[1][1]
	return 0.5 * math.Sqrt(d*d+4*a[0][1]*a[0][1])
}

// Det returns the determinant of A.
func (a Jacobian) Det() float64 {
	return a[0][0]*a[1][1] - a[0][1]*a[1][0]
}

// Magnification returns 1 / det(A).
func (a Jacobian) Magnification() float64 { return 1 / a.Det() }

// TangentialEigenvalue returns 1 - convergence - shear.
func (a Jacobian) TangentialEigenvalue() float64 {
	return 1 - a.Convergence() - a.Shear()
}

// RadialEigenvalue returns 1 - convergence + shear.
func (a Jacobian) RadialEigenvalue() float64 {
	return 1 - a.Convergence() + a.Shear()
}

// Asymmetry returns |A[0][1] - A[1][0]|, which vanishes for any deflection
// field derived from a potential.
func (a Jacobian) Asymmetry() float64 {
	return math.Abs(a[0][1] - a[1][0])
}

func jacobianField(
	d Deflector, coords []geom.Vec2, opts []Option, f func(a Jacobian) float64,
) []float64 {
	jac := Jacobians(d, coords, opts...)
	out := make([]float64, len(jac))
	for i := range jac {
		out[i] = f(jac[i])
	}
	return out
}

// ConvergenceViaJacobian returns the convergence of d derived from its
// Jacobian.
func ConvergenceViaJacobian(d Deflector, coords []geom.Vec2, opts ...Option) []float64 {
	return jacobianField(d, coords, opts, Jacobian.Convergence)
}

// ShearViaJacobian returns the shear magnitude of d.
func ShearViaJacobian(d Deflector, coords []geom.Vec2, opts ...Option) []float64 {
	return jacobianField(d, coords, opts, Jacobian.Shear)
}

// ShearYX returns the (gamma_2, gamma_1) shear field of d.
func ShearYX(d Deflector, coords []geom.Vec2, opts ...Option) []geom.Vec2 {
	jac := Jacobians(d, coords, opts...)
	out := make([]geom.Vec2, len(jac))
	for i := range jac {
		out[i] = jac[i].ShearYX()
	}
	return out
}

// Magnification returns 1 / det(A) for every coordinate.
func Magnification(d Deflector, coords []geom.Vec2, opts ...Option) []float64 {
	return jacobianField(d, coords, opts, Jacobian.Magnification)
}

// TangentialEigenvalues returns 1 - convergence - shear for every
// coordinate.
func TangentialEigenvalues(d Deflector, coords []geom.Vec2, opts ...Option) []float64 {
	return jacobianField(d, coords, opts, Jacobian.TangentialEigenvalue)
}

// RadialEigenvalues returns 1 - convergence + shear for every coordinate.
func RadialEigenvalues(d Deflector, coords []geom.Vec2, opts ...Option) []float64 {
	return jacobianField(d, coords, opts, Jacobian.RadialEigenvalue)
}

// DeflectionsViaPotential returns the deflection field as the numerical
// gradient of the potential.
func DeflectionsViaPotential(
	s PotentialSource, coords []geom.Vec2, opts ...Option,
) []geom.Vec2 {
	p := loadOptions(opts)
	f := func(coords []geom.Vec2) [][]float64 {
		return [][]float64{s.Potential(coords)}
	}
	dY := partials(coords, 0, 1, p, f)[0]
	dX := partials(coords, 1, 1, p, f)[0]

	out := make([]geom.Vec2, len(coords))
	for k := range out {
		out[k] = geom.Vec2{dY[k], dX[k]}
	}
	return out
}
