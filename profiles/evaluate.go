package profiles

import (
	"math"

	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/math/calc"
)

// scalarField evaluates f at every coordinate after moving it into the
// frame of g.
func scalarField(
	g geom.Geometry, coords []geom.Vec2, f func(p geom.Vec2) float64,
) []float64 {
	frame := g.ToProfile(coords)
	out := make([]float64, len(frame))
	for i, p := range frame {
		out[i] = f(p)
	}
	return out
}

// vectorField evaluates f at every coordinate in the frame of g and rotates
// the results back into the original frame.
func vectorField(
	g geom.Geometry, coords []geom.Vec2, f func(p geom.Vec2) geom.Vec2,
) []geom.Vec2 {
	frame := g.ToProfile(coords)
	for i, p := range frame {
		frame[i] = f(p)
	}
	return g.FromProfile(frame)
}

// radial returns the vector of length a pointing along p.
func radial(p geom.Vec2, a float64) geom.Vec2 {
	return p.Scale(a / p.Norm())
}

// withinCircle integrates 2 pi r f(r) from zero to radius.
func withinCircle(f func(r float64) float64, radius float64, num Numerics) float64 {
	integrand := func(r float64) float64 { return 2 * math.Pi * r * f(r) }
	v, _ := calc.Integrate(integrand, 0, radius, num.options()...)
	return v
}

// The Keeton (2001) integrals give the lensing quantities of any elliptical
// profile whose convergence depends only on xi = sqrt(x^2 + y^2/q^2). The
// substitution u = t^2 removes the integrable u^(-1/2) singularity.

func keetonXi(p geom.Vec2, e, u float64) (xi, d float64) {
	y, x := p[0], p[1]
	d = 1 - e*u
	return math.Sqrt(u * (x*x + y*y/d)), d
}

// keetonDeflections returns the profile-frame deflection at p.
func keetonDeflections(
	p geom.Vec2, q float64, kappa func(xi float64) float64, num Numerics,
) geom.Vec2 {
	e := 1 - q*q
	j := func(n float64) float64 {
		f := func(t float64) float64 {
			xi, d := keetonXi(p, e, t*t)
			return 2 * t * kappa(xi) / math.Pow(d, n+0.5)
		}
		v, _ := calc.Integrate(f, 0, 1, num.options()...)
		return v
	}
	return geom.Vec2{q * p[0] * j(1), q * p[1] * j(0)}
}

// keetonPotential returns the potential at p given the deflection of the
// circularly symmetric profile with the same radial convergence.
func keetonPotential(
	p geom.Vec2, q float64, alphaCirc func(xi float64) float64, num Numerics,
) float64 {
	e := 1 - q*q
	f := func(t float64) float64 {
		u := t * t
		xi, d := keetonXi(p, e, u)
		return 2 * t * xi * alphaCirc(xi) / (u * math.Sqrt(d))
	}
	v, _ := calc.Integrate(f, 0, 1, num.options()...)
	return q / 2 * v
}
