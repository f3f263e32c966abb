package profiles

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/lensfish/geom"
)

// NFW is the Navarro-Frenk-White profile projected onto the sky. KappaS is
// the convergence normalisation and ScaleRadius is in arc-seconds. The
// spherical profile is fully analytic; the elliptical profile integrates
// its deflections and potential numerically.
type NFW struct {
	Geometry    geom.Geometry
	KappaS      float64
	ScaleRadius float64
	Numerics    Numerics
}

// NewSphNFW creates a spherical NFW profile.
func NewSphNFW(centre geom.Vec2, kappaS, scaleRadius float64) *NFW {
	return newNFW(geom.Spherical(centre), kappaS, scaleRadius)
}

// NewEllNFW creates an elliptical NFW profile.
func NewEllNFW(centre geom.Vec2, e1, e2, kappaS, scaleRadius float64) *NFW {
	return newNFW(geom.FromEllipticalComps(centre, e1, e2), kappaS, scaleRadius)
}

func newNFW(g geom.Geometry, kappaS, scaleRadius float64) *NFW {
	if scaleRadius <= 0 {
		panic(fmt.Sprintf("Scale radius %g must be positive.", scaleRadius))
	}
	return &NFW{Geometry: g, KappaS: kappaS, ScaleRadius: scaleRadius}
}

func (m *NFW) Capabilities() Capability { return Mass }

// nfwNearOne is the distance from x = 1 inside which series expansions
// replace the 0/0 closed forms.
const nfwNearOne = 1e-4

// nfwF is the function F(x) of the projected NFW convergence.
func nfwF(x float64) float64 {
	switch {
	case x < 1:
		return math.Acosh(1/x) / math.Sqrt(1-x*x)
	case x > 1:
		return math.Acos(1/x) / math.Sqrt(x*x-1)
	}
	return 1
}

// nfwKappa returns the convergence at x = r / rs in units of KappaS.
func nfwKappa(x float64) float64 {
	if eps := x - 1; math.Abs(eps) < nfwNearOne {
		return 2 * (1.0/3 - 2*eps/5)
	}
	return 2 * (1 - nfwF(x)) / (x*x - 1)
}

// nfwNearZero is the x below which series expansions replace the closed
// forms of h and g, whose leading terms cancel there.
const nfwNearZero = 1e-3

// nfwH is the enclosed mass function, M(<x) = 4 pi KappaS rs^2 h(x).
func nfwH(x float64) float64 {
	switch {
	case x < nfwNearZero:
		l := math.Log(2 / x)
		return x*x*(2*l-1)/4 + x*x*x*x*(12*l-7)/32
	case x < 1:
		return math.Log(x/2) + math.Acosh(1/x)/math.Sqrt(1-x*x)
	case x > 1:
		return math.Log(x/2) + math.Acos(1/x)/math.Sqrt(x*x-1)
	}
	return math.Log(0.5) + 1
}

// nfwG is the potential function, psi = 2 KappaS rs^2 g(x).
func nfwG(x float64) float64 {
	l := math.Log(x / 2)
	switch {
	case x < nfwNearZero:
		return x*x*(-l)/2 + x*x*x*x*(-3*l-1)/16
	case x < 1:
		a := math.Acosh(1 / x)
		return l*l - a*a
	case x > 1:
		a := math.Acos(1 / x)
		return l*l + a*a
	}
	return l * l
}

func (m *NFW) kappa(xi float64) float64 {
	return m.KappaS * nfwKappa(xi/m.ScaleRadius)
}

// alphaCirc is the deflection of the spherical profile at radius r.
func (m *NFW) alphaCirc(r float64) float64 {
	x := r / m.ScaleRadius
	return 4 * m.KappaS * m.ScaleRadius * nfwH(x) / x
}

func (m *NFW) Convergence(coords []geom.Vec2) []float64 {
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		return m.kappa(m.Geometry.EllipticalRadius(p))
	})
}

func (m *NFW) Potential(coords []geom.Vec2) []float64 {
	if m.Geometry.IsSpherical() {
		k := 2 * m.KappaS * m.ScaleRadius * m.ScaleRadius
		return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
			return k * nfwG(p.Norm()/m.ScaleRadius)
		})
	}
	q := m.Geometry.AxisRatio
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		return keetonPotential(p, q, m.alphaCirc, m.Numerics)
	})
}

func (m *NFW) Deflections(coords []geom.Vec2) []geom.Vec2 {
	if m.Geometry.IsSpherical() {
		return vectorField(m.Geometry, coords, func(p geom.Vec2) geom.Vec2 {
			return radial(p, m.alphaCirc(p.Norm()))
		})
	}
	q := m.Geometry.AxisRatio
	return vectorField(m.Geometry, coords, func(p geom.Vec2) geom.Vec2 {
		return keetonDeflections(p, q, m.kappa, m.Numerics)
	})
}

func (m *NFW) MassAngularWithinCircle(radius float64) float64 {
	return 4 * math.Pi * m.KappaS * m.ScaleRadius * m.ScaleRadius *
		nfwH(radius/m.ScaleRadius)
}
