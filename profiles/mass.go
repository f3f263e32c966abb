package profiles

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/lensfish/geom"
)

// PointMass is a point of mass with the given Einstein radius. Its
// convergence is zero everywhere except the centre, where it is undefined,
// so Convergence returns zeros.
type PointMass struct {
	Geometry       geom.Geometry
	EinsteinRadius float64
}

// NewPointMass creates a point mass.
func NewPointMass(centre geom.Vec2, einsteinRadius float64) *PointMass {
	return &PointMass{geom.Spherical(centre), einsteinRadius}
}

func (m *PointMass) Capabilities() Capability { return Mass }

func (m *PointMass) Convergence(coords []geom.Vec2) []float64 {
	return make([]float64, len(coords))
}

func (m *PointMass) Potential(coords []geom.Vec2) []float64 {
	r2 := m.EinsteinRadius * m.EinsteinRadius
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		return r2 * math.Log(p.Norm())
	})
}

func (m *PointMass) Deflections(coords []geom.Vec2) []geom.Vec2 {
	r2 := m.EinsteinRadius * m.EinsteinRadius
	return vectorField(m.Geometry, coords, func(p geom.Vec2) geom.Vec2 {
		return radial(p, r2/p.Norm())
	})
}

func (m *PointMass) MassAngularWithinCircle(radius float64) float64 {
	return math.Pi * m.EinsteinRadius * m.EinsteinRadius
}

// MassSheet is a uniform sheet of convergence Kappa.
type MassSheet struct {
	Geometry geom.Geometry
	Kappa    float64
}

// NewMassSheet creates a mass sheet.
func NewMassSheet(centre geom.Vec2, kappa float64) *MassSheet {
	return &MassSheet{geom.Spherical(centre), kappa}
}

func (m *MassSheet) Capabilities() Capability { return Mass }

func (m *MassSheet) Convergence(coords []geom.Vec2) []float64 {
	out := make([]float64, len(coords))
	for i := range out {
		out[i] = m.Kappa
	}
	return out
}

func (m *MassSheet) Potential(coords []geom.Vec2) []float64 {
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		r := p.Norm()
		return m.Kappa * r * r / 2
	})
}

func (m *MassSheet) Deflections(coords []geom.Vec2) []geom.Vec2 {
	return vectorField(m.Geometry, coords, func(p geom.Vec2) geom.Vec2 {
		return p.Scale(m.Kappa)
	})
}

func (m *MassSheet) MassAngularWithinCircle(radius float64) float64 {
	return math.Pi * radius * radius * m.Kappa
}

// ExternalShear is a constant shear of strength Magnitude whose axis lies
// at Angle degrees counter-clockwise from the positive x-axis. It is always
// centred on the origin.
type ExternalShear struct {
	Magnitude float64
	Angle     float64
}

// NewExternalShear creates a shear from its elliptical components.
func NewExternalShear(e1, e2 float64) *ExternalShear {
	return &ExternalShear{
		Magnitude: math.Hypot(e1, e2),
		Angle:     0.5 * math.Atan2(e2, e1) * 180 / math.Pi,
	}
}

func (s *ExternalShear) geometry() geom.Geometry {
	return geom.Geometry{AxisRatio: 1, Phi: s.Angle}
}

func (s *ExternalShear) Capabilities() Capability { return Mass }

func (s *ExternalShear) Convergence(coords []geom.Vec2) []float64 {
	return make([]float64, len(coords))
}

func (s *ExternalShear) Potential(coords []geom.Vec2) []float64 {
	return scalarField(s.geometry(), coords, func(p geom.Vec2) float64 {
		return s.Magnitude / 2 * (p[1]*p[1] - p[0]*p[0])
	})
}

func (s *ExternalShear) Deflections(coords []geom.Vec2) []geom.Vec2 {
	return vectorField(s.geometry(), coords, func(p geom.Vec2) geom.Vec2 {
		return geom.Vec2{-s.Magnitude * p[0], s.Magnitude * p[1]}
	})
}

func (s *ExternalShear) MassAngularWithinCircle(radius float64) float64 {
	return 0
}

// Isothermal is the singular isothermal ellipsoid, or sphere when the axis
// ratio is one. EinsteinRadius is the radius within which the mean
// convergence of the spherical profile is one.
type Isothermal struct {
	Geometry       geom.Geometry
	EinsteinRadius float64
}

// maxIsothermalAxisRatio keeps the elliptical deflection formula away from
// its q = 1 singularity.
const maxIsothermalAxisRatio = 0.99999

// NewSphIsothermal creates a singular isothermal sphere.
func NewSphIsothermal(centre geom.Vec2, einsteinRadius float64) *Isothermal {
	return &Isothermal{geom.Spherical(centre), einsteinRadius}
}

// NewEllIsothermal creates a singular isothermal ellipsoid.
func NewEllIsothermal(centre geom.Vec2, e1, e2, einsteinRadius float64) *Isothermal {
	if einsteinRadius < 0 {
		panic(fmt.Sprintf("Einstein radius %g must be non-negative.", einsteinRadius))
	}
	return &Isothermal{geom.FromEllipticalComps(centre, e1, e2), einsteinRadius}
}

func (m *Isothermal) Capabilities() Capability { return Mass }

// rescaled returns the Einstein radius normalisation R / (1 + q).
func (m *Isothermal) rescaled() float64 {
	return m.EinsteinRadius / (1 + m.Geometry.AxisRatio)
}

func (m *Isothermal) Convergence(coords []geom.Vec2) []float64 {
	rs := m.rescaled()
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		return rs / m.Geometry.EllipticalRadius(p)
	})
}

// frameDeflection is the deflection at p in the profile frame.
func (m *Isothermal) frameDeflection(p geom.Vec2) geom.Vec2 {
	if m.Geometry.IsSpherical() {
		return radial(p, m.EinsteinRadius)
	}
	q := math.Min(m.Geometry.AxisRatio, maxIsothermalAxisRatio)
	s := math.Sqrt(1 - q*q)
	factor := 2 * m.rescaled() * q / s
	psi := math.Hypot(q*p[1], p[0])
	return geom.Vec2{
		factor * math.Atanh(s*p[0]/psi),
		factor * math.Atan(s*p[1]/psi),
	}
}

// Potential uses psi = x alpha_x + y alpha_y, which holds for any
// isothermal profile.
func (m *Isothermal) Potential(coords []geom.Vec2) []float64 {
	return scalarField(m.Geometry, coords, func(p geom.Vec2) float64 {
		a := m.frameDeflection(p)
		return p[0]*a[0] + p[1]*a[1]
	})
}

func (m *Isothermal) Deflections(coords []geom.Vec2) []geom.Vec2 {
	return vectorField(m.Geometry, coords, m.frameDeflection)
}

func (m *Isothermal) MassAngularWithinCircle(radius float64) float64 {
	return 2 * math.Pi * m.rescaled() * radius
}
