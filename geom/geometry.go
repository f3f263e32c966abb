package geom

import (
	"math"
)

// DefaultRadialMinimum is the smallest radius a profile is ever evaluated
// at. Coordinates closer to a profile centre are pushed out to it.
const DefaultRadialMinimum = 1e-8

// Geometry is the reference frame of a profile: a centre, a minor-to-major
// axis ratio and the angle of the major axis, Phi, in degrees
// counter-clockwise from the positive x-axis.
type Geometry struct {
	Centre    Vec2
	AxisRatio float64
	Phi       float64
	// RadialMinimum overrides DefaultRadialMinimum when positive.
	RadialMinimum float64
}

// Spherical returns the geometry of a circularly symmetric profile.
func Spherical(centre Vec2) Geometry {
	return Geometry{Centre: centre, AxisRatio: 1}
}

// Elliptical returns a geometry parameterized by axis ratio and angle.
func Elliptical(centre Vec2, axisRatio, phi float64) Geometry {
	if axisRatio <= 0 || axisRatio > 1 {
		panic("Axis ratio must be in (0, 1].")
	}
	return Geometry{Centre: centre, AxisRatio: axisRatio, Phi: phi}
}

// FromEllipticalComps returns a geometry parameterized by the elliptical
// components (e1, e2).
func FromEllipticalComps(centre Vec2, e1, e2 float64) Geometry {
	q, phi := AxisRatioAndPhi(e1, e2)
	return Geometry{Centre: centre, AxisRatio: q, Phi: phi}
}

// AxisRatioAndPhi converts elliptical components into an axis ratio and an
// angle in degrees.
func AxisRatioAndPhi(e1, e2 float64) (axisRatio, phi float64) {
	f := math.Sqrt(e1*e1 + e2*e2)
	if f >= 1 {
		panic("Elliptical components must lie within the unit circle.")
	}
	axisRatio = (1 - f) / (1 + f)
	phi = 0.5 * math.Atan2(e2, e1) * 180 / math.Pi
	return axisRatio, phi
}

// EllipticalComps is the inverse of AxisRatioAndPhi.
func (g Geometry) EllipticalComps() (e1, e2 float64) {
	f := (1 - g.AxisRatio) / (1 + g.AxisRatio)
	theta := 2 * g.Phi * math.Pi / 180
	return f * math.Cos(theta), f * math.Sin(theta)
}

func (g Geometry) radialMinimum() float64 {
	if g.RadialMinimum > 0 {
		return g.RadialMinimum
	}
	return DefaultRadialMinimum
}

func (g Geometry) phiRadians() float64 { return g.Phi * math.Pi / 180 }

// ToProfile moves coordinates into the profile frame: it translates them by
// -Centre, pushes any point closer than the radial minimum out to it and
// rotates by -Phi.
func (g Geometry) ToProfile(coords []Vec2) []Vec2 {
	out := make([]Vec2, len(coords))
	rMin := g.radialMinimum()
	phi := g.phiRadians()
	for i := range coords {
		p := coords[i].Sub(g.Centre)
		r := p.Norm()
		if r < rMin {
			if r == 0 {
				p = Vec2{rMin / math.Sqrt2, rMin / math.Sqrt2}
			} else {
				p = p.Scale(rMin / r)
			}
		}
		out[i] = p.Rotate(-phi)
	}
	return out
}

// FromProfile rotates vectors computed in the profile frame back into the
// original frame. No translation is applied: this is for directions, such as
// deflection angles, not positions.
func (g Geometry) FromProfile(vs []Vec2) []Vec2 {
	phi := g.phiRadians()
	if phi == 0 {
		return vs
	}
	for i := range vs {
		vs[i] = vs[i].Rotate(phi)
	}
	return vs
}

// EllipticalRadius returns sqrt(x^2 + (y/q)^2) for a point already in the
// profile frame.
func (g Geometry) EllipticalRadius(p Vec2) float64 {
	return math.Hypot(p[1], p[0]/g.AxisRatio)
}

// EccentricRadius returns sqrt(q) times the elliptical radius of a point
// already in the profile frame.
func (g Geometry) EccentricRadius(p Vec2) float64 {
	return math.Sqrt(g.AxisRatio) * g.EllipticalRadius(p)
}

// IsSpherical returns true if the axis ratio is one.
func (g Geometry) IsSpherical() bool { return g.AxisRatio == 1 }
