package profiles

import (
	"math"

	"github.com/phil-mansfield/lensfish/geom"
)

// SersicMass is a mass distribution tracing a Sersic light profile through
// a constant mass-to-light ratio. Its deflections are integrated
// numerically. It has no potential.
type SersicMass struct {
	Light            Sersic
	MassToLightRatio float64
	Numerics         Numerics
}

// NewSersicMass creates a mass profile from a Sersic light profile.
func NewSersicMass(light *Sersic, massToLightRatio float64) *SersicMass {
	return &SersicMass{Light: *light, MassToLightRatio: massToLightRatio}
}

func (m *SersicMass) Capabilities() Capability {
	return Convergence | Deflections
}

// kappa returns the convergence at elliptical radius xi.
func (m *SersicMass) kappa(xi float64) float64 {
	q := m.Light.Geometry.AxisRatio
	return m.MassToLightRatio * m.Light.intensityAt(math.Sqrt(q)*xi)
}

func (m *SersicMass) Convergence(coords []geom.Vec2) []float64 {
	g := m.Light.Geometry
	return scalarField(g, coords, func(p geom.Vec2) float64 {
		return m.kappa(g.EllipticalRadius(p))
	})
}

// Potential returns zeros.
func (m *SersicMass) Potential(coords []geom.Vec2) []float64 {
	return make([]float64, len(coords))
}

func (m *SersicMass) Deflections(coords []geom.Vec2) []geom.Vec2 {
	g := m.Light.Geometry
	return vectorField(g, coords, func(p geom.Vec2) geom.Vec2 {
		return keetonDeflections(p, g.AxisRatio, m.kappa, m.Numerics)
	})
}

func (m *SersicMass) MassAngularWithinCircle(radius float64) float64 {
	return withinCircle(func(r float64) float64 {
		return m.MassToLightRatio * m.Light.intensityAt(r)
	}, radius, m.Numerics)
}

// LightMassSersic is a Sersic profile which is both a light and a mass
// profile.
type LightMassSersic struct {
	*SersicMass
}

// NewLightMassSersic creates a light and mass Sersic profile.
func NewLightMassSersic(light *Sersic, massToLightRatio float64) *LightMassSersic {
	return &LightMassSersic{NewSersicMass(light, massToLightRatio)}
}

func (m *LightMassSersic) Capabilities() Capability {
	return Image | m.SersicMass.Capabilities()
}

func (m *LightMassSersic) Image(coords []geom.Vec2) []float64 {
	return m.Light.Image(coords)
}

func (m *LightMassSersic) LuminosityWithinCircle(radius float64) float64 {
	return m.Light.LuminosityWithinCircle(radius)
}
