package profiles

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/lensfish/geom"
)

// Sersic is the Sersic surface brightness profile,
// I(r) = Intensity * exp(-b_n ((r / EffectiveRadius)^(1/n) - 1)), evaluated
// on the eccentric radius sqrt(q) * xi.
type Sersic struct {
	Geometry        geom.Geometry
	Intensity       float64
	EffectiveRadius float64
	SersicIndex     float64
}

// NewSersic creates a Sersic profile with the given frame.
func NewSersic(g geom.Geometry, intensity, effectiveRadius, sersicIndex float64) *Sersic {
	if effectiveRadius <= 0 {
		panic(fmt.Sprintf("Effective radius %g must be positive.", effectiveRadius))
	} else if sersicIndex <= 0 {
		panic(fmt.Sprintf("Sersic index %g must be positive.", sersicIndex))
	}
	return &Sersic{g, intensity, effectiveRadius, sersicIndex}
}

// NewSphSersic creates a circular Sersic profile.
func NewSphSersic(centre geom.Vec2, intensity, effectiveRadius, sersicIndex float64) *Sersic {
	return NewSersic(geom.Spherical(centre), intensity, effectiveRadius, sersicIndex)
}

// NewEllSersic creates an elliptical Sersic profile.
func NewEllSersic(
	centre geom.Vec2, e1, e2, intensity, effectiveRadius, sersicIndex float64,
) *Sersic {
	return NewSersic(geom.FromEllipticalComps(centre, e1, e2),
		intensity, effectiveRadius, sersicIndex)
}

// NewEllExponential creates an elliptical Sersic profile with n = 1.
func NewEllExponential(centre geom.Vec2, e1, e2, intensity, effectiveRadius float64) *Sersic {
	return NewEllSersic(centre, e1, e2, intensity, effectiveRadius, 1)
}

// NewEllDevVaucouleurs creates an elliptical Sersic profile with n = 4.
func NewEllDevVaucouleurs(centre geom.Vec2, e1, e2, intensity, effectiveRadius float64) *Sersic {
	return NewEllSersic(centre, e1, e2, intensity, effectiveRadius, 4)
}

func (s *Sersic) Capabilities() Capability { return Image }

// SersicConstant returns b_n, chosen so half the light lies within the
// effective radius (Ciotti & Bertin 1999 expansion).
func (s *Sersic) SersicConstant() float64 {
	n := s.SersicIndex
	return 2*n - 1.0/3 + 4/(405*n) + 46/(25515*n*n) +
		131/(1148175*n*n*n) - 2194697/(30690717750*n*n*n*n)
}

func (s *Sersic) intensityAt(r float64) float64 {
	b := s.SersicConstant()
	return s.Intensity * math.Exp(
		-b*(math.Pow(r/s.EffectiveRadius, 1/s.SersicIndex)-1),
	)
}

func (s *Sersic) Image(coords []geom.Vec2) []float64 {
	return scalarField(s.Geometry, coords, func(p geom.Vec2) float64 {
		return s.intensityAt(s.Geometry.EccentricRadius(p))
	})
}

func (s *Sersic) LuminosityWithinCircle(radius float64) float64 {
	return withinCircle(s.intensityAt, radius, Numerics{})
}

// Gaussian is the profile I(r) = Intensity * exp(-r^2 / (2 Sigma^2)) on the
// elliptical radius.
type Gaussian struct {
	Geometry  geom.Geometry
	Intensity float64
	Sigma     float64
}

// NewEllGaussian creates an elliptical Gaussian profile.
func NewEllGaussian(centre geom.Vec2, e1, e2, intensity, sigma float64) *Gaussian {
	if sigma <= 0 {
		panic(fmt.Sprintf("Sigma %g must be positive.", sigma))
	}
	return &Gaussian{geom.FromEllipticalComps(centre, e1, e2), intensity, sigma}
}

func (g *Gaussian) Capabilities() Capability { return Image }

func (g *Gaussian) intensityAt(r float64) float64 {
	return g.Intensity * math.Exp(-0.5*r*r/(g.Sigma*g.Sigma))
}

func (g *Gaussian) Image(coords []geom.Vec2) []float64 {
	return scalarField(g.Geometry, coords, func(p geom.Vec2) float64 {
		return g.intensityAt(g.Geometry.EllipticalRadius(p))
	})
}

func (g *Gaussian) LuminosityWithinCircle(radius float64) float64 {
	return withinCircle(g.intensityAt, radius, Numerics{})
}

// Basis is a light profile made of other light profiles, for example a
// shapelet or multi-Gaussian decomposition. Linear members contribute no
// light until their amplitudes are solved for.
type Basis struct {
	Profiles []LightProfile
}

func (b *Basis) Capabilities() Capability { return Image }

func (b *Basis) Image(coords []geom.Vec2) []float64 {
	return b.ImageWhere(coords, nil)
}

// ImageWhere sums the images of the non-linear members for which keep
// returns true. A nil keep includes every member.
func (b *Basis) ImageWhere(coords []geom.Vec2, keep func(LightProfile) bool) []float64 {
	out := make([]float64, len(coords))
	for _, p := range b.Profiles {
		if IsLinear(p) || (keep != nil && !keep(p)) {
			continue
		}
		for i, v := range p.Image(coords) {
			out[i] += v
		}
	}
	return out
}

func (b *Basis) LuminosityWithinCircle(radius float64) float64 {
	sum := 0.0
	for _, p := range b.Profiles {
		if !IsLinear(p) {
			sum += p.LuminosityWithinCircle(radius)
		}
	}
	return sum
}
