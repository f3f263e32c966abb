package profiles

import (
	"math"
	"testing"

	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/math/calc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCoords = []geom.Vec2{
	{0.3, 0.7}, {-1.2, 0.4}, {2.0, -1.5}, {-0.6, -0.9}, {0, 3}, {1.1, 0},
}

func TestCapabilities(t *testing.T) {
	assert.True(t, Mass.Has(Potential|Deflections))
	assert.False(t, (Convergence | Deflections).Has(Mass))
	assert.True(t, (Convergence | Deflections).Any(Mass))
	assert.Equal(t, "image|deflections", (Image | Deflections).String())
	assert.Equal(t, "none", Capability(0).String())

	lmp := NewLightMassSersic(NewSphSersic(geom.Vec2{}, 1, 1, 2), 1)
	assert.Equal(t, Image|Convergence|Deflections, lmp.Capabilities())
	assert.False(t, lmp.Capabilities().Has(Potential))
}

func TestLinearAndOperatedFlags(t *testing.T) {
	s := NewSphSersic(geom.Vec2{}, 1, 1, 2)
	table := []struct {
		p                LightProfile
		linear, operated bool
	}{
		{s, false, false},
		{Linear{s}, true, false},
		{Operated{s}, false, true},
		{Linear{Operated{s}}, true, true},
		{Operated{Linear{s}}, true, true},
	}
	for i, test := range table {
		assert.Equal(t, test.linear, IsLinear(test.p), "%d) linear", i+1)
		assert.Equal(t, test.operated, IsOperated(test.p), "%d) operated", i+1)
	}
}

func TestSersic(t *testing.T) {
	s := NewSphSersic(geom.Vec2{}, 3, 2, 4)
	assert.InDelta(t, 7.66925, s.SersicConstant(), 1e-5)

	img := s.Image([]geom.Vec2{{0, 2}, {-2, 0}})
	assert.InDelta(t, 3, img[0], 1e-12)
	assert.InDelta(t, 3, img[1], 1e-12)

	// Exponential discs have an analytic enclosed luminosity.
	e := NewEllExponential(geom.Vec2{}, 0.2, 0.1, 2, 1.5)
	h := e.EffectiveRadius / e.SersicConstant()
	for i, r := range []float64{0.5, 1.5, 4} {
		expected := 2 * math.Exp(e.SersicConstant()) * 2 * math.Pi * h * h *
			(1 - math.Exp(-r/h)*(1+r/h))
		assert.InEpsilon(t, expected, e.LuminosityWithinCircle(r), 1e-6,
			"%d) radius %g", i+1, r)
	}

	// Half of the light lies within the effective radius.
	d := NewEllDevVaucouleurs(geom.Vec2{}, 0, 0, 1, 1)
	b := d.SersicConstant()
	total := 2 * math.Pi * 4 * math.Exp(b) * math.Gamma(8) / math.Pow(b, 8)
	assert.InEpsilon(t, 0.5, d.LuminosityWithinCircle(1)/total, 2e-3)
}

func TestEllipticalSersicImage(t *testing.T) {
	s := NewSersic(geom.Elliptical(geom.Vec2{1, 1}, 0.5, 0), 1, 1, 1)
	img := s.Image([]geom.Vec2{{1, 1.5}, {1.5, 1}, {1, 0.5}})
	// The major axis is along x, so light falls off faster along y.
	assert.Greater(t, img[0], img[1])
	assert.InDelta(t, img[0], img[2], 1e-12)
}

func TestGaussian(t *testing.T) {
	g := NewEllGaussian(geom.Vec2{0.5, 0}, 0, 0, 2, 0.7)
	img := g.Image([]geom.Vec2{{0.5, 0.7}})
	assert.InDelta(t, 2*math.Exp(-0.5), img[0], 1e-12)

	r := 1.3
	expected := 2 * 2 * math.Pi * 0.49 * (1 - math.Exp(-r*r/(2*0.49)))
	assert.InEpsilon(t, expected, g.LuminosityWithinCircle(r), 1e-8)
}

func TestBasis(t *testing.T) {
	g0 := NewEllGaussian(geom.Vec2{}, 0, 0, 1, 0.5)
	g1 := NewEllGaussian(geom.Vec2{}, 0, 0, 2, 1.0)
	b := &Basis{Profiles: []LightProfile{g0, Linear{g1}}}

	assert.Equal(t, g0.Image(testCoords), b.Image(testCoords))
	assert.Equal(t, g0.LuminosityWithinCircle(1), b.LuminosityWithinCircle(1))

	none := func(LightProfile) bool { return false }
	assert.Equal(t, make([]float64, len(testCoords)), b.ImageWhere(testCoords, none))
	assert.Equal(t, b.Image(testCoords), b.ImageWhere(testCoords, nil))
}

func TestSphIsothermal(t *testing.T) {
	m := NewSphIsothermal(geom.Vec2{}, 2)
	for i, c := range testCoords {
		r := c.Norm()
		kappa := m.Convergence([]geom.Vec2{c})[0]
		psi := m.Potential([]geom.Vec2{c})[0]
		alpha := m.Deflections([]geom.Vec2{c})[0]

		assert.InDelta(t, 1/r, kappa, 1e-12, "%d) convergence", i+1)
		assert.InDelta(t, 2*r, psi, 1e-12, "%d) potential", i+1)
		assert.InDelta(t, 2, alpha.Norm(), 1e-12, "%d) |deflection|", i+1)
		assert.InDelta(t, c.Angle(), alpha.Angle(), 1e-12, "%d) angle", i+1)
	}
	assert.InDelta(t, 4*math.Pi, m.MassAngularWithinCircle(2), 1e-12)
}

func TestRadialMinimumKeepsFinite(t *testing.T) {
	centre := geom.Vec2{0.25, -0.5}
	for i, m := range []MassProfile{
		NewSphIsothermal(centre, 1),
		NewEllIsothermal(centre, 0.1, 0.2, 1),
		NewSphNFW(centre, 0.5, 2),
		NewPointMass(centre, 1),
	} {
		kappa := m.Convergence([]geom.Vec2{centre})[0]
		psi := m.Potential([]geom.Vec2{centre})[0]
		alpha := m.Deflections([]geom.Vec2{centre})[0]
		assert.False(t, math.IsNaN(kappa) || math.IsInf(kappa, 0), "%d) kappa", i+1)
		assert.False(t, math.IsNaN(psi) || math.IsInf(psi, 0), "%d) psi", i+1)
		assert.False(t, math.IsNaN(alpha[0]) || math.IsNaN(alpha[1]),
			"%d) alpha", i+1)
	}
}

func TestNFWDeflectionVanishesAtCentre(t *testing.T) {
	m := NewSphNFW(geom.Vec2{}, 0.3, 1)
	prev := math.Inf(1)
	for i, r := range []float64{5e-3, 1e-4, 1e-6, 1e-7, 1e-8} {
		alpha := m.Deflections([]geom.Vec2{{0, r}})[0]
		// Leading term of 4 KappaS rs h(x) / x for x << 1.
		expect := 0.3 * r * (2*math.Log(2/r) - 1)
		assert.InEpsilon(t, expect, alpha[1], 1e-4, "%d) r = %g", i+1, r)
		assert.InDelta(t, 0, alpha[0], 1e-15, "%d) r = %g", i+1, r)
		assert.Less(t, alpha[1], prev, "%d) r = %g", i+1, r)
		prev = alpha[1]
	}

	lo, hi := nfwNearZero*(1-1e-9), nfwNearZero*(1+1e-9)
	assert.InEpsilon(t, nfwH(hi), nfwH(lo), 1e-7)
	assert.InEpsilon(t, nfwG(hi), nfwG(lo), 1e-7)
}

func TestKeetonMatchesIsothermal(t *testing.T) {
	sie := &Isothermal{geom.Elliptical(geom.Vec2{}, 0.6, 0), 1.6}
	rs := sie.rescaled()
	kappa := func(xi float64) float64 { return rs / xi }
	alphaCirc := func(xi float64) float64 { return 2 * rs }

	for i, p := range testCoords {
		analytic := sie.frameDeflection(p)
		numeric := keetonDeflections(p, 0.6, kappa, Numerics{})
		assert.InDelta(t, analytic[0], numeric[0], 1e-6, "%d) alpha_y", i+1)
		assert.InDelta(t, analytic[1], numeric[1], 1e-6, "%d) alpha_x", i+1)

		psi := keetonPotential(p, 0.6, alphaCirc, Numerics{})
		assert.InDelta(t, sie.Potential([]geom.Vec2{p})[0], psi, 1e-6,
			"%d) potential", i+1)
	}
}

func TestIsothermalRotation(t *testing.T) {
	a := &Isothermal{geom.Elliptical(geom.Vec2{}, 0.6, 0), 1.3}
	b := &Isothermal{geom.Elliptical(geom.Vec2{}, 0.6, 45), 1.3}
	theta := math.Pi / 4

	for i, p := range testCoords {
		rotated := b.Deflections([]geom.Vec2{p})[0]
		expected := a.Deflections([]geom.Vec2{p.Rotate(-theta)})[0].Rotate(theta)
		assert.InDelta(t, expected[0], rotated[0], 1e-12, "%d) y", i+1)
		assert.InDelta(t, expected[1], rotated[1], 1e-12, "%d) x", i+1)

		assert.InDelta(t,
			a.Convergence([]geom.Vec2{p.Rotate(-theta)})[0],
			b.Convergence([]geom.Vec2{p})[0], 1e-12, "%d) kappa", i+1)
	}
}

func TestPotentialGradientIsDeflection(t *testing.T) {
	table := []struct {
		m   MassProfile
		tol float64
	}{
		{NewEllIsothermal(geom.Vec2{0.1, -0.2}, 0.1, 0.05, 1.2), 1e-7},
		{NewSphNFW(geom.Vec2{0.1, 0.1}, 0.4, 1.5), 1e-7},
		{NewEllNFW(geom.Vec2{0, 0.2}, 0.15, -0.1, 0.4, 1.5), 1e-5},
		{NewPointMass(geom.Vec2{0.3, 0}, 0.8), 1e-7},
		{NewMassSheet(geom.Vec2{}, 0.3), 1e-7},
		{NewExternalShear(0.05, 0.03), 1e-7},
	}

	for i, test := range table {
		psi := func(y, x float64) float64 {
			return test.m.Potential([]geom.Vec2{{y, x}})[0]
		}
		for j, p := range testCoords {
			dy, dx := calc.Gradient(psi, p[0], p[1], 1e-2, 4)
			alpha := test.m.Deflections([]geom.Vec2{p})[0]
			assert.InDelta(t, alpha[0], dy, test.tol+1e-4*math.Abs(dy),
				"%d.%d) alpha_y", i+1, j+1)
			assert.InDelta(t, alpha[1], dx, test.tol+1e-4*math.Abs(dx),
				"%d.%d) alpha_x", i+1, j+1)
		}
	}
}

func TestNFW(t *testing.T) {
	sph := NewSphNFW(geom.Vec2{}, 0.3, 2)
	// x = 1 uses the series expansions and must be continuous with them.
	k := sph.Convergence([]geom.Vec2{{0, 2}, {0, 2 * (1 + 2*nfwNearOne)}})
	assert.InDelta(t, 0.2, k[0], 1e-12)
	assert.InDelta(t, k[0], k[1], 1e-4)
	assert.InDelta(t, nfwH(1), nfwH(1+1e-7), 1e-6)
	assert.InDelta(t, nfwG(1), nfwG(1-1e-7), 1e-6)

	// The analytic enclosed mass matches the integrated convergence.
	for i, r := range []float64{0.5, 2, 7} {
		numeric := withinCircle(sph.kappa, r, Numerics{})
		assert.InEpsilon(t, sph.MassAngularWithinCircle(r), numeric, 1e-4,
			"%d) radius %g", i+1, r)
	}

	// A barely elliptical profile matches the spherical one.
	ell := NewEllNFW(geom.Vec2{}, 1e-5, 0, 0.3, 2)
	sa, ea := sph.Deflections(testCoords), ell.Deflections(testCoords)
	sp, ep := sph.Potential(testCoords), ell.Potential(testCoords)
	for i := range testCoords {
		assert.InDelta(t, sa[i][0], ea[i][0], 1e-3*sa[i].Norm(), "%d) y", i+1)
		assert.InDelta(t, sa[i][1], ea[i][1], 1e-3*sa[i].Norm(), "%d) x", i+1)
		assert.InDelta(t, sp[i], ep[i], 1e-3*math.Abs(sp[i]), "%d) psi", i+1)
	}
}

func TestAnalyticMassProfiles(t *testing.T) {
	pm := NewPointMass(geom.Vec2{1, 0}, 2)
	alpha := pm.Deflections([]geom.Vec2{{1, 2}})[0]
	assert.InDelta(t, 0, alpha[0], 1e-12)
	assert.InDelta(t, 2, alpha[1], 1e-12)
	assert.Equal(t, []float64{0}, pm.Convergence([]geom.Vec2{{1, 2}}))
	assert.InDelta(t, 4*math.Pi, pm.MassAngularWithinCircle(1), 1e-12)

	sheet := NewMassSheet(geom.Vec2{}, 0.5)
	alpha = sheet.Deflections([]geom.Vec2{{2, -4}})[0]
	assert.InDeltaSlice(t, []float64{1, -2}, alpha[:], 1e-12)
	assert.InDelta(t, 0.5*math.Pi*4, sheet.MassAngularWithinCircle(2), 1e-12)

	shear := NewExternalShear(0.1, 0)
	alpha = shear.Deflections([]geom.Vec2{{0, 1}, {1, 0}})[0]
	assert.InDeltaSlice(t, []float64{0, 0.1}, alpha[:], 1e-12)
	alpha = shear.Deflections([]geom.Vec2{{1, 0}})[0]
	assert.InDeltaSlice(t, []float64{-0.1, 0}, alpha[:], 1e-12)
	assert.Equal(t, 0.0, shear.MassAngularWithinCircle(3))

	rotated := NewExternalShear(0, 0.1)
	assert.InDelta(t, 45, rotated.Angle, 1e-12)
	assert.InDelta(t, 0.1, rotated.Magnitude, 1e-12)
}

func TestSersicMass(t *testing.T) {
	light := NewSphSersic(geom.Vec2{}, 0.5, 1.2, 1.5)
	m := NewSersicMass(light, 2)
	require.Equal(t, Convergence|Deflections, m.Capabilities())

	assert.InDelta(t, 2*light.Image([]geom.Vec2{{0.4, 0.3}})[0],
		m.Convergence([]geom.Vec2{{0.4, 0.3}})[0], 1e-12)
	assert.InEpsilon(t, 2*light.LuminosityWithinCircle(1.7),
		m.MassAngularWithinCircle(1.7), 1e-6)
	assert.Equal(t, []float64{0, 0}, m.Potential([]geom.Vec2{{1, 1}, {2, 2}}))

	// Circular deflections are the enclosed mass over pi r.
	for i, p := range []geom.Vec2{{0, 1.5}, {0.8, -0.3}, {-2, 2}} {
		r := p.Norm()
		alpha := m.Deflections([]geom.Vec2{p})[0]
		assert.InEpsilon(t, m.MassAngularWithinCircle(r)/(math.Pi*r),
			alpha.Norm(), 1e-5, "%d) |deflection|", i+1)
	}
}
