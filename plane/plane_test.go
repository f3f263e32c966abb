package plane

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/profiles"
)

func newGalaxy(t *testing.T, z float64, named ...any) *galaxy.Galaxy {
	t.Helper()
	opts := []galaxy.Option{}
	for i := 0; i < len(named); i += 2 {
		opts = append(opts, galaxy.WithProfile(named[i].(string), named[i+1]))
	}
	g, err := galaxy.New(z, opts...)
	require.NoError(t, err)
	return g
}

func lensGalaxies(t *testing.T, z float64) []*galaxy.Galaxy {
	return []*galaxy.Galaxy{
		newGalaxy(t, z,
			"light", profiles.NewSphSersic(geom.Vec2{0.1, 0}, 1, 0.8, 2),
			"mass", profiles.NewEllIsothermal(geom.Vec2{0.1, 0}, 0.1, 0.05, 1.2),
		),
		newGalaxy(t, z,
			"light", profiles.NewEllExponential(geom.Vec2{-0.3, 0.4}, 0, 0.2, 2, 0.5),
			"mass", profiles.NewSphNFW(geom.Vec2{-0.3, 0.4}, 0.1, 5),
			"shear", profiles.NewExternalShear(0.02, -0.01),
		),
		newGalaxy(t, z),
	}
}

func TestNewPlaneErrors(t *testing.T) {
	g := newGalaxy(t, 0.5)
	_, err := New(1.0, g)
	assert.True(t, errors.Is(err, ErrRedshiftMismatch))
	assert.Contains(t, err.Error(), "Galaxy 0 is at z = 0.5, but the plane is at z = 1: ")

	_, err = New(0.5, g, nil)
	assert.EqualError(t, err, "Galaxy 1 of the plane is nil.")

	p, err := New(0.5)
	require.NoError(t, err)
	assert.Empty(t, p.Galaxies)
}

func TestPlaneSumsGalaxies(t *testing.T) {
	gals := lensGalaxies(t, 0.5)
	p, err := New(0.5, gals...)
	require.NoError(t, err)
	coords := geom.Uniform([2]int{6, 6}, 0.3, 2).Coords

	kappa := p.Convergence(coords)
	psi := p.Potential(coords)
	alpha := p.Deflections(coords)
	image := p.Image(coords, galaxy.AllProfiles)
	require.Len(t, kappa, len(coords))
	require.Len(t, alpha, len(coords))

	for i := range coords {
		k, s, im := 0.0, 0.0, 0.0
		var a geom.Vec2
		for _, g := range gals {
			k += g.Convergence(coords[i : i+1])[0]
			s += g.Potential(coords[i : i+1])[0]
			a = a.Add(g.Deflections(coords[i : i+1])[0])
			im += g.Image(coords[i:i+1], galaxy.AllProfiles)[0]
		}
		assert.InDelta(t, k, kappa[i], 1e-12)
		assert.InDelta(t, s, psi[i], 1e-12)
		assert.InDelta(t, a[0], alpha[i][0], 1e-12)
		assert.InDelta(t, a[1], alpha[i][1], 1e-12)
		assert.InDelta(t, im, image[i], 1e-12)
	}

	images := p.ImagesOfGalaxies(coords, galaxy.AllProfiles)
	require.Len(t, images, 3)
	for _, v := range images[2] {
		assert.Equal(t, 0.0, v)
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	gals := lensGalaxies(t, 0.5)
	serial, err := New(0.5, gals...)
	require.NoError(t, err)
	parallel, err := New(0.5, gals...)
	require.NoError(t, err)
	parallel.Parallel = true

	coords := geom.Uniform([2]int{8, 8}, 0.2, 1).Coords
	assert.Equal(t, serial.Convergence(coords), parallel.Convergence(coords))
	assert.Equal(t, serial.Potential(coords), parallel.Potential(coords))
	assert.Equal(t, serial.Deflections(coords), parallel.Deflections(coords))
	assert.Equal(t,
		serial.Image(coords, galaxy.NotOperatedOnly),
		parallel.Image(coords, galaxy.NotOperatedOnly))
}

func TestPlaneWithoutMass(t *testing.T) {
	p, err := New(0.5,
		newGalaxy(t, 0.5, "light", profiles.NewSphSersic(geom.Vec2{}, 1, 1, 1)),
		newGalaxy(t, 0.5),
	)
	require.NoError(t, err)
	coords := geom.Uniform([2]int{3, 4}, 0.5, 1).Coords

	assert.Equal(t, make([]float64, len(coords)), p.Convergence(coords))
	assert.Equal(t, make([]float64, len(coords)), p.Potential(coords))
	assert.Equal(t, make([]geom.Vec2, len(coords)), p.Deflections(coords))

	assert.True(t, p.HasLightProfile())
	assert.False(t, p.HasMassProfile())
	assert.False(t, p.HasPixelization())

	_, err = p.MassAngularWithinCircle(1)
	assert.True(t, galaxy.IsKind(err, galaxy.KindNoMassProfile))
	l, ok := p.LuminosityWithinCircle(1)
	assert.True(t, ok)
	assert.Greater(t, l, 0.0)
}

func TestPlaneMassAndLuminosity(t *testing.T) {
	p, err := New(0.5,
		newGalaxy(t, 0.5, "mass", profiles.NewSphIsothermal(geom.Vec2{}, 1)),
		newGalaxy(t, 0.5, "mass", profiles.NewPointMass(geom.Vec2{1, 1}, 0.5)),
	)
	require.NoError(t, err)

	m, err := p.MassAngularWithinCircle(2)
	require.NoError(t, err)
	// pi R r for the isothermal sphere plus pi R^2 for the point mass.
	assert.InEpsilon(t, math.Pi*2+math.Pi*0.25, m, 1e-6)

	_, ok := p.LuminosityWithinCircle(1)
	assert.False(t, ok)
}

func TestPlaneHyperNoise(t *testing.T) {
	g := newGalaxy(t, 0.5)
	p, err := New(0.5, g)
	require.NoError(t, err)
	noise := []float64{1, 2, 3}
	assert.Nil(t, p.HyperNoiseMap(noise))
	assert.False(t, p.HasHyperGalaxy())

	h := &galaxy.HyperGalaxy{ContributionFactor: 0, NoiseFactor: 2, NoisePower: 1}
	g.HyperGalaxy = h
	g.SetHyperImages([]float64{1, 1, 1}, []float64{1, 0.5, 0})
	assert.True(t, p.HasHyperGalaxy())
	assert.InDeltaSlice(t, []float64{2, 2, 0}, p.HyperNoiseMap(noise), 1e-12)
}

// halfCosmology halves every intermediate deflection.
type halfCosmology struct{}

func (halfCosmology) ScalingFactor(z1, z2, zFinal float64) float64 {
	switch {
	case z2 <= z1:
		return 0
	case z2 == zFinal:
		return 1
	}
	return 0.5
}

func TestNewTracerGroupsPlanes(t *testing.T) {
	gals := []*galaxy.Galaxy{
		newGalaxy(t, 2.0), newGalaxy(t, 0.5), newGalaxy(t, 1.0),
		newGalaxy(t, 0.5),
	}
	tr, err := NewTracer(gals, halfCosmology{}, false)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0, 2.0}, tr.Redshifts())
	assert.Len(t, tr.Planes[0].Galaxies, 2)
	assert.Equal(t, 2.0, tr.SourcePlane().Redshift)

	_, err = NewTracer(nil, halfCosmology{}, false)
	assert.True(t, errors.Is(err, ErrNoGalaxies))
}

func TestTraceGridsMultiPlane(t *testing.T) {
	lens0 := profiles.NewSphIsothermal(geom.Vec2{}, 1)
	lens1 := profiles.NewSphIsothermal(geom.Vec2{0.3, -0.2}, 0.4)
	gals := []*galaxy.Galaxy{
		newGalaxy(t, 0.5, "mass", lens0),
		newGalaxy(t, 1.0, "mass", lens1),
		newGalaxy(t, 2.0, "light", profiles.NewSphSersic(geom.Vec2{}, 1, 0.5, 1)),
	}
	tr, err := NewTracer(gals, halfCosmology{}, true)
	require.NoError(t, err)

	coords := geom.Uniform([2]int{5, 5}, 0.4, 1).Coords
	traced, err := tr.TraceGrids(context.Background(), coords)
	require.NoError(t, err)
	require.Len(t, traced, 3)

	a0 := lens0.Deflections(coords)
	for k := range coords {
		assert.Equal(t, coords[k], traced[0][k])
		expected := coords[k].Sub(a0[k].Scale(0.5))
		assert.InDeltaSlice(t, expected[:], traced[1][k][:], 1e-12)
	}

	a1 := lens1.Deflections(traced[1])
	alpha := tr.Deflections(coords)
	for k := range coords {
		src := coords[k].Sub(a0[k]).Sub(a1[k])
		assert.InDeltaSlice(t, src[:], traced[2][k][:], 1e-12)
		total := coords[k].Sub(src)
		assert.InDeltaSlice(t, total[:], alpha[k][:], 1e-12)
	}

	image, err := tr.Image(context.Background(), coords, galaxy.AllProfiles)
	require.NoError(t, err)
	expected := gals[2].Image(traced[2], galaxy.AllProfiles)
	assert.InDeltaSlice(t, expected, image, 1e-12)
}

func TestSingleLensMatchesPlane(t *testing.T) {
	lens := newGalaxy(t, 0.5,
		"mass", profiles.NewEllIsothermal(geom.Vec2{}, 0.2, 0, 1.5))
	source := newGalaxy(t, 1.0,
		"light", profiles.NewSphSersic(geom.Vec2{0.1, 0.1}, 1, 0.3, 1))
	tr, err := NewTracer([]*galaxy.Galaxy{source, lens}, cosmo.Planck15(), false)
	require.NoError(t, err)

	coords := geom.Uniform([2]int{4, 4}, 0.5, 1).Coords
	expected := tr.Planes[0].Deflections(coords)
	alpha := tr.Deflections(coords)
	for k := range coords {
		assert.InDeltaSlice(t, expected[k][:], alpha[k][:], 1e-10)
	}
	assert.Equal(t, tr.Planes[0].Convergence(coords), tr.Convergence(coords))
}

func TestTraceGridsCancelled(t *testing.T) {
	tr, err := NewTracer([]*galaxy.Galaxy{newGalaxy(t, 1)}, halfCosmology{}, false)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.TraceGrids(ctx, []geom.Vec2{{0, 0}})
	assert.ErrorIs(t, err, context.Canceled)
}
