/*
package plane sums galaxies which share a redshift and traces rays through
several such planes.

Per-galaxy quantities are independent, so a Plane may evaluate them
concurrently. Results are always summed in galaxy order afterwards, which
keeps the output identical regardless of scheduling.
*/
package plane

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
)

// ErrRedshiftMismatch is returned when a galaxy's redshift differs from
// that of the plane it is placed in.
var ErrRedshiftMismatch = errors.New("galaxy redshift does not match plane")

// Plane is an ordered list of galaxies at one redshift.
type Plane struct {
	Redshift float64
	Galaxies []*galaxy.Galaxy
	// Parallel evaluates galaxies concurrently when there is more than one.
	Parallel bool
}

// New creates a plane at the given redshift. Every galaxy must be at that
// redshift.
func New(redshift float64, galaxies ...*galaxy.Galaxy) (*Plane, error) {
	for i, g := range galaxies {
		if g == nil {
			return nil, fmt.Errorf("Galaxy %d of the plane is nil.", i)
		} else if g.Redshift != redshift {
			return nil, fmt.Errorf("Galaxy %d is at z = %g, but the plane is at z = %g: %w",
				i, g.Redshift, redshift, ErrRedshiftMismatch)
		}
	}
	return &Plane{Redshift: redshift, Galaxies: galaxies}, nil
}

// perGalaxy evaluates f on every galaxy, concurrently if the plane allows
// it, and returns the results in galaxy order.
func perGalaxy[T any](p *Plane, f func(g *galaxy.Galaxy) T) []T {
	out := make([]T, len(p.Galaxies))
	if !p.Parallel || len(p.Galaxies) < 2 {
		for i, g := range p.Galaxies {
			out[i] = f(g)
		}
		return out
	}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, g := range p.Galaxies {
		eg.Go(func() error {
			out[i] = f(g)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

func sumScalars(n int, fields [][]float64) []float64 {
	out := make([]float64, n)
	for _, f := range fields {
		for i := range out {
			out[i] += f[i]
		}
	}
	return out
}

func sumVectors(n int, fields [][]geom.Vec2) []geom.Vec2 {
	out := make([]geom.Vec2, n)
	for _, f := range fields {
		for i := range out {
			out[i] = out[i].Add(f[i])
		}
	}
	return out
}

// ImagesOfGalaxies returns the image of every galaxy, in order.
func (p *Plane) ImagesOfGalaxies(
	coords []geom.Vec2, filter galaxy.OperatedFilter,
) [][]float64 {
	return perGalaxy(p, func(g *galaxy.Galaxy) []float64 {
		return g.Image(coords, filter)
	})
}

// Image returns the summed image of the plane's galaxies.
func (p *Plane) Image(coords []geom.Vec2, filter galaxy.OperatedFilter) []float64 {
	return sumScalars(len(coords), p.ImagesOfGalaxies(coords, filter))
}

// Convergence returns the summed convergence of the plane's galaxies.
func (p *Plane) Convergence(coords []geom.Vec2) []float64 {
	return sumScalars(len(coords), perGalaxy(p, func(g *galaxy.Galaxy) []float64 {
		return g.Convergence(coords)
	}))
}

// Potential returns the summed lensing potential of the plane's galaxies.
func (p *Plane) Potential(coords []geom.Vec2) []float64 {
	return sumScalars(len(coords), perGalaxy(p, func(g *galaxy.Galaxy) []float64 {
		return g.Potential(coords)
	}))
}

// Deflections returns the summed deflection angles of the plane's galaxies.
func (p *Plane) Deflections(coords []geom.Vec2) []geom.Vec2 {
	return sumVectors(len(coords), perGalaxy(p, func(g *galaxy.Galaxy) []geom.Vec2 {
		return g.Deflections(coords)
	}))
}

// MassAngularWithinCircle sums the angular masses of the galaxies which have
// mass profiles. A plane without any is an error.
func (p *Plane) MassAngularWithinCircle(radius float64) (float64, error) {
	sum, found := 0.0, false
	for _, g := range p.Galaxies {
		if !g.HasMassProfile() {
			continue
		}
		m, err := g.MassAngularWithinCircle(radius)
		if err != nil {
			return 0, err
		}
		sum, found = sum+m, true
	}
	if !found {
		return 0, &galaxy.Error{Op: "plane.MassAngularWithinCircle",
			Kind: galaxy.KindNoMassProfile, Err: galaxy.ErrNoMassProfile}
	}
	return sum, nil
}

// LuminosityWithinCircle sums the luminosities of the galaxies which have
// light profiles. The boolean is false if none do.
func (p *Plane) LuminosityWithinCircle(radius float64) (float64, bool) {
	sum, found := 0.0, false
	for _, g := range p.Galaxies {
		if l, ok := g.LuminosityWithinCircle(radius); ok {
			sum, found = sum+l, true
		}
	}
	return sum, found
}

// HasLightProfile returns true if any galaxy has a light profile.
func (p *Plane) HasLightProfile() bool {
	return p.any((*galaxy.Galaxy).HasLightProfile)
}

// HasMassProfile returns true if any galaxy has a mass profile.
func (p *Plane) HasMassProfile() bool {
	return p.any((*galaxy.Galaxy).HasMassProfile)
}

// HasPixelization returns true if any galaxy carries a pixelization.
func (p *Plane) HasPixelization() bool {
	return p.any((*galaxy.Galaxy).HasPixelization)
}

// HasHyperGalaxy returns true if any galaxy has hyper calibration.
func (p *Plane) HasHyperGalaxy() bool {
	return p.any(func(g *galaxy.Galaxy) bool { return g.HyperGalaxy != nil })
}

func (p *Plane) any(f func(g *galaxy.Galaxy) bool) bool {
	for _, g := range p.Galaxies {
		if f(g) {
			return true
		}
	}
	return false
}

// HyperNoiseMap sums the hyper noise maps of every galaxy with a hyper
// calibration and hyper images. It returns nil if there are none.
func (p *Plane) HyperNoiseMap(noise []float64) []float64 {
	var out []float64
	for _, g := range p.Galaxies {
		contrib := g.ContributionMap()
		if contrib == nil {
			continue
		}
		hyper := g.HyperGalaxy.HyperNoiseMap(noise, contrib)
		if out == nil {
			out = make([]float64, len(noise))
		}
		for i := range out {
			out[i] += hyper[i]
		}
	}
	return out
}
