/*
package profiles implements the light and mass profiles galaxies are built
from.

Every profile is an immutable value evaluated on slices of (y, x)
coordinates in arc-seconds. Evaluation is an explicit three-step pipeline:
coordinates are moved into the profile's frame (geom.Geometry.ToProfile),
the profile's pure function is applied at every point and, for vector
quantities, the result is rotated back into the original frame.

A profile advertises what it can compute through its Capabilities, which is
how galaxies decide which profiles contribute to which quantity.
*/
package profiles

import (
	"strings"

	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/math/calc"
)

// Capability is a bit set of the quantities a profile can produce.
type Capability uint8

const (
	Image Capability = 1 << iota
	Convergence
	Potential
	Deflections

	// Mass is the full set of lensing capabilities.
	Mass = Convergence | Potential | Deflections
)

// Has returns true if c contains every capability in other.
func (c Capability) Has(other Capability) bool { return c&other == other }

// Any returns true if c shares at least one capability with other.
func (c Capability) Any(other Capability) bool { return c&other != 0 }

func (c Capability) String() string {
	names := []string{}
	for i, name := range []string{
		"image", "convergence", "potential", "deflections",
	} {
		if c&(1<<uint(i)) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Profile is anything that can be placed in a galaxy.
type Profile interface {
	Capabilities() Capability
}

// LightProfile produces a surface brightness image.
type LightProfile interface {
	Profile
	Image(coords []geom.Vec2) []float64
	// LuminosityWithinCircle integrates the profile's circularly symmetric
	// intensity out to radius.
	LuminosityWithinCircle(radius float64) float64
}

// MassProfile produces lensing quantities. Profiles which lack Potential in
// their Capabilities return zeros from Potential.
type MassProfile interface {
	Profile
	Convergence(coords []geom.Vec2) []float64
	Potential(coords []geom.Vec2) []float64
	Deflections(coords []geom.Vec2) []geom.Vec2
	// MassAngularWithinCircle integrates the convergence of the circularly
	// symmetric profile out to radius. The result is in arc-seconds^2.
	MassAngularWithinCircle(radius float64) float64
}

// Numerics controls the quadrature used by profiles without closed-form
// solutions. Zero values select the calc package defaults.
type Numerics struct {
	RelTol   float64
	MaxOrder int
}

func (n Numerics) options() []calc.IntegrateOption {
	opts := []calc.IntegrateOption{}
	if n.RelTol > 0 {
		opts = append(opts, calc.RelTol(n.RelTol))
	}
	if n.MaxOrder > 0 {
		min := calc.DefaultMinOrder
		if n.MaxOrder < min {
			min = n.MaxOrder
		}
		opts = append(opts, calc.Orders(min, n.MaxOrder))
	}
	return opts
}

// Linear marks a light profile whose amplitude is solved for by a linear
// inversion instead of being a parameter. Its Image is the image at the
// wrapped profile's own intensity, which sets the scale of the solved
// amplitude. Galaxies treat linear profiles as contributing nothing to their
// image until the amplitude is known.
type Linear struct {
	LightProfile
}

// Unwrap returns the wrapped profile.
func (l Linear) Unwrap() LightProfile { return l.LightProfile }

// Operated marks a light profile which already includes the PSF, so fits
// must not convolve it again.
type Operated struct {
	LightProfile
}

// Unwrap returns the wrapped profile.
func (o Operated) Unwrap() LightProfile { return o.LightProfile }

type unwrapper interface {
	Unwrap() LightProfile
}

// IsLinear returns true if p is, or wraps, a Linear profile.
func IsLinear(p Profile) bool {
	for {
		if _, ok := p.(Linear); ok {
			return true
		}
		u, ok := p.(unwrapper)
		if !ok {
			return false
		}
		p = u.Unwrap()
	}
}

// IsOperated returns true if p is, or wraps, an Operated profile.
func IsOperated(p Profile) bool {
	for {
		if _, ok := p.(Operated); ok {
			return true
		}
		u, ok := p.(unwrapper)
		if !ok {
			return false
		}
		p = u.Unwrap()
	}
}
