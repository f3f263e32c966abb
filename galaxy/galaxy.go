/*
package galaxy composes light and mass profiles into galaxies.

A Galaxy sums the quantities of its profiles. Quantities no profile can
produce come back as zeros shaped like the input coordinates, so galaxies
can always be summed further into planes.
*/
package galaxy

import (
	"fmt"
	"reflect"

	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/profiles"
)

// OperatedFilter selects light profiles by whether they already include the
// PSF.
type OperatedFilter int

const (
	// AllProfiles includes operated and non-operated profiles.
	AllProfiles OperatedFilter = iota
	// NotOperatedOnly includes only profiles which still need convolving.
	NotOperatedOnly
	// OperatedOnly includes only profiles which already include the PSF.
	OperatedOnly
)

func (f OperatedFilter) includes(p profiles.Profile) bool {
	switch f {
	case NotOperatedOnly:
		return !profiles.IsOperated(p)
	case OperatedOnly:
		return profiles.IsOperated(p)
	}
	return true
}

// Galaxy is a redshift plus an ordered set of uniquely named profiles.
// Profiles are fixed at construction. The hyper images are the only state
// which changes afterwards, and only between evaluations.
type Galaxy struct {
	Redshift float64

	names    []string
	profiles []profiles.Profile

	HyperGalaxy      *HyperGalaxy
	HyperModelImage  []float64
	HyperGalaxyImage []float64

	Pixelization   *Pixelization
	Regularization *Regularization
}

// Option configures a Galaxy during New.
type Option func(g *Galaxy) error

// WithProfile adds a profile under the given name. The value is checked at
// construction: it must be a single profiles.Profile, never a slice or
// array of them.
func WithProfile(name string, value any) Option {
	return func(g *Galaxy) error {
		op := fmt.Sprintf("galaxy.WithProfile(%q)", name)
		if name == "" {
			return &Error{op, KindConfiguration,
				fmt.Errorf("Profile names cannot be empty.")}
		}
		for _, n := range g.names {
			if n == name {
				return &Error{op, KindConfiguration,
					fmt.Errorf("The profile name %q is used twice.", name)}
			}
		}
		if value != nil {
			switch reflect.TypeOf(value).Kind() {
			case reflect.Slice, reflect.Array:
				return &Error{op, KindConfiguration, ErrProfileList}
			}
		}
		p, ok := value.(profiles.Profile)
		if !ok || p == nil || isNilPointer(value) {
			return &Error{op, KindConfiguration, ErrNotProfile}
		}
		g.names = append(g.names, name)
		g.profiles = append(g.profiles, p)
		return nil
	}
}

func isNilPointer(value any) bool {
	v := reflect.ValueOf(value)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// WithHyperGalaxy attaches hyper calibration parameters and the images they
// are computed from.
func WithHyperGalaxy(h *HyperGalaxy, hyperModelImage, hyperGalaxyImage []float64) Option {
	return func(g *Galaxy) error {
		g.HyperGalaxy = h
		g.HyperModelImage, g.HyperGalaxyImage = hyperModelImage, hyperGalaxyImage
		return nil
	}
}

// WithPixelization attaches a source reconstruction. Both halves of the
// pair are required.
func WithPixelization(pix *Pixelization, reg *Regularization) Option {
	return func(g *Galaxy) error {
		if (pix == nil) != (reg == nil) {
			return &Error{"galaxy.WithPixelization", KindConfiguration,
				fmt.Errorf("A pixelization needs a regularization and vice versa.")}
		}
		g.Pixelization, g.Regularization = pix, reg
		return nil
	}
}

// New creates a galaxy at the given redshift.
func New(redshift float64, opts ...Option) (*Galaxy, error) {
	g := &Galaxy{Redshift: redshift}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Names returns the profile names in insertion order.
func (g *Galaxy) Names() []string { return append([]string{}, g.names...) }

// Profiles returns the profiles in insertion order.
func (g *Galaxy) Profiles() []profiles.Profile {
	return append([]profiles.Profile{}, g.profiles...)
}

// Profile returns the profile with the given name.
func (g *Galaxy) Profile(name string) (profiles.Profile, bool) {
	for i, n := range g.names {
		if n == name {
			return g.profiles[i], true
		}
	}
	return nil, false
}

// ProfilesWith returns every profile having all the given capabilities.
func (g *Galaxy) ProfilesWith(c profiles.Capability) []profiles.Profile {
	out := []profiles.Profile{}
	for _, p := range g.profiles {
		if p.Capabilities().Has(c) {
			out = append(out, p)
		}
	}
	return out
}

// LightProfiles returns every profile which produces an image.
func (g *Galaxy) LightProfiles() []profiles.LightProfile {
	out := []profiles.LightProfile{}
	for _, p := range g.ProfilesWith(profiles.Image) {
		if lp, ok := p.(profiles.LightProfile); ok {
			out = append(out, lp)
		}
	}
	return out
}

// MassProfiles returns every profile which produces any lensing quantity.
func (g *Galaxy) MassProfiles() []profiles.MassProfile {
	out := []profiles.MassProfile{}
	for _, p := range g.profiles {
		if !p.Capabilities().Any(profiles.Mass) {
			continue
		}
		if mp, ok := p.(profiles.MassProfile); ok {
			out = append(out, mp)
		}
	}
	return out
}

// LinearLightProfiles returns the linear light profiles, including linear
// members of any Basis.
func (g *Galaxy) LinearLightProfiles() []profiles.LightProfile {
	out := []profiles.LightProfile{}
	var visit func(p profiles.LightProfile)
	visit = func(p profiles.LightProfile) {
		if profiles.IsLinear(p) {
			out = append(out, p)
		} else if b, ok := p.(*profiles.Basis); ok {
			for _, m := range b.Profiles {
				visit(m)
			}
		}
	}
	for _, p := range g.LightProfiles() {
		visit(p)
	}
	return out
}

// HasLightProfile returns true if any profile produces an image.
func (g *Galaxy) HasLightProfile() bool { return len(g.LightProfiles()) > 0 }

// HasMassProfile returns true if any profile produces lensing quantities.
func (g *Galaxy) HasMassProfile() bool { return len(g.MassProfiles()) > 0 }

// HasPixelization returns true if a source reconstruction is attached.
func (g *Galaxy) HasPixelization() bool { return g.Pixelization != nil }

// ImageList returns one image per light profile, in order. Linear profiles
// and profiles excluded by the filter contribute zeros. The filter applies
// to each member of a Basis, unless the Basis itself is operated.
func (g *Galaxy) ImageList(coords []geom.Vec2, filter OperatedFilter) [][]float64 {
	lps := g.LightProfiles()
	out := make([][]float64, len(lps))
	for i, p := range lps {
		b, isBasis := p.(*profiles.Basis)
		switch {
		case profiles.IsLinear(p):
			out[i] = make([]float64, len(coords))
		case isBasis:
			out[i] = b.ImageWhere(coords, func(m profiles.LightProfile) bool {
				return filter.includes(m)
			})
		case !filter.includes(p):
			out[i] = make([]float64, len(coords))
		default:
			out[i] = p.Image(coords)
		}
	}
	return out
}

// Image returns the summed image of the light profiles selected by filter.
func (g *Galaxy) Image(coords []geom.Vec2, filter OperatedFilter) []float64 {
	out := make([]float64, len(coords))
	for _, img := range g.ImageList(coords, filter) {
		for i := range out {
			out[i] += img[i]
		}
	}
	return out
}

// Convergence returns the summed convergence of the mass profiles.
func (g *Galaxy) Convergence(coords []geom.Vec2) []float64 {
	out := make([]float64, len(coords))
	for _, p := range g.MassProfiles() {
		if !p.Capabilities().Has(profiles.Convergence) {
			continue
		}
		for i, v := range p.Convergence(coords) {
			out[i] += v
		}
	}
	return out
}

// Potential returns the summed lensing potential of the mass profiles.
func (g *Galaxy) Potential(coords []geom.Vec2) []float64 {
	out := make([]float64, len(coords))
	for _, p := range g.MassProfiles() {
		if !p.Capabilities().Has(profiles.Potential) {
			continue
		}
		for i, v := range p.Potential(coords) {
			out[i] += v
		}
	}
	return out
}

// Deflections returns the summed deflection angles of the mass profiles.
func (g *Galaxy) Deflections(coords []geom.Vec2) []geom.Vec2 {
	out := make([]geom.Vec2, len(coords))
	for _, p := range g.MassProfiles() {
		if !p.Capabilities().Has(profiles.Deflections) {
			continue
		}
		for i, v := range p.Deflections(coords) {
			out[i] = out[i].Add(v)
		}
	}
	return out
}

// LuminosityWithinCircle sums the luminosities of the light profiles within
// radius. The boolean is false when the galaxy has no light profiles, in
// which case the luminosity is undefined rather than zero.
func (g *Galaxy) LuminosityWithinCircle(radius float64) (float64, bool) {
	lps := g.LightProfiles()
	if len(lps) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, p := range lps {
		sum += p.LuminosityWithinCircle(radius)
	}
	return sum, true
}

// MassAngularWithinCircle sums the angular masses of the mass profiles
// within radius. A galaxy without mass profiles is an error.
func (g *Galaxy) MassAngularWithinCircle(radius float64) (float64, error) {
	mps := g.MassProfiles()
	if len(mps) == 0 {
		return 0, &Error{"galaxy.MassAngularWithinCircle",
			KindNoMassProfile, ErrNoMassProfile}
	}
	sum := 0.0
	for _, p := range mps {
		sum += p.MassAngularWithinCircle(radius)
	}
	return sum, nil
}

// SetHyperImages replaces the hyper images. It must not be called while the
// galaxy is being evaluated.
func (g *Galaxy) SetHyperImages(hyperModelImage, hyperGalaxyImage []float64) {
	g.HyperModelImage, g.HyperGalaxyImage = hyperModelImage, hyperGalaxyImage
}

// ContributionMap returns the galaxy's contribution map, or nil if it has no
// hyper calibration or hyper images.
func (g *Galaxy) ContributionMap() []float64 {
	if g.HyperGalaxy == nil || g.HyperModelImage == nil || g.HyperGalaxyImage == nil {
		return nil
	}
	return g.HyperGalaxy.ContributionMap(g.HyperModelImage, g.HyperGalaxyImage)
}
