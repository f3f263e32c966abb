package lensing

import (
	"errors"
	"math"

	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/logging"
)

// ErrNoTangentialCurve is returned by Einstein radius and mass calculations
// when the grid contains no tangential critical curve.
var ErrNoTangentialCurve = errors.New("no tangential critical curve on grid")

// CriticalCurves holds the contours, in arc-seconds, where the tangential
// and radial eigenvalues of the lensing Jacobian vanish. Either list may be
// empty.
type CriticalCurves struct {
	Tangential []geom.Contour
	Radial     []geom.Contour
}

// All returns the tangential curves followed by the radial curves.
func (cc *CriticalCurves) All() []geom.Contour {
	out := make([]geom.Contour, 0, len(cc.Tangential)+len(cc.Radial))
	out = append(out, cc.Tangential...)
	return append(out, cc.Radial...)
}

// FindCriticalCurves traces the critical curves of d over g. The eigenvalue
// fields are laid out on g's sub-gridded native image, with masked pixels
// excluded, and contoured at zero.
func FindCriticalCurves(d Deflector, g *geom.Grid, opts ...Option) *CriticalCurves {
	jac := Jacobians(d, g.Coords, opts...)
	tan := make([]float64, len(jac))
	rad := make([]float64, len(jac))
	for i := range jac {
		tan[i] = jac[i].TangentialEigenvalue()
		rad[i] = jac[i].RadialEigenvalue()
	}

	cc := &CriticalCurves{
		Tangential: zeroContours(tan, g),
		Radial:     zeroContours(rad, g),
	}
	logging.L().Debug("lensing.critical_curves",
		"tangential", len(cc.Tangential), "radial", len(cc.Radial),
		"coords", g.Len())
	return cc
}

// zeroContours contours a field evaluated on g at zero and converts the
// contours to arc-seconds.
func zeroContours(field []float64, g *geom.Grid) []geom.Contour {
	native := geom.NewArray(field, g).Native(math.NaN())
	contours := geom.FindContours(native, 0)
	sub := g.SubSize()
	for _, c := range contours {
		for i := range c {
			c[i] = g.Mask.PixelToCoord(c[i][0], c[i][1], sub)
		}
	}
	return contours
}

// Caustics maps every critical-curve point into the source plane,
// caustic = point - deflection(point).
func Caustics(d Deflector, cc *CriticalCurves) *CriticalCurves {
	mapped := func(curves []geom.Contour) []geom.Contour {
		out := make([]geom.Contour, len(curves))
		for i, c := range curves {
			alpha := d.Deflections(c)
			out[i] = make(geom.Contour, len(c))
			for k := range c {
				out[i][k] = c[k].Sub(alpha[k])
			}
		}
		return out
	}
	return &CriticalCurves{
		Tangential: mapped(cc.Tangential),
		Radial:     mapped(cc.Radial),
	}
}

// TangentialArea returns the area enclosed by the largest tangential
// critical curve.
func (cc *CriticalCurves) TangentialArea() (float64, error) {
	if len(cc.Tangential) == 0 {
		return 0, ErrNoTangentialCurve
	}
	area := 0.0
	for _, c := range cc.Tangential {
		area = math.Max(area, c.Area())
	}
	return area, nil
}

// EinsteinRadius returns sqrt(area / pi) for the area enclosed by the
// largest tangential critical curve.
func (cc *CriticalCurves) EinsteinRadius() (float64, error) {
	area, err := cc.TangentialArea()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(area / math.Pi), nil
}

// EinsteinRadius returns the Einstein radius of d on g, in arc-seconds.
func EinsteinRadius(d Deflector, g *geom.Grid, opts ...Option) (float64, error) {
	return FindCriticalCurves(d, g, opts...).EinsteinRadius()
}

// EinsteinMassAngular returns pi R^2 for the Einstein radius R of d on g, in
// arc-seconds^2.
func EinsteinMassAngular(d Deflector, g *geom.Grid, opts ...Option) (float64, error) {
	r, err := EinsteinRadius(d, g, opts...)
	if err != nil {
		return 0, err
	}
	return math.Pi * r * r, nil
}

// Conversion turns angular Einstein radii and masses into other unit
// systems for a lens at RedshiftLens and a source at RedshiftSource.
type Conversion struct {
	Cosmology      *cosmo.FlatLambdaCDM
	RedshiftLens   float64
	RedshiftSource float64
}

// Length converts an angle in arc-seconds at the lens redshift.
func (c Conversion) Length(arcsec float64, unit cosmo.UnitLength) (float64, error) {
	f, err := c.Cosmology.LengthConversion(c.RedshiftLens, unit)
	if err != nil {
		return 0, err
	}
	return arcsec * f, nil
}

// Mass converts an angular mass in arc-seconds^2.
func (c Conversion) Mass(angular float64, unit cosmo.UnitMass) (float64, error) {
	f, err := c.Cosmology.MassConversion(c.RedshiftLens, c.RedshiftSource, unit)
	if err != nil {
		return 0, err
	}
	return angular * f, nil
}

// EinsteinRadiusIn returns the Einstein radius of d on g in the given unit.
func EinsteinRadiusIn(
	d Deflector, g *geom.Grid, conv Conversion, unit cosmo.UnitLength,
	opts ...Option,
) (float64, error) {
	r, err := EinsteinRadius(d, g, opts...)
	if err != nil {
		return 0, err
	}
	return conv.Length(r, unit)
}

// EinsteinMassIn returns the Einstein mass of d on g in the given unit.
func EinsteinMassIn(
	d Deflector, g *geom.Grid, conv Conversion, unit cosmo.UnitMass,
	opts ...Option,
) (float64, error) {
	m, err := EinsteinMassAngular(d, g, opts...)
	if err != nil {
		return 0, err
	}
	return conv.Mass(m, unit)
}
