package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/lensing"
	"github.com/phil-mansfield/lensfish/math/calc"
	"github.com/phil-mansfield/lensfish/profiles"
	"github.com/phil-mansfield/lensfish/version"
)

// Header is the header line of a settings file, without brackets.
const Header = "lensfish"

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("increasing", validateIncreasing)
}

// validateIncreasing accepts integer slices in strictly increasing order.
func validateIncreasing(fl validator.FieldLevel) bool {
	steps, ok := fl.Field().Interface().([]int)
	if !ok {
		return false
	}
	for i := 1; i < len(steps); i++ {
		if steps[i] <= steps[i-1] {
			return false
		}
	}
	return true
}

// Settings holds every numerical tolerance and unit choice used when
// evaluating a model. It is passed explicitly to whatever needs it.
type Settings struct {
	Version string `validate:"required"`

	// JacobianOffset is the finite-difference step, in arc-seconds, used
	// for lensing Jacobians.
	JacobianOffset float64 `validate:"gt=0"`
	// PotentialOffset is the step used for deflections computed from the
	// gradient of the potential.
	PotentialOffset float64 `validate:"gt=0"`
	// StencilOrder is the finite-difference order, 2 or 4.
	StencilOrder int `validate:"oneof=2 4"`

	QuadRelTol   float64 `validate:"gt=0,lt=1"`
	QuadMaxOrder int     `validate:"gte=2"`

	// RadialMinimum is the smallest radius profiles are evaluated at.
	RadialMinimum float64 `validate:"gt=0"`

	FractionalAccuracy float64 `validate:"gt=0,lte=1"`
	SubSteps           []int   `validate:"min=1,increasing,dive,gt=0"`

	Parallel bool

	UnitLength string `validate:"oneof=arcsec kpc"`
	UnitMass   string `validate:"oneof=angular solMass"`
}

// DefaultSettings returns the settings used when no file is given.
func DefaultSettings() *Settings {
	return &Settings{
		Version:            version.SourceVersion,
		JacobianOffset:     lensing.DefaultOffset,
		PotentialOffset:    lensing.DefaultOffset,
		StencilOrder:       2,
		QuadRelTol:         calc.DefaultRelTol,
		QuadMaxOrder:       calc.DefaultMaxOrder,
		RadialMinimum:      geom.DefaultRadialMinimum,
		FractionalAccuracy: 0.9999,
		SubSteps:           []int{2, 4, 8, 16},
		Parallel:           false,
		UnitLength:         string(cosmo.Arcsec),
		UnitMass:           string(cosmo.Angular),
	}
}

func (s *Settings) vars() *Vars {
	d := DefaultSettings()
	vars := NewVars(Header)
	vars.String(&s.Version, "Version", d.Version)
	vars.Float(&s.JacobianOffset, "JacobianOffset", d.JacobianOffset)
	vars.Float(&s.PotentialOffset, "PotentialOffset", d.PotentialOffset)
	vars.Int(&s.StencilOrder, "StencilOrder", d.StencilOrder)
	vars.Float(&s.QuadRelTol, "QuadRelTol", d.QuadRelTol)
	vars.Int(&s.QuadMaxOrder, "QuadMaxOrder", d.QuadMaxOrder)
	vars.Float(&s.RadialMinimum, "RadialMinimum", d.RadialMinimum)
	vars.Float(&s.FractionalAccuracy, "FractionalAccuracy", d.FractionalAccuracy)
	vars.Ints(&s.SubSteps, "SubSteps", d.SubSteps)
	vars.Bool(&s.Parallel, "Parallel", d.Parallel)
	vars.String(&s.UnitLength, "UnitLength", d.UnitLength)
	vars.String(&s.UnitMass, "UnitMass", d.UnitMass)
	return vars
}

// ReadSettings reads and validates a settings file.
func ReadSettings(fname string) (*Settings, error) {
	s := &Settings{}
	if err := ReadFile(fname, s.vars()); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("The config file %s is invalid: %w", fname, err)
	}
	return s, nil
}

// ParseSettings reads and validates the text of a settings file.
func ParseSettings(source, text string) (*Settings, error) {
	s := &Settings{}
	if err := Read(source, text, s.vars()); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("The config file %s is invalid: %w", source, err)
	}
	return s, nil
}

// Validate checks every field. Settings written for a later version of
// the source are rejected.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, len(ve))
			for i, fe := range ve {
				msgs[i] = fmt.Sprintf("'%s' fails the '%s' check (value %v)",
					fe.Field(), fieldRule(fe), fe.Value())
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	later, err := version.Later(s.Version, version.SourceVersion)
	if err != nil {
		return fmt.Errorf("I couldn't parse the 'Version' variable: %w", err)
	} else if later {
		return fmt.Errorf("The 'Version' variable is set to %s, but the "+
			"version of the source is %s", s.Version, version.SourceVersion)
	}
	return nil
}

func fieldRule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// Numerics returns the quadrature settings used by numerically integrated
// profiles.
func (s *Settings) Numerics() profiles.Numerics {
	return profiles.Numerics{RelTol: s.QuadRelTol, MaxOrder: s.QuadMaxOrder}
}

// JacobianOptions returns the finite-difference options for lensing
// Jacobians.
func (s *Settings) JacobianOptions() []lensing.Option {
	return []lensing.Option{
		lensing.Offset(s.JacobianOffset), lensing.Order(s.StencilOrder),
	}
}

// PotentialOptions returns the finite-difference options for deflections
// computed from potentials.
func (s *Settings) PotentialOptions() []lensing.Option {
	return []lensing.Option{
		lensing.Offset(s.PotentialOffset), lensing.Order(s.StencilOrder),
	}
}

// Iterator returns an adaptive sub-gridding iterator over m.
func (s *Settings) Iterator(m *geom.Mask) (*geom.Iterator, error) {
	return geom.NewIterator(m, s.FractionalAccuracy, s.SubSteps)
}

// Units returns the length and mass units results are reported in.
func (s *Settings) Units() (cosmo.UnitLength, cosmo.UnitMass) {
	return cosmo.UnitLength(s.UnitLength), cosmo.UnitMass(s.UnitMass)
}

// ExampleConfig returns an example settings file.
func (s *Settings) ExampleConfig() string {
	d := DefaultSettings()
	steps := make([]string, len(d.SubSteps))
	for i, n := range d.SubSteps {
		steps[i] = fmt.Sprint(n)
	}

	return fmt.Sprintf(`[%s]
# Target version of lensfish. Settings written for a later version than the
# source are rejected. Defaults to the source version if not included.
Version = %s

# Finite-difference steps, in arc-seconds, for lensing Jacobians and for
# deflections computed from the gradient of the potential. StencilOrder is
# the order of the central differences: 2 or 4.
JacobianOffset = %g
PotentialOffset = %g
StencilOrder = %d

# Gauss-Legendre quadrature used by profiles without closed forms.
QuadRelTol = %g
QuadMaxOrder = %d

# Coordinates closer than this to a profile centre are pushed out to it.
RadialMinimum = %g

# Adaptive sub-gridding. A pixel stops being refined once consecutive sub
# sizes agree to FractionalAccuracy.
FractionalAccuracy = %g
SubSteps = %s

# Evaluate the galaxies of each plane in parallel.
Parallel = %v

# Units for reported lengths (arcsec, kpc) and masses (angular, solMass).
UnitLength = %s
UnitMass = %s`, Header, d.Version, d.JacobianOffset, d.PotentialOffset,
		d.StencilOrder, d.QuadRelTol, d.QuadMaxOrder, d.RadialMinimum,
		d.FractionalAccuracy, strings.Join(steps, ", "), d.Parallel,
		d.UnitLength, d.UnitMass)
}
