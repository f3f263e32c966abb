package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/profiles"
)

// ErrUnknownKind is returned for profile kinds the loader does not
// recognize.
var ErrUnknownKind = errors.New("unknown profile kind")

// Model is a lens model loaded from YAML: its galaxies in file order.
type Model struct {
	Names    []string
	Galaxies []*galaxy.Galaxy
}

// Galaxy returns the galaxy with the given name.
func (m *Model) Galaxy(name string) (*galaxy.Galaxy, bool) {
	for i, n := range m.Names {
		if n == name {
			return m.Galaxies[i], true
		}
	}
	return nil, false
}

type modelDTO struct {
	Galaxies []galaxyDTO `yaml:"galaxies"`
}

type galaxyDTO struct {
	Name     string           `yaml:"name"`
	Redshift float64          `yaml:"redshift"`
	Hyper    *hyperDTO        `yaml:"hyper"`
	Profiles yaml.Node        `yaml:"profiles"`
	Pixel    *pixelizationDTO `yaml:"pixelization"`
}

type hyperDTO struct {
	ContributionFactor float64 `yaml:"contribution_factor"`
	NoiseFactor        float64 `yaml:"noise_factor"`
	NoisePower         float64 `yaml:"noise_power"`
}

type pixelizationDTO struct {
	Kind           string  `yaml:"kind"`
	Shape          [2]int  `yaml:"shape"`
	Regularization string  `yaml:"regularization"`
	Coefficient    float64 `yaml:"coefficient"`
}

// profileDTO is the union of the parameters of every profile kind.
type profileDTO struct {
	Kind            string     `yaml:"kind"`
	Centre          [2]float64 `yaml:"centre"`
	EllipticalComps [2]float64 `yaml:"elliptical_comps"`

	Intensity       float64 `yaml:"intensity"`
	EffectiveRadius float64 `yaml:"effective_radius"`
	SersicIndex     float64 `yaml:"sersic_index"`
	Sigma           float64 `yaml:"sigma"`

	EinsteinRadius   float64 `yaml:"einstein_radius"`
	KappaS           float64 `yaml:"kappa_s"`
	ScaleRadius      float64 `yaml:"scale_radius"`
	Kappa            float64 `yaml:"kappa"`
	MassToLightRatio float64 `yaml:"mass_to_light_ratio"`

	Linear   bool `yaml:"linear"`
	Operated bool `yaml:"operated"`

	// Profiles holds the members of a basis.
	Profiles []profileDTO `yaml:"profiles"`
}

// LoadModel reads a YAML model file.
func LoadModel(path string, s *Settings) (*Model, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseModel(bs, s)
	if err != nil {
		return nil, fmt.Errorf("I could not load the model %s: %w", path, err)
	}
	return m, nil
}

// ParseModel parses the contents of a YAML model file. Profiles are built
// with the numerical settings in s, or the defaults if s is nil.
func ParseModel(data []byte, s *Settings) (*Model, error) {
	if s == nil {
		s = DefaultSettings()
	}
	var dto modelDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, err
	}
	if len(dto.Galaxies) == 0 {
		return nil, fmt.Errorf("The model has no galaxies.")
	}

	m := &Model{}
	for i, gd := range dto.Galaxies {
		name := gd.Name
		if name == "" {
			name = fmt.Sprintf("galaxy_%d", i)
		}
		if _, ok := m.Galaxy(name); ok {
			return nil, fmt.Errorf("The galaxy name %q is used twice.", name)
		}

		g, err := toGalaxy(gd, s)
		if err != nil {
			return nil, fmt.Errorf("I could not build the galaxy %q: %w", name, err)
		}
		m.Names = append(m.Names, name)
		m.Galaxies = append(m.Galaxies, g)
	}
	return m, nil
}

func toGalaxy(gd galaxyDTO, s *Settings) (*galaxy.Galaxy, error) {
	opts := []galaxy.Option{}

	p := &gd.Profiles
	switch p.Kind {
	case 0:
	case yaml.MappingNode:
		// Content alternates keys and values in file order.
		for i := 0; i+1 < len(p.Content); i += 2 {
			name, value := p.Content[i].Value, p.Content[i+1]
			if value.Kind == yaml.SequenceNode {
				op := fmt.Sprintf("config.LoadModel(%q)", name)
				return nil, &galaxy.Error{Op: op,
					Kind: galaxy.KindConfiguration, Err: galaxy.ErrProfileList}
			}
			var pd profileDTO
			if err := value.Decode(&pd); err != nil {
				return nil, fmt.Errorf("I could not build the profile %q: %w", name, err)
			}
			prof, err := toProfile(pd, s)
			if err != nil {
				return nil, fmt.Errorf("I could not build the profile %q: %w", name, err)
			}
			opts = append(opts, galaxy.WithProfile(name, prof))
		}
	default:
		return nil, fmt.Errorf("The 'profiles' entry must map names to profiles.")
	}

	if gd.Hyper != nil {
		h := &galaxy.HyperGalaxy{
			ContributionFactor: gd.Hyper.ContributionFactor,
			NoiseFactor:        gd.Hyper.NoiseFactor,
			NoisePower:         gd.Hyper.NoisePower,
		}
		opts = append(opts, galaxy.WithHyperGalaxy(h, nil, nil))
	}
	if gd.Pixel != nil {
		pix := &galaxy.Pixelization{Kind: gd.Pixel.Kind, Shape: gd.Pixel.Shape}
		var reg *galaxy.Regularization
		if gd.Pixel.Regularization != "" {
			reg = &galaxy.Regularization{
				Kind: gd.Pixel.Regularization, Coefficient: gd.Pixel.Coefficient,
			}
		}
		opts = append(opts, galaxy.WithPixelization(pix, reg))
	}

	return galaxy.New(gd.Redshift, opts...)
}

func toProfile(pd profileDTO, s *Settings) (profiles.Profile, error) {
	g, err := pd.geometry(s)
	if err != nil {
		return nil, err
	}

	var p profiles.Profile
	switch pd.Kind {
	case "sersic", "exponential", "dev_vaucouleurs":
		sersic, err := pd.sersic(g)
		if err != nil {
			return nil, err
		}
		p = sersic
	case "gaussian":
		if pd.Sigma <= 0 {
			return nil, fmt.Errorf("The 'sigma' parameter is %g, but must be positive.", pd.Sigma)
		}
		p = &profiles.Gaussian{Geometry: g, Intensity: pd.Intensity, Sigma: pd.Sigma}
	case "basis":
		b := &profiles.Basis{}
		for i, member := range pd.Profiles {
			mp, err := toProfile(member, s)
			if err != nil {
				return nil, fmt.Errorf("I could not build basis member %d: %w", i, err)
			}
			lp, ok := mp.(profiles.LightProfile)
			if !ok {
				return nil, fmt.Errorf("Basis member %d (%s) is not a light "+
					"profile.", i, member.Kind)
			}
			b.Profiles = append(b.Profiles, lp)
		}
		p = b
	case "point_mass":
		p = &profiles.PointMass{Geometry: g, EinsteinRadius: pd.EinsteinRadius}
	case "isothermal":
		if pd.EinsteinRadius < 0 {
			return nil, fmt.Errorf("The 'einstein_radius' parameter is %g, but must be "+
				"non-negative.", pd.EinsteinRadius)
		}
		p = &profiles.Isothermal{Geometry: g, EinsteinRadius: pd.EinsteinRadius}
	case "nfw":
		if pd.ScaleRadius <= 0 {
			return nil, fmt.Errorf("The 'scale_radius' parameter is %g, but must be "+
				"positive.", pd.ScaleRadius)
		}
		p = &profiles.NFW{Geometry: g, KappaS: pd.KappaS,
			ScaleRadius: pd.ScaleRadius, Numerics: s.Numerics()}
	case "mass_sheet":
		p = &profiles.MassSheet{Geometry: g, Kappa: pd.Kappa}
	case "external_shear":
		p = profiles.NewExternalShear(pd.EllipticalComps[0], pd.EllipticalComps[1])
	case "sersic_mass", "light_mass_sersic":
		light, err := pd.sersic(g)
		if err != nil {
			return nil, err
		}
		sm := profiles.NewSersicMass(light, pd.MassToLightRatio)
		sm.Numerics = s.Numerics()
		if pd.Kind == "sersic_mass" {
			p = sm
		} else {
			p = &profiles.LightMassSersic{SersicMass: sm}
		}
	default:
		return nil, fmt.Errorf("I don't recognize the profile kind %q: %w", pd.Kind, ErrUnknownKind)
	}

	if pd.Linear || pd.Operated {
		lp, ok := p.(profiles.LightProfile)
		if !ok {
			return nil, fmt.Errorf("Only light profiles can be linear or "+
				"operated, not %s.", pd.Kind)
		}
		if pd.Operated {
			lp = profiles.Operated{LightProfile: lp}
		}
		if pd.Linear {
			lp = profiles.Linear{LightProfile: lp}
		}
		p = lp
	}
	return p, nil
}

func (pd profileDTO) geometry(s *Settings) (geom.Geometry, error) {
	e1, e2 := pd.EllipticalComps[0], pd.EllipticalComps[1]
	if e1*e1+e2*e2 >= 1 {
		return geom.Geometry{}, fmt.Errorf("The 'elliptical_comps' %v lie "+
			"outside the unit circle.", pd.EllipticalComps)
	}
	g := geom.FromEllipticalComps(geom.Vec2(pd.Centre), e1, e2)
	g.RadialMinimum = s.RadialMinimum
	return g, nil
}

func (pd profileDTO) sersic(g geom.Geometry) (*profiles.Sersic, error) {
	n := pd.SersicIndex
	switch pd.Kind {
	case "exponential":
		n = 1
	case "dev_vaucouleurs":
		n = 4
	}
	if pd.EffectiveRadius <= 0 {
		return nil, fmt.Errorf("The 'effective_radius' parameter is %g, but must be "+
			"positive.", pd.EffectiveRadius)
	} else if n <= 0 {
		return nil, fmt.Errorf("The 'sersic_index' parameter is %g, but must be positive.", n)
	}
	return profiles.NewSersic(g, pd.Intensity, pd.EffectiveRadius, n), nil
}
