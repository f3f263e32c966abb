package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/lensfish/cosmo"
	"github.com/phil-mansfield/lensfish/galaxy"
	"github.com/phil-mansfield/lensfish/geom"
	"github.com/phil-mansfield/lensfish/profiles"
)

type testVars struct {
	i  int
	f  float64
	s  string
	b  bool
	is []int
	fs []float64
	ss []string
	bs []bool
}

func (tv *testVars) vars() *Vars {
	vars := NewVars("test")
	vars.Int(&tv.i, "Int", 7)
	vars.Float(&tv.f, "Float", 1.5)
	vars.String(&tv.s, "String", "default")
	vars.Bool(&tv.b, "Bool", false)
	vars.Ints(&tv.is, "Ints", []int{1})
	vars.Floats(&tv.fs, "Floats", nil)
	vars.Strings(&tv.ss, "Strings", nil)
	vars.Bools(&tv.bs, "Bools", nil)
	return vars
}

func TestReadDefaults(t *testing.T) {
	tv := &testVars{}
	require.NoError(t, Read("defaults", "[test]\n", tv.vars()))
	assert.Equal(t, 7, tv.i)
	assert.Equal(t, 1.5, tv.f)
	assert.Equal(t, "default", tv.s)
	assert.False(t, tv.b)
	assert.Equal(t, []int{1}, tv.is)
}

func TestRead(t *testing.T) {
	text := `# leading comment
[test]
int = 41891
FLOAT = 2.5e3 # trailing comment

String =   dorothy
Bool = true
Ints = 1, 2 , 3
Floats = 1, 2.5 , 3
Strings = dorothy, maddy , sahil
Bools = true, false,    true
`
	tv := &testVars{}
	require.NoError(t, Read("text", text, tv.vars()))
	assert.Equal(t, 41891, tv.i)
	assert.Equal(t, 2500.0, tv.f)
	assert.Equal(t, "dorothy", tv.s)
	assert.True(t, tv.b)
	assert.Equal(t, []int{1, 2, 3}, tv.is)
	assert.Equal(t, []float64{1, 2.5, 3}, tv.fs)
	assert.Equal(t, []string{"dorothy", "maddy", "sahil"}, tv.ss)
	assert.Equal(t, []bool{true, false, true}, tv.bs)
}

func TestReadErrors(t *testing.T) {
	table := []struct {
		text, contains string
	}{
		{"", "header [test]"},
		{"[other]\nInt = 1", "header [test]"},
		{"Int = 1\n[test]", "header [test]"},
		{"[test]\nInt 1", "line 2"},
		{"[test]\n\n = 1", "line 3"},
		{"[test]\nMeow = 1", "'meow'"},
		{"[test]\nInt = 1\n# c\nint = 2", "Lines 2 and 4"},
		{"[test]\nInt = meow", "an int"},
		{"[test]\nFloats = 1, meow", "a float list"},
		{"[test]\nBool = meow", "a bool"},
	}
	for i := range table {
		tv := &testVars{}
		err := Read("file.config", table[i].text, tv.vars())
		require.Error(t, err, "%d) %q", i+1, table[i].text)
		assert.Contains(t, err.Error(), table[i].contains, "%d)", i+1)
	}
}

func TestParseList(t *testing.T) {
	x := []int{9}
	assert.False(t, parseList(&x, "1,meow,3", func(s string) (int, error) {
		return 0, errors.New("meow")
	}))
	assert.Equal(t, []int{9}, x)

	var fs []float64
	assert.True(t, parseList(&fs, "  ", parseFloat))
	assert.Empty(t, fs)
}

func TestStripComments(t *testing.T) {
	table := []struct {
		in, out  []string
		lineNums []int
	}{
		{[]string{}, []string{}, []int{}},
		{[]string{"meow"}, []string{"meow"}, []int{1}},
		{[]string{"#meow"}, []string{}, []int{}},
		{[]string{"meow", " # comment", "", "   mew "},
			[]string{"meow", "mew"}, []int{1, 4}},
	}
	for i := range table {
		out, lineNums := stripComments(table[i].in)
		assert.Equal(t, table[i].out, out, "%d)", i+1)
		assert.Equal(t, table[i].lineNums, lineNums, "%d)", i+1)
	}
}

func TestAssignment(t *testing.T) {
	table := []struct {
		line, name, val string
		ok              bool
	}{
		{"a=b", "a", "b", true},
		{"a", "", "", false},
		{"=b", "", "", false},
		{"c=", "c", "", true},
		{" A = x = y ", "a", "x = y", true},
	}
	for i := range table {
		name, val, ok := assignment(table[i].line)
		assert.Equal(t, table[i].ok, ok, "%d)", i+1)
		if ok {
			assert.Equal(t, table[i].name, name, "%d)", i+1)
			assert.Equal(t, table[i].val, val, "%d)", i+1)
		}
	}
}

func TestExampleConfigIsDefault(t *testing.T) {
	text := (&Settings{}).ExampleConfig()
	s, err := ParseSettings("example", text)
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	s, err = ParseSettings("empty", "[lensfish]")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettingsValidation(t *testing.T) {
	table := []struct {
		line, contains string
	}{
		{"JacobianOffset = 0", "JacobianOffset"},
		{"PotentialOffset = -1e-3", "PotentialOffset"},
		{"StencilOrder = 3", "StencilOrder"},
		{"QuadRelTol = 2", "QuadRelTol"},
		{"QuadMaxOrder = 1", "QuadMaxOrder"},
		{"RadialMinimum = 0", "RadialMinimum"},
		{"FractionalAccuracy = 1.5", "FractionalAccuracy"},
		{"SubSteps = 4, 2", "increasing"},
		{"SubSteps = 0, 2", "SubSteps"},
		{"SubSteps =", "SubSteps"},
		{"UnitLength = parsec", "UnitLength"},
		{"UnitMass = kg", "UnitMass"},
		{"Version = 99.0.0", "version of the source"},
		{"Version = meow", "'Version'"},
	}
	for i := range table {
		_, err := ParseSettings("bad.config", "[lensfish]\n"+table[i].line)
		require.Error(t, err, "%d) %s", i+1, table[i].line)
		assert.Contains(t, err.Error(), table[i].contains, "%d)", i+1)
	}

	s, err := ParseSettings("old.config", "[lensfish]\nVersion = 0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "0.0.1", s.Version)
}

func TestReadSettings(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "lensfish.config")
	text := "[lensfish]\nStencilOrder = 4\nJacobianOffset = 0.01\n" +
		"UnitLength = kpc\nUnitMass = solMass\nParallel = true\n"
	require.NoError(t, os.WriteFile(fname, []byte(text), 0644))

	s, err := ReadSettings(fname)
	require.NoError(t, err)
	assert.Equal(t, 4, s.StencilOrder)
	assert.True(t, s.Parallel)
	unitLength, unitMass := s.Units()
	assert.Equal(t, cosmo.Kpc, unitLength)
	assert.Equal(t, cosmo.SolMass, unitMass)
	assert.Len(t, s.JacobianOptions(), 2)
	assert.Len(t, s.PotentialOptions(), 2)

	it, err := s.Iterator(geom.Unmasked([2]int{3, 3}, 0.1, 1))
	require.NoError(t, err)
	assert.Equal(t, s.SubSteps, it.SubSteps)

	_, err = ReadSettings(filepath.Join(t.TempDir(), "missing.config"))
	assert.Error(t, err)
}

const modelYAML = `
galaxies:
  - name: lens
    redshift: 0.5
    profiles:
      mass:
        kind: isothermal
        centre: [0.1, -0.1]
        elliptical_comps: [0.1, 0.05]
        einstein_radius: 1.6
      shear:
        kind: external_shear
        elliptical_comps: [0.05, 0.0]
      halo:
        kind: nfw
        kappa_s: 0.1
        scale_radius: 10
      light:
        kind: dev_vaucouleurs
        intensity: 0.5
        effective_radius: 1.2
    hyper:
      contribution_factor: 0.1
      noise_factor: 2
      noise_power: 1.5
  - name: source
    redshift: 1.2
    profiles:
      bulge:
        kind: sersic
        centre: [0.05, 0.02]
        intensity: 1
        effective_radius: 0.3
        sersic_index: 2.5
        linear: true
      psf_model:
        kind: gaussian
        sigma: 0.1
        intensity: 2
        operated: true
      basis:
        kind: basis
        profiles:
          - kind: gaussian
            sigma: 0.2
            linear: true
          - kind: exponential
            effective_radius: 0.5
            intensity: 1
    pixelization:
      kind: rectangular
      shape: [20, 20]
      regularization: constant
      coefficient: 1.0
`

func TestParseModel(t *testing.T) {
	s := DefaultSettings()
	s.RadialMinimum = 1e-4
	s.QuadRelTol = 1e-6

	m, err := ParseModel([]byte(modelYAML), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"lens", "source"}, m.Names)

	lens, ok := m.Galaxy("lens")
	require.True(t, ok)
	assert.Equal(t, 0.5, lens.Redshift)
	assert.Equal(t, []string{"mass", "shear", "halo", "light"}, lens.Names())
	assert.True(t, lens.HasMassProfile())
	assert.True(t, lens.HasLightProfile())
	require.NotNil(t, lens.HyperGalaxy)
	assert.Equal(t, 1.5, lens.HyperGalaxy.NoisePower)

	p, _ := lens.Profile("mass")
	sie := p.(*profiles.Isothermal)
	assert.Equal(t, geom.Vec2{0.1, -0.1}, sie.Geometry.Centre)
	assert.Equal(t, 1e-4, sie.Geometry.RadialMinimum)
	e1, e2 := sie.Geometry.EllipticalComps()
	assert.InDelta(t, 0.1, e1, 1e-12)
	assert.InDelta(t, 0.05, e2, 1e-12)

	p, _ = lens.Profile("halo")
	assert.Equal(t, 1e-6, p.(*profiles.NFW).Numerics.RelTol)
	p, _ = lens.Profile("light")
	assert.Equal(t, 4.0, p.(*profiles.Sersic).SersicIndex)

	source, ok := m.Galaxy("source")
	require.True(t, ok)
	assert.True(t, source.HasPixelization())
	assert.Equal(t, [2]int{20, 20}, source.Pixelization.Shape)

	p, _ = source.Profile("bulge")
	assert.True(t, profiles.IsLinear(p))
	assert.False(t, profiles.IsOperated(p))
	p, _ = source.Profile("psf_model")
	assert.True(t, profiles.IsOperated(p))
	assert.Len(t, source.LinearLightProfiles(), 2)

	_, ok = m.Galaxy("meow")
	assert.False(t, ok)
}

func TestParseModelListRejected(t *testing.T) {
	text := `
galaxies:
  - redshift: 0.5
    profiles:
      light:
        - kind: sersic
          effective_radius: 1
        - kind: sersic
          effective_radius: 2
`
	m, err := ParseModel([]byte(text), nil)
	assert.Nil(t, m)
	assert.True(t, errors.Is(err, galaxy.ErrProfileList))
	assert.True(t, galaxy.IsKind(err, galaxy.KindConfiguration))
}

func TestParseModelErrors(t *testing.T) {
	table := []struct {
		text     string
		err      error
		contains string
	}{
		{"galaxies: []", nil, "The model has no galaxies."},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: meow}}}]", ErrUnknownKind,
			`I don't recognize the profile kind "meow"`},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: sersic}}}]", nil,
			"The 'effective_radius' parameter is 0"},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: gaussian}}}]", nil,
			"The 'sigma' parameter is 0"},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: nfw}}}]", nil,
			"The 'scale_radius' parameter is 0"},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: isothermal, elliptical_comps: [0.9, 0.9]}}}]", nil,
			"lie outside the unit circle."},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: isothermal, linear: true}}}]", nil,
			"Only light profiles can be linear"},
		{"galaxies: [{redshift: 0.5, profiles: [a, b]}]", nil,
			"The 'profiles' entry must map names"},
		{"galaxies: [{name: a, redshift: 0.5}, {name: a, redshift: 1}]", nil,
			`The galaxy name "a" is used twice.`},
		{"galaxies: [{redshift: 0.5, profiles: {a: {kind: basis, profiles: [{kind: isothermal}]}}}]", nil,
			"Basis member 0 (isothermal) is not a light profile."},
		{"galaxies: [{redshift: 0.5, pixelization: {kind: rectangular}}]", nil,
			"A pixelization needs a regularization"},
		{"galaxies: {", nil, "yaml"},
	}
	for i := range table {
		_, err := ParseModel([]byte(table[i].text), nil)
		require.Error(t, err, "%d) %s", i+1, table[i].text)
		if table[i].err != nil {
			assert.True(t, errors.Is(err, table[i].err), "%d) %v", i+1, err)
		}
		assert.Contains(t, err.Error(), table[i].contains, "%d)", i+1)
	}

	_, err := ParseModel([]byte("galaxies: [{redshift: 0.5, profiles: {a: {kind: meow}}}]"), nil)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), `I could not build the galaxy "galaxy_0": `+
		`I could not build the profile "a": `))
}

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	fname := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(fname, []byte(modelYAML), 0644))

	m, err := LoadModel(fname, DefaultSettings())
	require.NoError(t, err)
	assert.Len(t, m.Galaxies, 2)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("galaxies: []"), 0644))
	_, err = LoadModel(bad, DefaultSettings())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bad.yaml"))
}
