package cosmo

import (
	"fmt"
	"math"
	"sync"

	"github.com/phil-mansfield/lensfish/math/calc"
	"github.com/phil-mansfield/lensfish/math/interpolate"
)

const (
	// Neutrino density fitting function constants (Komatsu et al. 2011).
	nuPrefactor = 0.22710731766
	nuP         = 1.83
	nuK         = 0.3173

	// The comoving distance table covers [tableZLo, tableZHi] but is only
	// used on [0, TableZMax], away from the natural spline boundaries.
	tableZLo  = -0.2
	tableZHi  = 11.0
	tableDz   = 0.005
	TableZMax = 10.0
)

// FlatLambdaCDM is a spatially flat cosmology with matter, a cosmological
// constant, photons and (possibly massive) neutrinos. Distances are in kpc.
//
// A FlatLambdaCDM is read-only after construction and safe for concurrent
// use.
type FlatLambdaCDM struct {
	H0, Om0, Tcmb0, Neff, Ob0 float64
	// MNu lists the neutrino masses in eV.
	MNu []float64

	ogamma0, onu0, ode0 float64
	nuY                 []float64
	nMassless           int

	once  sync.Once
	table *interpolate.Spline
}

// Planck15 returns the Planck 2015 cosmology (TT,TE,EE+lowP+lensing+ext).
func Planck15() *FlatLambdaCDM {
	return NewFlatLambdaCDM(67.74, 0.3075, 2.7255, 3.046,
		[]float64{0, 0, 0.06}, 0.0486)
}

// NewFlatLambdaCDM creates a cosmology. H0 is in km/s/Mpc, Tcmb0 in K and
// mNu holds the mass of each neutrino species in eV.
func NewFlatLambdaCDM(
	H0, Om0, Tcmb0, Neff float64, mNu []float64, Ob0 float64,
) *FlatLambdaCDM {
	if H0 <= 0 {
		panic(fmt.Sprintf("H0 = %g must be positive.", H0))
	} else if Om0 < 0 || Om0 > 1 {
		panic(fmt.Sprintf("Om0 = %g must be in [0, 1].", Om0))
	} else if Ob0 < 0 || Ob0 > Om0 {
		panic(fmt.Sprintf("Ob0 = %g must be in [0, Om0].", Ob0))
	}

	c := &FlatLambdaCDM{
		H0: H0, Om0: Om0, Tcmb0: Tcmb0, Neff: Neff, Ob0: Ob0,
		MNu: append([]float64{}, mNu...),
	}

	rhoCrit0 := 3 * c.h0Mks() * c.h0Mks() / (8 * math.Pi * GMks)
	c.ogamma0 = 4 * SigmaMks / (CMks * CMks * CMks) *
		math.Pow(Tcmb0, 4) / rhoCrit0

	tnu0 := math.Cbrt(4.0/11) * Tcmb0
	for _, m := range mNu {
		if m > 0 {
			c.nuY = append(c.nuY, m/(KBoltzmannEv*tnu0))
		} else {
			c.nMassless++
		}
	}

	c.onu0 = c.ogamma0 * c.nuRelativeDensity(0)
	c.ode0 = 1 - Om0 - c.ogamma0 - c.onu0
	return c
}

func (c *FlatLambdaCDM) h0Mks() float64 { return c.H0 * 1000 / MpcMks }

// Ogamma0 returns the photon density parameter today.
func (c *FlatLambdaCDM) Ogamma0() float64 { return c.ogamma0 }

// Onu0 returns the neutrino density parameter today.
func (c *FlatLambdaCDM) Onu0() float64 { return c.onu0 }

// Ode0 returns the dark energy density parameter today.
func (c *FlatLambdaCDM) Ode0() float64 { return c.ode0 }

// nuRelativeDensity returns the neutrino density relative to the photon
// density at redshift z.
func (c *FlatLambdaCDM) nuRelativeDensity(z float64) float64 {
	if len(c.nuY) == 0 {
		return nuPrefactor * c.Neff
	}
	perNu := c.Neff / float64(len(c.MNu))

	relMass := float64(c.nMassless)
	for _, y := range c.nuY {
		relMass += math.Pow(1+math.Pow(nuK*y/(1+z), nuP), 1/nuP)
	}
	return nuPrefactor * perNu * relMass
}

// HubbleFrac returns E(z) = H(z) / H0.
func (c *FlatLambdaCDM) HubbleFrac(z float64) float64 {
	zp1 := 1 + z
	or := c.ogamma0 * (1 + c.nuRelativeDensity(z))
	return math.Sqrt(zp1*zp1*zp1*(c.Om0+zp1*or) + c.ode0)
}

// HubbleDistance returns c / H0 in kpc.
func (c *FlatLambdaCDM) HubbleDistance() float64 {
	return CKms / c.H0 * 1000
}

func (c *FlatLambdaCDM) invE(z float64) float64 { return 1 / c.HubbleFrac(z) }

func (c *FlatLambdaCDM) integrateComoving(z float64) float64 {
	d, _ := calc.Integrate(c.invE, 0, z, calc.RelTol(1e-10))
	return c.HubbleDistance() * d
}

func (c *FlatLambdaCDM) initTable() {
	n := int(math.Round((tableZHi-tableZLo)/tableDz)) + 1
	zs, ds := make([]float64, n), make([]float64, n)
	for i := range zs {
		zs[i] = tableZLo + float64(i)*tableDz
		ds[i] = c.integrateComoving(zs[i])
	}
	c.table = interpolate.NewSpline(zs, ds)
}

// ComovingDistance returns the line-of-sight comoving distance to z in kpc.
// Redshifts up to TableZMax use a spline table built on first use.
func (c *FlatLambdaCDM) ComovingDistance(z float64) float64 {
	if z < 0 || z > TableZMax {
		return c.integrateComoving(z)
	}
	c.once.Do(c.initTable)
	return c.table.Eval(z)
}

// AngularDiameterDistance returns the angular diameter distance to z in kpc.
func (c *FlatLambdaCDM) AngularDiameterDistance(z float64) float64 {
	return c.ComovingDistance(z) / (1 + z)
}

// AngularDiameterDistanceZ1Z2 returns the angular diameter distance between
// z1 and z2 in kpc, as seen from z1.
func (c *FlatLambdaCDM) AngularDiameterDistanceZ1Z2(z1, z2 float64) float64 {
	return (c.ComovingDistance(z2) - c.ComovingDistance(z1)) / (1 + z2)
}

// ArcsecPerKpc returns the proper angular scale at z.
func (c *FlatLambdaCDM) ArcsecPerKpc(z float64) float64 {
	return ArcsecPerRadian / c.AngularDiameterDistance(z)
}

// KpcPerArcsec returns the proper physical scale at z.
func (c *FlatLambdaCDM) KpcPerArcsec(z float64) float64 {
	return 1 / c.ArcsecPerKpc(z)
}

// CriticalSurfaceDensityKpc returns the critical surface density for lensing
// in solar masses per kpc^2 for a lens at zl and a source at zs.
func (c *FlatLambdaCDM) CriticalSurfaceDensityKpc(zl, zs float64) float64 {
	// c^2 / (4 pi G) in solar masses per kpc.
	k := CMks * CMks / (4 * math.Pi * GMks) * KpcMks / MSunMks
	dl := c.AngularDiameterDistance(zl)
	ds := c.AngularDiameterDistance(zs)
	dls := c.AngularDiameterDistanceZ1Z2(zl, zs)
	return k * ds / (dl * dls)
}

// CriticalSurfaceDensityArcsec returns the critical surface density for
// lensing in solar masses per arcsec^2 at the lens.
func (c *FlatLambdaCDM) CriticalSurfaceDensityArcsec(zl, zs float64) float64 {
	kpc := c.KpcPerArcsec(zl)
	return c.CriticalSurfaceDensityKpc(zl, zs) * kpc * kpc
}

// CriticalDensityKpc returns the critical density of the universe at z in
// solar masses per kpc^3.
func (c *FlatLambdaCDM) CriticalDensityKpc(z float64) float64 {
	h := c.h0Mks() * c.HubbleFrac(z)
	rho := 3 * h * h / (8 * math.Pi * GMks)
	return rho * KpcMks * KpcMks * KpcMks / MSunMks
}

// CriticalDensityArcsec returns the critical density of the universe at z
// in solar masses per arcsec^3.
func (c *FlatLambdaCDM) CriticalDensityArcsec(z float64) float64 {
	kpc := c.KpcPerArcsec(z)
	return c.CriticalDensityKpc(z) * kpc * kpc * kpc
}

// VelocityDispersion returns the velocity dispersion in km/s of a singular
// isothermal sphere at zl with the given Einstein radius in arc-seconds
// lensing a source at zs.
func (c *FlatLambdaCDM) VelocityDispersion(zl, zs, einsteinRadius float64) float64 {
	ds := c.AngularDiameterDistance(zs)
	dls := c.AngularDiameterDistanceZ1Z2(zl, zs)
	theta := einsteinRadius / ArcsecPerRadian
	return CKms * math.Sqrt(theta*ds/(4*math.Pi*dls))
}

// ScalingFactor returns the multi-plane lensing efficiency
// D(z1, z2) D(0, zFinal) / (D(0, z2) D(z1, zFinal)), which rescales the
// deflections of a plane at z1 when tracing to an intermediate plane at z2
// instead of the final plane at zFinal.
func (c *FlatLambdaCDM) ScalingFactor(z1, z2, zFinal float64) float64 {
	if z2 <= z1 {
		return 0
	}
	d12 := c.AngularDiameterDistanceZ1Z2(z1, z2)
	d0f := c.AngularDiameterDistance(zFinal)
	d02 := c.AngularDiameterDistance(z2)
	d1f := c.AngularDiameterDistanceZ1Z2(z1, zFinal)
	return d12 * d0f / (d02 * d1f)
}

// LengthConversion returns the factor converting arc-seconds at z into the
// requested unit.
func (c *FlatLambdaCDM) LengthConversion(z float64, unit UnitLength) (float64, error) {
	switch unit {
	case Arcsec:
		return 1, nil
	case Kpc:
		return c.KpcPerArcsec(z), nil
	}
	return 0, fmt.Errorf("I don't recognize the length unit '%s'.", unit)
}

// MassConversion returns the factor converting angular masses of a lens at
// zl with a source at zs into the requested unit.
func (c *FlatLambdaCDM) MassConversion(zl, zs float64, unit UnitMass) (float64, error) {
	switch unit {
	case Angular:
		return 1, nil
	case SolMass:
		return c.CriticalSurfaceDensityArcsec(zl, zs), nil
	}
	return 0, fmt.Errorf("I don't recognize the mass unit '%s'.", unit)
}
