/*
package cosmo contains the flat LambdaCDM cosmology used to convert lensing
quantities between angular and physical units.
*/
package cosmo

// Physical constants in SI units, matching CODATA 2018 and the IAU 2015
// nominal solar mass.
const (
	CMks     = 299792458.0
	GMks     = 6.67430e-11
	KpcMks   = 3.0856775814913673e19
	MpcMks   = 1000 * KpcMks
	MSunMks  = 1.988409870698051e30
	SigmaMks = 5.670374419e-8

	// KBoltzmannEv is Boltzmann's constant in eV / K.
	KBoltzmannEv = 8.617333262e-5
	// CKms is the speed of light in km / s.
	CKms = CMks / 1000

	ArcsecPerRadian = 180 * 3600 / 3.141592653589793
)

// UnitLength selects the units lengths are reported in.
type UnitLength string

// UnitMass selects the units masses are reported in.
type UnitMass string

const (
	Arcsec UnitLength = "arcsec"
	Kpc    UnitLength = "kpc"

	// Angular masses are convergence integrated over arc-seconds squared.
	Angular UnitMass = "angular"
	SolMass UnitMass = "solMass"
)
