package consts

import "math"

const (
	CHARGE    = 1.6021918e-19 // Elementary charge (C)
	BOLTZMANN = 1.3806226e-23 // Boltzmann constant (J/K)
	KELVIN    = 273.15        // Kelvin temperature (K)

	BOLTZMANN_OVER_Q = BOLTZMANN / CHARGE // kT/q per Kelvin (V/K)
	TEMP_REF         = 300.15             // Reference temperature (K)
	TEMP_NOM_DEFAULT = 300.15             // Default nominal measurement temperature (K)

	SIO2_PERMITTIVITY = 3.9 * 8.854214871e-12 // Gate-oxide permittivity (F/m)
	SILICON_PERM      = 11.70 * 8.854214871e-12

	EG_REF = 1.1150877 // Silicon bandgap reference term (eV)
)

var SQRT2 = math.Sqrt2
