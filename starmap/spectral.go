package starmap

import "math"

// Effective temperature of the sun in Kelvin.
const solarEffTemp = 5778

// SpectralClass describes a main sequence star class. Classes are ordered by
// decreasing mass; the class at index 0 only caps the mass of class 1 and
// never produces stars.
type SpectralClass struct {
	Name string `json:"name"`

	// Lightest star of this class in solar masses. The heaviest star is
	// capped by the MinSolarMass of the previous class.
	MinSolarMass float32 `json:"min_solar_mass"`

	// Percent chance that a star of this class has a companion.
	CompanionChance float32 `json:"companion_chance"`

	// Larger exponents make lighter companions more likely.
	CompanionCurveExp int `json:"companion_curve_exp"`

	// Solar mass available for generating stars of this class.
	SolarMassPool float32 `json:"solar_mass_pool"`
}

// DefaultSpectralClasses returns the O to M main sequence classes.
func DefaultSpectralClasses() []SpectralClass {
	return []SpectralClass{
		{Name: "-", MinSolarMass: 150},
		{Name: "O", MinSolarMass: 16, CompanionChance: 80, CompanionCurveExp: 1, SolarMassPool: 40},
		{Name: "B", MinSolarMass: 2.1, CompanionChance: 70, CompanionCurveExp: 1, SolarMassPool: 60},
		{Name: "A", MinSolarMass: 1.4, CompanionChance: 60, CompanionCurveExp: 2, SolarMassPool: 40},
		{Name: "F", MinSolarMass: 1.04, CompanionChance: 50, CompanionCurveExp: 2, SolarMassPool: 60},
		{Name: "G", MinSolarMass: 0.8, CompanionChance: 45, CompanionCurveExp: 2, SolarMassPool: 80},
		{Name: "K", MinSolarMass: 0.45, CompanionChance: 35, CompanionCurveExp: 3, SolarMassPool: 90},
		{Name: "M", MinSolarMass: 0.08, CompanionChance: 25, CompanionCurveExp: 3, SolarMassPool: 60},
	}
}

// Star is a single body of a stellar system. All values are in solar units
// apart from the temperature.
type Star struct {
	ClassIndex    int     `json:"class"`
	SolarMass     float32 `json:"mass"`
	SolarRadius   float32 `json:"radius"`
	Luminosity    float32 `json:"luminosity"`
	EffectiveTemp int     `json:"temp_k"`
}

// NewStar derives the radius, luminosity and temperature of a zero age main
// sequence star from its mass.
func NewStar(classIndex int, solarMass float32) Star {
	radius := MassToRadius(solarMass)
	luminosity := MassToLuminosity(solarMass)
	return Star{
		ClassIndex:    classIndex,
		SolarMass:     solarMass,
		SolarRadius:   radius,
		Luminosity:    luminosity,
		EffectiveTemp: EffectiveTemp(radius, luminosity),
	}
}

// MassToLuminosity approximates L = K * M^a where a depends on the mass range.
func MassToLuminosity(solarMass float32) float32 {
	m := float64(solarMass)
	switch {
	case m < 0.43:
		return float32(0.23 * math.Pow(m, 2.3))
	case m < 2:
		return float32(math.Pow(m, 4))
	case m < 20:
		return float32(1.5 * math.Pow(m, 3.5))
	default:
		return float32(3200 * m)
	}
}

func MassToRadius(solarMass float32) float32 {
	return float32(math.Pow(float64(solarMass), 0.8))
}

// EffectiveTemp solves (R^2 / L)^(1/4) = Tsun / Teff for Teff.
func EffectiveTemp(solarRadius, luminosity float32) int {
	if luminosity <= 0 || solarRadius <= 0 {
		return 0
	}
	ratio := math.Sqrt(math.Sqrt(float64(solarRadius*solarRadius) / float64(luminosity)))
	return int(math.Round(solarEffTemp / ratio))
}
