package policy

import "github.com/entrhq/adbot/pkg/config"

// GalaxyEligible reports whether another antimatter galaxy may be bought.
func GalaxyEligible(galaxies int, p config.Profile) bool {
	return float64(galaxies) < p.MaxAntimatterGalaxies
}

// BoostInput is what the DimensionBoost module scraped this tick.
type BoostInput struct {
	Galaxies int
	Boosts   int

	// GalaxyModuleActive is true when the AntimatterGalaxy module is running.
	GalaxyModuleActive bool

	GalaxyCost   int
	GalaxyCostOK bool
	BoostCost    int
	BoostCostOK  bool
}

// GalaxyFirst reports whether a pending galaxy purchase should be preferred
// over boosting. The galaxy wins ties on cost. When either cost could not be
// read the comparison is unknown and the boost is held back as well.
func GalaxyFirst(in BoostInput, p config.Profile) bool {
	if !in.GalaxyModuleActive || !GalaxyEligible(in.Galaxies, p) {
		return false
	}
	if !in.GalaxyCostOK || !in.BoostCostOK {
		return true
	}
	return in.GalaxyCost <= in.BoostCost
}

// BoostEligible reports whether a dimension boost should be bought now.
func BoostEligible(in BoostInput, p config.Profile) bool {
	if GalaxyFirst(in, p) {
		return false
	}
	return float64(in.Galaxies) >= p.GalaxiesRequiredForDimensionBoost &&
		float64(in.Boosts) < p.MaxDimensionBoost
}
