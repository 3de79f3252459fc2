package config

import (
	"fmt"
	"sort"
	"time"
)

// Preset names.
const (
	PresetDefault  = "default"
	PresetCEight   = "c-eight"
	PresetInfinity = "infinity"
)

// DefaultDelay is the poll interval used when no preset or override sets one.
const DefaultDelay = 30 * time.Millisecond

// Preset is a named bundle of modules and profile overrides.
type Preset struct {
	Name        string
	Description string
	Modules     []string
	Overrides   Overrides
}

// Base returns the profile every preset is layered on.
func Base() Profile {
	return Profile{
		MaxAntimatterGalaxies:             9,
		SacrificeMultiplierThreshold:      50000,
		MaxDimensionBoost:                 Unlimited,
		GalaxiesRequiredForDimensionBoost: 8,
		Delay:                             DefaultDelay,
		SacrificeStrategy:                 StrategyThreshold,
		SacrificeReferenceDimension:       7,
		SacrificeConfirm:                  true,
		BuyDimensions:                     []int{8, 7, 6, 5, 4, 3, 2, 1},
		MaxPurchasesPerTick:               100,
	}
}

var presets = map[string]Preset{
	PresetDefault: {
		Name:        PresetDefault,
		Description: "Full automation: buy, sacrifice, boost, galaxies up to 9, crunch",
		Modules:     []string{"MaxAll", "Sacrifice", "DimensionBoost", "AntimatterGalaxy", "BigCrunch"},
		Overrides: Overrides{
			MaxAntimatterGalaxies:             f64(9),
			SacrificeMultiplierThreshold:      f64(50000),
			MaxDimensionBoost:                 f64(Unlimited),
			GalaxiesRequiredForDimensionBoost: f64(8),
		},
	},
	PresetCEight: {
		Name:        PresetCEight,
		Description: "Challenge 8: no galaxies, frequent sacrifice, at most 5 boosts",
		Modules:     []string{"MaxAll", "Sacrifice", "DimensionBoost", "BigCrunch"},
		Overrides: Overrides{
			MaxAntimatterGalaxies:             f64(0),
			SacrificeMultiplierThreshold:      f64(2.5),
			MaxDimensionBoost:                 f64(5),
			GalaxiesRequiredForDimensionBoost: f64(8),
		},
	},
	PresetInfinity: {
		Name:        PresetInfinity,
		Description: "Infinity farming: buy and boost only",
		Modules:     []string{"MaxAll", "DimensionBoost"},
		Overrides: Overrides{
			MaxAntimatterGalaxies:             f64(100000),
			MaxDimensionBoost:                 f64(Unlimited),
			GalaxiesRequiredForDimensionBoost: f64(43),
		},
	},
}

// LookupPreset returns the preset registered under name.
func LookupPreset(name string) (Preset, error) {
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	p.Modules = append([]string(nil), p.Modules...)
	return p, nil
}

// PresetNames returns the registered preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve builds the profile for a preset: base, then the preset's
// overrides, then the runtime overrides.
func Resolve(presetName string, runtime Overrides) (Profile, error) {
	preset, err := LookupPreset(presetName)
	if err != nil {
		return Profile{}, err
	}

	profile := runtime.Apply(preset.Overrides.Apply(Base()))
	if err := profile.Validate(); err != nil {
		return Profile{}, fmt.Errorf("preset %q: %w", presetName, err)
	}
	return profile, nil
}
