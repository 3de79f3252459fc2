package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// Sacrifice strategy names.
const (
	StrategyThreshold  = "threshold"
	StrategyTiered     = "tiered"
	StrategyExpression = "expression"
)

var (
	// ErrUnknownPreset is returned when a preset name is not registered.
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrInvalidOverride is returned when an override key is unknown or its
	// value has the wrong type.
	ErrInvalidOverride = errors.New("invalid override")
)

// Profile is the full set of thresholds the AI modules read on every tick.
//
// Numeric caps are float64 so that unlimited (+Inf) can be expressed. Values
// are not range checked: a NaN or negative threshold is accepted and simply
// never satisfies a comparison.
type Profile struct {
	MaxAntimatterGalaxies             float64
	SacrificeMultiplierThreshold      float64
	MaxDimensionBoost                 float64
	GalaxiesRequiredForDimensionBoost float64
	Delay                             time.Duration
	SacrificeStrategy                 string
	SacrificeExpression               string
	SacrificeReferenceDimension       int
	SacrificeConfirm                  bool
	BuyDimensions                     []int
	MaxPurchasesPerTick               int
}

// Overrides is a partial Profile. Nil fields leave the underlying value untouched.
type Overrides struct {
	MaxAntimatterGalaxies             *float64
	SacrificeMultiplierThreshold      *float64
	MaxDimensionBoost                 *float64
	GalaxiesRequiredForDimensionBoost *float64
	Delay                             *time.Duration
	SacrificeStrategy                 *string
	SacrificeExpression               *string
	SacrificeReferenceDimension       *int
	SacrificeConfirm                  *bool
	BuyDimensions                     []int
	MaxPurchasesPerTick               *int
}

// Apply returns p with every non-nil override field replaced.
func (o Overrides) Apply(p Profile) Profile {
	if o.MaxAntimatterGalaxies != nil {
		p.MaxAntimatterGalaxies = *o.MaxAntimatterGalaxies
	}
	if o.SacrificeMultiplierThreshold != nil {
		p.SacrificeMultiplierThreshold = *o.SacrificeMultiplierThreshold
	}
	if o.MaxDimensionBoost != nil {
		p.MaxDimensionBoost = *o.MaxDimensionBoost
	}
	if o.GalaxiesRequiredForDimensionBoost != nil {
		p.GalaxiesRequiredForDimensionBoost = *o.GalaxiesRequiredForDimensionBoost
	}
	if o.Delay != nil {
		p.Delay = *o.Delay
	}
	if o.SacrificeStrategy != nil {
		p.SacrificeStrategy = *o.SacrificeStrategy
	}
	if o.SacrificeExpression != nil {
		p.SacrificeExpression = *o.SacrificeExpression
	}
	if o.SacrificeReferenceDimension != nil {
		p.SacrificeReferenceDimension = *o.SacrificeReferenceDimension
	}
	if o.SacrificeConfirm != nil {
		p.SacrificeConfirm = *o.SacrificeConfirm
	}
	if o.BuyDimensions != nil {
		p.BuyDimensions = o.BuyDimensions
	}
	if o.MaxPurchasesPerTick != nil {
		p.MaxPurchasesPerTick = *o.MaxPurchasesPerTick
	}
	return p.normalize()
}

// normalize copies slices and orders BuyDimensions highest first.
func (p Profile) normalize() Profile {
	dims := make([]int, len(p.BuyDimensions))
	copy(dims, p.BuyDimensions)
	sort.Sort(sort.Reverse(sort.IntSlice(dims)))
	p.BuyDimensions = dims
	return p
}

// Validate checks the structural fields a module cannot run without. Numeric
// thresholds are deliberately left unchecked.
func (p Profile) Validate() error {
	switch p.SacrificeStrategy {
	case StrategyThreshold, StrategyTiered:
	case StrategyExpression:
		if p.SacrificeExpression == "" {
			return fmt.Errorf("sacrifice_expression is required for the %q strategy", StrategyExpression)
		}
	default:
		return fmt.Errorf("unknown sacrifice_strategy %q (must be %q, %q or %q)",
			p.SacrificeStrategy, StrategyThreshold, StrategyTiered, StrategyExpression)
	}

	if p.SacrificeReferenceDimension < 1 || p.SacrificeReferenceDimension > 8 {
		return fmt.Errorf("sacrifice_reference_dimension must be between 1 and 8, got %d", p.SacrificeReferenceDimension)
	}
	for _, d := range p.BuyDimensions {
		if d < 1 || d > 8 {
			return fmt.Errorf("buy_dimensions entries must be between 1 and 8, got %d", d)
		}
	}
	return nil
}

// Unlimited is the cap value meaning "no limit".
var Unlimited = math.Inf(1)

func f64(v float64) *float64 { return &v }
