// Package policy holds the pure decision functions behind the AI modules.
package policy

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/entrhq/adbot/pkg/config"
)

// SacrificeInput is what the Sacrifice module scraped this tick. Each value
// has an ok flag; a strategy that needs a value whose flag is false declines.
type SacrificeInput struct {
	// Amount of 8th dimensions owned.
	Amount   float64
	AmountOK bool

	// Percent is the per-second growth rate shown on the reference dimension.
	Percent   float64
	PercentOK bool

	// Multiplier offered by the sacrifice button.
	Multiplier   float64
	MultiplierOK bool

	// Available is false when the button is hidden or marked unavailable.
	Available bool
}

// SacrificeStrategy decides whether a dimensional sacrifice is worth doing now.
type SacrificeStrategy interface {
	Name() string
	ShouldSacrifice(in SacrificeInput) bool
}

// NewSacrificeStrategy builds the strategy named by the profile.
func NewSacrificeStrategy(p config.Profile) (SacrificeStrategy, error) {
	switch p.SacrificeStrategy {
	case config.StrategyThreshold, "":
		return Threshold{Min: p.SacrificeMultiplierThreshold}, nil
	case config.StrategyTiered:
		return Tiered{}, nil
	case config.StrategyExpression:
		return NewExpression(p.SacrificeExpression, p.SacrificeMultiplierThreshold)
	}
	return nil, fmt.Errorf("unknown sacrifice strategy %q", p.SacrificeStrategy)
}

// Threshold sacrifices whenever 8th dimensions are owned and the offered
// multiplier reaches Min.
type Threshold struct {
	Min float64
}

func (Threshold) Name() string { return config.StrategyThreshold }

func (s Threshold) ShouldSacrifice(in SacrificeInput) bool {
	if !in.AmountOK || !in.MultiplierOK {
		return false
	}
	return in.Amount != 0 && in.Multiplier >= s.Min
}

// Tier is one step of the Tiered strategy: accept when the reference
// dimension contributes at least Percent and the multiplier is at least Multiplier.
type Tier struct {
	Percent    float64
	Multiplier float64
}

// Tiers lists the diminishing-returns steps, largest contribution first.
var Tiers = []Tier{
	{64, 1.25},
	{32, 1.3},
	{16, 1.4},
	{8, 1.5},
	{4, 1.75},
	{2, 2},
	{1.5, 3},
}

// AlwaysAcceptMultiplier is accepted regardless of the percent.
const AlwaysAcceptMultiplier = 4

// Tiered weighs the multiplier against how much the reference dimension
// still contributes: the more it contributes, the smaller the multiplier
// needed to make losing it worthwhile.
type Tiered struct{}

func (Tiered) Name() string { return config.StrategyTiered }

func (Tiered) ShouldSacrifice(in SacrificeInput) bool {
	if !in.Available || !in.PercentOK || !in.MultiplierOK {
		return false
	}
	if in.Percent == 0 || in.Multiplier == 0 {
		return false
	}
	return Efficient(in.Percent, in.Multiplier)
}

// Efficient is the tier table as a predicate. It is monotone in both arguments.
func Efficient(percent, multiplier float64) bool {
	for _, t := range Tiers {
		if percent >= t.Percent && multiplier >= t.Multiplier {
			return true
		}
	}
	return multiplier >= AlwaysAcceptMultiplier
}

// Expression evaluates a user-supplied boolean expression over
// percent, multiplier, amount, available and threshold.
type Expression struct {
	source    string
	threshold float64
	program   *vm.Program
}

func expressionEnv(in SacrificeInput, threshold float64) map[string]any {
	return map[string]any{
		"percent":    in.Percent,
		"multiplier": in.Multiplier,
		"amount":     in.Amount,
		"available":  in.Available,
		"threshold":  threshold,
	}
}

// NewExpression compiles source. Compilation errors are returned so they
// surface when the profile is selected, not on the first tick.
func NewExpression(source string, threshold float64) (*Expression, error) {
	program, err := expr.Compile(source, expr.Env(expressionEnv(SacrificeInput{}, 0)), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("invalid sacrifice expression: %w", err)
	}
	return &Expression{source: source, threshold: threshold, program: program}, nil
}

func (*Expression) Name() string { return config.StrategyExpression }

// Source returns the expression text.
func (e *Expression) Source() string { return e.source }

func (e *Expression) ShouldSacrifice(in SacrificeInput) bool {
	if !in.PercentOK || !in.MultiplierOK || !in.AmountOK {
		return false
	}
	out, err := expr.Run(e.program, expressionEnv(in, e.threshold))
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}
