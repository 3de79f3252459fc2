package ai

import (
	"errors"
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"

	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/game"
	"github.com/entrhq/adbot/pkg/policy"
	"github.com/entrhq/adbot/pkg/scrape"
)

// ModuleName identifies an AI module.
type ModuleName string

const (
	MaxAll           ModuleName = "MaxAll"
	Sacrifice        ModuleName = "Sacrifice"
	DimensionBoost   ModuleName = "DimensionBoost"
	AntimatterGalaxy ModuleName = "AntimatterGalaxy"
	BigCrunch        ModuleName = "BigCrunch"
	BuyDimensions    ModuleName = "BuyDimensions"
)

// ErrUnknownModule is returned for a module name that does not exist.
var ErrUnknownModule = errors.New("unknown module")

// ModuleNames lists every module in canonical order.
var ModuleNames = []ModuleName{MaxAll, Sacrifice, DimensionBoost, AntimatterGalaxy, BigCrunch, BuyDimensions}

// ParseModuleName validates a module name.
func ParseModuleName(name string) (ModuleName, error) {
	for _, m := range ModuleNames {
		if string(m) == name {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModule, name)
}

// tickEnv is everything a tick may read besides the page. It is captured
// under the orchestrator's read lock and never touched by StopAll.
type tickEnv struct {
	page         game.Page
	profile      config.Profile
	strategy     policy.SacrificeStrategy
	galaxyActive bool
	yield        func()
	acted        func(format string, args ...interface{})
}

// treeBuilder returns the behavior tree for one tick.
type treeBuilder func(env *tickEnv) bt.Node

var builders = map[ModuleName]treeBuilder{
	MaxAll:           maxAllTree,
	Sacrifice:        sacrificeTree,
	DimensionBoost:   dimensionBoostTree,
	AntimatterGalaxy: antimatterGalaxyTree,
	BigCrunch:        bigCrunchTree,
	BuyDimensions:    buyDimensionsTree,
}

func maxAllTree(env *tickEnv) bt.Node {
	return action(func() error {
		return env.page.Click(game.MaxAllButton)
	})
}

// bigCrunchTree clicks without checking availability: the button does
// nothing until a crunch is possible.
func bigCrunchTree(env *tickEnv) bt.Node {
	return action(func() error {
		return env.page.Click(game.BigCrunchButton)
	})
}

func sacrificeTree(env *tickEnv) bt.Node {
	var in policy.SacrificeInput

	return sequence(
		condition(func() (bool, error) {
			amount, err := env.page.Text(game.EighthDimension().Amount)
			if err != nil {
				return false, err
			}
			in.Amount, in.AmountOK = scrape.Amount(amount)

			label, err := env.page.Text(game.SacrificeButton)
			if err != nil {
				return false, err
			}
			in.Multiplier, in.MultiplierOK = scrape.Multiplier(label)

			ref, err := game.DimensionAt(env.profile.SacrificeReferenceDimension)
			if err != nil {
				return false, err
			}
			// Percent and availability only matter to some strategies. A
			// missing element leaves them unread and the strategy declines.
			refLabel, err := env.page.Text(ref.Amount)
			if err := softMiss(err); err != nil {
				return false, err
			}
			in.Percent, in.PercentOK = scrape.Percent(refLabel)

			in.Available, err = sacrificeAvailable(env.page)
			if err := softMiss(err); err != nil {
				return false, err
			}
			return true, nil
		}),
		condition(func() (bool, error) {
			return env.strategy.ShouldSacrifice(in), nil
		}),
		action(func() error {
			if env.profile.SacrificeConfirm {
				if err := env.page.SetChecked(game.SacrificeConfirmation, true); err != nil {
					return err
				}
			}
			if err := env.page.Click(game.SacrificeButton); err != nil {
				return err
			}
			env.acted("dimensional sacrifice (strategy=%s percent=%g multiplier=%g)",
				env.strategy.Name(), in.Percent, in.Multiplier)
			return nil
		}),
	)
}

func sacrificeAvailable(page game.Page) (bool, error) {
	visible, err := page.Visible(game.SacrificeButton)
	if err != nil || !visible {
		return false, err
	}
	unavailable, err := page.HasClass(game.SacrificeButton, game.UnavailableClass)
	if err != nil {
		return false, err
	}
	return !unavailable, nil
}

// softMiss drops game.ErrElementNotFound.
func softMiss(err error) error {
	if errors.Is(err, game.ErrElementNotFound) {
		return nil
	}
	return err
}

func antimatterGalaxyTree(env *tickEnv) bt.Node {
	var galaxies int

	return sequence(
		condition(func() (bool, error) {
			label, err := env.page.Text(game.GalaxyLabel)
			if err != nil {
				return false, err
			}
			var ok bool
			galaxies, ok = scrape.Count(label)
			return ok, nil
		}),
		condition(func() (bool, error) {
			return policy.GalaxyEligible(galaxies, env.profile), nil
		}),
		action(func() error {
			if err := env.page.Click(game.GalaxyButton); err != nil {
				return err
			}
			env.acted("antimatter galaxy bought (count %d -> %d)", galaxies, galaxies+1)
			return nil
		}),
	)
}

func dimensionBoostTree(env *tickEnv) bt.Node {
	in := policy.BoostInput{GalaxyModuleActive: env.galaxyActive}

	return sequence(
		condition(func() (bool, error) {
			label, err := env.page.Text(game.DimensionBoostLabel)
			if err != nil {
				return false, err
			}
			var ok bool
			if in.Boosts, ok = scrape.Count(label); !ok {
				return false, nil
			}
			in.BoostCost, in.BoostCostOK = scrape.Cost(label)
			return true, nil
		}),
		condition(func() (bool, error) {
			label, err := env.page.Text(game.GalaxyLabel)
			if err != nil {
				return false, err
			}
			var ok bool
			if in.Galaxies, ok = scrape.Count(label); !ok {
				return false, nil
			}
			in.GalaxyCost, in.GalaxyCostOK = scrape.Cost(label)
			return true, nil
		}),
		condition(func() (bool, error) {
			return policy.BoostEligible(in, env.profile), nil
		}),
		action(func() error {
			if err := env.page.Click(game.DimensionBoostButton); err != nil {
				return err
			}
			env.acted("dimension boost bought (count %d -> %d)", in.Boosts, in.Boosts+1)
			return nil
		}),
	)
}

// buyDimensionsTree buys single dimensions, highest tier first, while each
// buy button stays affordable. Every click is followed by a yield so the
// page can re-render before the button is checked again. The number of
// clicks per tick is capped in case the affordability class never clears.
func buyDimensionsTree(env *tickEnv) bt.Node {
	return action(func() error {
		budget := env.profile.MaxPurchasesPerTick
		bought := 0

		for _, tier := range env.profile.BuyDimensions {
			dim, err := game.DimensionAt(tier)
			if err != nil {
				return err
			}
			visible, err := env.page.Visible(dim.Row)
			if err != nil {
				return err
			}
			if !visible {
				continue
			}

			for bought < budget {
				affordable, err := env.page.HasClass(dim.BuyOne, game.AffordableClass)
				if err != nil {
					return err
				}
				if !affordable {
					break
				}
				if err := env.page.Click(dim.BuyOne); err != nil {
					return err
				}
				bought++
				env.yield()
			}
		}
		return nil
	})
}
