package ai

import (
	"testing"

	bt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/game"
	"github.com/entrhq/adbot/pkg/game/gametest"
	"github.com/entrhq/adbot/pkg/policy"
)

func testEnv(page game.Page, profile config.Profile) *tickEnv {
	strategy, err := policy.NewSacrificeStrategy(profile)
	if err != nil {
		panic(err)
	}
	return &tickEnv{
		page:     page,
		profile:  profile,
		strategy: strategy,
		yield:    func() {},
		acted:    func(string, ...interface{}) {},
	}
}

func tick(t *testing.T, node bt.Node) (bt.Status, error) {
	t.Helper()
	return node.Tick()
}

func TestDimensionBoost_SuppressedByCheaperGalaxy(t *testing.T) {
	page := gamePage().
		SetText(game.DimensionBoostLabel, "Dimension Boost (3): requires 1024 8th Dimensions").
		SetText(game.GalaxyLabel, "Antimatter Galaxies (2): requires 512 8th Dimensions")

	p := config.Base()
	p.MaxAntimatterGalaxies = 9
	p.GalaxiesRequiredForDimensionBoost = 2
	p.MaxDimensionBoost = 10

	env := testEnv(page, p)
	env.galaxyActive = true
	status, err := tick(t, dimensionBoostTree(env))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status)
	assert.Equal(t, 0, page.ClickCount(game.DimensionBoostButton))

	env.galaxyActive = false
	status, err = tick(t, dimensionBoostTree(env))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.DimensionBoostButton))
}

func TestDimensionBoost_StopsAtCap(t *testing.T) {
	page := gamePage().
		SetText(game.DimensionBoostLabel, "Dimension Boost (5): requires 60 8th Dimensions").
		SetText(game.GalaxyLabel, "Antimatter Galaxies (0): requires 80 8th Dimensions")

	p, err := config.Resolve(config.PresetCEight, config.Overrides{})
	require.NoError(t, err)
	p.GalaxiesRequiredForDimensionBoost = 0

	status, err := tick(t, dimensionBoostTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status)
	assert.Equal(t, 0, page.ClickCount(game.DimensionBoostButton))
}

func TestDimensionBoost_ScrapeMissSkipsSilently(t *testing.T) {
	page := gamePage().SetText(game.DimensionBoostLabel, "loading...")

	status, err := tick(t, dimensionBoostTree(testEnv(page, config.Base())))
	assert.NoError(t, err)
	assert.Equal(t, bt.Failure, status)
	assert.Empty(t, page.Clicks())
}

func TestAntimatterGalaxy(t *testing.T) {
	page := gamePage().SetText(game.GalaxyLabel, "Antimatter Galaxies (2): requires 200 8th Dimensions")

	var logged []string
	env := testEnv(page, config.Base())
	env.acted = func(format string, _ ...interface{}) { logged = append(logged, format) }

	status, err := tick(t, antimatterGalaxyTree(env))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.GalaxyButton))
	assert.Len(t, logged, 1)

	env.profile.MaxAntimatterGalaxies = 2
	status, err = tick(t, antimatterGalaxyTree(env))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status)
	assert.Equal(t, 1, page.ClickCount(game.GalaxyButton))
}

func TestAntimatterGalaxy_MissingLabelIsError(t *testing.T) {
	page := gamePage().Remove(game.GalaxyLabel)

	_, err := tick(t, antimatterGalaxyTree(testEnv(page, config.Base())))
	assert.ErrorIs(t, err, game.ErrElementNotFound)
}

func TestSacrifice_Threshold(t *testing.T) {
	page := gamePage().
		SetText(game.EighthDimension().Amount, "12 (+1.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (2.6x)")

	p, err := config.Resolve(config.PresetCEight, config.Overrides{})
	require.NoError(t, err)

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
	assert.True(t, page.IsChecked(game.SacrificeConfirmation))
}

func TestSacrifice_NoConfirm(t *testing.T) {
	page := gamePage().
		SetText(game.EighthDimension().Amount, "12 (+1.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (2.6x)").
		Remove(game.SacrificeConfirmation)

	p, err := config.Resolve(config.PresetCEight, config.Overrides{})
	require.NoError(t, err)
	p.SacrificeConfirm = false

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestSacrifice_ThresholdIgnoresMissingReferenceDimension(t *testing.T) {
	p, err := config.Resolve(config.PresetCEight, config.Overrides{})
	require.NoError(t, err)
	ref, err := game.DimensionAt(p.SacrificeReferenceDimension)
	require.NoError(t, err)

	page := gamePage().
		SetText(game.EighthDimension().Amount, "12 (+1.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (2.6x)").
		Remove(ref.Amount)

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestSacrifice_TieredDeclinesWithoutReferenceDimension(t *testing.T) {
	p := config.Base()
	p.SacrificeStrategy = config.StrategyTiered
	ref, err := game.DimensionAt(p.SacrificeReferenceDimension)
	require.NoError(t, err)

	page := gamePage().
		SetText(game.EighthDimension().Amount, "3 (+0.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (1.3x)").
		Remove(ref.Amount)

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status)
	assert.Zero(t, page.ClickCount(game.SacrificeButton))
}

func TestSacrifice_Tiered(t *testing.T) {
	ref, err := game.DimensionAt(7)
	require.NoError(t, err)

	page := gamePage().
		SetText(game.EighthDimension().Amount, "3 (+0.0%/s)").
		SetText(ref.Amount, "1.5e20 (+32.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (1.3x)")

	p := config.Base()
	p.SacrificeStrategy = config.StrategyTiered

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))

	page.SetClass(game.SacrificeButton, game.UnavailableClass, true)
	status, err = tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status, "unavailable button")
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestSacrifice_Expression(t *testing.T) {
	page := gamePage().
		SetText(game.EighthDimension().Amount, "3 (+0.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (7x)")

	p := config.Base()
	p.SacrificeStrategy = config.StrategyExpression
	p.SacrificeExpression = "available && multiplier > 5"

	status, err := tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)

	page.SetHidden(game.SacrificeButton, true)
	status, err = tick(t, sacrificeTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, bt.Failure, status, "hidden button is not available")
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestBuyDimensions_HighestTierFirst(t *testing.T) {
	page := gamePage()
	eighth := game.EighthDimension()
	first, _ := game.DimensionAt(1)

	remaining := map[string]int{eighth.BuyOne: 2, first.BuyOne: 3}
	for sel := range remaining {
		sel := sel
		page.SetClass(sel, game.AffordableClass, true)
		page.OnClick(sel, func(p *gametest.Page) {
			remaining[sel]--
			if remaining[sel] == 0 {
				p.SetClass(sel, game.AffordableClass, false)
			}
		})
	}

	yields := 0
	env := testEnv(page, config.Base())
	env.yield = func() { yields++ }

	status, err := tick(t, buyDimensionsTree(env))
	require.NoError(t, err)
	assert.Equal(t, bt.Success, status)
	assert.Equal(t, []string{eighth.BuyOne, eighth.BuyOne, first.BuyOne, first.BuyOne, first.BuyOne}, page.Clicks())
	assert.Equal(t, 5, yields)
}

func TestBuyDimensions_SkipsHiddenRows(t *testing.T) {
	page := gamePage()
	eighth := game.EighthDimension()
	page.SetClass(eighth.BuyOne, game.AffordableClass, true).SetHidden(eighth.Row, true)

	p := config.Base()
	p.BuyDimensions = []int{8}

	_, err := tick(t, buyDimensionsTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Empty(t, page.Clicks())
}

func TestBuyDimensions_BoundedPerTick(t *testing.T) {
	page := gamePage()
	eighth := game.EighthDimension()
	page.SetClass(eighth.BuyOne, game.AffordableClass, true)

	p := config.Base()
	p.MaxPurchasesPerTick = 7

	_, err := tick(t, buyDimensionsTree(testEnv(page, p)))
	require.NoError(t, err)
	assert.Equal(t, 7, page.ClickCount(eighth.BuyOne), "class never clears, loop ends at the bound")
}
