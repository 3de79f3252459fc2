package ai

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/game"
	"github.com/entrhq/adbot/pkg/game/gametest"
	"github.com/entrhq/adbot/pkg/logging"
	"github.com/entrhq/adbot/pkg/ticker"
)

// fakeScheduler records subscriptions and fires them on demand.
type fakeScheduler struct {
	mu        sync.Mutex
	next      ticker.Handle
	fns       map[ticker.Handle]func()
	intervals map[ticker.Handle]time.Duration
	cancelled map[ticker.Handle]int
	starts    int
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		fns:       make(map[ticker.Handle]func()),
		intervals: make(map[ticker.Handle]time.Duration),
		cancelled: make(map[ticker.Handle]int),
	}
}

func (s *fakeScheduler) Start(fn func(), interval time.Duration) ticker.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.starts++
	s.fns[s.next] = fn
	s.intervals[s.next] = interval
	return s.next
}

func (s *fakeScheduler) Cancel(h ticker.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[h]++
	delete(s.fns, h)
}

// fireAll runs every live subscription once, in handle order.
func (s *fakeScheduler) fireAll() {
	s.mu.Lock()
	var fns []func()
	for h := ticker.Handle(1); h <= s.next; h++ {
		if fn, ok := s.fns[h]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (s *fakeScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fns)
}

// gamePage builds a page with every element the built-in presets touch.
func gamePage() *gametest.Page {
	page := gametest.NewPage().
		AddElement(game.MaxAllButton).
		AddElement(game.BigCrunchButton).
		AddElement(game.SacrificeConfirmation).
		SetText(game.SacrificeButton, "Dimensional Sacrifice (1x)").
		SetText(game.DimensionBoostLabel, "Dimension Boost (0): requires 20 4th Dimensions").
		AddElement(game.DimensionBoostButton).
		SetText(game.GalaxyLabel, "Antimatter Galaxies (0): requires 80 8th Dimensions").
		AddElement(game.GalaxyButton)

	for tier := 1; tier <= 8; tier++ {
		d, _ := game.DimensionAt(tier)
		page.SetText(d.Amount, "0 (+0.0%/s)").AddElement(d.Row).AddElement(d.BuyOne)
	}
	return page
}

func newTestOrchestrator(t *testing.T, page game.Page) (*Orchestrator, *fakeScheduler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	sched := newFakeScheduler()
	orch := NewOrchestrator(sched, page, logging.NewWriterLogger("ai", &buf), WithYield(func() {}))
	return orch, sched, &buf
}

func TestNewOrchestrator_DefaultProfile(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, gamePage())

	assert.Equal(t, config.PresetDefault, orch.ProfileName())
	assert.Empty(t, orch.Running())

	want, err := config.Resolve(config.PresetDefault, config.Overrides{})
	require.NoError(t, err)
	assert.Equal(t, want, orch.Profile())
}

func TestStartPreset_CEight(t *testing.T) {
	page := gamePage()
	orch, sched, _ := newTestOrchestrator(t, page)

	require.NoError(t, orch.StartPreset(config.PresetCEight, map[string]any{config.KeyDelay: 50}))

	assert.Equal(t, []ModuleName{MaxAll, Sacrifice, DimensionBoost, BigCrunch}, orch.Running())
	assert.False(t, orch.IsRunning(AntimatterGalaxy))

	p := orch.Profile()
	assert.Equal(t, 0.0, p.MaxAntimatterGalaxies)
	assert.Equal(t, 2.5, p.SacrificeMultiplierThreshold)
	assert.Equal(t, 5.0, p.MaxDimensionBoost)
	assert.Equal(t, 8.0, p.GalaxiesRequiredForDimensionBoost)
	assert.Equal(t, 50*time.Millisecond, p.Delay)

	for h, interval := range sched.intervals {
		assert.Equal(t, 50*time.Millisecond, interval, "handle %d", h)
	}

	sched.fireAll()
	assert.Equal(t, 1, page.ClickCount(game.MaxAllButton))
	assert.Equal(t, 1, page.ClickCount(game.BigCrunchButton))
	assert.Equal(t, 0, page.ClickCount(game.SacrificeButton), "multiplier 1x is below 2.5")
	assert.Equal(t, 0, page.ClickCount(game.DimensionBoostButton), "no galaxies yet")
}

func TestStopAll_CancelsEachHandleOnce(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, gamePage())

	require.NoError(t, orch.Start(MaxAll, BigCrunch))
	assert.Equal(t, 2, sched.live())

	orch.StopAll()
	assert.Empty(t, orch.Running())
	assert.Equal(t, 0, sched.live())
	assert.Equal(t, map[ticker.Handle]int{1: 1, 2: 1}, sched.cancelled)

	orch.StopAll()
	assert.Equal(t, map[ticker.Handle]int{1: 1, 2: 1}, sched.cancelled, "second StopAll cancels nothing")
}

func TestStopAll_WhenIdle(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, gamePage())
	orch.StopAll()
	assert.Empty(t, sched.cancelled)
}

func TestStart_RedundantIsNoop(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, gamePage())

	require.NoError(t, orch.Start(MaxAll))
	require.NoError(t, orch.Start(MaxAll, MaxAll))
	assert.Equal(t, 1, sched.starts)
	assert.Equal(t, []ModuleName{MaxAll}, orch.Running())
}

func TestStart_UnknownModuleStartsNothing(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, gamePage())

	err := orch.Start(MaxAll, ModuleName("AutoEternity"))
	assert.ErrorIs(t, err, ErrUnknownModule)
	assert.Equal(t, 0, sched.starts)
}

func TestStartPreset_IsAdditive(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, gamePage())

	require.NoError(t, orch.Start(BuyDimensions))
	require.NoError(t, orch.StartPreset(config.PresetInfinity, nil))
	assert.Equal(t, []ModuleName{MaxAll, DimensionBoost, BuyDimensions}, orch.Running())
}

func TestSelectProfile_Idempotent(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, gamePage())
	overrides := map[string]any{config.KeySacrificeMultiplierThreshold: 3.5}

	first, err := orch.SelectProfile(config.PresetCEight, overrides)
	require.NoError(t, err)
	second, err := orch.SelectProfile(config.PresetCEight, overrides)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 3.5, orch.Profile().SacrificeMultiplierThreshold)
	assert.Equal(t, config.PresetCEight, orch.ProfileName())
}

func TestSelectProfile_RejectsAndKeepsActive(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, gamePage())
	before := orch.Profile()

	tests := []struct {
		name      string
		preset    string
		overrides map[string]any
	}{
		{"unknown preset", "speedrun", nil},
		{"string for number", config.PresetCEight, map[string]any{config.KeyMaxDimensionBoost: "five"}},
		{"unknown key", config.PresetCEight, map[string]any{"max_eternities": 1}},
		{"bad expression", config.PresetCEight, map[string]any{
			config.KeySacrificeStrategy:   config.StrategyExpression,
			config.KeySacrificeExpression: "multiplier >=",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := orch.SelectProfile(tt.preset, tt.overrides)
			assert.Error(t, err)
			assert.Equal(t, before, orch.Profile())
			assert.Equal(t, config.PresetDefault, orch.ProfileName())
		})
	}
}

func TestStartPreset_InvalidOverrideStartsNothing(t *testing.T) {
	orch, sched, _ := newTestOrchestrator(t, gamePage())

	err := orch.StartPreset(config.PresetDefault, map[string]any{config.KeyDelay: "fast"})
	assert.ErrorIs(t, err, config.ErrInvalidOverride)
	assert.Equal(t, 0, sched.starts)
}

func TestRunTick_MissingElementIsIsolated(t *testing.T) {
	page := gamePage().Remove(game.BigCrunchButton)
	orch, sched, logs := newTestOrchestrator(t, page)

	require.NoError(t, orch.Start(MaxAll, BigCrunch))
	sched.fireAll()
	sched.fireAll()

	assert.Equal(t, 2, page.ClickCount(game.MaxAllButton))
	assert.Contains(t, logs.String(), "[ai.BigCrunch] [WARN]")
	assert.Contains(t, logs.String(), game.BigCrunchButton)

	stats := orch.Stats()
	assert.Equal(t, 2, stats[BigCrunch].Errors)
	assert.Equal(t, 0, stats[MaxAll].Errors)
	assert.Equal(t, 2, stats[MaxAll].Ticks)
}

func TestRunTick_AfterStopDoesNothing(t *testing.T) {
	page := gamePage()
	orch, sched, _ := newTestOrchestrator(t, page)

	require.NoError(t, orch.Start(MaxAll))
	sched.mu.Lock()
	fn := sched.fns[1]
	sched.mu.Unlock()

	orch.StopAll()
	fn()
	assert.Equal(t, 0, page.ClickCount(game.MaxAllButton))
}

func TestSelectProfile_AppliesToRunningModules(t *testing.T) {
	page := gamePage().
		SetText(game.EighthDimension().Amount, "10 (+0.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (3x)")
	orch, sched, _ := newTestOrchestrator(t, page)

	require.NoError(t, orch.Start(Sacrifice))
	sched.fireAll()
	assert.Equal(t, 0, page.ClickCount(game.SacrificeButton), "default threshold is 50000")

	_, err := orch.SelectProfile(config.PresetCEight, nil)
	require.NoError(t, err)
	sched.fireAll()
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestOverride_RebuildsSacrificeStrategy(t *testing.T) {
	ref, err := game.DimensionAt(config.Base().SacrificeReferenceDimension)
	require.NoError(t, err)
	page := gamePage().
		SetText(game.EighthDimension().Amount, "10 (+0.0%/s)").
		SetText(ref.Amount, "1e5 (+70.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (3x)")
	orch, sched, _ := newTestOrchestrator(t, page)

	require.NoError(t, orch.Start(Sacrifice))
	sched.fireAll()
	assert.Equal(t, 0, page.ClickCount(game.SacrificeButton))

	profile, err := orch.Override(map[string]any{config.KeySacrificeStrategy: config.StrategyTiered})
	require.NoError(t, err)
	assert.Equal(t, config.StrategyTiered, profile.SacrificeStrategy)
	assert.Equal(t, config.StrategyTiered, orch.Profile().SacrificeStrategy)
	assert.Equal(t, config.PresetDefault, orch.ProfileName())

	sched.fireAll()
	assert.Equal(t, 1, page.ClickCount(game.SacrificeButton))
}

func TestOverride_RejectsAndKeepsActive(t *testing.T) {
	page := gamePage().
		SetText(game.EighthDimension().Amount, "10 (+0.0%/s)").
		SetText(game.SacrificeButton, "Dimensional Sacrifice (3x)")
	orch, sched, _ := newTestOrchestrator(t, page)
	before := orch.Profile()

	_, err := orch.Override(map[string]any{
		config.KeySacrificeStrategy:   config.StrategyExpression,
		config.KeySacrificeExpression: "multiplier >",
	})
	require.Error(t, err)
	assert.Equal(t, before, orch.Profile())

	_, err = orch.Override(map[string]any{config.KeyMaxPurchasesPerTick: 1e19})
	assert.ErrorIs(t, err, config.ErrInvalidOverride)
	assert.Equal(t, before, orch.Profile())

	require.NoError(t, orch.Start(Sacrifice))
	sched.fireAll()
	assert.Equal(t, 0, page.ClickCount(game.SacrificeButton), "threshold strategy still applies")
}

func TestParseModuleName(t *testing.T) {
	for _, name := range ModuleNames {
		got, err := ParseModuleName(string(name))
		require.NoError(t, err)
		assert.Equal(t, name, got)
	}

	_, err := ParseModuleName("maxall")
	assert.ErrorIs(t, err, ErrUnknownModule)
}
