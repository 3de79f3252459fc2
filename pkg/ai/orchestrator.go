package ai

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/game"
	"github.com/entrhq/adbot/pkg/logging"
	"github.com/entrhq/adbot/pkg/policy"
	"github.com/entrhq/adbot/pkg/ticker"
)

// ModuleStats counts what a module has done since the orchestrator was created.
type ModuleStats struct {
	Ticks   int
	Actions int
	Errors  int
}

type module struct {
	name    ModuleName
	handle  ticker.Handle
	running bool
	logger  *logging.Logger
	stats   ModuleStats
}

// Orchestrator owns the active profile and the running modules.
type Orchestrator struct {
	mu sync.RWMutex

	sched   ticker.Scheduler
	page    game.Page
	logger  *logging.Logger
	section *config.ProfileSection
	yield   func()

	profileName string
	strategy    policy.SacrificeStrategy
	modules     map[ModuleName]*module
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithYield sets the function BuyDimensions calls between clicks.
func WithYield(yield func()) Option {
	return func(o *Orchestrator) {
		if yield != nil {
			o.yield = yield
		}
	}
}

// NewOrchestrator creates an orchestrator with the default preset's profile
// selected and nothing running.
func NewOrchestrator(sched ticker.Scheduler, page game.Page, logger *logging.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}
	o := &Orchestrator{
		sched:   sched,
		page:    page,
		logger:  logger,
		section: config.NewProfileSection(),
		yield:   runtime.Gosched,
		modules: make(map[ModuleName]*module, len(ModuleNames)),
	}
	for _, opt := range opts {
		opt(o)
	}
	for _, name := range ModuleNames {
		o.modules[name] = &module{name: name, logger: logger.With("ai." + string(name))}
	}

	profile, err := config.Resolve(config.PresetDefault, config.Overrides{})
	if err != nil {
		panic(fmt.Sprintf("default preset does not resolve: %v", err))
	}
	strategy, err := policy.NewSacrificeStrategy(profile)
	if err != nil {
		panic(fmt.Sprintf("default sacrifice strategy: %v", err))
	}
	o.section.SetProfile(profile)
	o.profileName = config.PresetDefault
	o.strategy = strategy
	return o
}

// SelectProfile makes base, then the preset, then overrides the active
// profile. On error the active profile is unchanged. Running modules pick up
// the new thresholds on their next tick; their delay is kept until restarted.
func (o *Orchestrator) SelectProfile(name string, overrides map[string]any) (config.Profile, error) {
	parsed, err := config.ParseOverrides(overrides)
	if err != nil {
		return config.Profile{}, err
	}
	profile, err := config.Resolve(name, parsed)
	if err != nil {
		return config.Profile{}, err
	}
	strategy, err := policy.NewSacrificeStrategy(profile)
	if err != nil {
		return config.Profile{}, fmt.Errorf("preset %q: %w", name, err)
	}

	o.mu.Lock()
	o.section.SetProfile(profile)
	o.profileName = name
	o.strategy = strategy
	o.mu.Unlock()

	o.logger.Infof("profile %q selected (delay=%s strategy=%s)", name, profile.Delay, strategy.Name())
	return profile, nil
}

// Override applies a partial update to the active profile and rebuilds the
// sacrifice strategy from the result. The preset name is kept. On error the
// active profile is unchanged.
func (o *Orchestrator) Override(data map[string]any) (config.Profile, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	prev := o.section.Profile()
	if err := o.section.SetData(data); err != nil {
		return config.Profile{}, err
	}
	profile := o.section.Profile()
	strategy, err := policy.NewSacrificeStrategy(profile)
	if err != nil {
		o.section.SetProfile(prev)
		return config.Profile{}, err
	}
	o.strategy = strategy

	o.logger.Infof("profile %q overridden (delay=%s strategy=%s)", o.profileName, profile.Delay, strategy.Name())
	return profile, nil
}

// StartPreset selects the preset's profile and starts its modules. Modules
// already running stay running.
func (o *Orchestrator) StartPreset(name string, overrides map[string]any) error {
	preset, err := config.LookupPreset(name)
	if err != nil {
		return err
	}

	names := make([]ModuleName, 0, len(preset.Modules))
	for _, m := range preset.Modules {
		n, err := ParseModuleName(m)
		if err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		names = append(names, n)
	}

	if _, err := o.SelectProfile(name, overrides); err != nil {
		return err
	}
	return o.Start(names...)
}

// Start starts the named modules under the active profile. Starting a module
// that is already running does nothing. Names are validated before anything
// is started.
func (o *Orchestrator) Start(names ...ModuleName) error {
	for _, name := range names {
		if _, ok := o.modules[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	delay := o.section.Profile().Delay
	for _, name := range names {
		m := o.modules[name]
		if m.running {
			continue
		}
		name := name
		m.handle = o.sched.Start(func() { o.runTick(name) }, delay)
		m.running = true
		m.logger.Infof("started (every %s)", delay)
	}
	return nil
}

// StopAll cancels every running module. Calling it with nothing running does
// nothing.
func (o *Orchestrator) StopAll() {
	o.mu.Lock()
	defer o.mu.Unlock()

	for _, name := range ModuleNames {
		m := o.modules[name]
		if !m.running {
			continue
		}
		o.sched.Cancel(m.handle)
		m.running = false
		m.handle = 0
		m.logger.Infof("stopped")
	}
}

// Running returns the running modules in canonical order.
func (o *Orchestrator) Running() []ModuleName {
	o.mu.RLock()
	defer o.mu.RUnlock()

	var running []ModuleName
	for _, name := range ModuleNames {
		if o.modules[name].running {
			running = append(running, name)
		}
	}
	return running
}

// IsRunning reports whether the named module is running.
func (o *Orchestrator) IsRunning(name ModuleName) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	m, ok := o.modules[name]
	return ok && m.running
}

// Profile returns a copy of the active profile.
func (o *Orchestrator) Profile() config.Profile {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.section.Profile()
}

// ProfileName returns the name of the preset the active profile came from.
func (o *Orchestrator) ProfileName() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.profileName
}

// Stats returns per-module counters.
func (o *Orchestrator) Stats() map[ModuleName]ModuleStats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	stats := make(map[ModuleName]ModuleStats, len(o.modules))
	for name, m := range o.modules {
		stats[name] = m.stats
	}
	return stats
}

func (o *Orchestrator) runTick(name ModuleName) {
	o.mu.RLock()
	m := o.modules[name]
	if !m.running {
		o.mu.RUnlock()
		return
	}
	env := &tickEnv{
		page:         o.page,
		profile:      o.section.Profile(),
		strategy:     o.strategy,
		galaxyActive: o.modules[AntimatterGalaxy].running,
		yield:        o.yield,
	}
	logger := m.logger
	o.mu.RUnlock()

	acted := false
	env.acted = func(format string, args ...interface{}) {
		acted = true
		logger.Infof(format, args...)
	}

	_, err := builders[name](env).Tick()
	if err != nil {
		logger.Warnf("tick failed: %v", err)
	}

	o.mu.Lock()
	m.stats.Ticks++
	if acted {
		m.stats.Actions++
	}
	if err != nil {
		m.stats.Errors++
	}
	o.mu.Unlock()
}
