// Package ai contains the automation modules and the orchestrator that runs them.
//
// # Modules
//
// A module is one independently startable behavior:
//
//   - MaxAll: presses "Max all" every tick
//   - Sacrifice: performs a dimensional sacrifice when the profile's strategy accepts it
//   - DimensionBoost: buys a dimension boost while under the boost cap, deferring to galaxies
//   - AntimatterGalaxy: buys antimatter galaxies up to the galaxy cap
//   - BigCrunch: presses "Big Crunch" every tick (the button is inert until available)
//   - BuyDimensions: buys single dimensions while they stay affordable
//
// Each module subscribes to a ticker.Scheduler with the profile's delay. On
// every tick it builds a small behavior tree: condition leaves that read and
// scrape the page, followed by the action leaf that clicks. A failed
// condition skips the tick; a leaf error (missing element) aborts only that
// module's tick and is logged.
//
// # Orchestrator
//
// The Orchestrator owns the active profile and the set of running modules.
// Presets select a profile and the modules to start:
//
//	orch := ai.NewOrchestrator(scheduler, page, logger)
//	if err := orch.StartPreset("c-eight", map[string]any{"delay": 50}); err != nil {
//	    return err
//	}
//	defer orch.StopAll()
//
// Tick handlers read a snapshot of the profile under a read lock and release
// it before touching the page, so StopAll never waits for an in-flight tick.
package ai
