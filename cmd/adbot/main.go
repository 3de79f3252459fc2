// Package main runs adbot: it opens Antimatter Dimensions in a Playwright
// browser, starts the AI modules of a preset and takes operator commands on
// stdin.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/entrhq/adbot/pkg/ai"
	"github.com/entrhq/adbot/pkg/browser"
	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/console"
	"github.com/entrhq/adbot/pkg/game"
	"github.com/entrhq/adbot/pkg/logging"
	"github.com/entrhq/adbot/pkg/ticker"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL         string
	Preset      string
	ConfigFile  string
	Headless    bool
	Install     bool
	AutoStart   bool
	NoConsole   bool
	Sets        assignments
	PrintConfig bool
	LogLevel    string
	LogStderr   bool
	ShowVersion bool

	// explicit records which flags were given on the command line.
	explicit map[string]bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("adbot v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("adbot failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.URL, "url", defaultURL, "Game URL")
	flag.StringVar(&cli.Preset, "preset", defaultPreset, "Preset to start")
	flag.StringVar(&cli.ConfigFile, "config", "", "Settings file (default ~/.adbot/config.yaml)")
	flag.BoolVar(&cli.Headless, "headless", false, "Run the browser without a window")
	flag.BoolVar(&cli.Install, "install", true, "Install the Playwright driver and Chromium if missing")
	flag.BoolVar(&cli.AutoStart, "autostart", true, "Start the preset once the game has loaded")
	flag.BoolVar(&cli.NoConsole, "no-console", false, "Do not read commands from stdin")
	flag.Var(&cli.Sets, "set", "Profile override key=value (repeatable)")
	flag.BoolVar(&cli.PrintConfig, "print-config", false, "Print the resolved configuration as YAML and exit")
	flag.StringVar(&cli.LogLevel, "log-level", "info", "Minimum log level: debug, info, warn, error")
	flag.BoolVar(&cli.LogStderr, "log-stderr", false, "Log to stderr instead of ~/.adbot/logs")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "adbot - Antimatter Dimensions automation\n\n")
		fmt.Fprintf(os.Stderr, "Usage: adbot [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  adbot -preset c-eight -set delay=50\n")
		fmt.Fprintf(os.Stderr, "  adbot -preset infinity -headless -no-console\n")
		fmt.Fprintf(os.Stderr, "  adbot -print-config -set sacrifice_strategy=tiered\n")
	}

	flag.Parse()

	cli.explicit = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { cli.explicit[f.Name] = true })
	return cli
}

// applySettings merges the settings file under explicitly given flags.
func (c *CLIConfig) applySettings(s settings) settings {
	if c.explicit["url"] {
		s.URL = c.URL
	}
	if c.explicit["preset"] {
		s.Preset = c.Preset
	}
	if c.explicit["headless"] {
		s.Headless = c.Headless
	}
	return s
}

func newLogger(cli *CLIConfig) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cli.LogLevel)
	if err != nil {
		return nil, err
	}

	var logger *logging.Logger
	if cli.LogStderr {
		logger = logging.NewWriterLogger("adbot", os.Stderr)
	} else {
		// On error NewLogger returns a stderr logger that already reported it.
		logger, _ = logging.NewLogger("adbot")
	}
	logger.SetLevel(level)
	return logger, nil
}

//nolint:gocyclo
func run(ctx context.Context, cli *CLIConfig) error {
	s, err := loadSettings(cli.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s = cli.applySettings(s)

	overrides, err := mergeOverrides(s.Overrides, cli.Sets)
	if err != nil {
		return err
	}

	if cli.PrintConfig {
		return printConfig(os.Stdout, s, overrides)
	}

	// Fail before launching a browser if the profile cannot resolve.
	parsed, err := config.ParseOverrides(overrides)
	if err != nil {
		return err
	}
	if _, err := config.Resolve(s.Preset, parsed); err != nil {
		return err
	}

	logger, err := newLogger(cli)
	if err != nil {
		return err
	}
	defer logger.Close()
	if path := logger.LogPath(); path != "" {
		fmt.Fprintf(os.Stderr, "logging to %s\n", path)
	}
	if s.ConfigPath != "" {
		logger.Infof("settings loaded from %s", s.ConfigPath)
	}

	manager := browser.NewSessionManager()
	if err := manager.Initialize(cli.Install); err != nil {
		return err
	}
	defer func() {
		if err := manager.Shutdown(); err != nil {
			logger.Warnf("browser shutdown: %v", err)
		}
	}()

	session, err := manager.StartSession("game", browser.SessionOptions{Headless: s.Headless})
	if err != nil {
		return err
	}

	tk := ticker.New(
		ticker.WithQueueSize(len(ai.ModuleNames)),
		ticker.WithPanicHandler(func(h ticker.Handle, recovered interface{}) {
			logger.Errorf("tick %d panicked: %v", h, recovered)
		}),
	)
	orch := ai.NewOrchestrator(tk, session, logger)
	defer orch.StopAll()

	if err := session.ExposeControls(browser.Controls{
		Start: orch.StartPreset,
		Stop:  orch.StopAll,
		Status: func() any {
			return status(orch, tk, session)
		},
	}); err != nil {
		return err
	}

	logger.Infof("opening %s", s.URL)
	if err := session.Navigate(s.URL, browser.NavigateOptions{
		WaitUntil:     "load",
		ReadySelector: game.MaxAllButton,
	}); err != nil {
		return err
	}

	if cli.AutoStart {
		if err := orch.StartPreset(s.Preset, overrides); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return tk.Run(gctx)
	})

	if !cli.NoConsole {
		g.Go(func() error {
			defer cancel()
			return console.New(orch).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Infof("shutting down")
	return nil
}

// status is what adbotStatus returns to the page.
func status(orch *ai.Orchestrator, tk *ticker.Ticker, session *browser.Session) map[string]any {
	running := orch.Running()
	names := make([]string, len(running))
	for i, n := range running {
		names[i] = string(n)
	}

	stats := make(map[string]any, len(ai.ModuleNames))
	for name, s := range orch.Stats() {
		stats[string(name)] = map[string]int{"ticks": s.Ticks, "actions": s.Actions, "errors": s.Errors}
	}

	return map[string]any{
		"profile":       orch.ProfileName(),
		"running":       names,
		"stats":         stats,
		"subscriptions": tk.Active(),
		"session":       session.Info(),
	}
}
