// Package console is the operator's line-command interface to a running bot.
//
// Commands:
//
//	start <preset> [key=value ...]   select a preset and start its modules
//	modules <name> [name ...]        start individual modules
//	set key=value [key=value ...]    override keys of the active profile
//	stop                             stop every module
//	status                           show running modules and counters
//	profile                          show the active profile
//	help                             list commands
//	quit                             stop the bot and exit
//
// Override values are parsed as literals: numbers, booleans, comma separated
// number lists, otherwise strings.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/entrhq/adbot/pkg/ai"
	"github.com/entrhq/adbot/pkg/config"
)

// Bot is the part of the orchestrator the console drives.
type Bot interface {
	StartPreset(name string, overrides map[string]any) error
	Start(names ...ai.ModuleName) error
	Override(overrides map[string]any) (config.Profile, error)
	StopAll()
	Running() []ai.ModuleName
	Profile() config.Profile
	ProfileName() string
	Stats() map[ai.ModuleName]ai.ModuleStats
}

// ErrQuit is returned by Execute for the quit command.
var ErrQuit = errors.New("quit")

// Console reads commands from an input stream and reports on a writer.
type Console struct {
	bot    Bot
	reader io.Reader
	writer io.Writer
	prompt bool
}

// Option configures a Console.
type Option func(*Console)

// WithReader sets the command source (default is os.Stdin).
func WithReader(r io.Reader) Option {
	return func(c *Console) {
		c.reader = r
	}
}

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) Option {
	return func(c *Console) {
		c.writer = w
	}
}

// WithPrompt enables or disables the "> " prompt.
func WithPrompt(show bool) Option {
	return func(c *Console) {
		c.prompt = show
	}
}

// New creates a console for bot.
func New(bot Bot, opts ...Option) *Console {
	c := &Console{
		bot:    bot,
		reader: os.Stdin,
		writer: os.Stdout,
		prompt: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads commands until quit, end of input, or ctx is done. quit and
// end of input stop the bot and return nil.
func (c *Console) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	fmt.Fprintln(c.writer, headerStyle.Render("adbot"))
	fmt.Fprintln(c.writer, tipsStyle.Render("Type 'help' for commands, 'quit' to exit."))

	for {
		c.showPrompt()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			c.bot.StopAll()
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		case line := <-lines:
			if err := c.Execute(line); err != nil {
				if errors.Is(err, ErrQuit) {
					c.bot.StopAll()
					return nil
				}
				fmt.Fprintln(c.writer, errorStyle.Render("error: "+err.Error()))
			}
		}
	}
}

func (c *Console) showPrompt() {
	if c.prompt {
		fmt.Fprint(c.writer, promptStyle.Render(">")+" ")
	}
}

// Execute runs one command line.
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "start":
		return c.start(args)
	case "modules":
		return c.modules(args)
	case "set":
		return c.set(args)
	case "stop":
		c.bot.StopAll()
		fmt.Fprintln(c.writer, stoppedStyle.Render("all modules stopped"))
		return nil
	case "status":
		c.status()
		return nil
	case "profile":
		c.profile()
		return nil
	case "help":
		c.help()
		return nil
	case "quit", "exit":
		return ErrQuit
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (c *Console) start(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: start <preset> [key=value ...] (presets: %s)", strings.Join(config.PresetNames(), ", "))
	}

	overrides, err := ParseAssignments(args[1:])
	if err != nil {
		return err
	}
	if err := c.bot.StartPreset(args[0], overrides); err != nil {
		return err
	}
	fmt.Fprintf(c.writer, "preset %s started: %s\n", valueStyle.Render(args[0]), runningList(c.bot.Running()))
	return nil
}

func (c *Console) modules(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: modules <name> [name ...] (modules: %s)", runningList(ai.ModuleNames))
	}

	names := make([]ai.ModuleName, 0, len(args))
	for _, arg := range args {
		name, err := ai.ParseModuleName(arg)
		if err != nil {
			return err
		}
		names = append(names, name)
	}
	if err := c.bot.Start(names...); err != nil {
		return err
	}
	fmt.Fprintf(c.writer, "running: %s\n", runningList(c.bot.Running()))
	return nil
}

func (c *Console) set(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set key=value [key=value ...] (keys: %s)", strings.Join(config.Keys(), ", "))
	}

	overrides, err := ParseAssignments(args)
	if err != nil {
		return err
	}
	profile, err := c.bot.Override(overrides)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.writer, "profile %s updated\n", valueStyle.Render(c.bot.ProfileName()))
	c.renderSection(profileSection(profile), overrides)
	return nil
}

func (c *Console) status() {
	running := make(map[ai.ModuleName]bool)
	for _, name := range c.bot.Running() {
		running[name] = true
	}
	stats := c.bot.Stats()

	fmt.Fprintf(c.writer, "%s %s\n", headerStyle.Render("profile"), valueStyle.Render(c.bot.ProfileName()))
	for _, name := range ai.ModuleNames {
		state := stoppedStyle.Render("stopped")
		if running[name] {
			state = runningStyle.Render("running")
		}
		s := stats[name]
		fmt.Fprintf(c.writer, "  %-18s %s  %s\n", name, state,
			tipsStyle.Render(fmt.Sprintf("ticks=%d actions=%d errors=%d", s.Ticks, s.Actions, s.Errors)))
	}
}

func (c *Console) profile() {
	section := profileSection(c.bot.Profile())
	fmt.Fprintf(c.writer, "%s %s\n", headerStyle.Render(section.Title()), valueStyle.Render(c.bot.ProfileName()))
	fmt.Fprintln(c.writer, tipsStyle.Render(section.Description()))
	c.renderSection(section, nil)
}

func profileSection(p config.Profile) *config.ProfileSection {
	section := config.NewProfileSection()
	section.SetProfile(p)
	return section
}

// renderSection prints the keys of s in sorted order, limited to the keys
// of only when it is non-nil.
func (c *Console) renderSection(s config.Section, only map[string]any) {
	data := s.Data()
	keys := make([]string, 0, len(data))
	for key := range data {
		if _, ok := only[key]; ok || only == nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(c.writer, "  %-38s %v\n", key, data[key])
	}
}

func (c *Console) help() {
	fmt.Fprintln(c.writer, headerStyle.Render("commands"))
	for _, line := range []string{
		"start <preset> [key=value ...]   select a preset and start its modules",
		"modules <name> [name ...]        start individual modules",
		"set key=value [key=value ...]    override keys of the active profile",
		"stop                             stop every module",
		"status                           show running modules and counters",
		"profile                          show the active profile",
		"quit                             stop the bot and exit",
	} {
		fmt.Fprintln(c.writer, "  "+line)
	}
	fmt.Fprintln(c.writer, tipsStyle.Render("presets: "+strings.Join(config.PresetNames(), ", ")))
	fmt.Fprintln(c.writer, tipsStyle.Render("keys: "+strings.Join(config.Keys(), ", ")))
}

// ParseAssignments turns key=value arguments into an override map.
func ParseAssignments(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		out[key] = config.ParseLiteral(value)
	}
	return out, nil
}

func runningList(names []ai.ModuleName) string {
	if len(names) == 0 {
		return "none"
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
