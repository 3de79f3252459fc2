package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/adbot/pkg/config"
	"github.com/entrhq/adbot/pkg/console"
)

const (
	defaultURL    = "https://ivark.github.io/"
	defaultPreset = config.PresetDefault
)

// settings is the merged view of the settings file and ADBOT_* environment.
type settings struct {
	URL        string
	Preset     string
	Headless   bool
	Overrides  map[string]any
	ConfigPath string
}

// loadSettings reads the settings file at path (or ~/.adbot/config.yaml when
// empty) and the environment. A missing file is not an error. Profile keys
// live under "profile" in the file and ADBOT_PROFILE_<KEY> in the environment.
func loadSettings(path string) (settings, error) {
	var s settings

	v := viper.New()
	v.SetEnvPrefix("ADBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("url", defaultURL)
	v.SetDefault("preset", defaultPreset)
	v.SetDefault("headless", false)

	for _, key := range config.Keys() {
		if err := v.BindEnv(config.SectionIDProfile + "." + key); err != nil {
			return s, err
		}
	}

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return s, fmt.Errorf("finding home directory: %w", err)
		}
		path = filepath.Join(home, ".adbot", "config.yaml")
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return s, fmt.Errorf("reading %s: %w", path, err)
		}
	} else {
		s.ConfigPath = v.ConfigFileUsed()
	}

	s.URL = v.GetString("url")
	s.Preset = v.GetString("preset")
	s.Headless = v.GetBool("headless")
	s.Overrides = profileOverrides(v)
	return s, nil
}

// profileOverrides collects the profile section. Unknown keys are kept so
// that validation reports them. Environment values arrive as text and are
// parsed as literals, except for the string-valued keys.
func profileOverrides(v *viper.Viper) map[string]any {
	out := make(map[string]any)
	for key, raw := range v.GetStringMap(config.SectionIDProfile) {
		out[key] = raw
	}
	for _, key := range config.Keys() {
		if !v.IsSet(config.SectionIDProfile + "." + key) {
			continue
		}
		raw := v.Get(config.SectionIDProfile + "." + key)
		if text, ok := raw.(string); ok && !stringKey(key) {
			raw = config.ParseLiteral(text)
		}
		out[key] = raw
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func stringKey(key string) bool {
	return key == config.KeySacrificeStrategy || key == config.KeySacrificeExpression
}

// assignments collects repeated -set key=value flags.
type assignments []string

func (a *assignments) String() string { return strings.Join(*a, " ") }

func (a *assignments) Set(value string) error {
	if !strings.Contains(value, "=") {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	*a = append(*a, value)
	return nil
}

// mergeOverrides layers -set flags over the settings file.
func mergeOverrides(base map[string]any, sets []string) (map[string]any, error) {
	flags, err := console.ParseAssignments(sets)
	if err != nil {
		return nil, err
	}
	if len(base) == 0 && len(flags) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(base)+len(flags))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range flags {
		out[k] = v
	}
	return out, nil
}

// resolvedConfig is what -print-config renders. It is a valid settings file.
type resolvedConfig struct {
	URL      string         `yaml:"url"`
	Preset   string         `yaml:"preset"`
	Modules  []string       `yaml:"modules"`
	Headless bool           `yaml:"headless"`
	Profile  map[string]any `yaml:"profile"`
}

// printConfig resolves the preset with overrides and writes it as YAML. The
// profile is rendered in override form, delay in milliseconds.
func printConfig(w io.Writer, s settings, overrides map[string]any) error {
	parsed, err := config.ParseOverrides(overrides)
	if err != nil {
		return err
	}
	profile, err := config.Resolve(s.Preset, parsed)
	if err != nil {
		return err
	}
	preset, err := config.LookupPreset(s.Preset)
	if err != nil {
		return err
	}
	section := config.NewProfileSection()
	section.SetProfile(profile)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(resolvedConfig{
		URL:      s.URL,
		Preset:   s.Preset,
		Modules:  preset.Modules,
		Headless: s.Headless,
		Profile:  section.Data(),
	}); err != nil {
		return err
	}
	return enc.Close()
}
