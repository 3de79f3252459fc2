package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// SectionIDProfile is the identifier for the profile settings section
	SectionIDProfile = "profile"
)

// Override keys accepted on the untyped override surface.
const (
	KeyMaxAntimatterGalaxies             = "max_antimatter_galaxies"
	KeySacrificeMultiplierThreshold      = "sacrifice_multiplier_threshold"
	KeyMaxDimensionBoost                 = "max_dimension_boost"
	KeyGalaxiesRequiredForDimensionBoost = "galaxies_required_for_dimension_boost"
	KeyDelay                             = "delay"
	KeySacrificeStrategy                 = "sacrifice_strategy"
	KeySacrificeExpression               = "sacrifice_expression"
	KeySacrificeReferenceDimension       = "sacrifice_reference_dimension"
	KeySacrificeConfirm                  = "sacrifice_confirm"
	KeyBuyDimensions                     = "buy_dimensions"
	KeyMaxPurchasesPerTick               = "max_purchases_per_tick"
)

// Keys returns every accepted override key in sorted order.
func Keys() []string {
	keys := []string{
		KeyMaxAntimatterGalaxies,
		KeySacrificeMultiplierThreshold,
		KeyMaxDimensionBoost,
		KeyGalaxiesRequiredForDimensionBoost,
		KeyDelay,
		KeySacrificeStrategy,
		KeySacrificeExpression,
		KeySacrificeReferenceDimension,
		KeySacrificeConfirm,
		KeyBuyDimensions,
		KeyMaxPurchasesPerTick,
	}
	sort.Strings(keys)
	return keys
}

// ParseOverrides converts an untyped override map into Overrides. Values are
// checked by type only; a string where a number is expected is rejected, not
// converted. Delay is given in milliseconds.
func ParseOverrides(data map[string]any) (Overrides, error) {
	var o Overrides
	for key, raw := range data {
		var err error
		switch strings.ToLower(key) {
		case KeyMaxAntimatterGalaxies:
			o.MaxAntimatterGalaxies, err = floatValue(key, raw)
		case KeySacrificeMultiplierThreshold:
			o.SacrificeMultiplierThreshold, err = floatValue(key, raw)
		case KeyMaxDimensionBoost:
			o.MaxDimensionBoost, err = floatValue(key, raw)
		case KeyGalaxiesRequiredForDimensionBoost:
			o.GalaxiesRequiredForDimensionBoost, err = floatValue(key, raw)
		case KeyDelay:
			o.Delay, err = durationValue(key, raw)
		case KeySacrificeStrategy:
			o.SacrificeStrategy, err = stringValue(key, raw)
		case KeySacrificeExpression:
			o.SacrificeExpression, err = stringValue(key, raw)
		case KeySacrificeReferenceDimension:
			o.SacrificeReferenceDimension, err = intValue(key, raw)
		case KeySacrificeConfirm:
			o.SacrificeConfirm, err = boolValue(key, raw)
		case KeyBuyDimensions:
			o.BuyDimensions, err = intSliceValue(key, raw)
		case KeyMaxPurchasesPerTick:
			o.MaxPurchasesPerTick, err = intValue(key, raw)
		default:
			err = fmt.Errorf("%w: unknown key %q", ErrInvalidOverride, key)
		}
		if err != nil {
			return Overrides{}, err
		}
	}
	return o, nil
}

// ParseLiteral interprets text from a textual source (command line,
// environment, console) as a typed value: bool, number, "inf", a comma
// separated number list, or otherwise the string itself.
func ParseLiteral(text string) any {
	text = strings.TrimSpace(text)
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(text); err == nil {
		return b
	}
	if strings.Contains(text, ",") {
		parts := strings.Split(text, ",")
		list := make([]any, 0, len(parts))
		for _, part := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
			if err != nil {
				return text
			}
			list = append(list, f)
		}
		return list
	}
	return text
}

func mismatch(key string, raw any, want string) error {
	return fmt.Errorf("%w: %s must be %s, got %T", ErrInvalidOverride, key, want, raw)
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}

func floatValue(key string, raw any) (*float64, error) {
	f, ok := toFloat(raw)
	if !ok {
		return nil, mismatch(key, raw, "a number")
	}
	return &f, nil
}

// inIntRange reports whether f converts to an int without wrapping.
// float64(math.MinInt) is exact; -float64(math.MinInt) is the first value past MaxInt.
func inIntRange(f float64) bool {
	return f >= float64(math.MinInt) && f < -float64(math.MinInt)
}

func intValue(key string, raw any) (*int, error) {
	f, ok := toFloat(raw)
	if !ok || f != math.Trunc(f) || !inIntRange(f) {
		return nil, mismatch(key, raw, "an integer")
	}
	n := int(f)
	return &n, nil
}

func durationValue(key string, raw any) (*time.Duration, error) {
	if d, ok := raw.(time.Duration); ok {
		return &d, nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return nil, mismatch(key, raw, "a number of milliseconds")
	}
	ns := f * float64(time.Millisecond)
	if ns < math.MinInt64 || ns >= -math.MinInt64 || math.IsNaN(ns) {
		return nil, mismatch(key, raw, "a number of milliseconds within the duration range")
	}
	d := time.Duration(ns)
	return &d, nil
}

func stringValue(key string, raw any) (*string, error) {
	s, ok := raw.(string)
	if !ok {
		return nil, mismatch(key, raw, "a string")
	}
	return &s, nil
}

func boolValue(key string, raw any) (*bool, error) {
	b, ok := raw.(bool)
	if !ok {
		return nil, mismatch(key, raw, "a boolean")
	}
	return &b, nil
}

func intSliceValue(key string, raw any) ([]int, error) {
	switch v := raw.(type) {
	case []int:
		return append([]int{}, v...), nil
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			n, err := intValue(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, *n)
		}
		return out, nil
	}
	return nil, mismatch(key, raw, "a list of integers")
}

// Section is a self-describing group of settings that renders as a key/value
// map and accepts a type-checked partial update in the same form.
type Section interface {
	ID() string
	Title() string
	Description() string
	Data() map[string]any
	SetData(data map[string]any) error
}

var _ Section = (*ProfileSection)(nil)

// ProfileSection exposes the active profile through the settings-section
// interface: Data renders it as a key/value map and SetData applies a
// type-checked partial update.
type ProfileSection struct {
	mu      sync.RWMutex
	profile Profile
}

// NewProfileSection creates a profile section holding the base profile.
func NewProfileSection() *ProfileSection {
	return &ProfileSection{profile: Base().normalize()}
}

// ID returns the section identifier.
func (s *ProfileSection) ID() string {
	return SectionIDProfile
}

// Title returns the section title.
func (s *ProfileSection) Title() string {
	return "AI Profile"
}

// Description returns the section description.
func (s *ProfileSection) Description() string {
	return "Thresholds read by the AI modules on every tick. Any subset of keys may be overridden; values are checked by type only."
}

// Data returns the current configuration data. Delay is in milliseconds, so
// the map is accepted back by SetData and ParseOverrides.
func (s *ProfileSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.profile
	return map[string]any{
		KeyMaxAntimatterGalaxies:             p.MaxAntimatterGalaxies,
		KeySacrificeMultiplierThreshold:      p.SacrificeMultiplierThreshold,
		KeyMaxDimensionBoost:                 p.MaxDimensionBoost,
		KeyGalaxiesRequiredForDimensionBoost: p.GalaxiesRequiredForDimensionBoost,
		KeyDelay:                             float64(p.Delay) / float64(time.Millisecond),
		KeySacrificeStrategy:                 p.SacrificeStrategy,
		KeySacrificeExpression:               p.SacrificeExpression,
		KeySacrificeReferenceDimension:       p.SacrificeReferenceDimension,
		KeySacrificeConfirm:                  p.SacrificeConfirm,
		KeyBuyDimensions:                     append([]int{}, p.BuyDimensions...),
		KeyMaxPurchasesPerTick:               p.MaxPurchasesPerTick,
	}
}

// SetData updates the profile from the provided data. On error nothing changes.
func (s *ProfileSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	o, err := ParseOverrides(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := o.Apply(s.profile)
	if err := next.Validate(); err != nil {
		return err
	}
	s.profile = next
	return nil
}

// Profile returns a copy of the current profile.
func (s *ProfileSection) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.normalize()
}

// SetProfile replaces the current profile wholesale.
func (s *ProfileSection) SetProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p.normalize()
}
