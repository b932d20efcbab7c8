package lumen

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects which host surfaces may trigger compositions.
type Mode string

const (
	ModeSurface Mode = "surface"
	ModeControl Mode = "control"
	ModeBoth    Mode = "both"
)

// ThemeLifetime selects whether a theme runs until stopped or expires.
type ThemeLifetime string

const (
	LifetimePermanent ThemeLifetime = "permanent"
	LifetimeTimed     ThemeLifetime = "timed"
)

// AuraConfig controls the soft edge glow drawn under every composition.
type AuraConfig struct {
	Enabled bool `yaml:"enabled"`
	Level   int  `yaml:"level"` // 0..3
}

// Config is the merged configuration object read by the engine. The engine
// never mutates it; layering and persistence belong to the config store.
type Config struct {
	Enabled              bool          `yaml:"enabled"`
	Mode                 Mode          `yaml:"mode"`
	ReducedMotionRespect bool          `yaml:"reducedMotionRespect"`
	MaxDevicePixelRatio  float64       `yaml:"maxDevicePixelRatio"`
	ZIndex               int           `yaml:"zIndex"`
	PreferredEffect      string        `yaml:"preferredEffect"`
	PreferredTheme       string        `yaml:"preferredTheme"`
	ThemeLifetime        ThemeLifetime `yaml:"themeLifetime"`
	ThemeDurationSec     float64       `yaml:"themeDurationSec"`
	Aura                 AuraConfig    `yaml:"aura"`

	// Effects and Themes hold one namespace per recipe, keyed by name.
	Effects map[string]map[string]any `yaml:"effects,omitempty"`
	Themes  map[string]map[string]any `yaml:"themes,omitempty"`
}

// DefaultConfig returns the compiled defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:              true,
		Mode:                 ModeBoth,
		ReducedMotionRespect: true,
		MaxDevicePixelRatio:  2,
		ZIndex:               9000,
		PreferredEffect:      "confetti",
		PreferredTheme:       "snow",
		ThemeLifetime:        LifetimePermanent,
		ThemeDurationSec:     60,
		Aura:                 AuraConfig{Enabled: false, Level: 1},
	}
}

// Validate checks the top-level options.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSurface, ModeControl, ModeBoth:
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalidConfig, c.Mode)
	}
	switch c.ThemeLifetime {
	case LifetimePermanent, LifetimeTimed:
	default:
		return fmt.Errorf("%w: themeLifetime %q", ErrInvalidConfig, c.ThemeLifetime)
	}
	if c.ThemeDurationSec < 0 {
		return fmt.Errorf("%w: themeDurationSec %v", ErrInvalidConfig, c.ThemeDurationSec)
	}
	if c.MaxDevicePixelRatio < 0 {
		return fmt.Errorf("%w: maxDevicePixelRatio %v", ErrInvalidConfig, c.MaxDevicePixelRatio)
	}
	if c.Aura.Level < 0 || c.Aura.Level > 3 {
		return fmt.Errorf("%w: aura.level %d", ErrInvalidConfig, c.Aura.Level)
	}
	return nil
}

// EffectParams returns the effects.<name> namespace (nil when absent).
func (c *Config) EffectParams(name string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Effects[name]
}

// ThemeParams returns the themes.<name> namespace (nil when absent).
func (c *Config) ThemeParams(name string) map[string]any {
	if c == nil {
		return nil
	}
	return c.Themes[name]
}

// ThemeDuration returns themeDurationSec as a duration.
func (c *Config) ThemeDuration() time.Duration {
	return time.Duration(c.ThemeDurationSec * float64(time.Second))
}

// ToMap converts the config to a generic map, the form config layers are
// merged in.
func (c *Config) ToMap() (map[string]any, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal config map: %w", err)
	}
	return m, nil
}

// ConfigFromLayers deep-merges override layers over base and decodes the
// result into a validated Config. Later layers win.
func ConfigFromLayers(base *Config, layers ...map[string]any) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	m, err := base.ToMap()
	if err != nil {
		return nil, err
	}
	merged := MergeParams(append([]map[string]any{m}, layers...)...)
	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("marshal merged config: %w", err)
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// ConfigSource supplies the current merged configuration.
type ConfigSource interface {
	Config() *Config
}

// StaticConfig is a ConfigSource over a fixed Config value.
type StaticConfig struct {
	C *Config
}

// Config returns the wrapped config, or the defaults when nil.
func (s *StaticConfig) Config() *Config {
	if s.C == nil {
		s.C = DefaultConfig()
	}
	return s.C
}
