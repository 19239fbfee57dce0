// Package config loads navigator settings and route manifests.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Swind/go-nav-runner/core"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides,
// e.g. NAVRUNNER_TIMEOUT=500.
const EnvPrefix = "NAVRUNNER"

// Config holds global navigator settings.
type Config struct {
	// Index is the file name routed for directory paths.
	Index string `mapstructure:"index"`
	// Route enables URL routing; when false only explicit loads navigate.
	Route bool `mapstructure:"route"`
	// Path is the URL dispatched on start. Empty starts at "/".
	Path string `mapstructure:"path"`
	// Template lists templates to preload.
	Template []string `mapstructure:"template"`

	Viewport ViewportConfig `mapstructure:"viewport"`

	// TimeoutMS is the recovery timeout in milliseconds.
	TimeoutMS int `mapstructure:"timeout"`
	// InitialDataKey names the first-screen data entry.
	InitialDataKey string `mapstructure:"initial_data_key"`
	// HistoryCapacity bounds the navigation history.
	HistoryCapacity int `mapstructure:"history_capacity"`

	Metrics MetricsConfig `mapstructure:"metrics"`
	Log     LogConfig     `mapstructure:"log"`
}

// ViewportConfig holds viewport defaults.
type ViewportConfig struct {
	// Transition is the default effect; empty disables transitions.
	Transition string `mapstructure:"transition"`
	// DurationMS is the transition duration in milliseconds.
	DurationMS int `mapstructure:"duration"`
}

// MetricsConfig holds the metrics endpoint settings.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Index:           "index",
		Route:           true,
		Template:        []string{},
		TimeoutMS:       int(core.DefaultTimeout / time.Millisecond),
		InitialDataKey:  "rebas",
		HistoryCapacity: 100,
		Metrics:         MetricsConfig{Namespace: "navrunner"},
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Timeout returns the recovery timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// TransitionDuration returns the viewport transition duration.
func (c Config) TransitionDuration() time.Duration {
	return time.Duration(c.Viewport.DurationMS) * time.Millisecond
}

// Validate checks values that cannot be defaulted.
func (c Config) Validate() error {
	var errs []error
	if c.TimeoutMS <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %d", c.TimeoutMS))
	}
	if c.HistoryCapacity < 0 {
		errs = append(errs, fmt.Errorf("history_capacity must not be negative, got %d", c.HistoryCapacity))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// NavigatorConfig builds a core.NavigatorConfig from c.
func (c Config) NavigatorConfig(name string, logger core.Logger, metrics core.Metrics) *core.NavigatorConfig {
	cfg := core.DefaultNavigatorConfig()
	if name != "" {
		cfg.Name = name
	}
	cfg.Timeout = c.Timeout()
	if c.HistoryCapacity > 0 {
		cfg.HistoryCapacity = c.HistoryCapacity
	}
	if logger != nil {
		cfg.Logger = logger
	}
	if metrics != nil {
		cfg.Metrics = metrics
	}
	return cfg
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// Load reads configuration from path and the environment. An empty path
// uses defaults and environment only; a missing explicit file is an error.
func Load(path string) (Config, error) {
	v := newViper(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return decode(v)
}

func newViper(path string) *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("index", d.Index)
	v.SetDefault("route", d.Route)
	v.SetDefault("path", d.Path)
	v.SetDefault("template", d.Template)
	v.SetDefault("viewport.transition", d.Viewport.Transition)
	v.SetDefault("viewport.duration", d.Viewport.DurationMS)
	v.SetDefault("timeout", d.TimeoutMS)
	v.SetDefault("initial_data_key", d.InitialDataKey)
	v.SetDefault("history_capacity", d.HistoryCapacity)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func decode(v *viper.Viper) (Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	// A single template may be given as a plain string.
	c.Template = v.GetStringSlice("template")
	if c.Template == nil {
		c.Template = []string{}
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}
