// Package config loads runtime settings from an optional station.yaml, environment variables
// prefixed with OXY_ and built-in defaults, in that order of precedence (environment wins).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file name searched for in the config directory, without extension.
const FileName = "station"

// EnvPrefix is prepended to every environment override, e.g. OXY_WINDOW_WIDTH.
const EnvPrefix = "OXY"

// Config is the full runtime configuration.
type Config struct {
	Window    WindowConfig    `mapstructure:"window"`
	Assets    AssetsConfig    `mapstructure:"assets"`
	Control   ControlConfig   `mapstructure:"control"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// WindowConfig holds window and surface settings.
type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
	// MinWidth and MinHeight bound user resizes; 0 leaves that axis unbounded.
	MinWidth  int `mapstructure:"minWidth"`
	MinHeight int `mapstructure:"minHeight"`
	// PresentMode is one of "fifo", "immediate" or "mailbox".
	PresentMode string `mapstructure:"presentMode"`
	// PixelRatioCap bounds the device pixel ratio used for drawing-buffer sizing.
	PixelRatioCap float32 `mapstructure:"pixelRatioCap"`
	// SoftwareRenderer requests the fallback adapter for machines without a usable GPU.
	SoftwareRenderer bool `mapstructure:"softwareRenderer"`
}

// AssetsConfig locates the manifest and the payloads it references.
type AssetsConfig struct {
	// Manifest is a YAML or TOML manifest path. Empty selects the embedded default.
	Manifest string `mapstructure:"manifest"`
	// Root is a directory or http(s) base URL that manifest sources are resolved against.
	Root    string `mapstructure:"root"`
	Workers int    `mapstructure:"workers"`
}

// ControlConfig configures the WebSocket control surface and the preset watcher.
type ControlConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	// PresetDir is watched for parameter preset files. Empty disables watching.
	PresetDir string `mapstructure:"presetDir"`
}

// LogConfig selects the log level and output format ("console" or "json").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig toggles the otel instruments.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SchedulerConfig sets the frame cadence.
type SchedulerConfig struct {
	TickRate time.Duration `mapstructure:"tickRate"`
}

// Load reads configuration from dir. A missing config file is not an error; defaults and
// environment overrides still apply.
//
// Parameters:
//   - dir: the directory searched for station.yaml (or .toml / .json); empty searches the working directory
//
// Returns:
//   - *Config: the resolved configuration
//   - error: error if the file exists but cannot be parsed, or values fail to decode
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(FileName)
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration produced by defaults alone.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate rejects values no component can work with.
//
// Returns:
//   - error: the first invalid value found, or nil
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		return fmt.Errorf("window minimum size must not be negative, got %dx%d", c.Window.MinWidth, c.Window.MinHeight)
	}
	if c.Window.MinWidth > c.Window.Width || c.Window.MinHeight > c.Window.Height {
		return fmt.Errorf("window size %dx%d is below the minimum %dx%d",
			c.Window.Width, c.Window.Height, c.Window.MinWidth, c.Window.MinHeight)
	}
	if c.Assets.Workers <= 0 {
		return fmt.Errorf("assets.workers must be positive, got %d", c.Assets.Workers)
	}
	if c.Scheduler.TickRate <= 0 {
		return fmt.Errorf("scheduler.tickRate must be positive, got %s", c.Scheduler.TickRate)
	}
	if c.Window.PixelRatioCap <= 0 {
		return fmt.Errorf("window.pixelRatioCap must be positive, got %v", c.Window.PixelRatioCap)
	}
	switch c.Window.PresentMode {
	case "fifo", "immediate", "mailbox":
	default:
		return fmt.Errorf("unknown window.presentMode %q", c.Window.PresentMode)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("window.width", 1280)
	v.SetDefault("window.height", 720)
	v.SetDefault("window.title", "oxy-station")
	v.SetDefault("window.minWidth", 320)
	v.SetDefault("window.minHeight", 240)
	v.SetDefault("window.presentMode", "fifo")
	v.SetDefault("window.pixelRatioCap", 2.0)
	v.SetDefault("window.softwareRenderer", false)

	v.SetDefault("assets.manifest", "")
	v.SetDefault("assets.root", "static")
	v.SetDefault("assets.workers", 4)

	v.SetDefault("control.enabled", true)
	v.SetDefault("control.addr", "127.0.0.1:7878")
	v.SetDefault("control.presetDir", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("scheduler.tickRate", time.Second/60)
}
