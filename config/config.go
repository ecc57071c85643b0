// Package config reads showroom settings from the environment and the
// command line.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds process settings. Flags override the environment.
type Config struct {
	Profile   string     `env:"SHOWROOM_PROFILE"    envDefault:"workshop"`
	SceneFile string     `env:"SHOWROOM_SCENE_FILE"`
	AssetRoot string     `env:"SHOWROOM_ASSET_ROOT" envDefault:"assets"`
	Width     int        `env:"SHOWROOM_WIDTH"      envDefault:"1280"`
	Height    int        `env:"SHOWROOM_HEIGHT"     envDefault:"720"`
	VSync     bool       `env:"SHOWROOM_VSYNC"      envDefault:"true"`
	Samples   int        `env:"SHOWROOM_SAMPLES"    envDefault:"4"`
	MaxLoads  int        `env:"SHOWROOM_MAX_LOADS"  envDefault:"4"`
	LogLevel  slog.Level `env:"SHOWROOM_LOG_LEVEL"  envDefault:"info"`

	// List prints the built-in profiles and exits.
	List bool
	// Dump prints the selected profile as TOML and exits.
	Dump bool
}

// Parse loads the environment, then applies args parsed with fs.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "built-in scene profile")
	fs.StringVar(&cfg.SceneFile, "scene", cfg.SceneFile, "TOML scene profile file (overrides -profile)")
	fs.StringVar(&cfg.AssetRoot, "assets", cfg.AssetRoot, "directory model sources are relative to")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "window height")
	fs.BoolVar(&cfg.VSync, "vsync", cfg.VSync, "sync frames to the display refresh")
	fs.IntVar(&cfg.MaxLoads, "max-loads", cfg.MaxLoads, "models decoded at the same time")
	fs.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&cfg.List, "list", false, "list built-in profiles")
	fs.BoolVar(&cfg.Dump, "dump", false, "print the selected profile as TOML")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.MaxLoads <= 0 {
		errs = append(errs, fmt.Errorf("max loads %d must be positive", c.MaxLoads))
	}
	if c.Samples < 0 {
		errs = append(errs, fmt.Errorf("samples %d is negative", c.Samples))
	}
	if c.Profile == "" && c.SceneFile == "" {
		errs = append(errs, errors.New("no profile or scene file"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Logger builds the process logger writing text records to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
