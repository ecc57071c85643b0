package config

import (
	"bytes"
	"flag"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("showroom", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(newFlagSet(), nil)
	require.NoError(t, err)

	assert.Equal(t, "workshop", cfg.Profile)
	assert.Equal(t, "assets", cfg.AssetRoot)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.True(t, cfg.VSync)
	assert.Equal(t, 4, cfg.MaxLoads)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.List)
}

func TestParseEnvAndFlags(t *testing.T) {
	t.Setenv("SHOWROOM_PROFILE", "showroom")
	t.Setenv("SHOWROOM_WIDTH", "800")
	t.Setenv("SHOWROOM_LOG_LEVEL", "debug")
	t.Setenv("SHOWROOM_MAX_LOADS", "2")

	cfg, err := Parse(newFlagSet(), []string{"-width", "1024", "-scene", "garage.toml", "-list"})
	require.NoError(t, err)

	assert.Equal(t, "showroom", cfg.Profile)
	assert.Equal(t, 1024, cfg.Width, "flag wins over env")
	assert.Equal(t, "garage.toml", cfg.SceneFile)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 2, cfg.MaxLoads)
	assert.True(t, cfg.List)
}

func TestParseErrors(t *testing.T) {
	t.Run("env", func(t *testing.T) {
		t.Setenv("SHOWROOM_WIDTH", "wide")
		_, err := Parse(newFlagSet(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
	t.Run("flag", func(t *testing.T) {
		_, err := Parse(newFlagSet(), []string{"-nope"})
		assert.Error(t, err)
	})
	t.Run("validate", func(t *testing.T) {
		_, err := Parse(newFlagSet(), []string{"-height", "0", "-max-loads", "0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "window size")
		assert.Contains(t, err.Error(), "max loads")
	})
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Config{LogLevel: slog.LevelWarn}.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "component", "test")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "component=test")
}
