package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notekeys.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, Defaults(), cfg)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
device: Microsoft GS Wavetable Synth
driver: rtmidi
channel: 9
all_scores: true
phrase_file: fanfare.yaml
`)
	t.Setenv("NOTEKEYS_VELOCITY", "90")
	t.Setenv("NOTEKEYS_TRIGGER", "!ring")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "Microsoft GS Wavetable Synth", cfg.Device)
	require.Equal(t, "rtmidi", cfg.Driver)
	require.Equal(t, 9, cfg.Channel)
	require.Equal(t, 90, cfg.Velocity)
	require.True(t, cfg.AllScores)
	require.Equal(t, "!ring", cfg.Trigger)
	require.Equal(t, "fanfare.yaml", cfg.PhraseFile)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"channel too high", func(c *Config) { c.Channel = 16 }, false},
		{"velocity zero", func(c *Config) { c.Velocity = 0 }, false},
		{"velocity too high", func(c *Config) { c.Velocity = 128 }, false},
		{"unknown driver", func(c *Config) { c.Driver = "jack" }, false},
		{"coremidi", func(c *Config) { c.Driver = contracts.DriverCoreMIDI }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestOptions(t *testing.T) {
	cfg := Defaults()
	cfg.Driver = contracts.DriverWinMM
	cfg.Channel = 2
	cfg.AllScores = true

	var opts contracts.ClientOptions
	for _, o := range cfg.Options(logger.NewNopLogger()) {
		o(&opts)
	}
	require.Equal(t, contracts.DriverWinMM, opts.DriverName)
	require.EqualValues(t, 2, opts.Channel)
	require.Equal(t, contracts.DefaultVelocity, opts.Velocity)
	require.Equal(t, contracts.AllScores, opts.ScorePolicy)
	require.Equal(t, contracts.InfoLevel, opts.LogLevel)
	require.NotNil(t, opts.Logger)
}
