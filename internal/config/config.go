// Package config holds the process configuration for the notekeys command.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. NOTEKEYS_DEVICE.
const EnvPrefix = "NOTEKEYS"

// Config is the complete process configuration.
type Config struct {
	Device     string `mapstructure:"device"`      // Output port name
	Driver     string `mapstructure:"driver"`      // rtmidi, coremidi or winmm; empty picks the platform default
	Channel    int    `mapstructure:"channel"`     // MIDI channel 0-15
	Velocity   int    `mapstructure:"velocity"`    // 1-127
	AllScores  bool   `mapstructure:"all_scores"`  // Render every score of a phrase, not only the first
	LogLevel   string `mapstructure:"log_level"`   // debug, info, warn, error
	LogFile    string `mapstructure:"log_file"`    // Log to this file instead of stderr
	Trigger    string `mapstructure:"trigger"`     // Line that fires the phrase in listen mode
	Phrase     string `mapstructure:"phrase"`      // Built-in phrase name
	PhraseFile string `mapstructure:"phrase_file"` // YAML phrase file; overrides Phrase
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Channel:  0,
		Velocity: int(contracts.DefaultVelocity),
		LogLevel: "info",
		Trigger:  "!alert",
		Phrase:   "alert",
	}
}

// SetDefaults registers every default with v so that env variables and
// flags bound later can override them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("device", d.Device)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("channel", d.Channel)
	v.SetDefault("velocity", d.Velocity)
	v.SetDefault("all_scores", d.AllScores)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("trigger", d.Trigger)
	v.SetDefault("phrase", d.Phrase)
	v.SetDefault("phrase_file", d.PhraseFile)
}

// Load reads the optional config file and the NOTEKEYS_* environment into a Config.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
	} else {
		v.SetConfigName("notekeys")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/notekeys")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges. The device name is checked later, against
// the ports that actually exist.
func (c Config) Validate() error {
	if c.Channel < 0 || c.Channel > 15 {
		return fmt.Errorf("channel %d out of range 0..15", c.Channel)
	}
	if c.Velocity < 1 || c.Velocity > 127 {
		return fmt.Errorf("velocity %d out of range 1..127", c.Velocity)
	}
	switch c.Driver {
	case "", contracts.DriverRtMidi, contracts.DriverCoreMIDI, contracts.DriverWinMM:
	default:
		return fmt.Errorf("%w: %q", contracts.ErrUnsupportedDriver, c.Driver)
	}
	return nil
}

// Options translates the configuration into SDK options.
func (c Config) Options(log contracts.Logger) []contracts.Option {
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.ParseLogLevel(c.LogLevel)),
		contracts.WithChannel(uint8(c.Channel)),
		contracts.WithVelocity(uint8(c.Velocity)),
	}
	if c.Driver != "" {
		opts = append(opts, contracts.WithDriver(c.Driver))
	}
	if c.AllScores {
		opts = append(opts, contracts.WithScorePolicy(contracts.AllScores))
	}
	return opts
}
