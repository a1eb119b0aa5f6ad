package main

import (
	"context"
	"fmt"
	"time"

	"github.com/leandrodaf/notekeys/internal/config"
	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/leandrodaf/notekeys/sdk/midi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once flags and config are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     contracts.Logger
	extra   []contracts.Option // appended to the SDK options; tests inject a driver here
}

func newRootCmd(extra ...contracts.Option) *cobra.Command {
	a := &app{v: viper.New(), extra: extra}

	root := &cobra.Command{
		Use:          "notekeys",
		Short:        "Play short phrases on a MIDI output device",
		Long:         `notekeys plays short musical phrases on a MIDI output when a trigger fires. Phrases are queued and played one at a time, in order.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Subcommands share keys such as "phrase"; only the running command's flags are bound.
			for _, name := range []string{"trigger", "phrase", "phrase-file"} {
				if f := cmd.Flags().Lookup(name); f != nil {
					if err := a.v.BindPFlag(flagKey(name), f); err != nil {
						return err
					}
				}
			}
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./notekeys.yaml or ~/.config/notekeys/notekeys.yaml)")
	flags.String("device", "", "MIDI output port name (env NOTEKEYS_DEVICE)")
	flags.String("driver", "", "MIDI backend: rtmidi, coremidi or winmm")
	flags.Int("channel", 0, "MIDI channel 0-15")
	flags.Int("velocity", int(contracts.DefaultVelocity), "note velocity 1-127")
	flags.Bool("all-scores", false, "render every score of a phrase instead of only the first")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-file", "", "write logs to this file")

	for _, name := range []string{"device", "driver", "channel", "velocity", "log-level", "log-file"} {
		_ = a.v.BindPFlag(flagKey(name), flags.Lookup(name))
	}
	_ = a.v.BindPFlag("all_scores", flags.Lookup("all-scores"))

	root.AddCommand(newPortsCmd(a), newPlayCmd(a), newListenCmd(a))
	return root
}

func flagKey(flag string) string {
	switch flag {
	case "log-level":
		return "log_level"
	case "log-file":
		return "log_file"
	case "phrase-file":
		return "phrase_file"
	}
	return flag
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	log := logger.NewDevelopmentLogger()
	log.SetLevel(contracts.ParseLogLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		log.SetDestination(contracts.FileLog, cfg.LogFile)
	}
	a.log = log
	return nil
}

func (a *app) options() []contracts.Option {
	return append(a.cfg.Options(a.log), a.extra...)
}

// openKeyboard fails before any playback starts when the device is unset or unknown.
func (a *app) openKeyboard() (*midi.Keyboard, error) {
	k, err := midi.NewKeyboard(a.cfg.Device, a.options()...)
	if err != nil {
		return nil, fmt.Errorf("opening MIDI output: %w", err)
	}
	return k, nil
}

// waitIdle blocks until the keyboard has handled n phrases or ctx ends.
func waitIdle(ctx context.Context, k *midi.Keyboard, n uint64) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		s := k.Stats()
		if s.Phrases+s.Skipped >= n {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
