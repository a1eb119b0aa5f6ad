package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/notekeys/internal/phrasefile"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newPlayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [phrase.yaml]",
		Short: "Play one phrase and wait for it to finish",
		Long:  `Play a phrase file, or the built-in phrase named by --phrase when no file is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := a.cfg.PhraseFile
			if len(args) == 1 {
				path = args[0]
			}
			phrase, err := phrasefile.Resolve(path, a.cfg.Phrase)
			if err != nil {
				return err
			}

			k, err := a.openKeyboard()
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, k.Close()) }()

			if err := k.Play(phrase); err != nil {
				return fmt.Errorf("queueing phrase: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if err := waitIdle(ctx, k, 1); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("phrase", "alert", "built-in phrase to play when no file is given")
	return cmd
}
