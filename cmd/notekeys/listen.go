package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/leandrodaf/notekeys/internal/phrasefile"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newListenCmd(a *app) *cobra.Command {
	var input string
	var drain bool

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Play the phrase every time the trigger line is read",
		Long: `Read messages one per line from standard input (or --input) and queue the
configured phrase whenever a line equals the trigger. Reading never waits for
playback, so triggers arriving while a phrase plays are queued behind it.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			phrase, err := phrasefile.Resolve(a.cfg.PhraseFile, a.cfg.Phrase)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close()
				r = f
			}

			k, err := a.openKeyboard()
			if err != nil {
				return err
			}
			defer func() { err = multierr.Append(err, k.Close()) }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.log.Info("Listening for trigger", a.log.Field().String("trigger", a.cfg.Trigger))

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(r)
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			var queued uint64
			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						if drain {
							if err := waitIdle(ctx, k, queued); err != nil && !errors.Is(err, context.Canceled) {
								return err
							}
						}
						return nil
					}
					if line != a.cfg.Trigger {
						continue
					}
					if err := k.Play(phrase); err != nil {
						a.log.Error("Could not play music", a.log.Field().Error("error", err))
						continue
					}
					queued++
				}
			}
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "read trigger lines from this file instead of stdin")
	cmd.Flags().BoolVar(&drain, "drain", true, "at end of input, wait for queued phrases to finish")
	cmd.Flags().String("trigger", "!alert", "line that fires the phrase")
	cmd.Flags().String("phrase", "alert", "built-in phrase to play")
	cmd.Flags().String("phrase-file", "", "YAML phrase file to play instead of a built-in")
	return cmd
}
