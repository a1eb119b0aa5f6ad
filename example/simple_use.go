package main

import (
	"fmt"
	"os"
	"time"

	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/internal/phrasefile"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/leandrodaf/notekeys/sdk/midi"
)

func main() {
	log := logger.NewDevelopmentLogger()

	ports, err := midi.ListPorts(contracts.WithLogger(log))
	if err != nil {
		log.Error("Failed to list MIDI ports", log.Field().Error("error", err))
		return
	}
	fmt.Println("Available MIDI outputs:", ports)

	if len(os.Args) < 2 {
		fmt.Println("usage: simple_use <port name>")
		return
	}

	keyboard, err := midi.NewKeyboard(os.Args[1],
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.DebugLevel),
	)
	if err != nil {
		log.Error("Failed to open MIDI output", log.Field().Error("error", err))
		return
	}
	defer keyboard.Close()

	alert := phrasefile.Alert()
	for i := 0; i < 2; i++ {
		if err := keyboard.Play(alert); err != nil {
			log.Error("Failed to queue phrase", log.Field().Error("error", err))
			return
		}
	}

	// Both phrases are queued; the second starts when the first ends.
	d, _ := alert.Scores[0].Duration()
	time.Sleep(2*d + 100*time.Millisecond)
}
