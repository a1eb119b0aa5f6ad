package midi

import (
	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/internal/sequencer"
	"github.com/leandrodaf/notekeys/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
func applyDefaultOptions(opts ...contracts.Option) contracts.ClientOptions {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.Velocity == 0 {
		options.Velocity = contracts.DefaultVelocity
	}
	if options.Sleeper == nil {
		options.Sleeper = sequencer.Sleep
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "Note player"}
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}
