package midi

import (
	"fmt"
	"runtime"

	"github.com/leandrodaf/notekeys/internal/midi/mididarwin"
	"github.com/leandrodaf/notekeys/internal/midi/midiout"
	"github.com/leandrodaf/notekeys/internal/midi/midiwindows"
	"github.com/leandrodaf/notekeys/sdk/contracts"
)

// driverInitializers maps driver names to their constructors.
var driverInitializers = map[string]func(*contracts.ClientOptions) (contracts.Driver, error){
	contracts.DriverRtMidi:   midiout.NewMIDIDriver,     // Portable rtmidi driver.
	contracts.DriverCoreMIDI: mididarwin.NewMIDIDriver,  // macOS (Darwin) CoreMIDI driver.
	contracts.DriverWinMM:    midiwindows.NewMIDIDriver, // Windows winmm driver.
}

// defaultDrivers maps OS names to the driver used when none is requested.
var defaultDrivers = map[string]string{
	"darwin":  contracts.DriverCoreMIDI,
	"windows": contracts.DriverWinMM,
}

// DefaultDriverName returns the driver used on the current operating system
// when none is configured.
func DefaultDriverName() string {
	if name, ok := defaultDrivers[runtime.GOOS]; ok {
		return name
	}
	return contracts.DriverRtMidi
}

// NewDriver returns the driver supplied through WithDriverInstance, or builds
// the one named by WithDriver, falling back to the platform default.
//
// opts *contracts.ClientOptions: Configuration options with defaults applied.
//
// Returns:
//   - contracts.Driver: The MIDI backend.
//   - error: ErrUnsupportedDriver for unknown names, or the backend's initialization error.
func NewDriver(opts *contracts.ClientOptions) (contracts.Driver, error) {
	if opts.Driver != nil {
		return opts.Driver, nil
	}
	name := opts.DriverName
	if name == "" {
		name = DefaultDriverName()
	}
	if initializer, exists := driverInitializers[name]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %q", contracts.ErrUnsupportedDriver, name)
}
