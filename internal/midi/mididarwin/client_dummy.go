//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/notekeys/sdk/contracts"
)

// NewMIDIDriver reports that CoreMIDI is not available on this platform.
func NewMIDIDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI driver requested on non-macOS system")
	return nil, fmt.Errorf("%w: %s is only available on macOS", contracts.ErrUnsupportedDriver, contracts.DriverCoreMIDI)
}
