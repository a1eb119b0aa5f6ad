//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/notekeys/sdk/contracts"
)

// NewMIDIDriver reports that winmm is not available on non-Windows systems.
func NewMIDIDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm driver requested on non-Windows system")
	return nil, fmt.Errorf("%w: %s is only available on Windows", contracts.ErrUnsupportedDriver, contracts.DriverWinMM)
}
