//go:build windows
// +build windows

package midiwindows

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"golang.org/x/sys/windows"
)

// HMIDIOUT is a winmm MIDI output handle.
type HMIDIOUT windows.Handle

// Constants for midiOutOpen and winmm result codes
const (
	CALLBACK_NULL        = 0x00000000 // No callback for output devices
	MMSYSERR_NOERROR     = 0
	MMSYSERR_BADDEVICEID = 2 // Device identifier out of range
	MMSYSERR_ALLOCATED   = 4 // Device already allocated by another client
)

// Struct representing MIDI output device capabilities (MIDIOUTCAPSW)
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// DriverMid manages MIDI output on Windows
type DriverMid struct {
	logger contracts.Logger
	mu     sync.Mutex
	open   map[int]HMIDIOUT
}

// NewMIDIDriver creates a MIDI driver for Windows
func NewMIDIDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	if err := winmm.Load(); err != nil {
		return nil, fmt.Errorf("loading winmm.dll: %w", err)
	}
	options.Logger.Info("MIDI driver created for Windows", options.Logger.Field().String("driver", contracts.DriverWinMM))
	return &DriverMid{
		logger: options.Logger,
		open:   make(map[int]HMIDIOUT),
	}, nil
}

// Name returns the backend name.
func (m *DriverMid) Name() string {
	return contracts.DriverWinMM
}

// Ports lists the available MIDI output devices. Devices whose capabilities
// cannot be read are skipped.
func (m *DriverMid) Ports() ([]contracts.PortInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	numDevices := uint32(r0)

	ports := make([]contracts.PortInfo, 0, numDevices)
	for i := uint32(0); i < numDevices; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(
			uintptr(i),
			uintptr(unsafe.Pointer(&caps)),
			unsafe.Sizeof(caps),
		)
		if r1 != MMSYSERR_NOERROR {
			m.logger.Warn(fmt.Sprintf("Failed to get information for MIDI output %d", i))
			continue
		}
		name := windows.UTF16ToString(caps.szPname[:])
		if name == "" {
			continue
		}
		ports = append(ports, contracts.PortInfo{
			ID:           int(i),
			Name:         name,
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return ports, nil
}

// Open opens a MIDI output device
func (m *DriverMid) Open(portID int) (contracts.OutputDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.open[portID]; ok {
		return nil, fmt.Errorf("%w: MIDI output %d already open", contracts.ErrDeviceBusy, portID)
	}

	var handle HMIDIOUT
	r1, _, _ := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&handle)),
		uintptr(portID),
		0,
		0,
		CALLBACK_NULL,
	)
	switch r1 {
	case MMSYSERR_NOERROR:
	case MMSYSERR_BADDEVICEID:
		return nil, fmt.Errorf("%w: MIDI output %d", contracts.ErrDeviceNotFound, portID)
	case MMSYSERR_ALLOCATED:
		return nil, fmt.Errorf("%w: MIDI output %d is allocated by another application", contracts.ErrDeviceBusy, portID)
	default:
		return nil, fmt.Errorf("%w: midiOutOpen returned %d", contracts.ErrDeviceBusy, r1)
	}

	m.open[portID] = handle
	m.logger.Info(fmt.Sprintf("MIDI output %d connected", portID))
	return &outputDevice{driver: m, id: portID, handle: handle}, nil
}

// Close closes every output still open on this driver
func (m *DriverMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, handle := range m.open {
		if err := closeHandle(handle); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.open, id)
	}
	return firstErr
}

// closeHandle silences and releases a MIDI output handle
func closeHandle(handle HMIDIOUT) error {
	procMidiOutReset.Call(uintptr(handle))
	r1, _, _ := procMidiOutClose.Call(uintptr(handle))
	if r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("midiOutClose returned %d", r1)
	}
	return nil
}

type outputDevice struct {
	driver *DriverMid
	id     int
	handle HMIDIOUT
}

// Send packs a short message into the little-endian DWORD midiOutShortMsg expects
func (d *outputDevice) Send(msg []byte) error {
	if len(msg) == 0 || len(msg) > 3 {
		return fmt.Errorf("midiOutShortMsg cannot send %d bytes", len(msg))
	}
	var packed uint32
	for i, b := range msg {
		packed |= uint32(b) << (8 * i)
	}
	r1, _, _ := procMidiOutShortMsg.Call(uintptr(d.handle), uintptr(packed))
	if r1 != MMSYSERR_NOERROR {
		return fmt.Errorf("midiOutShortMsg returned %d", r1)
	}
	return nil
}

func (d *outputDevice) Close() error {
	d.driver.mu.Lock()
	defer d.driver.mu.Unlock()

	if _, ok := d.driver.open[d.id]; !ok {
		return nil
	}
	delete(d.driver.open, d.id)
	return closeHandle(d.handle)
}
