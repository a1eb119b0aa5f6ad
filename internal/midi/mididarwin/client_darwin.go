//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI output handling.
var (
	ErrNoMIDIDestinations = errors.New("no MIDI destinations found")
	ErrCreateOutputPort   = errors.New("error creating output port")
)

// DriverMid sends MIDI through CoreMIDI destinations on Darwin (macOS).
// Every device opened from it shares one output port; sends are addressed
// to the destination chosen at Open time.
type DriverMid struct {
	logger     contracts.Logger
	client     coremidi.Client
	outputPort coremidi.OutputPort
	mu         sync.Mutex // Guards inUse.
	inUse      map[int]bool
}

// NewMIDIDriver registers a CoreMIDI client and its output port.
func NewMIDIDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	outputPort, err := coremidi.NewOutputPort(client, "Keyboard player")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	options.Logger.Info("MIDI client successfully created", options.Logger.Field().String("driver", contracts.DriverCoreMIDI))

	return &DriverMid{
		logger:     options.Logger,
		client:     client,
		outputPort: outputPort,
		inUse:      make(map[int]bool),
	}, nil
}

// Name returns the backend name.
func (m *DriverMid) Name() string {
	return contracts.DriverCoreMIDI
}

// Ports lists the CoreMIDI destinations, identified by their index.
// Destinations without a readable name are skipped.
func (m *DriverMid) Ports() ([]contracts.PortInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDestinations.Error())
	}

	ports := make([]contracts.PortInfo, 0, len(destinations))
	for i, destination := range destinations {
		name := destination.Name()
		if name == "" {
			continue
		}
		ports = append(ports, contracts.PortInfo{
			ID:           i,
			Name:         name,
			Manufacturer: destination.Manufacturer(),
		})
	}
	return ports, nil
}

// Open binds a device to the destination with the given index.
func (m *DriverMid) Open(portID int) (contracts.OutputDevice, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if portID < 0 || portID >= len(destinations) {
		return nil, fmt.Errorf("%w: destination %d", contracts.ErrDeviceNotFound, portID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inUse[portID] {
		return nil, fmt.Errorf("%w: destination %d already open", contracts.ErrDeviceBusy, portID)
	}
	m.inUse[portID] = true

	destination := destinations[portID]
	m.logger.Info("MIDI destination selected",
		m.logger.Field().Int("deviceID", portID),
		m.logger.Field().String("deviceName", destination.Name()))

	return &destinationDevice{driver: m, id: portID, destination: destination}, nil
}

// Close releases the driver. CoreMIDI tears the client down with the process.
func (m *DriverMid) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inUse = make(map[int]bool)
	return nil
}

type destinationDevice struct {
	driver      *DriverMid
	id          int
	destination coremidi.Destination
	once        sync.Once
}

func (d *destinationDevice) Send(msg []byte) error {
	packet := coremidi.NewPacket(msg, 0)
	return packet.Send(&d.driver.outputPort, &d.destination)
}

func (d *destinationDevice) Close() error {
	d.once.Do(func() {
		d.driver.mu.Lock()
		delete(d.driver.inUse, d.id)
		d.driver.mu.Unlock()
	})
	return nil
}
