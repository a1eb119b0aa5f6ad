// Package midiout is the portable output backend, built on gomidi's rtmidi driver.
package midiout

import (
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// scanTimeout bounds a port listing; some system MIDI services hang on enumeration.
const scanTimeout = 3 * time.Second

// Driver lists and opens output ports through a gomidi driver.
type Driver struct {
	logger contracts.Logger
	drv    drivers.Driver

	mu    sync.Mutex
	inUse map[int]bool
}

// NewMIDIDriver opens the rtmidi backend.
func NewMIDIDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Info("MIDI driver successfully created", options.Logger.Field().String("driver", contracts.DriverRtMidi))
	return Wrap(drv, options.Logger), nil
}

// Wrap adapts any gomidi driver, such as the testdrv in-memory driver.
func Wrap(drv drivers.Driver, logger contracts.Logger) *Driver {
	return &Driver{logger: logger, drv: drv, inUse: make(map[int]bool)}
}

// Name returns the backend name.
func (d *Driver) Name() string {
	return contracts.DriverRtMidi
}

// Ports lists the output ports visible right now. Ports without a name are skipped.
func (d *Driver) Ports() ([]contracts.PortInfo, error) {
	outs, err := d.outs()
	if err != nil {
		return nil, err
	}

	ports := make([]contracts.PortInfo, 0, len(outs))
	for _, out := range outs {
		name := out.String()
		if name == "" {
			d.logger.Warn("skipping MIDI output without a name", d.logger.Field().Int("port", out.Number()))
			continue
		}
		ports = append(ports, contracts.PortInfo{ID: out.Number(), Name: name})
	}
	return ports, nil
}

// Open connects to the output port with the given number. A port already
// held by this driver, or one the backend refuses to open, is busy.
func (d *Driver) Open(portID int) (contracts.OutputDevice, error) {
	outs, err := d.outs()
	if err != nil {
		return nil, err
	}

	var out drivers.Out
	for _, o := range outs {
		if o.Number() == portID {
			out = o
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("%w: port %d", contracts.ErrDeviceNotFound, portID)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inUse[portID] {
		return nil, fmt.Errorf("%w: port %d already open", contracts.ErrDeviceBusy, portID)
	}
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrDeviceBusy, err)
	}
	d.inUse[portID] = true

	d.logger.Info("MIDI output opened",
		d.logger.Field().Int("port", portID),
		d.logger.Field().String("name", out.String()))
	return &device{out: out, release: func() { d.release(portID) }}, nil
}

// Close shuts the backend down.
func (d *Driver) Close() error {
	return d.drv.Close()
}

func (d *Driver) release(portID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.inUse, portID)
}

func (d *Driver) outs() ([]drivers.Out, error) {
	type result struct {
		outs []drivers.Out
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		outs, err := d.drv.Outs()
		ch <- result{outs, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("error listing MIDI outputs: %w", r.err)
		}
		return r.outs, nil
	case <-time.After(scanTimeout):
		return nil, fmt.Errorf("listing MIDI outputs timed out after %s", scanTimeout)
	}
}

type device struct {
	out     drivers.Out
	release func()
	once    sync.Once
}

func (dev *device) Send(msg []byte) error {
	return dev.out.Send(msg)
}

func (dev *device) Close() error {
	var err error
	dev.once.Do(func() {
		err = dev.out.Close()
		dev.release()
	})
	return err
}
