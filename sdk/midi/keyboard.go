package midi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leandrodaf/notekeys/internal/queue"
	"github.com/leandrodaf/notekeys/internal/sequencer"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"go.uber.org/multierr"
)

// Keyboard plays phrases on one MIDI output, one phrase at a time, in the
// order Play was called. It owns the output device through its sequencer
// goroutine; callers only ever touch the queue.
type Keyboard struct {
	logger contracts.Logger
	port   contracts.PortInfo
	driver contracts.Driver
	device contracts.OutputDevice
	jobs   *queue.Queue[sequencer.Job]
	worker *sequencer.Worker

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ contracts.Keyboard = (*Keyboard)(nil)

// NewKeyboard connects to the output port named deviceName and starts playback.
//
// Returns:
//   - *Keyboard: A keyboard ready to accept phrases.
//   - error: ErrDeviceNotFound when no port has that name, ErrDeviceBusy when
//     the port cannot be opened, or the driver's initialization error.
func NewKeyboard(deviceName string, opts ...contracts.Option) (*Keyboard, error) {
	options := applyDefaultOptions(opts...)
	log := options.Logger

	driver, err := NewDriver(&options)
	if err != nil {
		return nil, err
	}

	port, err := resolvePort(driver, deviceName)
	if err != nil {
		return nil, multierr.Append(err, driver.Close())
	}

	device, err := driver.Open(port.ID)
	if err != nil {
		if !errors.Is(err, contracts.ErrDeviceBusy) && !errors.Is(err, contracts.ErrDeviceNotFound) {
			err = fmt.Errorf("%w: %v", contracts.ErrDeviceBusy, err)
		}
		log.Error("Failed to open MIDI output",
			log.Field().String("device", port.Name),
			log.Field().Error("error", err))
		return nil, multierr.Append(err, driver.Close())
	}

	jobs := queue.New[sequencer.Job]()
	worker := sequencer.New(device, jobs, sequencer.Config{
		Channel:     options.Channel,
		Velocity:    options.Velocity,
		ScorePolicy: options.ScorePolicy,
		Sleeper:     options.Sleeper,
		Logger:      log,
	})

	ctx, cancel := context.WithCancel(context.Background())
	k := &Keyboard{
		logger: log,
		port:   port,
		driver: driver,
		device: device,
		jobs:   jobs,
		worker: worker,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(k.done)
		worker.Run(ctx)
	}()

	log.Info("Keyboard ready",
		log.Field().String("device", port.Name),
		log.Field().Int("port", port.ID),
		log.Field().String("driver", driver.Name()))
	return k, nil
}

// resolvePort finds the port called name. The error lists the ports that do
// exist, so a misconfigured name can be fixed without another lookup.
func resolvePort(driver contracts.Driver, name string) (contracts.PortInfo, error) {
	ports, err := driver.Ports()
	if err != nil {
		return contracts.PortInfo{}, err
	}
	byName := indexByName(ports)
	if p, ok := byName[name]; ok && name != "" {
		return p, nil
	}

	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	if name == "" {
		return contracts.PortInfo{}, fmt.Errorf("%w: no device name given (available: %s)",
			contracts.ErrDeviceNotFound, strings.Join(names, ", "))
	}
	return contracts.PortInfo{}, fmt.Errorf("%w: %q (available: %s)",
		contracts.ErrDeviceNotFound, name, strings.Join(names, ", "))
}

// Play queues phrase and returns immediately; it never waits for playback.
// Invalid phrases are rejected here rather than by the sequencer.
func (k *Keyboard) Play(phrase contracts.Phrase) error {
	if err := phrase.Validate(); err != nil {
		return err
	}

	job := sequencer.Job{
		ID:       uuid.NewString(),
		Phrase:   phrase.Clone(),
		Enqueued: time.Now(),
	}
	if err := k.jobs.Push(job); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrDeviceUnavailable, err)
	}

	k.logger.Debug("Phrase queued",
		k.logger.Field().String("phrase", job.ID),
		k.logger.Field().Int("pending", k.jobs.Len()))
	return nil
}

// Pending returns how many phrases are waiting behind the one being played.
func (k *Keyboard) Pending() int {
	return k.jobs.Len()
}

// Stats returns the sequencer's counters.
func (k *Keyboard) Stats() contracts.Stats {
	return k.worker.Stats()
}

// State reports what the sequencer is doing.
func (k *Keyboard) State() sequencer.State {
	return k.worker.State()
}

// Port returns the port the keyboard is connected to.
func (k *Keyboard) Port() contracts.PortInfo {
	return k.port
}

// Close stops playback and releases the device. The note being held is cut
// short and released, queued phrases are discarded, and every later Play
// fails with ErrDeviceUnavailable. It is safe to call more than once.
func (k *Keyboard) Close() error {
	k.closeOnce.Do(func() {
		dropped := k.jobs.Close()
		k.cancel()
		<-k.done

		if len(dropped) > 0 {
			k.logger.Warn("Discarded queued phrases", k.logger.Field().Int("count", len(dropped)))
		}
		k.closeErr = multierr.Combine(k.device.Close(), k.driver.Close())
		k.logger.Info("Keyboard closed", k.logger.Field().String("device", k.port.Name))
	})
	return k.closeErr
}
