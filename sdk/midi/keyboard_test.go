package midi

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/leandrodaf/notekeys/internal/logger"
	"github.com/leandrodaf/notekeys/internal/sequencer"
	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/stretchr/testify/require"
)

// fakeDriver is an in-memory backend that records every command and hold.
type fakeDriver struct {
	mu       sync.Mutex
	ports    []contracts.PortInfo
	openErr  error
	events   []string
	opened   bool
	closed   bool
	devClose bool
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) Ports() ([]contracts.PortInfo, error) {
	return d.ports, nil
}

func (d *fakeDriver) Open(portID int) (contracts.OutputDevice, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	return fakeDevice{d}, nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) record(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDriver) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

// sleep records the hold and returns at once.
func (d *fakeDriver) sleep(ctx context.Context, hold time.Duration) error {
	d.record("hold " + hold.String())
	return ctx.Err()
}

type fakeDevice struct{ d *fakeDriver }

func (f fakeDevice) Send(msg []byte) error {
	switch contracts.MIDICommand(msg[0] & 0xF0) {
	case contracts.NoteOn:
		f.d.record(fmt.Sprintf("on %d", msg[1]))
	case contracts.NoteOff:
		f.d.record(fmt.Sprintf("off %d", msg[1]))
	}
	return nil
}

func (f fakeDevice) Close() error {
	f.d.mu.Lock()
	defer f.d.mu.Unlock()
	f.d.devClose = true
	return nil
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{ports: []contracts.PortInfo{
		{ID: 0, Name: "Microsoft GS Wavetable Synth"},
		{ID: 1, Name: "loopMIDI Port"},
	}}
}

func newTestKeyboard(t *testing.T, d *fakeDriver, opts ...contracts.Option) *Keyboard {
	t.Helper()
	base := []contracts.Option{
		contracts.WithDriverInstance(d),
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithSleeper(d.sleep),
	}
	k, err := NewKeyboard("loopMIDI Port", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func waitForPhrases(t *testing.T, k *Keyboard, n uint64) {
	t.Helper()
	require.Eventually(t, func() bool { return k.Stats().Phrases >= n }, 2*time.Second, time.Millisecond)
}

func TestNewKeyboard_DeviceNotFound(t *testing.T) {
	d := newFakeDriver()

	_, err := NewKeyboard("Nonexistent", contracts.WithDriverInstance(d), contracts.WithLogger(logger.NewNopLogger()))
	require.ErrorIs(t, err, contracts.ErrDeviceNotFound)
	require.Contains(t, err.Error(), "Microsoft GS Wavetable Synth, loopMIDI Port")
	require.False(t, d.opened, "nothing is opened for an unknown device")
	require.True(t, d.closed)

	_, err = NewKeyboard("", contracts.WithDriverInstance(newFakeDriver()), contracts.WithLogger(logger.NewNopLogger()))
	require.ErrorIs(t, err, contracts.ErrDeviceNotFound)
}

func TestNewKeyboard_DeviceBusy(t *testing.T) {
	tests := []struct {
		name    string
		openErr error
	}{
		{"driver reports busy", fmt.Errorf("%w: port 1 already open", contracts.ErrDeviceBusy)},
		{"driver reports other failure", errors.New("access denied")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newFakeDriver()
			d.openErr = tt.openErr

			_, err := NewKeyboard("loopMIDI Port", contracts.WithDriverInstance(d), contracts.WithLogger(logger.NewNopLogger()))
			require.ErrorIs(t, err, contracts.ErrDeviceBusy)
			require.True(t, d.closed)
		})
	}
}

func TestNewKeyboard_UnsupportedDriver(t *testing.T) {
	_, err := NewKeyboard("loopMIDI Port", contracts.WithDriver("jack"), contracts.WithLogger(logger.NewNopLogger()))
	require.ErrorIs(t, err, contracts.ErrUnsupportedDriver)
}

func TestKeyboard_PlaysExamplePhrase(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d)
	require.Equal(t, 1, k.Port().ID)

	require.NoError(t, k.Play(contracts.NewPhrase(172,
		contracts.Audible(67, 1.5),
		contracts.Silence(1.0),
		contracts.Audible(70, 1.0),
	)))
	waitForPhrases(t, k, 1)

	require.Equal(t, []string{
		"on 67", "hold 523ms", "off 67",
		"hold 349ms",
		"on 70", "hold 349ms", "off 70",
	}, d.Events())
}

func TestKeyboard_PlayRejectsInvalidPhrases(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d)

	require.ErrorIs(t, k.Play(contracts.NewPhrase(0, contracts.Audible(60, 1))), contracts.ErrInvalidTempo)
	require.ErrorIs(t, k.Play(contracts.Phrase{}), contracts.ErrInvalidPhrase)
	require.Equal(t, 0, k.Pending())
	require.Empty(t, d.Events())
}

func TestKeyboard_PlayDoesNotWaitForPlayback(t *testing.T) {
	d := newFakeDriver()
	release := make(chan struct{})
	blocking := func(ctx context.Context, hold time.Duration) error {
		d.record("hold " + hold.String())
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	k := newTestKeyboard(t, d, contracts.WithSleeper(blocking))

	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, k.Play(contracts.NewPhrase(60, contracts.Audible(uint8(60+i), 4))))
	}
	require.Less(t, time.Since(start), 500*time.Millisecond)

	require.Eventually(t, func() bool { return k.State() == sequencer.Rendering }, time.Second, time.Millisecond)
	require.Equal(t, 9, k.Pending())

	close(release)
	waitForPhrases(t, k, 10)
	require.Equal(t, 0, k.Pending())
}

func TestKeyboard_ConcurrentCallersNeverInterleave(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d)

	const callers, perCaller = 6, 20
	var wg sync.WaitGroup
	for c := 0; c < callers; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			for i := 0; i < perCaller; i++ {
				pitch := uint8(c*perCaller + i)
				if err := k.Play(contracts.NewPhrase(120, contracts.Audible(pitch, 1), contracts.Audible(pitch, 0.5))); err != nil {
					t.Error(err)
				}
			}
		}(c)
	}
	wg.Wait()
	waitForPhrases(t, k, callers*perCaller)

	// Each phrase renders as six consecutive events on one pitch.
	events := d.Events()
	require.Len(t, events, callers*perCaller*6)
	lastSeen := make(map[int]int)
	for i := 0; i < len(events); i += 6 {
		var pitch int
		_, err := fmt.Sscanf(events[i], "on %d", &pitch)
		require.NoError(t, err)
		require.Equal(t, []string{
			fmt.Sprintf("on %d", pitch), "hold 500ms", fmt.Sprintf("off %d", pitch),
			fmt.Sprintf("on %d", pitch), "hold 250ms", fmt.Sprintf("off %d", pitch),
		}, events[i:i+6])

		caller, seq := pitch/perCaller, pitch%perCaller
		if prev, ok := lastSeen[caller]; ok {
			require.Greater(t, seq, prev, "caller %d phrases out of order", caller)
		}
		lastSeen[caller] = seq
	}
}

func TestKeyboard_PlayAfterCloseFails(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d)

	require.NoError(t, k.Close())
	require.NoError(t, k.Close())
	require.True(t, d.devClose)
	require.True(t, d.closed)
	require.Equal(t, sequencer.Stopped, k.State())

	done := make(chan error, 1)
	go func() { done <- k.Play(contracts.NewPhrase(120, contracts.Audible(60, 1))) }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, contracts.ErrDeviceUnavailable)
	case <-time.After(time.Second):
		t.Fatal("Play blocked after Close")
	}
}

func TestKeyboard_CloseCutsCurrentNoteAndDropsQueue(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d, contracts.WithSleeper(sequencer.Sleep))

	require.NoError(t, k.Play(contracts.NewPhrase(60, contracts.Audible(60, 60))))
	require.NoError(t, k.Play(contracts.NewPhrase(60, contracts.Audible(72, 1))))
	require.Eventually(t, func() bool { return k.State() == sequencer.Rendering }, time.Second, time.Millisecond)

	start := time.Now()
	require.NoError(t, k.Close())
	require.Less(t, time.Since(start), time.Second)

	require.Equal(t, []string{"on 60", "off 60"}, d.Events())
}

func TestKeyboard_AllScoresPolicy(t *testing.T) {
	d := newFakeDriver()
	k := newTestKeyboard(t, d, contracts.WithScorePolicy(contracts.AllScores))

	require.NoError(t, k.Play(contracts.Phrase{Scores: []contracts.Score{
		{Tempo: 60, Notes: []contracts.Note{contracts.Silence(1)}},
		{Tempo: 120, Notes: []contracts.Note{contracts.Silence(1)}},
	}}))
	waitForPhrases(t, k, 1)

	require.Equal(t, []string{"hold 1s", "hold 500ms"}, d.Events())
}

func TestKeyboard_PhraseIsCopiedOnPlay(t *testing.T) {
	d := newFakeDriver()
	release := make(chan struct{})
	k := newTestKeyboard(t, d, contracts.WithSleeper(func(ctx context.Context, hold time.Duration) error {
		d.record("hold " + hold.String())
		<-release
		return nil
	}))

	require.NoError(t, k.Play(contracts.NewPhrase(60, contracts.Silence(1))))
	phrase := contracts.NewPhrase(60, contracts.Audible(60, 1))
	require.NoError(t, k.Play(phrase))
	phrase.Scores[0].Notes[0] = contracts.Audible(90, 1)

	close(release)
	waitForPhrases(t, k, 2)
	require.Equal(t, []string{"hold 1s", "on 60", "hold 1s", "off 60"}, d.Events())
}

func TestNewKeyboard_DuplicateNamesOpenListedPort(t *testing.T) {
	d := newFakeDriver()
	d.ports = append(d.ports, contracts.PortInfo{ID: 4, Name: "loopMIDI Port"})

	ports, err := ListPorts(contracts.WithDriverInstance(d), contracts.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	k := newTestKeyboard(t, d)
	require.Equal(t, ports["loopMIDI Port"], k.Port().ID)
	require.Equal(t, 4, k.Port().ID)
}

func TestListPorts(t *testing.T) {
	d := newFakeDriver()

	ports, err := ListPorts(contracts.WithDriverInstance(d), contracts.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"Microsoft GS Wavetable Synth": 0,
		"loopMIDI Port":                1,
	}, ports)
	require.True(t, d.closed)
}
