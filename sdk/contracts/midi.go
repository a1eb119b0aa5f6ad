package contracts

// MIDICommand is the status nibble of a channel voice message.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// DefaultVelocity is the fixed velocity sent with every note command.
const DefaultVelocity uint8 = 0x64

// OutputDevice is an open, exclusively owned connection to a MIDI output port.
type OutputDevice interface {
	Send(msg []byte) error // Sends one raw MIDI message; failures are not fatal.
	Close() error          // Releases the port.
}

// Driver enumerates and opens output ports on one MIDI backend.
type Driver interface {
	Name() string                          // Backend name, e.g. "rtmidi".
	Ports() ([]PortInfo, error)            // Point-in-time snapshot of visible output ports.
	Open(portID int) (OutputDevice, error) // Opens the port with the given identifier.
	Close() error                          // Releases the backend.
}

// Stats counts what a Keyboard has rendered so far.
type Stats struct {
	Phrases      uint64 // Phrases fully rendered.
	Notes        uint64 // Notes rendered, rests included.
	Sent         uint64 // Commands accepted by the device.
	SendFailures uint64 // Commands the device rejected.
	Skipped      uint64 // Queue entries dropped as unplayable.
}

// Keyboard plays phrases on one output device, in submission order.
type Keyboard interface {
	Play(phrase Phrase) error // Queues a phrase and returns without waiting for playback.
	Pending() int             // Phrases queued but not yet started.
	Stats() Stats             // Rendering counters.
	Close() error             // Stops playback and releases the device.
}
