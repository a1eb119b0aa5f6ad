package contracts

import (
	"context"
	"time"
)

// ScorePolicy decides which scores of a multi-score phrase are rendered.
type ScorePolicy int

const (
	// FirstScoreOnly renders the first score and ignores the rest.
	FirstScoreOnly ScorePolicy = iota
	// AllScores renders every score back to back.
	AllScores
)

// Sleeper holds for d or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted.
type Sleeper func(ctx context.Context, d time.Duration) error

// Driver names accepted by WithDriver.
const (
	DriverRtMidi   = "rtmidi"
	DriverCoreMIDI = "coremidi"
	DriverWinMM    = "winmm"
)

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client registered with the system.
}

// ClientOptions defines the configuration options for keyboards and port listings.
type ClientOptions struct {
	Logger         Logger          // Logger for lifecycle events and send failures.
	LogLevel       LogLevel        // Level of logging to use.
	DriverName     string          // Backend to use; empty picks the platform default.
	Driver         Driver          // Pre-built backend; takes precedence over DriverName.
	Channel        uint8           // MIDI channel (0-15) note commands are sent on.
	Velocity       uint8           // Velocity of note-on and note-off commands.
	ScorePolicy    ScorePolicy     // Which scores of a phrase are rendered.
	Sleeper        Sleeper         // Hold primitive used between commands.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithDriver selects a backend by name (DriverRtMidi, DriverCoreMIDI, DriverWinMM).
func WithDriver(name string) Option {
	return func(opts *ClientOptions) {
		opts.DriverName = name
	}
}

// WithDriverInstance supplies an already constructed backend.
// The keyboard takes ownership and closes it on Close.
func WithDriverInstance(d Driver) Option {
	return func(opts *ClientOptions) {
		opts.Driver = d
	}
}

// WithChannel sets the MIDI channel note commands are sent on.
func WithChannel(channel uint8) Option {
	return func(opts *ClientOptions) {
		opts.Channel = channel & 0x0F
	}
}

// WithVelocity sets the velocity of note commands.
func WithVelocity(velocity uint8) Option {
	return func(opts *ClientOptions) {
		opts.Velocity = velocity & 0x7F
	}
}

// WithScorePolicy sets which scores of a phrase are rendered.
func WithScorePolicy(policy ScorePolicy) Option {
	return func(opts *ClientOptions) {
		opts.ScorePolicy = policy
	}
}

// WithSleeper replaces the hold primitive, mostly useful in tests.
func WithSleeper(s Sleeper) Option {
	return func(opts *ClientOptions) {
		opts.Sleeper = s
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}
