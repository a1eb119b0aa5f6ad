package contracts

import (
	"fmt"
	"math"
	"time"
)

// MaxPitch is the highest MIDI note number a device accepts.
const MaxPitch uint8 = 127

// maxHoldMs is the longest hold, in milliseconds, a time.Duration can carry.
const maxHoldMs = float64(math.MaxInt64 / int64(time.Millisecond))

// Note is either an audible pitch or a rest, each lasting a number of beats.
// Build notes with Audible and Silence; the zero value is a rest of no length.
type Note struct {
	Pitch   uint8   // MIDI note number (440Hz concert A = 69). Ignored for rests.
	Beats   float64 // Duration relative to one beat of the enclosing Score.
	audible bool
}

// Audible returns a note sounding pitch for the given number of beats.
func Audible(pitch uint8, beats float64) Note {
	return Note{Pitch: pitch, Beats: beats, audible: true}
}

// Silence returns a rest lasting the given number of beats.
func Silence(beats float64) Note {
	return Note{Beats: beats}
}

// IsSilence reports whether the note is a rest.
func (n Note) IsSilence() bool {
	return !n.audible
}

// String renders the note the way it is written in phrase files.
func (n Note) String() string {
	if n.IsSilence() {
		return fmt.Sprintf("rest:%g", n.Beats)
	}
	return fmt.Sprintf("%d:%g", n.Pitch, n.Beats)
}

// Validate checks the pitch range and that the duration is a finite, non-negative number.
func (n Note) Validate() error {
	if math.IsNaN(n.Beats) || math.IsInf(n.Beats, 0) || n.Beats < 0 {
		return fmt.Errorf("%w: note %s has invalid duration", ErrInvalidPhrase, n)
	}
	if n.audible && n.Pitch > MaxPitch {
		return fmt.Errorf("%w: pitch %d out of range 0..%d", ErrInvalidPhrase, n.Pitch, MaxPitch)
	}
	return nil
}

// Score is a succession of notes played at a fixed tempo.
type Score struct {
	Tempo int    // Beats per minute; must be positive.
	Notes []Note // Played in order, one at a time.
}

// BeatDuration returns the wall-clock length of one beat, 60000/Tempo milliseconds.
func (s Score) BeatDuration() (time.Duration, error) {
	if s.Tempo <= 0 {
		return 0, fmt.Errorf("%w: %d bpm", ErrInvalidTempo, s.Tempo)
	}
	return time.Minute / time.Duration(s.Tempo), nil
}

// Hold returns how long a note lasts within the score, rounded to the millisecond.
func (s Score) Hold(n Note) (time.Duration, error) {
	if s.Tempo <= 0 {
		return 0, fmt.Errorf("%w: %d bpm", ErrInvalidTempo, s.Tempo)
	}
	ms := math.Round(60000.0 / float64(s.Tempo) * n.Beats)
	if ms > maxHoldMs {
		return 0, fmt.Errorf("%w: note %s is too long at %d bpm", ErrInvalidPhrase, n, s.Tempo)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// Duration is the sum of every note hold in the score.
func (s Score) Duration() (time.Duration, error) {
	var total time.Duration
	for _, n := range s.Notes {
		d, err := s.Hold(n)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

// Validate rejects non-positive tempos and malformed notes.
func (s Score) Validate() error {
	if s.Tempo <= 0 {
		return fmt.Errorf("%w: %d bpm", ErrInvalidTempo, s.Tempo)
	}
	for _, n := range s.Notes {
		if err := n.Validate(); err != nil {
			return err
		}
		if _, err := s.Hold(n); err != nil {
			return err
		}
	}
	return nil
}

// Phrase is the unit of playback submitted to a Keyboard.
type Phrase struct {
	Scores []Score
}

// NewPhrase builds a single-score phrase.
func NewPhrase(tempo int, notes ...Note) Phrase {
	return Phrase{Scores: []Score{{Tempo: tempo, Notes: notes}}}
}

// Validate checks that the phrase holds at least one score and that every score is playable.
func (p Phrase) Validate() error {
	if len(p.Scores) == 0 {
		return fmt.Errorf("%w: phrase has no scores", ErrInvalidPhrase)
	}
	for i, s := range p.Scores {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("score %d: %w", i, err)
		}
	}
	return nil
}

// Select returns the scores rendered under the given policy.
func (p Phrase) Select(policy ScorePolicy) []Score {
	if len(p.Scores) == 0 {
		return nil
	}
	if policy == AllScores {
		return p.Scores
	}
	return p.Scores[:1]
}

// Clone returns a deep copy, so later changes by the caller cannot reach a queued phrase.
func (p Phrase) Clone() Phrase {
	scores := make([]Score, len(p.Scores))
	for i, s := range p.Scores {
		scores[i] = Score{Tempo: s.Tempo, Notes: append([]Note(nil), s.Notes...)}
	}
	return Phrase{Scores: scores}
}
