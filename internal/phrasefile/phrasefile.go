// Package phrasefile reads and writes phrases as YAML documents.
//
// A document lists scores, each with a tempo and a sequence of notes:
//
//	scores:
//	  - tempo: 172
//	    notes: ["G4:1.5", "rest:1", "70:1"]
//
// A note is written "<pitch>:<beats>" where pitch is a MIDI number or a name
// such as C4, F#3 or Bb2 (C4 = 60), or "rest:<beats>". The mapping forms
// {pitch: 67, beats: 1.5} and {rest: 1} are accepted too.
package phrasefile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"gopkg.in/yaml.v3"
)

type document struct {
	Scores []scoreDoc `yaml:"scores"`
}

type scoreDoc struct {
	Tempo int       `yaml:"tempo"`
	Notes []noteDoc `yaml:"notes"`
}

type noteDoc struct {
	contracts.Note
}

type noteMapping struct {
	Pitch *string  `yaml:"pitch"` // number or note name
	Beats *float64 `yaml:"beats"`
	Rest  *float64 `yaml:"rest"`
}

func (n *noteDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		note, err := ParseNote(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		n.Note = note
		return nil
	case yaml.MappingNode:
		var m noteMapping
		if err := value.Decode(&m); err != nil {
			return err
		}
		switch {
		case m.Rest != nil && m.Pitch == nil:
			n.Note = contracts.Silence(*m.Rest)
			return nil
		case m.Pitch != nil && m.Beats != nil && m.Rest == nil:
			pitch, err := ParsePitch(*m.Pitch)
			if err != nil {
				return fmt.Errorf("line %d: %w", value.Line, err)
			}
			n.Note = contracts.Audible(pitch, *m.Beats)
			return nil
		}
		return fmt.Errorf("line %d: a note needs either pitch and beats, or rest", value.Line)
	}
	return fmt.Errorf("line %d: unexpected note value", value.Line)
}

func (n noteDoc) MarshalYAML() (interface{}, error) {
	return n.Note.String(), nil
}

// Parse decodes a YAML phrase and validates it.
func Parse(data []byte) (contracts.Phrase, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return contracts.Phrase{}, fmt.Errorf("%w: %v", contracts.ErrInvalidPhrase, err)
	}

	phrase := contracts.Phrase{Scores: make([]contracts.Score, 0, len(doc.Scores))}
	for _, s := range doc.Scores {
		score := contracts.Score{Tempo: s.Tempo, Notes: make([]contracts.Note, 0, len(s.Notes))}
		for _, n := range s.Notes {
			score.Notes = append(score.Notes, n.Note)
		}
		phrase.Scores = append(phrase.Scores, score)
	}
	if err := phrase.Validate(); err != nil {
		return contracts.Phrase{}, err
	}
	return phrase, nil
}

// Load reads a phrase file from disk.
func Load(path string) (contracts.Phrase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return contracts.Phrase{}, fmt.Errorf("reading phrase file: %w", err)
	}
	phrase, err := Parse(data)
	if err != nil {
		return contracts.Phrase{}, fmt.Errorf("%s: %w", path, err)
	}
	return phrase, nil
}

// Marshal encodes a phrase in the short "<pitch>:<beats>" note form.
func Marshal(p contracts.Phrase) ([]byte, error) {
	doc := document{Scores: make([]scoreDoc, 0, len(p.Scores))}
	for _, s := range p.Scores {
		sd := scoreDoc{Tempo: s.Tempo, Notes: make([]noteDoc, 0, len(s.Notes))}
		for _, n := range s.Notes {
			sd.Notes = append(sd.Notes, noteDoc{n})
		}
		doc.Scores = append(doc.Scores, sd)
	}
	return yaml.Marshal(doc)
}

// ParseNote parses "<pitch>:<beats>" or "rest:<beats>".
func ParseNote(s string) (contracts.Note, error) {
	head, tail, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return contracts.Note{}, fmt.Errorf("%w: note %q must be written pitch:beats", contracts.ErrInvalidPhrase, s)
	}
	beats, err := strconv.ParseFloat(strings.TrimSpace(tail), 64)
	if err != nil {
		return contracts.Note{}, fmt.Errorf("%w: note %q has invalid beats", contracts.ErrInvalidPhrase, s)
	}
	head = strings.TrimSpace(head)
	if strings.EqualFold(head, "rest") {
		return contracts.Silence(beats), nil
	}
	pitch, err := ParsePitch(head)
	if err != nil {
		return contracts.Note{}, err
	}
	return contracts.Audible(pitch, beats), nil
}

var semitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// ParsePitch accepts a MIDI note number (0-127) or a note name with an
// optional accidental and an octave, where C4 is 60 and A4 is 69.
func ParsePitch(s string) (uint8, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > int(contracts.MaxPitch) {
			return 0, fmt.Errorf("%w: pitch %d out of range 0..%d", contracts.ErrInvalidPhrase, n, contracts.MaxPitch)
		}
		return uint8(n), nil
	}

	if s == "" {
		return 0, fmt.Errorf("%w: empty pitch", contracts.ErrInvalidPhrase)
	}
	base, ok := semitones[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown pitch %q", contracts.ErrInvalidPhrase, s)
	}
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "#"):
		base++
		rest = rest[1:]
	case strings.HasPrefix(rest, "b"):
		base--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: pitch %q needs an octave", contracts.ErrInvalidPhrase, s)
	}
	n := (octave+1)*12 + base
	if n < 0 || n > int(contracts.MaxPitch) {
		return 0, fmt.Errorf("%w: pitch %q out of range", contracts.ErrInvalidPhrase, s)
	}
	return uint8(n), nil
}
