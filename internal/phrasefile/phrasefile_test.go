package phrasefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/notekeys/sdk/contracts"
	"github.com/stretchr/testify/require"
)

func TestParse_ShortForm(t *testing.T) {
	phrase, err := Parse([]byte(`
scores:
  - tempo: 172
    notes: ["G4:1.5", "rest:1", "70:1"]
`))
	require.NoError(t, err)
	require.Equal(t, contracts.NewPhrase(172,
		contracts.Audible(67, 1.5),
		contracts.Silence(1),
		contracts.Audible(70, 1),
	), phrase)
}

func TestParse_MappingForm(t *testing.T) {
	phrase, err := Parse([]byte(`
scores:
  - tempo: 90
    notes:
      - {pitch: C4, beats: 0.5}
      - {rest: 0.25}
      - {pitch: 69, beats: 2}
`))
	require.NoError(t, err)
	require.Equal(t, contracts.NewPhrase(90,
		contracts.Audible(60, 0.5),
		contracts.Silence(0.25),
		contracts.Audible(69, 2),
	), phrase)
}

func TestParse_MappingNumericPitch(t *testing.T) {
	phrase, err := Parse([]byte("scores:\n  - tempo: 120\n    notes:\n      - {pitch: 67, beats: 1.5}\n"))
	require.NoError(t, err)
	require.Equal(t, contracts.NewPhrase(120, contracts.Audible(67, 1.5)), phrase)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"zero tempo", "scores: [{tempo: 0, notes: ['60:1']}]", contracts.ErrInvalidTempo},
		{"no scores", "scores: []", contracts.ErrInvalidPhrase},
		{"missing colon", "scores: [{tempo: 60, notes: ['60']}]", contracts.ErrInvalidPhrase},
		{"bad beats", "scores: [{tempo: 60, notes: ['60:x']}]", contracts.ErrInvalidPhrase},
		{"pitch too high", "scores: [{tempo: 60, notes: ['128:1']}]", contracts.ErrInvalidPhrase},
		{"negative beats", "scores: [{tempo: 60, notes: ['rest:-1']}]", contracts.ErrInvalidPhrase},
		{"pitch without beats", "scores: [{tempo: 60, notes: [{pitch: 60}]}]", contracts.ErrInvalidPhrase},
		{"mapping pitch too high", "scores: [{tempo: 60, notes: [{pitch: 200, beats: 1}]}]", contracts.ErrInvalidPhrase},
		{"unknown note name", "scores: [{tempo: 60, notes: [{pitch: H4, beats: 1}]}]", contracts.ErrInvalidPhrase},
		{"not yaml", "scores: [", contracts.ErrInvalidPhrase},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParsePitch(t *testing.T) {
	tests := []struct {
		in       string
		expected uint8
	}{
		{"60", 60},
		{"C4", 60},
		{"A4", 69},
		{"G4", 67},
		{"F#3", 54},
		{"Bb2", 46},
		{"c-1", 0},
		{"G9", 127},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePitch(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	for _, bad := range []string{"", "H4", "C", "G#9", "-1"} {
		_, err := ParsePitch(bad)
		require.ErrorIs(t, err, contracts.ErrInvalidPhrase, bad)
	}
}

func TestMarshal_RoundTripsAlert(t *testing.T) {
	data, err := Marshal(Alert())
	require.NoError(t, err)
	require.Contains(t, string(data), "67:1.5")

	phrase, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, Alert(), phrase)
}

func TestLoadAndResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fanfare.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scores: [{tempo: 120, notes: ['C5:1']}]"), 0o644))

	phrase, err := Resolve(path, "alert")
	require.NoError(t, err)
	require.Equal(t, contracts.NewPhrase(120, contracts.Audible(72, 1)), phrase)

	phrase, err = Resolve("", "alert")
	require.NoError(t, err)
	require.Equal(t, Alert(), phrase)

	_, err = Resolve("", "fanfare")
	require.ErrorIs(t, err, contracts.ErrInvalidPhrase)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestAlert(t *testing.T) {
	alert := Alert()
	require.NoError(t, alert.Validate())
	require.Equal(t, 172, alert.Scores[0].Tempo)
	require.Len(t, alert.Scores[0].Notes, 6)
	require.Equal(t, []string{"alert"}, BuiltinNames())
}
