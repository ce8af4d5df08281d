package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeWAV(t *testing.T, seconds float64) []byte {
	t.Helper()
	format := beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	samples := int(seconds * float64(format.SampleRate))
	require.NoError(t, wav.Encode(f, beep.Silence(samples), format))
	require.NoError(t, f.Close())
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return raw
}

func TestDuration(t *testing.T) {
	raw := makeWAV(t, 1.0)

	got, err := Duration(raw)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 0.01)
}

func TestDurationUnknownFormat(t *testing.T) {
	_, err := Duration([]byte("definitely not audio"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestSlice(t *testing.T) {
	raw := makeWAV(t, 1.0)

	sliced, err := Slice(raw, 250, 750)
	require.NoError(t, err)

	got, err := Duration(sliced)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 0.01)
}

func TestSliceClampsToTrack(t *testing.T) {
	raw := makeWAV(t, 1.0)

	sliced, err := Slice(raw, -500, 5000)
	require.NoError(t, err)

	got, err := Duration(sliced)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 0.01)
}

func TestSliceEmptyRange(t *testing.T) {
	raw := makeWAV(t, 1.0)

	_, err := Slice(raw, 2000, 3000)
	assert.Error(t, err)
}

func TestSliceUnknownFormat(t *testing.T) {
	_, err := Slice([]byte("definitely not audio"), 0, 100)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
