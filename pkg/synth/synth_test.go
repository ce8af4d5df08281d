package synth

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

func TestCloneIsIndependent(t *testing.T) {
	f := New(120)
	f.Difficulty("Expert").Right[4] = Note{X: 1, Y: 2, Time: 4}
	f.Bookmarks[0] = "intro"

	c := f.Clone()
	c.Difficulty("Expert").Right[8] = Note{X: 3, Y: 4, Time: 8}
	c.Bookmarks[8] = "verse"
	c.BPM = 200

	assert.Equal(t, 1, f.Difficulty("Expert").NoteCount())
	assert.Len(t, f.Bookmarks, 1)
	assert.InDelta(t, 120.0, f.BPM, 1e-9)
	assert.Equal(t, 2, c.Difficulty("Expert").NoteCount())
}

func TestChangeBPMPreservesWallClock(t *testing.T) {
	f := New(100)
	f.Difficulty("Expert").Right[10] = Note{X: 0, Y: 0, Time: 10}
	f.Bookmarks[10] = "drop"

	// Beat 10 at 100 BPM is 6 seconds in; at 200 BPM that is beat 20.
	f.ChangeBPM(200)

	note, ok := f.Difficulty("Expert").Right[20]
	require.True(t, ok)
	assert.InDelta(t, 20.0, note.Time, 1e-9)

	_, ok = f.Bookmarks[20]
	assert.True(t, ok)
	assert.InDelta(t, 200.0, f.BPM, 1e-9)
}

func TestOffsetEverything(t *testing.T) {
	f := New(120)
	f.Difficulty("Expert").Left[2] = Note{X: 0, Y: 0, Time: 2}
	f.Bookmarks[2] = "start"

	// 5 seconds at 120 BPM is 10 beats.
	f.OffsetEverything(5)

	note, ok := f.Difficulty("Expert").Left[12]
	require.True(t, ok)
	assert.InDelta(t, 12.0, note.Time, 1e-9)

	_, ok = f.Bookmarks[12]
	assert.True(t, ok)
}

func TestMergeRescalesOtherTempo(t *testing.T) {
	f := New(60)
	other := New(120)
	other.Difficulty("Expert").Right[8] = Note{X: 1, Y: 1, Time: 8}
	other.Bookmarks[8] = "seam"

	f.Merge(other, true)

	// Beat 8 at 120 BPM lands on beat 4 at 60 BPM.
	note, ok := f.Difficulty("Expert").Right[4]
	require.True(t, ok)
	assert.InDelta(t, 4.0, note.Time, 1e-9)

	_, ok = f.Bookmarks[4]
	assert.True(t, ok)
}

func TestMergeWithoutAdjustKeepsBeats(t *testing.T) {
	f := New(60)
	other := New(120)
	other.Difficulty("Expert").Right[8] = Note{X: 1, Y: 1, Time: 8}

	f.Merge(other, false)

	_, ok := f.Difficulty("Expert").Right[8]
	assert.True(t, ok)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := New(128.25)
	f.Meta = Meta{Name: "Song", Artist: "Artist", Mapper: "mapper"}
	f.ChangeOffset(2000)
	f.Difficulty("Expert").Right[8.5] = Note{X: 1.25, Y: -2, Time: 8.5}
	f.Difficulty("Expert").Left[9] = Note{X: -1.25, Y: -2, Time: 9}
	f.Bookmarks[8.5] = "128.25 BPM || Time Signature 4/4"
	require.NoError(t, f.SetAudio(makeWAV(t, 0.25), "track.wav"))

	path := filepath.Join(t.TempDir(), "roundtrip.synth")
	require.NoError(t, f.SaveAs(path))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, f.Meta, got.Meta)
	assert.Equal(t, f.BPM, got.BPM)
	assert.Equal(t, f.OffsetMs, got.OffsetMs)
	assert.Equal(t, "track.wav", got.AudioName)
	assert.Equal(t, f.AudioRaw, got.AudioRaw)
	assert.InDelta(t, f.AudioDuration, got.AudioDuration, 1e-6)

	diff := got.Difficulty("Expert")
	assert.Equal(t, Note{X: 1.25, Y: -2, Time: 8.5}, diff.Right[8.5])
	assert.Equal(t, Note{X: -1.25, Y: -2, Time: 9}, diff.Left[9])
	assert.Equal(t, f.Bookmarks[8.5], got.Bookmarks[8.5])
}

func TestLoadRejectsMissingMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.synth")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
