package mapper

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gumaerc/midi-2-synth/pkg/synth"
)

// writeSegmentFile builds a minimal single-note segment beatmap on disk and
// returns its path.
func writeSegmentFile(t *testing.T, dir string, number int, bpm, startS, endS float64) string {
	t.Helper()
	file := synth.New(bpm)
	file.Difficulty(DefaultDifficulty).Right[0] = synth.Note{X: 1, Y: 1, Time: 0}
	require.NoError(t, file.SetAudio(makeWAV(t, 0.1), "track.wav"))

	meta := SegmentMetadata{
		BaseName:      "Song",
		SegmentNumber: number,
		BPM:           bpm,
		Meter:         &TimeSignature{Numerator: 4, Denominator: 4},
		StartTimeS:    startS,
		EndTimeS:      endS,
		DurationS:     endS - startS,
		FileExtension: "synth",
	}
	path := filepath.Join(dir, meta.Filename(3))
	require.NoError(t, file.SaveAs(path))
	return path
}

func sortedBeats(set synth.NoteSet) []float64 {
	beats := make([]float64, 0, len(set))
	for beat := range set {
		beats = append(beats, beat)
	}
	sort.Float64s(beats)
	return beats
}

func TestMergeOrdersByStartTime(t *testing.T) {
	dir := t.TempDir()
	// Written out of order on purpose.
	paths := []string{
		writeSegmentFile(t, dir, 3, 120, 10, 15),
		writeSegmentFile(t, dir, 1, 120, 0, 5),
		writeSegmentFile(t, dir, 2, 120, 5, 10),
	}

	base := synth.New(100)
	merged, err := NewMerger().Merge(base, paths)
	require.NoError(t, err)

	diff := merged.Difficulty(DefaultDifficulty)
	beats := sortedBeats(diff.Right)
	require.Len(t, beats, 3)

	// Each note starts at beat 0 of its segment, shifts by the recovered
	// start time at 120 BPM, then rescales to the base 100 BPM.
	assert.InDelta(t, 0.0, beats[0], 1e-9)
	assert.InDelta(t, 5.0*2.0*100.0/120.0, beats[1], 1e-9)
	assert.InDelta(t, 10.0*2.0*100.0/120.0, beats[2], 1e-9)
}

func TestMergeBookmarksSegments(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeSegmentFile(t, dir, 1, 120, 0, 5)}

	merged, err := NewMerger().Merge(synth.New(100), paths)
	require.NoError(t, err)

	label, ok := merged.Bookmarks[0.0]
	require.True(t, ok)
	assert.Equal(t, "120.0 BPM || Time Signature 4/4", label)
}

func TestBookmarkBPM(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{120, "120.0"},
		{146.34, "146.34"},
		{170.5, "170.5"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, bookmarkBPM(tt.in))
	}
}

func TestMergeBookmarksEmptySegmentAtZero(t *testing.T) {
	dir := t.TempDir()
	file := synth.New(140)
	require.NoError(t, file.SetAudio(makeWAV(t, 0.1), "track.wav"))
	meta := SegmentMetadata{
		BaseName:      "Song",
		SegmentNumber: 1,
		BPM:           140,
		Meter:         &TimeSignature{Numerator: 3, Denominator: 4},
		StartTimeS:    0,
		EndTimeS:      5,
		DurationS:     5,
		FileExtension: "synth",
	}
	path := filepath.Join(dir, meta.Filename(1))
	require.NoError(t, file.SaveAs(path))

	merged, err := NewMerger().Merge(synth.New(140), []string{path})
	require.NoError(t, err)

	label, ok := merged.Bookmarks[0.0]
	require.True(t, ok)
	assert.Equal(t, "140.0 BPM || Time Signature 3/4", label)
}

func TestMergeNoSegments(t *testing.T) {
	_, err := NewMerger().Merge(synth.New(100), nil)
	assert.ErrorIs(t, err, ErrNoSegments)
}

func TestMergeRejectsBadFilename(t *testing.T) {
	_, err := NewMerger().Merge(synth.New(100), []string{"somewhere/not-a-segment.synth"})
	var fmtErr *FilenameFormatError
	require.ErrorAs(t, err, &fmtErr)
	assert.Equal(t, "not-a-segment.synth", fmtErr.Filename)
}

func TestSplitThenMergeKeepsOriginalNotes(t *testing.T) {
	dir := t.TempDir()

	src := makeSource(t, 120, 4.0)
	right := src.Difficulty(DefaultDifficulty).Right
	for _, beat := range []float64{1, 3, 5} {
		right[beat] = synth.Note{X: beat, Y: 0, Time: beat}
	}

	segments := []Segment{
		{StartMs: 0, EndMs: 4000, DurationMs: 4000, BPM: 120,
			Meter: TimeSignature{Numerator: 4, Denominator: 4}},
	}
	summary := NewSplitter().Run(src, "Song.synth", segments, dir)
	require.Equal(t, 1, summary.Succeeded)

	merged, err := NewMerger().Merge(synth.New(120), summary.Outputs)
	require.NoError(t, err)

	// Timing markers are additive; the source notes survive at their
	// original beats.
	got := merged.Difficulty(DefaultDifficulty).Right
	for _, beat := range []float64{1, 3, 5} {
		note, ok := got[beat]
		require.True(t, ok, "missing original note at beat %v", beat)
		assert.InDelta(t, beat, note.Time, 1e-9)
	}
}

func TestMergeFolder(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFile(t, dir, 1, 120, 0, 5)
	writeSegmentFile(t, dir, 2, 120, 5, 10)

	base := synth.New(120)
	require.NoError(t, base.SetAudio(makeWAV(t, 0.5), "track.wav"))
	basePath := filepath.Join(dir, "base.synth")
	require.NoError(t, base.SaveAs(basePath))

	outputPath := filepath.Join(dir, "merged.synth")
	require.NoError(t, NewMerger().MergeFolder(basePath, dir, outputPath))

	_, err := os.Stat(outputPath)
	require.NoError(t, err)

	merged, err := synth.Load(outputPath)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.Difficulty(DefaultDifficulty).NoteCount())
	assert.Len(t, merged.Bookmarks, 2)
}
