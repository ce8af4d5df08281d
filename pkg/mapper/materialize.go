package mapper

import (
	"math"

	"go.uber.org/zap"

	"github.com/gumaerc/midi-2-synth/pkg/audio"
	"github.com/gumaerc/midi-2-synth/pkg/logger"
	"github.com/gumaerc/midi-2-synth/pkg/pattern"
	"github.com/gumaerc/midi-2-synth/pkg/synth"
)

// Marker geometry parameters, matched to the target editor's grid.
const (
	markerCenterX       = 0.0
	markerCenterY       = 0.0
	spiralRadius        = 4.0
	rotationsPerMeasure = 0.5

	// The editor requires this much silence before playable content.
	minSilenceSeconds = 2.0

	// DefaultDifficulty receives the timing markers.
	DefaultDifficulty = "Expert"
)

// AudioSlicer cuts [startMs, endMs) out of raw audio.
type AudioSlicer interface {
	Slice(raw []byte, startMs, endMs float64) ([]byte, error)
}

// SlicerFunc adapts a function to AudioSlicer.
type SlicerFunc func(raw []byte, startMs, endMs float64) ([]byte, error)

func (f SlicerFunc) Slice(raw []byte, startMs, endMs float64) ([]byte, error) {
	return f(raw, startMs, endMs)
}

// Materializer builds one standalone beatmap per tempo segment.
type Materializer struct {
	Difficulty string
	Slicer     AudioSlicer
}

// NewMaterializer returns a materializer with the default difficulty and
// the real audio slicer.
func NewMaterializer() *Materializer {
	return &Materializer{
		Difficulty: DefaultDifficulty,
		Slicer:     SlicerFunc(audio.Slice),
	}
}

// Materialize produces a new beatmap for one segment: the source with the
// segment's tempo applied, measure-aligned leading silence, the matching
// audio slice, and a grid of timing markers over the segment's beat range.
func (m *Materializer) Materialize(src *synth.File, seg Segment) (*synth.File, error) {
	beatsPerMeasure, err := seg.Meter.BeatsPerMeasure()
	if err != nil {
		return nil, err
	}
	noteValue := seg.Meter.NoteValue()

	out := src.Clone()
	out.ChangeBPM(seg.BPM)

	secondsPerBeat := 60.0 / seg.BPM
	secondsPerMeasure := secondsPerBeat * float64(beatsPerMeasure)

	// Pad past the 2-second minimum until the next measure line so the
	// first downbeat lands exactly on the grid. The very first segment
	// keeps the source's own lead-in and needs no padding.
	remainder := math.Mod(minSilenceSeconds, secondsPerMeasure)
	extra := 0.0
	if remainder != 0 {
		extra = secondsPerMeasure - remainder
	}
	totalOffsetMs := 0.0
	if seg.StartMs != 0 {
		totalOffsetMs = (minSilenceSeconds + extra) * 1000.0
	}
	out.ChangeOffset(totalOffsetMs)

	logger.Info("creating segment",
		zap.Float64("bpm", seg.BPM),
		zap.Float64("offset_ms", totalOffsetMs),
		zap.Float64("start_ms", seg.StartMs),
		zap.Float64("end_ms", seg.EndMs))

	sliced, err := m.Slicer.Slice(src.AudioRaw, seg.StartMs, seg.EndMs)
	if err != nil {
		return nil, &AudioSegmentError{StartMs: seg.StartMs, EndMs: seg.EndMs, Err: err}
	}
	if err := out.SetAudio(sliced, "track.wav"); err != nil {
		return nil, &AudioSegmentError{StartMs: seg.StartMs, EndMs: seg.EndMs, Err: err}
	}

	startBeat, endBeat := segmentBeatRange(seg, beatsPerMeasure)
	m.addTimingMarkers(out, beatsPerMeasure, noteValue, startBeat, endBeat)

	return out, nil
}

// segmentBeatRange computes the marker range: the first whole-measure
// boundary strictly past the minimum delay, and the segment's beat length
// rounded down to whole measures (at least one), shifted by the start for
// non-initial segments.
func segmentBeatRange(seg Segment, beatsPerMeasure int) (startBeat, endBeat float64) {
	bpm := float64(beatsPerMeasure)

	minDelayBeats := SecondsToBeats(minSilenceSeconds, seg.BPM)
	startBeat = bpm * (math.Floor(minDelayBeats/bpm) + 1)

	totalBeats := math.Ceil(math.Floor(SecondsToBeats(seg.DurationMs/1000.0, seg.BPM))/bpm) * bpm
	if totalBeats < bpm {
		totalBeats = bpm
	}
	endBeat = math.Floor(totalBeats/bpm) * bpm
	if seg.StartMs != 0 {
		endBeat += startBeat
	}
	return startBeat, endBeat
}

// addTimingMarkers inserts one visual marker per note value from startBeat
// to endBeat inclusive, laid out on a spiral that rotates half a turn per
// measure, alternating hands every two measures and mirror direction every
// full rotation.
func (m *Materializer) addTimingMarkers(out *synth.File, beatsPerMeasure int, noteValue, startBeat, endBeat float64) {
	var beatTimes []float64
	for i := 0; ; i++ {
		bt := startBeat + float64(i)*noteValue
		if bt > endBeat {
			break
		}
		beatTimes = append(beatTimes, bt)
	}
	if len(beatTimes) == 0 {
		logger.Warn("no timing markers to add",
			zap.Float64("start_beat", startBeat),
			zap.Float64("end_beat", endBeat))
		return
	}

	logger.Info("adding timing markers",
		zap.Int("count", len(beatTimes)),
		zap.Float64("start_beat", startBeat),
		zap.Float64("end_beat", endBeat),
		zap.Float64("bpm", out.BPM))

	nodes := make([]pattern.Node, len(beatTimes))
	for i, bt := range beatTimes {
		nodes[i] = pattern.Node{X: markerCenterX, Y: markerCenterY, Time: bt}
	}

	// Fidelity is markers per full rotation; the marker count cancels out
	// of total-markers / (measures * rotations-per-measure).
	fidelity := float64(len(beatTimes))
	if rotationsPerMeasure > 0 {
		totalMeasures := float64(len(beatTimes)) / float64(beatsPerMeasure)
		fidelity = float64(len(beatTimes)) / (totalMeasures * rotationsPerMeasure)
	}
	coords := pattern.Spiral(nodes, fidelity, spiralRadius, 0.0, 1)

	diff := out.Difficulty(m.difficulty())
	for i, bt := range beatTimes {
		place := pattern.Place(bt, startBeat, beatsPerMeasure, rotationsPerMeasure)
		x := coords[i].X
		if place.Mirrored {
			x = markerCenterX - (coords[i].X - markerCenterX)
		}
		note := synth.Note{X: x, Y: coords[i].Y, Time: bt}
		if place.RightHand {
			diff.Right[bt] = note
		} else {
			diff.Left[bt] = note
		}
	}
}

func (m *Materializer) difficulty() string {
	if m.Difficulty == "" {
		return DefaultDifficulty
	}
	return m.Difficulty
}
