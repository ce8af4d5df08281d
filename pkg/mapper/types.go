// Package mapper turns MIDI tempo information into tempo-consistent beatmap
// segments and merges such segments back into one continuous beatmap.
package mapper

import "fmt"

// TimeSignature is a musical meter, e.g. 4/4 or 6/8.
type TimeSignature struct {
	Numerator   int `json:"numerator"`
	Denominator int `json:"denominator"`
}

// String returns the meter in "num/den" form.
func (ts TimeSignature) String() string {
	return fmt.Sprintf("%d/%d", ts.Numerator, ts.Denominator)
}

// BeatsPerMeasure derives the number of beatmap beats per measure:
// numerator / (denominator/4). Meters that do not divide into a whole
// number of beats are not representable on the editor grid.
func (ts TimeSignature) BeatsPerMeasure() (int, error) {
	if ts.Numerator <= 0 || ts.Denominator <= 0 {
		return 0, &UnsupportedMeterError{Meter: ts}
	}
	if (ts.Numerator*4)%ts.Denominator != 0 {
		return 0, &UnsupportedMeterError{Meter: ts}
	}
	return ts.Numerator * 4 / ts.Denominator, nil
}

// NoteValue is the marker step in beats: denominator/4.
func (ts TimeSignature) NoteValue() float64 {
	if ts.Denominator == 0 {
		return 1
	}
	return float64(ts.Denominator) / 4
}

// TempoEvent is a tempo change at an absolute tick position.
type TempoEvent struct {
	TimeTicks int64
	Micros    float64 // microseconds per beat
	Track     int
}

// TimeSignatureEvent is a meter change at an absolute tick position, with
// its resolved wall-clock position.
type TimeSignatureEvent struct {
	Numerator   int
	Denominator int
	TimeTicks   int64
	TimeMs      float64
	Track       int
}

// TempoChange is the tempo part of a change point. BPM is stored rounded to
// two decimals; Micros keeps the exact MIDI value.
type TempoChange struct {
	BPM    float64 `json:"bpm"`
	Micros float64 `json:"tempo_micros"`
}

// Change is what happens at one instant: a tempo change, a meter change,
// or both.
type Change struct {
	Tempo *TempoChange   `json:"tempo,omitempty"`
	Meter *TimeSignature `json:"time_signature,omitempty"`
}

// Segment is a contiguous constant-tempo, constant-meter slice of the
// audio timeline.
type Segment struct {
	StartMs    float64       `json:"start_ms"`
	EndMs      float64       `json:"end_ms"`
	DurationMs float64       `json:"duration_ms"`
	BPM        float64       `json:"bpm"`
	Micros     float64       `json:"tempo_micros"`
	Meter      TimeSignature `json:"time_signature"`
}

// SegmentMetadata is the information carried by a segment filename.
type SegmentMetadata struct {
	BaseName      string         `json:"base_name"`
	SegmentNumber int            `json:"segment_number"`
	BPM           float64        `json:"bpm"`
	Meter         *TimeSignature `json:"time_signature,omitempty"`
	StartTimeS    float64        `json:"start_time_s"`
	EndTimeS      float64        `json:"end_time_s"`
	DurationS     float64        `json:"duration_s"`
	FileExtension string         `json:"file_extension"`
}

// MicrosToBPM converts microseconds per beat to beats per minute.
func MicrosToBPM(micros float64) float64 {
	return 60000000.0 / micros
}

// BPMToMicros converts beats per minute to microseconds per beat.
func BPMToMicros(bpm float64) float64 {
	return 60000000.0 / bpm
}

// SecondsToBeats converts a duration in seconds to beats at the given BPM.
func SecondsToBeats(seconds, bpm float64) float64 {
	return seconds * bpm / 60.0
}
