package mapper

import (
	"errors"
	"fmt"
)

// ErrNoSegments is returned by Merge when the segment file list is empty.
var ErrNoSegments = errors.New("no segment files provided")

// MidiParseError reports malformed tempo/time-signature track data. A split
// run that hits it produces no segments but does not crash the process.
type MidiParseError struct {
	Err error
}

func (e *MidiParseError) Error() string {
	return fmt.Sprintf("cannot parse MIDI tempo data: %v", e.Err)
}

func (e *MidiParseError) Unwrap() error { return e.Err }

// UnsupportedMeterError reports a time signature that does not resolve to a
// whole number of beats per measure.
type UnsupportedMeterError struct {
	Meter TimeSignature
}

func (e *UnsupportedMeterError) Error() string {
	return fmt.Sprintf("unsupported meter %s: beats per measure is not a whole number", e.Meter)
}

// AudioSegmentError reports a failed audio slice. It aborts only the
// segment it occurred in.
type AudioSegmentError struct {
	StartMs float64
	EndMs   float64
	Err     error
}

func (e *AudioSegmentError) Error() string {
	return fmt.Sprintf("cannot slice audio %.2fms-%.2fms: %v", e.StartMs, e.EndMs, e.Err)
}

func (e *AudioSegmentError) Unwrap() error { return e.Err }

// FilenameFormatError reports a segment filename that does not match the
// canonical grammar. It aborts the whole merge, since ordering depends on
// every file being classifiable.
type FilenameFormatError struct {
	Filename string
}

func (e *FilenameFormatError) Error() string {
	return fmt.Sprintf("filename does not match segment pattern: %s", e.Filename)
}
