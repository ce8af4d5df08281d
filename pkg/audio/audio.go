// Package audio probes and slices the beatmap's audio track.
package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/faiface/beep"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// ErrUnknownFormat is returned for audio data that is neither Ogg Vorbis
// nor WAV.
var ErrUnknownFormat = errors.New("unknown audio format")

func decode(raw []byte) (beep.StreamSeekCloser, beep.Format, error) {
	switch {
	case len(raw) >= 4 && string(raw[:4]) == "OggS":
		return vorbis.Decode(io.NopCloser(bytes.NewReader(raw)))
	case len(raw) >= 4 && string(raw[:4]) == "RIFF":
		return wav.Decode(bytes.NewReader(raw))
	default:
		return nil, beep.Format{}, ErrUnknownFormat
	}
}

// Duration returns the audio length in seconds.
func Duration(raw []byte) (float64, error) {
	s, format, err := decode(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer func() { _ = s.Close() }()

	return float64(s.Len()) / float64(format.SampleRate), nil
}

// Slice cuts [startMs, endMs) out of the audio and returns it re-encoded
// as WAV. Boundaries are clamped to the track; an empty range after
// clamping is an error.
func Slice(raw []byte, startMs, endMs float64) ([]byte, error) {
	s, format, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer func() { _ = s.Close() }()

	buffer := beep.NewBuffer(format)
	buffer.Append(s)

	start := msToSample(startMs, format.SampleRate)
	end := msToSample(endMs, format.SampleRate)
	if start < 0 {
		start = 0
	}
	if end > buffer.Len() {
		end = buffer.Len()
	}
	if end <= start {
		return nil, fmt.Errorf("empty audio range %.2fms-%.2fms", startMs, endMs)
	}

	var out writeSeekBuffer
	if err := wav.Encode(&out, buffer.Streamer(start, end), format); err != nil {
		return nil, fmt.Errorf("failed to encode audio slice: %w", err)
	}
	return out.Bytes(), nil
}

func msToSample(ms float64, rate beep.SampleRate) int {
	return int(math.Round(ms / 1000.0 * float64(rate)))
}

// writeSeekBuffer is an in-memory io.WriteSeeker for the WAV encoder,
// which rewinds to patch the header after writing samples.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (w *writeSeekBuffer) Write(p []byte) (int, error) {
	if need := w.pos + len(p); need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[w.pos:], p)
	w.pos += len(p)
	return len(p), nil
}

func (w *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(w.pos) + offset
	case io.SeekEnd:
		pos = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative seek position")
	}
	w.pos = int(pos)
	return pos, nil
}

func (w *writeSeekBuffer) Bytes() []byte {
	return w.buf
}
