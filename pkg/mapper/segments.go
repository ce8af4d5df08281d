package mapper

import (
	"go.uber.org/zap"

	"github.com/gumaerc/midi-2-synth/pkg/logger"
)

// cursor is the carry-forward state folded over the change points: the
// tempo and meter in effect until the next change.
type cursor struct {
	bpm    float64
	micros float64
	meter  TimeSignature
}

func (c cursor) apply(ch Change) cursor {
	if ch.Tempo != nil {
		c.bpm = ch.Tempo.BPM
		c.micros = ch.Tempo.Micros
	}
	if ch.Meter != nil {
		c.meter = *ch.Meter
	}
	return c
}

// BuildSegments expands the sparse change map into a contiguous segment
// list covering [0, audioDurationMs). Points lacking a tempo or meter
// inherit the previous one; before any is seen the initial BPM and a 4/4
// meter apply. Out-of-order or duplicate timestamps still yield a
// zero-or-negative-duration segment rather than being dropped, since they
// indicate malformed input worth surfacing.
func BuildSegments(cm *ChangeMap, audioDurationMs, initialBPM float64) []Segment {
	points := cm.Points()
	cur := cursor{
		bpm:    initialBPM,
		micros: BPMToMicros(initialBPM),
		meter:  TimeSignature{Numerator: 4, Denominator: 4},
	}

	segments := make([]Segment, 0, len(points))
	for i, p := range points {
		end := audioDurationMs
		if i+1 < len(points) {
			end = points[i+1].TimeMs
		}
		cur = cur.apply(p.Change)
		seg := Segment{
			StartMs:    p.TimeMs,
			EndMs:      end,
			DurationMs: end - p.TimeMs,
			BPM:        cur.bpm,
			Micros:     cur.micros,
			Meter:      cur.meter,
		}
		logger.Info("segment",
			zap.Int("index", i+1),
			zap.Float64("bpm", seg.BPM),
			zap.String("time_signature", seg.Meter.String()),
			zap.Float64("start_ms", seg.StartMs),
			zap.Float64("end_ms", seg.EndMs),
			zap.Float64("duration_ms", seg.DurationMs))
		segments = append(segments, seg)
	}
	return segments
}
