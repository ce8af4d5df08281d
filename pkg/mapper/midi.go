package mapper

import (
	"bytes"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/zap"

	"github.com/gumaerc/midi-2-synth/pkg/logger"
)

// Meta event layouts, scanned as raw bytes:
//   FF 51 03 tt tt tt          set tempo (microseconds per beat)
//   FF 58 04 nn dd cc bb       time signature (denominator = 1<<dd)

// ParseTimeline reads SMF data and builds the tempo/meter change map.
// On malformed data it returns an empty map alongside a *MidiParseError;
// callers must treat the empty map as "no usable tempo information".
func ParseTimeline(data []byte, baseBPM float64) (*ChangeMap, error) {
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return NewChangeMap(), &MidiParseError{Err: err}
	}
	return BuildTimeline(s, baseBPM)
}

// BuildTimeline scans every track of an already-parsed SMF for tempo and
// time-signature changes and produces a millisecond-keyed change map. The
// map always carries a tempo at 0.0 ms, synthesized from baseBPM when the
// MIDI declares none at tick 0.
func BuildTimeline(s *smf.SMF, baseBPM float64) (*ChangeMap, error) {
	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return NewChangeMap(), &MidiParseError{Err: fmt.Errorf("unsupported time format %v", s.TimeFormat)}
	}
	ticksPerBeat := mt.Resolution()

	tempoEvents := extractTempoEvents(s)
	logger.Info("extracted tempo events",
		zap.Int("count", len(tempoEvents)),
		zap.Uint16("ticks_per_beat", ticksPerBeat))

	cm := NewChangeMap()
	currentMicros := BPMToMicros(baseBPM)
	if len(tempoEvents) == 0 || tempoEvents[0].TimeTicks > 0 {
		cm.SetTempo(0, currentMicros)
	}

	// Replay tempo changes, converting each tick position to milliseconds
	// under the tempo in effect before it. Repeats of the current tempo
	// advance the clock but add no point.
	var currentMs float64
	var lastTicks int64
	for _, ev := range tempoEvents {
		if ev.TimeTicks > lastTicks {
			currentMs += tickSpanMs(ev.TimeTicks-lastTicks, ticksPerBeat, currentMicros)
		}
		if ev.Micros != currentMicros {
			currentMicros = ev.Micros
			cm.SetTempo(currentMs, ev.Micros)
			logger.Info("found tempo change",
				zap.Float64("bpm", MicrosToBPM(ev.Micros)),
				zap.Float64("time_ms", currentMs))
		}
		lastTicks = ev.TimeTicks
	}

	// A no-op tempo event at tick 0 must not leave 0.0 ms undefined.
	if !cm.TempoAtZero() {
		cm.SetTempo(0, BPMToMicros(baseBPM))
	}

	for _, sig := range extractTimeSignatureEvents(s, ticksPerBeat, tempoEvents, BPMToMicros(baseBPM)) {
		cm.SetMeter(sig.TimeMs, TimeSignature{Numerator: sig.Numerator, Denominator: sig.Denominator})
	}

	logger.Info("built tempo timeline", zap.Int("change_points", cm.Len()))
	return cm, nil
}

// extractTempoEvents collects set-tempo messages from all tracks with
// absolute tick positions, sorted ascending by tick. The sort is stable so
// ties at one tick keep their encounter order.
func extractTempoEvents(s *smf.SMF) []TempoEvent {
	var events []TempoEvent
	for trackIdx, track := range s.Tracks {
		var currentTicks int64
		for _, ev := range track {
			currentTicks += int64(ev.Delta)

			msg := ev.Message
			if len(msg) >= 6 && msg[0] == 0xFF && msg[1] == 0x51 && msg[2] == 0x03 {
				micros := uint32(msg[3])<<16 | uint32(msg[4])<<8 | uint32(msg[5])
				if micros > 0 {
					events = append(events, TempoEvent{
						TimeTicks: currentTicks,
						Micros:    float64(micros),
						Track:     trackIdx,
					})
				}
			}
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TimeTicks < events[j].TimeTicks
	})
	return events
}

// extractTimeSignatureEvents collects time-signature messages from all
// tracks and resolves each one to milliseconds against the tempo history,
// sorted ascending by time. initialMicros is the tempo in effect before
// the first tempo event so pre-change spans are priced at the base tempo.
func extractTimeSignatureEvents(s *smf.SMF, ticksPerBeat uint16, tempoEvents []TempoEvent, initialMicros float64) []TimeSignatureEvent {
	var sigs []TimeSignatureEvent
	for trackIdx, track := range s.Tracks {
		var currentTicks int64
		for _, ev := range track {
			currentTicks += int64(ev.Delta)

			msg := ev.Message
			if len(msg) >= 5 && msg[0] == 0xFF && msg[1] == 0x58 && msg[2] == 0x04 {
				sigs = append(sigs, TimeSignatureEvent{
					Numerator:   int(msg[3]),
					Denominator: 1 << msg[4],
					TimeTicks:   currentTicks,
					TimeMs:      TicksToMs(currentTicks, ticksPerBeat, tempoEvents, initialMicros),
					Track:       trackIdx,
				})
			}
		}
	}
	sort.SliceStable(sigs, func(i, j int) bool {
		return sigs[i].TimeMs < sigs[j].TimeMs
	})
	return sigs
}
