package mapper

// DefaultTempoMicros is the MIDI default tempo (120 BPM) used when a file
// declares nothing before its first event.
const DefaultTempoMicros = 500000.0

// TicksToMs converts an absolute tick position to elapsed milliseconds
// under a piecewise-constant tempo history. tempoEvents must be sorted by
// TimeTicks; events at the same tick are applied in encounter order, so the
// last one wins as the running tempo.
func TicksToMs(targetTicks int64, ticksPerBeat uint16, tempoEvents []TempoEvent, initialMicros float64) float64 {
	if targetTicks == 0 {
		return 0.0
	}

	var elapsed float64
	micros := initialMicros
	var lastTicks int64

	for _, ev := range tempoEvents {
		if ev.TimeTicks >= targetTicks {
			// Target falls before this change: finish the partial span
			// under the tempo in effect before it.
			if remaining := targetTicks - lastTicks; remaining > 0 {
				elapsed += tickSpanMs(remaining, ticksPerBeat, micros)
			}
			return elapsed
		}
		if ev.TimeTicks > lastTicks {
			elapsed += tickSpanMs(ev.TimeTicks-lastTicks, ticksPerBeat, micros)
		}
		micros = ev.Micros
		lastTicks = ev.TimeTicks
	}

	// Target is at or after the last tempo change.
	if remaining := targetTicks - lastTicks; remaining > 0 {
		elapsed += tickSpanMs(remaining, ticksPerBeat, micros)
	}
	return elapsed
}

// tickSpanMs is the duration of deltaTicks under a constant tempo.
func tickSpanMs(deltaTicks int64, ticksPerBeat uint16, micros float64) float64 {
	return float64(deltaTicks) * micros / float64(ticksPerBeat) / 1000.0
}
