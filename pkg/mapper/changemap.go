package mapper

import (
	"math"
	"sort"
)

// ChangePoint is one instant where tempo and/or meter changes.
type ChangePoint struct {
	TimeMs float64 `json:"time_ms"`
	Change Change  `json:"change"`
}

// ChangeMap is a sparse, time-ordered sequence of change points. Keys are
// quantized to 3 decimal milliseconds once, at insertion, so independent
// tempo and meter events landing microseconds apart share one point.
type ChangeMap struct {
	points []ChangePoint
}

// NewChangeMap returns an empty change map.
func NewChangeMap() *ChangeMap {
	return &ChangeMap{}
}

func quantizeMs(ms float64) float64 {
	return math.Round(ms*1000) / 1000
}

// at returns the change record at the quantized time, inserting a new point
// in sorted position if none exists yet.
func (m *ChangeMap) at(ms float64) *Change {
	key := quantizeMs(ms)
	i := sort.Search(len(m.points), func(i int) bool {
		return m.points[i].TimeMs >= key
	})
	if i < len(m.points) && m.points[i].TimeMs == key {
		return &m.points[i].Change
	}
	m.points = append(m.points, ChangePoint{})
	copy(m.points[i+1:], m.points[i:])
	m.points[i] = ChangePoint{TimeMs: key}
	return &m.points[i].Change
}

// SetTempo records a tempo change at the given millisecond position.
func (m *ChangeMap) SetTempo(ms, micros float64) {
	c := m.at(ms)
	c.Tempo = &TempoChange{
		BPM:    math.Round(MicrosToBPM(micros)*100) / 100,
		Micros: micros,
	}
}

// SetMeter records a time-signature change at the given millisecond
// position.
func (m *ChangeMap) SetMeter(ms float64, sig TimeSignature) {
	c := m.at(ms)
	meter := sig
	c.Meter = &meter
}

// Points returns the change points in ascending time order.
func (m *ChangeMap) Points() []ChangePoint {
	return m.points
}

// Len reports the number of change points.
func (m *ChangeMap) Len() int {
	return len(m.points)
}

// TempoAtZero reports whether a tempo is defined at 0.0 ms.
func (m *ChangeMap) TempoAtZero() bool {
	return len(m.points) > 0 && m.points[0].TimeMs == 0 && m.points[0].Change.Tempo != nil
}
