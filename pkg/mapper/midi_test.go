package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func tempoMsg(micros uint32) smf.Message {
	return smf.Message([]byte{
		0xFF, 0x51, 0x03,
		byte(micros >> 16),
		byte(micros >> 8),
		byte(micros),
	})
}

func meterMsg(numerator, denomPow byte) smf.Message {
	return smf.Message([]byte{0xFF, 0x58, 0x04, numerator, denomPow, 0x18, 0x08})
}

func newSMF(t *testing.T, tracks ...smf.Track) *smf.SMF {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	for _, tr := range tracks {
		tr.Close(0)
		require.NoError(t, s.Add(tr))
	}
	return s
}

func TestBuildTimelineSynthesizesInitialTempo(t *testing.T) {
	var tr smf.Track
	tr.Add(960, tempoMsg(400000)) // 150 BPM at tick 960

	cm, err := BuildTimeline(newSMF(t, tr), 120)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 2)

	assert.Equal(t, 0.0, points[0].TimeMs)
	require.NotNil(t, points[0].Change.Tempo)
	assert.InDelta(t, 120.0, points[0].Change.Tempo.BPM, 1e-9)

	// 960 ticks at 500000 micros ahead of the change.
	assert.Equal(t, 1000.0, points[1].TimeMs)
	require.NotNil(t, points[1].Change.Tempo)
	assert.InDelta(t, 150.0, points[1].Change.Tempo.BPM, 1e-9)
	assert.InDelta(t, 400000.0, points[1].Change.Tempo.Micros, 1e-9)
}

func TestBuildTimelineNoEvents(t *testing.T) {
	var tr smf.Track

	cm, err := BuildTimeline(newSMF(t, tr), 98.5)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 1)
	assert.Equal(t, 0.0, points[0].TimeMs)
	require.NotNil(t, points[0].Change.Tempo)
	assert.InDelta(t, 98.5, points[0].Change.Tempo.BPM, 1e-9)
}

func TestBuildTimelineSkipsNoopTempoRepeats(t *testing.T) {
	var tr smf.Track
	tr.Add(0, tempoMsg(500000))
	tr.Add(480, tempoMsg(500000)) // repeat, must not create a point
	tr.Add(480, tempoMsg(250000))

	cm, err := BuildTimeline(newSMF(t, tr), 120)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 2)
	assert.Equal(t, 0.0, points[0].TimeMs)
	assert.Equal(t, 1000.0, points[1].TimeMs)
	assert.InDelta(t, 240.0, points[1].Change.Tempo.BPM, 1e-9)
}

func TestBuildTimelineNoopTempoAtTickZeroStillDefinesZero(t *testing.T) {
	var tr smf.Track
	tr.Add(0, tempoMsg(500000)) // same as base 120 BPM

	cm, err := BuildTimeline(newSMF(t, tr), 120)
	require.NoError(t, err)

	assert.True(t, cm.TempoAtZero())
}

func TestBuildTimelineMergesTimeSignatures(t *testing.T) {
	var tempoTrack smf.Track
	tempoTrack.Add(960, tempoMsg(400000))

	var meterTrack smf.Track
	meterTrack.Add(0, meterMsg(4, 2))    // 4/4 at tick 0
	meterTrack.Add(1440, meterMsg(3, 2)) // 3/4 at tick 1440

	cm, err := BuildTimeline(newSMF(t, tempoTrack, meterTrack), 120)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 3)

	// Tick 0: synthesized tempo plus the 4/4 meter on the same point.
	assert.Equal(t, 0.0, points[0].TimeMs)
	require.NotNil(t, points[0].Change.Tempo)
	require.NotNil(t, points[0].Change.Meter)
	assert.Equal(t, TimeSignature{Numerator: 4, Denominator: 4}, *points[0].Change.Meter)

	assert.Equal(t, 1000.0, points[1].TimeMs)

	// Tick 1440: 960 ticks at 500000 micros, then 480 ticks at 400000.
	assert.Equal(t, 1400.0, points[2].TimeMs)
	require.NotNil(t, points[2].Change.Meter)
	assert.Equal(t, TimeSignature{Numerator: 3, Denominator: 4}, *points[2].Change.Meter)
	assert.Nil(t, points[2].Change.Tempo)
}

func TestBuildTimelineMeterBeforeFirstTempoChange(t *testing.T) {
	var tempoTrack smf.Track
	tempoTrack.Add(960, tempoMsg(250000))

	var meterTrack smf.Track
	meterTrack.Add(480, meterMsg(3, 2))

	cm, err := BuildTimeline(newSMF(t, tempoTrack, meterTrack), 120)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 3)

	// The span before the first tempo event is priced at the base 120 BPM
	// (500000 micros), not at any later tempo.
	assert.Equal(t, 500.0, points[1].TimeMs)
	require.NotNil(t, points[1].Change.Meter)
	assert.Equal(t, TimeSignature{Numerator: 3, Denominator: 4}, *points[1].Change.Meter)
	assert.Nil(t, points[1].Change.Tempo)

	assert.Equal(t, 1000.0, points[2].TimeMs)
	require.NotNil(t, points[2].Change.Tempo)
}

func TestBuildTimelineRoundsBPM(t *testing.T) {
	var tr smf.Track
	tr.Add(480, tempoMsg(410000)) // 146.341463... BPM

	cm, err := BuildTimeline(newSMF(t, tr), 120)
	require.NoError(t, err)

	points := cm.Points()
	require.Len(t, points, 2)
	assert.Equal(t, 146.34, points[1].Change.Tempo.BPM)
}

func TestParseTimelineMalformedData(t *testing.T) {
	cm, err := ParseTimeline([]byte("not a midi file"), 120)

	var parseErr *MidiParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 0, cm.Len())
}
