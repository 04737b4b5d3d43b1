package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const floatTolerance = 1e-12

func samplesOf(pairs ...float64) []Sample {
	out := make([]Sample, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Sample{Time: pairs[i], Voltage: pairs[i+1]})
	}
	return out
}

// sineSamples samples sin(2*pi*f*t) at rate fs for the given duration.
func sineSamples(f, fs, duration float64) []Sample {
	n := int(duration * fs)
	out := make([]Sample, n)
	for i := range out {
		t := float64(i) / fs
		out[i] = Sample{Time: t, Voltage: math.Sin(2 * math.Pi * f * t)}
	}
	return out
}

func TestDetectNoSignChange(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
	}{
		{"all positive", samplesOf(0, 1, 1, 2, 2, 0.5)},
		{"all negative", samplesOf(0, -1, 1, -2, 2, -0.5)},
		{"all zero", samplesOf(0, 0, 1, 0, 2, 0)},
		{"zero then positive", samplesOf(0, 0, 1, 1)},
		{"zero then negative", samplesOf(0, 0, 1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Detect(tt.samples, "src.csv", 0)
			require.NoError(t, err)
			assert.NotNil(t, events)
			assert.Empty(t, events)
		})
	}
}

func TestDetectSingleRisingCrossing(t *testing.T) {
	events, err := Detect(samplesOf(0, -1, 1, 1), "a.csv", DefaultMinInterval)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "a.csv", events[0].SourceName)
	assert.InDelta(t, 0.5, events[0].Time, floatTolerance)
	assert.Equal(t, Rising, events[0].Direction)
	assert.Equal(t, 0, events[0].CycleIndex)
}

func TestDetectSingleFallingCrossing(t *testing.T) {
	events, err := Detect(samplesOf(0, 3, 2, -1), "a.csv", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.InDelta(t, 1.5, events[0].Time, floatTolerance)
	assert.Equal(t, Falling, events[0].Direction)
	assert.Equal(t, 0, events[0].CycleIndex)
}

func TestDetectPrecision(t *testing.T) {
	events, err := Detect(samplesOf(0, -2, 1, 2), "p.csv", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 0.5, events[0].Time, floatTolerance)
}

func TestDetectCrossingLandsOnSample(t *testing.T) {
	// curr is exactly 0, so the crossing is at curr's time.
	events, err := Detect(samplesOf(0, -4, 2, 0, 3, 5), "s.csv", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.InDelta(t, 2.0, events[0].Time, floatTolerance)
	assert.Equal(t, Rising, events[0].Direction)
}

func TestDetectDebounceKeepsFirst(t *testing.T) {
	// Raw crossings at 0.5 (rising), 1.01 (falling) and 1.51 (rising).
	samples := samplesOf(0, -1, 1, 1, 1.02, -1, 2, 1)

	events, err := Detect(samples, "d.csv", 0.6)
	require.NoError(t, err)

	want := []CrossingEvent{
		{SourceName: "d.csv", Time: 0.5, CycleIndex: 0, Direction: Rising},
		{SourceName: "d.csv", Time: 1.51, CycleIndex: 1, Direction: Rising},
	}
	if diff := cmp.Diff(want, events, cmpopts.EquateApprox(0, floatTolerance)); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectDebounceBoundaryIsInclusive(t *testing.T) {
	// Crossings at exactly 0.5 and 1.5: a gap equal to the interval is kept.
	samples := samplesOf(0, -1, 1, 1, 2, -1)

	events, err := Detect(samples, "b.csv", 1.0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, Falling, events[1].Direction)
}

func TestDetectWithoutDebounceKeepsEverything(t *testing.T) {
	samples := samplesOf(0, -1, 1, 1, 1.02, -1, 2, 1)

	events, err := Detect(samples, "d.csv", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, []Direction{Rising, Falling, Rising},
		[]Direction{events[0].Direction, events[1].Direction, events[2].Direction})
	assert.Equal(t, []int{0, 1, 1},
		[]int{events[0].CycleIndex, events[1].CycleIndex, events[2].CycleIndex})
}

func TestDetectZeroPlateauIsAsymmetric(t *testing.T) {
	t.Run("negative to zero plateau to positive", func(t *testing.T) {
		events, err := Detect(samplesOf(0, -1, 1, 0, 2, 0, 3, 1), "z.csv", 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.InDelta(t, 1.0, events[0].Time, floatTolerance)
		assert.Equal(t, Rising, events[0].Direction)
	})

	t.Run("positive to zero plateau to negative", func(t *testing.T) {
		events, err := Detect(samplesOf(0, 1, 1, 0, 2, 0, 3, -1), "z.csv", 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, Falling, events[0].Direction)
	})

	t.Run("zero plateau then bounce back", func(t *testing.T) {
		// -1 -> 0 counts as rising even though the signal returns negative.
		events, err := Detect(samplesOf(0, -1, 1, 0, 2, -1), "z.csv", 0)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, Rising, events[0].Direction)
	})
}

func TestDetectSineWaveCycles(t *testing.T) {
	// 50 Hz sampled at 10 kHz for 0.1 s, phase shifted so no sample is exactly 0.
	samples := sineSamples(50, 10000, 0.1)
	for i := range samples {
		samples[i].Time += 0.00003
		samples[i].Voltage = math.Sin(2 * math.Pi * 50 * (samples[i].Time + 0.001))
	}

	events, err := Detect(samples, "sine.csv", DefaultMinInterval)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	for k := 1; k < len(events); k++ {
		prev, curr := events[k-1], events[k]
		assert.GreaterOrEqual(t, curr.Time, prev.Time, "event %d out of order", k)
		assert.GreaterOrEqual(t, curr.Time-prev.Time, DefaultMinInterval, "event %d too close", k)
		assert.NotEqual(t, prev.Direction, curr.Direction, "directions should alternate at %d", k)

		wantCycle := prev.CycleIndex
		if prev.Direction == Rising {
			wantCycle++
		}
		assert.Equal(t, wantCycle, curr.CycleIndex, "cycle index at event %d", k)
	}

	// Half-period spacing of a 50 Hz signal.
	for k := 1; k < len(events); k++ {
		assert.InDelta(t, 0.01, events[k].Time-events[k-1].Time, 1e-6)
	}
}

func TestDetectIdempotent(t *testing.T) {
	samples := sineSamples(60, 5000, 0.05)

	first, err := Detect(samples, "i.csv", DefaultMinInterval)
	require.NoError(t, err)
	second, err := Detect(samples, "i.csv", DefaultMinInterval)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second call differs (-first +second):\n%s", diff)
	}
}

func TestDetectTooFewSamples(t *testing.T) {
	for _, samples := range [][]Sample{nil, {}, samplesOf(0, -1)} {
		_, err := Detect(samples, "e.csv", 0)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Contains(t, err.Error(), "e.csv")
	}
}

func TestDetectRejectsNegativeInterval(t *testing.T) {
	for _, interval := range []float64{-1e-9, math.NaN()} {
		_, err := Detect(samplesOf(0, -1, 1, 1), "n.csv", interval)
		assert.ErrorIs(t, err, ErrNegativeInterval)
	}
}

func TestDetectDegenerateSegment(t *testing.T) {
	samples := samplesOf(0, -1, 1, 1, 2, math.Inf(-1), 3, math.Inf(1))

	events, err := Detect(samples, "inf.csv", 0)
	require.Error(t, err)
	assert.Nil(t, events)

	var degenerate *DegenerateSegmentError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, "inf.csv", degenerate.SourceName)
	assert.Equal(t, 3, degenerate.Index)
	assert.Contains(t, err.Error(), "samples 2-3")
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "rising", Rising.String())
	assert.Equal(t, "falling", Falling.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
}

func TestSummarize(t *testing.T) {
	events := []CrossingEvent{
		{Time: 0.5, CycleIndex: 0, Direction: Rising},
		{Time: 1.0, CycleIndex: 1, Direction: Falling},
		{Time: 1.5, CycleIndex: 1, Direction: Rising},
		{Time: 2.0, CycleIndex: 2, Direction: Falling},
		{Time: 3.5, CycleIndex: 2, Direction: Rising},
	}

	s := Summarize(events)
	assert.Equal(t, 5, s.Events)
	assert.Equal(t, 3, s.Rising)
	assert.Equal(t, 2, s.Falling)
	assert.Equal(t, 2, s.Cycles)
	assert.InDelta(t, 0.5, s.FirstTime, floatTolerance)
	assert.InDelta(t, 3.5, s.LastTime, floatTolerance)
	assert.Equal(t, []float64{1.0, 2.0}, s.Periods)
	assert.InDelta(t, 1.5, s.MeanPeriod, floatTolerance)
	assert.InDelta(t, 0.5, s.StdPeriod, floatTolerance)
}

func TestSummarizeSinglePeriod(t *testing.T) {
	s := Summarize([]CrossingEvent{
		{Time: 1, Direction: Rising},
		{Time: 3, CycleIndex: 1, Direction: Rising},
	})
	assert.Equal(t, 1, s.Cycles)
	assert.InDelta(t, 2.0, s.MeanPeriod, floatTolerance)
	assert.Zero(t, s.StdPeriod)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Events)
	assert.Zero(t, s.Cycles)
	assert.True(t, math.IsNaN(s.FirstTime))
	assert.True(t, math.IsNaN(s.MeanPeriod))
	assert.True(t, math.IsNaN(s.StdPeriod))
}
