package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Detect scans adjacent sample pairs for zero crossings, interpolates the
// crossing instant, drops crossings closer than minInterval to the last
// retained one and labels the rest with a cycle index.
//
// A pair is a crossing only when the earlier sample is strictly signed, so a
// signal resting at exactly 0 does not trigger again when it leaves zero.
// The cycle counter advances after a Rising event is emitted.
func Detect(samples []Sample, sourceName string, minInterval float64) ([]CrossingEvent, error) {
	if minInterval < 0 || math.IsNaN(minInterval) {
		return nil, fmt.Errorf("%s: %w (got %g)", sourceName, ErrNegativeInterval, minInterval)
	}
	if len(samples) < 2 {
		return nil, fmt.Errorf("%s: %w (got %d)", sourceName, ErrEmptyInput, len(samples))
	}

	events := make([]CrossingEvent, 0)
	cycleIndex := 0
	lastRecorded := math.Inf(-1)

	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]

		var direction Direction
		switch {
		case prev.Voltage < 0 && curr.Voltage >= 0:
			direction = Rising
		case prev.Voltage > 0 && curr.Voltage <= 0:
			direction = Falling
		default:
			continue
		}

		crossing, err := interpolateZero(prev, curr)
		if err != nil {
			return nil, &DegenerateSegmentError{SourceName: sourceName, Index: i, Prev: prev, Curr: curr}
		}

		if crossing-lastRecorded < minInterval {
			continue
		}

		events = append(events, CrossingEvent{
			SourceName: sourceName,
			Time:       crossing,
			CycleIndex: cycleIndex,
			Direction:  direction,
		})
		lastRecorded = crossing
		if direction == Rising {
			cycleIndex++
		}
	}

	return events, nil
}

// interpolateZero returns the time where the straight line through prev and
// curr reaches 0 V.
func interpolateZero(prev, curr Sample) (float64, error) {
	delta := curr.Voltage - prev.Voltage
	if delta == 0 {
		return 0, fmt.Errorf("zero voltage delta")
	}
	t := prev.Time + (curr.Time-prev.Time)*(0-prev.Voltage)/delta
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("non-finite crossing time")
	}
	return t, nil
}

// Summarize derives counts and Rising-to-Rising period statistics from a
// detected event sequence. Standard deviation is the population value, so a
// single period has a spread of 0.
func Summarize(events []CrossingEvent) Summary {
	s := newSummary()
	s.Events = len(events)
	if len(events) == 0 {
		return s
	}
	s.FirstTime = events[0].Time
	s.LastTime = events[len(events)-1].Time

	lastRising := math.NaN()
	for _, e := range events {
		if e.Direction == Falling {
			s.Falling++
			continue
		}
		s.Rising++
		if !math.IsNaN(lastRising) {
			s.Periods = append(s.Periods, e.Time-lastRising)
		}
		lastRising = e.Time
	}
	s.Cycles = len(s.Periods)

	if len(s.Periods) > 0 {
		s.MeanPeriod, s.StdPeriod = stat.PopMeanStdDev(s.Periods, nil)
	}
	return s
}
