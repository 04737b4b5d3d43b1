package analysis

import (
	"errors"
	"fmt"
	"math"
)

// DefaultMinInterval is the debounce threshold used when none is configured (seconds).
const DefaultMinInterval = 0.00002

var (
	// ErrEmptyInput is returned when a source holds fewer than two samples.
	ErrEmptyInput = errors.New("not enough samples to detect crossings")

	// ErrNegativeInterval is returned for a negative or NaN debounce interval.
	ErrNegativeInterval = errors.New("minimum interval must be >= 0")
)

// Sample is a single (time, voltage) reading.
type Sample struct {
	Time    float64
	Voltage float64
}

// Direction tells which way the signal passed through zero.
type Direction int

const (
	Rising  Direction = iota // from negative to >= 0
	Falling                  // from positive to <= 0
)

func (d Direction) String() string {
	switch d {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// CrossingEvent is one retained zero crossing.
type CrossingEvent struct {
	SourceName string
	Time       float64 // interpolated crossing instant
	CycleIndex int
	Direction  Direction
}

// DegenerateSegmentError reports a raw crossing whose interpolation would divide
// by zero or produce a non-finite time.
type DegenerateSegmentError struct {
	SourceName string
	Index      int // index of the second sample of the pair
	Prev, Curr Sample
}

func (e *DegenerateSegmentError) Error() string {
	return fmt.Sprintf("degenerate segment in %s at samples %d-%d (v=%g -> %g)",
		e.SourceName, e.Index-1, e.Index, e.Prev.Voltage, e.Curr.Voltage)
}

// Summary holds per-source statistics derived from the retained events.
type Summary struct {
	Events     int
	Rising     int
	Falling    int
	Cycles     int     // complete Rising-to-Rising cycles
	FirstTime  float64 // NaN when there are no events
	LastTime   float64
	MeanPeriod float64 // NaN with fewer than two Rising events
	StdPeriod  float64
	Periods    []float64 // Rising-to-Rising durations, in order
}

func newSummary() Summary {
	return Summary{
		FirstTime:  math.NaN(),
		LastTime:   math.NaN(),
		MeanPeriod: math.NaN(),
		StdPeriod:  math.NaN(),
	}
}
