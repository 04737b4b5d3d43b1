package parser

import (
	"fmt"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
)

// Default column layout of oscilloscope CSV exports: the 4th column holds the
// time axis and the 5th the voltage.
const (
	DefaultTimeColumn    = 3
	DefaultVoltageColumn = 4
)

// Supported input encodings.
const (
	EncodingShiftJIS = "shift_jis"
	EncodingUTF8     = "utf-8"
)

// Options controls how a CSV source is decoded.
type Options struct {
	Encoding      string
	TimeColumn    int
	VoltageColumn int
	HasHeader     bool // first record is a header row and carries no sample
}

// DefaultOptions matches the export format the analyzer was built for.
func DefaultOptions() Options {
	return Options{
		Encoding:      EncodingShiftJIS,
		TimeColumn:    DefaultTimeColumn,
		VoltageColumn: DefaultVoltageColumn,
		HasHeader:     true,
	}
}

// SampleSeries holds the samples read from one named input.
type SampleSeries struct {
	Name     string // base name of the file, used as the source name
	Path     string
	Samples  []analysis.Sample
	Warnings []string // non-fatal issues found while parsing
}

// SourceAccessError means the input could not be opened or decoded.
type SourceAccessError struct {
	Path string
	Err  error
}

func (e *SourceAccessError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *SourceAccessError) Unwrap() error { return e.Err }

// MalformedSourceError means the input was readable but did not carry the
// required columns or values.
type MalformedSourceError struct {
	Path   string
	Row    int // 1-based record number in the file, 0 when not row specific
	Column int // 0-based column index, -1 when not column specific
	Reason string
}

func (e *MalformedSourceError) Error() string {
	switch {
	case e.Row > 0 && e.Column >= 0:
		return fmt.Sprintf("malformed %s: row %d, column %d: %s", e.Path, e.Row, e.Column+1, e.Reason)
	case e.Row > 0:
		return fmt.Sprintf("malformed %s: row %d: %s", e.Path, e.Row, e.Reason)
	default:
		return fmt.Sprintf("malformed %s: %s", e.Path, e.Reason)
	}
}
