package parser

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
)

// CSVSource loads sample series from CSV files on disk.
type CSVSource struct {
	Options Options
}

// NewCSVSource returns a source using the given options.
func NewCSVSource(opts Options) *CSVSource {
	return &CSVSource{Options: opts}
}

// Load opens path and parses it into a sample series. The context is only
// checked before the file is opened; parsing itself is not interruptible.
func (s *CSVSource) Load(ctx context.Context, path string) (*SampleSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &SourceAccessError{Path: path, Err: err}
	}
	defer file.Close()

	series, err := ParseSamples(file, path, s.Options)
	if err != nil {
		return nil, err
	}
	return series, nil
}

// decoderFor returns the text decoder for the configured encoding name.
func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
	case "", EncodingShiftJIS, "sjis", "cp932":
		return japanese.ShiftJIS.NewDecoder(), nil
	case "utf_8", "utf8":
		return unicode.UTF8BOM.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// SupportedEncoding reports whether name is an input encoding CSVSource can decode.
func SupportedEncoding(name string) bool {
	_, err := decoderFor(name)
	return err == nil
}

// ParseSamples reads CSV records from r and extracts the time and voltage
// columns. path is used for the series name and in error messages.
func ParseSamples(r io.Reader, path string, opts Options) (*SampleSeries, error) {
	if opts.TimeColumn < 0 || opts.VoltageColumn < 0 {
		return nil, &MalformedSourceError{Path: path, Column: -1, Reason: "column index must be >= 0"}
	}

	decoder, err := decoderFor(opts.Encoding)
	if err != nil {
		return nil, &SourceAccessError{Path: path, Err: err}
	}

	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // export headers often carry fewer fields than data rows
	reader.ReuseRecord = true

	series := &SampleSeries{
		Name:    filepath.Base(path),
		Path:    path,
		Samples: make([]analysis.Sample, 0),
	}

	neededColumns := max(opts.TimeColumn, opts.VoltageColumn) + 1
	skippedBlank := 0
	reportedDecrease := false
	rowNum := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedSourceError{Path: path, Row: parseErr.StartLine, Column: -1, Reason: parseErr.Err.Error()}
			}
			return nil, &SourceAccessError{Path: path, Err: err}
		}
		rowNum++

		if rowNum == 1 && opts.HasHeader {
			continue
		}

		if len(record) < neededColumns {
			return nil, &MalformedSourceError{
				Path:   path,
				Row:    rowNum,
				Column: -1,
				Reason: fmt.Sprintf("expected at least %d columns, found %d", neededColumns, len(record)),
			}
		}

		timeStr := strings.TrimSpace(record[opts.TimeColumn])
		voltageStr := strings.TrimSpace(record[opts.VoltageColumn])
		if timeStr == "" && voltageStr == "" {
			skippedBlank++
			continue
		}

		t, err := parseValue(timeStr)
		if err != nil {
			return nil, &MalformedSourceError{Path: path, Row: rowNum, Column: opts.TimeColumn, Reason: fmt.Sprintf("time %v", err)}
		}
		v, err := parseValue(voltageStr)
		if err != nil {
			return nil, &MalformedSourceError{Path: path, Row: rowNum, Column: opts.VoltageColumn, Reason: fmt.Sprintf("voltage %v", err)}
		}

		if n := len(series.Samples); n > 0 && t < series.Samples[n-1].Time && !reportedDecrease {
			series.Warnings = append(series.Warnings, fmt.Sprintf("Warning: time decreases at row %d (%g after %g); samples are not re-ordered.", rowNum, t, series.Samples[n-1].Time))
			reportedDecrease = true
		}

		series.Samples = append(series.Samples, analysis.Sample{Time: t, Voltage: v})
	}

	if skippedBlank > 0 {
		series.Warnings = append(series.Warnings, fmt.Sprintf("Warning: skipped %d rows with blank time and voltage cells.", skippedBlank))
	}

	if len(series.Samples) == 0 {
		return nil, fmt.Errorf("%s: %w", path, analysis.ErrEmptyInput)
	}

	return series, nil
}

func parseValue(s string) (float64, error) {
	if s == "" {
		return 0, errors.New("is blank")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}
