package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
)

const scopeExport = `Record Length,5,Points,-0.000250000,0.04
Sample Interval,1e-04,s,-0.000150000,-0.02
Trigger Point,0,Samples,-0.000050000,-0.01
,,,0.000050000,0.01
,,,0.000150000,0.03
`

func utf8Options() Options {
	opts := DefaultOptions()
	opts.Encoding = EncodingUTF8
	return opts
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestParseSamplesScopeExport(t *testing.T) {
	series, err := ParseSamples(strings.NewReader(scopeExport), "/data/ch1.csv", utf8Options())
	require.NoError(t, err)

	assert.Equal(t, "ch1.csv", series.Name)
	assert.Equal(t, "/data/ch1.csv", series.Path)
	// The first record is consumed as the header row.
	assert.Equal(t, []analysis.Sample{
		{Time: -0.00015, Voltage: -0.02},
		{Time: -0.00005, Voltage: -0.01},
		{Time: 0.00005, Voltage: 0.01},
		{Time: 0.00015, Voltage: 0.03},
	}, series.Samples)
	assert.Empty(t, series.Warnings)
}

func TestParseSamplesWithoutHeader(t *testing.T) {
	opts := utf8Options()
	opts.HasHeader = false

	series, err := ParseSamples(strings.NewReader(scopeExport), "ch1.csv", opts)
	require.NoError(t, err)
	require.Len(t, series.Samples, 5)
	assert.Equal(t, analysis.Sample{Time: -0.00025, Voltage: 0.04}, series.Samples[0])
}

func TestParseSamplesShiftJIS(t *testing.T) {
	text := "ラベル,,,時間,電圧\n測定,,,0.0,-1.5\n,,,0.001,1.5\n"
	encoded, err := japanese.ShiftJIS.NewEncoder().String(text)
	require.NoError(t, err)

	path := writeFile(t, "測定.csv", []byte(encoded))
	series, err := NewCSVSource(DefaultOptions()).Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "測定.csv", series.Name)
	assert.Equal(t, []analysis.Sample{{Time: 0, Voltage: -1.5}, {Time: 0.001, Voltage: 1.5}}, series.Samples)
}

func TestParseSamplesUTF8BOM(t *testing.T) {
	data := "\ufeffa,b,c,time,volt\n,,,1,2\n"
	series, err := ParseSamples(strings.NewReader(data), "bom.csv", utf8Options())
	require.NoError(t, err)
	assert.Equal(t, []analysis.Sample{{Time: 1, Voltage: 2}}, series.Samples)
}

func TestParseSamplesCustomColumns(t *testing.T) {
	opts := utf8Options()
	opts.TimeColumn = 0
	opts.VoltageColumn = 1

	series, err := ParseSamples(strings.NewReader("t,v\n0,-1\n1,1\n"), "two.csv", opts)
	require.NoError(t, err)
	assert.Equal(t, []analysis.Sample{{Time: 0, Voltage: -1}, {Time: 1, Voltage: 1}}, series.Samples)
}

func TestParseSamplesFullPrecision(t *testing.T) {
	data := "h,h,h,h,h\n,,,0.123456789012345678,-1.00000000000000022\n"
	series, err := ParseSamples(strings.NewReader(data), "p.csv", utf8Options())
	require.NoError(t, err)
	require.Len(t, series.Samples, 1)
	assert.Equal(t, 0.123456789012345678, series.Samples[0].Time)
	assert.Equal(t, -1.00000000000000022, series.Samples[0].Voltage)
}

func TestParseSamplesBlankRowsWarn(t *testing.T) {
	data := "h,h,h,h,h\n,,,0,-1\n,,,,\nx,,, , \n,,,1,1\n"
	series, err := ParseSamples(strings.NewReader(data), "blank.csv", utf8Options())
	require.NoError(t, err)
	assert.Len(t, series.Samples, 2)
	require.Len(t, series.Warnings, 1)
	assert.Contains(t, series.Warnings[0], "skipped 2 rows")
}

func TestParseSamplesDecreasingTimeWarnsOnce(t *testing.T) {
	data := "h,h,h,h,h\n,,,2,1\n,,,1,1\n,,,0,1\n"
	series, err := ParseSamples(strings.NewReader(data), "back.csv", utf8Options())
	require.NoError(t, err)
	assert.Len(t, series.Samples, 3)
	require.Len(t, series.Warnings, 1)
	assert.Contains(t, series.Warnings[0], "row 3")
}

func TestParseSamplesMalformed(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantRow int
		wantMsg string
	}{
		{"too few columns", "h,h,h,h,h\n,,,0,1\n1,2,3\n", 3, "expected at least 5 columns, found 3"},
		{"bad time", "h,h,h,h,h\n,,,abc,1\n", 2, `time "abc" is not a number`},
		{"bad voltage", "h,h,h,h,h\n,,,0,1V\n", 2, `voltage "1V" is not a number`},
		{"half blank", "h,h,h,h,h\n,,,0,\n", 2, "voltage is blank"},
		{"broken quote", "h,h,h,h,h\n,,,\"0,1\n", 2, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSamples(strings.NewReader(tt.data), "bad.csv", utf8Options())
			require.Error(t, err)

			var malformed *MalformedSourceError
			require.True(t, errors.As(err, &malformed), "got %T: %v", err, err)
			assert.Equal(t, "bad.csv", malformed.Path)
			assert.Equal(t, tt.wantRow, malformed.Row)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseSamplesEmpty(t *testing.T) {
	for name, data := range map[string]string{
		"no bytes":    "",
		"header only": "a,b,c,time,voltage\n",
		"blank rows":  "a,b,c,time,voltage\n,,,,\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSamples(strings.NewReader(data), "empty.csv", utf8Options())
			assert.ErrorIs(t, err, analysis.ErrEmptyInput)
			assert.Contains(t, err.Error(), "empty.csv")
		})
	}
}

func TestParseSamplesUnsupportedEncoding(t *testing.T) {
	opts := DefaultOptions()
	opts.Encoding = "latin-9"

	_, err := ParseSamples(strings.NewReader(scopeExport), "x.csv", opts)
	var access *SourceAccessError
	require.True(t, errors.As(err, &access))
	assert.Contains(t, err.Error(), "unsupported encoding")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewCSVSource(DefaultOptions()).Load(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	var access *SourceAccessError
	require.True(t, errors.As(err, &access))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVSource(DefaultOptions()).Load(ctx, "whatever.csv")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMalformedSourceErrorMessages(t *testing.T) {
	assert.Equal(t, "malformed a.csv: row 4, column 5: bad",
		(&MalformedSourceError{Path: "a.csv", Row: 4, Column: 4, Reason: "bad"}).Error())
	assert.Equal(t, "malformed a.csv: row 4: bad",
		(&MalformedSourceError{Path: "a.csv", Row: 4, Column: -1, Reason: "bad"}).Error())
	assert.Equal(t, "malformed a.csv: bad",
		(&MalformedSourceError{Path: "a.csv", Column: -1, Reason: "bad"}).Error())
}
