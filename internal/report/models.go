package report

import (
	"context"
	"fmt"
	"time"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
)

// Table is the event table of one source that produced crossings.
type Table struct {
	Source  string
	Path    string
	Events  []analysis.CrossingEvent
	Samples []analysis.Sample // kept for plotting
	Summary analysis.Summary
}

// SourceStatus describes how one input fared, including the ones that have
// no table.
type SourceStatus struct {
	Name    string
	Path    string
	Status  string
	Class   string
	Error   string
	Samples int
	Events  int
}

// Report is everything a sink may persist for one batch.
type Report struct {
	RunID       string
	CreatedAt   time.Time
	MinInterval float64
	Tables      []Table
	Sources     []SourceStatus
}

// Sink persists a report to path.
type Sink interface {
	Write(ctx context.Context, path string, rep *Report) error
}

// Locale selects the header and label language of tabular output.
type Locale string

const (
	LocaleEnglish  Locale = "en"
	LocaleJapanese Locale = "ja"
)

// Column headers, in output order.
var columnHeaders = map[Locale][]string{
	LocaleEnglish:  {"source_name", "time", "cycle_index", "direction"},
	LocaleJapanese: {"ファイル名", "時刻", "周期", "方向"},
}

// Headers returns the column headers for l, defaulting to English.
func Headers(l Locale) []string {
	if h, ok := columnHeaders[l]; ok {
		return h
	}
	return columnHeaders[LocaleEnglish]
}

// DirectionLabel returns the printed form of d in locale l.
func DirectionLabel(d analysis.Direction, l Locale) string {
	if l == LocaleJapanese {
		switch d {
		case analysis.Rising:
			return "上昇（プラスに向かう）"
		case analysis.Falling:
			return "下降（マイナスに向かう）"
		}
	}
	switch d {
	case analysis.Rising:
		return "Rising"
	case analysis.Falling:
		return "Falling"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseLocale validates a locale name.
func ParseLocale(s string) (Locale, error) {
	switch Locale(s) {
	case "", LocaleEnglish:
		return LocaleEnglish, nil
	case LocaleJapanese:
		return LocaleJapanese, nil
	default:
		return "", fmt.Errorf("unknown locale %q", s)
	}
}
