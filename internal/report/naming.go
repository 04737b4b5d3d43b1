package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	outputPrefix      = "zero_crossing_results"
	timestampLayout   = "20060102_150405"
	maxSheetNameRunes = 31
	fallbackSheetName = "Sheet"
)

// DefaultOutputName builds the report file name from the first input's base
// name and the run time, e.g. zero_crossing_results_ch1_and_others_20261017_093000.xlsx.
// An empty ext yields a name without extension.
func DefaultOutputName(inputs []string, now time.Time, ext string) string {
	first := "batch"
	if len(inputs) > 0 {
		first = strings.ReplaceAll(filepath.Base(inputs[0]), ".csv", "")
	}
	name := fmt.Sprintf("%s_%s_%s", outputPrefix, first, now.Format(timestampLayout))
	if len(inputs) > 1 {
		name = fmt.Sprintf("%s_%s_and_others_%s", outputPrefix, first, now.Format(timestampLayout))
	}
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return name
}

var sheetNameReplacer = strings.NewReplacer(
	"[", "_", "]", "_", ":", "_", "*", "_", "?", "_", "/", "_", `\`, "_",
)

// SheetName derives a worksheet name from a source name: ".csv" is dropped,
// characters Excel rejects are replaced and the result is cut to 31 runes.
func SheetName(source string) string {
	name := strings.ReplaceAll(source, ".csv", "")
	name = sheetNameReplacer.Replace(name)
	name = strings.Trim(name, "'")
	name = truncateRunes(name, maxSheetNameRunes)
	if strings.TrimSpace(name) == "" {
		return fallbackSheetName
	}
	return name
}

// UniqueSheetNames maps each source to a sheet name, suffixing " (2)", " (3)"
// and so on where names collide. Excel compares sheet names case-insensitively.
func UniqueSheetNames(sources []string) []string {
	names := make([]string, len(sources))
	used := make(map[string]bool, len(sources))

	for i, src := range sources {
		base := SheetName(src)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncateRunes(base, maxSheetNameRunes-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
