package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// utf8BOM lets spreadsheet programs detect UTF-8 when Japanese headers are used.
const utf8BOM = "\ufeff"

// CSVWriter writes one CSV file per source into a directory.
type CSVWriter struct {
	Locale Locale
}

// Write creates dir if needed and writes <sheet name>.csv for every table.
// Times are written in the shortest form that parses back to the same float64.
func (w *CSVWriter) Write(ctx context.Context, dir string, rep *Report) error {
	if len(rep.Tables) == 0 {
		return ErrNoTables
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapWriteError(dir, err)
	}

	sources := make([]string, len(rep.Tables))
	for i, t := range rep.Tables {
		sources[i] = t.Source
	}
	names := UniqueSheetNames(sources)

	for i, table := range rep.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(dir, names[i]+".csv")
		if err := w.writeTable(path, table); err != nil {
			return err
		}
	}
	return nil
}

func (w *CSVWriter) writeTable(path string, table Table) (err error) {
	if err := checkTarget(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return wrapWriteError(path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = wrapWriteError(path, cerr)
		}
	}()

	if w.Locale == LocaleJapanese {
		if _, err := f.WriteString(utf8BOM); err != nil {
			return wrapWriteError(path, err)
		}
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(Headers(w.Locale)); err != nil {
		return wrapWriteError(path, err)
	}
	for _, e := range table.Events {
		record := []string{
			e.SourceName,
			strconv.FormatFloat(e.Time, 'g', -1, 64),
			strconv.Itoa(e.CycleIndex),
			DirectionLabel(e.Direction, w.Locale),
		}
		if err := cw.Write(record); err != nil {
			return wrapWriteError(path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return wrapWriteError(path, fmt.Errorf("flush: %w", err))
	}
	return nil
}
