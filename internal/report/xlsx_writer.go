package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	defaultSheet = "Sheet1"
	// Fifteen decimals, the same precision as %.15f.
	timeNumberFormat = "0.000000000000000"
)

// XLSXWriter writes one worksheet per source into a workbook.
type XLSXWriter struct {
	Locale Locale
}

// Write saves every table of rep into a workbook at path. It fails before
// touching the file when there is nothing to write or the target is open in
// another program.
func (w *XLSXWriter) Write(ctx context.Context, path string, rep *Report) error {
	if len(rep.Tables) == 0 {
		return ErrNoTables
	}
	if err := checkTarget(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	timeStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptrString(timeNumberFormat)})
	if err != nil {
		return fmt.Errorf("create time style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sources := make([]string, len(rep.Tables))
	for i, t := range rep.Tables {
		sources[i] = t.Source
	}
	sheetNames := UniqueSheetNames(sources)

	for i, table := range rep.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeSheet(f, sheetNames[i], table, headerStyle, timeStyle); err != nil {
			return fmt.Errorf("sheet %s: %w", sheetNames[i], err)
		}
	}

	if !containsFold(sheetNames, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("remove default sheet: %w", err)
		}
	}
	if idx, err := f.GetSheetIndex(sheetNames[0]); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return wrapWriteError(path, err)
	}
	return nil
}

func (w *XLSXWriter) writeSheet(f *excelize.File, sheet string, table Table, headerStyle, timeStyle int) error {
	// Sheet names are case-insensitive: a source named like the default
	// sheet takes it over instead of creating a new one.
	if strings.EqualFold(sheet, defaultSheet) {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return err
		}
	} else if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	if err := sw.SetColWidth(1, 1, 28); err != nil {
		return err
	}
	if err := sw.SetColWidth(2, 2, 22); err != nil {
		return err
	}
	if err := sw.SetColWidth(4, 4, 24); err != nil {
		return err
	}

	headers := Headers(w.Locale)
	headerRow := make([]interface{}, len(headers))
	for i, h := range headers {
		headerRow[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return err
	}

	for i, e := range table.Events {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			e.SourceName,
			excelize.Cell{StyleID: timeStyle, Value: e.Time},
			e.CycleIndex,
			DirectionLabel(e.Direction, w.Locale),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func ptrString(s string) *string { return &s }

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
