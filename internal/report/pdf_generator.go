package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	tr          func(string) string
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // flowing content position
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellRed"] = func() { // failed sources
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	text = s.tr(text)
	lines := len(s.pdf.SplitLines([]byte(text), pdfContentWidth))
	s.checkAddPage(float64(max(lines, 1)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, text, "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string, styleName string) {
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}

	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	s.pdf.Image(imageName, pdfMargin+(pdfContentWidth-width)/2, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, styleName, "C")
	}
	s.addSpacer(2)
}

// table draws a bordered table. cellStyle picks the style of each body cell.
func (s *pdfStyler) table(headers []string, widthsRel []float64, rows [][]string, cellStyle func(row, col int) string) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	header := func() {
		x := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(x, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(h), "1", 0, "C", true, 0, "")
			x += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for r, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		x := pdfMargin
		for c, cell := range row {
			s.applyStyle(cellStyle(r, c))
			s.pdf.SetXY(x, s.currentY)
			text := fitText(s.tr(cell), widths[c]-2, s.pdf.GetStringWidth)
			s.pdf.CellFormat(widths[c], s.lineHeight, text, "1", 0, "C", false, 0, "")
			x += widths[c]
		}
		s.currentY += s.lineHeight
	}
}

// fitText drops trailing runes until text is no wider than width, keeping at
// least one rune.
func fitText(text string, width float64, measure func(string) float64) string {
	for utf8.RuneCountInString(text) > 1 && measure(text) > width {
		_, size := utf8.DecodeLastRuneInString(text)
		text = text[:len(text)-size]
	}
	return text
}

// PDFWriter renders a summary report: run parameters, the outcome of every
// source, per-source statistics, waveform plots and a cycle-period heatmap.
type PDFWriter struct {
	PlotSamples int
	Logger      *slog.Logger
}

func (w *PDFWriter) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Write builds the PDF at path. Unlike the tabular sinks it is written even
// when no source produced crossings, so failures are still documented.
func (w *PDFWriter) Write(ctx context.Context, path string, rep *Report) error {
	if err := checkTarget(path); err != nil {
		return err
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.AddPage()

	styler := newPDFStyler(pdf)

	styler.writeParagraph("Zero Crossing Analysis Report", "h1", "C")
	styler.addSpacer(3)
	styler.writeParagraph(fmt.Sprintf("Run: %s", rep.RunID), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Created: %s", rep.CreatedAt.Format("2006-01-02 15:04:05 MST")), "normal", "L")
	styler.writeParagraph(fmt.Sprintf("Minimum crossing interval: %g s", rep.MinInterval), "normal", "L")
	styler.addSpacer(5)

	w.writeOutcomes(styler, rep)
	styler.addSpacer(5)

	if len(rep.Tables) == 0 {
		styler.writeParagraph("No source produced zero crossings.", "normal", "L")
		return w.save(pdf, path)
	}

	w.writeSummaries(styler, rep.Tables)

	if err := ctx.Err(); err != nil {
		return err
	}
	styler.newPage()
	styler.writeParagraph("Graphical Analysis", "h1", "C")
	styler.addSpacer(5)

	imgWidth := pdfContentWidth * 0.9
	heatHeight := imgWidth * 0.5
	styler.writeParagraph("Cycle Period Stability", "h2", "L")
	if img, err := CreatePeriodHeatmap(rep.Tables, DefaultHeatmapCycles); err != nil {
		w.logger().Warn("period heatmap skipped", "err", err)
		styler.writeParagraph("Period heatmap not available: fewer than two rising crossings per source.", "normal", "L")
	} else {
		styler.addImage(img, "heatmap_periods", imgWidth, heatHeight, "Deviation of each cycle period from the source's mean period (%)", "normal")
	}

	waveWidth := pdfContentWidth * 0.8
	waveHeight := waveWidth * 0.5
	for i, table := range rep.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		styler.newPage()
		styler.writeParagraph(fmt.Sprintf("Waveform: %s", table.Source), "h2", "L")
		img, err := CreateWaveformPlot(table, w.PlotSamples)
		if err != nil {
			w.logger().Warn("waveform plot skipped", "source", table.Source, "err", err)
			styler.writeParagraph(fmt.Sprintf("Waveform plot for %s not available.", table.Source), "normal", "L")
			continue
		}
		caption := fmt.Sprintf("%d crossings, %d complete cycles", len(table.Events), table.Summary.Cycles)
		styler.addImage(img, "waveform_"+strconv.Itoa(i), waveWidth, waveHeight, caption, "normal")
	}

	return w.save(pdf, path)
}

func (w *PDFWriter) writeOutcomes(styler *pdfStyler, rep *Report) {
	styler.writeParagraph("Sources", "h2", "L")
	if len(rep.Sources) == 0 {
		styler.writeParagraph("No sources were processed.", "normal", "L")
		return
	}
	rows := make([][]string, len(rep.Sources))
	for i, src := range rep.Sources {
		rows[i] = []string{src.Name, src.Status, strconv.Itoa(src.Samples), strconv.Itoa(src.Events), src.Error}
	}
	styler.table(
		[]string{"Source", "Status", "Samples", "Crossings", "Error"},
		[]float64{0.25, 0.08, 0.1, 0.1, 0.47},
		rows,
		func(r, _ int) string {
			if rep.Sources[r].Status == "failed" {
				return "tableCellRed"
			}
			return "tableCell"
		},
	)
}

func (w *PDFWriter) writeSummaries(styler *pdfStyler, tables []Table) {
	styler.writeParagraph("Crossing Statistics", "h2", "L")
	rows := make([][]string, len(tables))
	for i, t := range tables {
		s := t.Summary
		freq := math.NaN()
		if s.MeanPeriod > 0 {
			freq = 1 / s.MeanPeriod
		}
		rows[i] = []string{
			t.Source,
			strconv.Itoa(s.Rising),
			strconv.Itoa(s.Falling),
			strconv.Itoa(s.Cycles),
			formatStat(s.FirstTime, 1, "%.6f"),
			formatStat(s.LastTime, 1, "%.6f"),
			formatStat(s.MeanPeriod, 1000, "%.4f"),
			formatStat(s.StdPeriod, 1000, "%.4f"),
			formatStat(freq, 1, "%.3f"),
		}
	}
	styler.table(
		[]string{"Source", "Rising", "Falling", "Cycles", "First (s)", "Last (s)", "Mean period (ms)", "Std period (ms)", "Frequency (Hz)"},
		[]float64{0.22, 0.07, 0.07, 0.07, 0.11, 0.11, 0.12, 0.12, 0.11},
		rows,
		func(_, _ int) string { return "tableCell" },
	)
}

func (w *PDFWriter) save(pdf *gofpdf.Fpdf, path string) error {
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return wrapWriteError(path, err)
	}
	return nil
}

func formatStat(v, scale float64, format string) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf(format, v*scale)
}
