package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/user/zerocross_analyzer_go/internal/batch"
	"github.com/user/zerocross_analyzer_go/internal/config"
	"github.com/user/zerocross_analyzer_go/internal/parser"
	"github.com/user/zerocross_analyzer_go/internal/report"
)

var (
	// ErrNoInputs is returned when analyze is called without CSV files.
	ErrNoInputs = errors.New("no CSV files selected")
	// ErrAllSourcesFailed is returned when not a single input could be analyzed.
	ErrAllSourcesFailed = errors.New("every input file failed")
	// ErrSinkFailed is returned when at least one output could not be written.
	ErrSinkFailed = errors.New("one or more outputs could not be written")
)

// App runs one analysis batch and reports progress on out.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	source batch.SampleSource
	now    func() time.Time
}

// NewApp creates an App reading CSV files as described by cfg.
func NewApp(cfg *config.Config, logger *slog.Logger, out io.Writer) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		out:    out,
		source: parser.NewCSVSource(cfg.ParserOptions()),
		now:    time.Now,
	}
}

// Written describes one persisted output.
type Written struct {
	Format string
	Path   string
	Err    error
}

// AnalyzeResult is what one analyze call produced.
type AnalyzeResult struct {
	Batch   *batch.Result
	Report  *report.Report
	Outputs []Written
}

func (a *App) sendStatus(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

// Analyze runs detection over inputs and writes every configured format.
// outputName overrides the generated file name; its extension is replaced
// per format.
func (a *App) Analyze(ctx context.Context, inputs []string, outputName string) (*AnalyzeResult, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}

	a.sendStatus("Analyzing %d file(s), minimum crossing interval %g s", len(inputs), a.cfg.Analysis.MinInterval)

	runner := &batch.Runner{
		Source:      a.source,
		MinInterval: a.cfg.Analysis.MinInterval,
		Workers:     a.cfg.Analysis.Workers,
		Logger:      a.logger,
	}
	result := runner.Run(ctx, inputs)
	a.printOutcomes(result)

	now := a.now()
	rep := result.Report(uuid.NewString(), now)
	res := &AnalyzeResult{Batch: result, Report: rep}

	if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
		return res, fmt.Errorf("create output directory: %w", err)
	}

	var sinkErrs []error
	for _, format := range a.cfg.OutputFormats() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		path := a.outputPath(format, inputs, outputName, now)
		err := a.sinkFor(format).Write(ctx, path, rep)
		res.Outputs = append(res.Outputs, Written{Format: format, Path: path, Err: err})

		switch {
		case errors.Is(err, report.ErrNoTables):
			color.New(color.FgYellow).Fprintf(a.out, "Skipped %s: no zero crossings found in any file\n", format)
		case err != nil:
			a.logger.Error("output failed", "format", format, "path", path, "class", batch.Classify(err), "err", err)
			color.New(color.FgRed).Fprintf(a.out, "Error writing %s: %v\n", format, err)
			sinkErrs = append(sinkErrs, err)
		default:
			a.logger.Info("output written", "format", format, "path", path)
			color.New(color.FgGreen).Fprintf(a.out, "Saved %s: %s%s\n", format, path, sizeSuffix(path))
		}
	}

	if len(sinkErrs) > 0 {
		return res, fmt.Errorf("%w: %w", ErrSinkFailed, errors.Join(sinkErrs...))
	}
	if _, _, failed := result.Counts(); failed == len(result.Outcomes) {
		return res, ErrAllSourcesFailed
	}
	return res, nil
}

func (a *App) printOutcomes(result *batch.Result) {
	for _, o := range result.Outcomes {
		switch o.Status {
		case batch.StatusSuccess:
			color.New(color.FgGreen).Fprintf(a.out, "  %s: %d crossings, %d cycles (%s samples)\n",
				o.Name, len(o.Events), o.Summary.Cycles, humanize.Comma(int64(len(o.Samples))))
		case batch.StatusEmpty:
			color.New(color.FgYellow).Fprintf(a.out, "  %s: no zero crossings found (%s samples)\n",
				o.Name, humanize.Comma(int64(len(o.Samples))))
		case batch.StatusFailed:
			color.New(color.FgRed).Fprintf(a.out, "  %s: %v\n", o.Name, o.Err)
		}
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.AppendHeader(table.Row{"File", "Status", "Samples", "Crossings", "Cycles", "Mean period (ms)"})
	for _, o := range result.Outcomes {
		period := "-"
		if o.Status == batch.StatusSuccess && o.Summary.Cycles > 0 {
			period = fmt.Sprintf("%.4f", o.Summary.MeanPeriod*1000)
		}
		tbl.AppendRow(table.Row{
			o.Name, string(o.Status), humanize.Comma(int64(len(o.Samples))), len(o.Events), o.Summary.Cycles, period,
		})
	}
	success, empty, failed := result.Counts()
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d files", len(result.Outcomes)),
		fmt.Sprintf("%d ok / %d empty / %d failed", success, empty, failed)})
	fmt.Fprintln(a.out, tbl.Render())
}

func (a *App) sinkFor(format string) report.Sink {
	locale := a.cfg.Locale()
	switch format {
	case config.FormatCSV:
		return &report.CSVWriter{Locale: locale}
	case config.FormatSQLite:
		return &report.SQLiteWriter{}
	case config.FormatPDF:
		return &report.PDFWriter{PlotSamples: a.cfg.Output.PlotSamples, Logger: a.logger}
	default:
		return &report.XLSXWriter{Locale: locale}
	}
}

// extensionFor is the file extension of each format; csv output is a directory.
func extensionFor(format string) string {
	switch format {
	case config.FormatCSV:
		return ""
	case config.FormatSQLite:
		return "db"
	default:
		return format
	}
}

func (a *App) outputPath(format string, inputs []string, outputName string, now time.Time) string {
	ext := extensionFor(format)

	var base string
	if outputName != "" {
		base = strings.TrimSuffix(outputName, filepath.Ext(outputName))
	} else {
		base = report.DefaultOutputName(inputs, now, "")
	}
	if ext != "" {
		base += "." + ext
	}
	if filepath.IsAbs(base) {
		return base
	}
	return filepath.Join(a.cfg.Output.Dir, base)
}

func sizeSuffix(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return fmt.Sprintf(" (%s)", humanize.Bytes(uint64(info.Size())))
}
