// Package batch runs zero-crossing detection over many sources. A failure in
// one source never stops the others; every source gets its own outcome.
package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/zerocross_analyzer_go/internal/analysis"
	"github.com/user/zerocross_analyzer_go/internal/parser"
	"github.com/user/zerocross_analyzer_go/internal/report"
)

// DefaultWorkers is the worker count used when Runner.Workers is not positive.
const DefaultWorkers = 4

// SampleSource supplies the samples of one named input.
type SampleSource interface {
	Load(ctx context.Context, path string) (*parser.SampleSeries, error)
}

// Status is the result class of one source.
type Status string

const (
	StatusSuccess Status = "success"
	StatusEmpty   Status = "empty" // parsed and analyzed, but no crossing retained
	StatusFailed  Status = "failed"
)

// Outcome is the result of processing a single source.
type Outcome struct {
	Path     string
	Name     string
	Status   Status
	Samples  []analysis.Sample
	Events   []analysis.CrossingEvent
	Summary  analysis.Summary
	Warnings []string
	Err      error
}

// Result collects the outcomes of one batch, in input order.
type Result struct {
	MinInterval float64
	Outcomes    []Outcome
}

// Counts tallies outcomes by status.
func (r *Result) Counts() (success, empty, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusSuccess:
			success++
		case StatusEmpty:
			empty++
		case StatusFailed:
			failed++
		}
	}
	return success, empty, failed
}

// Tables returns one report table per successful source. Empty and failed
// sources are left out of the persisted report.
func (r *Result) Tables() []report.Table {
	tables := make([]report.Table, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Status != StatusSuccess {
			continue
		}
		tables = append(tables, report.Table{
			Source:  o.Name,
			Path:    o.Path,
			Events:  o.Events,
			Samples: o.Samples,
			Summary: o.Summary,
		})
	}
	return tables
}

// Report assembles the sink input for this batch.
func (r *Result) Report(runID string, createdAt time.Time) *report.Report {
	rep := &report.Report{
		RunID:       runID,
		CreatedAt:   createdAt,
		MinInterval: r.MinInterval,
		Tables:      r.Tables(),
		Sources:     make([]report.SourceStatus, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		st := report.SourceStatus{
			Name:    o.Name,
			Path:    o.Path,
			Status:  string(o.Status),
			Samples: len(o.Samples),
			Events:  len(o.Events),
		}
		if o.Err != nil {
			st.Class = Classify(o.Err)
			st.Error = o.Err.Error()
		}
		rep.Sources = append(rep.Sources, st)
	}
	return rep
}

// Runner processes sources with a bounded pool of workers.
type Runner struct {
	Source      SampleSource
	MinInterval float64
	Workers     int
	Logger      *slog.Logger
}

// Run loads and analyzes every path. It never returns an error itself; per
// source failures are recorded in the outcomes. Cancellation is observed
// before each source starts.
func (r *Runner) Run(ctx context.Context, paths []string) *Result {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	workers := r.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	result := &Result{
		MinInterval: r.MinInterval,
		Outcomes:    make([]Outcome, len(paths)),
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range paths {
		g.Go(func() error {
			outcome := r.processOne(ctx, path)
			logOutcome(logger, &outcome)
			result.Outcomes[i] = outcome
			if errors.Is(outcome.Err, context.Canceled) || errors.Is(outcome.Err, context.DeadlineExceeded) {
				return outcome.Err
			}
			return nil
		})
	}
	// Only cancellation reaches Wait; other failures stay in the outcomes.
	if err := g.Wait(); err != nil {
		logger.Warn("batch interrupted", "err", err)
	}

	return result
}

func (r *Runner) processOne(ctx context.Context, path string) Outcome {
	outcome := Outcome{Path: path, Name: filepath.Base(path)}

	if err := ctx.Err(); err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}

	series, err := r.Source.Load(ctx, path)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Name = series.Name
	outcome.Samples = series.Samples
	outcome.Warnings = series.Warnings

	events, err := analysis.Detect(series.Samples, series.Name, r.MinInterval)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Err = err
		return outcome
	}
	outcome.Events = events
	outcome.Summary = analysis.Summarize(events)

	if len(events) == 0 {
		outcome.Status = StatusEmpty
	} else {
		outcome.Status = StatusSuccess
	}
	return outcome
}

func logOutcome(logger *slog.Logger, o *Outcome) {
	for _, w := range o.Warnings {
		logger.Warn(w, "source", o.Path)
	}
	switch o.Status {
	case StatusSuccess:
		logger.Info("zero crossings detected",
			"source", o.Path, "samples", len(o.Samples), "events", len(o.Events), "cycles", o.Summary.Cycles)
	case StatusEmpty:
		logger.Info("no zero crossings found", "source", o.Path, "samples", len(o.Samples))
	case StatusFailed:
		logger.Error("source failed", "source", o.Path, "class", Classify(o.Err), "err", o.Err)
	}
}

// Classify names the error class of a per-source failure.
func Classify(err error) string {
	var (
		access     *parser.SourceAccessError
		malformed  *parser.MalformedSourceError
		degenerate *analysis.DegenerateSegmentError
		sink       *report.SinkWriteError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &access):
		return "source_access"
	case errors.As(err, &malformed):
		return "malformed_source"
	case errors.Is(err, analysis.ErrEmptyInput):
		return "empty_input"
	case errors.As(err, &degenerate):
		return "degenerate_segment"
	case errors.Is(err, analysis.ErrNegativeInterval):
		return "invalid_interval"
	case errors.As(err, &sink):
		return "sink_write"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "unknown"
	}
}
