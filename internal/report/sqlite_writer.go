package report

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteWriter appends each run to a SQLite database. Unlike the tabular
// sinks it also records runs in which no source produced crossings.
type SQLiteWriter struct{}

// Write stores the run, the status of every source and every retained
// crossing in a single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, path string, rep *Report) error {
	if err := checkTarget(path); err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return wrapSQLiteError(path, fmt.Errorf("open database: %w", err))
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return wrapSQLiteError(path, fmt.Errorf("create schema: %w", err))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return wrapSQLiteError(path, fmt.Errorf("begin: %w", err))
	}
	if err := insertReport(ctx, tx, rep); err != nil {
		_ = tx.Rollback()
		return wrapSQLiteError(path, err)
	}
	if err := tx.Commit(); err != nil {
		return wrapSQLiteError(path, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func insertReport(ctx context.Context, tx *sql.Tx, rep *Report) error {
	runID := rep.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	created := rep.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, min_interval) VALUES (?, ?, ?)`,
		runID, created.UTC().Format(time.RFC3339Nano), rep.MinInterval,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	sources := rep.Sources
	if len(sources) == 0 {
		sources = statusFromTables(rep.Tables)
	}
	tableFor := matchTables(sources, rep.Tables)

	for seq, src := range sources {
		var (
			summary                 *Table
			rising, falling, cycles sql.NullInt64
			first, last, mean, std  sql.NullFloat64
		)
		if idx, ok := tableFor[seq]; ok {
			summary = &rep.Tables[idx]
			s := summary.Summary
			rising = sql.NullInt64{Int64: int64(s.Rising), Valid: true}
			falling = sql.NullInt64{Int64: int64(s.Falling), Valid: true}
			cycles = sql.NullInt64{Int64: int64(s.Cycles), Valid: true}
			first, last = nullFloat(s.FirstTime), nullFloat(s.LastTime)
			mean, std = nullFloat(s.MeanPeriod), nullFloat(s.StdPeriod)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sources
			(run_id, seq, name, path, status, error_class, error, samples, events,
			 rising, falling, cycles, first_time, last_time, mean_period, std_period)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, seq, src.Name, src.Path, src.Status, nullString(src.Class), nullString(src.Error),
			src.Samples, src.Events, rising, falling, cycles, first, last, mean, std,
		); err != nil {
			return fmt.Errorf("insert source %s: %w", src.Name, err)
		}

		if summary == nil {
			continue
		}
		if err := insertCrossings(ctx, tx, runID, seq, summary); err != nil {
			return err
		}
	}
	return nil
}

func insertCrossings(ctx context.Context, tx *sql.Tx, runID string, sourceSeq int, table *Table) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO crossings (run_id, source_seq, source_name, seq, time, cycle_index, direction)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare crossings: %w", err)
	}
	defer stmt.Close()

	for i, e := range table.Events {
		if _, err := stmt.ExecContext(ctx, runID, sourceSeq, e.SourceName, i, e.Time, e.CycleIndex, e.Direction.String()); err != nil {
			return fmt.Errorf("insert crossing %d of %s: %w", i, table.Source, err)
		}
	}
	return nil
}

// matchTables pairs tables with the successful source entries they came
// from, in order. Tables carrying a path are matched on it, others by name.
func matchTables(sources []SourceStatus, tables []Table) map[int]int {
	out := make(map[int]int, len(tables))
	next := 0
	for ti, t := range tables {
		for si := next; si < len(sources); si++ {
			src := sources[si]
			if src.Status != "success" {
				continue
			}
			if (t.Path != "" && src.Path == t.Path) || (t.Path == "" && src.Name == t.Source) {
				out[si] = ti
				next = si + 1
				break
			}
		}
	}
	return out
}

func statusFromTables(tables []Table) []SourceStatus {
	out := make([]SourceStatus, len(tables))
	for i, t := range tables {
		path := t.Path
		if path == "" {
			path = t.Source
		}
		out[i] = SourceStatus{
			Name:    t.Source,
			Path:    path,
			Status:  "success",
			Samples: len(t.Samples),
			Events:  len(t.Events),
		}
	}
	return out
}

func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// wrapSQLiteError maps a busy or locked database onto ReasonFileInUse.
func wrapSQLiteError(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return &SinkWriteError{Path: path, Reason: ReasonFileInUse, Err: err}
	}
	return wrapWriteError(path, err)
}
