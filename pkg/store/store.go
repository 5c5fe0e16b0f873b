// Package store keeps a history of analysis runs in a SQLite database.
//
// Each run is one row holding a searchable summary (population pair, option
// values, counts, timing) and the full JSON report, so a past result can be
// listed, inspected, and re-exported without recomputing it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/cellcluster/pkg/errors"
	"github.com/matzehuels/cellcluster/pkg/observability"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	created_ms    BIGINT NOT NULL,
	input         TEXT,
	cell1         INTEGER NOT NULL,
	cell2         INTEGER NOT NULL,
	layer_num     INTEGER NOT NULL,
	sim_runs      INTEGER NOT NULL,
	seed          TEXT NOT NULL,
	cells         INTEGER NOT NULL,
	seeds         INTEGER NOT NULL,
	bins          INTEGER NOT NULL,
	defined_bins  INTEGER NOT NULL,
	duration_ms   BIGINT NOT NULL,
	report        BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_created ON runs (created_ms DESC);
`

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
}

// Run is the summary row of one analysis.
type Run struct {
	ID       string
	Created  time.Time
	Input    string
	Cell1    int
	Cell2    int
	LayerNum int
	SimRuns  int
	Seed     uint64
	Cells    int
	Seeds    int
	Bins     int
	Defined  int
	Duration time.Duration
}

// Store is a run history backed by a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "open %s", path)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "%s", p)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "apply schema")
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a run and its JSON report.
func (s *Store) SaveRun(ctx context.Context, r Run, report []byte) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_ms, input, cell1, cell2, layer_num, sim_runs, seed,
			cells, seeds, bins, defined_bins, duration_ms, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Created.UnixMilli(), r.Input, r.Cell1, r.Cell2, r.LayerNum, r.SimRuns,
		strconv.FormatUint(r.Seed, 10), r.Cells, r.Seeds, r.Bins, r.Defined,
		r.Duration.Milliseconds(), report)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeStorage, err, "save run %s", r.ID)
	}
	observability.Store().OnRunSaved(ctx, r.ID, time.Since(start), err)
	return err
}

const runColumns = `id, created_ms, input, cell1, cell2, layer_num, sim_runs, seed,
	cells, seeds, bins, defined_bins, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner, extra ...any) (Run, error) {
	var (
		r          Run
		createdMs  int64
		durationMs int64
		input      sql.NullString
		seed       string
	)
	dest := append([]any{&r.ID, &createdMs, &input, &r.Cell1, &r.Cell2, &r.LayerNum, &r.SimRuns, &seed,
		&r.Cells, &r.Seeds, &r.Bins, &r.Defined, &durationMs}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return Run{}, err
	}
	r.Created = time.UnixMilli(createdMs)
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.Input = input.String
	var err error
	if r.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return Run{}, fmt.Errorf("seed %q: %w", seed, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_ms DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "scan run")
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list runs")
	}
	return runs, nil
}

// GetRun returns the run whose id starts with idPrefix together with its
// JSON report. The prefix must identify exactly one run.
func (s *Store) GetRun(ctx context.Context, idPrefix string) (Run, []byte, error) {
	if idPrefix == "" {
		return Run{}, nil, errors.New(errors.ErrCodeInvalidParameter, "run id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+`, report FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`,
		len(idPrefix), idPrefix)
	if err != nil {
		return Run{}, nil, errors.Wrap(errors.ErrCodeStorage, err, "get run %s", idPrefix)
	}
	defer rows.Close()

	var (
		found  []Run
		report []byte
	)
	for rows.Next() {
		var data []byte
		r, err := scanRun(rows, &data)
		if err != nil {
			return Run{}, nil, errors.Wrap(errors.ErrCodeStorage, err, "scan run")
		}
		found = append(found, r)
		report = data
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, errors.Wrap(errors.ErrCodeStorage, err, "get run %s", idPrefix)
	}

	switch len(found) {
	case 0:
		return Run{}, nil, errors.New(errors.ErrCodeNotFound, "no run with id %s", idPrefix)
	case 1:
		return found[0], report, nil
	default:
		return Run{}, nil, errors.New(errors.ErrCodeInvalidParameter, "run id %s is ambiguous", idPrefix)
	}
}

// DeleteRun removes a run. Deleting an unknown id is a NOT_FOUND error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete run %s", id)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeNotFound, "no run with id %s", id)
	}
	return nil
}
