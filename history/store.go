// Package history keeps a SQLite log of planner runs and the recipes each run
// sent.
package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"
)

// DefaultFile is the database file name inside the data directory.
const DefaultFile = "history.db"

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeSent         Outcome = "sent"
	OutcomeInsufficient Outcome = "insufficient_variety"
	OutcomeFailed       Outcome = "failed"
)

// ErrRunNotFound is returned by GetRun for an unknown ID.
var ErrRunNotFound = eris.New("run not found")

// Run is one recorded planner run.
type Run struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Outcome     Outcome
	Refreshed   bool
	UnusedMains int
	UnusedSides int
	Error       string
	// Recipes is only populated by GetRun.
	Recipes     []SentRecipe
	RecipeCount int
}

// SentRecipe is one meal selection entry of a sent run.
type SentRecipe struct {
	URL   string
	Kind  string
	Title string
}

// Store manages run history using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, eris.Wrap(err, "failed to open database")
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "failed to initialize schema")
	}

	return store, nil
}

// initSchema creates the history tables if they don't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		outcome TEXT NOT NULL,
		refreshed INTEGER NOT NULL DEFAULT 0,
		unused_mains INTEGER NOT NULL DEFAULT 0,
		unused_sides INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE TABLE IF NOT EXISTS sent_recipes (
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		url TEXT NOT NULL,
		kind TEXT NOT NULL,
		title TEXT NOT NULL,
		PRIMARY KEY (run_id, position)
	);

	CREATE INDEX IF NOT EXISTS idx_sent_recipes_url ON sent_recipes(url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun stores run and its sent recipes in one transaction.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	if run.ID == uuid.Nil {
		return eris.New("run has no ID")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var runErr *string
	if run.Error != "" {
		runErr = &run.Error
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, started_at, finished_at, outcome,
			refreshed, unused_mains, unused_sides, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID.String(),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		string(run.Outcome),
		run.Refreshed,
		run.UnusedMains,
		run.UnusedSides,
		runErr,
	)
	if err != nil {
		return eris.Wrap(err, "failed to insert run")
	}

	for i, r := range run.Recipes {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO sent_recipes (run_id, position, url, kind, title) VALUES (?, ?, ?, ?, ?)",
			run.ID.String(), i, r.URL, r.Kind, r.Title,
		)
		if err != nil {
			return eris.Wrapf(err, "failed to insert sent recipe %s", r.URL)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "failed to commit run")
	}
	return nil
}

const runColumns = `
	r.run_id, r.started_at, r.finished_at, r.outcome, r.refreshed,
	r.unused_mains, r.unused_sides, r.error,
	(SELECT COUNT(*) FROM sent_recipes s WHERE s.run_id = r.run_id)
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var idStr, startedStr, finishedStr, outcome string
	var runErr sql.NullString

	err := row.Scan(
		&idStr, &startedStr, &finishedStr, &outcome, &run.Refreshed,
		&run.UnusedMains, &run.UnusedSides, &runErr, &run.RecipeCount,
	)
	if err != nil {
		return Run{}, err
	}

	run.ID, _ = uuid.Parse(idStr)
	run.StartedAt = parseTime(startedStr)
	run.FinishedAt = parseTime(finishedStr)
	run.Outcome = Outcome(outcome)
	if runErr.Valid {
		run.Error = runErr.String
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs r ORDER BY r.started_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read runs")
	}

	return runs, nil
}

// GetRun returns one run with its sent recipes.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs r WHERE r.run_id = ?", id.String())
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrRunNotFound, "%s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "failed to query run")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT url, kind, title FROM sent_recipes WHERE run_id = ? ORDER BY position", id.String())
	if err != nil {
		return nil, eris.Wrap(err, "failed to query sent recipes")
	}
	defer rows.Close()

	for rows.Next() {
		var r SentRecipe
		if err := rows.Scan(&r.URL, &r.Kind, &r.Title); err != nil {
			return nil, eris.Wrap(err, "failed to scan sent recipe")
		}
		run.Recipes = append(run.Recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to read sent recipes")
	}

	return &run, nil
}

// LastSent returns when url was last sent, if ever.
func (s *Store) LastSent(ctx context.Context, url string) (time.Time, bool, error) {
	var started string
	err := s.db.QueryRowContext(ctx, `
		SELECT r.started_at FROM sent_recipes s
		JOIN runs r ON r.run_id = s.run_id
		WHERE s.url = ?
		ORDER BY r.started_at DESC LIMIT 1
	`, url).Scan(&started)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, eris.Wrap(err, "failed to query sent recipe")
	}
	return parseTime(started), true, nil
}

// Times are stored as fixed-width UTC RFC 3339 strings so they sort
// lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
