package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/plan"
)

// Store provides SQLite-backed persistence for fetched plan snapshots.
type Store struct {
	db *sql.DB
}

// ErrNoSnapshot is returned when nothing has been recorded yet.
var ErrNoSnapshot = errors.New("store: no snapshot recorded")

// Run is one recorded export.
type Run struct {
	ID          string
	RecordedAt  time.Time
	PeriodStart string
	PeriodEnd   string
	Releases    int
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	recorded_at DATETIME NOT NULL DEFAULT (datetime('now')),
	period_start TEXT NOT NULL,
	period_end TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS releases (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	query TEXT NOT NULL,
	PRIMARY KEY (run_id, name)
);

CREATE TABLE IF NOT EXISTS issues (
	run_id TEXT NOT NULL,
	release TEXT NOT NULL,
	position INTEGER NOT NULL,
	issue_key TEXT NOT NULL,
	summary TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	owner TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, release, issue_key)
);

CREATE TABLE IF NOT EXISTS issue_estimates (
	run_id TEXT NOT NULL,
	release TEXT NOT NULL,
	issue_key TEXT NOT NULL,
	team TEXT NOT NULL,
	reqs_level REAL,
	design_level REAL,
	arch_design INTEGER,
	perf_design INTEGER,
	implementation INTEGER,
	documentation INTEGER,
	qa_effort INTEGER,
	PRIMARY KEY (run_id, release, issue_key, team)
);

CREATE TABLE IF NOT EXISTS known_bugs (
	run_id TEXT NOT NULL,
	release TEXT NOT NULL,
	team TEXT NOT NULL,
	count INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_id, release, team)
);

CREATE INDEX IF NOT EXISTS idx_runs_recorded_at ON runs(recorded_at);
`

// Open opens (or creates) the snapshot database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", dbPath, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create schema: %w", err)
	}

	// Run migrations for existing databases
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// migrate applies incremental schema migrations for existing databases.
func migrate(db *sql.DB) error {
	// Snapshots recorded before owners were kept lack the owner column.
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('issues') WHERE name = 'owner'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check owner column: %w", err)
	}
	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE issues ADD COLUMN owner TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("add owner column: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSnapshot stores every release of p with its issues, original
// estimates and known-bug counts under runID.
func (s *Store) RecordSnapshot(ctx context.Context, runID string, p *plan.Plan) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin snapshot: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, recorded_at, period_start, period_end) VALUES (?, ?, ?, ?)`,
		runID, time.Now().UTC(), p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly),
	); err != nil {
		return fmt.Errorf("store: insert run %s: %w", runID, err)
	}

	for i, r := range p.Releases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO releases (run_id, position, name, query) VALUES (?, ?, ?, ?)`,
			runID, i, r.Name, r.Query,
		); err != nil {
			return fmt.Errorf("store: insert release %s: %w", r.Name, err)
		}
		for j, issue := range r.Issues {
			if err := insertIssue(ctx, tx, runID, r.Name, j, issue); err != nil {
				return err
			}
		}
		for team, count := range r.KnownBugs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO known_bugs (run_id, release, team, count) VALUES (?, ?, ?, ?)`,
				runID, r.Name, team, count,
			); err != nil {
				return fmt.Errorf("store: insert known bugs of %s: %w", r.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit snapshot: %w", err)
	}
	return nil
}

func insertIssue(ctx context.Context, tx *sql.Tx, runID, release string, position int, issue *plan.Issue) error {
	owner := ""
	if issue.Owner != nil {
		owner = issue.Owner.Name
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO issues (run_id, release, position, issue_key, summary, url, status, owner) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, release, position, issue.Key, issue.Summary, issue.URL, issue.Status, owner,
	); err != nil {
		return fmt.Errorf("store: insert issue %s: %w", issue.Key, err)
	}
	for team, e := range issue.Original {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO issue_estimates (run_id, release, issue_key, team, reqs_level, design_level,
				arch_design, perf_design, implementation, documentation, qa_effort)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, release, issue.Key, team, level(e.ReqsLevel), level(e.DesignLevel),
			effort(e.ArchDesign), effort(e.PerfDesign), effort(e.Implementation), effort(e.Documentation), effort(e.QAEffort),
		); err != nil {
			return fmt.Errorf("store: insert estimate %s/%s: %w", issue.Key, team, err)
		}
	}
	return nil
}

func level(v *estimate.ConfidenceLevel) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(*v), Valid: true}
}

func effort(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// LatestRun returns the most recently recorded run.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx,
		`SELECT r.id, r.recorded_at, r.period_start, r.period_end,
			(SELECT COUNT(*) FROM releases WHERE run_id = r.id)
		FROM runs r ORDER BY r.recorded_at DESC, r.rowid DESC LIMIT 1`,
	).Scan(&r.ID, &r.RecordedAt, &r.PeriodStart, &r.PeriodEnd, &r.Releases)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest run: %w", err)
	}
	return &r, nil
}
