package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vlanse/plan-b/internal/estimate"
	"github.com/vlanse/plan-b/internal/plan"
	"github.com/vlanse/plan-b/internal/team"
)

// Replay serves the releases of one recorded run as a plan.DataSource.
type Replay struct {
	store  *Store
	run    *Run
	logger *slog.Logger
}

// Replay returns a data source replaying the latest run.
func (s *Store) Replay(ctx context.Context, logger *slog.Logger) (*Replay, error) {
	run, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("replaying snapshot", "run_id", run.ID, "recorded_at", run.RecordedAt)
	return &Replay{store: s, run: run, logger: logger}, nil
}

var _ plan.DataSource = (*Replay)(nil)

// Run returns the run being replayed.
func (r *Replay) Run() *Run {
	return r.run
}

// Fetch returns the issues recorded for the release with the given query.
// Owners and estimate teams are resolved against teams by name; teams no
// longer planned leave the issue unowned.
func (r *Replay) Fetch(ctx context.Context, query string, teams []*team.Team) ([]*plan.Issue, map[string]int, error) {
	var release string
	err := r.store.db.QueryRowContext(ctx,
		`SELECT name FROM releases WHERE run_id = ? AND query = ? ORDER BY position LIMIT 1`, r.run.ID, query,
	).Scan(&release)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("store: query %q not recorded in run %s", query, r.run.ID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("store: find release: %w", err)
	}

	estimates, err := r.estimates(ctx, release)
	if err != nil {
		return nil, nil, err
	}

	rows, err := r.store.db.QueryContext(ctx,
		`SELECT issue_key, summary, url, status, owner FROM issues WHERE run_id = ? AND release = ? ORDER BY position`,
		r.run.ID, release,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("store: query issues: %w", err)
	}
	defer rows.Close()

	byName := team.ByName(teams)
	var issues []*plan.Issue
	for rows.Next() {
		var key, summary, url, status, owner string
		if err := rows.Scan(&key, &summary, &url, &status, &owner); err != nil {
			return nil, nil, fmt.Errorf("store: scan issue: %w", err)
		}
		ownerTeam := byName[owner]
		if owner != "" && ownerTeam == nil {
			r.logger.Warn("recorded owner is not a planned team", "issue", key, "team", owner)
		}
		issues = append(issues, plan.NewIssue(key, summary, url, status, ownerTeam, estimates[key]))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: query issues: %w", err)
	}

	bugs, err := r.knownBugs(ctx, release)
	if err != nil {
		return nil, nil, err
	}
	return issues, bugs, nil
}

func (r *Replay) estimates(ctx context.Context, release string) (map[string]map[string]*estimate.WorkEstimate, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT issue_key, team, reqs_level, design_level, arch_design, perf_design, implementation, documentation, qa_effort
		FROM issue_estimates WHERE run_id = ? AND release = ?`,
		r.run.ID, release,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query estimates: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string]*estimate.WorkEstimate)
	for rows.Next() {
		var key, teamName string
		var reqs, design sql.NullFloat64
		var arch, perf, impl, doc, qa sql.NullInt64
		if err := rows.Scan(&key, &teamName, &reqs, &design, &arch, &perf, &impl, &doc, &qa); err != nil {
			return nil, fmt.Errorf("store: scan estimate: %w", err)
		}
		if out[key] == nil {
			out[key] = make(map[string]*estimate.WorkEstimate)
		}
		out[key][teamName] = &estimate.WorkEstimate{
			ReqsLevel:      levelPtr(reqs),
			DesignLevel:    levelPtr(design),
			ArchDesign:     effortPtr(arch),
			PerfDesign:     effortPtr(perf),
			Implementation: effortPtr(impl),
			Documentation:  effortPtr(doc),
			QAEffort:       effortPtr(qa),
		}
	}
	return out, rows.Err()
}

func (r *Replay) knownBugs(ctx context.Context, release string) (map[string]int, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT team, count FROM known_bugs WHERE run_id = ? AND release = ?`, r.run.ID, release,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query known bugs: %w", err)
	}
	defer rows.Close()

	bugs := make(map[string]int)
	for rows.Next() {
		var teamName string
		var count int
		if err := rows.Scan(&teamName, &count); err != nil {
			return nil, fmt.Errorf("store: scan known bugs: %w", err)
		}
		bugs[teamName] = count
	}
	return bugs, rows.Err()
}

func levelPtr(v sql.NullFloat64) *estimate.ConfidenceLevel {
	if !v.Valid {
		return nil
	}
	return estimate.Ptr(estimate.ConfidenceLevel(v.Float64))
}

func effortPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return estimate.Ptr(v.Int64)
}
