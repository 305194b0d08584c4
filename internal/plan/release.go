package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vlanse/plan-b/internal/calendar"
	"github.com/vlanse/plan-b/internal/team"
)

// Release is a unit capacity is allocated against. Issues and KnownBugs are
// filled once by a DataSource and read-only afterwards.
type Release struct {
	Name  string
	Query string

	Issues []*Issue
	// KnownBugs counts open bugs per development team name.
	KnownBugs map[string]int
}

// DataSource delivers the issues matched by a query, already attributed to teams.
type DataSource interface {
	Fetch(ctx context.Context, query string, teams []*team.Team) ([]*Issue, map[string]int, error)
}

// Plan is the full input of one compilation.
type Plan struct {
	Start    time.Time
	End      time.Time
	Calendar calendar.Production
	Teams    []*team.Team
	Releases []*Release
}

// Months lists the first day of every month of the plan period.
func (p *Plan) Months() []time.Time {
	return calendar.MonthsRange(p.Start, p.End)
}

// Fetch fills every release from source, in declaration order, calling the
// source once per release. The first failure aborts.
func (p *Plan) Fetch(ctx context.Context, source DataSource, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, r := range p.Releases {
		logger.Info("fetching work items", "release", r.Name)
		issues, bugs, err := source.Fetch(ctx, r.Query, p.Teams)
		if err != nil {
			return fmt.Errorf("fetch release %s: %w", r.Name, err)
		}
		r.Issues = issues
		r.KnownBugs = bugs
		logger.Info("fetched work items", "release", r.Name, "issues", len(issues), "known_bugs", sumBugs(bugs))
	}
	return nil
}

func sumBugs(bugs map[string]int) int {
	n := 0
	for _, c := range bugs {
		n += c
	}
	return n
}
